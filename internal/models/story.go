package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StoryTTL is how long a story stays visible before the TTL index evicts it.
const StoryTTL = 24 * time.Hour

// Story is a MongoDB document. Viewers is the set of user IDs that have seen
// it; the view count is derived. The expires_at field carries a TTL index, so
// the database removes the document some time at or after expiry. Active-story
// queries still filter on expires_at > now because TTL deletion is not
// immediate.
type Story struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	ImageURL  string             `json:"imageUrl" bson:"image_url"`
	Caption   string             `json:"caption" bson:"caption"`
	Viewers   []string           `json:"viewers" bson:"viewers"`
	ExpiresAt time.Time          `json:"expiresAt" bson:"expires_at"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

func (s *Story) ViewCount() int { return len(s.Viewers) }

func (s *Story) HasViewed(userID string) bool {
	for _, id := range s.Viewers {
		if id == userID {
			return true
		}
	}
	return false
}

// StoryView is the durable audit record of a view, kept in PostgreSQL so it
// survives story expiry. At most one row per (story, viewer); a repeat view
// refreshes ViewedAt via upsert.
type StoryView struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	StoryID       string    `json:"story_id" gorm:"index;uniqueIndex:idx_story_viewer"`
	OwnerID       uint      `json:"owner_id" gorm:"index"`
	ViewerID      uint      `json:"viewer_id" gorm:"uniqueIndex:idx_story_viewer"`
	StoryImageURL string    `json:"story_image_url"`
	ViewedAt      time.Time `json:"viewed_at" gorm:"index"`
}

// CreateStoryRequest defines the request body for creating a story
type CreateStoryRequest struct {
	ImageURL string `json:"imageUrl" validate:"required"`
	Caption  string `json:"caption" validate:"omitempty,max=200"`
}
