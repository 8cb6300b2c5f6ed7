package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a media post stored in MongoDB. Likes is a set of user
// IDs (Postgres IDs rendered as strings); the like count is derived from it.
type Post struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string             `json:"user_id" bson:"user_id"`
	ImageURL  string             `json:"imageUrl" bson:"image_url"`
	Caption   string             `json:"caption" bson:"caption"`
	Likes     []string           `json:"likes" bson:"likes"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updated_at"`
}

func (p *Post) LikeCount() int { return len(p.Likes) }

func (p *Post) HasLiked(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	ImageURL string `json:"imageUrl" validate:"required"`
	Caption  string `json:"caption" validate:"omitempty,max=2200"`
}
