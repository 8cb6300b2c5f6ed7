package models

import "time"

// Notification types. Only like, comment and follow actions notify; message
// and story flows deliberately do not.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
)

// Notification is created as a side effect of like/comment/follow actions,
// never when the actor and recipient are the same user.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID uint      `json:"recipient_id" gorm:"index"`
	SenderID    uint      `json:"sender_id" gorm:"index"`
	Type        string    `json:"type" gorm:"size:20;index"`
	PostID      string    `json:"post_id,omitempty"`
	CommentID   uint      `json:"comment_id,omitempty"`
	Read        bool      `json:"read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
