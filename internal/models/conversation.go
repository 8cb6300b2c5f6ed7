package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a two-party thread stored in MongoDB. Participants are
// stored sorted ascending and PairKey is "lo:hi", carrying a unique index so
// two concurrent first contacts between the same pair converge on one
// document. UpdatedAt is bumped on every new message.
type Conversation struct {
	ID            primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	Participants  []string            `json:"participants" bson:"participants"`
	PairKey       string              `json:"-" bson:"pair_key"`
	LastMessageID *primitive.ObjectID `json:"last_message_id,omitempty" bson:"last_message_id,omitempty"`
	CreatedAt     time.Time           `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time           `json:"updatedAt" bson:"updated_at"`
}

// ParticipantPair returns the sorted participant slice and the canonical pair
// key for two user IDs, order-independent.
func ParticipantPair(a, b string) ([]string, string) {
	if b < a {
		a, b = b, a
	}
	return []string{a, b}, a + ":" + b
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID. The receiver
// of a message is always derived this way, never taken from the client.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// Recognized message media kinds.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
	MediaTypeGIF   = "gif"
)

func IsValidMediaType(t string) bool {
	return t == MediaTypeImage || t == MediaTypeVideo || t == MediaTypeGIF
}

// Message is a direct message inside a conversation. It must carry non-empty
// content or a media URL, never neither; MediaType is set iff MediaURL is.
type Message struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversation_id" bson:"conversation_id"`
	Sender         string             `json:"sender" bson:"sender"`
	Receiver       string             `json:"receiver" bson:"receiver"`
	Content        string             `json:"content" bson:"content"`
	MediaURL       string             `json:"mediaUrl,omitempty" bson:"media_url,omitempty"`
	MediaType      string             `json:"mediaType,omitempty" bson:"media_type,omitempty"`
	Read           bool               `json:"read" bson:"read"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
}

// SendMessageRequest defines the request body for sending a message. The
// content-or-media rule and the media type enum are checked in the handler
// before anything is written.
type SendMessageRequest struct {
	Content   string `json:"content"`
	MediaURL  string `json:"mediaUrl"`
	MediaType string `json:"mediaType"`
}
