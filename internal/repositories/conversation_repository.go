package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/sajib-hossain/photogram/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository defines the interface for conversation operations
type ConversationRepository interface {
	EnsureIndexes(ctx context.Context) error
	GetOrCreate(ctx context.Context, userA, userB string) (*models.Conversation, error)
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListByParticipant(ctx context.Context, userID string) ([]models.Conversation, error)
	SetLastMessage(ctx context.Context, conversationID, messageID primitive.ObjectID, at time.Time) error
}

type mongoConversationRepository struct {
	collection *mongo.Collection
}

func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	return &mongoConversationRepository{collection: db.Collection("conversations")}
}

func (r *mongoConversationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}},
		},
	})
	return err
}

// GetOrCreate finds the conversation for the pair or atomically inserts one.
// The upsert is keyed on the canonical sorted pair key, so two concurrent
// first contacts between the same users resolve to a single document
// regardless of argument order.
func (r *mongoConversationRepository) GetOrCreate(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	participants, pairKey := models.ParticipantPair(userA, userB)
	now := time.Now()

	update := bson.M{
		"$setOnInsert": bson.M{
			"participants": participants,
			"pair_key":     pairKey,
			"created_at":   now,
			"updated_at":   now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var conversation models.Conversation
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"pair_key": pairKey}, update, opts).Decode(&conversation)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *mongoConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid conversation ID format")
	}
	var conversation models.Conversation
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&conversation)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("conversation not found")
		}
		return nil, err
	}
	return &conversation, nil
}

// ListByParticipant returns the user's conversations, most recently active
// first.
func (r *mongoConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]models.Conversation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var conversations []models.Conversation
	if err = cursor.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// SetLastMessage points the conversation at its most recent message and bumps
// updated_at. Runs after the message insert; the two writes are not
// transactional, so a failure here leaves the pointer stale (never dangling)
// until the next send.
func (r *mongoConversationRepository) SetLastMessage(ctx context.Context, conversationID, messageID primitive.ObjectID, at time.Time) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{"last_message_id": messageID, "updated_at": at}},
	)
	return err
}
