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

// MessageRepository defines the interface for message operations
type MessageRepository interface {
	EnsureIndexes(ctx context.Context) error
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error)
	ListBetween(ctx context.Context, userA, userB string, limit int64) ([]models.Message, error)
	MarkRead(ctx context.Context, receiver, sender string) error
	CountUnread(ctx context.Context, receiver string) (int64, error)
	CountUnreadFrom(ctx context.Context, receiver, sender string) (int64, error)
}

type mongoMessageRepository struct {
	collection *mongo.Collection
}

func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &mongoMessageRepository{collection: db.Collection("messages")}
}

func (r *mongoMessageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "sender", Value: 1}, {Key: "receiver", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "read", Value: 1}},
		},
	})
	return err
}

func (r *mongoMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, message)
	return err
}

func (r *mongoMessageRepository) GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	var message models.Message
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&message)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("message not found")
		}
		return nil, err
	}
	return &message, nil
}

// ListBetween returns messages exchanged between the two users in either
// direction, oldest first, capped at limit.
func (r *mongoMessageRepository) ListBetween(ctx context.Context, userA, userB string, limit int64) ([]models.Message, error) {
	filter := bson.M{
		"$or": bson.A{
			bson.M{"sender": userA, "receiver": userB},
			bson.M{"sender": userB, "receiver": userA},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead flips every unread message from sender to receiver in one bulk
// write. Best-effort relative to concurrent sends; "read" is not a
// linearizable signal.
func (r *mongoMessageRepository) MarkRead(ctx context.Context, receiver, sender string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"receiver": receiver, "sender": sender, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

func (r *mongoMessageRepository) CountUnread(ctx context.Context, receiver string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"receiver": receiver, "read": false})
}

func (r *mongoMessageRepository) CountUnreadFrom(ctx context.Context, receiver, sender string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"receiver": receiver, "sender": sender, "read": false})
}
