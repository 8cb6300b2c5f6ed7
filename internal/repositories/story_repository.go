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

// StoryRepository defines the interface for story operations
type StoryRepository interface {
	EnsureIndexes(ctx context.Context) error
	CreateStory(ctx context.Context, story *models.Story) error
	GetStoryByID(ctx context.Context, id string) (*models.Story, error)
	GetActiveStoriesByUserIDs(ctx context.Context, userIDs []string) ([]models.Story, error)
	AddViewer(ctx context.Context, storyID, viewerID string) (bool, error)
	DeleteStory(ctx context.Context, id string) error
}

type mongoStoryRepository struct {
	collection *mongo.Collection
}

func NewMongoStoryRepository(db *mongo.Database) StoryRepository {
	return &mongoStoryRepository{collection: db.Collection("stories")}
}

// EnsureIndexes creates the TTL index on expires_at so expired stories are
// physically removed by the database. expireAfterSeconds 0 means "at the
// timestamp itself"; latency beyond that is the TTL monitor's sweep interval.
func (r *mongoStoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	return err
}

func (r *mongoStoryRepository) CreateStory(ctx context.Context, story *models.Story) error {
	story.ID = primitive.NewObjectID()
	story.CreatedAt = time.Now()
	story.ExpiresAt = story.CreatedAt.Add(models.StoryTTL)
	if story.Viewers == nil {
		story.Viewers = []string{}
	}
	_, err := r.collection.InsertOne(ctx, story)
	return err
}

func (r *mongoStoryRepository) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid story ID format")
	}
	var story models.Story
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&story)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("story not found")
		}
		return nil, err
	}
	return &story, nil
}

// GetActiveStoriesByUserIDs returns unexpired stories owned by the given
// users, newest first. The expires_at filter guards the window between expiry
// and the TTL monitor's deletion sweep.
func (r *mongoStoryRepository) GetActiveStoriesByUserIDs(ctx context.Context, userIDs []string) ([]models.Story, error) {
	filter := bson.M{
		"user_id":    bson.M{"$in": userIDs},
		"expires_at": bson.M{"$gt": time.Now()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stories []models.Story
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// AddViewer adds viewerID to the story's viewer set. Returns false when the
// viewer was already present, so a repeat view never changes the view count.
func (r *mongoStoryRepository) AddViewer(ctx context.Context, storyID, viewerID string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(storyID)
	if err != nil {
		return false, fmt.Errorf("invalid story ID format")
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$addToSet": bson.M{"viewers": viewerID}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, fmt.Errorf("story not found")
	}
	return res.ModifiedCount > 0, nil
}

func (r *mongoStoryRepository) DeleteStory(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid story ID format")
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("story not found")
	}
	return nil
}
