package handlers

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sajib-hossain/photogram/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database standing in for Postgres.
func setupTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect to test database")
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Comment{},
		&models.Notification{},
		&models.StoryView{},
	); err != nil {
		panic(err)
	}
	return db
}

// newJSONContext builds an echo context carrying a JSON body.
func newJSONContext(e *echo.Echo, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// asUser attaches JWT claims to the context the way the auth middleware does.
func asUser(c echo.Context, userID uint) {
	c.Set("user", &models.JwtCustomClaims{UserID: userID})
}

// --- in-memory fakes for the MongoDB-backed repositories ---

type fakeStoryRepository struct {
	stories map[string]*models.Story
}

func newFakeStoryRepository() *fakeStoryRepository {
	return &fakeStoryRepository{stories: make(map[string]*models.Story)}
}

func (r *fakeStoryRepository) EnsureIndexes(ctx context.Context) error { return nil }

func (r *fakeStoryRepository) CreateStory(ctx context.Context, story *models.Story) error {
	story.ID = primitive.NewObjectID()
	story.CreatedAt = time.Now()
	story.ExpiresAt = story.CreatedAt.Add(models.StoryTTL)
	if story.Viewers == nil {
		story.Viewers = []string{}
	}
	r.stories[story.ID.Hex()] = story
	return nil
}

func (r *fakeStoryRepository) GetStoryByID(ctx context.Context, id string) (*models.Story, error) {
	story, ok := r.stories[id]
	if !ok {
		return nil, fmt.Errorf("story not found")
	}
	copied := *story
	return &copied, nil
}

func (r *fakeStoryRepository) GetActiveStoriesByUserIDs(ctx context.Context, userIDs []string) ([]models.Story, error) {
	owners := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		owners[id] = true
	}
	var stories []models.Story
	now := time.Now()
	for _, s := range r.stories {
		if owners[s.UserID] && s.ExpiresAt.After(now) {
			stories = append(stories, *s)
		}
	}
	sort.Slice(stories, func(i, j int) bool { return stories[i].CreatedAt.After(stories[j].CreatedAt) })
	return stories, nil
}

func (r *fakeStoryRepository) AddViewer(ctx context.Context, storyID, viewerID string) (bool, error) {
	story, ok := r.stories[storyID]
	if !ok {
		return false, fmt.Errorf("story not found")
	}
	for _, v := range story.Viewers {
		if v == viewerID {
			return false, nil
		}
	}
	story.Viewers = append(story.Viewers, viewerID)
	return true, nil
}

func (r *fakeStoryRepository) DeleteStory(ctx context.Context, id string) error {
	if _, ok := r.stories[id]; !ok {
		return fmt.Errorf("story not found")
	}
	delete(r.stories, id)
	return nil
}

type fakeConversationRepository struct {
	byPairKey map[string]*models.Conversation
}

func newFakeConversationRepository() *fakeConversationRepository {
	return &fakeConversationRepository{byPairKey: make(map[string]*models.Conversation)}
}

func (r *fakeConversationRepository) EnsureIndexes(ctx context.Context) error { return nil }

func (r *fakeConversationRepository) GetOrCreate(ctx context.Context, userA, userB string) (*models.Conversation, error) {
	participants, pairKey := models.ParticipantPair(userA, userB)
	if conv, ok := r.byPairKey[pairKey]; ok {
		copied := *conv
		return &copied, nil
	}
	now := time.Now()
	conv := &models.Conversation{
		ID:           primitive.NewObjectID(),
		Participants: participants,
		PairKey:      pairKey,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.byPairKey[pairKey] = conv
	copied := *conv
	return &copied, nil
}

func (r *fakeConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	for _, conv := range r.byPairKey {
		if conv.ID.Hex() == id {
			copied := *conv
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("conversation not found")
}

func (r *fakeConversationRepository) ListByParticipant(ctx context.Context, userID string) ([]models.Conversation, error) {
	var conversations []models.Conversation
	for _, conv := range r.byPairKey {
		if conv.HasParticipant(userID) {
			conversations = append(conversations, *conv)
		}
	}
	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})
	return conversations, nil
}

func (r *fakeConversationRepository) SetLastMessage(ctx context.Context, conversationID, messageID primitive.ObjectID, at time.Time) error {
	for _, conv := range r.byPairKey {
		if conv.ID == conversationID {
			id := messageID
			conv.LastMessageID = &id
			conv.UpdatedAt = at
			return nil
		}
	}
	return nil
}

type fakeMessageRepository struct {
	messages []*models.Message
}

func newFakeMessageRepository() *fakeMessageRepository { return &fakeMessageRepository{} }

func (r *fakeMessageRepository) EnsureIndexes(ctx context.Context) error { return nil }

func (r *fakeMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	copied := *message
	r.messages = append(r.messages, &copied)
	return nil
}

func (r *fakeMessageRepository) GetMessageByID(ctx context.Context, id primitive.ObjectID) (*models.Message, error) {
	for _, m := range r.messages {
		if m.ID == id {
			copied := *m
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("message not found")
}

func (r *fakeMessageRepository) ListBetween(ctx context.Context, userA, userB string, limit int64) ([]models.Message, error) {
	var messages []models.Message
	for _, m := range r.messages {
		if (m.Sender == userA && m.Receiver == userB) || (m.Sender == userB && m.Receiver == userA) {
			messages = append(messages, *m)
		}
	}
	sort.Slice(messages, func(i, j int) bool { return messages[i].CreatedAt.Before(messages[j].CreatedAt) })
	if int64(len(messages)) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (r *fakeMessageRepository) MarkRead(ctx context.Context, receiver, sender string) error {
	for _, m := range r.messages {
		if m.Receiver == receiver && m.Sender == sender && !m.Read {
			m.Read = true
		}
	}
	return nil
}

func (r *fakeMessageRepository) CountUnread(ctx context.Context, receiver string) (int64, error) {
	var count int64
	for _, m := range r.messages {
		if m.Receiver == receiver && !m.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepository) CountUnreadFrom(ctx context.Context, receiver, sender string) (int64, error) {
	var count int64
	for _, m := range r.messages {
		if m.Receiver == receiver && m.Sender == sender && !m.Read {
			count++
		}
	}
	return count, nil
}

type fakePostRepository struct {
	posts map[string]*models.Post
}

func newFakePostRepository() *fakePostRepository {
	return &fakePostRepository{posts: make(map[string]*models.Post)}
}

func (r *fakePostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if post.Likes == nil {
		post.Likes = []string{}
	}
	r.posts[post.ID.Hex()] = post
	return nil
}

func (r *fakePostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, fmt.Errorf("post not found")
	}
	copied := *post
	return &copied, nil
}

func (r *fakePostRepository) GetPostsByUserIDs(ctx context.Context, userIDs []string, skip, limit int64) ([]models.Post, error) {
	owners := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		owners[id] = true
	}
	var posts []models.Post
	for _, p := range r.posts {
		if owners[p.UserID] {
			posts = append(posts, *p)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (r *fakePostRepository) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	var posts []models.Post
	for _, p := range r.posts {
		posts = append(posts, *p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	return posts, nil
}

func (r *fakePostRepository) DeletePost(ctx context.Context, id string) error {
	if _, ok := r.posts[id]; !ok {
		return fmt.Errorf("post not found")
	}
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepository) AddLike(ctx context.Context, postID, userID string) (bool, error) {
	post, ok := r.posts[postID]
	if !ok {
		return false, fmt.Errorf("post not found")
	}
	for _, l := range post.Likes {
		if l == userID {
			return false, nil
		}
	}
	post.Likes = append(post.Likes, userID)
	return true, nil
}

func (r *fakePostRepository) RemoveLike(ctx context.Context, postID, userID string) (bool, error) {
	post, ok := r.posts[postID]
	if !ok {
		return false, fmt.Errorf("post not found")
	}
	for i, l := range post.Likes {
		if l == userID {
			post.Likes = append(post.Likes[:i], post.Likes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
