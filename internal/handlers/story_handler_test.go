package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sajib-hossain/photogram/backend/internal/models"
	"github.com/sajib-hossain/photogram/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type storyTestEnv struct {
	e         *echo.Echo
	db        *gorm.DB
	storyRepo *fakeStoryRepository
	viewRepo  repositories.StoryViewRepository
	handler   *StoryHandler
}

func setupStoryTest(t *testing.T) *storyTestEnv {
	t.Helper()
	env := &storyTestEnv{
		e:         echo.New(),
		db:        setupTestDB(),
		storyRepo: newFakeStoryRepository(),
	}
	env.viewRepo = repositories.NewPostgresStoryViewRepository(env.db)
	env.handler = NewStoryHandler(
		env.storyRepo,
		env.viewRepo,
		repositories.NewPostgresFollowRepository(env.db),
		repositories.NewPostgresUserRepository(env.db),
	)
	return env
}

func (env *storyTestEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed-password",
	}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *storyTestEnv) follow(t *testing.T, follower, following uint) {
	t.Helper()
	require.NoError(t, env.db.Create(&models.Follow{FollowerID: follower, FollowingID: following}).Error)
}

func (env *storyTestEnv) addStory(t *testing.T, ownerID uint, imageURL string) *models.Story {
	t.Helper()
	story := &models.Story{UserID: uidString(ownerID), ImageURL: imageURL}
	require.NoError(t, env.storyRepo.CreateStory(nil, story))
	// Keep creation timestamps strictly ordered for feed assertions.
	time.Sleep(time.Millisecond)
	return story
}

func (env *storyTestEnv) viewStory(t *testing.T, viewerID uint, storyID string) *echo.HTTPError {
	t.Helper()
	c, _ := newJSONContext(env.e, http.MethodPost, "/api/v1/stories/"+storyID+"/view", "")
	asUser(c, viewerID)
	c.SetParamNames("id")
	c.SetParamValues(storyID)

	if err := env.handler.ViewStory(c); err != nil {
		he, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		return he
	}
	return nil
}

func TestCreateStory(t *testing.T) {
	env := setupStoryTest(t)
	u1 := env.createUser(t, "alice")

	c, rec := newJSONContext(env.e, http.MethodPost, "/api/v1/stories", `{"imageUrl": "https://cdn.example.com/s.jpg", "caption": "sunset"}`)
	asUser(c, u1.ID)
	require.NoError(t, env.handler.CreateStory(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Story models.Story `json:"story"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uidString(u1.ID), resp.Story.UserID)
	assert.Equal(t, "sunset", resp.Story.Caption)
	assert.Equal(t, resp.Story.CreatedAt.Add(models.StoryTTL), resp.Story.ExpiresAt)
}

func TestCreateStory_Validation(t *testing.T) {
	env := setupStoryTest(t)
	u1 := env.createUser(t, "alice")

	longCaption := ""
	for i := 0; i < 201; i++ {
		longCaption += "x"
	}
	tests := []struct {
		name string
		body string
	}{
		{"missing imageUrl", `{"caption": "hello"}`},
		{"caption too long", fmt.Sprintf(`{"imageUrl": "https://cdn.example.com/s.jpg", "caption": %q}`, longCaption)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newJSONContext(env.e, http.MethodPost, "/api/v1/stories", tt.body)
			asUser(c, u1.ID)

			err := env.handler.CreateStory(c)
			require.Error(t, err)
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, he.Code)
		})
	}
	assert.Len(t, env.storyRepo.stories, 0)
}

func TestViewStory_OwnerViewNotCounted(t *testing.T) {
	env := setupStoryTest(t)
	u1 := env.createUser(t, "alice")
	story := env.addStory(t, u1.ID, "https://cdn.example.com/s.jpg")

	require.Nil(t, env.viewStory(t, u1.ID, story.ID.Hex()))

	stored, err := env.storyRepo.GetStoryByID(nil, story.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ViewCount())

	views, err := env.viewRepo.GetViewsByStoryID(story.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, views, 0)
}

func TestViewStory_RepeatViewCountsOnce(t *testing.T) {
	env := setupStoryTest(t)
	owner := env.createUser(t, "alice")
	viewer := env.createUser(t, "bob")
	story := env.addStory(t, owner.ID, "https://cdn.example.com/s.jpg")

	require.Nil(t, env.viewStory(t, viewer.ID, story.ID.Hex()))

	views, err := env.viewRepo.GetViewsByStoryID(story.ID.Hex())
	require.NoError(t, err)
	require.Len(t, views, 1)
	firstViewedAt := views[0].ViewedAt

	time.Sleep(5 * time.Millisecond)
	require.Nil(t, env.viewStory(t, viewer.ID, story.ID.Hex()))

	stored, err := env.storyRepo.GetStoryByID(nil, story.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ViewCount())

	// Still one audit row, but viewed_at is refreshed.
	views, err = env.viewRepo.GetViewsByStoryID(story.ID.Hex())
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, viewer.ID, views[0].ViewerID)
	assert.Equal(t, owner.ID, views[0].OwnerID)
	assert.True(t, views[0].ViewedAt.After(firstViewedAt))
}

func TestViewStory_NotFound(t *testing.T) {
	env := setupStoryTest(t)
	u1 := env.createUser(t, "alice")

	httpErr := env.viewStory(t, u1.ID, "64b000000000000000000000")
	require.NotNil(t, httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func (env *storyTestEnv) getFeed(t *testing.T, callerID uint) []StoryGroup {
	t.Helper()
	c, rec := newJSONContext(env.e, http.MethodGet, "/api/v1/stories/feed", "")
	asUser(c, callerID)
	require.NoError(t, env.handler.GetFeed(c))

	var resp struct {
		Stories []StoryGroup `json:"stories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Stories
}

func TestStoryFeed_GroupsByAuthor(t *testing.T) {
	env := setupStoryTest(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	stranger := env.createUser(t, "dave")

	env.follow(t, alice.ID, bob.ID)
	env.follow(t, alice.ID, carol.ID)

	bobOld := env.addStory(t, bob.ID, "https://cdn.example.com/b1.jpg")
	bobNew := env.addStory(t, bob.ID, "https://cdn.example.com/b2.jpg")
	env.addStory(t, carol.ID, "https://cdn.example.com/c1.jpg")
	env.addStory(t, alice.ID, "https://cdn.example.com/a1.jpg")
	env.addStory(t, stranger.ID, "https://cdn.example.com/d1.jpg")

	require.Nil(t, env.viewStory(t, alice.ID, bobOld.ID.Hex()))

	groups := env.getFeed(t, alice.ID)
	require.Len(t, groups, 3)

	byUsername := make(map[string]StoryGroup)
	for _, g := range groups {
		byUsername[g.User.Username] = g
	}
	require.Contains(t, byUsername, "bob")
	require.Contains(t, byUsername, "carol")
	require.Contains(t, byUsername, "alice")
	assert.NotContains(t, byUsername, "dave")

	bobGroup := byUsername["bob"]
	require.Len(t, bobGroup.Stories, 2)
	// Newest first inside a group.
	assert.Equal(t, bobNew.ID, bobGroup.Stories[0].ID)
	assert.Equal(t, bobOld.ID, bobGroup.Stories[1].ID)
	// One of bob's stories is still unviewed by alice.
	assert.True(t, bobGroup.HasUnviewed)
	assert.True(t, byUsername["carol"].HasUnviewed)

	// Viewing bob's remaining story clears his group's flag.
	require.Nil(t, env.viewStory(t, alice.ID, bobNew.ID.Hex()))
	groups = env.getFeed(t, alice.ID)
	for _, g := range groups {
		if g.User.Username == "bob" {
			assert.False(t, g.HasUnviewed)
		}
	}
}

func TestStoryFeed_ExcludesExpired(t *testing.T) {
	env := setupStoryTest(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	env.follow(t, alice.ID, bob.ID)

	expired := env.addStory(t, bob.ID, "https://cdn.example.com/old.jpg")
	env.storyRepo.stories[expired.ID.Hex()].ExpiresAt = time.Now().Add(-time.Minute)
	active := env.addStory(t, bob.ID, "https://cdn.example.com/new.jpg")

	groups := env.getFeed(t, alice.ID)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Stories, 1)
	assert.Equal(t, active.ID, groups[0].Stories[0].ID)
}

func TestGetViewers_OwnerOnly(t *testing.T) {
	env := setupStoryTest(t)
	owner := env.createUser(t, "alice")
	viewer := env.createUser(t, "bob")
	story := env.addStory(t, owner.ID, "https://cdn.example.com/s.jpg")
	require.Nil(t, env.viewStory(t, viewer.ID, story.ID.Hex()))

	c, _ := newJSONContext(env.e, http.MethodGet, "/api/v1/stories/"+story.ID.Hex()+"/viewers", "")
	asUser(c, viewer.ID)
	c.SetParamNames("id")
	c.SetParamValues(story.ID.Hex())

	err := env.handler.GetViewers(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)

	c, rec := newJSONContext(env.e, http.MethodGet, "/api/v1/stories/"+story.ID.Hex()+"/viewers", "")
	asUser(c, owner.ID)
	c.SetParamNames("id")
	c.SetParamValues(story.ID.Hex())
	require.NoError(t, env.handler.GetViewers(c))

	var resp struct {
		Viewers   []EnrichedStoryView `json:"viewers"`
		ViewCount int                 `json:"viewCount"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Viewers, 1)
	assert.Equal(t, 1, resp.ViewCount)
	assert.Equal(t, "bob", resp.Viewers[0].Viewer.Username)
}

func TestDeleteStory_KeepsViewHistory(t *testing.T) {
	env := setupStoryTest(t)
	owner := env.createUser(t, "alice")
	viewer := env.createUser(t, "bob")
	story := env.addStory(t, owner.ID, "https://cdn.example.com/s.jpg")
	require.Nil(t, env.viewStory(t, viewer.ID, story.ID.Hex()))

	c, _ := newJSONContext(env.e, http.MethodDelete, "/api/v1/stories/"+story.ID.Hex(), "")
	asUser(c, viewer.ID)
	c.SetParamNames("id")
	c.SetParamValues(story.ID.Hex())
	err := env.handler.DeleteStory(c)
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)

	c, rec := newJSONContext(env.e, http.MethodDelete, "/api/v1/stories/"+story.ID.Hex(), "")
	asUser(c, owner.ID)
	c.SetParamNames("id")
	c.SetParamValues(story.ID.Hex())
	require.NoError(t, env.handler.DeleteStory(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	_, err = env.storyRepo.GetStoryByID(nil, story.ID.Hex())
	assert.Error(t, err)

	// The audit trail outlives the story.
	count, err := env.viewRepo.CountByOwnerID(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetViewHistory_Stats(t *testing.T) {
	env := setupStoryTest(t)
	owner := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")

	s1 := env.addStory(t, owner.ID, "https://cdn.example.com/s1.jpg")
	s2 := env.addStory(t, owner.ID, "https://cdn.example.com/s2.jpg")

	require.Nil(t, env.viewStory(t, bob.ID, s1.ID.Hex()))
	require.Nil(t, env.viewStory(t, bob.ID, s2.ID.Hex()))
	require.Nil(t, env.viewStory(t, carol.ID, s1.ID.Hex()))
	// Repeat view does not add a row.
	require.Nil(t, env.viewStory(t, carol.ID, s1.ID.Hex()))

	c, rec := newJSONContext(env.e, http.MethodGet, "/api/v1/stories/views/history", "")
	asUser(c, owner.ID)
	require.NoError(t, env.handler.GetViewHistory(c))

	var resp struct {
		Views []EnrichedStoryView `json:"views"`
		Stats struct {
			TotalViews    int64 `json:"totalViews"`
			UniqueViewers int64 `json:"uniqueViewers"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Views, 3)
	assert.Equal(t, int64(3), resp.Stats.TotalViews)
	assert.Equal(t, int64(2), resp.Stats.UniqueViewers)
}
