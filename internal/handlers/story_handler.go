package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sajib-hossain/photogram/backend/internal/models"
	"github.com/sajib-hossain/photogram/backend/internal/repositories"
)

// viewHistoryPageSize bounds the audit-trail listing.
const viewHistoryPageSize = 100

// StoryHandler handles story-related HTTP requests
type StoryHandler struct {
	storyRepository     repositories.StoryRepository
	storyViewRepository repositories.StoryViewRepository
	followRepository    repositories.FollowRepository
	userRepository      repositories.UserRepository
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(storyRepo repositories.StoryRepository, viewRepo repositories.StoryViewRepository, followRepo repositories.FollowRepository, userRepo repositories.UserRepository) *StoryHandler {
	return &StoryHandler{
		storyRepository:     storyRepo,
		storyViewRepository: viewRepo,
		followRepository:    followRepo,
		userRepository:      userRepo,
	}
}

// RegisterStoryRoutes registers story-related routes
func (h *StoryHandler) RegisterStoryRoutes(g *echo.Group) {
	g.POST("/stories", h.CreateStory)
	g.GET("/stories/feed", h.GetFeed)
	g.GET("/stories/user/:userId", h.GetUserStories)
	g.GET("/stories/views/history", h.GetViewHistory)
	g.POST("/stories/:id/view", h.ViewStory)
	g.GET("/stories/:id/viewers", h.GetViewers)
	g.DELETE("/stories/:id", h.DeleteStory)
}

// StoryGroup is one author's active stories in the feed
type StoryGroup struct {
	User        models.UserCompact `json:"user"`
	Stories     []models.Story     `json:"stories"`
	HasUnviewed bool               `json:"hasUnviewed"`
}

// CreateStory creates a new story expiring 24 hours from now
func (h *StoryHandler) CreateStory(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateStoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	story := &models.Story{
		UserID:   uidString(currentUserID),
		ImageURL: req.ImageURL,
		Caption:  req.Caption,
	}

	if err := h.storyRepository.CreateStory(c.Request().Context(), story); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "story": story})
}

// GetFeed returns active stories from followed users plus the caller's own,
// grouped by author. A group's hasUnviewed flag is true when any of its
// stories lacks the caller in its viewer set. Stories arrive newest first,
// so each group keeps creation-descending order.
func (h *StoryHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	currentUID := uidString(currentUserID)

	followingIDs, err := h.followRepository.GetFollowingIDs(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	userIDs := make([]string, 0, len(followingIDs)+1)
	for _, id := range followingIDs {
		userIDs = append(userIDs, uidString(id))
	}
	userIDs = append(userIDs, currentUID)

	stories, err := h.storyRepository.GetActiveStoriesByUserIDs(c.Request().Context(), userIDs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	groupIndex := make(map[string]int)
	groups := make([]*StoryGroup, 0)
	for _, story := range stories {
		idx, ok := groupIndex[story.UserID]
		if !ok {
			var author models.UserCompact
			if user, err := h.userRepository.GetUserByID(parseUID(story.UserID)); err == nil {
				author = user.ToCompact()
			}
			groups = append(groups, &StoryGroup{User: author, Stories: []models.Story{}})
			idx = len(groups) - 1
			groupIndex[story.UserID] = idx
		}
		groups[idx].Stories = append(groups[idx].Stories, story)
		if !story.HasViewed(currentUID) {
			groups[idx].HasUnviewed = true
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "stories": groups})
}

// GetUserStories returns one user's active stories, newest first
func (h *StoryHandler) GetUserStories(c echo.Context) error {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	stories, err := h.storyRepository.GetActiveStoriesByUserIDs(c.Request().Context(), []string{uidString(uint(userID))})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "stories": stories})
}

// ViewStory marks a story viewed by the caller. The owner's own view is a
// successful no-op. A first view adds the caller to the viewer set and
// upserts the audit record; a repeat view only refreshes the audit record's
// viewedAt, leaving the view count unchanged.
func (h *StoryHandler) ViewStory(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	currentUID := uidString(currentUserID)
	ctx := c.Request().Context()

	story, err := h.storyRepository.GetStoryByID(ctx, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Story not found")
	}

	if story.UserID == currentUID {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Own story view not counted"})
	}

	if _, err := h.storyRepository.AddViewer(ctx, c.Param("id"), currentUID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	view := &models.StoryView{
		StoryID:       story.ID.Hex(),
		OwnerID:       parseUID(story.UserID),
		ViewerID:      currentUserID,
		StoryImageURL: story.ImageURL,
	}
	if err := h.storyViewRepository.UpsertView(view); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Story viewed"})
}

// EnrichedStoryView includes the viewer's profile
type EnrichedStoryView struct {
	models.StoryView
	Viewer models.UserCompact `json:"viewer"`
}

func (h *StoryHandler) enrichViews(views []models.StoryView) []EnrichedStoryView {
	userCache := make(map[uint]models.UserCompact)
	enriched := make([]EnrichedStoryView, 0, len(views))
	for _, v := range views {
		viewer, ok := userCache[v.ViewerID]
		if !ok {
			if user, err := h.userRepository.GetUserByID(v.ViewerID); err == nil {
				viewer = user.ToCompact()
			}
			userCache[v.ViewerID] = viewer
		}
		enriched = append(enriched, EnrichedStoryView{StoryView: v, Viewer: viewer})
	}
	return enriched
}

// GetViewers lists who viewed a story; owner only
func (h *StoryHandler) GetViewers(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Story not found")
	}
	if story.UserID != uidString(currentUserID) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized")
	}

	views, err := h.storyViewRepository.GetViewsByStoryID(story.ID.Hex())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"viewers":   h.enrichViews(views),
		"viewCount": len(views),
	})
}

// DeleteStory removes a story; owner only. Audit records stay.
func (h *StoryHandler) DeleteStory(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	story, err := h.storyRepository.GetStoryByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Story not found")
	}
	if story.UserID != uidString(currentUserID) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to delete this story")
	}

	if err := h.storyRepository.DeleteStory(c.Request().Context(), c.Param("id")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Story deleted"})
}

// GetViewHistory returns the caller's most recent story views from the
// durable audit trail plus aggregate stats. Stable across story expiry.
func (h *StoryHandler) GetViewHistory(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	views, err := h.storyViewRepository.GetViewsByOwnerID(currentUserID, viewHistoryPageSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	totalViews, err := h.storyViewRepository.CountByOwnerID(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	uniqueViewers, err := h.storyViewRepository.CountDistinctViewers(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"views":   h.enrichViews(views),
		"stats": echo.Map{
			"totalViews":    totalViews,
			"uniqueViewers": uniqueViewers,
		},
	})
}
