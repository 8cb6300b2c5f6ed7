package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sajib-hossain/photogram/backend/internal/repositories"
)

// FeedHandler serves the followed-users post feed
type FeedHandler struct {
	postHandler      *PostHandler
	followRepository repositories.FollowRepository
	postRepository   repositories.PostRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(postHandler *PostHandler, followRepo repositories.FollowRepository, postRepo repositories.PostRepository) *FeedHandler {
	return &FeedHandler{
		postHandler:      postHandler,
		followRepository: followRepo,
		postRepository:   postRepo,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns posts from followed users plus the caller's own, newest
// first, enriched with author and like/comment counts.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 10
	}
	skip := int64((page - 1) * limit)

	followingIDs, err := h.followRepository.GetFollowingIDs(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	userIDs := make([]string, 0, len(followingIDs)+1)
	for _, id := range followingIDs {
		userIDs = append(userIDs, uidString(id))
	}
	userIDs = append(userIDs, uidString(currentUserID))

	posts, err := h.postRepository.GetPostsByUserIDs(c.Request().Context(), userIDs, skip, int64(limit))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"posts":   h.postHandler.enrichPosts(c, posts),
		"meta": echo.Map{
			"currentPage":  page,
			"itemsPerPage": limit,
		},
	})
}
