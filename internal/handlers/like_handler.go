package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sajib-hossain/photogram/backend/internal/models"
	"github.com/sajib-hossain/photogram/backend/internal/repositories"
)

// LikeHandler handles HTTP requests related to post likes. Likes live as a
// set of user IDs on the post document; counts are derived, never stored.
type LikeHandler struct {
	postRepository         repositories.PostRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, notifRepo repositories.NotificationRepository) *LikeHandler {
	return &LikeHandler{
		postRepository:         postRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/like", h.LikePost)
	g.DELETE("/posts/:id/like", h.UnlikePost)
	g.GET("/posts/:id/likes", h.GetLikes)
}

// LikePost adds the caller to the post's like set
func (h *LikeHandler) LikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	added, err := h.postRepository.AddLike(c.Request().Context(), postID, uidString(currentUserID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !added {
		return echo.NewHTTPError(http.StatusBadRequest, "You have already liked this post")
	}

	// Liking your own post never notifies.
	if post.UserID != uidString(currentUserID) {
		notif := &models.Notification{
			Type:        models.NotificationLike,
			SenderID:    currentUserID,
			RecipientID: parseUID(post.UserID),
			PostID:      postID,
		}
		if err := h.notificationRepository.CreateNotification(notif); err != nil {
			c.Logger().Errorf("failed to create like notification: %v", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "Post liked successfully",
		"likeCount": post.LikeCount() + 1,
	})
}

// UnlikePost removes the caller from the post's like set
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	removed, err := h.postRepository.RemoveLike(c.Request().Context(), postID, uidString(currentUserID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !removed {
		return echo.NewHTTPError(http.StatusBadRequest, "You have not liked this post")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "Post unliked successfully",
		"likeCount": post.LikeCount() - 1,
	})
}

// GetLikes lists the users who liked a post
func (h *LikeHandler) GetLikes(c echo.Context) error {
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	ids := make([]uint, 0, len(post.Likes))
	for _, s := range post.Likes {
		if id := parseUID(s); id != 0 {
			ids = append(ids, id)
		}
	}
	users, err := h.userRepository.GetUsersByIDs(ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	results := make([]models.UserCompact, 0, len(users))
	for i := range users {
		results = append(results, users[i].ToCompact())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"users":   results,
		"count":   post.LikeCount(),
	})
}
