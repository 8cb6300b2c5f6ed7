package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sajib-hossain/photogram/backend/internal/models"
	"github.com/sajib-hossain/photogram/backend/internal/repositories"
)

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	commentRepository repositories.CommentRepository
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, commentRepo repositories.CommentRepository) *PostHandler {
	return &PostHandler{
		postRepository:    postRepo,
		userRepository:    userRepo,
		commentRepository: commentRepo,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/explore", h.GetExplore)
	g.GET("/posts/:id", h.GetPost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// EnrichedPost is a post with author info and caller-specific flags
type EnrichedPost struct {
	models.Post
	Author       models.UserCompact `json:"author"`
	LikeCount    int                `json:"likeCount"`
	CommentCount int64              `json:"commentCount"`
	IsLiked      bool               `json:"isLiked"`
}

func (h *PostHandler) enrichPosts(c echo.Context, posts []models.Post) []EnrichedPost {
	currentUID := uidString(getUserIDFromContext(c))
	userCache := make(map[string]models.UserCompact)

	enriched := make([]EnrichedPost, 0, len(posts))
	for _, p := range posts {
		author, ok := userCache[p.UserID]
		if !ok {
			if user, err := h.userRepository.GetUserByID(parseUID(p.UserID)); err == nil {
				author = user.ToCompact()
			}
			userCache[p.UserID] = author
		}
		commentCount, _ := h.commentRepository.CountByPostID(p.ID.Hex())
		enriched = append(enriched, EnrichedPost{
			Post:         p,
			Author:       author,
			LikeCount:    p.LikeCount(),
			CommentCount: commentCount,
			IsLiked:      p.HasLiked(currentUID),
		})
	}
	return enriched
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !isValidMediaURL(req.ImageURL) {
		return echo.NewHTTPError(http.StatusBadRequest, "Please provide a valid image or video URL or upload media")
	}

	post := &models.Post{
		UserID:   uidString(currentUserID),
		ImageURL: req.ImageURL,
		Caption:  req.Caption,
	}

	if err := h.postRepository.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "post": post})
}

// GetExplore returns the latest posts across all users
func (h *PostHandler) GetExplore(c echo.Context) error {
	posts, err := h.postRepository.GetAllPosts(c.Request().Context(), 0, 50)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "posts": h.enrichPosts(c, posts)})
}

// GetPost returns a single post with its comments
func (h *PostHandler) GetPost(c echo.Context) error {
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	comments, err := h.commentRepository.GetCommentsByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	enriched := h.enrichPosts(c, []models.Post{*post})
	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"post":     enriched[0],
		"comments": comments,
	})
}

// DeletePost removes a post and cascades its comments
func (h *PostHandler) DeletePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("id")

	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	if post.UserID != uidString(currentUserID) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to delete this post")
	}

	if err := h.commentRepository.DeleteCommentsByPostID(postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.postRepository.DeletePost(c.Request().Context(), postID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Post deleted successfully"})
}
