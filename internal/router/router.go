package router

import (
	"context"
	"log"
	"net/http"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sajib-hossain/photogram/backend/internal/handlers"
	"github.com/sajib-hossain/photogram/backend/internal/middleware"
	"github.com/sajib-hossain/photogram/backend/internal/models"
	"github.com/sajib-hossain/photogram/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware and the error envelope
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.HTTPErrorHandler = errorHandler
	log.Println("Global middleware configured.")
}

// errorHandler renders every error as {success:false, message} with the
// status the handler chose; anything untyped is a 500.
func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "Server error"
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		}
	}
	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"success": false, "message": message})
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, dbName string, firebaseAuthClient *auth.Client) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Comment{},
		&models.Notification{},
		&models.StoryView{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	mongoDB := mgClient.Database(dbName)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	storyViewRepo := repositories.NewPostgresStoryViewRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mongoDB)
	storyRepo := repositories.NewMongoStoryRepository(mongoDB)
	conversationRepo := repositories.NewMongoConversationRepository(mongoDB)
	messageRepo := repositories.NewMongoMessageRepository(mongoDB)

	// MongoDB index bootstrap: story TTL expiry, unique conversation pair
	// key, message lookup indexes.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := storyRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create story indexes: %v", err)
	}
	if err := conversationRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create conversation indexes: %v", err)
	}
	if err := messageRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Failed to create message indexes: %v", err)
	}
	log.Println("MongoDB indexes ensured.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, firebaseAuthClient)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	authHandler.RegisterMeRoute(api)

	userHandler := handlers.NewUserHandler(userRepo, followRepo)
	userHandler.RegisterProfileRoutes(api)
	log.Println("User profile routes configured.")

	followHandler := handlers.NewFollowHandler(followRepo, userRepo, notificationRepo)
	followHandler.RegisterFollowRoutes(api)
	log.Println("Follow routes configured.")

	postHandler := handlers.NewPostHandler(postRepo, userRepo, commentRepo)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	feedHandler := handlers.NewFeedHandler(postHandler, followRepo, postRepo)
	feedHandler.RegisterFeedRoutes(api)
	log.Println("Feed routes configured.")

	likeHandler := handlers.NewLikeHandler(postRepo, userRepo, notificationRepo)
	likeHandler.RegisterLikeRoutes(api)
	log.Println("Like routes configured.")

	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, userRepo, notificationRepo)
	commentHandler.RegisterCommentRoutes(api)
	log.Println("Comment routes configured.")

	storyHandler := handlers.NewStoryHandler(storyRepo, storyViewRepo, followRepo, userRepo)
	storyHandler.RegisterStoryRoutes(api)
	log.Println("Story routes configured.")

	messageHandler := handlers.NewMessageHandler(conversationRepo, messageRepo, userRepo)
	messageHandler.RegisterMessageRoutes(api)
	log.Println("Message routes configured.")

	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
