package router

import (
	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/lumina/backend/internal/ai"
	"github.com/anonto42/lumina/backend/internal/cache"
	"github.com/anonto42/lumina/backend/internal/handlers"
	"github.com/anonto42/lumina/backend/internal/middleware"
	"github.com/anonto42/lumina/backend/internal/moderation"
	"github.com/anonto42/lumina/backend/internal/queue"
	"github.com/anonto42/lumina/backend/internal/recommend"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/anonto42/lumina/backend/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// App holds the repositories and services shared by the HTTP layer and the background workers
type App struct {
	Config *config.Config
	DB     *config.DB
	Log    zerolog.Logger

	Users          *repositories.PostgresUserRepository
	Blogs          *repositories.MongoBlogRepository
	Comments       *repositories.MongoCommentRepository
	Likes          *repositories.PostgresLikeRepository
	Follows        *repositories.PostgresFollowRepository
	Bookmarks      *repositories.PostgresBookmarkRepository
	Notifications  repositories.NotificationRepository
	History        repositories.ReadingHistoryRepository
	ModerationLogs repositories.ModerationLogRepository
	Announcements  repositories.AnnouncementRepository

	AI           *ai.Client
	FirebaseAuth *auth.Client
	Moderator    *moderation.Moderator
	Recommender  *recommend.Service
	Cooldowns    *cache.Cooldown
	Suggestions  *cache.JSONCache
	EmbedQueue   *queue.RedisQueue
}

// NewApp wires repositories and services on top of the open connections
func NewApp(cfg *config.Config, db *config.DB, firebaseAuth *auth.Client, aiClient *ai.Client, log zerolog.Logger) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Log:    log,

		Users:          repositories.NewPostgresUserRepository(db.Postgres),
		Blogs:          repositories.NewMongoBlogRepository(db.MongoDB),
		Comments:       repositories.NewMongoCommentRepository(db.MongoDB),
		Likes:          repositories.NewPostgresLikeRepository(db.Postgres),
		Follows:        repositories.NewPostgresFollowRepository(db.Postgres),
		Bookmarks:      repositories.NewPostgresBookmarkRepository(db.Postgres),
		Notifications:  repositories.NewPostgresNotificationRepository(db.Postgres),
		History:        repositories.NewPostgresReadingHistoryRepository(db.Postgres),
		ModerationLogs: repositories.NewPostgresModerationLogRepository(db.Postgres),
		Announcements:  repositories.NewPostgresAnnouncementRepository(db.Postgres),

		AI:           aiClient,
		FirebaseAuth: firebaseAuth,
		Cooldowns:    cache.NewCooldown(db.Redis, log.With().Str("component", "cooldown").Logger()),
		Suggestions:  cache.NewJSONCache(db.Redis, "lumina:ai"),
		EmbedQueue:   queue.NewRedisQueue(db.Redis, cfg.Queues.Embedding),
	}
	app.Moderator = moderation.NewModerator(
		moderation.NewWordFilter(moderation.DefaultWords),
		aiClient,
		app.ModerationLogs,
		log.With().Str("component", "moderation").Logger(),
	)
	app.Recommender = recommend.NewService(app.Blogs, app.History, log.With().Str("component", "recommend").Logger())
	return app
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, app *App) {
	log := app.Log
	secret := app.Config.Auth.JWTSecret

	health := handlers.NewHealthHandler(app.DB.Postgres, app.DB.Mongo, app.DB.Redis)
	e.GET("/health", health.HealthCheck)

	cleanup := handlers.NewCleanup(app.Blogs, app.Comments, app.Users, app.Likes, app.Bookmarks, app.Follows, app.Notifications, app.History, log)
	notifier := handlers.NewNotifier(app.Notifications, app.Follows, log)

	publicHandler := handlers.NewPublicHandler(app.Blogs, app.Users, app.Config.SiteURL, log)
	publicHandler.RegisterPublicRoutes(e)

	// --- Unprotected routes for authentication ---
	authHandler := handlers.NewAuthHandler(app.Users, app.FirebaseAuth, secret, app.Config.Auth.JWTTTL, log)
	authHandler.RegisterAuthRoutes(e.Group("/api/v1/auth"))

	// --- Public read routes, personalised when a token is present ---
	optional := e.Group("/api/v1", middleware.OptionalJWTMiddleware(secret))

	blogHandler := handlers.NewBlogHandler(handlers.BlogDeps{
		Blogs:       app.Blogs,
		Comments:    app.Comments,
		Users:       app.Users,
		Likes:       app.Likes,
		Bookmarks:   app.Bookmarks,
		History:     app.History,
		Recommender: app.Recommender,
		Moderator:   app.Moderator,
		Cooldowns:   app.Cooldowns,
		Embeddings:  app.EmbedQueue,
		Notifier:    notifier,
		Cleanup:     cleanup,
	}, log)
	blogHandler.RegisterPublicBlogRoutes(optional)

	feedHandler := handlers.NewFeedHandler(app.Blogs, app.Users, app.Announcements, app.Recommender)
	feedHandler.RegisterFeedRoutes(optional)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1", middleware.JWTAuthMiddleware(secret))

	authHandler.RegisterMeRoute(api)
	blogHandler.RegisterBlogRoutes(api)

	userHandler := handlers.NewUserHandler(app.Users, app.Blogs, app.Follows, app.Cooldowns, cleanup)
	userHandler.RegisterProfileRoutes(api)

	followHandler := handlers.NewFollowHandler(app.Follows, app.Users, notifier, log)
	followHandler.RegisterFollowRoutes(api)

	commentHandler := handlers.NewCommentHandler(app.Comments, app.Blogs, app.Users, app.Moderator, app.Cooldowns, notifier, log)
	commentHandler.RegisterCommentRoutes(api)

	likeHandler := handlers.NewLikeHandler(app.Likes, app.Blogs, app.Users, notifier, log)
	likeHandler.RegisterLikeRoutes(api)

	bookmarkHandler := handlers.NewBookmarkHandler(app.Bookmarks, app.Blogs)
	bookmarkHandler.RegisterBookmarkRoutes(api)

	notificationHandler := handlers.NewNotificationHandler(app.Notifications, app.Users)
	notificationHandler.RegisterNotificationRoutes(api)

	aiHandler := handlers.NewAIHandler(app.AI, app.Blogs, app.Cooldowns, app.Suggestions, app.Config.AI.RatePerMinute, log)
	aiHandler.RegisterAIRoutes(api)

	// --- Admin console ---
	admin := api.Group("/admin", middleware.RequireAdmin())
	adminHandler := handlers.NewAdminHandler(app.Users, app.Blogs, app.Comments, app.ModerationLogs, app.Announcements, cleanup, log)
	adminHandler.RegisterAdminRoutes(admin)

	log.Info().Int("routes", len(e.Routes())).Msg("all routes configured")
}
