// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	_ "aperture/docs" // swagger docs
	"aperture/internal/bootstrap"
	"aperture/internal/cache"
	"aperture/internal/config"
	"aperture/internal/middleware"
	"aperture/internal/models"
	"aperture/internal/notifications"
	"aperture/internal/repository"
	"aperture/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          *repository.Store
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	images         *service.ImageService
	userService    *service.UserService
	followService  *service.FollowService
	postService    *service.PostService
	feedService    *service.FeedService
	commentService *service.CommentService
}

// NewServer opens the configured store and Redis, then builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store initialization failed: %w", err)
	}

	redisClient := cache.InitRedis(cfg.RedisURL)
	return NewServerWithDeps(cfg, store, redisClient), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client disables notifications delivery across processes.
func NewServerWithDeps(cfg *config.Config, store *repository.Store, redisClient *redis.Client) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	notifier := notifications.NewNotifier(redisClient)
	images := service.NewImageService(cfg)

	return &Server{
		config:         cfg,
		store:          store,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("aperture-api"),
		shutdownCtx:    ctx,
		shutdownFn:     cancel,
		notifier:       notifier,
		hub:            notifications.NewHub(),
		images:         images,
		userService:    service.NewUserService(store.Users, store.Follows),
		followService:  service.NewFollowService(store.Users, store.Follows, notifier),
		postService:    service.NewPostService(store.Posts, store.Users, images, notifier),
		feedService:    service.NewFeedService(store.Posts, store.Follows),
		commentService: service.NewCommentService(store.Comments, store.Posts, store.Users, notifier),
	}
}

// App returns the configured Fiber application, building it on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "Aperture API",
		BodyLimit:    (s.config.ImageMaxUploadSizeMB + 1) * 1024 * 1024,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message, Code: httpErrorCode(fe.Code)})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

func httpErrorCode(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusForbidden:
		return models.CodeForbidden
	case fiber.StatusTooManyRequests:
		return middleware.CodeRateLimited
	}
	if status >= fiber.StatusInternalServerError {
		return models.CodeInternal
	}
	return models.CodeValidation
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers; media is embedded cross-origin by clients.
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Message: "Too many requests, please try again later.",
				Code:    middleware.CodeRateLimited,
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static(service.MediaPrefix, s.images.UploadDir(), fiber.Static{MaxAge: 86400})

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Aperture Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := s.AuthRequired()

	// Auth routes
	authGroup := api.Group("/auth")
	authGroup.Post("/register", middleware.RateLimit(s.redis, 3, 10*time.Minute, "register"), s.Register)
	authGroup.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	authGroup.Get("/verify", auth, s.Verify)
	authGroup.Post("/logout", auth, s.Logout)

	// User routes. Static segments before /:username.
	users := api.Group("/users")
	users.Get("/search", middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.SearchUsers)
	users.Put("/profile", auth, s.UpdateProfile)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Post("/:id/follow", auth, s.FollowUser)
	users.Delete("/:id/follow", auth, s.UnfollowUser)
	users.Get("/:username", s.GetUserProfile)

	// Post routes. /feed and /user/:id before the generic /:id.
	posts := api.Group("/posts")
	posts.Get("/feed", auth, s.GetFeed)
	posts.Get("/user/:id", s.GetUserPosts)
	posts.Post("/", auth, middleware.RateLimit(s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Get("/:postId/comments", s.GetComments)
	posts.Post("/:postId/comments", auth, middleware.RateLimit(s.redis, 20, time.Minute, "create_comment"), s.CreateComment)
	posts.Post("/:id/like", auth, s.LikePost)
	posts.Delete("/:id/like", auth, s.UnlikePost)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", auth, s.DeletePost)

	// Comment routes
	comments := api.Group("/comments", auth)
	comments.Delete("/:id", s.DeleteComment)
	comments.Post("/:id/like", s.LikeComment)
	comments.Delete("/:id/like", s.UnlikeComment)

	// Notifications websocket
	api.Get("/ws", auth, upgradeRequired, s.NotificationsHandler())
}

// Hub returns the notification hub serving /api/ws.
func (s *Server) Hub() *notifications.Hub {
	return s.hub
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	storeStatus := "healthy"
	if err := s.store.Ping(ctx); err != nil {
		storeStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is optional: without it caching and cross-process notifications are off.
		redisStatus = "disabled"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if storeStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"store":  storeStatus,
			"driver": s.store.Driver,
			"redis":  redisStatus,
		},
		"time": time.Now(),
	})
}

// Start wires the notification hub and serves on the configured port.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", ":"+s.config.Port)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve wires the notification hub and serves on ln until shutdown.
func (s *Server) Serve(ln net.Listener) error {
	app := s.App()

	if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
		middleware.Logger.Error("failed to start notification wiring", "error", err)
	}

	middleware.Logger.Info("Server starting", "addr", ln.Addr().String(), "store", s.store.Driver)
	return app.Listener(ln)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	s.shutdownFn()

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down notification hub", "error", err)
	}

	if err := s.store.Close(ctx); err != nil {
		middleware.Logger.Error("error closing store", "error", err)
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", "error", err)
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
