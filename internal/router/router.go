package router

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/discussion-tree/backend/internal/handlers"
	"github.com/anonto42/discussion-tree/backend/internal/repositories"
	"github.com/anonto42/discussion-tree/backend/internal/services"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Comments      *services.CommentService
	Notifications *services.NotificationService
	Users         repositories.UserRepository

	// Auth guards every mutating route and sets the current user id.
	Auth echo.MiddlewareFunc

	// LocalAuth enables /auth/register and /auth/login. It is off when
	// identities come from Firebase.
	LocalAuth bool
	JWTSecret string
	JWTTTL    time.Duration

	HealthChecks map[string]handlers.Pinger
	Logger       *slog.Logger
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Deps) {
	health := handlers.NewHealthHandler(deps.HealthChecks)
	e.GET("/health", health.HealthCheck)

	public := e.Group("/api/v1")
	public.GET("/health", health.HealthCheck)

	if deps.LocalAuth {
		authHandler := handlers.NewAuthHandler(deps.Users, deps.JWTSecret, deps.JWTTTL)
		authHandler.RegisterAuthRoutes(public.Group("/auth"))
	}

	commentHandler := handlers.NewCommentHandler(deps.Comments)
	commentHandler.RegisterPublicRoutes(public)
	userHandler := handlers.NewUserHandler(deps.Users)
	userHandler.RegisterPublicRoutes(public)

	protected := e.Group("/api/v1", deps.Auth)
	commentHandler.RegisterCommentRoutes(protected)
	userHandler.RegisterProfileRoutes(protected)

	notificationHandler := handlers.NewNotificationHandler(deps.Notifications)
	notificationHandler.RegisterNotificationRoutes(protected)

	deps.Logger.Info("routes configured", "local_auth", deps.LocalAuth)
}
