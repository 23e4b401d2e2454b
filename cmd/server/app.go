package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/discussion-tree/backend/internal/handlers"
	"github.com/anonto42/discussion-tree/backend/internal/middleware"
	"github.com/anonto42/discussion-tree/backend/internal/repositories"
	"github.com/anonto42/discussion-tree/backend/internal/services"
	"github.com/anonto42/discussion-tree/backend/internal/sweeper"
	"github.com/anonto42/discussion-tree/backend/pkg/config"
	"github.com/anonto42/discussion-tree/backend/pkg/firebase"
)

// application holds everything both commands are built from.
type application struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *config.DB

	users         repositories.UserRepository
	comments      repositories.CommentRepository
	notifications repositories.NotificationRepository

	commentService      *services.CommentService
	notificationService *services.NotificationService
}

func bootstrap(ctx context.Context) (*application, error) {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	db, err := config.InitDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := repositories.AutoMigrate(db.Postgres); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	app := &application{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		users:    repositories.NewPostgresUserRepository(db.Postgres),
		comments: repositories.NewPostgresCommentRepository(db.Postgres),
	}

	if cfg.NotificationStore == config.NotificationStoreMongo {
		mongoRepo := repositories.NewMongoNotificationRepository(db.Mongo.Database(cfg.MongoDatabase))
		if err := mongoRepo.EnsureIndexes(ctx); err != nil {
			db.Close()
			return nil, err
		}
		app.notifications = mongoRepo
	} else {
		app.notifications = repositories.NewPostgresNotificationRepository(db.Postgres)
	}

	app.notificationService = services.NewNotificationService(app.notifications, app.comments, app.users, logger)
	app.commentService = services.NewCommentService(app.comments, app.notificationService, logger,
		services.WithUsers(app.users))

	logger.Info("application initialized",
		"env", cfg.Env,
		"notification_store", cfg.NotificationStore,
		"auth_provider", cfg.AuthProvider,
	)
	return app, nil
}

func (a *application) newSweeper() *sweeper.Sweeper {
	return sweeper.New(a.comments, a.notifications, sweeper.Config{
		Interval:  a.cfg.SweepInterval,
		Retention: a.cfg.RetentionWindow,
		BatchSize: a.cfg.SweepBatchSize,
	}, a.logger)
}

func (a *application) authMiddleware(ctx context.Context) (echo.MiddlewareFunc, error) {
	if a.cfg.AuthProvider != config.AuthProviderFirebase {
		return middleware.JWTAuthMiddleware(a.cfg.JWTSecret), nil
	}

	fb, err := firebase.InitFirebase(ctx, a.cfg.FirebaseCredentialsPath)
	if err != nil {
		return nil, err
	}
	a.logger.Info("firebase auth client initialized")
	return middleware.FirebaseAuthMiddleware(fb.AuthClient, a.users, a.logger), nil
}

func (a *application) healthChecks() map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := a.db.Postgres.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if a.db.Mongo != nil {
		checks["mongo"] = func(ctx context.Context) error {
			return a.db.Mongo.Ping(ctx, nil)
		}
	}
	return checks
}
