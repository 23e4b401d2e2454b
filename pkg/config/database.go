package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connections. Mongo is nil unless notifications live there.
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
	logger   *slog.Logger
}

// LoadDotEnv reads a .env file into the environment when one exists.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using the process environment")
	}
}

// InitDB opens the connections the configuration asks for.
func InitDB(ctx context.Context, cfg *Config, log *slog.Logger) (*DB, error) {
	db := &DB{logger: log.With("component", "database")}

	pg, err := initPostgres(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	db.Postgres = pg
	db.logger.Info("connected to PostgreSQL")

	if cfg.NotificationStore == NotificationStoreMongo {
		client, err := initMongo(ctx, cfg.MongoURI)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		db.Mongo = client
		db.logger.Info("connected to MongoDB", "database", cfg.MongoDatabase)
	}

	return db, nil
}

func initPostgres(cfg *Config) (*gorm.DB, error) {
	level := logger.Warn
	if cfg.IsDevelopment() {
		level = logger.Info
	}
	db, err := gorm.Open(postgres.Open(cfg.PostgresConnStr), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func initMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// Close closes every open connection.
func (db *DB) Close() {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			db.logger.Error("getting SQL DB from gorm", "error", err)
		} else if err := sqlDB.Close(); err != nil {
			db.logger.Error("closing PostgreSQL connection", "error", err)
		} else {
			db.logger.Info("PostgreSQL connection closed")
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			db.logger.Error("closing MongoDB connection", "error", err)
		} else {
			db.logger.Info("MongoDB connection closed")
		}
	}
}
