package container

import (
	"context"
	"errors"
	"fmt"

	"menu-auth/internal/config"
	"menu-auth/internal/repository"
	"menu-auth/internal/service"
	"menu-auth/internal/service/google"
	"menu-auth/internal/service/session"
	"menu-auth/internal/service/state"
	"menu-auth/internal/service/token"
	"menu-auth/pkg/database"
	"menu-auth/pkg/logger"
	"menu-auth/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           database.Handle
	RedisClient  *redis.Client
	Repositories *repository.Repositories
	Services     *service.Services
}

// New creates a new dependency injection container. The user store is
// opened and its schema ensured; Redis is optional unless state binding
// needs it.
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Container, error) {
	mode, err := state.ParseMode(cfg.StateBinding)
	if err != nil {
		return nil, err
	}

	db, users, err := openUserStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	redisClient, err := openRedis(cfg, mode, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var (
		store state.NonceStore
		keys  *redis.KeyBuilder
	)
	if redisClient != nil {
		store = redisClient
		keys = redisClient.KeyBuilder
	}
	binder, err := state.NewBinder(mode, store, keys, logger)
	if err != nil {
		_ = db.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
		return nil, err
	}

	codec := token.NewCodec(cfg.JWTSecret)
	provider := google.NewClient(google.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		Timeout:      cfg.OAuthHTTPTimeout,
	}, logger.WithField("component", "google"))

	if !provider.Configured() {
		logger.Warn("GOOGLE_CLIENT_ID not set, login initiation will fail")
	}
	logger.WithField("state_binding", string(mode)).Info("State binding configured")

	return &Container{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		RedisClient:  redisClient,
		Repositories: &repository.Repositories{User: users},
		Services: &service.Services{
			Provider: provider,
			State:    codec,
			Sessions: codec,
			Issuer:   session.NewIssuer(users, codec, logger.WithField("component", "session")),
			Binder:   binder,
		},
	}, nil
}

func openUserStore(ctx context.Context, cfg *config.Config, logger *logger.Logger) (database.Handle, repository.UserRepository, error) {
	driver := database.DriverFor(cfg.DatabaseURL)

	switch driver {
	case database.DriverPostgres:
		db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, cfg.DatabaseAuthToken)
		if err != nil {
			return nil, nil, err
		}
		if err := repository.EnsurePostgresSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logger.Info("Connected to PostgreSQL user store")
		return db, repository.NewUserRepository(db), nil

	case database.DriverSQLite:
		db, err := database.NewSQLiteDB(ctx, database.SQLitePath(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, err
		}
		if err := repository.EnsureSQLiteSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		if cfg.DatabaseAuthToken != "" {
			logger.Warn("DATABASE_AUTH_TOKEN is ignored for local SQLite files")
		}
		logger.Info("Opened SQLite user store")
		return db, repository.NewSQLiteUserRepository(db), nil

	default:
		return nil, nil, errors.New("unsupported DATABASE_URL scheme, expected postgres:// or sqlite:")
	}
}

func openRedis(cfg *config.Config, mode state.Mode, logger *logger.Logger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		if mode == state.ModeRedis {
			return nil, errors.New("STATE_BINDING=redis requires REDIS_URL")
		}
		logger.Info("Redis URL not configured, proceeding without Redis")
		return nil, nil
	}

	client, err := redis.NewClient(cfg.RedisURL, cfg.Environment, logger.Logger)
	if err != nil {
		if mode == state.ModeRedis {
			return nil, fmt.Errorf("redis required for state binding: %w", err)
		}
		logger.WithError(err).Warn("Failed to initialize Redis client, proceeding without Redis")
		return nil, nil
	}

	logger.Info("Redis client initialized successfully")
	return client, nil
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.Logger
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.Config
}

// GetRedisClient returns the Redis client (may be nil if not configured)
func (c *Container) GetRedisClient() *redis.Client {
	return c.RedisClient
}

// HasRedis returns true if Redis client is available
func (c *Container) HasRedis() bool {
	return c.RedisClient != nil
}
