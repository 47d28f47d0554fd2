package main

import (
	"context"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/taskboard/backend/internal/api"
	"github.com/taskboard/backend/internal/auth"
	"github.com/taskboard/backend/internal/cache"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/db"
	apperrors "github.com/taskboard/backend/internal/errors"
	"github.com/taskboard/backend/internal/health"
	"github.com/taskboard/backend/internal/logger"
	"github.com/taskboard/backend/internal/metrics"
	"github.com/taskboard/backend/internal/server"
)

const version = "1.0.0"

func main() {
	cfg := config.LoadUserService()

	log := logger.New(&logger.Config{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.LogLevel),
		Component: "user-service",
	})
	logger.SetDefault(log)

	ctx := context.Background()

	// Postgres may still be starting when the process comes up; retry
	// instead of crash-looping.
	database, err := apperrors.RetryWithResult(ctx, apperrors.StartupRetryConfig(),
		func(ctx context.Context) (*db.DB, error) {
			return db.New(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
				cfg.DBMaxConns, cfg.DBAcquireTimeout)
		})
	if err != nil {
		log.Error(ctx, "failed to connect to database", nil, err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.MigrateUsers(); err != nil {
		log.Error(ctx, "failed to run migrations", nil, err)
		os.Exit(1)
	}

	// The cache is optional: without redis the service just hits the
	// store on every identity lookup.
	var userCache *cache.Cache
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		userCache, err = cache.New(cfg.RedisAddr, log)
		if err != nil {
			log.Warn(ctx, "redis unavailable, running without identity cache", map[string]interface{}{
				"addr":   cfg.RedisAddr,
				"reason": err.Error(),
			})
			userCache = nil
		} else {
			defer userCache.Close()
			redisClient = userCache.Client()
		}
	}

	userRepo := db.NewUserRepository(database)
	authService := auth.NewService(userRepo, auth.NewBcryptHasher(), cfg.JWTSecret, userCache)

	created, err := authService.EnsureDefaultUser(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Error(ctx, "failed to ensure default admin user", nil, err)
		os.Exit(1)
	}
	if created {
		log.Info(ctx, "default admin user created", map[string]interface{}{
			"email": cfg.AdminEmail,
		})
	}

	checker := health.NewChecker(&health.CheckerConfig{
		DB:      database.DB,
		Redis:   redisClient,
		Version: version,
	})

	router := api.NewUserRouter(&api.UserRouterConfig{
		AuthHandlers: auth.NewHandlers(authService),
		AuthService:  authService,
		Health:       health.NewHandler(checker),
		Logger:       log,
		Metrics:      metrics.New(),
		CORSOrigins:  cfg.CORSOrigins,
	})

	if err := server.Run(log, cfg.ServerAddr, router); err != nil {
		log.Error(ctx, "server failed", nil, err)
		os.Exit(1)
	}
}
