package main

import (
	"context"
	"os"

	"github.com/taskboard/backend/internal/api"
	"github.com/taskboard/backend/internal/config"
	"github.com/taskboard/backend/internal/db"
	apperrors "github.com/taskboard/backend/internal/errors"
	"github.com/taskboard/backend/internal/health"
	"github.com/taskboard/backend/internal/logger"
	"github.com/taskboard/backend/internal/metrics"
	"github.com/taskboard/backend/internal/server"
	"github.com/taskboard/backend/internal/tasks"
)

const version = "1.0.0"

func main() {
	cfg := config.LoadTaskService()

	log := logger.New(&logger.Config{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.LogLevel),
		Component: "task-service",
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

	if err := database.MigrateTasks(); err != nil {
		log.Error(ctx, "failed to run migrations", nil, err)
		os.Exit(1)
	}

	taskRepo := db.NewTaskRepository(database)
	taskService := tasks.NewService(taskRepo)

	checker := health.NewChecker(&health.CheckerConfig{
		DB:      database.DB,
		Version: version,
	})

	router := api.NewTaskRouter(&api.TaskRouterConfig{
		TaskHandlers: tasks.NewHandlers(taskService),
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
