package api

import (
	"net/http"

	"github.com/taskboard/backend/internal/auth"
	apperrors "github.com/taskboard/backend/internal/errors"
	"github.com/taskboard/backend/internal/health"
	"github.com/taskboard/backend/internal/logger"
	"github.com/taskboard/backend/internal/metrics"
	"github.com/taskboard/backend/internal/middleware"
	"github.com/taskboard/backend/internal/tasks"
)

// UserRouterConfig wires the identity service's HTTP surface.
type UserRouterConfig struct {
	AuthHandlers *auth.Handlers
	AuthService  *auth.Service
	Health       *health.Handler
	Logger       *logger.Logger
	Metrics      *metrics.Metrics
	CORSOrigins  []string
}

// NewUserRouter builds the identity service handler with the standard
// middleware chain applied.
func NewUserRouter(cfg *UserRouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", cfg.Health.HealthHandler)
	mux.HandleFunc("GET /health/live", cfg.Health.LivenessHandler)
	mux.HandleFunc("GET /health/ready", cfg.Health.ReadinessHandler)
	if cfg.Metrics != nil {
		mux.HandleFunc("GET /metrics", cfg.Metrics.Handler())
	}

	// Credential endpoints (no auth required)
	mux.HandleFunc("POST /auth/register", cfg.AuthHandlers.Register)
	mux.HandleFunc("POST /auth/login", cfg.AuthHandlers.Login)

	// Identity lookup (bearer token required)
	requireAuth := auth.Middleware(cfg.AuthService)
	mux.Handle("GET /auth/me", requireAuth(http.HandlerFunc(cfg.AuthHandlers.Me)))

	return withMiddleware(mux, cfg.Logger, cfg.Metrics, cfg.CORSOrigins)
}

// TaskRouterConfig wires the task service's HTTP surface.
type TaskRouterConfig struct {
	TaskHandlers *tasks.Handlers
	Health       *health.Handler
	Logger       *logger.Logger
	Metrics      *metrics.Metrics
	CORSOrigins  []string
}

// NewTaskRouter builds the task service handler with the standard
// middleware chain applied.
func NewTaskRouter(cfg *TaskRouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", cfg.Health.HealthHandler)
	mux.HandleFunc("GET /health/live", cfg.Health.LivenessHandler)
	mux.HandleFunc("GET /health/ready", cfg.Health.ReadinessHandler)
	if cfg.Metrics != nil {
		mux.HandleFunc("GET /metrics", cfg.Metrics.Handler())
	}
	mux.HandleFunc("GET /{$}", rootHandler)

	mux.HandleFunc("GET /tasks", cfg.TaskHandlers.List)
	mux.HandleFunc("POST /tasks", cfg.TaskHandlers.Create)
	mux.HandleFunc("GET /tasks/{id}", cfg.TaskHandlers.Get)
	mux.HandleFunc("PUT /tasks/{id}", cfg.TaskHandlers.Update)
	mux.HandleFunc("DELETE /tasks/{id}", cfg.TaskHandlers.Delete)

	return withMiddleware(mux, cfg.Logger, cfg.Metrics, cfg.CORSOrigins)
}

// withMiddleware applies the shared chain, outermost first. ETag sits
// inside Gzip so the hash covers the uncompressed body.
func withMiddleware(h http.Handler, log *logger.Logger, m *metrics.Metrics, corsOrigins []string) http.Handler {
	chain := []func(http.Handler) http.Handler{
		apperrors.RequestIDMiddleware,
		logger.Recovery(log),
		middleware.CORS(corsOrigins),
	}
	if m != nil {
		chain = append(chain, metrics.Middleware(m))
	}
	chain = append(chain,
		middleware.Timing,
		middleware.Gzip,
		middleware.ETag,
		logger.Middleware(log),
	)
	return middleware.Chain(h, chain...)
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Task Manager API - Use /tasks to manage your tasks"))
}
