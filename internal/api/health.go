package api

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ashureev/shsh-quiz/internal/store"
	"github.com/go-chi/chi/v5"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	repo      store.Repository
	markerDir string
	timeout   time.Duration
}

// NewHealthHandler creates a new health handler. repo may be nil when the
// completion ledger is disabled.
func NewHealthHandler(repo store.Repository, markerDir string, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HealthHandler{repo: repo, markerDir: markerDir, timeout: timeout}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status": "healthy",
		"checks": checks,
	}
	statusCode := http.StatusOK

	if info, err := os.Stat(h.markerDir); err != nil || !info.IsDir() {
		slog.Error("Health check failed", "check", "markers", "error", err)
		checks["markers"] = "unavailable"
		status["status"] = "degraded"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["markers"] = "ok"
	}

	switch {
	case h.repo == nil:
		checks["database"] = "disabled"
	case h.repo.Ping(ctx) != nil:
		slog.Error("Health check failed", "check", "database")
		checks["database"] = "unreachable"
		status["status"] = "degraded"
		statusCode = http.StatusServiceUnavailable
	default:
		checks["database"] = "ok"
	}

	JSON(w, statusCode, status)
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}
