package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/examhub/pkg/http"
)

// HealthChecker is implemented by the database and redis connections.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports dependency status. Optional dependencies that are down degrade
// the response but do not fail it.
type HealthHandler struct {
	database HealthChecker
	optional map[string]HealthChecker
	logger   *slog.Logger
}

func NewHealthHandler(database HealthChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		database: database,
		optional: map[string]HealthChecker{},
		logger:   logger,
	}
}

// WithOptional adds a dependency whose failure reports "degraded" instead of "unhealthy".
func (h *HealthHandler) WithOptional(name string, checker HealthChecker) *HealthHandler {
	h.optional[name] = checker
	return h
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Dependencies: map[string]string{"database": "up"}}

	for name, checker := range h.optional {
		if err := checker.HealthCheck(ctx); err != nil {
			h.logger.Warn("health check failed", slog.String("dependency", name), slog.Any("error", err))
			resp.Dependencies[name] = "down"
			resp.Status = "degraded"
			continue
		}
		resp.Dependencies[name] = "up"
	}

	if err := h.database.HealthCheck(ctx); err != nil {
		h.logger.Error("health check failed", slog.String("dependency", "database"), slog.Any("error", err))
		resp.Dependencies["database"] = "down"
		resp.Status = "unhealthy"
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
