package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/crmlens/crmlens/internal/executor"
	"github.com/crmlens/crmlens/internal/models"
)

const version = "1.0.0"

// HealthHandler handles GET /health with optional dependency checks
type HealthHandler struct {
	exec            executor.Executor
	fallbackEnabled bool
}

func NewHealthHandler(exec executor.Executor, fallbackEnabled bool) *HealthHandler {
	return &HealthHandler{exec: exec, fallbackEnabled: fallbackEnabled}
}

// Health handles GET /health. The database check probes actual
// connectivity instead of always returning 200.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"server": "ok"}
	overallStatus := "healthy"

	// Use a short timeout for health checks so they don't block
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.exec != nil {
		if err := h.exec.TestConnection(ctx); err != nil {
			checks["database"] = "unavailable: " + err.Error()
			overallStatus = "degraded"
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "disabled"
	}

	if h.fallbackEnabled {
		checks["fallback"] = "enabled"
	} else {
		checks["fallback"] = "disabled"
	}

	statusCode := http.StatusOK
	if overallStatus == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	models.WriteJSON(w, statusCode, models.HealthResponse{
		Status:  overallStatus,
		Version: version,
		Checks:  checks,
	})
}
