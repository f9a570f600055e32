package api

import (
	"net/http"
	"time"

	"github.com/okian/proctor/internal/domain/types"
	"github.com/okian/proctor/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ModelStatus reports classifier availability.
type ModelStatus interface {
	ModelLoaded() bool
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	model ModelStatus
	now   func() time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(model ModelStatus) *HealthHandler {
	return &HealthHandler{model: model, now: time.Now}
}

// HandleHealth handles GET /health requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, types.Health{
		Status:      "ok",
		ModelLoaded: h.model.ModelLoaded(),
		Timestamp:   types.FormatTimestamp(h.now()),
	})
}

// NewMetricsHandler serves the private Prometheus registry.
func NewMetricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
