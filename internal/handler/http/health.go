package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Pinger is the storage surface health checks need.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обработчик health checks
type HealthHandler struct {
	storage Pinger
	log     *zap.Logger
	started time.Time
}

// NewHealthHandler создает новый health handler
func NewHealthHandler(storage Pinger, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		storage: storage,
		log:     log,
		started: time.Now(),
	}
}

// HealthResponse структура ответа health check
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	DatabaseStatus string    `json:"database_status"`
	Uptime         string    `json:"uptime,omitempty"`
}

// Health основной health check endpoint
//
//	@Summary	Liveness and storage health
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:         "healthy",
		Timestamp:      time.Now(),
		DatabaseStatus: "healthy",
		Uptime:         time.Since(h.started).Round(time.Second).String(),
	}
	status := http.StatusOK

	if err := h.storage.Ping(ctx); err != nil {
		h.log.Error("storage health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.DatabaseStatus = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, resp, status)
}

// Ready readiness probe endpoint
//
//	@Summary	Readiness probe
//	@Tags		Health
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.log.Warn("not ready", zap.Error(err))
		writeJSON(w, map[string]string{"status": "not_ready"}, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ready"}, http.StatusOK)
}
