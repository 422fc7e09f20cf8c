package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fanora/payment-service/pkg/postgres"
)

// HealthHandler provides HTTP health check endpoints for the payment-service.
type HealthHandler struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(pool *pgxpool.Pool, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		pool:   pool,
		logger: logger,
	}
}

// healthResponse represents the health check response body.
type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// RegisterRoutes registers the health check routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/readyz", h.Ready)
}

// Health is the liveness probe endpoint.
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeStatus(w, http.StatusOK, "UP")
}

// Ready is the readiness probe endpoint. The service is ready when the
// database answers.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := postgres.HealthCheck(ctx, h.pool); err != nil {
		h.logger.Warn("readiness check failed", slog.String("error", err.Error()))
		h.writeStatus(w, http.StatusServiceUnavailable, "NOT_READY")
		return
	}
	h.writeStatus(w, http.StatusOK, "READY")
}

func (h *HealthHandler) writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	resp := healthResponse{
		Status:  status,
		Service: "payment-service",
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode health response", slog.String("error", err.Error()))
	}
}
