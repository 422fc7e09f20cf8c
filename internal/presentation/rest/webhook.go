package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fanora/payment-service/internal/application/dto"
	"github.com/fanora/payment-service/internal/application/usecase"
	"github.com/fanora/payment-service/internal/domain/port"
)

// maxWebhookBody caps provider callback payloads at 1 MB.
const maxWebhookBody = 1 << 20

// WebhookHandler receives provider callbacks over HTTP. Processors
// retry on non-2xx, so every disposition past signature verification
// answers 200.
type WebhookHandler struct {
	handleWebhookUC *usecase.HandleWebhook
	logger          *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(handleWebhookUC *usecase.HandleWebhook, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		handleWebhookUC: handleWebhookUC,
		logger:          logger,
	}
}

// RegisterRoutes registers the webhook routes on the given mux.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/{provider}", h.Receive)
}

type webhookAck struct {
	Outcome string `json:"outcome"`
}

// Receive handles one provider callback delivery.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	provider := strings.ToUpper(r.PathValue("provider"))

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("reading webhook body", slog.String("error", err.Error()))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}

	resp, err := h.handleWebhookUC.Execute(r.Context(), dto.WebhookRequest{
		Provider: provider,
		Payload:  payload,
		Headers:  headers,
	})
	if err != nil {
		switch {
		case errors.Is(err, port.ErrInvalidSignature):
			http.Error(w, "invalid signature", http.StatusUnauthorized)
		case strings.Contains(err.Error(), "invalid provider"),
			strings.Contains(err.Error(), "no adapter registered"):
			http.Error(w, "unknown provider", http.StatusNotFound)
		default:
			h.logger.Error("webhook processing failed",
				slog.String("provider", provider),
				slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(webhookAck{Outcome: resp.Outcome}); err != nil {
		h.logger.Error("failed to encode webhook ack", slog.String("error", err.Error()))
	}
}
