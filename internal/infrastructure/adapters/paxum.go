package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/valueobject"
)

var _ port.ProviderAdapter = (*PaxumAdapter)(nil)

// PaxumConfig holds credentials for the Paxum payout API.
type PaxumConfig struct {
	BaseURL       string
	AccountID     string
	APIKey        string
	WebhookSecret string
}

// PaxumAdapter integrates Paxum, the payout rail for creator
// withdrawals. It handles no inbound fan payments.
type PaxumAdapter struct {
	cfg    PaxumConfig
	client *apiClient
	logger *slog.Logger
}

func NewPaxumAdapter(cfg PaxumConfig, logger *slog.Logger) *PaxumAdapter {
	return &PaxumAdapter{
		cfg:    cfg,
		client: newAPIClient(15 * time.Second),
		logger: logger,
	}
}

func (a *PaxumAdapter) Provider() valueobject.Provider {
	return valueobject.ProviderPaxum
}

func (a *PaxumAdapter) InitiatePayment(ctx context.Context, req port.InitiatePaymentRequest) (port.InitiatePaymentResult, error) {
	return port.InitiatePaymentResult{}, &port.ProviderError{
		Provider: a.Provider(), Op: "InitiatePayment",
		Err: fmt.Errorf("paxum is a payout rail, not a payment processor"),
	}
}

type paxumTransferRequest struct {
	FromAccount string `json:"fromAccount"`
	ToEmail     string `json:"toEmail"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	ExternalRef string `json:"externalRef"`
}

type paxumTransferResponse struct {
	TransferID string `json:"transferId"`
	FeeAmount  int64  `json:"feeAmount"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

func (a *PaxumAdapter) InitiatePayout(ctx context.Context, req port.InitiatePayoutRequest) (port.InitiatePayoutResult, error) {
	body := paxumTransferRequest{
		FromAccount: a.cfg.AccountID,
		ToEmail:     req.Destination,
		Amount:      req.AmountMinor,
		Currency:    req.Currency,
		ExternalRef: req.PayoutID.String(),
	}
	headers := map[string]string{
		"Authorization":   "Bearer " + a.cfg.APIKey,
		"Idempotency-Key": req.IdempotencyKey,
	}

	var resp paxumTransferResponse
	if err := a.client.postJSON(ctx, a.cfg.BaseURL+"/transfers", headers, body, &resp); err != nil {
		return port.InitiatePayoutResult{}, &port.ProviderError{
			Provider: a.Provider(), Op: "InitiatePayout", Retryable: isRetryable(err), Err: err,
		}
	}
	if resp.Status != "accepted" {
		return port.InitiatePayoutResult{}, &port.ProviderError{
			Provider: a.Provider(), Op: "InitiatePayout",
			Err: fmt.Errorf("transfer rejected: %s", resp.Message),
		}
	}

	a.logger.Debug("paxum transfer accepted",
		slog.String("payout_id", req.PayoutID.String()),
		slog.String("transfer_id", resp.TransferID))

	return port.InitiatePayoutResult{
		ProviderTxID: resp.TransferID,
		FeeMinor:     resp.FeeAmount,
	}, nil
}

func (a *PaxumAdapter) VerifyWebhook(payload []byte, headers map[string]string) error {
	return verifyHMAC(a.cfg.WebhookSecret, payload, headers["X-Paxum-Signature"])
}

type paxumWebhook struct {
	Event      string `json:"event"`
	TransferID string `json:"transferId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Reason     string `json:"reason"`
	EventTime  string `json:"eventTime"`
}

var paxumEvents = map[string]valueobject.CanonicalEventType{
	"payout.completed": valueobject.CanonicalEventPayoutPaid,
	"payout.failed":    valueobject.CanonicalEventPayoutFailed,
}

func (a *PaxumAdapter) NormalizeEvent(payload []byte) (valueobject.CanonicalEvent, error) {
	var hook paxumWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return valueobject.CanonicalEvent{}, fmt.Errorf("parsing paxum webhook: %w", err)
	}

	evt := valueobject.CanonicalEvent{
		Provider:     a.Provider(),
		ProviderTxID: hook.TransferID,
		AmountMinor:  hook.Amount,
		Currency:     hook.Currency,
		OccurredAt:   parseEventTime(hook.EventTime),
		RawEventName: hook.Event,
	}

	kind, ok := paxumEvents[hook.Event]
	if !ok {
		evt.Type = valueobject.CanonicalEventUnknown
		return evt, port.ErrUnknownEvent
	}
	evt.Type = kind
	return evt, nil
}
