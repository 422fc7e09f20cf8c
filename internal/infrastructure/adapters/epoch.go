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

var _ port.ProviderAdapter = (*EpochAdapter)(nil)

// EpochConfig holds merchant credentials for the Epoch API. Epoch
// authenticates webhooks with a shared bearer token rather than a
// payload digest.
type EpochConfig struct {
	BaseURL      string
	MemberID     string
	APIKey       string
	WebhookToken string
}

// EpochAdapter integrates Epoch, the primary route for EU and UK fans.
type EpochAdapter struct {
	cfg    EpochConfig
	client *apiClient
	logger *slog.Logger
}

func NewEpochAdapter(cfg EpochConfig, logger *slog.Logger) *EpochAdapter {
	return &EpochAdapter{
		cfg:    cfg,
		client: newAPIClient(15 * time.Second),
		logger: logger,
	}
}

func (a *EpochAdapter) Provider() valueobject.Provider {
	return valueobject.ProviderEpoch
}

type epochChargeRequest struct {
	MemberID    string `json:"member_id"`
	ExternalRef string `json:"external_ref"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
}

type epochChargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Result        string `json:"result"`
	Message       string `json:"message"`
}

func (a *EpochAdapter) InitiatePayment(ctx context.Context, req port.InitiatePaymentRequest) (port.InitiatePaymentResult, error) {
	body := epochChargeRequest{
		MemberID:    a.cfg.MemberID,
		ExternalRef: req.TransactionID.String(),
		Amount:      req.AmountMinor,
		Currency:    req.Currency,
	}
	headers := map[string]string{
		"Authorization":   "Bearer " + a.cfg.APIKey,
		"Idempotency-Key": req.IdempotencyKey,
	}

	var resp epochChargeResponse
	if err := a.client.postJSON(ctx, a.cfg.BaseURL+"/v1/charges", headers, body, &resp); err != nil {
		return port.InitiatePaymentResult{}, &port.ProviderError{
			Provider: a.Provider(), Op: "InitiatePayment", Retryable: isRetryable(err), Err: err,
		}
	}

	return port.InitiatePaymentResult{
		ProviderTxID:  resp.TransactionID,
		Approved:      resp.Result == "accepted",
		DeclineReason: resp.Message,
	}, nil
}

func (a *EpochAdapter) InitiatePayout(ctx context.Context, req port.InitiatePayoutRequest) (port.InitiatePayoutResult, error) {
	return port.InitiatePayoutResult{}, &port.ProviderError{
		Provider: a.Provider(), Op: "InitiatePayout",
		Err: fmt.Errorf("epoch does not support payouts"),
	}
}

func (a *EpochAdapter) VerifyWebhook(payload []byte, headers map[string]string) error {
	return verifyBearer(a.cfg.WebhookToken, headers["Authorization"])
}

type epochWebhook struct {
	TransactionType string `json:"transaction_type"`
	TransactionID   string `json:"transaction_id"`
	MemberRef       string `json:"member_ref"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	EventTime       string `json:"event_time"`
}

var epochTransactionTypes = map[string]valueobject.CanonicalEventType{
	"Sale":         valueobject.CanonicalEventSale,
	"Decline":      valueobject.CanonicalEventDecline,
	"Cancellation": valueobject.CanonicalEventCancellation,
	"Chargeback":   valueobject.CanonicalEventChargeback,
	"Refund":       valueobject.CanonicalEventRefund,
}

func (a *EpochAdapter) NormalizeEvent(payload []byte) (valueobject.CanonicalEvent, error) {
	var hook epochWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return valueobject.CanonicalEvent{}, fmt.Errorf("parsing epoch webhook: %w", err)
	}

	evt := valueobject.CanonicalEvent{
		Provider:     a.Provider(),
		ProviderTxID: hook.TransactionID,
		AmountMinor:  hook.Amount,
		Currency:     hook.Currency,
		OccurredAt:   parseEventTime(hook.EventTime),
		RawEventName: hook.TransactionType,
		SubscriberID: hook.MemberRef,
	}

	kind, ok := epochTransactionTypes[hook.TransactionType]
	if !ok {
		evt.Type = valueobject.CanonicalEventUnknown
		return evt, port.ErrUnknownEvent
	}
	evt.Type = kind
	return evt, nil
}
