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

var _ port.ProviderAdapter = (*SegpayAdapter)(nil)

// SegpayConfig holds merchant credentials for the Segpay API.
type SegpayConfig struct {
	BaseURL       string
	PackageID     string
	APIKey        string
	WebhookSecret string
}

// SegpayAdapter integrates Segpay, the global fallback processor.
type SegpayAdapter struct {
	cfg    SegpayConfig
	client *apiClient
	logger *slog.Logger
}

func NewSegpayAdapter(cfg SegpayConfig, logger *slog.Logger) *SegpayAdapter {
	return &SegpayAdapter{
		cfg:    cfg,
		client: newAPIClient(15 * time.Second),
		logger: logger,
	}
}

func (a *SegpayAdapter) Provider() valueobject.Provider {
	return valueobject.ProviderSegpay
}

type segpayPurchaseRequest struct {
	PackageID   string `json:"packageId"`
	MerchantRef string `json:"merchantRef"`
	ConsumerID  string `json:"consumerId"`
	AmountMinor int64  `json:"amountMinor"`
	Currency    string `json:"currency"`
}

type segpayPurchaseResponse struct {
	PurchaseID string `json:"purchaseId"`
	Status     string `json:"status"`
	Reason     string `json:"reason"`
}

func (a *SegpayAdapter) InitiatePayment(ctx context.Context, req port.InitiatePaymentRequest) (port.InitiatePaymentResult, error) {
	body := segpayPurchaseRequest{
		PackageID:   a.cfg.PackageID,
		MerchantRef: req.TransactionID.String(),
		ConsumerID:  req.FanID.String(),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
	}
	headers := map[string]string{
		"X-Api-Key":       a.cfg.APIKey,
		"Idempotency-Key": req.IdempotencyKey,
	}

	var resp segpayPurchaseResponse
	if err := a.client.postJSON(ctx, a.cfg.BaseURL+"/purchases", headers, body, &resp); err != nil {
		return port.InitiatePaymentResult{}, &port.ProviderError{
			Provider: a.Provider(), Op: "InitiatePayment", Retryable: isRetryable(err), Err: err,
		}
	}

	return port.InitiatePaymentResult{
		ProviderTxID:  resp.PurchaseID,
		Approved:      resp.Status == "approved",
		DeclineReason: resp.Reason,
	}, nil
}

func (a *SegpayAdapter) InitiatePayout(ctx context.Context, req port.InitiatePayoutRequest) (port.InitiatePayoutResult, error) {
	return port.InitiatePayoutResult{}, &port.ProviderError{
		Provider: a.Provider(), Op: "InitiatePayout",
		Err: fmt.Errorf("segpay does not support payouts"),
	}
}

func (a *SegpayAdapter) VerifyWebhook(payload []byte, headers map[string]string) error {
	return verifyHMAC(a.cfg.WebhookSecret, payload, headers["X-Segpay-Signature"])
}

type segpayWebhook struct {
	Action     string `json:"action"`
	PurchaseID string `json:"purchaseId"`
	ConsumerID string `json:"consumerId"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	EventDate  string `json:"eventDate"`
}

var segpayActions = map[string]valueobject.CanonicalEventType{
	"sale":         valueobject.CanonicalEventSale,
	"decline":      valueobject.CanonicalEventDecline,
	"cancellation": valueobject.CanonicalEventCancellation,
	"chargeback":   valueobject.CanonicalEventChargeback,
	"refund":       valueobject.CanonicalEventRefund,
}

func (a *SegpayAdapter) NormalizeEvent(payload []byte) (valueobject.CanonicalEvent, error) {
	var hook segpayWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return valueobject.CanonicalEvent{}, fmt.Errorf("parsing segpay webhook: %w", err)
	}

	evt := valueobject.CanonicalEvent{
		Provider:     a.Provider(),
		ProviderTxID: hook.PurchaseID,
		AmountMinor:  hook.Amount,
		Currency:     hook.Currency,
		OccurredAt:   parseEventTime(hook.EventDate),
		RawEventName: hook.Action,
		SubscriberID: hook.ConsumerID,
	}

	kind, ok := segpayActions[hook.Action]
	if !ok {
		evt.Type = valueobject.CanonicalEventUnknown
		return evt, port.ErrUnknownEvent
	}
	evt.Type = kind
	return evt, nil
}
