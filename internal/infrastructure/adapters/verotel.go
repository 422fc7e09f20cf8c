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

var _ port.ProviderAdapter = (*VerotelAdapter)(nil)

// VerotelConfig holds merchant credentials for the Verotel API.
type VerotelConfig struct {
	BaseURL       string
	ShopID        string
	APIKey        string
	WebhookSecret string
}

// VerotelAdapter integrates Verotel, the EU fallback route.
type VerotelAdapter struct {
	cfg    VerotelConfig
	client *apiClient
	logger *slog.Logger
}

func NewVerotelAdapter(cfg VerotelConfig, logger *slog.Logger) *VerotelAdapter {
	return &VerotelAdapter{
		cfg:    cfg,
		client: newAPIClient(15 * time.Second),
		logger: logger,
	}
}

func (a *VerotelAdapter) Provider() valueobject.Provider {
	return valueobject.ProviderVerotel
}

type verotelPurchaseRequest struct {
	ShopID        string `json:"shopID"`
	ReferenceID   string `json:"referenceID"`
	PriceAmount   string `json:"priceAmount"`
	PriceCurrency string `json:"priceCurrency"`
}

type verotelPurchaseResponse struct {
	TransactionID string `json:"transactionID"`
	Result        string `json:"result"`
	Description   string `json:"description"`
}

func (a *VerotelAdapter) InitiatePayment(ctx context.Context, req port.InitiatePaymentRequest) (port.InitiatePaymentResult, error) {
	body := verotelPurchaseRequest{
		ShopID:        a.cfg.ShopID,
		ReferenceID:   req.TransactionID.String(),
		PriceAmount:   minorToMajor(req.AmountMinor),
		PriceCurrency: req.Currency,
	}
	headers := map[string]string{
		"X-Api-Key":       a.cfg.APIKey,
		"Idempotency-Key": req.IdempotencyKey,
	}

	var resp verotelPurchaseResponse
	if err := a.client.postJSON(ctx, a.cfg.BaseURL+"/purchase", headers, body, &resp); err != nil {
		return port.InitiatePaymentResult{}, &port.ProviderError{
			Provider: a.Provider(), Op: "InitiatePayment", Retryable: isRetryable(err), Err: err,
		}
	}

	return port.InitiatePaymentResult{
		ProviderTxID:  resp.TransactionID,
		Approved:      resp.Result == "OK",
		DeclineReason: resp.Description,
	}, nil
}

func (a *VerotelAdapter) InitiatePayout(ctx context.Context, req port.InitiatePayoutRequest) (port.InitiatePayoutResult, error) {
	return port.InitiatePayoutResult{}, &port.ProviderError{
		Provider: a.Provider(), Op: "InitiatePayout",
		Err: fmt.Errorf("verotel does not support payouts"),
	}
}

func (a *VerotelAdapter) VerifyWebhook(payload []byte, headers map[string]string) error {
	return verifyHMAC(a.cfg.WebhookSecret, payload, headers["X-Verotel-Signature"])
}

type verotelWebhook struct {
	Type          string `json:"type"`
	ReferenceID   string `json:"referenceID"`
	PriceAmount   string `json:"priceAmount"`
	PriceCurrency string `json:"priceCurrency"`
	EventAt       string `json:"eventAt"`
}

// Verotel calls refunds "credit".
var verotelTypes = map[string]valueobject.CanonicalEventType{
	"purchase":   valueobject.CanonicalEventSale,
	"decline":    valueobject.CanonicalEventDecline,
	"cancel":     valueobject.CanonicalEventCancellation,
	"chargeback": valueobject.CanonicalEventChargeback,
	"credit":     valueobject.CanonicalEventRefund,
}

func (a *VerotelAdapter) NormalizeEvent(payload []byte) (valueobject.CanonicalEvent, error) {
	var hook verotelWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return valueobject.CanonicalEvent{}, fmt.Errorf("parsing verotel webhook: %w", err)
	}

	amountMinor, err := majorToMinor(hook.PriceAmount)
	if err != nil {
		return valueobject.CanonicalEvent{}, fmt.Errorf("parsing verotel amount: %w", err)
	}

	evt := valueobject.CanonicalEvent{
		Provider:     a.Provider(),
		ProviderTxID: hook.ReferenceID,
		AmountMinor:  amountMinor,
		Currency:     hook.PriceCurrency,
		OccurredAt:   parseEventTime(hook.EventAt),
		RawEventName: hook.Type,
	}

	kind, ok := verotelTypes[hook.Type]
	if !ok {
		evt.Type = valueobject.CanonicalEventUnknown
		return evt, port.ErrUnknownEvent
	}
	evt.Type = kind
	return evt, nil
}
