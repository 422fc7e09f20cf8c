package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/valueobject"
)

var _ port.ProviderAdapter = (*VendoAdapter)(nil)

// VendoConfig holds merchant credentials for the Vendo API. Vendo
// requires outbound requests to carry an HMAC of the body.
type VendoConfig struct {
	BaseURL       string
	MerchantID    string
	SharedSecret  string
	WebhookSecret string
}

// VendoAdapter integrates Vendo, the primary route for LATAM fans.
// Vendo quotes amounts as decimal strings in major units.
type VendoAdapter struct {
	cfg    VendoConfig
	client *apiClient
	logger *slog.Logger
}

func NewVendoAdapter(cfg VendoConfig, logger *slog.Logger) *VendoAdapter {
	return &VendoAdapter{
		cfg:    cfg,
		client: newAPIClient(15 * time.Second),
		logger: logger,
	}
}

func (a *VendoAdapter) Provider() valueobject.Provider {
	return valueobject.ProviderVendo
}

type vendoPaymentRequest struct {
	MerchantID  string `json:"merchant_id"`
	ExternalID  string `json:"external_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type vendoPaymentResponse struct {
	Transaction struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"transaction"`
}

func (a *VendoAdapter) InitiatePayment(ctx context.Context, req port.InitiatePaymentRequest) (port.InitiatePaymentResult, error) {
	body := vendoPaymentRequest{
		MerchantID:  a.cfg.MerchantID,
		ExternalID:  req.TransactionID.String(),
		Amount:      minorToMajor(req.AmountMinor),
		Currency:    req.Currency,
		Description: req.PaymentType.String(),
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return port.InitiatePaymentResult{}, fmt.Errorf("encoding vendo request: %w", err)
	}
	headers := map[string]string{
		"X-Vendo-Signature": signHMAC(a.cfg.SharedSecret, raw),
		"Idempotency-Key":   req.IdempotencyKey,
	}

	var resp vendoPaymentResponse
	if err := a.client.postJSON(ctx, a.cfg.BaseURL+"/api/payments", headers, body, &resp); err != nil {
		return port.InitiatePaymentResult{}, &port.ProviderError{
			Provider: a.Provider(), Op: "InitiatePayment", Retryable: isRetryable(err), Err: err,
		}
	}

	return port.InitiatePaymentResult{
		ProviderTxID:  resp.Transaction.ID,
		Approved:      resp.Transaction.Status == "ok",
		DeclineReason: resp.Transaction.Reason,
	}, nil
}

func (a *VendoAdapter) InitiatePayout(ctx context.Context, req port.InitiatePayoutRequest) (port.InitiatePayoutResult, error) {
	return port.InitiatePayoutResult{}, &port.ProviderError{
		Provider: a.Provider(), Op: "InitiatePayout",
		Err: fmt.Errorf("vendo does not support payouts"),
	}
}

func (a *VendoAdapter) VerifyWebhook(payload []byte, headers map[string]string) error {
	return verifyHMAC(a.cfg.WebhookSecret, payload, headers["X-Vendo-Signature"])
}

type vendoWebhook struct {
	Event       string `json:"event"`
	Transaction struct {
		ID       string `json:"id"`
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"transaction"`
	CustomerID string `json:"customer_id"`
	CreatedAt  string `json:"created_at"`
}

var vendoEvents = map[string]valueobject.CanonicalEventType{
	"payment.sale":       valueobject.CanonicalEventSale,
	"payment.decline":    valueobject.CanonicalEventDecline,
	"payment.cancel":     valueobject.CanonicalEventCancellation,
	"payment.chargeback": valueobject.CanonicalEventChargeback,
	"payment.refund":     valueobject.CanonicalEventRefund,
}

func (a *VendoAdapter) NormalizeEvent(payload []byte) (valueobject.CanonicalEvent, error) {
	var hook vendoWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return valueobject.CanonicalEvent{}, fmt.Errorf("parsing vendo webhook: %w", err)
	}

	amountMinor, err := majorToMinor(hook.Transaction.Amount)
	if err != nil {
		return valueobject.CanonicalEvent{}, fmt.Errorf("parsing vendo amount: %w", err)
	}

	evt := valueobject.CanonicalEvent{
		Provider:     a.Provider(),
		ProviderTxID: hook.Transaction.ID,
		AmountMinor:  amountMinor,
		Currency:     hook.Transaction.Currency,
		OccurredAt:   parseEventTime(hook.CreatedAt),
		RawEventName: hook.Event,
		SubscriberID: hook.CustomerID,
	}

	kind, ok := vendoEvents[hook.Event]
	if !ok {
		evt.Type = valueobject.CanonicalEventUnknown
		return evt, port.ErrUnknownEvent
	}
	evt.Type = kind
	return evt, nil
}

// minorToMajor renders minor units as a two-decimal string ("999" -> "9.99").
func minorToMajor(minor int64) string {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// majorToMinor parses a decimal major-unit string into minor units.
func majorToMinor(major string) (int64, error) {
	if major == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(major)
	if err != nil {
		return 0, err
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}
