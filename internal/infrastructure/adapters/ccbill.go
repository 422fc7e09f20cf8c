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

var _ port.ProviderAdapter = (*CCBillAdapter)(nil)

// CCBillConfig holds merchant credentials for the CCBill API.
type CCBillConfig struct {
	BaseURL       string
	ClientAccnum  string
	APIKey        string
	WebhookSecret string
}

// CCBillAdapter integrates the CCBill processor, the primary route for
// US and CA fans.
type CCBillAdapter struct {
	cfg    CCBillConfig
	client *apiClient
	logger *slog.Logger
}

func NewCCBillAdapter(cfg CCBillConfig, logger *slog.Logger) *CCBillAdapter {
	return &CCBillAdapter{
		cfg:    cfg,
		client: newAPIClient(15 * time.Second),
		logger: logger,
	}
}

func (a *CCBillAdapter) Provider() valueobject.Provider {
	return valueobject.ProviderCCBill
}

type ccbillChargeRequest struct {
	ClientAccnum    string `json:"clientAccnum"`
	MerchantInvoice string `json:"merchantInvoice"`
	SubscriberID    string `json:"subscriberId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	PaymentType     string `json:"paymentType"`
}

type ccbillChargeResponse struct {
	TransactionID string `json:"transactionId"`
	Approved      bool   `json:"approved"`
	DeclineReason string `json:"declineReason"`
}

func (a *CCBillAdapter) InitiatePayment(ctx context.Context, req port.InitiatePaymentRequest) (port.InitiatePaymentResult, error) {
	body := ccbillChargeRequest{
		ClientAccnum:    a.cfg.ClientAccnum,
		MerchantInvoice: req.TransactionID.String(),
		SubscriberID:    req.FanID.String(),
		Amount:          req.AmountMinor,
		Currency:        req.Currency,
		PaymentType:     req.PaymentType.String(),
	}
	headers := map[string]string{
		"Authorization":   "Bearer " + a.cfg.APIKey,
		"Idempotency-Key": req.IdempotencyKey,
	}

	var resp ccbillChargeResponse
	if err := a.client.postJSON(ctx, a.cfg.BaseURL+"/transactions/payment", headers, body, &resp); err != nil {
		return port.InitiatePaymentResult{}, &port.ProviderError{
			Provider: a.Provider(), Op: "InitiatePayment", Retryable: isRetryable(err), Err: err,
		}
	}

	a.logger.Debug("ccbill charge response",
		slog.String("transaction_id", req.TransactionID.String()),
		slog.Bool("approved", resp.Approved))

	return port.InitiatePaymentResult{
		ProviderTxID:  resp.TransactionID,
		Approved:      resp.Approved,
		DeclineReason: resp.DeclineReason,
	}, nil
}

func (a *CCBillAdapter) InitiatePayout(ctx context.Context, req port.InitiatePayoutRequest) (port.InitiatePayoutResult, error) {
	return port.InitiatePayoutResult{}, &port.ProviderError{
		Provider: a.Provider(), Op: "InitiatePayout",
		Err: fmt.Errorf("ccbill does not support payouts"),
	}
}

func (a *CCBillAdapter) VerifyWebhook(payload []byte, headers map[string]string) error {
	return verifyHMAC(a.cfg.WebhookSecret, payload, headers["X-Ccbill-Signature"])
}

type ccbillWebhook struct {
	EventType     string `json:"eventType"`
	TransactionID string `json:"transactionId"`
	SubscriberID  string `json:"subscriberId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Timestamp     string `json:"timestamp"`
}

var ccbillEventTypes = map[string]valueobject.CanonicalEventType{
	"NewSaleSuccess": valueobject.CanonicalEventSale,
	"NewSaleFailure": valueobject.CanonicalEventDecline,
	"Cancellation":   valueobject.CanonicalEventCancellation,
	"Chargeback":     valueobject.CanonicalEventChargeback,
	"Refund":         valueobject.CanonicalEventRefund,
}

func (a *CCBillAdapter) NormalizeEvent(payload []byte) (valueobject.CanonicalEvent, error) {
	var hook ccbillWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return valueobject.CanonicalEvent{}, fmt.Errorf("parsing ccbill webhook: %w", err)
	}

	evt := valueobject.CanonicalEvent{
		Provider:     a.Provider(),
		ProviderTxID: hook.TransactionID,
		AmountMinor:  hook.Amount,
		Currency:     hook.Currency,
		OccurredAt:   parseEventTime(hook.Timestamp),
		RawEventName: hook.EventType,
		SubscriberID: hook.SubscriberID,
	}

	kind, ok := ccbillEventTypes[hook.EventType]
	if !ok {
		evt.Type = valueobject.CanonicalEventUnknown
		return evt, port.ErrUnknownEvent
	}
	evt.Type = kind
	return evt, nil
}

// parseEventTime is lenient: providers are inconsistent about webhook
// timestamp formats, and a missing timestamp must not drop the event.
func parseEventTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Now().UTC()
}
