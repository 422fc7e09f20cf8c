package adapters

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/valueobject"
)

func hmacHex(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCCBillVerifyWebhook(t *testing.T) {
	a := NewCCBillAdapter(CCBillConfig{WebhookSecret: "topsecret"}, slog.Default())
	payload := []byte(`{"eventType":"NewSaleSuccess"}`)

	err := a.VerifyWebhook(payload, map[string]string{
		"X-Ccbill-Signature": hmacHex("topsecret", payload),
	})
	assert.NoError(t, err)

	err = a.VerifyWebhook(payload, map[string]string{
		"X-Ccbill-Signature": hmacHex("wrongsecret", payload),
	})
	assert.ErrorIs(t, err, port.ErrInvalidSignature)

	// Missing and malformed signatures are rejected, never accepted.
	err = a.VerifyWebhook(payload, map[string]string{})
	assert.ErrorIs(t, err, port.ErrInvalidSignature)

	err = a.VerifyWebhook(payload, map[string]string{"X-Ccbill-Signature": "zz-not-hex"})
	assert.ErrorIs(t, err, port.ErrInvalidSignature)
}

func TestEpochVerifyWebhookBearer(t *testing.T) {
	a := NewEpochAdapter(EpochConfig{WebhookToken: "epoch-token"}, slog.Default())
	payload := []byte(`{}`)

	assert.NoError(t, a.VerifyWebhook(payload, map[string]string{
		"Authorization": "Bearer epoch-token",
	}))
	assert.ErrorIs(t, a.VerifyWebhook(payload, map[string]string{
		"Authorization": "Bearer wrong",
	}), port.ErrInvalidSignature)
	assert.ErrorIs(t, a.VerifyWebhook(payload, map[string]string{}), port.ErrInvalidSignature)
}

func TestCCBillNormalizeEvent(t *testing.T) {
	a := NewCCBillAdapter(CCBillConfig{}, slog.Default())

	payload := []byte(`{
		"eventType": "NewSaleSuccess",
		"transactionId": "ccb_910577",
		"subscriberId": "sub_42",
		"amount": 2999,
		"currency": "USD",
		"timestamp": "2026-08-29T10:15:00Z"
	}`)

	evt, err := a.NormalizeEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProviderCCBill, evt.Provider)
	assert.Equal(t, valueobject.CanonicalEventSale, evt.Type)
	assert.Equal(t, "ccb_910577", evt.ProviderTxID)
	assert.Equal(t, int64(2999), evt.AmountMinor)
	assert.Equal(t, "NewSaleSuccess", evt.RawEventName)
	assert.Equal(t, "CCBILL:ccb_910577:SALE", evt.DedupeKey())
}

func TestCCBillNormalizeUnknownEvent(t *testing.T) {
	a := NewCCBillAdapter(CCBillConfig{}, slog.Default())

	evt, err := a.NormalizeEvent([]byte(`{"eventType":"RenewalUpcoming","transactionId":"ccb_1"}`))
	assert.ErrorIs(t, err, port.ErrUnknownEvent)
	assert.Equal(t, valueobject.CanonicalEventUnknown, evt.Type)
	assert.Equal(t, "RenewalUpcoming", evt.RawEventName)
}

func TestSegpayNormalizeEvent(t *testing.T) {
	a := NewSegpayAdapter(SegpayConfig{}, slog.Default())

	tests := []struct {
		action string
		want   valueobject.CanonicalEventType
	}{
		{"sale", valueobject.CanonicalEventSale},
		{"decline", valueobject.CanonicalEventDecline},
		{"cancellation", valueobject.CanonicalEventCancellation},
		{"chargeback", valueobject.CanonicalEventChargeback},
		{"refund", valueobject.CanonicalEventRefund},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			evt, err := a.NormalizeEvent([]byte(`{"action":"` + tt.action + `","purchaseId":"seg_1","amount":500,"currency":"EUR"}`))
			require.NoError(t, err)
			assert.Equal(t, tt.want, evt.Type)
		})
	}
}

func TestVendoNormalizeDecimalAmount(t *testing.T) {
	a := NewVendoAdapter(VendoConfig{}, slog.Default())

	payload := []byte(`{
		"event": "payment.sale",
		"transaction": {"id": "vendo_77", "amount": "49.90", "currency": "BRL"},
		"created_at": "2026-08-29T10:15:00Z"
	}`)

	evt, err := a.NormalizeEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, valueobject.CanonicalEventSale, evt.Type)
	assert.Equal(t, int64(4990), evt.AmountMinor)
	assert.Equal(t, "BRL", evt.Currency)
}

func TestVerotelCreditMapsToRefund(t *testing.T) {
	a := NewVerotelAdapter(VerotelConfig{}, slog.Default())

	evt, err := a.NormalizeEvent([]byte(`{"type":"credit","referenceID":"verotel_5","priceAmount":"10.00","priceCurrency":"EUR"}`))
	require.NoError(t, err)
	assert.Equal(t, valueobject.CanonicalEventRefund, evt.Type)
	assert.Equal(t, int64(1000), evt.AmountMinor)
}

func TestPaxumNormalizePayoutEvents(t *testing.T) {
	a := NewPaxumAdapter(PaxumConfig{}, slog.Default())

	evt, err := a.NormalizeEvent([]byte(`{"event":"payout.completed","transferId":"pax_9","amount":50000,"currency":"USD"}`))
	require.NoError(t, err)
	assert.Equal(t, valueobject.CanonicalEventPayoutPaid, evt.Type)

	evt, err = a.NormalizeEvent([]byte(`{"event":"payout.failed","transferId":"pax_9"}`))
	require.NoError(t, err)
	assert.Equal(t, valueobject.CanonicalEventPayoutFailed, evt.Type)
}

func TestCCBillInitiatePayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transactions/payment", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))
		w.Write([]byte(`{"transactionId":"ccb_1","approved":true}`))
	}))
	defer srv.Close()

	a := NewCCBillAdapter(CCBillConfig{BaseURL: srv.URL, APIKey: "k"}, slog.Default())
	res, err := a.InitiatePayment(context.Background(), port.InitiatePaymentRequest{
		TransactionID:  uuid.New(),
		FanID:          uuid.New(),
		AmountMinor:    999,
		Currency:       "USD",
		PaymentType:    valueobject.PaymentTypePPV,
		IdempotencyKey: uuid.NewString(),
	})
	require.NoError(t, err)
	assert.True(t, res.Approved)
	assert.Equal(t, "ccb_1", res.ProviderTxID)
}

func TestAPIClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"status":"accepted","transferId":"pax_1","feeAmount":1250}`))
	}))
	defer srv.Close()

	a := NewPaxumAdapter(PaxumConfig{BaseURL: srv.URL}, slog.Default())
	res, err := a.InitiatePayout(context.Background(), port.InitiatePayoutRequest{
		PayoutID:       uuid.New(),
		CreatorID:      uuid.New(),
		AmountMinor:    50000,
		Currency:       "USD",
		Destination:    "creator@example.com",
		IdempotencyKey: uuid.NewString(),
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "pax_1", res.ProviderTxID)
	assert.Equal(t, int64(1250), res.FeeMinor)
}

func TestAPIClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	a := NewCCBillAdapter(CCBillConfig{BaseURL: srv.URL}, slog.Default())
	_, err := a.InitiatePayment(context.Background(), port.InitiatePaymentRequest{
		TransactionID: uuid.New(),
		FanID:         uuid.New(),
		AmountMinor:   999,
		Currency:      "USD",
		PaymentType:   valueobject.PaymentTypePPV,
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var provErr *port.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.False(t, provErr.Retryable)
}
