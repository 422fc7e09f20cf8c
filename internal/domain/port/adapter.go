package port

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fanora/payment-service/internal/domain/valueobject"
)

// ErrInvalidSignature is returned by VerifyWebhook when the payload
// fails authenticity checks. Callers must drop the event without
// touching the ledger.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// ErrUnknownEvent is returned by NormalizeEvent when the provider's
// event name is not in the adapter's vocabulary.
var ErrUnknownEvent = errors.New("unknown provider event")

// ProviderError wraps failures talking to an external processor.
// Retryable distinguishes transient transport faults from hard rejects.
type ProviderError struct {
	Provider  valueobject.Provider
	Op        string
	Retryable bool
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider.String(), e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// InitiatePaymentRequest carries everything an adapter needs to open a
// charge with its processor.
type InitiatePaymentRequest struct {
	TransactionID  uuid.UUID
	FanID          uuid.UUID
	AmountMinor    int64
	Currency       string
	PaymentType    valueobject.PaymentType
	IdempotencyKey string
}

// InitiatePaymentResult is the processor's synchronous answer. Approved
// false with a DeclineReason is a business decline, not an error.
type InitiatePaymentResult struct {
	ProviderTxID  string
	Approved      bool
	DeclineReason string
}

// InitiatePayoutRequest carries a payout submission.
type InitiatePayoutRequest struct {
	PayoutID       uuid.UUID
	CreatorID      uuid.UUID
	AmountMinor    int64
	Currency       string
	Destination    string
	IdempotencyKey string
}

// InitiatePayoutResult is the payout provider's synchronous answer.
type InitiatePayoutResult struct {
	ProviderTxID string
	FeeMinor     int64
}

// ProviderAdapter is the port every payment processor integration
// implements. Webhook verification is mandatory: events that fail
// VerifyWebhook never reach normalization.
type ProviderAdapter interface {
	Provider() valueobject.Provider
	InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (InitiatePaymentResult, error)
	InitiatePayout(ctx context.Context, req InitiatePayoutRequest) (InitiatePayoutResult, error)
	// VerifyWebhook checks payload authenticity against the provider's
	// scheme (HMAC digest or shared bearer token). Returns
	// ErrInvalidSignature on mismatch.
	VerifyWebhook(payload []byte, headers map[string]string) error
	// NormalizeEvent maps a verified provider payload to the canonical
	// event form. Unrecognized event names come back with type UNKNOWN
	// and ErrUnknownEvent.
	NormalizeEvent(payload []byte) (valueobject.CanonicalEvent, error)
}

// AdapterRegistry resolves provider adapters by provider.
type AdapterRegistry struct {
	adapters map[valueobject.Provider]ProviderAdapter
}

func NewAdapterRegistry(adapters ...ProviderAdapter) *AdapterRegistry {
	r := &AdapterRegistry{adapters: make(map[valueobject.Provider]ProviderAdapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Provider()] = a
	}
	return r
}

// Get returns the adapter for the provider, or an error when none is registered.
func (r *AdapterRegistry) Get(provider valueobject.Provider) (ProviderAdapter, error) {
	a, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %s", provider.String())
	}
	return a, nil
}
