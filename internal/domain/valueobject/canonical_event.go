package valueobject

import (
	"fmt"
	"time"
)

// CanonicalEventType is the provider-independent classification of a
// webhook notification after normalization.
type CanonicalEventType struct {
	value string
}

var (
	CanonicalEventSale         = CanonicalEventType{"SALE"}
	CanonicalEventDecline      = CanonicalEventType{"DECLINE"}
	CanonicalEventCancellation = CanonicalEventType{"CANCELLATION"}
	CanonicalEventChargeback   = CanonicalEventType{"CHARGEBACK"}
	CanonicalEventRefund       = CanonicalEventType{"REFUND"}
	CanonicalEventPayoutPaid   = CanonicalEventType{"PAYOUT_PAID"}
	CanonicalEventPayoutFailed = CanonicalEventType{"PAYOUT_FAILED"}
	CanonicalEventUnknown      = CanonicalEventType{"UNKNOWN"}
)

var validCanonicalEventTypes = map[string]CanonicalEventType{
	"SALE":          CanonicalEventSale,
	"DECLINE":       CanonicalEventDecline,
	"CANCELLATION":  CanonicalEventCancellation,
	"CHARGEBACK":    CanonicalEventChargeback,
	"REFUND":        CanonicalEventRefund,
	"PAYOUT_PAID":   CanonicalEventPayoutPaid,
	"PAYOUT_FAILED": CanonicalEventPayoutFailed,
	"UNKNOWN":       CanonicalEventUnknown,
}

// NewCanonicalEventType validates and creates a CanonicalEventType from a string.
func NewCanonicalEventType(s string) (CanonicalEventType, error) {
	if t, ok := validCanonicalEventTypes[s]; ok {
		return t, nil
	}
	return CanonicalEventType{}, fmt.Errorf("invalid canonical event type: %q", s)
}

// String returns the string representation of the canonical event type.
func (t CanonicalEventType) String() string {
	return t.value
}

// IsZero returns true if the canonical event type is uninitialized.
func (t CanonicalEventType) IsZero() bool {
	return t.value == ""
}

// TargetStatus returns the transaction status this event type drives a
// transaction toward, and false for event types that do not map to a
// transaction transition (payout events and UNKNOWN).
func (t CanonicalEventType) TargetStatus() (TransactionStatus, bool) {
	switch t {
	case CanonicalEventSale:
		return TransactionStatusSettled, true
	case CanonicalEventDecline:
		return TransactionStatusFailed, true
	case CanonicalEventCancellation:
		return TransactionStatusCancelled, true
	case CanonicalEventChargeback:
		return TransactionStatusChargedBack, true
	case CanonicalEventRefund:
		return TransactionStatusRefunded, true
	}
	return TransactionStatus{}, false
}

// CanonicalEvent is the normalized form of a provider webhook notification.
// ProviderTxID is the provider's own transaction reference, not our
// internal transaction ID.
type CanonicalEvent struct {
	Provider     Provider
	Type         CanonicalEventType
	ProviderTxID string
	AmountMinor  int64
	Currency     string
	OccurredAt   time.Time
	RawEventName string
	SubscriberID string
}

// DedupeKey returns the idempotency key for at-most-once ledger
// application: one (provider, provider transaction, event type) triple
// is applied exactly once regardless of redelivery.
func (e CanonicalEvent) DedupeKey() string {
	return fmt.Sprintf("%s:%s:%s", e.Provider.String(), e.ProviderTxID, e.Type.String())
}
