package dto

import (
	"time"

	"github.com/google/uuid"
)

// ProcessPaymentRequest is the inbound request to charge a fan.
type ProcessPaymentRequest struct {
	FanID       uuid.UUID
	CreatorID   uuid.UUID
	PaymentType string
	AmountMinor int64
	Currency    string
	Region      string
}

// ProcessPaymentResponse reports the synchronous outcome of a charge.
type ProcessPaymentResponse struct {
	ID           uuid.UUID
	Provider     string
	ProviderTxID string
	Status       string
	InitiatedAt  time.Time
}

// TransactionResponse is the full read view of a transaction.
type TransactionResponse struct {
	ID            uuid.UUID
	FanID         uuid.UUID
	CreatorID     uuid.UUID
	Provider      string
	ProviderTxID  string
	PaymentType   string
	Status        string
	AmountMinor   int64
	FeeMinor      int64
	NetMinor      int64
	Currency      string
	Region        string
	FailureReason string
	InitiatedAt   time.Time
	SettledAt     *time.Time
}

// WebhookRequest is a raw provider callback awaiting verification.
type WebhookRequest struct {
	Provider string
	Payload  []byte
	Headers  map[string]string
}

// WebhookResponse reports how the event was disposed of.
type WebhookResponse struct {
	Outcome string
}

// ProcessPayoutRequest is a creator withdrawal request.
type ProcessPayoutRequest struct {
	CreatorID   uuid.UUID
	AmountMinor int64
	Currency    string
	Destination string
}

// PayoutResponse is the read view of a payout.
type PayoutResponse struct {
	ID            uuid.UUID
	CreatorID     uuid.UUID
	Provider      string
	ProviderTxID  string
	Status        string
	AmountMinor   int64
	FeeMinor      int64
	Currency      string
	Destination   string
	FailureReason string
	RequestedAt   time.Time
	PaidAt        *time.Time
}

// AdjustRiskRequest is a manual risk score override.
type AdjustRiskRequest struct {
	UserID uuid.UUID
	Delta  int
	Reason string
	Actor  string
}

// RiskProfileResponse is the read view of a risk profile.
type RiskProfileResponse struct {
	UserID         uuid.UUID
	EffectiveScore int
	Blocked        bool
	LastAdjustedAt time.Time
	History        []RiskAdjustmentView
}

// RiskAdjustmentView is one audit entry in a risk profile.
type RiskAdjustmentView struct {
	Delta      int
	ScoreAfter int
	Reason     string
	Actor      string
	At         time.Time
}
