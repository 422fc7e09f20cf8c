package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fanora/payment-service/pkg/events"
)

const (
	AggregateTypeTransaction = "Transaction"
	AggregateTypePayout      = "Payout"
	AggregateTypeRiskProfile = "RiskProfile"
)

// TransactionInitiated is emitted when a new transaction is created and
// routed to a provider.
type TransactionInitiated struct {
	events.BaseEvent
	TransactionID uuid.UUID `json:"transaction_id"`
	FanID         uuid.UUID `json:"fan_id"`
	CreatorID     uuid.UUID `json:"creator_id"`
	Provider      string    `json:"provider"`
	PaymentType   string    `json:"payment_type"`
	AmountMinor   int64     `json:"amount_minor"`
	Currency      string    `json:"currency"`
}

func NewTransactionInitiated(txID, fanID, creatorID uuid.UUID, provider, paymentType string, amountMinor int64, currency string) TransactionInitiated {
	payload, _ := json.Marshal(struct {
		TransactionID uuid.UUID `json:"transaction_id"`
		FanID         uuid.UUID `json:"fan_id"`
		CreatorID     uuid.UUID `json:"creator_id"`
		Provider      string    `json:"provider"`
		PaymentType   string    `json:"payment_type"`
		AmountMinor   int64     `json:"amount_minor"`
		Currency      string    `json:"currency"`
	}{txID, fanID, creatorID, provider, paymentType, amountMinor, currency})

	return TransactionInitiated{
		BaseEvent:     events.NewBaseEvent("payment.transaction.initiated", txID, AggregateTypeTransaction, payload),
		TransactionID: txID,
		FanID:         fanID,
		CreatorID:     creatorID,
		Provider:      provider,
		PaymentType:   paymentType,
		AmountMinor:   amountMinor,
		Currency:      currency,
	}
}

// TransactionAuthorized is emitted when the provider accepts the payment
// and hands back its own transaction reference.
type TransactionAuthorized struct {
	events.BaseEvent
	TransactionID uuid.UUID `json:"transaction_id"`
	Provider      string    `json:"provider"`
	ProviderTxID  string    `json:"provider_tx_id"`
}

func NewTransactionAuthorized(txID uuid.UUID, provider, providerTxID string) TransactionAuthorized {
	payload, _ := json.Marshal(struct {
		TransactionID uuid.UUID `json:"transaction_id"`
		Provider      string    `json:"provider"`
		ProviderTxID  string    `json:"provider_tx_id"`
	}{txID, provider, providerTxID})

	return TransactionAuthorized{
		BaseEvent:     events.NewBaseEvent("payment.transaction.authorized", txID, AggregateTypeTransaction, payload),
		TransactionID: txID,
		Provider:      provider,
		ProviderTxID:  providerTxID,
	}
}

// TransactionSettled is emitted when funds are confirmed by the provider.
type TransactionSettled struct {
	events.BaseEvent
	TransactionID uuid.UUID       `json:"transaction_id"`
	CreatorID     uuid.UUID       `json:"creator_id"`
	AmountMinor   int64           `json:"amount_minor"`
	FeeMinor      int64           `json:"fee_minor"`
	NetMinor      int64           `json:"net_minor"`
	FeeRate       decimal.Decimal `json:"fee_rate"`
	Currency      string          `json:"currency"`
	SettledAt     time.Time       `json:"settled_at"`
}

func NewTransactionSettled(txID, creatorID uuid.UUID, amountMinor, feeMinor, netMinor int64, feeRate decimal.Decimal, currency string, settledAt time.Time) TransactionSettled {
	payload, _ := json.Marshal(struct {
		TransactionID uuid.UUID       `json:"transaction_id"`
		CreatorID     uuid.UUID       `json:"creator_id"`
		AmountMinor   int64           `json:"amount_minor"`
		FeeMinor      int64           `json:"fee_minor"`
		NetMinor      int64           `json:"net_minor"`
		FeeRate       decimal.Decimal `json:"fee_rate"`
		Currency      string          `json:"currency"`
		SettledAt     time.Time       `json:"settled_at"`
	}{txID, creatorID, amountMinor, feeMinor, netMinor, feeRate, currency, settledAt})

	return TransactionSettled{
		BaseEvent:     events.NewBaseEvent("payment.transaction.settled", txID, AggregateTypeTransaction, payload),
		TransactionID: txID,
		CreatorID:     creatorID,
		AmountMinor:   amountMinor,
		FeeMinor:      feeMinor,
		NetMinor:      netMinor,
		FeeRate:       feeRate,
		Currency:      currency,
		SettledAt:     settledAt,
	}
}

// TransactionFailed is emitted when a provider declines or errors a payment.
type TransactionFailed struct {
	events.BaseEvent
	TransactionID uuid.UUID `json:"transaction_id"`
	Reason        string    `json:"reason"`
}

func NewTransactionFailed(txID uuid.UUID, reason string) TransactionFailed {
	payload, _ := json.Marshal(struct {
		TransactionID uuid.UUID `json:"transaction_id"`
		Reason        string    `json:"reason"`
	}{txID, reason})

	return TransactionFailed{
		BaseEvent:     events.NewBaseEvent("payment.transaction.failed", txID, AggregateTypeTransaction, payload),
		TransactionID: txID,
		Reason:        reason,
	}
}

// TransactionCancelled is emitted when an authorized payment is voided
// before settlement.
type TransactionCancelled struct {
	events.BaseEvent
	TransactionID uuid.UUID `json:"transaction_id"`
	Reason        string    `json:"reason"`
}

func NewTransactionCancelled(txID uuid.UUID, reason string) TransactionCancelled {
	payload, _ := json.Marshal(struct {
		TransactionID uuid.UUID `json:"transaction_id"`
		Reason        string    `json:"reason"`
	}{txID, reason})

	return TransactionCancelled{
		BaseEvent:     events.NewBaseEvent("payment.transaction.cancelled", txID, AggregateTypeTransaction, payload),
		TransactionID: txID,
		Reason:        reason,
	}
}

// TransactionRefunded is emitted when settled funds are returned to the fan.
type TransactionRefunded struct {
	events.BaseEvent
	TransactionID uuid.UUID `json:"transaction_id"`
	CreatorID     uuid.UUID `json:"creator_id"`
	AmountMinor   int64     `json:"amount_minor"`
}

func NewTransactionRefunded(txID, creatorID uuid.UUID, amountMinor int64) TransactionRefunded {
	payload, _ := json.Marshal(struct {
		TransactionID uuid.UUID `json:"transaction_id"`
		CreatorID     uuid.UUID `json:"creator_id"`
		AmountMinor   int64     `json:"amount_minor"`
	}{txID, creatorID, amountMinor})

	return TransactionRefunded{
		BaseEvent:     events.NewBaseEvent("payment.transaction.refunded", txID, AggregateTypeTransaction, payload),
		TransactionID: txID,
		CreatorID:     creatorID,
		AmountMinor:   amountMinor,
	}
}

// TransactionChargedBack is emitted when the fan's bank reverses a
// settled payment. Downstream consumers treat this as a fraud signal.
type TransactionChargedBack struct {
	events.BaseEvent
	TransactionID uuid.UUID `json:"transaction_id"`
	FanID         uuid.UUID `json:"fan_id"`
	CreatorID     uuid.UUID `json:"creator_id"`
	AmountMinor   int64     `json:"amount_minor"`
}

func NewTransactionChargedBack(txID, fanID, creatorID uuid.UUID, amountMinor int64) TransactionChargedBack {
	payload, _ := json.Marshal(struct {
		TransactionID uuid.UUID `json:"transaction_id"`
		FanID         uuid.UUID `json:"fan_id"`
		CreatorID     uuid.UUID `json:"creator_id"`
		AmountMinor   int64     `json:"amount_minor"`
	}{txID, fanID, creatorID, amountMinor})

	return TransactionChargedBack{
		BaseEvent:     events.NewBaseEvent("payment.transaction.charged_back", txID, AggregateTypeTransaction, payload),
		TransactionID: txID,
		FanID:         fanID,
		CreatorID:     creatorID,
		AmountMinor:   amountMinor,
	}
}

// PayoutRequested is emitted when a creator payout is accepted for processing.
type PayoutRequested struct {
	events.BaseEvent
	PayoutID    uuid.UUID `json:"payout_id"`
	CreatorID   uuid.UUID `json:"creator_id"`
	AmountMinor int64     `json:"amount_minor"`
	Currency    string    `json:"currency"`
}

func NewPayoutRequested(payoutID, creatorID uuid.UUID, amountMinor int64, currency string) PayoutRequested {
	payload, _ := json.Marshal(struct {
		PayoutID    uuid.UUID `json:"payout_id"`
		CreatorID   uuid.UUID `json:"creator_id"`
		AmountMinor int64     `json:"amount_minor"`
		Currency    string    `json:"currency"`
	}{payoutID, creatorID, amountMinor, currency})

	return PayoutRequested{
		BaseEvent:   events.NewBaseEvent("payment.payout.requested", payoutID, AggregateTypePayout, payload),
		PayoutID:    payoutID,
		CreatorID:   creatorID,
		AmountMinor: amountMinor,
		Currency:    currency,
	}
}

// PayoutProcessing is emitted when a payout is submitted to the payout provider.
type PayoutProcessing struct {
	events.BaseEvent
	PayoutID     uuid.UUID `json:"payout_id"`
	Provider     string    `json:"provider"`
	ProviderTxID string    `json:"provider_tx_id"`
}

func NewPayoutProcessing(payoutID uuid.UUID, provider, providerTxID string) PayoutProcessing {
	payload, _ := json.Marshal(struct {
		PayoutID     uuid.UUID `json:"payout_id"`
		Provider     string    `json:"provider"`
		ProviderTxID string    `json:"provider_tx_id"`
	}{payoutID, provider, providerTxID})

	return PayoutProcessing{
		BaseEvent:    events.NewBaseEvent("payment.payout.processing", payoutID, AggregateTypePayout, payload),
		PayoutID:     payoutID,
		Provider:     provider,
		ProviderTxID: providerTxID,
	}
}

// PayoutPaid is emitted when the payout provider confirms funds delivery.
type PayoutPaid struct {
	events.BaseEvent
	PayoutID    uuid.UUID `json:"payout_id"`
	CreatorID   uuid.UUID `json:"creator_id"`
	AmountMinor int64     `json:"amount_minor"`
	PaidAt      time.Time `json:"paid_at"`
}

func NewPayoutPaid(payoutID, creatorID uuid.UUID, amountMinor int64, paidAt time.Time) PayoutPaid {
	payload, _ := json.Marshal(struct {
		PayoutID    uuid.UUID `json:"payout_id"`
		CreatorID   uuid.UUID `json:"creator_id"`
		AmountMinor int64     `json:"amount_minor"`
		PaidAt      time.Time `json:"paid_at"`
	}{payoutID, creatorID, amountMinor, paidAt})

	return PayoutPaid{
		BaseEvent:   events.NewBaseEvent("payment.payout.paid", payoutID, AggregateTypePayout, payload),
		PayoutID:    payoutID,
		CreatorID:   creatorID,
		AmountMinor: amountMinor,
		PaidAt:      paidAt,
	}
}

// PayoutFailed is emitted when a payout fails. Failed payouts are never
// retried automatically; the creator must request again.
type PayoutFailed struct {
	events.BaseEvent
	PayoutID uuid.UUID `json:"payout_id"`
	Reason   string    `json:"reason"`
}

func NewPayoutFailed(payoutID uuid.UUID, reason string) PayoutFailed {
	payload, _ := json.Marshal(struct {
		PayoutID uuid.UUID `json:"payout_id"`
		Reason   string    `json:"reason"`
	}{payoutID, reason})

	return PayoutFailed{
		BaseEvent: events.NewBaseEvent("payment.payout.failed", payoutID, AggregateTypePayout, payload),
		PayoutID:  payoutID,
		Reason:    reason,
	}
}

// RiskScoreAdjusted is emitted whenever a user's risk score changes,
// whether from an automatic signal or a manual override.
type RiskScoreAdjusted struct {
	events.BaseEvent
	UserID   uuid.UUID `json:"user_id"`
	Delta    int       `json:"delta"`
	NewScore int       `json:"new_score"`
	Reason   string    `json:"reason"`
	Actor    string    `json:"actor"`
}

func NewRiskScoreAdjusted(userID uuid.UUID, delta, newScore int, reason, actor string) RiskScoreAdjusted {
	payload, _ := json.Marshal(struct {
		UserID   uuid.UUID `json:"user_id"`
		Delta    int       `json:"delta"`
		NewScore int       `json:"new_score"`
		Reason   string    `json:"reason"`
		Actor    string    `json:"actor"`
	}{userID, delta, newScore, reason, actor})

	return RiskScoreAdjusted{
		BaseEvent: events.NewBaseEvent("payment.risk.score_adjusted", userID, AggregateTypeRiskProfile, payload),
		UserID:    userID,
		Delta:     delta,
		NewScore:  newScore,
		Reason:    reason,
		Actor:     actor,
	}
}

// RiskThresholdExceeded is emitted when a user's score crosses the
// blocking threshold. Trust and safety consumes this for review queues.
type RiskThresholdExceeded struct {
	events.BaseEvent
	UserID uuid.UUID `json:"user_id"`
	Score  int       `json:"score"`
}

func NewRiskThresholdExceeded(userID uuid.UUID, score int) RiskThresholdExceeded {
	payload, _ := json.Marshal(struct {
		UserID uuid.UUID `json:"user_id"`
		Score  int       `json:"score"`
	}{userID, score})

	return RiskThresholdExceeded{
		BaseEvent: events.NewBaseEvent("payment.risk.threshold_exceeded", userID, AggregateTypeRiskProfile, payload),
		UserID:    userID,
		Score:     score,
	}
}
