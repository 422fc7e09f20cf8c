package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fanora/payment-service/internal/domain/event"
	"github.com/fanora/payment-service/internal/domain/valueobject"
	"github.com/fanora/payment-service/pkg/events"
)

// Transaction is the root aggregate for fan payments. It is immutable:
// transition methods return a new copy or an error when the move is not
// allowed by the status DAG.
type Transaction struct {
	id            uuid.UUID
	fanID         uuid.UUID
	creatorID     uuid.UUID
	provider      valueobject.Provider
	providerTxID  string
	paymentType   valueobject.PaymentType
	status        valueobject.TransactionStatus
	amountMinor   int64
	feeMinor      int64
	netMinor      int64
	currency      string
	region        string
	failureReason string
	initiatedAt   time.Time
	settledAt     *time.Time
	version       int
	createdAt     time.Time
	updatedAt     time.Time
	domainEvents  []events.DomainEvent
}

// NewTransaction creates a transaction in INITIATED status.
func NewTransaction(
	fanID uuid.UUID,
	creatorID uuid.UUID,
	provider valueobject.Provider,
	paymentType valueobject.PaymentType,
	amountMinor int64,
	currency string,
	region string,
) (Transaction, error) {
	if fanID == uuid.Nil {
		return Transaction{}, fmt.Errorf("fan ID is required")
	}
	if creatorID == uuid.Nil {
		return Transaction{}, fmt.Errorf("creator ID is required")
	}
	if provider.IsZero() {
		return Transaction{}, fmt.Errorf("provider is required")
	}
	if paymentType.IsZero() {
		return Transaction{}, fmt.Errorf("payment type is required")
	}
	if amountMinor <= 0 {
		return Transaction{}, fmt.Errorf("amount must be positive, got: %d", amountMinor)
	}
	if amountMinor < provider.MinAmountMinor() {
		return Transaction{}, fmt.Errorf("amount %d below provider minimum %d", amountMinor, provider.MinAmountMinor())
	}
	if currency == "" {
		return Transaction{}, fmt.Errorf("currency is required")
	}

	now := time.Now().UTC()
	id := uuid.New()

	tx := Transaction{
		id:          id,
		fanID:       fanID,
		creatorID:   creatorID,
		provider:    provider,
		paymentType: paymentType,
		status:      valueobject.TransactionStatusInitiated,
		amountMinor: amountMinor,
		currency:    currency,
		region:      region,
		initiatedAt: now,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}

	tx.domainEvents = append(tx.domainEvents,
		event.NewTransactionInitiated(id, fanID, creatorID, provider.String(), paymentType.String(), amountMinor, currency),
	)

	return tx, nil
}

// ReconstructTransaction recreates a Transaction from persistence (no validation, no events).
func ReconstructTransaction(
	id, fanID, creatorID uuid.UUID,
	provider valueobject.Provider,
	providerTxID string,
	paymentType valueobject.PaymentType,
	status valueobject.TransactionStatus,
	amountMinor, feeMinor, netMinor int64,
	currency, region, failureReason string,
	initiatedAt time.Time,
	settledAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) Transaction {
	return Transaction{
		id:            id,
		fanID:         fanID,
		creatorID:     creatorID,
		provider:      provider,
		providerTxID:  providerTxID,
		paymentType:   paymentType,
		status:        status,
		amountMinor:   amountMinor,
		feeMinor:      feeMinor,
		netMinor:      netMinor,
		currency:      currency,
		region:        region,
		failureReason: failureReason,
		initiatedAt:   initiatedAt,
		settledAt:     settledAt,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (t Transaction) transition(next valueobject.TransactionStatus) (Transaction, error) {
	if !t.status.CanTransitionTo(next) {
		return Transaction{}, fmt.Errorf("illegal transition %s -> %s", t.status.String(), next.String())
	}
	updated := t
	updated.status = next
	updated.version++
	updated.domainEvents = append([]events.DomainEvent{}, t.domainEvents...)
	return updated, nil
}

// Authorize transitions the transaction from INITIATED to AUTHORIZED,
// recording the provider's own transaction reference.
func (t Transaction) Authorize(providerTxID string, now time.Time) (Transaction, error) {
	if providerTxID == "" {
		return Transaction{}, fmt.Errorf("provider transaction ID is required")
	}
	updated, err := t.transition(valueobject.TransactionStatusAuthorized)
	if err != nil {
		return Transaction{}, err
	}
	updated.providerTxID = providerTxID
	updated.updatedAt = now
	updated.domainEvents = append(updated.domainEvents,
		event.NewTransactionAuthorized(t.id, t.provider.String(), providerTxID),
	)
	return updated, nil
}

// Settle transitions the transaction from AUTHORIZED to SETTLED and
// splits the amount into platform fee and creator net using the
// provider's fee rate. The split always satisfies fee + net == amount.
func (t Transaction) Settle(now time.Time) (Transaction, error) {
	updated, err := t.transition(valueobject.TransactionStatusSettled)
	if err != nil {
		return Transaction{}, err
	}

	rate := t.provider.FeeRate()
	fee := decimal.NewFromInt(t.amountMinor).Mul(rate).Round(0).IntPart()
	updated.feeMinor = fee
	updated.netMinor = t.amountMinor - fee
	updated.settledAt = &now
	updated.updatedAt = now
	updated.domainEvents = append(updated.domainEvents,
		event.NewTransactionSettled(t.id, t.creatorID, t.amountMinor, fee, t.amountMinor-fee, rate, t.currency, now),
	)
	return updated, nil
}

// Fail transitions the transaction from INITIATED to FAILED.
func (t Transaction) Fail(reason string, now time.Time) (Transaction, error) {
	updated, err := t.transition(valueobject.TransactionStatusFailed)
	if err != nil {
		return Transaction{}, err
	}
	updated.failureReason = reason
	updated.updatedAt = now
	updated.domainEvents = append(updated.domainEvents,
		event.NewTransactionFailed(t.id, reason),
	)
	return updated, nil
}

// Cancel transitions the transaction from AUTHORIZED to CANCELLED.
func (t Transaction) Cancel(reason string, now time.Time) (Transaction, error) {
	updated, err := t.transition(valueobject.TransactionStatusCancelled)
	if err != nil {
		return Transaction{}, err
	}
	updated.failureReason = reason
	updated.updatedAt = now
	updated.domainEvents = append(updated.domainEvents,
		event.NewTransactionCancelled(t.id, reason),
	)
	return updated, nil
}

// Refund transitions the transaction from SETTLED to REFUNDED.
func (t Transaction) Refund(now time.Time) (Transaction, error) {
	updated, err := t.transition(valueobject.TransactionStatusRefunded)
	if err != nil {
		return Transaction{}, err
	}
	updated.updatedAt = now
	updated.domainEvents = append(updated.domainEvents,
		event.NewTransactionRefunded(t.id, t.creatorID, t.amountMinor),
	)
	return updated, nil
}

// ChargeBack transitions the transaction from SETTLED to CHARGED_BACK.
func (t Transaction) ChargeBack(now time.Time) (Transaction, error) {
	updated, err := t.transition(valueobject.TransactionStatusChargedBack)
	if err != nil {
		return Transaction{}, err
	}
	updated.updatedAt = now
	updated.domainEvents = append(updated.domainEvents,
		event.NewTransactionChargedBack(t.id, t.fanID, t.creatorID, t.amountMinor),
	)
	return updated, nil
}

// Accessors

func (t Transaction) ID() uuid.UUID                            { return t.id }
func (t Transaction) FanID() uuid.UUID                         { return t.fanID }
func (t Transaction) CreatorID() uuid.UUID                     { return t.creatorID }
func (t Transaction) Provider() valueobject.Provider           { return t.provider }
func (t Transaction) ProviderTxID() string                     { return t.providerTxID }
func (t Transaction) PaymentType() valueobject.PaymentType     { return t.paymentType }
func (t Transaction) Status() valueobject.TransactionStatus    { return t.status }
func (t Transaction) AmountMinor() int64                       { return t.amountMinor }
func (t Transaction) FeeMinor() int64                          { return t.feeMinor }
func (t Transaction) NetMinor() int64                          { return t.netMinor }
func (t Transaction) Currency() string                         { return t.currency }
func (t Transaction) Region() string                           { return t.region }
func (t Transaction) FailureReason() string                    { return t.failureReason }
func (t Transaction) InitiatedAt() time.Time                   { return t.initiatedAt }
func (t Transaction) SettledAt() *time.Time                    { return t.settledAt }
func (t Transaction) Version() int                             { return t.version }
func (t Transaction) CreatedAt() time.Time                     { return t.createdAt }
func (t Transaction) UpdatedAt() time.Time                     { return t.updatedAt }
func (t Transaction) DomainEvents() []events.DomainEvent       { return t.domainEvents }

// ClearDomainEvents returns the collected domain events and a new Transaction with events cleared.
func (t Transaction) ClearDomainEvents() ([]events.DomainEvent, Transaction) {
	evts := t.domainEvents
	t.domainEvents = nil
	return evts, t
}
