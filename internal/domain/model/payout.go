package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fanora/payment-service/internal/domain/event"
	"github.com/fanora/payment-service/internal/domain/valueobject"
	"github.com/fanora/payment-service/pkg/events"
)

// Payout is the aggregate for creator withdrawals. Like Transaction it
// is immutable: transitions return a new copy.
type Payout struct {
	id            uuid.UUID
	creatorID     uuid.UUID
	provider      valueobject.Provider
	providerTxID  string
	status        valueobject.PayoutStatus
	amountMinor   int64
	feeMinor      int64
	currency      string
	destination   string
	failureReason string
	requestedAt   time.Time
	paidAt        *time.Time
	version       int
	createdAt     time.Time
	updatedAt     time.Time
	domainEvents  []events.DomainEvent
}

// NewPayout creates a payout in REQUESTED status. The settled-balance
// check belongs to the orchestrator, not the aggregate.
func NewPayout(
	creatorID uuid.UUID,
	provider valueobject.Provider,
	amountMinor int64,
	currency string,
	destination string,
) (Payout, error) {
	if creatorID == uuid.Nil {
		return Payout{}, fmt.Errorf("creator ID is required")
	}
	if provider.IsZero() {
		return Payout{}, fmt.Errorf("provider is required")
	}
	if !provider.SupportsPayouts() {
		return Payout{}, fmt.Errorf("provider %s does not support payouts", provider.String())
	}
	if amountMinor <= 0 {
		return Payout{}, fmt.Errorf("amount must be positive, got: %d", amountMinor)
	}
	if amountMinor < provider.MinAmountMinor() {
		return Payout{}, fmt.Errorf("amount %d below provider minimum %d", amountMinor, provider.MinAmountMinor())
	}
	if currency == "" {
		return Payout{}, fmt.Errorf("currency is required")
	}
	if destination == "" {
		return Payout{}, fmt.Errorf("destination is required")
	}

	now := time.Now().UTC()
	id := uuid.New()

	p := Payout{
		id:          id,
		creatorID:   creatorID,
		provider:    provider,
		status:      valueobject.PayoutStatusRequested,
		amountMinor: amountMinor,
		currency:    currency,
		destination: destination,
		requestedAt: now,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}

	p.domainEvents = append(p.domainEvents,
		event.NewPayoutRequested(id, creatorID, amountMinor, currency),
	)

	return p, nil
}

// ReconstructPayout recreates a Payout from persistence (no validation, no events).
func ReconstructPayout(
	id, creatorID uuid.UUID,
	provider valueobject.Provider,
	providerTxID string,
	status valueobject.PayoutStatus,
	amountMinor, feeMinor int64,
	currency, destination, failureReason string,
	requestedAt time.Time,
	paidAt *time.Time,
	version int,
	createdAt, updatedAt time.Time,
) Payout {
	return Payout{
		id:            id,
		creatorID:     creatorID,
		provider:      provider,
		providerTxID:  providerTxID,
		status:        status,
		amountMinor:   amountMinor,
		feeMinor:      feeMinor,
		currency:      currency,
		destination:   destination,
		failureReason: failureReason,
		requestedAt:   requestedAt,
		paidAt:        paidAt,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// MarkProcessing transitions the payout from REQUESTED to PROCESSING,
// recording the provider reference and fee.
func (p Payout) MarkProcessing(providerTxID string, feeMinor int64, now time.Time) (Payout, error) {
	if p.status != valueobject.PayoutStatusRequested {
		return Payout{}, fmt.Errorf("can only mark processing from REQUESTED status, current: %s", p.status.String())
	}
	if providerTxID == "" {
		return Payout{}, fmt.Errorf("provider transaction ID is required")
	}

	updated := p
	updated.status = valueobject.PayoutStatusProcessing
	updated.providerTxID = providerTxID
	updated.feeMinor = feeMinor
	updated.updatedAt = now
	updated.version++
	updated.domainEvents = append([]events.DomainEvent{}, p.domainEvents...)
	updated.domainEvents = append(updated.domainEvents,
		event.NewPayoutProcessing(p.id, p.provider.String(), providerTxID),
	)
	return updated, nil
}

// MarkPaid transitions the payout from PROCESSING to PAID.
func (p Payout) MarkPaid(now time.Time) (Payout, error) {
	if p.status != valueobject.PayoutStatusProcessing {
		return Payout{}, fmt.Errorf("can only mark paid from PROCESSING status, current: %s", p.status.String())
	}

	updated := p
	updated.status = valueobject.PayoutStatusPaid
	updated.paidAt = &now
	updated.updatedAt = now
	updated.version++
	updated.domainEvents = append([]events.DomainEvent{}, p.domainEvents...)
	updated.domainEvents = append(updated.domainEvents,
		event.NewPayoutPaid(p.id, p.creatorID, p.amountMinor, now),
	)
	return updated, nil
}

// MarkFailed transitions the payout to FAILED from REQUESTED or
// PROCESSING. Failed payouts are terminal and never retried.
func (p Payout) MarkFailed(reason string, now time.Time) (Payout, error) {
	if p.status.IsTerminal() {
		return Payout{}, fmt.Errorf("cannot fail payout in terminal status %s", p.status.String())
	}

	updated := p
	updated.status = valueobject.PayoutStatusFailed
	updated.failureReason = reason
	updated.updatedAt = now
	updated.version++
	updated.domainEvents = append([]events.DomainEvent{}, p.domainEvents...)
	updated.domainEvents = append(updated.domainEvents,
		event.NewPayoutFailed(p.id, reason),
	)
	return updated, nil
}

// Accessors

func (p Payout) ID() uuid.UUID                      { return p.id }
func (p Payout) CreatorID() uuid.UUID               { return p.creatorID }
func (p Payout) Provider() valueobject.Provider     { return p.provider }
func (p Payout) ProviderTxID() string               { return p.providerTxID }
func (p Payout) Status() valueobject.PayoutStatus   { return p.status }
func (p Payout) AmountMinor() int64                 { return p.amountMinor }
func (p Payout) FeeMinor() int64                    { return p.feeMinor }
func (p Payout) Currency() string                   { return p.currency }
func (p Payout) Destination() string                { return p.destination }
func (p Payout) FailureReason() string              { return p.failureReason }
func (p Payout) RequestedAt() time.Time             { return p.requestedAt }
func (p Payout) PaidAt() *time.Time                 { return p.paidAt }
func (p Payout) Version() int                       { return p.version }
func (p Payout) CreatedAt() time.Time               { return p.createdAt }
func (p Payout) UpdatedAt() time.Time               { return p.updatedAt }
func (p Payout) DomainEvents() []events.DomainEvent { return p.domainEvents }

// ClearDomainEvents returns the collected domain events and a new Payout with events cleared.
func (p Payout) ClearDomainEvents() ([]events.DomainEvent, Payout) {
	evts := p.domainEvents
	p.domainEvents = nil
	return evts, p
}
