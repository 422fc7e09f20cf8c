package port

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fanora/payment-service/internal/domain/model"
	"github.com/fanora/payment-service/internal/domain/valueobject"
	"github.com/fanora/payment-service/pkg/events"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

// TransactionRepository defines persistence operations for transactions.
type TransactionRepository interface {
	// Save persists a transaction (insert or update).
	Save(ctx context.Context, tx model.Transaction) error
	// FindByID retrieves a transaction by its internal identifier.
	FindByID(ctx context.Context, id uuid.UUID) (model.Transaction, error)
	// FindByProviderTxID retrieves a transaction by provider reference.
	FindByProviderTxID(ctx context.Context, provider valueobject.Provider, providerTxID string) (model.Transaction, error)
	// ListByFan returns a fan's transactions with pagination.
	ListByFan(ctx context.Context, fanID uuid.UUID, limit, offset int) ([]model.Transaction, int, error)
	// ListByCreator returns transactions crediting a creator with pagination.
	ListByCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]model.Transaction, int, error)
}

// PayoutRepository defines persistence operations for payouts.
type PayoutRepository interface {
	Save(ctx context.Context, payout model.Payout) error
	FindByID(ctx context.Context, id uuid.UUID) (model.Payout, error)
	FindByProviderTxID(ctx context.Context, provider valueobject.Provider, providerTxID string) (model.Payout, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]model.Payout, int, error)
}

// RiskProfileRepository defines persistence operations for risk profiles.
type RiskProfileRepository interface {
	Save(ctx context.Context, profile *model.RiskProfile) error
	// FindByUserID returns ErrNotFound when the user has no profile yet.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*model.RiskProfile, error)
}

// DedupeIndex records which (provider, providerTxID, eventType) triples
// have already been applied to the ledger.
type DedupeIndex interface {
	// MarkApplied records the key. It returns false when the key was
	// already present, which makes the caller's apply a duplicate.
	MarkApplied(ctx context.Context, key string, at time.Time) (bool, error)
	// Seen reports whether the key has been recorded.
	Seen(ctx context.Context, key string) (bool, error)
}

// QuarantineStore holds webhook events whose transition was illegal for
// the aggregate's current status. Quarantined events wait for manual
// review and are never applied automatically.
type QuarantineStore interface {
	Add(ctx context.Context, evt valueobject.CanonicalEvent, aggregateID uuid.UUID, currentStatus, reason string) error
	List(ctx context.Context, limit, offset int) ([]QuarantinedEvent, int, error)
}

// QuarantinedEvent is a conflict held for manual review. AggregateID is
// the transaction or payout the event collided with.
type QuarantinedEvent struct {
	ID            uuid.UUID
	AggregateID   uuid.UUID
	Event         valueobject.CanonicalEvent
	CurrentStatus string
	Reason        string
	QuarantinedAt time.Time
}

// DeadLetterStore holds orphan events that exhausted their requeue budget.
type DeadLetterStore interface {
	Add(ctx context.Context, evt valueobject.CanonicalEvent, attempts int, reason string) error
}

// BalanceReader exposes a creator's settled, unpaid balance. Settled
// transactions credit it; refunds, chargebacks and paid or in-flight
// payouts debit it.
type BalanceReader interface {
	SettledBalance(ctx context.Context, creatorID uuid.UUID, currency string) (int64, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, events ...events.DomainEvent) error
}

// OrphanQueue requeues webhook events that arrived before their
// transaction row exists, with a bounded attempt budget.
type OrphanQueue interface {
	Requeue(ctx context.Context, evt valueobject.CanonicalEvent, attempt int) error
}

// Notifier pushes user-facing notifications for payment outcomes.
type Notifier interface {
	NotifyPaymentSettled(ctx context.Context, fanID, creatorID uuid.UUID, amountMinor int64, currency string) error
	NotifyPaymentFailed(ctx context.Context, fanID uuid.UUID, reason string) error
	NotifyPayoutPaid(ctx context.Context, creatorID uuid.UUID, amountMinor int64, currency string) error
	NotifyPayoutFailed(ctx context.Context, creatorID uuid.UUID, reason string) error
}
