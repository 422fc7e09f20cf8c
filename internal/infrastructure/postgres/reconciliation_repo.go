package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/valueobject"
)

// Compile-time interface checks.
var (
	_ port.DedupeIndex     = (*DedupeRepo)(nil)
	_ port.QuarantineStore = (*QuarantineRepo)(nil)
	_ port.DeadLetterStore = (*DeadLetterRepo)(nil)
)

// DedupeRepo records applied webhook event keys. The primary key on
// the dedupe key makes MarkApplied race-safe across instances.
type DedupeRepo struct {
	pool *pgxpool.Pool
}

func NewDedupeRepo(pool *pgxpool.Pool) *DedupeRepo {
	return &DedupeRepo{pool: pool}
}

func (r *DedupeRepo) MarkApplied(ctx context.Context, key string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO applied_events (dedupe_key, applied_at)
		VALUES ($1, $2)
		ON CONFLICT (dedupe_key) DO NOTHING
	`, key, at)
	if err != nil {
		return false, fmt.Errorf("insert dedupe key: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *DedupeRepo) Seen(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM applied_events WHERE dedupe_key = $1)
	`, key).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query dedupe key: %w", err)
	}
	return exists, nil
}

// QuarantineRepo stores events whose transition conflicted with the
// transaction's current status, pending manual review.
type QuarantineRepo struct {
	pool *pgxpool.Pool
}

func NewQuarantineRepo(pool *pgxpool.Pool) *QuarantineRepo {
	return &QuarantineRepo{pool: pool}
}

func (r *QuarantineRepo) Add(ctx context.Context, evt valueobject.CanonicalEvent, aggregateID uuid.UUID, currentStatus, reason string) error {
	payload, err := json.Marshal(canonicalEventRow(evt))
	if err != nil {
		return fmt.Errorf("marshal quarantined event: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO quarantined_events (id, aggregate_id, event, current_status, reason, quarantined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New(), aggregateID, payload, currentStatus, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert quarantined event: %w", err)
	}
	return nil
}

func (r *QuarantineRepo) List(ctx context.Context, limit, offset int) ([]port.QuarantinedEvent, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quarantined_events`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quarantined events: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, aggregate_id, event, current_status, reason, quarantined_at
		FROM quarantined_events
		ORDER BY quarantined_at DESC, id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query quarantined events: %w", err)
	}
	defer rows.Close()

	var out []port.QuarantinedEvent
	for rows.Next() {
		var (
			entry    port.QuarantinedEvent
			eventRaw []byte
		)
		if err := rows.Scan(&entry.ID, &entry.AggregateID, &eventRaw, &entry.CurrentStatus, &entry.Reason, &entry.QuarantinedAt); err != nil {
			return nil, 0, fmt.Errorf("scan quarantined event: %w", err)
		}
		evt, err := unmarshalCanonicalEvent(eventRaw)
		if err != nil {
			return nil, 0, err
		}
		entry.Event = evt
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate quarantined events: %w", err)
	}

	return out, total, nil
}

// DeadLetterRepo stores events that exhausted orphan retries or could
// not be classified.
type DeadLetterRepo struct {
	pool *pgxpool.Pool
}

func NewDeadLetterRepo(pool *pgxpool.Pool) *DeadLetterRepo {
	return &DeadLetterRepo{pool: pool}
}

func (r *DeadLetterRepo) Add(ctx context.Context, evt valueobject.CanonicalEvent, attempts int, reason string) error {
	payload, err := json.Marshal(canonicalEventRow(evt))
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO dead_letters (id, event, attempts, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), payload, attempts, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	return nil
}

// eventRow is the stored JSON form of a canonical event.
type eventRow struct {
	Provider     string    `json:"provider"`
	Type         string    `json:"type"`
	ProviderTxID string    `json:"provider_tx_id"`
	AmountMinor  int64     `json:"amount_minor"`
	Currency     string    `json:"currency"`
	OccurredAt   time.Time `json:"occurred_at"`
	RawEventName string    `json:"raw_event_name"`
	SubscriberID string    `json:"subscriber_id,omitempty"`
}

func canonicalEventRow(evt valueobject.CanonicalEvent) eventRow {
	return eventRow{
		Provider:     evt.Provider.String(),
		Type:         evt.Type.String(),
		ProviderTxID: evt.ProviderTxID,
		AmountMinor:  evt.AmountMinor,
		Currency:     evt.Currency,
		OccurredAt:   evt.OccurredAt,
		RawEventName: evt.RawEventName,
		SubscriberID: evt.SubscriberID,
	}
}

func unmarshalCanonicalEvent(raw []byte) (valueobject.CanonicalEvent, error) {
	var row eventRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return valueobject.CanonicalEvent{}, fmt.Errorf("unmarshal canonical event: %w", err)
	}
	provider, err := valueobject.NewProvider(row.Provider)
	if err != nil {
		return valueobject.CanonicalEvent{}, err
	}
	kind, err := valueobject.NewCanonicalEventType(row.Type)
	if err != nil {
		return valueobject.CanonicalEvent{}, err
	}
	return valueobject.CanonicalEvent{
		Provider:     provider,
		Type:         kind,
		ProviderTxID: row.ProviderTxID,
		AmountMinor:  row.AmountMinor,
		Currency:     row.Currency,
		OccurredAt:   row.OccurredAt,
		RawEventName: row.RawEventName,
		SubscriberID: row.SubscriberID,
	}, nil
}
