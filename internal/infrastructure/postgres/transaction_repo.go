package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fanora/payment-service/internal/domain/model"
	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/valueobject"
	"github.com/fanora/payment-service/pkg/events"
	pkgpostgres "github.com/fanora/payment-service/pkg/postgres"
)

// Compile-time interface check.
var _ port.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo implements TransactionRepository using PostgreSQL.
// Saves write domain events to the outbox in the same database
// transaction as the aggregate row.
type TransactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *TransactionRepo {
	return &TransactionRepo{pool: pool}
}

const transactionColumns = `
	id, fan_id, creator_id, provider, provider_tx_id,
	payment_type, status, amount_minor, fee_minor, net_minor,
	currency, region, failure_reason,
	initiated_at, settled_at, version, created_at, updated_at`

func (r *TransactionRepo) Save(ctx context.Context, txn model.Transaction) error {
	return pkgpostgres.WithTransaction(ctx, r.pool, func(dbTx pgx.Tx) error {
		_, err := dbTx.Exec(ctx, `
			INSERT INTO transactions (`+transactionColumns+`
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			ON CONFLICT (id) DO UPDATE SET
				provider_tx_id = EXCLUDED.provider_tx_id,
				status = EXCLUDED.status,
				fee_minor = EXCLUDED.fee_minor,
				net_minor = EXCLUDED.net_minor,
				failure_reason = EXCLUDED.failure_reason,
				settled_at = EXCLUDED.settled_at,
				version = EXCLUDED.version,
				updated_at = EXCLUDED.updated_at
		`,
			txn.ID(), txn.FanID(), txn.CreatorID(), txn.Provider().String(), nullable(txn.ProviderTxID()),
			txn.PaymentType().String(), txn.Status().String(), txn.AmountMinor(), txn.FeeMinor(), txn.NetMinor(),
			txn.Currency(), txn.Region(), txn.FailureReason(),
			txn.InitiatedAt(), txn.SettledAt(), txn.Version(), txn.CreatedAt(), txn.UpdatedAt(),
		)
		if err != nil {
			return fmt.Errorf("upsert transaction: %w", err)
		}

		return insertOutbox(ctx, dbTx, txn.DomainEvents())
	})
}

func (r *TransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (model.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = $1
	`, id)
	return scanTransaction(row)
}

func (r *TransactionRepo) FindByProviderTxID(ctx context.Context, provider valueobject.Provider, providerTxID string) (model.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE provider = $1 AND provider_tx_id = $2
	`, provider.String(), providerTxID)
	return scanTransaction(row)
}

func (r *TransactionRepo) ListByFan(ctx context.Context, fanID uuid.UUID, limit, offset int) ([]model.Transaction, int, error) {
	return r.list(ctx, "fan_id", fanID, limit, offset)
}

func (r *TransactionRepo) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]model.Transaction, int, error) {
	return r.list(ctx, "creator_id", creatorID, limit, offset)
}

func (r *TransactionRepo) list(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]model.Transaction, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM transactions WHERE `+column+` = $1
	`, id).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE `+column+` = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, id, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}

	return txns, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var (
		id            uuid.UUID
		fanID         uuid.UUID
		creatorID     uuid.UUID
		providerStr   string
		providerTxID  *string
		typeStr       string
		statusStr     string
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
	)

	err := row.Scan(
		&id, &fanID, &creatorID, &providerStr, &providerTxID,
		&typeStr, &statusStr, &amountMinor, &feeMinor, &netMinor,
		&currency, &region, &failureReason,
		&initiatedAt, &settledAt, &version, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Transaction{}, port.ErrNotFound
		}
		return model.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	provider, _ := valueobject.NewProvider(providerStr)
	paymentType, _ := valueobject.NewPaymentType(typeStr)
	status, _ := valueobject.NewTransactionStatus(statusStr)

	var providerRef string
	if providerTxID != nil {
		providerRef = *providerTxID
	}

	return model.ReconstructTransaction(
		id, fanID, creatorID,
		provider, providerRef, paymentType, status,
		amountMinor, feeMinor, netMinor,
		currency, region, failureReason,
		initiatedAt, settledAt, version, createdAt, updatedAt,
	), nil
}

// insertOutbox writes domain events into the outbox table inside the
// caller's database transaction.
func insertOutbox(ctx context.Context, dbTx pgx.Tx, evts []events.DomainEvent) error {
	for _, evt := range evts {
		payload, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("marshal outbox event: %w", err)
		}
		_, err = dbTx.Exec(ctx, `
			INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, evt.EventID(), evt.AggregateID(), evt.AggregateType(), evt.EventType(), payload, evt.OccurredAt())
		if err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
	}
	return nil
}

// nullable maps empty strings to NULL so partial unique indexes on
// provider references ignore rows that have no reference yet.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
