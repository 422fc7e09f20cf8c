package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fanora/payment-service/internal/domain/model"
	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/valueobject"
	pkgpostgres "github.com/fanora/payment-service/pkg/postgres"
)

// Compile-time interface check.
var _ port.PayoutRepository = (*PayoutRepo)(nil)

// PayoutRepo implements PayoutRepository using PostgreSQL.
type PayoutRepo struct {
	pool *pgxpool.Pool
}

func NewPayoutRepo(pool *pgxpool.Pool) *PayoutRepo {
	return &PayoutRepo{pool: pool}
}

const payoutColumns = `
	id, creator_id, provider, provider_tx_id, status,
	amount_minor, fee_minor, currency, destination, failure_reason,
	requested_at, paid_at, version, created_at, updated_at`

func (r *PayoutRepo) Save(ctx context.Context, payout model.Payout) error {
	return pkgpostgres.WithTransaction(ctx, r.pool, func(dbTx pgx.Tx) error {
		_, err := dbTx.Exec(ctx, `
			INSERT INTO payouts (`+payoutColumns+`
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO UPDATE SET
				provider_tx_id = EXCLUDED.provider_tx_id,
				status = EXCLUDED.status,
				fee_minor = EXCLUDED.fee_minor,
				failure_reason = EXCLUDED.failure_reason,
				paid_at = EXCLUDED.paid_at,
				version = EXCLUDED.version,
				updated_at = EXCLUDED.updated_at
		`,
			payout.ID(), payout.CreatorID(), payout.Provider().String(), nullable(payout.ProviderTxID()), payout.Status().String(),
			payout.AmountMinor(), payout.FeeMinor(), payout.Currency(), payout.Destination(), payout.FailureReason(),
			payout.RequestedAt(), payout.PaidAt(), payout.Version(), payout.CreatedAt(), payout.UpdatedAt(),
		)
		if err != nil {
			return fmt.Errorf("upsert payout: %w", err)
		}

		return insertOutbox(ctx, dbTx, payout.DomainEvents())
	})
}

func (r *PayoutRepo) FindByID(ctx context.Context, id uuid.UUID) (model.Payout, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+payoutColumns+` FROM payouts WHERE id = $1
	`, id)
	return scanPayout(row)
}

func (r *PayoutRepo) FindByProviderTxID(ctx context.Context, provider valueobject.Provider, providerTxID string) (model.Payout, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+payoutColumns+` FROM payouts
		WHERE provider = $1 AND provider_tx_id = $2
	`, provider.String(), providerTxID)
	return scanPayout(row)
}

func (r *PayoutRepo) ListByCreator(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]model.Payout, int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM payouts WHERE creator_id = $1
	`, creatorID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count payouts: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+payoutColumns+` FROM payouts
		WHERE creator_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, creatorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query payouts: %w", err)
	}
	defer rows.Close()

	var payouts []model.Payout
	for rows.Next() {
		p, err := scanPayout(rows)
		if err != nil {
			return nil, 0, err
		}
		payouts = append(payouts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payouts: %w", err)
	}

	return payouts, total, nil
}

func scanPayout(row rowScanner) (model.Payout, error) {
	var (
		id            uuid.UUID
		creatorID     uuid.UUID
		providerStr   string
		providerTxID  *string
		statusStr     string
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
	)

	err := row.Scan(
		&id, &creatorID, &providerStr, &providerTxID, &statusStr,
		&amountMinor, &feeMinor, &currency, &destination, &failureReason,
		&requestedAt, &paidAt, &version, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Payout{}, port.ErrNotFound
		}
		return model.Payout{}, fmt.Errorf("scan payout: %w", err)
	}

	provider, _ := valueobject.NewProvider(providerStr)
	status, _ := valueobject.NewPayoutStatus(statusStr)

	var providerRef string
	if providerTxID != nil {
		providerRef = *providerTxID
	}

	return model.ReconstructPayout(
		id, creatorID, provider, providerRef, status,
		amountMinor, feeMinor, currency, destination, failureReason,
		requestedAt, paidAt, version, createdAt, updatedAt,
	), nil
}
