package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fanora/payment-service/internal/domain/port"
)

// Compile-time interface check.
var _ port.BalanceReader = (*BalanceReader)(nil)

// BalanceReader computes a creator's withdrawable balance from the
// ledger. Only transactions still in SETTLED count as credits; refunds
// and chargebacks move the row out of SETTLED and therefore debit the
// balance implicitly. Payouts in any non-failed state are reserved.
type BalanceReader struct {
	pool *pgxpool.Pool
}

func NewBalanceReader(pool *pgxpool.Pool) *BalanceReader {
	return &BalanceReader{pool: pool}
}

func (r *BalanceReader) SettledBalance(ctx context.Context, creatorID uuid.UUID, currency string) (int64, error) {
	var settled, reserved int64

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(net_minor), 0)
		FROM transactions
		WHERE creator_id = $1 AND currency = $2 AND status = 'SETTLED'
	`, creatorID, currency).Scan(&settled)
	if err != nil {
		return 0, fmt.Errorf("sum settled transactions: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount_minor), 0)
		FROM payouts
		WHERE creator_id = $1 AND currency = $2 AND status IN ('REQUESTED', 'PROCESSING', 'PAID')
	`, creatorID, currency).Scan(&reserved)
	if err != nil {
		return 0, fmt.Errorf("sum reserved payouts: %w", err)
	}

	return settled - reserved, nil
}
