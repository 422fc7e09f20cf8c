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
	pkgpostgres "github.com/fanora/payment-service/pkg/postgres"
)

// Compile-time interface check.
var _ port.RiskProfileRepository = (*RiskProfileRepo)(nil)

// RiskProfileRepo implements RiskProfileRepository using PostgreSQL.
// The adjustment history is stored as a JSONB audit column.
type RiskProfileRepo struct {
	pool *pgxpool.Pool
}

func NewRiskProfileRepo(pool *pgxpool.Pool) *RiskProfileRepo {
	return &RiskProfileRepo{pool: pool}
}

type riskAdjustmentRow struct {
	Delta      int       `json:"delta"`
	ScoreAfter int       `json:"score_after"`
	Reason     string    `json:"reason"`
	Actor      string    `json:"actor"`
	At         time.Time `json:"at"`
}

func (r *RiskProfileRepo) Save(ctx context.Context, profile *model.RiskProfile) error {
	rows := make([]riskAdjustmentRow, 0, len(profile.History()))
	for _, adj := range profile.History() {
		rows = append(rows, riskAdjustmentRow(adj))
	}
	history, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal risk history: %w", err)
	}

	return pkgpostgres.WithTransaction(ctx, r.pool, func(dbTx pgx.Tx) error {
		_, err := dbTx.Exec(ctx, `
			INSERT INTO risk_profiles (user_id, score, last_adjusted_at, history, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (user_id) DO UPDATE SET
				score = EXCLUDED.score,
				last_adjusted_at = EXCLUDED.last_adjusted_at,
				history = EXCLUDED.history,
				version = EXCLUDED.version,
				updated_at = EXCLUDED.updated_at
		`,
			profile.UserID(), profile.Score(), profile.LastAdjustedAt(), history,
			profile.Version(), profile.CreatedAt(), profile.UpdatedAt(),
		)
		if err != nil {
			return fmt.Errorf("upsert risk profile: %w", err)
		}

		return insertOutbox(ctx, dbTx, profile.DomainEvents())
	})
}

func (r *RiskProfileRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*model.RiskProfile, error) {
	var (
		score          int
		lastAdjustedAt time.Time
		historyRaw     []byte
		version        int
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := r.pool.QueryRow(ctx, `
		SELECT score, last_adjusted_at, history, version, created_at, updated_at
		FROM risk_profiles WHERE user_id = $1
	`, userID).Scan(&score, &lastAdjustedAt, &historyRaw, &version, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrNotFound
		}
		return nil, fmt.Errorf("query risk profile: %w", err)
	}

	var rows []riskAdjustmentRow
	if err := json.Unmarshal(historyRaw, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal risk history: %w", err)
	}
	history := make([]model.RiskAdjustment, 0, len(rows))
	for _, row := range rows {
		history = append(history, model.RiskAdjustment(row))
	}

	return model.ReconstructRiskProfile(userID, score, lastAdjustedAt, history, version, createdAt, updatedAt), nil
}
