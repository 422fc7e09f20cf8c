package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fanora/payment-service/internal/application/dto"
	"github.com/fanora/payment-service/internal/domain/model"
	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/valueobject"
)

// ErrInsufficientBalance means the creator's settled, unpaid balance
// does not cover the requested payout.
var ErrInsufficientBalance = errors.New("insufficient settled balance")

// ProcessPayout submits a creator withdrawal through the payout
// provider. A failed submission is terminal; the creator must request
// again.
type ProcessPayout struct {
	payouts   port.PayoutRepository
	balances  port.BalanceReader
	adapters  *port.AdapterRegistry
	publisher port.EventPublisher
	logger    *slog.Logger
}

func NewProcessPayout(
	payouts port.PayoutRepository,
	balances port.BalanceReader,
	adapters *port.AdapterRegistry,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *ProcessPayout {
	return &ProcessPayout{
		payouts:   payouts,
		balances:  balances,
		adapters:  adapters,
		publisher: publisher,
		logger:    logger,
	}
}

func (uc *ProcessPayout) Execute(ctx context.Context, req dto.ProcessPayoutRequest) (dto.PayoutResponse, error) {
	balance, err := uc.balances.SettledBalance(ctx, req.CreatorID, req.Currency)
	if err != nil {
		return dto.PayoutResponse{}, fmt.Errorf("reading settled balance: %w", err)
	}
	if req.AmountMinor > balance {
		uc.logger.Warn("payout exceeds settled balance",
			slog.String("creator_id", req.CreatorID.String()),
			slog.Int64("requested_minor", req.AmountMinor),
			slog.Int64("balance_minor", balance))
		return dto.PayoutResponse{}, ErrInsufficientBalance
	}

	provider := valueobject.ProviderPaxum
	adapter, err := uc.adapters.Get(provider)
	if err != nil {
		return dto.PayoutResponse{}, err
	}

	payout, err := model.NewPayout(req.CreatorID, provider, req.AmountMinor, req.Currency, req.Destination)
	if err != nil {
		return dto.PayoutResponse{}, fmt.Errorf("creating payout: %w", err)
	}

	// Persist REQUESTED before the provider call so a crash mid-submit
	// leaves a row the webhook reconciler can find.
	if err := uc.saveAndPublish(ctx, payout); err != nil {
		return dto.PayoutResponse{}, err
	}

	result, err := adapter.InitiatePayout(ctx, port.InitiatePayoutRequest{
		PayoutID:       payout.ID(),
		CreatorID:      req.CreatorID,
		AmountMinor:    req.AmountMinor,
		Currency:       req.Currency,
		Destination:    req.Destination,
		IdempotencyKey: uuid.NewString(),
	})
	now := time.Now().UTC()
	if err != nil {
		uc.logger.Error("payout submission failed",
			slog.String("payout_id", payout.ID().String()),
			slog.String("error", err.Error()))
		failed, ferr := payout.MarkFailed(err.Error(), now)
		if ferr != nil {
			return dto.PayoutResponse{}, fmt.Errorf("marking payout failed: %w", ferr)
		}
		if serr := uc.saveAndPublish(ctx, failed); serr != nil {
			return dto.PayoutResponse{}, serr
		}
		return toPayoutResponse(failed), nil
	}

	processing, err := payout.MarkProcessing(result.ProviderTxID, result.FeeMinor, now)
	if err != nil {
		return dto.PayoutResponse{}, fmt.Errorf("marking payout processing: %w", err)
	}
	if err := uc.saveAndPublish(ctx, processing); err != nil {
		return dto.PayoutResponse{}, err
	}

	return toPayoutResponse(processing), nil
}

// GetPayout returns one payout by ID.
func (uc *ProcessPayout) GetPayout(ctx context.Context, id uuid.UUID) (dto.PayoutResponse, error) {
	payout, err := uc.payouts.FindByID(ctx, id)
	if err != nil {
		return dto.PayoutResponse{}, err
	}
	return toPayoutResponse(payout), nil
}

// ListPayouts returns a creator's payouts, newest first.
func (uc *ProcessPayout) ListPayouts(ctx context.Context, creatorID uuid.UUID, limit, offset int) ([]dto.PayoutResponse, int, error) {
	payouts, total, err := uc.payouts.ListByCreator(ctx, creatorID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing payouts: %w", err)
	}
	out := make([]dto.PayoutResponse, 0, len(payouts))
	for _, p := range payouts {
		out = append(out, toPayoutResponse(p))
	}
	return out, total, nil
}

func (uc *ProcessPayout) saveAndPublish(ctx context.Context, payout model.Payout) error {
	evts, payout := payout.ClearDomainEvents()
	if err := uc.payouts.Save(ctx, payout); err != nil {
		return fmt.Errorf("saving payout: %w", err)
	}
	if len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, TopicPaymentEvents, evts...); err != nil {
			uc.logger.Error("publishing events failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

func toPayoutResponse(p model.Payout) dto.PayoutResponse {
	return dto.PayoutResponse{
		ID:            p.ID(),
		CreatorID:     p.CreatorID(),
		Provider:      p.Provider().String(),
		ProviderTxID:  p.ProviderTxID(),
		Status:        p.Status().String(),
		AmountMinor:   p.AmountMinor(),
		FeeMinor:      p.FeeMinor(),
		Currency:      p.Currency(),
		Destination:   p.Destination(),
		FailureReason: p.FailureReason(),
		RequestedAt:   p.RequestedAt(),
		PaidAt:        p.PaidAt(),
	}
}
