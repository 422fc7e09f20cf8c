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
	"github.com/fanora/payment-service/internal/domain/service"
	"github.com/fanora/payment-service/internal/domain/valueobject"
)

// TopicPaymentEvents carries all payment domain events.
const TopicPaymentEvents = "payment.events"

// ErrRiskBlocked means the fan's risk score exceeds the blocking
// threshold and no charge was attempted.
var ErrRiskBlocked = errors.New("payment blocked by risk policy")

// ProcessPayment charges a fan: route to a provider, create the
// transaction, and submit the charge.
type ProcessPayment struct {
	transactions port.TransactionRepository
	riskProfiles port.RiskProfileRepository
	adapters     *port.AdapterRegistry
	selector     *service.GatewaySelector
	riskEngine   *service.RiskEngine
	publisher    port.EventPublisher
	logger       *slog.Logger
}

func NewProcessPayment(
	transactions port.TransactionRepository,
	riskProfiles port.RiskProfileRepository,
	adapters *port.AdapterRegistry,
	selector *service.GatewaySelector,
	riskEngine *service.RiskEngine,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *ProcessPayment {
	return &ProcessPayment{
		transactions: transactions,
		riskProfiles: riskProfiles,
		adapters:     adapters,
		selector:     selector,
		riskEngine:   riskEngine,
		publisher:    publisher,
		logger:       logger,
	}
}

func (uc *ProcessPayment) Execute(ctx context.Context, req dto.ProcessPaymentRequest) (dto.ProcessPaymentResponse, error) {
	paymentType, err := valueobject.NewPaymentType(req.PaymentType)
	if err != nil {
		return dto.ProcessPaymentResponse{}, fmt.Errorf("invalid payment type: %w", err)
	}

	// Risk gate runs before anything touches a processor.
	profile, err := loadOrCreateRiskProfile(ctx, uc.riskProfiles, req.FanID)
	if err != nil {
		return dto.ProcessPaymentResponse{}, err
	}
	if profile.IsBlocked(time.Now().UTC()) {
		uc.logger.Warn("payment blocked by risk score",
			slog.String("fan_id", req.FanID.String()),
			slog.Int("score", profile.EffectiveScore(time.Now().UTC())))
		return dto.ProcessPaymentResponse{}, ErrRiskBlocked
	}

	provider, err := uc.selector.Select(req.Region, req.Currency, paymentType)
	if err != nil {
		return dto.ProcessPaymentResponse{}, fmt.Errorf("selecting provider: %w", err)
	}

	adapter, err := uc.adapters.Get(provider)
	if err != nil {
		return dto.ProcessPaymentResponse{}, err
	}

	txn, err := model.NewTransaction(req.FanID, req.CreatorID, provider, paymentType, req.AmountMinor, req.Currency, req.Region)
	if err != nil {
		return dto.ProcessPaymentResponse{}, fmt.Errorf("creating transaction: %w", err)
	}

	// Persist INITIATED before the provider call so a crash mid-charge
	// leaves a row the webhook reconciler can find.
	if err := uc.saveAndPublish(ctx, txn); err != nil {
		return dto.ProcessPaymentResponse{}, err
	}

	result, err := adapter.InitiatePayment(ctx, port.InitiatePaymentRequest{
		TransactionID:  txn.ID(),
		FanID:          req.FanID,
		AmountMinor:    req.AmountMinor,
		Currency:       req.Currency,
		PaymentType:    paymentType,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		// The transaction stays INITIATED; the provider may still
		// deliver a webhook that resolves it. The failure still counts
		// against the fan's risk score, heavier than a decline.
		uc.logger.Error("provider call failed",
			slog.String("transaction_id", txn.ID().String()),
			slog.String("provider", provider.String()),
			slog.String("error", err.Error()))
		uc.recordRiskSignal(ctx, req.FanID, service.SignalProviderError)
		return dto.ProcessPaymentResponse{}, fmt.Errorf("initiating payment with %s: %w", provider.String(), err)
	}

	now := time.Now().UTC()
	if !result.Approved {
		failed, ferr := txn.Fail(result.DeclineReason, now)
		if ferr != nil {
			return dto.ProcessPaymentResponse{}, fmt.Errorf("marking transaction failed: %w", ferr)
		}
		if err := uc.saveAndPublish(ctx, failed); err != nil {
			return dto.ProcessPaymentResponse{}, err
		}
		uc.recordRiskSignal(ctx, req.FanID, service.SignalFailedPayment)
		return toProcessPaymentResponse(failed), nil
	}

	authorized, err := txn.Authorize(result.ProviderTxID, now)
	if err != nil {
		return dto.ProcessPaymentResponse{}, fmt.Errorf("authorizing transaction: %w", err)
	}
	if err := uc.saveAndPublish(ctx, authorized); err != nil {
		return dto.ProcessPaymentResponse{}, err
	}

	return toProcessPaymentResponse(authorized), nil
}

// loadOrCreateRiskProfile returns the user's risk profile, creating a
// clean one when none exists yet.
func loadOrCreateRiskProfile(ctx context.Context, repo port.RiskProfileRepository, userID uuid.UUID) (*model.RiskProfile, error) {
	profile, err := repo.FindByUserID(ctx, userID)
	if errors.Is(err, port.ErrNotFound) {
		return model.NewRiskProfile(userID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading risk profile: %w", err)
	}
	return profile, nil
}

func (uc *ProcessPayment) saveAndPublish(ctx context.Context, txn model.Transaction) error {
	evts, txn := txn.ClearDomainEvents()
	if err := uc.transactions.Save(ctx, txn); err != nil {
		return fmt.Errorf("saving transaction: %w", err)
	}
	if len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, TopicPaymentEvents, evts...); err != nil {
			uc.logger.Error("publishing events failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

// recordRiskSignal nudges the fan's risk score after a decline or a
// provider failure. Scoring errors must not change the payment outcome.
func (uc *ProcessPayment) recordRiskSignal(ctx context.Context, fanID uuid.UUID, signal service.RiskSignal) {
	profile, err := loadOrCreateRiskProfile(ctx, uc.riskProfiles, fanID)
	if err != nil {
		uc.logger.Error("loading risk profile for signal", slog.String("error", err.Error()))
		return
	}
	if err := uc.riskEngine.ApplySignal(profile, signal, time.Now().UTC()); err != nil {
		uc.logger.Error("applying risk signal", slog.String("error", err.Error()))
		return
	}
	if err := uc.riskProfiles.Save(ctx, profile); err != nil {
		uc.logger.Error("saving risk profile", slog.String("error", err.Error()))
	}
}

func toProcessPaymentResponse(txn model.Transaction) dto.ProcessPaymentResponse {
	return dto.ProcessPaymentResponse{
		ID:           txn.ID(),
		Provider:     txn.Provider().String(),
		ProviderTxID: txn.ProviderTxID(),
		Status:       txn.Status().String(),
		InitiatedAt:  txn.InitiatedAt(),
	}
}
