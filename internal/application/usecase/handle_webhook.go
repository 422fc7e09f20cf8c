package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fanora/payment-service/internal/application/dto"
	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/service"
	"github.com/fanora/payment-service/internal/domain/valueobject"
)

// HandleWebhook ingests a raw provider callback: verify authenticity,
// normalize to the canonical event form, and reconcile against the
// ledger. Risk signals for chargebacks and refunds are recorded after a
// successful apply.
type HandleWebhook struct {
	adapters     *port.AdapterRegistry
	reconciler   *service.LedgerReconciler
	transactions port.TransactionRepository
	riskProfiles port.RiskProfileRepository
	riskEngine   *service.RiskEngine
	logger       *slog.Logger
}

func NewHandleWebhook(
	adapters *port.AdapterRegistry,
	reconciler *service.LedgerReconciler,
	transactions port.TransactionRepository,
	riskProfiles port.RiskProfileRepository,
	riskEngine *service.RiskEngine,
	logger *slog.Logger,
) *HandleWebhook {
	return &HandleWebhook{
		adapters:     adapters,
		reconciler:   reconciler,
		transactions: transactions,
		riskProfiles: riskProfiles,
		riskEngine:   riskEngine,
		logger:       logger,
	}
}

// Execute processes one webhook delivery. ErrInvalidSignature and
// unknown providers come back as errors so the transport can answer
// with a rejection; everything past verification resolves to an
// outcome and a 2xx acknowledgement.
func (uc *HandleWebhook) Execute(ctx context.Context, req dto.WebhookRequest) (dto.WebhookResponse, error) {
	provider, err := valueobject.NewProvider(req.Provider)
	if err != nil {
		return dto.WebhookResponse{}, fmt.Errorf("invalid provider: %w", err)
	}

	adapter, err := uc.adapters.Get(provider)
	if err != nil {
		return dto.WebhookResponse{}, err
	}

	if err := adapter.VerifyWebhook(req.Payload, req.Headers); err != nil {
		uc.logger.Warn("webhook verification failed",
			slog.String("provider", provider.String()),
			slog.String("error", err.Error()))
		return dto.WebhookResponse{}, err
	}

	evt, err := adapter.NormalizeEvent(req.Payload)
	if err != nil && !errors.Is(err, port.ErrUnknownEvent) {
		return dto.WebhookResponse{}, fmt.Errorf("normalizing event: %w", err)
	}
	// Unknown event names still flow to the reconciler, which records
	// them for review and acks.

	outcome, err := uc.apply(ctx, evt, 0)
	if err != nil {
		return dto.WebhookResponse{}, err
	}
	return dto.WebhookResponse{Outcome: string(outcome)}, nil
}

// Reconcile replays an orphaned event from the retry queue. attempt
// counts prior requeues.
func (uc *HandleWebhook) Reconcile(ctx context.Context, evt valueobject.CanonicalEvent, attempt int) error {
	_, err := uc.apply(ctx, evt, attempt)
	return err
}

func (uc *HandleWebhook) apply(ctx context.Context, evt valueobject.CanonicalEvent, attempt int) (service.ReconcileOutcome, error) {
	outcome, err := uc.reconciler.Apply(ctx, evt, attempt)
	if err != nil {
		return "", fmt.Errorf("reconciling event: %w", err)
	}

	if outcome == service.OutcomeApplied {
		switch evt.Type {
		case valueobject.CanonicalEventChargeback:
			uc.recordSignal(ctx, evt, service.SignalChargeback)
		case valueobject.CanonicalEventRefund:
			uc.recordSignal(ctx, evt, service.SignalRefund)
		}
	}
	return outcome, nil
}

// recordSignal bumps the paying fan's risk score. Scoring failures are
// logged, never surfaced: the ledger apply already succeeded.
func (uc *HandleWebhook) recordSignal(ctx context.Context, evt valueobject.CanonicalEvent, signal service.RiskSignal) {
	txn, err := uc.transactions.FindByProviderTxID(ctx, evt.Provider, evt.ProviderTxID)
	if err != nil {
		uc.logger.Error("loading transaction for risk signal", slog.String("error", err.Error()))
		return
	}
	uc.applySignal(ctx, txn.FanID(), signal)
}

func (uc *HandleWebhook) applySignal(ctx context.Context, fanID uuid.UUID, signal service.RiskSignal) {
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
