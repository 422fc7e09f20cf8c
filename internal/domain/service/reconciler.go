package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/fanora/payment-service/internal/domain/model"
	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/valueobject"
)

// ReconcileOutcome describes what the reconciler did with one event.
type ReconcileOutcome string

const (
	OutcomeApplied      ReconcileOutcome = "APPLIED"
	OutcomeDuplicate    ReconcileOutcome = "DUPLICATE"
	OutcomeRequeued     ReconcileOutcome = "REQUEUED"
	OutcomeDeadLettered ReconcileOutcome = "DEAD_LETTERED"
	OutcomeQuarantined  ReconcileOutcome = "QUARANTINED"
	OutcomeIgnored      ReconcileOutcome = "IGNORED"
)

// MaxOrphanAttempts bounds how many times an event that precedes its
// transaction row may be requeued before dead-lettering.
const MaxOrphanAttempts = 5

const lockStripes = 64

// keyedLock serializes reconciliation per provider transaction so
// concurrent deliveries for the same payment cannot interleave.
type keyedLock struct {
	stripes [lockStripes]sync.Mutex
}

func (l *keyedLock) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	mu := &l.stripes[h.Sum32()%lockStripes]
	mu.Lock()
	return mu
}

// LedgerReconciler applies normalized webhook events to transactions
// and payouts. It enforces the status DAG, at-most-once application per
// dedupe key, bounded orphan retries, and quarantine for illegal
// transitions.
type LedgerReconciler struct {
	transactions port.TransactionRepository
	payouts      port.PayoutRepository
	dedupe       port.DedupeIndex
	quarantine   port.QuarantineStore
	orphans      port.OrphanQueue
	deadLetters  port.DeadLetterStore
	publisher    port.EventPublisher
	notifier     port.Notifier
	topic        string
	locks        keyedLock
	logger       *slog.Logger
}

func NewLedgerReconciler(
	transactions port.TransactionRepository,
	payouts port.PayoutRepository,
	dedupe port.DedupeIndex,
	quarantine port.QuarantineStore,
	orphans port.OrphanQueue,
	deadLetters port.DeadLetterStore,
	publisher port.EventPublisher,
	notifier port.Notifier,
	topic string,
	logger *slog.Logger,
) *LedgerReconciler {
	return &LedgerReconciler{
		transactions: transactions,
		payouts:      payouts,
		dedupe:       dedupe,
		quarantine:   quarantine,
		orphans:      orphans,
		deadLetters:  deadLetters,
		publisher:    publisher,
		notifier:     notifier,
		topic:        topic,
		logger:       logger,
	}
}

// Apply reconciles one canonical event against the ledger. attempt is
// zero for first delivery and counts orphan requeues. Quarantines and
// duplicates are reported in the outcome, not as errors: the caller
// should ack the event in every case except a returned error.
func (r *LedgerReconciler) Apply(ctx context.Context, evt valueobject.CanonicalEvent, attempt int) (ReconcileOutcome, error) {
	mu := r.locks.lock(evt.Provider.String() + ":" + evt.ProviderTxID)
	defer mu.Unlock()

	log := r.logger.With(
		slog.String("provider", evt.Provider.String()),
		slog.String("provider_tx_id", evt.ProviderTxID),
		slog.String("event_type", evt.Type.String()),
	)

	if evt.Type == valueobject.CanonicalEventUnknown {
		log.Warn("unrecognized provider event, dead-lettering for review",
			slog.String("raw_event", evt.RawEventName))
		if err := r.deadLetters.Add(ctx, evt, attempt, "unrecognized event name"); err != nil {
			return "", fmt.Errorf("dead-lettering unknown event: %w", err)
		}
		return OutcomeIgnored, nil
	}

	seen, err := r.dedupe.Seen(ctx, evt.DedupeKey())
	if err != nil {
		return "", fmt.Errorf("checking dedupe index: %w", err)
	}
	if seen {
		log.Info("duplicate delivery, already applied")
		return OutcomeDuplicate, nil
	}

	if evt.Type == valueobject.CanonicalEventPayoutPaid || evt.Type == valueobject.CanonicalEventPayoutFailed {
		return r.applyPayout(ctx, log, evt, attempt)
	}

	tx, err := r.transactions.FindByProviderTxID(ctx, evt.Provider, evt.ProviderTxID)
	if errors.Is(err, port.ErrNotFound) {
		return r.handleOrphan(ctx, log, evt, attempt)
	}
	if err != nil {
		return "", fmt.Errorf("loading transaction: %w", err)
	}

	target, ok := evt.Type.TargetStatus()
	if !ok {
		return "", fmt.Errorf("no target status for event type %s", evt.Type.String())
	}

	if !tx.Status().CanTransitionTo(target) {
		log.Warn("illegal transition, quarantining event",
			slog.String("current_status", tx.Status().String()),
			slog.String("target_status", target.String()))
		reason := fmt.Sprintf("illegal transition %s -> %s", tx.Status().String(), target.String())
		if err := r.quarantine.Add(ctx, evt, tx.ID(), tx.Status().String(), reason); err != nil {
			return "", fmt.Errorf("quarantining event: %w", err)
		}
		return OutcomeQuarantined, nil
	}

	updated, err := r.transition(tx, evt, target)
	if err != nil {
		return "", fmt.Errorf("applying transition: %w", err)
	}

	applied, err := r.dedupe.MarkApplied(ctx, evt.DedupeKey(), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("marking dedupe key: %w", err)
	}
	if !applied {
		log.Info("lost dedupe race, treating as duplicate")
		return OutcomeDuplicate, nil
	}

	evts, updated := updated.ClearDomainEvents()
	if err := r.transactions.Save(ctx, updated); err != nil {
		return "", fmt.Errorf("saving transaction: %w", err)
	}

	if err := r.publisher.Publish(ctx, r.topic, evts...); err != nil {
		log.Error("publishing domain events failed", slog.String("error", err.Error()))
	}
	r.notify(ctx, log, updated)

	log.Info("event applied",
		slog.String("transaction_id", updated.ID().String()),
		slog.String("new_status", updated.Status().String()))
	return OutcomeApplied, nil
}

func (r *LedgerReconciler) applyPayout(ctx context.Context, log *slog.Logger, evt valueobject.CanonicalEvent, attempt int) (ReconcileOutcome, error) {
	payout, err := r.payouts.FindByProviderTxID(ctx, evt.Provider, evt.ProviderTxID)
	if errors.Is(err, port.ErrNotFound) {
		return r.handleOrphan(ctx, log, evt, attempt)
	}
	if err != nil {
		return "", fmt.Errorf("loading payout: %w", err)
	}

	now := time.Now().UTC()
	var updated model.Payout
	var terr error
	switch evt.Type {
	case valueobject.CanonicalEventPayoutPaid:
		updated, terr = payout.MarkPaid(now)
	case valueobject.CanonicalEventPayoutFailed:
		updated, terr = payout.MarkFailed(evt.RawEventName, now)
	}
	if terr != nil {
		log.Warn("illegal payout transition, quarantining event",
			slog.String("current_status", payout.Status().String()))
		if err := r.quarantine.Add(ctx, evt, payout.ID(), payout.Status().String(), terr.Error()); err != nil {
			return "", fmt.Errorf("quarantining payout event: %w", err)
		}
		return OutcomeQuarantined, nil
	}

	applied, err := r.dedupe.MarkApplied(ctx, evt.DedupeKey(), now)
	if err != nil {
		return "", fmt.Errorf("marking dedupe key: %w", err)
	}
	if !applied {
		log.Info("lost dedupe race, treating as duplicate")
		return OutcomeDuplicate, nil
	}

	evts, updated := updated.ClearDomainEvents()
	if err := r.payouts.Save(ctx, updated); err != nil {
		return "", fmt.Errorf("saving payout: %w", err)
	}

	if err := r.publisher.Publish(ctx, r.topic, evts...); err != nil {
		log.Error("publishing domain events failed", slog.String("error", err.Error()))
	}

	var nerr error
	switch updated.Status() {
	case valueobject.PayoutStatusPaid:
		nerr = r.notifier.NotifyPayoutPaid(ctx, updated.CreatorID(), updated.AmountMinor(), updated.Currency())
	case valueobject.PayoutStatusFailed:
		nerr = r.notifier.NotifyPayoutFailed(ctx, updated.CreatorID(), updated.FailureReason())
	}
	if nerr != nil {
		log.Error("payout notification failed", slog.String("error", nerr.Error()))
	}

	log.Info("payout event applied",
		slog.String("payout_id", updated.ID().String()),
		slog.String("new_status", updated.Status().String()))
	return OutcomeApplied, nil
}

func (r *LedgerReconciler) handleOrphan(ctx context.Context, log *slog.Logger, evt valueobject.CanonicalEvent, attempt int) (ReconcileOutcome, error) {
	if attempt+1 >= MaxOrphanAttempts {
		log.Error("orphan event exhausted retries, dead-lettering", slog.Int("attempts", attempt+1))
		if err := r.deadLetters.Add(ctx, evt, attempt+1, "no matching transaction after retries"); err != nil {
			return "", fmt.Errorf("dead-lettering orphan: %w", err)
		}
		return OutcomeDeadLettered, nil
	}

	log.Info("no matching transaction yet, requeueing", slog.Int("attempt", attempt+1))
	if err := r.orphans.Requeue(ctx, evt, attempt+1); err != nil {
		return "", fmt.Errorf("requeueing orphan: %w", err)
	}
	return OutcomeRequeued, nil
}

func (r *LedgerReconciler) transition(tx model.Transaction, evt valueobject.CanonicalEvent, target valueobject.TransactionStatus) (model.Transaction, error) {
	now := time.Now().UTC()
	switch target {
	case valueobject.TransactionStatusSettled:
		return tx.Settle(now)
	case valueobject.TransactionStatusFailed:
		return tx.Fail(evt.RawEventName, now)
	case valueobject.TransactionStatusCancelled:
		return tx.Cancel(evt.RawEventName, now)
	case valueobject.TransactionStatusRefunded:
		return tx.Refund(now)
	case valueobject.TransactionStatusChargedBack:
		return tx.ChargeBack(now)
	}
	return model.Transaction{}, fmt.Errorf("no transition for target status %s", target.String())
}

func (r *LedgerReconciler) notify(ctx context.Context, log *slog.Logger, tx model.Transaction) {
	var err error
	switch tx.Status() {
	case valueobject.TransactionStatusSettled:
		err = r.notifier.NotifyPaymentSettled(ctx, tx.FanID(), tx.CreatorID(), tx.AmountMinor(), tx.Currency())
	case valueobject.TransactionStatusFailed:
		err = r.notifier.NotifyPaymentFailed(ctx, tx.FanID(), tx.FailureReason())
	}
	if err != nil {
		log.Error("notification failed", slog.String("error", err.Error()))
	}
}
