package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanora/payment-service/internal/domain/model"
	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/valueobject"
	"github.com/fanora/payment-service/pkg/events"
)

// In-memory fakes for the reconciler's ports.

type fakeTxRepo struct {
	byProviderRef map[string]model.Transaction
	saved         []model.Transaction
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{byProviderRef: make(map[string]model.Transaction)}
}

func (r *fakeTxRepo) put(tx model.Transaction) {
	r.byProviderRef[tx.Provider().String()+":"+tx.ProviderTxID()] = tx
}

func (r *fakeTxRepo) Save(_ context.Context, tx model.Transaction) error {
	r.saved = append(r.saved, tx)
	r.put(tx)
	return nil
}

func (r *fakeTxRepo) FindByID(_ context.Context, id uuid.UUID) (model.Transaction, error) {
	for _, tx := range r.byProviderRef {
		if tx.ID() == id {
			return tx, nil
		}
	}
	return model.Transaction{}, port.ErrNotFound
}

func (r *fakeTxRepo) FindByProviderTxID(_ context.Context, provider valueobject.Provider, providerTxID string) (model.Transaction, error) {
	tx, ok := r.byProviderRef[provider.String()+":"+providerTxID]
	if !ok {
		return model.Transaction{}, port.ErrNotFound
	}
	return tx, nil
}

func (r *fakeTxRepo) ListByFan(_ context.Context, _ uuid.UUID, _, _ int) ([]model.Transaction, int, error) {
	return nil, 0, nil
}

func (r *fakeTxRepo) ListByCreator(_ context.Context, _ uuid.UUID, _, _ int) ([]model.Transaction, int, error) {
	return nil, 0, nil
}

type fakePayoutRepo struct {
	byProviderRef map[string]model.Payout
	saved         []model.Payout
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{byProviderRef: make(map[string]model.Payout)}
}

func (r *fakePayoutRepo) put(p model.Payout) {
	r.byProviderRef[p.Provider().String()+":"+p.ProviderTxID()] = p
}

func (r *fakePayoutRepo) Save(_ context.Context, p model.Payout) error {
	r.saved = append(r.saved, p)
	r.put(p)
	return nil
}

func (r *fakePayoutRepo) FindByID(_ context.Context, id uuid.UUID) (model.Payout, error) {
	for _, p := range r.byProviderRef {
		if p.ID() == id {
			return p, nil
		}
	}
	return model.Payout{}, port.ErrNotFound
}

func (r *fakePayoutRepo) FindByProviderTxID(_ context.Context, provider valueobject.Provider, providerTxID string) (model.Payout, error) {
	p, ok := r.byProviderRef[provider.String()+":"+providerTxID]
	if !ok {
		return model.Payout{}, port.ErrNotFound
	}
	return p, nil
}

func (r *fakePayoutRepo) ListByCreator(_ context.Context, _ uuid.UUID, _, _ int) ([]model.Payout, int, error) {
	return nil, 0, nil
}

type fakeDedupe struct {
	applied map[string]bool
}

func (d *fakeDedupe) MarkApplied(_ context.Context, key string, _ time.Time) (bool, error) {
	if d.applied[key] {
		return false, nil
	}
	d.applied[key] = true
	return true, nil
}

func (d *fakeDedupe) Seen(_ context.Context, key string) (bool, error) {
	return d.applied[key], nil
}

type fakeQuarantine struct {
	entries []port.QuarantinedEvent
}

func (q *fakeQuarantine) Add(_ context.Context, evt valueobject.CanonicalEvent, aggregateID uuid.UUID, status, reason string) error {
	q.entries = append(q.entries, port.QuarantinedEvent{
		AggregateID: aggregateID, Event: evt, CurrentStatus: status, Reason: reason,
	})
	return nil
}

func (q *fakeQuarantine) List(_ context.Context, _, _ int) ([]port.QuarantinedEvent, int, error) {
	return q.entries, len(q.entries), nil
}

type fakeOrphanQueue struct {
	requeued []int
}

func (o *fakeOrphanQueue) Requeue(_ context.Context, _ valueobject.CanonicalEvent, attempt int) error {
	o.requeued = append(o.requeued, attempt)
	return nil
}

type fakeDeadLetters struct {
	reasons []string
}

func (d *fakeDeadLetters) Add(_ context.Context, _ valueobject.CanonicalEvent, _ int, reason string) error {
	d.reasons = append(d.reasons, reason)
	return nil
}

type fakePublisher struct {
	published []events.DomainEvent
}

func (p *fakePublisher) Publish(_ context.Context, _ string, evts ...events.DomainEvent) error {
	p.published = append(p.published, evts...)
	return nil
}

type fakeNotifier struct {
	settled int
	failed  int
}

func (n *fakeNotifier) NotifyPaymentSettled(_ context.Context, _, _ uuid.UUID, _ int64, _ string) error {
	n.settled++
	return nil
}

func (n *fakeNotifier) NotifyPaymentFailed(_ context.Context, _ uuid.UUID, _ string) error {
	n.failed++
	return nil
}

func (n *fakeNotifier) NotifyPayoutPaid(_ context.Context, _ uuid.UUID, _ int64, _ string) error {
	return nil
}

func (n *fakeNotifier) NotifyPayoutFailed(_ context.Context, _ uuid.UUID, _ string) error {
	return nil
}

type reconcilerFixture struct {
	reconciler  *LedgerReconciler
	txRepo      *fakeTxRepo
	payoutRepo  *fakePayoutRepo
	dedupe      *fakeDedupe
	quarantine  *fakeQuarantine
	orphans     *fakeOrphanQueue
	deadLetters *fakeDeadLetters
	publisher   *fakePublisher
	notifier    *fakeNotifier
}

func newReconcilerFixture() *reconcilerFixture {
	f := &reconcilerFixture{
		txRepo:      newFakeTxRepo(),
		payoutRepo:  newFakePayoutRepo(),
		dedupe:      &fakeDedupe{applied: make(map[string]bool)},
		quarantine:  &fakeQuarantine{},
		orphans:     &fakeOrphanQueue{},
		deadLetters: &fakeDeadLetters{},
		publisher:   &fakePublisher{},
		notifier:    &fakeNotifier{},
	}
	f.reconciler = NewLedgerReconciler(
		f.txRepo, f.payoutRepo, f.dedupe, f.quarantine, f.orphans, f.deadLetters,
		f.publisher, f.notifier, "payment.events", slog.Default(),
	)
	return f
}

func authorizedTransaction(t *testing.T, providerTxID string) model.Transaction {
	t.Helper()
	tx, err := model.NewTransaction(
		uuid.New(), uuid.New(),
		valueobject.ProviderCCBill, valueobject.PaymentTypePPV,
		999, "USD", "US",
	)
	require.NoError(t, err)
	tx, err = tx.Authorize(providerTxID, time.Now().UTC())
	require.NoError(t, err)
	_, tx = tx.ClearDomainEvents()
	return tx
}

func saleEvent(providerTxID string) valueobject.CanonicalEvent {
	return valueobject.CanonicalEvent{
		Provider:     valueobject.ProviderCCBill,
		Type:         valueobject.CanonicalEventSale,
		ProviderTxID: providerTxID,
		AmountMinor:  999,
		Currency:     "USD",
		OccurredAt:   time.Now().UTC(),
		RawEventName: "NewSaleSuccess",
	}
}

func TestReconcilerAppliesSale(t *testing.T) {
	f := newReconcilerFixture()
	f.txRepo.put(authorizedTransaction(t, "ccb_1"))

	outcome, err := f.reconciler.Apply(context.Background(), saleEvent("ccb_1"), 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)

	require.Len(t, f.txRepo.saved, 1)
	assert.Equal(t, valueobject.TransactionStatusSettled, f.txRepo.saved[0].Status())
	assert.NotEmpty(t, f.publisher.published)
	assert.Equal(t, 1, f.notifier.settled)
}

func TestReconcilerDuplicateDelivery(t *testing.T) {
	f := newReconcilerFixture()
	f.txRepo.put(authorizedTransaction(t, "ccb_1"))
	evt := saleEvent("ccb_1")

	outcome, err := f.reconciler.Apply(context.Background(), evt, 0)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome)

	// Redelivery of the same (provider, tx, type) is a no-op.
	outcome, err = f.reconciler.Apply(context.Background(), evt, 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Len(t, f.txRepo.saved, 1)
}

func TestReconcilerDistinctEventTypesBothApply(t *testing.T) {
	f := newReconcilerFixture()
	f.txRepo.put(authorizedTransaction(t, "ccb_1"))

	outcome, err := f.reconciler.Apply(context.Background(), saleEvent("ccb_1"), 0)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome)

	refund := saleEvent("ccb_1")
	refund.Type = valueobject.CanonicalEventRefund
	refund.RawEventName = "Refund"

	outcome, err = f.reconciler.Apply(context.Background(), refund, 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, valueobject.TransactionStatusRefunded, f.txRepo.saved[1].Status())
}

func TestReconcilerQuarantinesIllegalTransition(t *testing.T) {
	f := newReconcilerFixture()
	f.txRepo.put(authorizedTransaction(t, "ccb_1"))

	// Refund before settlement is illegal from AUTHORIZED.
	refund := saleEvent("ccb_1")
	refund.Type = valueobject.CanonicalEventRefund

	outcome, err := f.reconciler.Apply(context.Background(), refund, 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeQuarantined, outcome)

	require.Len(t, f.quarantine.entries, 1)
	assert.Equal(t, "AUTHORIZED", f.quarantine.entries[0].CurrentStatus)
	assert.Empty(t, f.txRepo.saved)

	// A quarantined event is not marked applied; a later legal replay
	// would still be possible after manual review.
	seen, err := f.dedupe.Seen(context.Background(), refund.DedupeKey())
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestReconcilerOrphanRequeue(t *testing.T) {
	f := newReconcilerFixture()

	outcome, err := f.reconciler.Apply(context.Background(), saleEvent("ccb_missing"), 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRequeued, outcome)
	assert.Equal(t, []int{1}, f.orphans.requeued)
	assert.Empty(t, f.deadLetters.reasons)
}

func TestReconcilerOrphanDeadLettersAfterBudget(t *testing.T) {
	f := newReconcilerFixture()

	outcome, err := f.reconciler.Apply(context.Background(), saleEvent("ccb_missing"), MaxOrphanAttempts-1)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeadLettered, outcome)
	require.Len(t, f.deadLetters.reasons, 1)
	assert.Empty(t, f.orphans.requeued)
}

func TestReconcilerUnknownEventIgnored(t *testing.T) {
	f := newReconcilerFixture()
	f.txRepo.put(authorizedTransaction(t, "ccb_1"))

	evt := saleEvent("ccb_1")
	evt.Type = valueobject.CanonicalEventUnknown
	evt.RawEventName = "SomeNewWebhook"

	outcome, err := f.reconciler.Apply(context.Background(), evt, 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	require.Len(t, f.deadLetters.reasons, 1)
	assert.Empty(t, f.txRepo.saved)
}

func processingPayout(t *testing.T, providerTxID string) model.Payout {
	t.Helper()
	p, err := model.NewPayout(uuid.New(), valueobject.ProviderPaxum, 50000, "USD", "creator@example.com")
	require.NoError(t, err)
	p, err = p.MarkProcessing(providerTxID, 1250, time.Now().UTC())
	require.NoError(t, err)
	_, p = p.ClearDomainEvents()
	return p
}

func TestReconcilerAppliesPayoutPaid(t *testing.T) {
	f := newReconcilerFixture()
	f.payoutRepo.put(processingPayout(t, "pax_1"))

	evt := valueobject.CanonicalEvent{
		Provider:     valueobject.ProviderPaxum,
		Type:         valueobject.CanonicalEventPayoutPaid,
		ProviderTxID: "pax_1",
		AmountMinor:  50000,
		Currency:     "USD",
		RawEventName: "payout.completed",
	}

	outcome, err := f.reconciler.Apply(context.Background(), evt, 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	require.Len(t, f.payoutRepo.saved, 1)
	assert.Equal(t, valueobject.PayoutStatusPaid, f.payoutRepo.saved[0].Status())

	// Redelivery is a duplicate.
	outcome, err = f.reconciler.Apply(context.Background(), evt, 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
}

func TestReconcilerPayoutFailedBeforeProcessingQuarantines(t *testing.T) {
	f := newReconcilerFixture()
	f.payoutRepo.put(processingPayout(t, "pax_1"))

	// payout.paid on an already paid payout collides.
	evt := valueobject.CanonicalEvent{
		Provider:     valueobject.ProviderPaxum,
		Type:         valueobject.CanonicalEventPayoutPaid,
		ProviderTxID: "pax_1",
		RawEventName: "payout.completed",
	}
	_, err := f.reconciler.Apply(context.Background(), evt, 0)
	require.NoError(t, err)

	late := evt
	late.Type = valueobject.CanonicalEventPayoutFailed
	late.RawEventName = "payout.failed"

	outcome, err := f.reconciler.Apply(context.Background(), late, 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeQuarantined, outcome)
	require.Len(t, f.quarantine.entries, 1)
	assert.Equal(t, "PAID", f.quarantine.entries[0].CurrentStatus)
}

func TestReconcilerPayoutOrphanRequeues(t *testing.T) {
	f := newReconcilerFixture()

	evt := valueobject.CanonicalEvent{
		Provider:     valueobject.ProviderPaxum,
		Type:         valueobject.CanonicalEventPayoutPaid,
		ProviderTxID: "pax_missing",
		RawEventName: "payout.completed",
	}
	outcome, err := f.reconciler.Apply(context.Background(), evt, 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeRequeued, outcome)
}

func TestReconcilerChargebackAfterSettlement(t *testing.T) {
	f := newReconcilerFixture()
	f.txRepo.put(authorizedTransaction(t, "ccb_1"))

	outcome, err := f.reconciler.Apply(context.Background(), saleEvent("ccb_1"), 0)
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome)

	cb := saleEvent("ccb_1")
	cb.Type = valueobject.CanonicalEventChargeback
	cb.RawEventName = "Chargeback"

	outcome, err = f.reconciler.Apply(context.Background(), cb, 0)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, valueobject.TransactionStatusChargedBack, f.txRepo.saved[1].Status())
	assert.True(t, f.txRepo.saved[1].Status().IsTerminal())
}
