package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fanora/payment-service/internal/domain/model"
	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/valueobject"
	"github.com/fanora/payment-service/pkg/events"
)

type fakeTxRepo struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]model.Transaction
	byRef map[string]uuid.UUID
	saves int
}

func newFakeTxRepo() *fakeTxRepo {
	return &fakeTxRepo{
		byID:  make(map[uuid.UUID]model.Transaction),
		byRef: make(map[string]uuid.UUID),
	}
}

func (f *fakeTxRepo) Save(_ context.Context, tx model.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.byID[tx.ID()] = tx
	if tx.ProviderTxID() != "" {
		f.byRef[tx.Provider().String()+":"+tx.ProviderTxID()] = tx.ID()
	}
	return nil
}

func (f *fakeTxRepo) FindByID(_ context.Context, id uuid.UUID) (model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.byID[id]
	if !ok {
		return model.Transaction{}, port.ErrNotFound
	}
	return tx, nil
}

func (f *fakeTxRepo) FindByProviderTxID(_ context.Context, provider valueobject.Provider, providerTxID string) (model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byRef[provider.String()+":"+providerTxID]
	if !ok {
		return model.Transaction{}, port.ErrNotFound
	}
	return f.byID[id], nil
}

func (f *fakeTxRepo) ListByFan(_ context.Context, fanID uuid.UUID, _, _ int) ([]model.Transaction, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Transaction
	for _, tx := range f.byID {
		if tx.FanID() == fanID {
			out = append(out, tx)
		}
	}
	return out, len(out), nil
}

func (f *fakeTxRepo) ListByCreator(_ context.Context, creatorID uuid.UUID, _, _ int) ([]model.Transaction, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Transaction
	for _, tx := range f.byID {
		if tx.CreatorID() == creatorID {
			out = append(out, tx)
		}
	}
	return out, len(out), nil
}

type fakePayoutRepo struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]model.Payout
	byRef map[string]uuid.UUID
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{
		byID:  make(map[uuid.UUID]model.Payout),
		byRef: make(map[string]uuid.UUID),
	}
}

func (f *fakePayoutRepo) Save(_ context.Context, p model.Payout) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[p.ID()] = p
	if p.ProviderTxID() != "" {
		f.byRef[p.Provider().String()+":"+p.ProviderTxID()] = p.ID()
	}
	return nil
}

func (f *fakePayoutRepo) FindByID(_ context.Context, id uuid.UUID) (model.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return model.Payout{}, port.ErrNotFound
	}
	return p, nil
}

func (f *fakePayoutRepo) FindByProviderTxID(_ context.Context, provider valueobject.Provider, providerTxID string) (model.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byRef[provider.String()+":"+providerTxID]
	if !ok {
		return model.Payout{}, port.ErrNotFound
	}
	return f.byID[id], nil
}

func (f *fakePayoutRepo) ListByCreator(_ context.Context, creatorID uuid.UUID, _, _ int) ([]model.Payout, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Payout
	for _, p := range f.byID {
		if p.CreatorID() == creatorID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

type fakeRiskRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*model.RiskProfile
	saves    int
}

func newFakeRiskRepo() *fakeRiskRepo {
	return &fakeRiskRepo{profiles: make(map[uuid.UUID]*model.RiskProfile)}
}

func (f *fakeRiskRepo) Save(_ context.Context, profile *model.RiskProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.profiles[profile.UserID()] = profile
	return nil
}

func (f *fakeRiskRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*model.RiskProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, port.ErrNotFound
	}
	return p, nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []events.DomainEvent
}

func (f *fakePublisher) Publish(_ context.Context, _ string, evts ...events.DomainEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, evts...)
	return nil
}

type fakeBalances struct {
	balance int64
	err     error
}

func (f *fakeBalances) SettledBalance(context.Context, uuid.UUID, string) (int64, error) {
	return f.balance, f.err
}

type fakeDedupe struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newFakeDedupe() *fakeDedupe { return &fakeDedupe{keys: make(map[string]bool)} }

func (f *fakeDedupe) MarkApplied(_ context.Context, key string, _ time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeDedupe) Seen(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[key], nil
}

type fakeQuarantine struct {
	mu      sync.Mutex
	entries []port.QuarantinedEvent
}

func (f *fakeQuarantine) Add(_ context.Context, evt valueobject.CanonicalEvent, aggregateID uuid.UUID, status, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, port.QuarantinedEvent{
		ID:            uuid.New(),
		AggregateID:   aggregateID,
		Event:         evt,
		CurrentStatus: status,
		Reason:        reason,
		QuarantinedAt: time.Now().UTC(),
	})
	return nil
}

func (f *fakeQuarantine) List(context.Context, int, int) ([]port.QuarantinedEvent, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, len(f.entries), nil
}

type fakeOrphanQueue struct {
	mu       sync.Mutex
	requeued []int
}

func (f *fakeOrphanQueue) Requeue(_ context.Context, _ valueobject.CanonicalEvent, attempt int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requeued = append(f.requeued, attempt)
	return nil
}

type fakeDeadLetters struct {
	mu      sync.Mutex
	reasons []string
}

func (f *fakeDeadLetters) Add(_ context.Context, _ valueobject.CanonicalEvent, _ int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
	return nil
}

type fakeNotifier struct{}

func (fakeNotifier) NotifyPaymentSettled(context.Context, uuid.UUID, uuid.UUID, int64, string) error {
	return nil
}
func (fakeNotifier) NotifyPaymentFailed(context.Context, uuid.UUID, string) error  { return nil }
func (fakeNotifier) NotifyPayoutPaid(context.Context, uuid.UUID, int64, string) error {
	return nil
}
func (fakeNotifier) NotifyPayoutFailed(context.Context, uuid.UUID, string) error { return nil }

// fakeAdapter is a scriptable provider adapter.
type fakeAdapter struct {
	provider       valueobject.Provider
	paymentResult  port.InitiatePaymentResult
	paymentErr     error
	payoutResult   port.InitiatePayoutResult
	payoutErr      error
	verifyErr      error
	event          valueobject.CanonicalEvent
	normalizeErr   error
	paymentCalls   int
	payoutCalls    int
	lastPayoutReq  port.InitiatePayoutRequest
	lastPaymentReq port.InitiatePaymentRequest
}

func (f *fakeAdapter) Provider() valueobject.Provider { return f.provider }

func (f *fakeAdapter) InitiatePayment(_ context.Context, req port.InitiatePaymentRequest) (port.InitiatePaymentResult, error) {
	f.paymentCalls++
	f.lastPaymentReq = req
	return f.paymentResult, f.paymentErr
}

func (f *fakeAdapter) InitiatePayout(_ context.Context, req port.InitiatePayoutRequest) (port.InitiatePayoutResult, error) {
	f.payoutCalls++
	f.lastPayoutReq = req
	return f.payoutResult, f.payoutErr
}

func (f *fakeAdapter) VerifyWebhook([]byte, map[string]string) error { return f.verifyErr }

func (f *fakeAdapter) NormalizeEvent([]byte) (valueobject.CanonicalEvent, error) {
	return f.event, f.normalizeErr
}
