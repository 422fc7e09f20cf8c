package grpc

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fanora/payment-service/internal/application/usecase"
	"github.com/fanora/payment-service/internal/domain/model"
	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/service"
	"github.com/fanora/payment-service/internal/domain/valueobject"
	"github.com/fanora/payment-service/pkg/auth"
	"github.com/fanora/payment-service/pkg/events"
)

// --- Mock implementations ---

type mockTxRepo struct {
	saved  []model.Transaction
	findFn func(id uuid.UUID) (model.Transaction, error)
}

func (m *mockTxRepo) Save(_ context.Context, tx model.Transaction) error {
	m.saved = append(m.saved, tx)
	return nil
}

func (m *mockTxRepo) FindByID(_ context.Context, id uuid.UUID) (model.Transaction, error) {
	if m.findFn != nil {
		return m.findFn(id)
	}
	return model.Transaction{}, port.ErrNotFound
}

func (m *mockTxRepo) FindByProviderTxID(_ context.Context, _ valueobject.Provider, _ string) (model.Transaction, error) {
	return model.Transaction{}, port.ErrNotFound
}

func (m *mockTxRepo) ListByFan(_ context.Context, _ uuid.UUID, _, _ int) ([]model.Transaction, int, error) {
	return nil, 0, nil
}

func (m *mockTxRepo) ListByCreator(_ context.Context, _ uuid.UUID, _, _ int) ([]model.Transaction, int, error) {
	return nil, 0, nil
}

type mockPayoutRepo struct{}

func (m *mockPayoutRepo) Save(_ context.Context, _ model.Payout) error { return nil }
func (m *mockPayoutRepo) FindByID(_ context.Context, _ uuid.UUID) (model.Payout, error) {
	return model.Payout{}, port.ErrNotFound
}
func (m *mockPayoutRepo) FindByProviderTxID(_ context.Context, _ valueobject.Provider, _ string) (model.Payout, error) {
	return model.Payout{}, port.ErrNotFound
}
func (m *mockPayoutRepo) ListByCreator(_ context.Context, _ uuid.UUID, _, _ int) ([]model.Payout, int, error) {
	return nil, 0, nil
}

type mockRiskRepo struct {
	profiles map[uuid.UUID]*model.RiskProfile
}

func (m *mockRiskRepo) Save(_ context.Context, p *model.RiskProfile) error {
	if m.profiles == nil {
		m.profiles = make(map[uuid.UUID]*model.RiskProfile)
	}
	m.profiles[p.UserID()] = p
	return nil
}

func (m *mockRiskRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*model.RiskProfile, error) {
	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	return nil, port.ErrNotFound
}

type mockPublisher struct{}

func (m *mockPublisher) Publish(_ context.Context, _ string, _ ...events.DomainEvent) error {
	return nil
}

type mockBalances struct {
	balance int64
}

func (m *mockBalances) SettledBalance(_ context.Context, _ uuid.UUID, _ string) (int64, error) {
	return m.balance, nil
}

type mockAdapter struct {
	provider valueobject.Provider
	result   port.InitiatePaymentResult
}

func (m *mockAdapter) Provider() valueobject.Provider { return m.provider }

func (m *mockAdapter) InitiatePayment(_ context.Context, _ port.InitiatePaymentRequest) (port.InitiatePaymentResult, error) {
	return m.result, nil
}

func (m *mockAdapter) InitiatePayout(_ context.Context, _ port.InitiatePayoutRequest) (port.InitiatePayoutResult, error) {
	return port.InitiatePayoutResult{ProviderTxID: "px-1", FeeMinor: 250}, nil
}

func (m *mockAdapter) VerifyWebhook([]byte, map[string]string) error { return nil }

func (m *mockAdapter) NormalizeEvent([]byte) (valueobject.CanonicalEvent, error) {
	return valueobject.CanonicalEvent{}, port.ErrUnknownEvent
}

// --- Fixtures ---

func newHandler() *PaymentServiceHandler {
	txRepo := &mockTxRepo{}
	riskRepo := &mockRiskRepo{}
	registry := port.NewAdapterRegistry(
		&mockAdapter{provider: valueobject.ProviderCCBill, result: port.InitiatePaymentResult{ProviderTxID: "cc-1", Approved: true}},
		&mockAdapter{provider: valueobject.ProviderPaxum},
	)
	logger := slog.Default()

	processPaymentUC := usecase.NewProcessPayment(
		txRepo, riskRepo, registry,
		service.NewGatewaySelector(), service.NewRiskEngine(),
		&mockPublisher{}, logger,
	)
	getTransactionUC := usecase.NewGetTransaction(txRepo)
	processPayoutUC := usecase.NewProcessPayout(
		&mockPayoutRepo{}, &mockBalances{balance: 100_000}, registry, &mockPublisher{}, logger,
	)
	adjustRiskUC := usecase.NewAdjustRisk(riskRepo, service.NewRiskEngine(), &mockPublisher{}, logger)

	return NewPaymentServiceHandler(processPaymentUC, getTransactionUC, processPayoutUC, adjustRiskUC)
}

func authedContext(roles ...string) context.Context {
	return auth.ContextWithClaims(context.Background(), &auth.Claims{
		UserID: uuid.New(),
		Roles:  roles,
	})
}

func validPaymentRequest() *ProcessPaymentRequest {
	return &ProcessPaymentRequest{
		FanID:       uuid.NewString(),
		CreatorID:   uuid.NewString(),
		PaymentType: "TIP",
		AmountMinor: 500,
		Currency:    "USD",
		Region:      "US",
	}
}

// --- Tests ---

func TestProcessPaymentRequiresAuth(t *testing.T) {
	h := newHandler()

	_, err := h.ProcessPayment(context.Background(), validPaymentRequest())

	require.Error(t, err)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestProcessPaymentRequiresRole(t *testing.T) {
	h := newHandler()

	_, err := h.ProcessPayment(authedContext("viewer"), validPaymentRequest())

	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestProcessPaymentValidation(t *testing.T) {
	h := newHandler()
	ctx := authedContext(auth.RoleAPIClient)

	tests := []struct {
		name   string
		mutate func(*ProcessPaymentRequest)
	}{
		{"bad fan id", func(r *ProcessPaymentRequest) { r.FanID = "not-a-uuid" }},
		{"bad creator id", func(r *ProcessPaymentRequest) { r.CreatorID = "nope" }},
		{"zero amount", func(r *ProcessPaymentRequest) { r.AmountMinor = 0 }},
		{"lowercase currency", func(r *ProcessPaymentRequest) { r.Currency = "usd" }},
		{"missing region", func(r *ProcessPaymentRequest) { r.Region = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPaymentRequest()
			tt.mutate(req)
			_, err := h.ProcessPayment(ctx, req)
			require.Error(t, err)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestProcessPaymentSucceeds(t *testing.T) {
	h := newHandler()

	resp, err := h.ProcessPayment(authedContext(auth.RoleAPIClient), validPaymentRequest())

	require.NoError(t, err)
	assert.Equal(t, "AUTHORIZED", resp.Status)
	assert.Equal(t, "CCBILL", resp.Provider)
	assert.NotEmpty(t, resp.TransactionID)
	assert.NotEmpty(t, resp.InitiatedAt)
}

func TestProcessPaymentUnroutableRegion(t *testing.T) {
	h := newHandler()
	req := validPaymentRequest()
	req.Currency = "BRL"

	_, err := h.ProcessPayment(authedContext(auth.RoleAPIClient), req)

	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestGetTransactionNotFound(t *testing.T) {
	h := newHandler()

	_, err := h.GetTransaction(authedContext(auth.RoleOperator), &GetTransactionRequest{ID: uuid.NewString()})

	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestRequestPayoutInsufficientBalance(t *testing.T) {
	h := newHandler()

	_, err := h.RequestPayout(authedContext(auth.RoleAPIClient), &RequestPayoutRequest{
		CreatorID:   uuid.NewString(),
		AmountMinor: 10_000_000,
		Currency:    "USD",
		Destination: "creator@example.com",
	})

	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestAdjustRiskScoreAdminOnly(t *testing.T) {
	h := newHandler()

	_, err := h.AdjustRiskScore(authedContext(auth.RoleOperator), &AdjustRiskScoreRequest{
		UserID: uuid.NewString(),
		Delta:  20,
		Reason: "manual review",
	})

	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestAdjustRiskScoreUsesCallerAsActor(t *testing.T) {
	h := newHandler()

	resp, err := h.AdjustRiskScore(authedContext(auth.RoleAdmin), &AdjustRiskScoreRequest{
		UserID: uuid.NewString(),
		Delta:  20,
		Reason: "manual review",
	})

	require.NoError(t, err)
	assert.Equal(t, 20, resp.EffectiveScore)
	require.Len(t, resp.Adjustments, 1)
	assert.Contains(t, resp.Adjustments[0].Actor, "admin:")
}
