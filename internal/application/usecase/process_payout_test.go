package usecase

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanora/payment-service/internal/application/dto"
	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/valueobject"
)

type payoutFixture struct {
	payoutRepo *fakePayoutRepo
	balances   *fakeBalances
	adapter    *fakeAdapter
	publisher  *fakePublisher
	uc         *ProcessPayout
}

func newPayoutFixture(t *testing.T) *payoutFixture {
	t.Helper()
	f := &payoutFixture{
		payoutRepo: newFakePayoutRepo(),
		balances:   &fakeBalances{balance: 100_000},
		adapter:    &fakeAdapter{provider: valueobject.ProviderPaxum},
		publisher:  &fakePublisher{},
	}
	f.uc = NewProcessPayout(
		f.payoutRepo,
		f.balances,
		port.NewAdapterRegistry(f.adapter),
		f.publisher,
		slog.Default(),
	)
	return f
}

func payoutRequest() dto.ProcessPayoutRequest {
	return dto.ProcessPayoutRequest{
		CreatorID:   uuid.New(),
		AmountMinor: 50_000,
		Currency:    "USD",
		Destination: "creator@example.com",
	}
}

func TestProcessPayoutSubmits(t *testing.T) {
	f := newPayoutFixture(t)
	f.adapter.payoutResult = port.InitiatePayoutResult{ProviderTxID: "px-900", FeeMinor: 250}

	resp, err := f.uc.Execute(context.Background(), payoutRequest())

	require.NoError(t, err)
	assert.Equal(t, "PROCESSING", resp.Status)
	assert.Equal(t, "PAXUM", resp.Provider)
	assert.Equal(t, "px-900", resp.ProviderTxID)
	assert.Equal(t, int64(250), resp.FeeMinor)
	assert.Equal(t, 1, f.adapter.payoutCalls)
	assert.NotEmpty(t, f.adapter.lastPayoutReq.IdempotencyKey)
}

func TestProcessPayoutInsufficientBalance(t *testing.T) {
	f := newPayoutFixture(t)
	f.balances.balance = 1_000

	_, err := f.uc.Execute(context.Background(), payoutRequest())

	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, 0, f.adapter.payoutCalls)
}

func TestProcessPayoutProviderErrorIsTerminal(t *testing.T) {
	f := newPayoutFixture(t)
	f.adapter.payoutErr = &port.ProviderError{
		Provider: valueobject.ProviderPaxum,
		Op:       "initiate payout",
		Err:      context.DeadlineExceeded,
	}

	resp, err := f.uc.Execute(context.Background(), payoutRequest())

	// Submission failure resolves the payout, it does not error out.
	require.NoError(t, err)
	assert.Equal(t, "FAILED", resp.Status)
	assert.NotEmpty(t, resp.FailureReason)

	stored, err := f.payoutRepo.FindByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PayoutStatusFailed, stored.Status())
	assert.Equal(t, 1, f.adapter.payoutCalls)
}

func TestProcessPayoutBelowProviderMinimum(t *testing.T) {
	f := newPayoutFixture(t)
	req := payoutRequest()
	req.AmountMinor = 50

	_, err := f.uc.Execute(context.Background(), req)
	assert.Error(t, err)
	assert.Equal(t, 0, f.adapter.payoutCalls)
}

func TestProcessPayoutListByCreator(t *testing.T) {
	f := newPayoutFixture(t)
	f.adapter.payoutResult = port.InitiatePayoutResult{ProviderTxID: "px-1", FeeMinor: 100}
	req := payoutRequest()

	_, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	list, total, err := f.uc.ListPayouts(context.Background(), req.CreatorID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, req.CreatorID, list[0].CreatorID)
}
