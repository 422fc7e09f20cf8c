package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanora/payment-service/internal/domain/valueobject"
)

func newTestPayout(t *testing.T) Payout {
	t.Helper()
	p, err := NewPayout(uuid.New(), valueobject.ProviderPaxum, 50000, "USD", "creator@example.com")
	require.NoError(t, err)
	return p
}

func TestNewPayout(t *testing.T) {
	p := newTestPayout(t)

	assert.Equal(t, valueobject.PayoutStatusRequested, p.Status())
	assert.Equal(t, int64(50000), p.AmountMinor())
	assert.Len(t, p.DomainEvents(), 1)
	assert.Equal(t, "payment.payout.requested", p.DomainEvents()[0].EventType())
}

func TestNewPayoutValidation(t *testing.T) {
	creatorID := uuid.New()

	_, err := NewPayout(uuid.Nil, valueobject.ProviderPaxum, 50000, "USD", "dest")
	assert.Error(t, err)

	// CCBill is an inbound processor, not a payout rail.
	_, err = NewPayout(creatorID, valueobject.ProviderCCBill, 50000, "USD", "dest")
	assert.Error(t, err)

	_, err = NewPayout(creatorID, valueobject.ProviderPaxum, 0, "USD", "dest")
	assert.Error(t, err)

	_, err = NewPayout(creatorID, valueobject.ProviderPaxum, 50000, "USD", "")
	assert.Error(t, err)
}

func TestPayoutLifecycle(t *testing.T) {
	now := time.Now().UTC()
	p := newTestPayout(t)

	processing, err := p.MarkProcessing("pax_xyz", 1250, now)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PayoutStatusProcessing, processing.Status())
	assert.Equal(t, "pax_xyz", processing.ProviderTxID())
	assert.Equal(t, int64(1250), processing.FeeMinor())

	paid, err := processing.MarkPaid(now)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PayoutStatusPaid, paid.Status())
	require.NotNil(t, paid.PaidAt())
	assert.True(t, paid.Status().IsTerminal())
}

func TestPayoutFailure(t *testing.T) {
	now := time.Now().UTC()
	p := newTestPayout(t)

	// Fails straight from REQUESTED when the provider rejects submission.
	failed, err := p.MarkFailed("account not verified", now)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PayoutStatusFailed, failed.Status())
	assert.Equal(t, "account not verified", failed.FailureReason())

	// Terminal payouts cannot move again.
	_, err = failed.MarkProcessing("pax_xyz", 0, now)
	assert.Error(t, err)
	_, err = failed.MarkFailed("again", now)
	assert.Error(t, err)
}

func TestPayoutCannotPayBeforeProcessing(t *testing.T) {
	now := time.Now().UTC()
	p := newTestPayout(t)

	_, err := p.MarkPaid(now)
	assert.Error(t, err)
}
