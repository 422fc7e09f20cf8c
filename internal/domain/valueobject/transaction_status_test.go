package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionStatus(t *testing.T) {
	status, err := NewTransactionStatus("SETTLED")
	require.NoError(t, err)
	assert.Equal(t, TransactionStatusSettled, status)

	_, err = NewTransactionStatus("PENDING")
	assert.Error(t, err)
}

func TestTransactionStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    TransactionStatus
		to      TransactionStatus
		allowed bool
	}{
		{"initiated to authorized", TransactionStatusInitiated, TransactionStatusAuthorized, true},
		{"initiated to failed", TransactionStatusInitiated, TransactionStatusFailed, true},
		{"initiated to settled skips authorization", TransactionStatusInitiated, TransactionStatusSettled, false},
		{"authorized to settled", TransactionStatusAuthorized, TransactionStatusSettled, true},
		{"authorized to cancelled", TransactionStatusAuthorized, TransactionStatusCancelled, true},
		{"authorized to refunded", TransactionStatusAuthorized, TransactionStatusRefunded, false},
		{"settled to refunded", TransactionStatusSettled, TransactionStatusRefunded, true},
		{"settled to charged back", TransactionStatusSettled, TransactionStatusChargedBack, true},
		{"settled back to authorized", TransactionStatusSettled, TransactionStatusAuthorized, false},
		{"refunded is terminal", TransactionStatusRefunded, TransactionStatusSettled, false},
		{"charged back is terminal", TransactionStatusChargedBack, TransactionStatusRefunded, false},
		{"failed is terminal", TransactionStatusFailed, TransactionStatusInitiated, false},
		{"cancelled is terminal", TransactionStatusCancelled, TransactionStatusSettled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransactionStatusIsTerminal(t *testing.T) {
	assert.False(t, TransactionStatusInitiated.IsTerminal())
	assert.False(t, TransactionStatusAuthorized.IsTerminal())
	assert.False(t, TransactionStatusSettled.IsTerminal())
	assert.True(t, TransactionStatusFailed.IsTerminal())
	assert.True(t, TransactionStatusCancelled.IsTerminal())
	assert.True(t, TransactionStatusRefunded.IsTerminal())
	assert.True(t, TransactionStatusChargedBack.IsTerminal())
	assert.False(t, TransactionStatus{}.IsTerminal())
}

func TestCanonicalEventTargetStatus(t *testing.T) {
	target, ok := CanonicalEventSale.TargetStatus()
	require.True(t, ok)
	assert.Equal(t, TransactionStatusSettled, target)

	target, ok = CanonicalEventChargeback.TargetStatus()
	require.True(t, ok)
	assert.Equal(t, TransactionStatusChargedBack, target)

	_, ok = CanonicalEventUnknown.TargetStatus()
	assert.False(t, ok)

	_, ok = CanonicalEventPayoutPaid.TargetStatus()
	assert.False(t, ok)
}

func TestCanonicalEventDedupeKey(t *testing.T) {
	e := CanonicalEvent{
		Provider:     ProviderCCBill,
		Type:         CanonicalEventSale,
		ProviderTxID: "ccb_123",
	}
	assert.Equal(t, "CCBILL:ccb_123:SALE", e.DedupeKey())
}
