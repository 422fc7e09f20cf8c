package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanora/payment-service/internal/domain/model"
)

func TestRiskEngineApplySignal(t *testing.T) {
	now := time.Now().UTC()
	engine := NewRiskEngine()
	profile, err := model.NewRiskProfile(uuid.New())
	require.NoError(t, err)

	require.NoError(t, engine.ApplySignal(profile, SignalChargeback, now))
	assert.Equal(t, 30, profile.EffectiveScore(now))

	require.NoError(t, engine.ApplySignal(profile, SignalVelocity, now))
	assert.Equal(t, 45, profile.EffectiveScore(now))

	require.NoError(t, engine.ApplySignal(profile, SignalFailedPayment, now))
	require.NoError(t, engine.ApplySignal(profile, SignalRefund, now))
	assert.Equal(t, 55, profile.EffectiveScore(now))

	require.NoError(t, engine.ApplySignal(profile, SignalProviderError, now))
	assert.Equal(t, 65, profile.EffectiveScore(now))

	assert.Error(t, engine.ApplySignal(profile, RiskSignal("BOGUS"), now))
}

func TestRiskEngineThreeChargebacksBlock(t *testing.T) {
	now := time.Now().UTC()
	engine := NewRiskEngine()
	profile, err := model.NewRiskProfile(uuid.New())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, engine.ApplySignal(profile, SignalChargeback, now))
	}
	assert.True(t, profile.IsBlocked(now))
}

func TestRiskEngineOverride(t *testing.T) {
	now := time.Now().UTC()
	engine := NewRiskEngine()
	profile, err := model.NewRiskProfile(uuid.New())
	require.NoError(t, err)
	require.NoError(t, engine.ApplySignal(profile, SignalChargeback, now))

	require.NoError(t, engine.Override(profile, -20, "verified with bank", "admin:trust", now))
	assert.Equal(t, 10, profile.EffectiveScore(now))

	// Overrides cannot masquerade as the system.
	assert.Error(t, engine.Override(profile, -20, "reason", "system", now))
}
