package usecase

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fanora/payment-service/internal/application/dto"
	"github.com/fanora/payment-service/internal/domain/service"
)

func newAdjustRisk(riskRepo *fakeRiskRepo) *AdjustRisk {
	return NewAdjustRisk(riskRepo, service.NewRiskEngine(), &fakePublisher{}, slog.Default())
}

func TestAdjustRiskOverride(t *testing.T) {
	riskRepo := newFakeRiskRepo()
	uc := newAdjustRisk(riskRepo)
	userID := uuid.New()

	resp, err := uc.Execute(context.Background(), dto.AdjustRiskRequest{
		UserID: userID,
		Delta:  40,
		Reason: "manual review of disputed charges",
		Actor:  "admin:kate",
	})

	require.NoError(t, err)
	assert.Equal(t, 40, resp.EffectiveScore)
	assert.False(t, resp.Blocked)
	require.Len(t, resp.History, 1)
	assert.Equal(t, "admin:kate", resp.History[0].Actor)
	assert.Equal(t, 1, riskRepo.saves)
}

func TestAdjustRiskRejectsSystemActor(t *testing.T) {
	uc := newAdjustRisk(newFakeRiskRepo())

	_, err := uc.Execute(context.Background(), dto.AdjustRiskRequest{
		UserID: uuid.New(),
		Delta:  -10,
		Reason: "reset",
		Actor:  "system",
	})
	assert.Error(t, err)
}

func TestAdjustRiskBlockedAboveThreshold(t *testing.T) {
	uc := newAdjustRisk(newFakeRiskRepo())

	resp, err := uc.Execute(context.Background(), dto.AdjustRiskRequest{
		UserID: uuid.New(),
		Delta:  90,
		Reason: "confirmed fraud",
		Actor:  "admin:kate",
	})

	require.NoError(t, err)
	assert.True(t, resp.Blocked)
}

func TestGetProfileUnknownUserReadsClean(t *testing.T) {
	uc := newAdjustRisk(newFakeRiskRepo())

	resp, err := uc.GetProfile(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, 0, resp.EffectiveScore)
	assert.False(t, resp.Blocked)
	assert.Empty(t, resp.History)
}
