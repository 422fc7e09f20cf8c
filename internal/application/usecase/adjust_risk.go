package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fanora/payment-service/internal/application/dto"
	"github.com/fanora/payment-service/internal/domain/model"
	"github.com/fanora/payment-service/internal/domain/port"
	"github.com/fanora/payment-service/internal/domain/service"
)

// AdjustRisk applies manual risk score overrides and serves risk
// profile reads.
type AdjustRisk struct {
	riskProfiles port.RiskProfileRepository
	riskEngine   *service.RiskEngine
	publisher    port.EventPublisher
	logger       *slog.Logger
}

func NewAdjustRisk(
	riskProfiles port.RiskProfileRepository,
	riskEngine *service.RiskEngine,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *AdjustRisk {
	return &AdjustRisk{
		riskProfiles: riskProfiles,
		riskEngine:   riskEngine,
		publisher:    publisher,
		logger:       logger,
	}
}

func (uc *AdjustRisk) Execute(ctx context.Context, req dto.AdjustRiskRequest) (dto.RiskProfileResponse, error) {
	profile, err := loadOrCreateRiskProfile(ctx, uc.riskProfiles, req.UserID)
	if err != nil {
		return dto.RiskProfileResponse{}, err
	}

	if err := uc.riskEngine.Override(profile, req.Delta, req.Reason, req.Actor, time.Now().UTC()); err != nil {
		return dto.RiskProfileResponse{}, fmt.Errorf("overriding risk score: %w", err)
	}

	evts := profile.DomainEvents()
	if err := uc.riskProfiles.Save(ctx, profile); err != nil {
		return dto.RiskProfileResponse{}, fmt.Errorf("saving risk profile: %w", err)
	}
	if len(evts) > 0 {
		if err := uc.publisher.Publish(ctx, TopicPaymentEvents, evts...); err != nil {
			uc.logger.Error("publishing events failed", slog.String("error", err.Error()))
		}
	}

	return toRiskProfileResponse(profile), nil
}

// GetProfile returns the user's current risk view. Users without a
// stored profile read back as score zero.
func (uc *AdjustRisk) GetProfile(ctx context.Context, userID uuid.UUID) (dto.RiskProfileResponse, error) {
	profile, err := loadOrCreateRiskProfile(ctx, uc.riskProfiles, userID)
	if err != nil {
		return dto.RiskProfileResponse{}, err
	}
	return toRiskProfileResponse(profile), nil
}

func toRiskProfileResponse(profile *model.RiskProfile) dto.RiskProfileResponse {
	now := time.Now().UTC()
	history := make([]dto.RiskAdjustmentView, 0, len(profile.History()))
	for _, adj := range profile.History() {
		history = append(history, dto.RiskAdjustmentView{
			Delta:      adj.Delta,
			ScoreAfter: adj.ScoreAfter,
			Reason:     adj.Reason,
			Actor:      adj.Actor,
			At:         adj.At,
		})
	}
	return dto.RiskProfileResponse{
		UserID:         profile.UserID(),
		EffectiveScore: profile.EffectiveScore(now),
		Blocked:        profile.IsBlocked(now),
		LastAdjustedAt: profile.LastAdjustedAt(),
		History:        history,
	}
}
