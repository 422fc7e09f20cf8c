package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fanora/payment-service/internal/domain/event"
	"github.com/fanora/payment-service/pkg/events"
)

// BlockThreshold is the effective risk score above which new payments
// are rejected outright. A score of exactly 85 still passes the gate.
const BlockThreshold = 85

const (
	minRiskScore = 0
	maxRiskScore = 100
)

// RiskAdjustment is one entry in a profile's audit history.
type RiskAdjustment struct {
	Delta      int
	ScoreAfter int
	Reason     string
	Actor      string
	At         time.Time
}

// RiskProfile is the aggregate tracking a user's fraud risk score.
// The stored score decays by one point per full day since the last
// adjustment; decay is computed on read, never persisted.
type RiskProfile struct {
	userID         uuid.UUID
	score          int
	lastAdjustedAt time.Time
	history        []RiskAdjustment
	version        int
	createdAt      time.Time
	updatedAt      time.Time
	domainEvents   []events.DomainEvent
}

// NewRiskProfile creates a profile with a zero score.
func NewRiskProfile(userID uuid.UUID) (*RiskProfile, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user ID is required")
	}

	now := time.Now().UTC()
	return &RiskProfile{
		userID:         userID,
		score:          0,
		lastAdjustedAt: now,
		history:        make([]RiskAdjustment, 0),
		version:        1,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructRiskProfile rebuilds a RiskProfile from persisted data (no validation, no events).
func ReconstructRiskProfile(
	userID uuid.UUID,
	score int,
	lastAdjustedAt time.Time,
	history []RiskAdjustment,
	version int,
	createdAt, updatedAt time.Time,
) *RiskProfile {
	return &RiskProfile{
		userID:         userID,
		score:          score,
		lastAdjustedAt: lastAdjustedAt,
		history:        history,
		version:        version,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		domainEvents:   make([]events.DomainEvent, 0),
	}
}

// EffectiveScore returns the stored score minus one point per full day
// since the last adjustment, floored at zero.
func (p *RiskProfile) EffectiveScore(now time.Time) int {
	days := int(now.Sub(p.lastAdjustedAt).Hours() / 24)
	if days < 0 {
		days = 0
	}
	score := p.score - days
	if score < minRiskScore {
		return minRiskScore
	}
	return score
}

// IsBlocked reports whether the effective score exceeds the blocking
// threshold.
func (p *RiskProfile) IsBlocked(now time.Time) bool {
	return p.EffectiveScore(now) > BlockThreshold
}

// Adjust applies a signed delta on top of the current effective score,
// clamping the result to [0, 100]. The decayed score becomes the new
// baseline so later reads decay from this adjustment.
func (p *RiskProfile) Adjust(delta int, reason, actor string, now time.Time) error {
	if reason == "" {
		return fmt.Errorf("reason is required")
	}
	if actor == "" {
		return fmt.Errorf("actor is required")
	}

	before := p.EffectiveScore(now)
	after := before + delta
	if after > maxRiskScore {
		after = maxRiskScore
	}
	if after < minRiskScore {
		after = minRiskScore
	}

	p.score = after
	p.lastAdjustedAt = now
	p.updatedAt = now
	p.version++
	p.history = append(p.history, RiskAdjustment{
		Delta:      delta,
		ScoreAfter: after,
		Reason:     reason,
		Actor:      actor,
		At:         now,
	})

	p.domainEvents = append(p.domainEvents,
		event.NewRiskScoreAdjusted(p.userID, delta, after, reason, actor),
	)
	if before <= BlockThreshold && after > BlockThreshold {
		p.domainEvents = append(p.domainEvents,
			event.NewRiskThresholdExceeded(p.userID, after),
		)
	}

	return nil
}

// --- Accessors ---

func (p *RiskProfile) UserID() uuid.UUID          { return p.userID }
func (p *RiskProfile) Score() int                 { return p.score }
func (p *RiskProfile) LastAdjustedAt() time.Time  { return p.lastAdjustedAt }
func (p *RiskProfile) History() []RiskAdjustment  { return p.history }
func (p *RiskProfile) Version() int               { return p.version }
func (p *RiskProfile) CreatedAt() time.Time       { return p.createdAt }
func (p *RiskProfile) UpdatedAt() time.Time       { return p.updatedAt }

// DomainEvents returns all accumulated domain events and clears them.
func (p *RiskProfile) DomainEvents() []events.DomainEvent {
	evts := p.domainEvents
	p.domainEvents = make([]events.DomainEvent, 0)
	return evts
}
