package service

import (
	"fmt"
	"time"

	"github.com/fanora/payment-service/internal/domain/model"
)

// RiskSignal is an automatic fraud indicator with a fixed score delta.
type RiskSignal string

const (
	SignalChargeback    RiskSignal = "CHARGEBACK"
	SignalRefund        RiskSignal = "REFUND"
	SignalFailedPayment RiskSignal = "FAILED_PAYMENT"
	SignalProviderError RiskSignal = "PROVIDER_ERROR"
	SignalVelocity      RiskSignal = "VELOCITY"
)

// A provider infrastructure failure weighs more than a plain decline:
// the charge outcome is unknown and repeat attempts invite doubles.
var signalDeltas = map[RiskSignal]int{
	SignalChargeback:    30,
	SignalRefund:        5,
	SignalFailedPayment: 5,
	SignalProviderError: 10,
	SignalVelocity:      15,
}

var signalReasons = map[RiskSignal]string{
	SignalChargeback:    "chargeback received",
	SignalRefund:        "refund issued",
	SignalFailedPayment: "payment attempt failed",
	SignalProviderError: "provider call failed",
	SignalVelocity:      "purchase velocity exceeded",
}

const systemActor = "system"

// RiskEngine applies scoring rules to risk profiles. Signal deltas are
// additive on top of the decayed score; only admins can move a score
// down past decay.
type RiskEngine struct{}

func NewRiskEngine() *RiskEngine {
	return &RiskEngine{}
}

// ApplySignal records an automatic signal against the profile.
func (e *RiskEngine) ApplySignal(profile *model.RiskProfile, signal RiskSignal, now time.Time) error {
	delta, ok := signalDeltas[signal]
	if !ok {
		return fmt.Errorf("unknown risk signal: %q", signal)
	}
	return profile.Adjust(delta, signalReasons[signal], systemActor, now)
}

// Override applies a manual adjustment on behalf of an admin. The delta
// may be negative; reason and actor are mandatory for the audit trail.
func (e *RiskEngine) Override(profile *model.RiskProfile, delta int, reason, actor string, now time.Time) error {
	if actor == systemActor {
		return fmt.Errorf("overrides require a named admin actor")
	}
	return profile.Adjust(delta, reason, actor, now)
}
