package valueobject

import "fmt"

// PayoutStatus represents the lifecycle state of a creator payout.
type PayoutStatus struct {
	value string
}

var (
	PayoutStatusRequested  = PayoutStatus{"REQUESTED"}
	PayoutStatusProcessing = PayoutStatus{"PROCESSING"}
	PayoutStatusPaid       = PayoutStatus{"PAID"}
	PayoutStatusFailed     = PayoutStatus{"FAILED"}
)

var validPayoutStatuses = map[string]PayoutStatus{
	"REQUESTED":  PayoutStatusRequested,
	"PROCESSING": PayoutStatusProcessing,
	"PAID":       PayoutStatusPaid,
	"FAILED":     PayoutStatusFailed,
}

// NewPayoutStatus validates and creates a PayoutStatus from a string.
func NewPayoutStatus(s string) (PayoutStatus, error) {
	if status, ok := validPayoutStatuses[s]; ok {
		return status, nil
	}
	return PayoutStatus{}, fmt.Errorf("invalid payout status: %q", s)
}

// String returns the string representation of the payout status.
func (s PayoutStatus) String() string {
	return s.value
}

// IsTerminal returns true if the payout status is PAID or FAILED.
func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusPaid || s == PayoutStatusFailed
}

// IsZero returns true if the payout status is uninitialized.
func (s PayoutStatus) IsZero() bool {
	return s.value == ""
}
