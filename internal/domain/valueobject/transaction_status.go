package valueobject

import "fmt"

// TransactionStatus represents the lifecycle state of a payment transaction.
//
// Legal transitions form a strict DAG:
//
//	INITIATED  -> AUTHORIZED | FAILED
//	AUTHORIZED -> SETTLED    | CANCELLED
//	SETTLED    -> REFUNDED   | CHARGED_BACK
//
// FAILED, CANCELLED, REFUNDED and CHARGED_BACK are terminal.
type TransactionStatus struct {
	value string
}

var (
	TransactionStatusInitiated   = TransactionStatus{"INITIATED"}
	TransactionStatusAuthorized  = TransactionStatus{"AUTHORIZED"}
	TransactionStatusSettled     = TransactionStatus{"SETTLED"}
	TransactionStatusFailed      = TransactionStatus{"FAILED"}
	TransactionStatusCancelled   = TransactionStatus{"CANCELLED"}
	TransactionStatusRefunded    = TransactionStatus{"REFUNDED"}
	TransactionStatusChargedBack = TransactionStatus{"CHARGED_BACK"}
)

var validTransactionStatuses = map[string]TransactionStatus{
	"INITIATED":    TransactionStatusInitiated,
	"AUTHORIZED":   TransactionStatusAuthorized,
	"SETTLED":      TransactionStatusSettled,
	"FAILED":       TransactionStatusFailed,
	"CANCELLED":    TransactionStatusCancelled,
	"REFUNDED":     TransactionStatusRefunded,
	"CHARGED_BACK": TransactionStatusChargedBack,
}

var legalTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusInitiated:  {TransactionStatusAuthorized, TransactionStatusFailed},
	TransactionStatusAuthorized: {TransactionStatusSettled, TransactionStatusCancelled},
	TransactionStatusSettled:    {TransactionStatusRefunded, TransactionStatusChargedBack},
}

// NewTransactionStatus validates and creates a TransactionStatus from a string.
func NewTransactionStatus(s string) (TransactionStatus, error) {
	if status, ok := validTransactionStatuses[s]; ok {
		return status, nil
	}
	return TransactionStatus{}, fmt.Errorf("invalid transaction status: %q", s)
}

// String returns the string representation of the transaction status.
func (s TransactionStatus) String() string {
	return s.value
}

// IsTerminal returns true if no transition leads out of this status.
func (s TransactionStatus) IsTerminal() bool {
	return len(legalTransitions[s]) == 0 && !s.IsZero()
}

// CanTransitionTo reports whether moving from s to next is a legal transition.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, t := range legalTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// IsZero returns true if the transaction status is uninitialized.
func (s TransactionStatus) IsZero() bool {
	return s.value == ""
}
