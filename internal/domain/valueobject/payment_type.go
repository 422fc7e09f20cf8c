package valueobject

import "fmt"

// PaymentType classifies what a payment is purchasing.
type PaymentType struct {
	value string
}

var (
	PaymentTypeSubscription = PaymentType{"SUBSCRIPTION"}
	PaymentTypePPV          = PaymentType{"PPV"}
	PaymentTypeTip          = PaymentType{"TIP"}
	PaymentTypeMerchandise  = PaymentType{"MERCHANDISE"}
)

var validPaymentTypes = map[string]PaymentType{
	"SUBSCRIPTION": PaymentTypeSubscription,
	"PPV":          PaymentTypePPV,
	"TIP":          PaymentTypeTip,
	"MERCHANDISE":  PaymentTypeMerchandise,
}

// NewPaymentType validates and creates a PaymentType from a string.
func NewPaymentType(s string) (PaymentType, error) {
	if t, ok := validPaymentTypes[s]; ok {
		return t, nil
	}
	return PaymentType{}, fmt.Errorf("invalid payment type: %q", s)
}

// String returns the string representation of the payment type.
func (t PaymentType) String() string {
	return t.value
}

// IsZero returns true if the payment type is uninitialized.
func (t PaymentType) IsZero() bool {
	return t.value == ""
}
