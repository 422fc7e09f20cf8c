package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Provider identifies an external payment processor.
type Provider struct {
	value string
}

var (
	ProviderCCBill  = Provider{"CCBILL"}
	ProviderSegpay  = Provider{"SEGPAY"}
	ProviderEpoch   = Provider{"EPOCH"}
	ProviderVendo   = Provider{"VENDO"}
	ProviderVerotel = Provider{"VEROTEL"}
	ProviderPaxum   = Provider{"PAXUM"}
)

var validProviders = map[string]Provider{
	"CCBILL":  ProviderCCBill,
	"SEGPAY":  ProviderSegpay,
	"EPOCH":   ProviderEpoch,
	"VENDO":   ProviderVendo,
	"VEROTEL": ProviderVerotel,
	"PAXUM":   ProviderPaxum,
}

// NewProvider validates and creates a Provider from a string.
func NewProvider(s string) (Provider, error) {
	if p, ok := validProviders[s]; ok {
		return p, nil
	}
	return Provider{}, fmt.Errorf("invalid provider: %q", s)
}

// String returns the string representation of the provider.
func (p Provider) String() string {
	return p.value
}

// IsZero returns true if the provider is uninitialized.
func (p Provider) IsZero() bool {
	return p.value == ""
}

// Platform fee in basis points and minimum charge in minor units,
// per the commercial agreements with each processor.
var providerFeeBps = map[Provider]int64{
	ProviderCCBill:  850,
	ProviderSegpay:  790,
	ProviderEpoch:   890,
	ProviderVendo:   800,
	ProviderVerotel: 850,
	ProviderPaxum:   250,
}

var providerMinAmountMinor = map[Provider]int64{
	ProviderCCBill:  295,
	ProviderSegpay:  100,
	ProviderEpoch:   295,
	ProviderVendo:   100,
	ProviderVerotel: 100,
	ProviderPaxum:   100,
}

// FeeRate returns the provider's fee as a decimal fraction (850 bps -> 0.085).
func (p Provider) FeeRate() decimal.Decimal {
	return decimal.NewFromInt(providerFeeBps[p]).Div(decimal.NewFromInt(10000))
}

// MinAmountMinor returns the smallest amount the provider will process,
// in minor currency units.
func (p Provider) MinAmountMinor() int64 {
	return providerMinAmountMinor[p]
}

// SupportsPayouts reports whether the provider handles creator payouts
// rather than inbound fan payments.
func (p Provider) SupportsPayouts() bool {
	return p == ProviderPaxum
}
