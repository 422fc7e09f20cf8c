package service

import (
	"fmt"

	"github.com/fanora/payment-service/internal/domain/valueobject"
)

// UnsupportedRouteError means no enabled provider can take a payment
// for the region, currency and payment type. This is a client error,
// not an outage.
type UnsupportedRouteError struct {
	Region      string
	Currency    string
	PaymentType string
}

func (e *UnsupportedRouteError) Error() string {
	return fmt.Sprintf("no payment route for region %q currency %q type %q", e.Region, e.Currency, e.PaymentType)
}

// GatewaySelector routes payments to a processor by fan region, with
// ordered fallbacks when the preferred processor is disabled or does
// not take the currency or payment type. Segpay is the global
// catch-all.
type GatewaySelector struct {
	routes       map[string][]valueobject.Provider
	fallback     []valueobject.Provider
	currencies   map[valueobject.Provider]map[string]bool
	paymentTypes map[valueobject.Provider]map[valueobject.PaymentType]bool
	disabled     map[valueobject.Provider]bool
}

var euRegions = []string{"AT", "BE", "DE", "DK", "ES", "FI", "FR", "GR", "IE", "IT", "LU", "NL", "PT", "SE", "UK"}

var latamRegions = []string{"AR", "BR", "CL", "CO", "MX", "PE"}

// NewGatewaySelector builds the routing table. Providers in disabled
// are skipped during selection.
func NewGatewaySelector(disabled ...valueobject.Provider) *GatewaySelector {
	routes := map[string][]valueobject.Provider{
		"US": {valueobject.ProviderCCBill, valueobject.ProviderSegpay},
		"CA": {valueobject.ProviderCCBill, valueobject.ProviderSegpay},
	}
	for _, r := range euRegions {
		routes[r] = []valueobject.Provider{valueobject.ProviderEpoch, valueobject.ProviderVerotel, valueobject.ProviderSegpay}
	}
	for _, r := range latamRegions {
		routes[r] = []valueobject.Provider{valueobject.ProviderVendo, valueobject.ProviderSegpay}
	}

	currencies := map[valueobject.Provider]map[string]bool{
		valueobject.ProviderCCBill:  currencySet("USD", "CAD"),
		valueobject.ProviderSegpay:  currencySet("USD", "EUR", "GBP"),
		valueobject.ProviderEpoch:   currencySet("USD", "EUR", "GBP"),
		valueobject.ProviderVendo:   currencySet("USD", "EUR", "BRL", "MXN"),
		valueobject.ProviderVerotel: currencySet("USD", "EUR"),
	}

	// Verotel bills recurring and one-shot content purchases only; the
	// other processors take every purchase type.
	allTypes := typeSet(
		valueobject.PaymentTypeSubscription, valueobject.PaymentTypePPV,
		valueobject.PaymentTypeTip, valueobject.PaymentTypeMerchandise,
	)
	paymentTypes := map[valueobject.Provider]map[valueobject.PaymentType]bool{
		valueobject.ProviderCCBill:  allTypes,
		valueobject.ProviderSegpay:  allTypes,
		valueobject.ProviderEpoch:   allTypes,
		valueobject.ProviderVendo:   allTypes,
		valueobject.ProviderVerotel: typeSet(valueobject.PaymentTypeSubscription, valueobject.PaymentTypePPV),
	}

	disabledSet := make(map[valueobject.Provider]bool, len(disabled))
	for _, p := range disabled {
		disabledSet[p] = true
	}

	return &GatewaySelector{
		routes:       routes,
		fallback:     []valueobject.Provider{valueobject.ProviderSegpay},
		currencies:   currencies,
		paymentTypes: paymentTypes,
		disabled:     disabledSet,
	}
}

func currencySet(codes ...string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}

func typeSet(types ...valueobject.PaymentType) map[valueobject.PaymentType]bool {
	set := make(map[valueobject.PaymentType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// Select returns the first enabled provider in the region's chain that
// takes the currency and payment type. Unknown regions fall through to
// the global chain.
func (s *GatewaySelector) Select(region, currency string, paymentType valueobject.PaymentType) (valueobject.Provider, error) {
	chain, ok := s.routes[region]
	if !ok {
		chain = s.fallback
	}

	for _, p := range chain {
		if s.disabled[p] {
			continue
		}
		if !s.currencies[p][currency] {
			continue
		}
		if !s.paymentTypes[p][paymentType] {
			continue
		}
		return p, nil
	}

	return valueobject.Provider{}, &UnsupportedRouteError{
		Region:      region,
		Currency:    currency,
		PaymentType: paymentType.String(),
	}
}
