package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// LocalCurrency is the currency of the bank directory; it carries a higher
// withdrawal ceiling than foreign currencies.
const LocalCurrency = "NGN"

// DefaultCurrencies are the wallet currencies the client offers.
var DefaultCurrencies = []string{"USD", "NGN", "GBP", "EUR", "CAD", "AUD", "JPY", "CHF", "CNY", "ZAR"}

// Limits bounds form amounts in major units.
type Limits struct {
	Min decimal.Decimal
	Max decimal.Decimal

	// WithdrawCeilings is keyed by currency code; WithdrawDefault applies to the rest.
	WithdrawCeilings map[string]decimal.Decimal
	WithdrawDefault  decimal.Decimal

	Currencies []string
}

// DefaultLimits returns the amount rules of the web client: [1, 10000] for
// every form, with withdrawals in the local currency allowed up to 1,000,000.
func DefaultLimits() Limits {
	return Limits{
		Min: decimal.NewFromInt(1),
		Max: decimal.NewFromInt(10000),
		WithdrawCeilings: map[string]decimal.Decimal{
			LocalCurrency: decimal.NewFromInt(1000000),
		},
		WithdrawDefault: decimal.NewFromInt(10000),
		Currencies:      append([]string(nil), DefaultCurrencies...),
	}
}

// WithdrawCeiling returns the maximum withdrawal for currency.
func (l Limits) WithdrawCeiling(currency string) decimal.Decimal {
	if c, ok := l.WithdrawCeilings[strings.ToUpper(currency)]; ok {
		return c
	}
	return l.WithdrawDefault
}

// Supports reports whether currency is offered.
func (l Limits) Supports(currency string) bool {
	currency = strings.ToUpper(currency)
	for _, c := range l.Currencies {
		if c == currency {
			return true
		}
	}
	return false
}

// SortedCurrencies returns the offered currencies in alphabetical order.
func (l Limits) SortedCurrencies() []string {
	out := append([]string(nil), l.Currencies...)
	sort.Strings(out)
	return out
}
