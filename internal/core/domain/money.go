package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmount reads a major-unit amount as typed into a form ("19.99", "10").
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, s)
	}
	return d, nil
}

// MinorUnits converts a major-unit amount to integer minor units: round(a * 100),
// half away from zero. This is the only place the client rounds money.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// MinorUnitsFromFloat is MinorUnits for amounts that arrive as float64.
// The float is read through its shortest decimal representation, so 19.995
// converts to 2000 and not 1999.
func MinorUnitsFromFloat(amount float64) int64 {
	return MinorUnits(decimal.NewFromFloat(amount))
}

// MajorUnits converts minor units back to a decimal major-unit amount.
func MajorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}

// FormatMinor renders minor units for display, e.g. 500 USD -> "5.00 USD".
func FormatMinor(minor int64, currency string) string {
	if currency == "" {
		return MajorUnits(minor).StringFixed(2)
	}
	return MajorUnits(minor).StringFixed(2) + " " + currency
}
