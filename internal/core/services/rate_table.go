package services

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrRateNotFound = errors.New("exchange rate not available")

// rateScale is the number of decimal places quoted rates carry.
const rateScale = 6

// RateTable quotes fixed exchange rates through a USD base.
type RateTable struct {
	perUSD map[string]decimal.Decimal
}

// DefaultRates are units of each currency per US dollar.
var DefaultRates = map[string]string{
	"USD": "1",
	"NGN": "1500",
	"GBP": "0.79",
	"EUR": "0.92",
	"CAD": "1.36",
	"AUD": "1.52",
	"JPY": "150",
	"CHF": "0.88",
	"CNY": "7.2",
	"ZAR": "18.5",
}

// NewRateTable parses a units-per-USD table
func NewRateTable(perUSD map[string]string) (*RateTable, error) {
	t := &RateTable{perUSD: make(map[string]decimal.Decimal, len(perUSD))}
	for currency, raw := range perUSD {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, err
		}
		if !d.IsPositive() {
			return nil, errors.New("rate for " + currency + " must be positive")
		}
		t.perUSD[strings.ToUpper(currency)] = d
	}
	return t, nil
}

// Rate returns how many units of to one unit of from buys
func (t *RateTable) Rate(from, to string) (decimal.Decimal, error) {
	f, ok := t.perUSD[strings.ToUpper(from)]
	if !ok {
		return decimal.Zero, ErrRateNotFound
	}
	d, ok := t.perUSD[strings.ToUpper(to)]
	if !ok {
		return decimal.Zero, ErrRateNotFound
	}
	return d.DivRound(f, rateScale), nil
}

// Convert converts minor units of from into minor units of to, rounding half
// away from zero.
func (t *RateTable) Convert(amount int64, from, to string) (int64, decimal.Decimal, error) {
	rate, err := t.Rate(from, to)
	if err != nil {
		return 0, decimal.Zero, err
	}
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart(), rate, nil
}
