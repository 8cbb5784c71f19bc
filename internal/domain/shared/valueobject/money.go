// Package valueobject holds immutable value types of the billing domain.
package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code
type Currency string

// EUR is the currency invoices are issued in
const EUR Currency = "EUR"

// DefaultCurrency is used for every amount on an invoice
const DefaultCurrency = EUR

// centPlaces is the precision amounts are shown with
const centPlaces = 2

// Money is an amount in a currency. Operations return new values and keep
// full precision; rounding to cents happens only where a total is presented.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoneyEUR wraps amount as euros
func NewMoneyEUR(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: EUR}
}

// Zero returns nothing in currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }

// Add sums two amounts of the same currency
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: %s + %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// MustAdd is Add for amounts known to share a currency
func (m Money) MustAdd(other Money) Money {
	sum, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return sum
}

// Multiply scales the amount, e.g. an hourly rate by billed hours
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// CalculatePercentage returns percent of the amount, e.g. the VAT on a line
func (m Money) CalculatePercentage(percent decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(percent).Div(decimal.NewFromInt(100)), currency: m.currency}
}

// Round rounds half away from zero to places decimals
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places), currency: m.currency}
}

// Equals compares amount and currency; trailing zeros do not matter
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// StringFixed formats the amount with places decimals and no currency
func (m Money) StringFixed(places int32) string {
	return m.amount.StringFixed(places)
}

func (m Money) String() string {
	return m.amount.StringFixed(centPlaces) + " " + string(m.currency)
}

// MarshalJSON writes {"amount":"302.50","currency":"EUR"}
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{m.amount.StringFixed(centPlaces), m.currency})
}
