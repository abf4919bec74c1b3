// Package core holds the ledger domain: money, transactions, projects,
// expense classification and deferred payments, plus the shared error
// taxonomy. Everything here is persistence-free; the storage layer
// enforces the same invariants transactionally.
package core

import (
	"github.com/shopspring/decimal"
)

// Money is an amount in the smallest currency unit (two decimal places).
// All arithmetic stays in int64 units; decimals appear only at the
// parsing and display boundary.
type Money struct {
	Units int64
}

func (m Money) Validate() error {
	if m.Units <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the major-unit decimal value for display.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Units, -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// FromDecimal converts a major-unit decimal amount into Money. Amounts
// with more than two decimal places, non-positive amounts, and values
// that overflow int64 units are rejected.
func FromDecimal(d decimal.Decimal) (Money, error) {
	if d.Exponent() < -2 && !d.Equal(d.Truncate(2)) {
		return Money{}, ErrInvalidAmount
	}
	units := d.Mul(decimal.New(100, 0))
	if !units.IsInteger() || !units.BigInt().IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Units: units.IntPart()}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// ParseAmount parses a decimal string ("1500" or "1500.50") into Money.
func ParseAmount(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return FromDecimal(d)
}
