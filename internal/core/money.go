// Package core holds the expense domain: the entity, its validation rules,
// money handling and the aggregates the charts are built from.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a positive amount stored as integer cents.
type Money struct {
	Cents int64
}

var hundred = decimal.NewFromInt(100)

// ParseMoney converts a decimal string to Money with half-up rounding to cents.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Signs, exponents,
// thousands separators and non-positive values are rejected with ErrInvalidAmount.
//
//	ParseMoney("15.50")  -> 1550
//	ParseMoney("12,345") -> 1235
func ParseMoney(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if !isPlainDecimal(s) {
		return Money{}, ErrInvalidAmount
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal rounds d half-up to cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Mul(hundred).Round(0)
	if cents.Sign() <= 0 || !cents.IsInteger() {
		return Money{}, ErrInvalidAmount
	}
	// Guard the int64 conversion
	if cents.GreaterThan(decimal.NewFromInt(1<<62)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// MoneyFromFloat is a convenience for generated amounts; it rounds half-up to cents.
func MoneyFromFloat(f float64) Money {
	return Money{Cents: decimal.NewFromFloat(f).Mul(hundred).Round(0).IntPart()}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// Float64 is meant for display and JSON only; sums are done in cents.
func (m Money) Float64() float64 {
	return m.Decimal().InexactFloat64()
}

// String formats the amount with exactly two decimals, e.g. "15.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func isPlainDecimal(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
