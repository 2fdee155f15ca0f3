// Package money represents monetary amounts as exact integer minor units.
// Amounts enter and leave the system as decimals with at most two fractional digits.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by an Amount.
const Scale = 2

var (
	ErrNegativeAmount = errors.New("amount must be non-negative")
	ErrTooPrecise     = errors.New("amount must have at most 2 decimal places")
	ErrOutOfRange     = errors.New("amount is out of range")
)

// Max is the largest amount a transaction or a contact balance may carry: 10 trillion in major units.
// Sums of up to 9223 amounts of this size still fit in an int64.
const Max Amount = 1_000_000_000_000_000

var maxAmount = decimal.New(int64(Max), -Scale)

// Amount is a monetary value in minor units (1/100 of the currency unit).
type Amount int64

// FromDecimal converts a decimal value into minor units.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	if !d.Equal(d.Truncate(Scale)) {
		return 0, ErrTooPrecise
	}
	if d.GreaterThan(maxAmount) {
		return 0, ErrOutOfRange
	}
	return Amount(d.Shift(Scale).IntPart()), nil
}

// Add returns a+b, failing with ErrOutOfRange when the sum leaves the int64 range.
func Add(a, b Amount) (Amount, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrOutOfRange
	}
	return sum, nil
}

// Parse reads a decimal string such as "12.50".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// FromFloat converts a floating point value, rounding half away from zero to two places.
// Only legacy documents that stored money as floats should need this.
func FromFloat(f float64) (Amount, error) {
	return FromDecimal(decimal.NewFromFloat(f).Round(Scale))
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String renders the amount without trailing zeros, e.g. "500" or "12.5".
func (a Amount) String() string {
	return a.Decimal().String()
}

// MarshalJSON renders the amount as a JSON number in major units.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	v, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
