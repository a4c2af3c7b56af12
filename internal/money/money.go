// Package money parses and allocates fixed-point currency amounts.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nuclear-hardware/hms/internal/model"
)

// Places is the number of decimal places kept for every amount.
const Places = 2

// Parse reads a user-supplied amount. It accepts at most two decimal places
// and never rounds silently.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", model.ErrValidation)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a valid amount", model.ErrValidation, s)
	}
	if d.Exponent() < -Places && !d.Equal(d.Round(Places)) {
		return decimal.Zero, fmt.Errorf("%w: %q has more than %d decimal places", model.ErrValidation, s, Places)
	}
	return d.Round(Places), nil
}

// ParsePositive parses an amount that must be greater than zero.
func ParsePositive(field, s string) (decimal.Decimal, error) {
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s must be greater than zero", model.ErrValidation, field)
	}
	return d, nil
}

// ParseOptional parses an amount that defaults to zero when blank.
func ParseOptional(field, s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := Parse(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s cannot be negative", model.ErrValidation, field)
	}
	return d, nil
}

// Check rejects amounts with more than two significant decimal places. It is
// used for amounts that arrive already decoded, such as JSON numbers.
func Check(field string, amounts ...decimal.Decimal) error {
	for _, d := range amounts {
		if !d.Equal(d.Round(Places)) {
			return fmt.Errorf("%w: %s has more than %d decimal places", model.ErrValidation, field, Places)
		}
	}
	return nil
}

// Format renders an amount with exactly two decimal places.
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}

// Sum adds all amounts.
func Sum(amounts []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Allocate splits total across len(weights) shares in proportion to weights.
// Every share but the last is rounded half-even to two places; the last share
// takes the exact remainder so the shares always sum to total. When all
// weights are zero the split is even.
func Allocate(weights []decimal.Decimal, total decimal.Decimal) []decimal.Decimal {
	n := len(weights)
	if n == 0 {
		return nil
	}

	sum := Sum(weights)
	shares := make([]decimal.Decimal, n)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		var share decimal.Decimal
		if sum.IsZero() {
			share = total.Div(decimal.NewFromInt(int64(n))).RoundBank(Places)
		} else {
			share = weights[i].Mul(total).Div(sum).RoundBank(Places)
		}
		shares[i] = share
		allocated = allocated.Add(share)
	}
	shares[n-1] = total.Sub(allocated)
	return shares
}
