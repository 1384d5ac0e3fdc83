package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatAmount renders a decimal amount with two fixed places and its
// currency code, e.g. "125.50 USD".
func FormatAmount(amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
}

// ParseAmount parses a decimal amount from its string form.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount string '%s': %w", s, err)
	}
	return d, nil
}

// WithinPercent reports whether a is within the given fractional tolerance
// of b (e.g. tolerance 0.05 accepts a within 5%% of b). A zero b never
// matches, since any deviation from zero is infinite in relative terms.
func WithinPercent(a, b, tolerance decimal.Decimal) bool {
	if b.IsZero() {
		return false
	}
	diff := a.Sub(b).Abs()
	return diff.Div(b.Abs()).LessThanOrEqual(tolerance)
}
