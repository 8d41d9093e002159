package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatEUR formats an amount as a string like "€ 1.234,50".
// Uses dot as thousands separator and comma for decimals (Italian format).
func FormatEUR(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	neg := rounded.IsNegative()

	s := rounded.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	// Pre-allocate: digits + separators + sign and symbol
	b.Grow(len(s) + len(intPart)/3 + 4)
	if neg {
		b.WriteString("-€ ")
	} else {
		b.WriteString("€ ")
	}

	// Insert separators from the left.
	rem := len(intPart) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(intPart[:rem])
	for i := rem; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte(',')
	b.WriteString(fracPart)

	return b.String()
}
