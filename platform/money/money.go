// Package money handles euro amounts stored as integer cents.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var hundred = decimal.NewFromInt(100)

// ParseEuros parses a euro amount such as "25", "25.5" or "€1,250.00" into cents.
// More than two decimal places is an error rather than a silent rounding.
func ParseEuros(raw string) (int64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "€")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("amount is empty")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return 0, fmt.Errorf("amount %q has more than two decimal places", raw)
	}
	return d.Mul(hundred).IntPart(), nil
}

// ApplyBps returns cents * bps / 10000 rounded half away from zero.
func ApplyBps(cents int64, bps int) int64 {
	return decimal.NewFromInt(cents).
		Mul(decimal.NewFromInt(int64(bps))).
		Div(decimal.NewFromInt(10000)).
		Round(0).
		IntPart()
}

// Format renders cents as a euro string like "€1,250.00" (English grouping).
func Format(cents int64) string {
	p := message.NewPrinter(language.English)
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + p.Sprintf("€%d.%02d", cents/100, cents%100)
}
