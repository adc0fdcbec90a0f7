// Package pricing turns a factory price and a discount percentage into the
// price shown to the customer.
package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ClampRate bounds a discount percentage to [0,100]. NaN counts as 0.
func ClampRate(rate float64) float64 {
	switch {
	case math.IsNaN(rate) || rate < 0:
		return 0
	case rate > 100:
		return 100
	default:
		return rate
	}
}

// FinalPrice returns floor(base * (1 - rate/100)). It never rounds up and never
// goes below zero; the arithmetic is done in decimal so 10000 at 10% is 9000,
// not 8999.
func FinalPrice(base int64, rate float64) int64 {
	if base <= 0 {
		return 0
	}
	r := decimal.NewFromFloat(ClampRate(rate))
	return decimal.NewFromInt(base).
		Mul(hundred.Sub(r)).
		Div(hundred).
		Floor().
		IntPart()
}

// Line is one priced quote row.
type Line struct {
	Base     int64
	Rate     float64
	Quantity int
}

// LineTotal is the floored unit price times quantity.
func LineTotal(base int64, rate float64, qty int) int64 {
	if qty <= 0 {
		return 0
	}
	return FinalPrice(base, rate) * int64(qty)
}

// QuoteTotal sums per-line totals. Each unit price is floored on its own;
// there is no cross-line rounding adjustment.
func QuoteTotal(lines []Line) int64 {
	var total int64
	for _, l := range lines {
		total += LineTotal(l.Base, l.Rate, l.Quantity)
	}
	return total
}

// ParseRate coerces operator input like "12", "12.5%" or " 7 " into a clamped
// rate. An empty (or digit-free) input means "no value yet" and returns ok=false.
func ParseRate(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return ClampRate(v), true
}

// FormatWon formats an amount with comma thousands separators: 1234567 -> "1,234,567".
func FormatWon(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	s := strconv.FormatInt(amount, 10)
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + 1)
	if neg {
		b.WriteByte('-')
	}

	rem := len(s) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
