package pricing

import (
	"math"
	"testing"
)

func TestFinalPrice(t *testing.T) {
	cases := []struct {
		base int64
		rate float64
		want int64
	}{
		{10000, 10, 9000},
		{10000, 0, 10000},
		{999, 33, 669},
		{100, 7, 93},
		{125000, 12.5, 109375},
		{99999, 33.3, 66699},
		{10000, 100, 0},
		{10000, 150, 0},
		{10000, -5, 10000},
		{0, 10, 0},
		{-100, 10, 0},
	}
	for _, c := range cases {
		if got := FinalPrice(c.base, c.rate); got != c.want {
			t.Fatalf("FinalPrice(%d, %v)=%d want=%d", c.base, c.rate, got, c.want)
		}
	}
}

func TestFinalPrice_NaNRate(t *testing.T) {
	if got := FinalPrice(5000, math.NaN()); got != 5000 {
		t.Fatalf("NaN rate should be treated as 0, got %d", got)
	}
}

func TestQuoteTotal_FloorsPerLine(t *testing.T) {
	lines := []Line{
		{Base: 999, Rate: 33, Quantity: 2},  // 669 * 2
		{Base: 1001, Rate: 50, Quantity: 3}, // 500 * 3
		{Base: 5000, Rate: 0, Quantity: 0},  // ignored
	}
	if got, want := QuoteTotal(lines), int64(669*2+500*3); got != want {
		t.Fatalf("QuoteTotal=%d want=%d", got, want)
	}
}

func TestParseRate(t *testing.T) {
	if _, ok := ParseRate(""); ok {
		t.Fatalf("empty input must be unset")
	}
	if _, ok := ParseRate("   "); ok {
		t.Fatalf("blank input must be unset")
	}
	if _, ok := ParseRate("abc"); ok {
		t.Fatalf("digit-free input must be unset")
	}
	if v, ok := ParseRate("12.5%"); !ok || v != 12.5 {
		t.Fatalf("got %v ok=%v", v, ok)
	}
	if v, ok := ParseRate("0"); !ok || v != 0 {
		t.Fatalf("explicit zero must be set, got %v ok=%v", v, ok)
	}
	if v, ok := ParseRate("250"); !ok || v != 100 {
		t.Fatalf("expected clamp to 100, got %v", v)
	}
}

func TestFormatWon(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		1234567: "1,234,567",
		-45000:  "-45,000",
		100000:  "100,000",
	}
	for in, want := range cases {
		if got := FormatWon(in); got != want {
			t.Fatalf("FormatWon(%d)=%q want=%q", in, got, want)
		}
	}
}
