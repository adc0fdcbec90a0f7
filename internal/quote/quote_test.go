package quote

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/minhanee-art/kingtire/internal/discount"
	"github.com/minhanee-art/kingtire/internal/merge"
)

func product(code string, price int64, rate float64) merge.Product {
	return merge.Product{Code: code, Brand: "Hankook", Model: "Ventus " + code, Size: "245/45R18", FactoryPrice: price, DiscountRate: rate, TotalStock: 8}
}

func TestCartAddAndQuantity(t *testing.T) {
	s := NewSessions().New(discount.Grade3)

	if l := s.Add(product("A1", 10000, 10)); l.Quantity != DefaultQuantity {
		t.Fatalf("new line qty=%d", l.Quantity)
	}
	if l := s.Add(product("A1", 10000, 10)); l.Quantity != DefaultQuantity+1 {
		t.Fatalf("re-add qty=%d", l.Quantity)
	}
	l, err := s.AddQuantity("A1", -10)
	if err != nil || l.Quantity != 1 {
		t.Fatalf("qty floor: qty=%d err=%v", l.Quantity, err)
	}
	if _, err := s.AddQuantity("nope", 1); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("err=%v", err)
	}
}

func TestCartTotalsAndOverride(t *testing.T) {
	s := NewSessions().New(discount.Grade3)
	s.Add(product("A1", 999, 33))   // 669 x4
	s.Add(product("A2", 10000, 10)) // 9000 x4
	if got, want := s.Total(), int64(669*4+9000*4); got != want {
		t.Fatalf("total=%d want=%d", got, want)
	}

	r := 50.0
	l, err := s.SetLineDiscount("A2", &r)
	if err != nil || l.UnitPrice() != 5000 || l.Subtotal() != 20000 {
		t.Fatalf("override line=%+v err=%v", l, err)
	}
	big := 150.0
	l, _ = s.SetLineDiscount("A2", &big)
	if l.Rate() != 100 || l.UnitPrice() != 0 {
		t.Fatalf("override not clamped: %+v", l)
	}
	l, _ = s.SetLineDiscount("A2", nil)
	if l.Rate() != 10 {
		t.Fatalf("override not cleared: %v", l.Rate())
	}

	if err := s.Remove("A1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove("A1"); !errors.Is(err, ErrLineNotFound) {
		t.Fatalf("err=%v", err)
	}
	if len(s.Lines()) != 1 {
		t.Fatalf("lines=%d", len(s.Lines()))
	}
	s.Clear()
	if s.Total() != 0 || len(s.Lines()) != 0 {
		t.Fatalf("cart not cleared")
	}
}

func TestManualRatesAndCustomer(t *testing.T) {
	s := NewSessions().New(discount.GradeDC)
	s.SetMode(merge.ModeManual)
	s.SetManualRate("A1", "12.5%")
	s.SetManualRate("A2", "7")
	s.SetManualRate("A2", "")

	c := s.Customer()
	if c.Grade != discount.GradeDC || c.Mode != merge.ModeManual {
		t.Fatalf("customer=%+v", c)
	}
	if c.Manual["A1"] != 12.5 {
		t.Fatalf("A1=%v", c.Manual["A1"])
	}
	if _, ok := c.Manual["A2"]; ok {
		t.Fatalf("empty input should clear the rate")
	}
	// the returned map is a copy
	c.Manual["A1"] = 99
	if s.Customer().Manual["A1"] != 12.5 {
		t.Fatalf("session state leaked")
	}
}

func TestModeSwitchReprices(t *testing.T) {
	s := NewSessions().New(discount.Grade3)
	p := product("A1", 10000, 10)
	p.OfficialDiscount = 10
	s.Add(p)
	s.ToggleCompare(p)

	s.SetMode(merge.ModeManual)
	if got := s.Lines()[0].UnitPrice(); got != 10000 {
		t.Fatalf("manual without rate: unit=%d", got)
	}
	s.SetManualRate("A1", "25")
	if got := s.Lines()[0].UnitPrice(); got != 7500 {
		t.Fatalf("manual 25%%: unit=%d", got)
	}
	if got := s.CompareList()[0].FinalPrice; got != 7500 {
		t.Fatalf("compare final=%d", got)
	}

	s.SetMode(merge.ModeStore)
	if got := s.Lines()[0].UnitPrice(); got != 9000 {
		t.Fatalf("store mode: unit=%d", got)
	}
}

func TestCompareLimit(t *testing.T) {
	s := NewSessions().New(discount.Grade3)
	for i, code := range []string{"A1", "A2", "A3", "A4"} {
		if in, err := s.ToggleCompare(product(code, 1000, 0)); err != nil || !in {
			t.Fatalf("%d: in=%v err=%v", i, in, err)
		}
	}
	if _, err := s.ToggleCompare(product("A5", 1000, 0)); !errors.Is(err, ErrCompareFull) {
		t.Fatalf("err=%v", err)
	}
	if in, _ := s.ToggleCompare(product("A2", 1000, 0)); in {
		t.Fatalf("second toggle should remove")
	}
	if len(s.CompareList()) != 3 {
		t.Fatalf("compare=%d", len(s.CompareList()))
	}
}

func TestSessionsSweep(t *testing.T) {
	ss := NewSessions()
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	ss.now = func() time.Time { return now }

	old := ss.New(discount.Grade3)
	now = now.Add(time.Hour)
	fresh := ss.New(discount.Grade4)

	if n := ss.Sweep(30 * time.Minute); n != 1 {
		t.Fatalf("swept=%d", n)
	}
	if _, err := ss.Get(old.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("old session still present")
	}
	if _, err := ss.Get(fresh.ID); err != nil {
		t.Fatalf("fresh: %v", err)
	}
	if old.ID == fresh.ID || len(fresh.ID) != 36 {
		t.Fatalf("ids: %q %q", old.ID, fresh.ID)
	}
}

func TestQuoteText(t *testing.T) {
	s := NewSessions().New(discount.Grade3)
	s.Add(product("A1", 123456, 10))
	s.AddQuantity("A1", -2)

	got := QuoteText(s.Lines(), Branding{Company: "킹타이어", BankAccount: "기업 000-000"})
	for _, want := range []string{
		"[킹타이어] 타이어 견적 안내\n\n",
		"1. Hankook Ventus A1\n",
		"   규격: 245/45R18\n",
		"   단가: 111,110원 (할인율: 10%)\n",
		"   수량: 2개\n",
		"   소계: 222,220원\n\n",
		"총 합계금액: 222,220원\n",
		"-----------------------------\n기업 000-000",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("quote text missing %q in:\n%s", want, got)
		}
	}
	if QuoteText(nil, Branding{}) != "" {
		t.Fatalf("empty cart should render nothing")
	}
}

func TestCompareText(t *testing.T) {
	a := product("A1", 200000, 12.5)
	a.DotList = []string{"#1-1: 2423", "#1-2: 2519"}
	b := product("A2", 100000, 0)
	got := CompareText([]merge.Product{a, b}, Branding{Company: "킹타이어", Phone: "053-000-0000", BankAccount: "기업 1"})
	for _, want := range []string{
		"[킹타이어] 타이어 재고/단가 안내\n\n",
		"   공장도: 200,000원\n",
		"   할인율: 12.5%\n",
		"   판매가: 175,000원\n",
		"   재고: 8개\n",
		"   DOT: #1-1: 2423, #1-2: 2519\n",
		"2. Hankook Ventus A2\n",
		"   DOT: -\n",
		"Tel. 053-000-0000\n기업 1",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("compare text missing %q in:\n%s", want, got)
		}
	}
}
