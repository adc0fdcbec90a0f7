// Package quote keeps per-session carts, comparison lists and manual rates,
// and renders them as shareable text.
package quote

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/minhanee-art/kingtire/internal/discount"
	"github.com/minhanee-art/kingtire/internal/merge"
	"github.com/minhanee-art/kingtire/internal/pricing"
)

const (
	DefaultQuantity = 4
	MaxCompare      = 4
)

var (
	ErrLineNotFound    = errors.New("cart line not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrCompareFull     = errors.New("comparison list is full")
)

// Line is one cart row. DiscountOverride, when set, replaces the product's
// effective rate for this line only.
type Line struct {
	Product          merge.Product `json:"product"`
	Quantity         int           `json:"quantity"`
	DiscountOverride *float64      `json:"discountOverride,omitempty"`
}

func (l Line) Rate() float64 {
	if l.DiscountOverride != nil {
		return *l.DiscountOverride
	}
	return l.Product.DiscountRate
}

func (l Line) UnitPrice() int64 { return pricing.FinalPrice(l.Product.FactoryPrice, l.Rate()) }

func (l Line) Subtotal() int64 {
	return pricing.LineTotal(l.Product.FactoryPrice, l.Rate(), l.Quantity)
}

// Session is one operator's working state. Safe for concurrent use.
type Session struct {
	ID string

	mu      sync.Mutex
	grade   discount.Grade
	mode    merge.Mode
	manual  map[string]float64
	lines   []Line
	compare []merge.Product
	touched time.Time
}

func newSession(id string, g discount.Grade, now time.Time) *Session {
	return &Session{
		ID:      id,
		grade:   g,
		mode:    merge.ModeStore,
		manual:  map[string]float64{},
		touched: now,
	}
}

// Customer is the pricing context to pass to merge.Engine.Search.
func (s *Session) Customer() merge.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := make(map[string]float64, len(s.manual))
	for k, v := range s.manual {
		m[k] = v
	}
	return merge.Customer{Grade: s.grade, Mode: s.mode, Manual: m}
}

func (s *Session) SetGrade(g discount.Grade) {
	s.mu.Lock()
	s.grade = g
	s.mu.Unlock()
}

// SetMode switches the discount source and reprices the cart to match.
func (s *Session) SetMode(m merge.Mode) {
	s.mu.Lock()
	s.mode = m
	s.repriceLocked()
	s.mu.Unlock()
}

// SetManualRate records the operator's rate for code. Empty input clears it,
// which reads back as 0.
func (s *Session) SetManualRate(code, input string) {
	code = strings.TrimSpace(code)
	v, ok := pricing.ParseRate(input)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !ok {
		delete(s.manual, code)
	} else {
		s.manual[code] = v
	}
	s.repriceLocked()
}

// repriceLocked recomputes the effective rate of every cart line and
// comparison entry from the current mode and manual rates.
func (s *Session) repriceLocked() {
	c := merge.Customer{Grade: s.grade, Mode: s.mode, Manual: s.manual}
	products := make([]merge.Product, len(s.lines))
	for i, l := range s.lines {
		products[i] = l.Product
	}
	merge.Reprice(products, c)
	for i := range s.lines {
		s.lines[i].Product = products[i]
	}
	merge.Reprice(s.compare, c)
}

// Add puts p in the cart with DefaultQuantity, or bumps an existing line by one.
func (s *Session) Add(p merge.Product) Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(p.Code); i >= 0 {
		s.lines[i].Quantity++
		return s.lines[i]
	}
	l := Line{Product: p, Quantity: DefaultQuantity}
	s.lines = append(s.lines, l)
	return l
}

// AddQuantity applies delta; the quantity never drops below 1.
func (s *Session) AddQuantity(code string, delta int) (Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(code)
	if i < 0 {
		return Line{}, ErrLineNotFound
	}
	s.lines[i].Quantity = max(1, s.lines[i].Quantity+delta)
	return s.lines[i], nil
}

// SetLineDiscount overrides the rate of one line; nil restores the product rate.
func (s *Session) SetLineDiscount(code string, rate *float64) (Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(code)
	if i < 0 {
		return Line{}, ErrLineNotFound
	}
	if rate == nil {
		s.lines[i].DiscountOverride = nil
	} else {
		v := pricing.ClampRate(*rate)
		s.lines[i].DiscountOverride = &v
	}
	return s.lines[i], nil
}

func (s *Session) Remove(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(code)
	if i < 0 {
		return ErrLineNotFound
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return nil
}

func (s *Session) Clear() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
}

// Lines returns a copy of the cart.
func (s *Session) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.lines...)
}

func (s *Session) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return total(s.lines)
}

func total(lines []Line) int64 {
	pl := make([]pricing.Line, len(lines))
	for i, l := range lines {
		pl[i] = pricing.Line{Base: l.Product.FactoryPrice, Rate: l.Rate(), Quantity: l.Quantity}
	}
	return pricing.QuoteTotal(pl)
}

// ToggleCompare adds p to the comparison list, or removes it when present.
// It reports whether p is now in the list.
func (s *Session) ToggleCompare(p merge.Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.compare {
		if c.Code == p.Code {
			s.compare = append(s.compare[:i], s.compare[i+1:]...)
			return false, nil
		}
	}
	if len(s.compare) >= MaxCompare {
		return false, ErrCompareFull
	}
	s.compare = append(s.compare, p)
	return true, nil
}

func (s *Session) CompareList() []merge.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]merge.Product(nil), s.compare...)
}

func (s *Session) find(code string) int {
	code = strings.TrimSpace(code)
	for i, l := range s.lines {
		if l.Product.Code == code {
			return i
		}
	}
	return -1
}
