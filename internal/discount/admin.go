package discount

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/minhanee-art/kingtire/internal/catalog"
	"github.com/minhanee-art/kingtire/internal/metrics"
	"github.com/minhanee-art/kingtire/internal/pricing"
	"github.com/rs/zerolog"
)

// DefaultAllowedBrands limits the admin pattern list to the brands the shop
// manages discounts for. Korean and latin spellings both appear in sheets.
var DefaultAllowedBrands = []string{
	"Hankook", "한국타이어", "Michelin", "미쉐린", "Goodyear", "굿이어",
	"Dunlop", "던롭", "Yokohama", "요코하마", "Continental", "콘티넨탈", "Pirelli", "피렐리",
}

// Admin writes discount entries. Every write hits the store first; the
// in-memory table only changes once the store accepted it.
type Admin struct {
	table   *Table
	store   Store
	log     zerolog.Logger
	metrics *metrics.Registry

	mu sync.Mutex // serializes read-modify-write of an entry
}

func NewAdmin(t *Table, s Store, log zerolog.Logger, m *metrics.Registry) *Admin {
	return &Admin{table: t, store: s, log: log, metrics: m}
}

// Set writes one grade of one entry. The rate is clamped to [0,100]. Writing
// the value already stored is a no-op.
func (a *Admin) Set(ctx context.Context, k Key, g Grade, rate float64) error {
	if err := k.Validate(); err != nil {
		return err
	}
	if _, ok := knownGrades[g]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidGrade, g)
	}
	rate = pricing.ClampRate(rate)

	a.mu.Lock()
	defer a.mu.Unlock()

	if cur, ok := a.table.Rate(k, g); ok && cur == rate {
		return nil
	}
	next := a.table.Rates(k)
	next[g] = rate

	err := a.store.Upsert(ctx, k, next)
	a.metrics.DiscountWrite(string(k.Kind), err)
	if err != nil {
		a.log.Error().Err(err).Str("key", k.String()).Str("grade", string(g)).Msg("discount write failed")
		return fmt.Errorf("store %s: %w", k, err)
	}
	a.table.put(k, next)
	a.log.Info().Str("key", k.String()).Str("grade", string(g)).Float64("rate", rate).Msg("discount set")
	return nil
}

func (a *Admin) SetCodeDiscount(ctx context.Context, code string, g Grade, rate float64) error {
	return a.Set(ctx, CodeKey(code), g, rate)
}

func (a *Admin) SetPatternDiscount(ctx context.Context, brand, pattern string, g Grade, rate float64) error {
	return a.Set(ctx, PatternKey(brand, pattern), g, rate)
}

func (a *Admin) SetSizeDiscount(ctx context.Context, size string, g Grade, rate float64) error {
	return a.Set(ctx, SizeKey(size), g, rate)
}

func (a *Admin) SetModelDiscount(ctx context.Context, brand, model string, g Grade, rate float64) error {
	return a.Set(ctx, ModelKey(brand, model), g, rate)
}

// ApplyAllGrades writes rate for every managed grade of k. It stops at the
// first failure; grades written before it stay written.
func (a *Admin) ApplyAllGrades(ctx context.Context, k Key, rate float64) error {
	for _, g := range ManagedGrades {
		if err := a.Set(ctx, k, g, rate); err != nil {
			return err
		}
	}
	return nil
}

// ApplyRates writes every grade present in rates to k, managed grades first
// in display order and the rest by name. An unknown grade fails with
// ErrInvalidGrade before anything is written.
func (a *Admin) ApplyRates(ctx context.Context, k Key, rates Rates) error {
	order := make([]Grade, 0, len(rates))
	for _, g := range ManagedGrades {
		if _, ok := rates[g]; ok {
			order = append(order, g)
		}
	}
	var rest []Grade
	for g := range rates {
		if _, ok := knownGrades[g]; !ok {
			return fmt.Errorf("%w: %q", ErrInvalidGrade, g)
		}
		if !isManaged(g) {
			rest = append(rest, g)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })

	for _, g := range append(order, rest...) {
		if err := a.Set(ctx, k, g, rates[g]); err != nil {
			return err
		}
	}
	return nil
}

func isManaged(g Grade) bool {
	for _, m := range ManagedGrades {
		if g == m {
			return true
		}
	}
	return false
}

// ApplyBrandPatterns writes rates to every pattern group of brand ("" or
// "All" selects every brand). It returns how many groups were fully written
// before an error, if any.
func (a *Admin) ApplyBrandPatterns(ctx context.Context, brand string, groups []PatternGroup, rates Rates) (int, error) {
	all := brand == "" || strings.EqualFold(brand, "All")
	n := 0
	for _, pg := range groups {
		if !all && pg.Brand != brand {
			continue
		}
		if err := a.ApplyRates(ctx, PatternKey(pg.Brand, pg.Pattern), rates); err != nil {
			return n, err
		}
		n++
	}
	a.log.Info().Str("brand", brand).Int("patterns", n).Msg("bulk pattern discount applied")
	return n, nil
}

// All returns every entry, ordered.
func (a *Admin) All() []Record { return a.table.Snapshot() }

// PatternGroup is one brand|pattern row of the admin discount screen.
type PatternGroup struct {
	Brand   string `json:"brand"`
	Pattern string `json:"pattern"`
	Model   string `json:"model"` // first model seen, for reference
	Key     string `json:"patternKey"`
}

// PatternGroups lists distinct brand|pattern pairs among priced entries whose
// brand matches allowed (nil allows every brand). A blank pattern is derived
// from the model (catalog.PatternOf).
func PatternGroups(entries []catalog.Entry, allowed []string) []PatternGroup {
	seen := make(map[string]struct{})
	var out []PatternGroup
	for _, e := range entries {
		if !e.Listable() {
			continue
		}
		brand := strings.TrimSpace(e.Brand)
		if brand == "" || !brandAllowed(brand, allowed) {
			continue
		}
		pattern := catalog.PatternOf(e)
		key := PatternKey(brand, pattern).ID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, PatternGroup{Brand: brand, Pattern: pattern, Model: e.Model, Key: key})
	}
	return out
}

// brandAllowed matches when either name contains the other, ignoring case.
func brandAllowed(brand string, allowed []string) bool {
	if allowed == nil {
		return true
	}
	b := strings.ToLower(brand)
	for _, a := range allowed {
		al := strings.ToLower(a)
		if strings.Contains(b, al) || strings.Contains(al, b) {
			return true
		}
	}
	return false
}

// Sizes returns the distinct non-blank sizes, sorted.
func Sizes(entries []catalog.Entry) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, e := range entries {
		s := strings.TrimSpace(e.Size)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ParseRateList reads "10,12,15,5" into rates for grades, in order. Blank
// items become 0.
func ParseRateList(s string, grades []Grade) Rates {
	out := Rates{}
	parts := strings.Split(s, ",")
	for i, g := range grades {
		if i >= len(parts) {
			break
		}
		v, _ := pricing.ParseRate(parts[i])
		out[g] = v
	}
	return out
}
