package discount

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Table is the in-memory copy of every rate table. Readers never block each
// other; writes go through Admin.
type Table struct {
	mu sync.RWMutex
	m  map[Key]Rates
}

func NewTable() *Table {
	return &Table{m: make(map[Key]Rates)}
}

// Load replaces the contents with records.
func (t *Table) Load(records []Record) {
	m := make(map[Key]Rates, len(records))
	for _, r := range records {
		if r.Key.Validate() != nil {
			continue
		}
		m[r.Key] = r.Rates.clone()
	}
	t.mu.Lock()
	t.m = m
	t.mu.Unlock()
}

// LoadFrom reads every record from s.
func (t *Table) LoadFrom(ctx context.Context, s Store) error {
	recs, err := s.All(ctx)
	if err != nil {
		return fmt.Errorf("load discounts: %w", err)
	}
	t.Load(recs)
	return nil
}

// Rate returns the configured rate, distinguishing "unset" from 0.
func (t *Table) Rate(k Key, g Grade) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.m[k][g]
	return v, ok
}

// Rates returns a copy of the entry for k, or an empty map.
func (t *Table) Rates(k Key) Rates {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.m[k].clone()
}

func (t *Table) put(k Key, r Rates) {
	t.mu.Lock()
	t.m[k] = r
	t.mu.Unlock()
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.m)
}

// Snapshot copies all entries, ordered by kind then id.
func (t *Table) Snapshot() []Record {
	t.mu.RLock()
	out := make([]Record, 0, len(t.m))
	for k, r := range t.m {
		out = append(out, Record{Key: k, Rates: r.clone()})
	}
	t.mu.RUnlock()

	order := map[Kind]int{KindCode: 0, KindPattern: 1, KindSize: 2, KindModel: 3}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Kind != b.Kind {
			return order[a.Kind] < order[b.Kind]
		}
		return a.ID < b.ID
	})
	return out
}
