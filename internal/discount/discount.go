// Package discount resolves and administers the grade discount tables.
//
// Four independent tables are keyed by product code, brand|pattern, size
// digits and brand|model. Each entry maps a customer grade to a percentage.
// A grade that is absent from an entry is different from an explicit 0: the
// former falls through to the next table, the latter stops the walk.
package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minhanee-art/kingtire/internal/sizes"
)

var (
	ErrInvalidKey   = errors.New("invalid discount key")
	ErrInvalidGrade = errors.New("invalid grade")
)

type Grade string

const (
	GradePending Grade = "PENDING"
	GradeNormal  Grade = "NORMAL"
	Grade3       Grade = "3"
	Grade4       Grade = "4"
	Grade5       Grade = "5"
	GradeDC      Grade = "DC"
	GradeMaster  Grade = "MASTER"
	GradeAdmin   Grade = "ADMIN"
)

// ManagedGrades are the grades the admin bulk tools write, in display order.
var ManagedGrades = []Grade{Grade3, Grade4, Grade5, GradeDC, GradeMaster}

var knownGrades = map[Grade]struct{}{
	GradePending: {}, GradeNormal: {}, Grade3: {}, Grade4: {}, Grade5: {},
	GradeDC: {}, GradeMaster: {}, GradeAdmin: {},
}

// ParseGrade accepts any known grade, case-insensitively. Blank is NORMAL.
func ParseGrade(s string) (Grade, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return GradeNormal, nil
	}
	g := Grade(s)
	if _, ok := knownGrades[g]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	return g, nil
}

type Kind string

const (
	KindCode    Kind = "code"
	KindPattern Kind = "pattern"
	KindSize    Kind = "size"
	KindModel   Kind = "model"
)

// Kinds in resolution order.
var Kinds = []Kind{KindCode, KindPattern, KindSize, KindModel}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindCode, KindPattern, KindSize, KindModel:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidKey, s)
}

// Key addresses one entry. ID has the shape "<code>", "brand|pattern",
// "SIZE|<digits>" or "brand|model" depending on Kind.
type Key struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`
}

func (k Key) String() string { return string(k.Kind) + ":" + k.ID }

func CodeKey(code string) Key {
	return Key{Kind: KindCode, ID: strings.TrimSpace(code)}
}

func PatternKey(brand, pattern string) Key {
	return Key{Kind: KindPattern, ID: pair(brand, pattern)}
}

// SizeKey normalizes size to its digits, so "245/45R18" and "2454518" share an entry.
func SizeKey(size string) Key {
	return Key{Kind: KindSize, ID: "SIZE|" + sizes.Normalize(size)}
}

func ModelKey(brand, model string) Key {
	return Key{Kind: KindModel, ID: pair(brand, model)}
}

func pair(a, b string) string {
	return strings.TrimSpace(a) + "|" + strings.TrimSpace(b)
}

// Validate reports ErrInvalidKey for keys with a blank component.
func (k Key) Validate() error {
	switch k.Kind {
	case KindCode:
		if k.ID != "" {
			return nil
		}
	case KindSize:
		if d, ok := strings.CutPrefix(k.ID, "SIZE|"); ok && d != "" && sizes.Normalize(d) == d {
			return nil
		}
	case KindPattern, KindModel:
		a, b, ok := strings.Cut(k.ID, "|")
		if ok && strings.TrimSpace(a) != "" && strings.TrimSpace(b) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidKey, k)
}

// Rates maps grade to percentage. A missing grade means "not configured".
type Rates map[Grade]float64

func (r Rates) clone() Rates {
	out := make(Rates, len(r))
	for g, v := range r {
		out[g] = v
	}
	return out
}

// Record is one table entry as exchanged with a Store.
type Record struct {
	Key   Key   `json:"key"`
	Rates Rates `json:"rates"`
}

// Store persists rate tables. Upsert replaces the whole Rates for the key.
type Store interface {
	Get(ctx context.Context, key Key) (Rates, bool, error)
	Upsert(ctx context.Context, key Key, rates Rates) error
	All(ctx context.Context) ([]Record, error)
}
