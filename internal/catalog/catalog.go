// Package catalog holds the spreadsheet-sourced product list and the cache
// that memoizes it.
package catalog

import (
	"context"
	"regexp"
	"strings"
)

// Entry is one spreadsheet row after validation.
type Entry struct {
	Code         string   `json:"code"`
	Size         string   `json:"size"`
	Brand        string   `json:"brand"`
	Model        string   `json:"model"`
	Pattern      string   `json:"pattern,omitempty"`
	FactoryPrice int64    `json:"factoryPrice"`
	DotList      []string `json:"dotList"`
	Features     []string `json:"features"`
	ImageURL     string   `json:"imageUrl,omitempty"`
}

// Listable reports whether the entry may appear in search results.
func (e Entry) Listable() bool { return e.FactoryPrice > 0 }

// Source yields the full catalog.
type Source interface {
	Fetch(ctx context.Context) ([]Entry, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Entry, error)

func (f SourceFunc) Fetch(ctx context.Context) ([]Entry, error) { return f(ctx) }

var reSizeToken = regexp.MustCompile(`(?i)^\(?((lt|p)?\d{3}/\d{2}(z?r\d{2}(\.\d)?c?)?|z?r\d{2}(\.\d)?|\d{2,3}(/\d{2,3})?[a-z]{1,2}|\d+)\)?$`)

// DerivePattern builds a pattern label from a model string: size-like tokens
// are dropped and the first two remaining words kept. "Unknown" when nothing
// is left.
func DerivePattern(model string) string {
	var words []string
	for _, w := range strings.Fields(model) {
		if reSizeToken.MatchString(w) {
			continue
		}
		words = append(words, w)
		if len(words) == 2 {
			break
		}
	}
	if len(words) == 0 {
		return "Unknown"
	}
	return strings.Join(words, " ")
}

// PatternOf returns the explicit pattern or, when blank, one derived from the model.
func PatternOf(e Entry) string {
	if p := strings.TrimSpace(e.Pattern); p != "" {
		return p
	}
	return DerivePattern(e.Model)
}
