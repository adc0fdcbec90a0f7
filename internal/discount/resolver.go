package discount

import (
	"strings"

	"github.com/minhanee-art/kingtire/internal/catalog"
	"github.com/minhanee-art/kingtire/internal/metrics"
	"github.com/minhanee-art/kingtire/internal/ratesheet"
)

// Layer names the table that produced a resolution.
type Layer string

const (
	LayerSheet   Layer = "sheet"
	LayerCode    Layer = "code"
	LayerPattern Layer = "pattern"
	LayerSize    Layer = "size"
	LayerModel   Layer = "model"
	LayerNone    Layer = "none"
)

// RateSheet is the read-only bulk import consulted before the manual tables.
type RateSheet interface {
	Lookup(code string) (ratesheet.Row, bool)
}

// DefaultSheetColumns maps the distributor sheet's columns to grades.
var DefaultSheetColumns = map[Grade]string{
	Grade3:  "A",
	Grade4:  "B",
	Grade5:  "C",
	GradeDC: "D",
}

// Identity is what the resolver knows about a product.
type Identity struct {
	Code    string
	Brand   string
	Pattern string // blank is derived from Model, like the admin pattern groups
	Model   string
	Size    string
}

type Resolution struct {
	Rate  float64 `json:"rate"`
	Layer Layer   `json:"layer"`
}

type Options struct {
	SheetColumns map[Grade]string
	// LegacySizeFallback derives the size key from the product code when no
	// size is supplied. Codes are rarely sizes, so this is off by default.
	LegacySizeFallback bool
	Metrics            *metrics.Registry
}

type Resolver struct {
	table   *Table
	sheet   RateSheet
	columns map[Grade]string
	legacy  bool
	metrics *metrics.Registry
}

// NewResolver wires the tables. sheet may be nil.
func NewResolver(t *Table, sheet RateSheet, opts Options) *Resolver {
	cols := opts.SheetColumns
	if cols == nil {
		cols = DefaultSheetColumns
	}
	return &Resolver{
		table:   t,
		sheet:   sheet,
		columns: cols,
		legacy:  opts.LegacySizeFallback,
		metrics: opts.Metrics,
	}
}

// Resolve walks sheet, code, pattern, size and model in that order. The first
// configured value wins, including an explicit 0; nothing configured yields 0.
func (r *Resolver) Resolve(id Identity, g Grade) Resolution {
	res := r.resolve(id, g)
	r.metrics.Resolved(string(res.Layer))
	return res
}

func (r *Resolver) resolve(id Identity, g Grade) Resolution {
	code := strings.TrimSpace(id.Code)

	if r.sheet != nil && code != "" {
		if col, ok := r.columns[g]; ok {
			if row, ok := r.sheet.Lookup(code); ok {
				if v := row.Column(col); v != nil && *v != 0 {
					return Resolution{Rate: *v, Layer: LayerSheet}
				}
			}
		}
	}

	pattern := catalog.PatternOf(catalog.Entry{Pattern: id.Pattern, Model: id.Model})
	size := id.Size
	if strings.TrimSpace(size) == "" && r.legacy {
		size = code
	}

	layers := []struct {
		key   Key
		layer Layer
	}{
		{CodeKey(code), LayerCode},
		{PatternKey(id.Brand, pattern), LayerPattern},
		{SizeKey(size), LayerSize},
		{ModelKey(id.Brand, id.Model), LayerModel},
	}
	for _, l := range layers {
		if l.key.Validate() != nil {
			continue
		}
		if v, ok := r.table.Rate(l.key, g); ok {
			return Resolution{Rate: v, Layer: l.layer}
		}
	}
	return Resolution{Rate: 0, Layer: LayerNone}
}
