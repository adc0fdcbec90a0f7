// Package inventory describes live stock rows pulled from the supplier shop.
package inventory

import (
	"context"
	"strings"
)

// Entry is one stock row. PartNo, ItID and StID are alternative identifiers;
// a valid row carries at least PartNo or ItID.
type Entry struct {
	PartNo       string `json:"partNo"`
	ItID         string `json:"itId,omitempty"`
	StID         string `json:"stId,omitempty"`
	InternalCode string `json:"internalCode,omitempty"`
	Brand        string `json:"brand"`
	Model        string `json:"model"`
	Size         string `json:"size"`
	TotalStock   int64  `json:"totalStock"`
	SupplyPrice  int64  `json:"supplyPrice"`
}

// Source fetches stock rows for a size query. Results are never cached.
type Source interface {
	Fetch(ctx context.Context, sizeQuery string) ([]Entry, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, sizeQuery string) ([]Entry, error)

func (f SourceFunc) Fetch(ctx context.Context, sizeQuery string) ([]Entry, error) {
	return f(ctx, sizeQuery)
}

// Clean trims identifiers and text fields and clamps negative numbers. It
// returns false for rows that have neither a part number nor an item id.
func Clean(e Entry) (Entry, bool) {
	e.PartNo = strings.TrimSpace(e.PartNo)
	e.ItID = strings.TrimSpace(e.ItID)
	e.StID = strings.TrimSpace(e.StID)
	e.InternalCode = strings.TrimSpace(e.InternalCode)
	e.Brand = strings.TrimSpace(e.Brand)
	e.Model = strings.TrimSpace(e.Model)
	e.Size = strings.TrimSpace(e.Size)
	if e.TotalStock < 0 {
		e.TotalStock = 0
	}
	if e.SupplyPrice < 0 {
		e.SupplyPrice = 0
	}
	if e.PartNo == "" && e.ItID == "" {
		return e, false
	}
	return e, true
}

// Dedupe keeps the first row per brand-model-size-partNo.
func Dedupe(rows []Entry) []Entry {
	seen := make(map[string]struct{}, len(rows))
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		key := r.Brand + "-" + r.Model + "-" + r.Size + "-" + r.PartNo
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
