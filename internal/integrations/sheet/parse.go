package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/minhanee-art/kingtire/internal/catalog"
)

// column aliases, matched against lower-cased trimmed headers
var (
	codeCols    = []string{"code", "코드"}
	sizeCols    = []string{"size", "규격"}
	brandCols   = []string{"brand", "브랜드"}
	modelCols   = []string{"model", "상품명"}
	patternCols = []string{"pattern", "patten", "패턴"}
	priceCols   = []string{"factory price", "공장도", "price"}
	featureCols = []string{"features", "특징"}
)

type header struct {
	index map[string]int // normalized name -> first column
	image []int          // image-like columns, last non-empty wins
	dots  []dotCol
}

type dotCol struct {
	idx   int
	label string
}

func readHeader(rec []string) header {
	h := header{index: make(map[string]int, len(rec))}
	for i, raw := range rec {
		if i == 0 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		name := strings.ToLower(strings.TrimSpace(raw))
		if _, ok := h.index[name]; !ok {
			h.index[name] = i
		}
		if strings.Contains(name, "image") || strings.Contains(name, "이미지") || name == "img" || name == "photo" {
			h.image = append(h.image, i)
		}
		if strings.Contains(raw, "#") {
			h.dots = append(h.dots, dotCol{idx: i, label: strings.TrimSpace(strings.Replace(raw, "DOT ", "", 1))})
		}
	}
	return h
}

func (h header) get(rec []string, aliases []string) string {
	for _, a := range aliases {
		i, ok := h.index[a]
		if !ok || i >= len(rec) {
			continue
		}
		if v := strings.TrimSpace(rec[i]); v != "" {
			return v
		}
	}
	return ""
}

// Parse reads a catalog CSV with a header row. Rows missing code, brand, size
// or model are dropped and counted.
func Parse(r io.Reader) (entries []catalog.Entry, dropped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []catalog.Entry{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("sheet header: %w", err)
	}
	h := readHeader(first)

	entries = []catalog.Entry{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, dropped, fmt.Errorf("sheet row: %w", err)
		}
		if blank(rec) {
			continue
		}
		e, ok := h.entry(rec)
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, e)
	}
	return entries, dropped, nil
}

func (h header) entry(rec []string) (catalog.Entry, bool) {
	e := catalog.Entry{
		Code:         h.get(rec, codeCols),
		Size:         h.get(rec, sizeCols),
		Brand:        h.get(rec, brandCols),
		Model:        h.get(rec, modelCols),
		Pattern:      h.get(rec, patternCols),
		FactoryPrice: digits(h.get(rec, priceCols)),
		DotList:      []string{},
		Features:     splitFeatures(h.get(rec, featureCols)),
	}
	if e.Code == "" || e.Brand == "" || e.Size == "" || e.Model == "" {
		return e, false
	}

	for _, i := range h.image {
		if i < len(rec) {
			e.ImageURL = strings.TrimSpace(rec[i])
		}
	}
	if !validImage(e.ImageURL) {
		e.ImageURL = ""
	}

	for _, d := range h.dots {
		if d.idx >= len(rec) {
			continue
		}
		v := strings.TrimSpace(rec[d.idx])
		if v == "" || v == "0" || v == "-" {
			continue
		}
		e.DotList = append(e.DotList, d.label+": "+v)
	}
	return e, true
}

func validImage(u string) bool {
	return strings.HasPrefix(u, "http") || strings.HasPrefix(u, "/") || strings.HasPrefix(u, "data:")
}

func splitFeatures(s string) []string {
	out := []string{}
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// digits keeps only 0-9 and parses the result; garbage yields 0.
func digits(s string) int64 {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	n, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
