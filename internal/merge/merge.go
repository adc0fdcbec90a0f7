// Package merge joins the spreadsheet catalog with live stock for one size
// query and prices every product for a customer.
package merge

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/minhanee-art/kingtire/internal/catalog"
	"github.com/minhanee-art/kingtire/internal/discount"
	"github.com/minhanee-art/kingtire/internal/inventory"
	"github.com/minhanee-art/kingtire/internal/metrics"
	"github.com/minhanee-art/kingtire/internal/pricing"
	"github.com/minhanee-art/kingtire/internal/sizes"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultTimeout = 8 * time.Second

// Mode selects where the effective discount comes from.
type Mode string

const (
	// ModeStore applies the resolved grade discount.
	ModeStore Mode = "store"
	// ModeManual applies rates the operator typed in for this session.
	ModeManual Mode = "manual"
)

func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeManual)) {
		return ModeManual
	}
	return ModeStore
}

// Customer is the caller's pricing context.
type Customer struct {
	Grade  discount.Grade
	Mode   Mode
	Manual map[string]float64 // code -> rate, manual mode only
}

// Product is one search result.
type Product struct {
	Code         string   `json:"code"`
	Brand        string   `json:"brand"`
	Model        string   `json:"model"`
	Pattern      string   `json:"pattern,omitempty"`
	Size         string   `json:"size"`
	ItID         string   `json:"itId,omitempty"`
	StID         string   `json:"stId,omitempty"`
	InternalCode string   `json:"internalCode,omitempty"`
	FactoryPrice int64    `json:"factoryPrice"`
	SupplyPrice  int64    `json:"supplyPrice"`
	TotalStock   int64    `json:"totalStock"`
	DotList      []string `json:"dotList"`
	Features     []string `json:"features"`
	ImageURL     string   `json:"imageUrl,omitempty"`
	Matched      bool     `json:"matched"`

	OfficialDiscount float64        `json:"officialDiscount"`
	DiscountSource   discount.Layer `json:"discountSource"`
	DiscountRate     float64        `json:"discountRate"`
	FinalPrice       int64          `json:"finalPrice"`
}

type Options struct {
	Timeout time.Duration
	Metrics *metrics.Registry
}

type Engine struct {
	catalog   catalog.Source
	inventory inventory.Source
	resolver  *discount.Resolver
	log       zerolog.Logger
	timeout   time.Duration
	metrics   *metrics.Registry
}

func New(cat catalog.Source, inv inventory.Source, r *discount.Resolver, log zerolog.Logger, opts Options) *Engine {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Engine{
		catalog:   cat,
		inventory: inv,
		resolver:  r,
		log:       log,
		timeout:   opts.Timeout,
		metrics:   opts.Metrics,
	}
}

// Search returns priced products whose size contains query, most stock
// first. Sizes are compared by their digits only, so a query without digits
// matches every size. A blank query returns an empty list without touching
// the sources. A failing or slow source yields an empty list, not an error;
// the only error is the caller's own context ending.
func (e *Engine) Search(ctx context.Context, query string, c Customer) ([]Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Product{}, nil
	}
	norm := sizes.Normalize(query)
	start := time.Now()

	fctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var (
		entries []catalog.Entry
		stock   []inventory.Entry
	)
	g, gctx := errgroup.WithContext(fctx)
	g.Go(func() error {
		var err error
		entries, err = e.catalog.Fetch(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stock, err = e.inventory.Fetch(gctx, query)
		return err
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.log.Warn().Err(err).Str("query", query).Dur("took", time.Since(start)).Msg("search sources failed, returning empty list")
		e.metrics.ObserveSearch(time.Since(start).Seconds(), 0, 0, true)
		return []Product{}, nil
	}

	ix := buildIndex(e.log, stock)
	out := make([]Product, 0, len(entries))
	matched, dbgNoMatch := 0, 0
	for _, ent := range entries {
		if !ent.Listable() || !strings.Contains(sizes.Normalize(ent.Size), norm) {
			continue
		}
		inv, ok := ix.lookup(ent.Code)
		if ok {
			matched++
		} else if dbgNoMatch < maxDbgLines {
			e.log.Debug().Str("code", ent.Code).Str("size", ent.Size).Msg("linker: no stock row for catalog code")
			dbgNoMatch++
		}
		p := join(ent, inv, ok)
		if Discontinued(p) {
			continue
		}
		res := e.resolver.Resolve(discount.Identity{
			Code:    p.Code,
			Brand:   p.Brand,
			Pattern: p.Pattern,
			Model:   p.Model,
			Size:    ent.Size,
		}, c.Grade)
		p.OfficialDiscount = res.Rate
		p.DiscountSource = res.Layer
		out = append(out, p)
	}

	Reprice(out, c)
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalStock > out[j].TotalStock })

	e.log.Debug().
		Str("query", query).
		Int("catalog", len(entries)).
		Int("stock", len(stock)).
		Int("products", len(out)).
		Int("matched", matched).
		Dur("took", time.Since(start)).
		Msg("search merged")
	e.metrics.ObserveSearch(time.Since(start).Seconds(), len(out), matched, false)
	return out, nil
}

func join(ent catalog.Entry, inv inventory.Entry, ok bool) Product {
	p := Product{
		Code:         strings.TrimSpace(ent.Code),
		Brand:        ent.Brand,
		Model:        ent.Model,
		Pattern:      catalog.PatternOf(ent),
		Size:         ent.Size,
		InternalCode: strings.TrimSpace(ent.Code),
		FactoryPrice: ent.FactoryPrice,
		DotList:      ent.DotList,
		Features:     ent.Features,
		ImageURL:     ent.ImageURL,
		Matched:      ok,
	}
	if p.DotList == nil {
		p.DotList = []string{}
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if !ok {
		return p
	}
	if inv.Size != "" {
		p.Size = inv.Size
	}
	if strings.TrimSpace(p.Brand) == "" {
		p.Brand = inv.Brand
	}
	if strings.TrimSpace(p.Model) == "" {
		p.Model = inv.Model
	}
	p.ItID = inv.ItID
	p.StID = inv.StID
	p.TotalStock = inv.TotalStock
	p.SupplyPrice = inv.SupplyPrice
	return p
}

// Reprice sets DiscountRate and FinalPrice for c's mode without refetching,
// e.g. when the operator toggles store mode.
func Reprice(products []Product, c Customer) {
	for i := range products {
		p := &products[i]
		if c.Mode == ModeManual {
			p.DiscountRate = pricing.ClampRate(c.Manual[p.Code])
		} else {
			p.DiscountRate = p.OfficialDiscount
		}
		p.FinalPrice = pricing.FinalPrice(p.FactoryPrice, p.DiscountRate)
	}
}

// Discontinued reports whether brand or model carries a discontinued marker.
func Discontinued(p Product) bool {
	for _, s := range []string{p.Brand, p.Model} {
		if strings.Contains(s, "단종") || strings.Contains(strings.ToLower(s), "discontinued") {
			return true
		}
	}
	return false
}

// brandAliases groups brands sold together; Laufenn is Hankook's second line.
var brandAliases = map[string][]string{
	"hankook": {"hankook", "laufenn", "한국", "라우펜"},
	"kumho":   {"kumho", "금호"},
	"nexen":   {"nexen", "넥센"},
}

// FilterBrand keeps products whose brand contains brand, case-insensitively.
// "" and "All" keep everything.
func FilterBrand(products []Product, brand string) []Product {
	brand = strings.ToLower(strings.TrimSpace(brand))
	if brand == "" || brand == "all" {
		return products
	}
	needles, ok := brandAliases[brand]
	if !ok {
		needles = []string{brand}
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		b := strings.ToLower(p.Brand)
		for _, n := range needles {
			if strings.Contains(b, n) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}
