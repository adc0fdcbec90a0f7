// internal/integrations/woocommerce/woocommerce.go
package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/minhanee-art/kingtire/internal/integrations"
	"github.com/minhanee-art/kingtire/internal/inventory"
	"github.com/minhanee-art/kingtire/internal/sizes"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type Config struct {
	BaseURL     string `json:"base_url"` // https://shop.example.com
	Username    string `json:"username"` // Basic Auth user, usually the consumer key
	ConsumerSec string `json:"consumer_secret"`
	PerPage     int    `json:"per_page"`
	MaxPages    int    `json:"max_pages"`
	TimeoutSec  int    `json:"timeout_sec"`
}

// Woo reads stock from the WooCommerce REST API. SKU maps to the part number,
// the product id to the item id.
type Woo struct {
	log  zerolog.Logger
	cfg  Config
	http *http.Client
}

func New(log zerolog.Logger, cfg Config) *Woo {
	if cfg.PerPage <= 0 || cfg.PerPage > 100 {
		cfg.PerPage = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 20
	}
	sec := cfg.TimeoutSec
	if sec <= 0 {
		sec = 15
	}
	return &Woo{
		log:  log,
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(sec) * time.Second},
	}
}

func (w *Woo) Fetch(ctx context.Context, sizeQuery string) ([]inventory.Entry, error) {
	base, err := url.Parse(w.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("woo base url: %w", err)
	}
	base.Path = "/wp-json/wc/v3/products"

	var out []inventory.Entry
	for page := 1; page <= w.cfg.MaxPages; page++ {
		q := base.Query()
		q.Set("status", "publish")
		q.Set("per_page", strconv.Itoa(w.cfg.PerPage))
		q.Set("page", strconv.Itoa(page))
		if sizeQuery != "" {
			q.Set("search", sizeQuery)
		}
		base.RawQuery = q.Encode()

		items, err := w.page(ctx, base.String(), page)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}
		for _, p := range items {
			e, ok := toEntry(p)
			if !ok {
				continue
			}
			// Woo's search also hits titles and descriptions.
			if sizeQuery != "" && e.Size != "" && !sizes.Contains(e.Size, sizeQuery) {
				continue
			}
			out = append(out, e)
		}
		if len(items) < w.cfg.PerPage {
			break
		}
	}

	w.log.Debug().Str("query", sizeQuery).Int("rows", len(out)).Msg("woo stock fetched")
	return inventory.Dedupe(out), nil
}

func (w *Woo) page(ctx context.Context, u string, page int) ([]wcProduct, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "kingtire/1.0")
	req.SetBasicAuth(w.cfg.Username, w.cfg.ConsumerSec)

	resp, err := w.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("woo page %d: %w", page, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("woo page %d: http %d", page, resp.StatusCode)
	}

	var items []wcProduct
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}
	return items, nil
}

func toEntry(p wcProduct) (inventory.Entry, bool) {
	e := inventory.Entry{
		PartNo:      p.SKU,
		ItID:        strconv.FormatInt(p.ID, 10),
		Brand:       p.attr("brand", "Brand", "브랜드"),
		Model:       p.Name,
		Size:        p.attr("size", "Size", "규격"),
		SupplyPrice: parsePrice(p.RegularPrice),
	}
	if p.ID == 0 {
		e.ItID = ""
	}
	if p.ManageStock && p.StockQty != nil && *p.StockQty > 0 {
		e.TotalStock = int64(*p.StockQty)
	}
	if strings.Contains(e.Model, "단종") {
		return e, false
	}
	return inventory.Clean(e)
}

// Woo keeps prices as strings; won has no minor unit.
func parsePrice(s string) int64 {
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return d.Floor().IntPart()
}

func factory(log zerolog.Logger, raw json.RawMessage) (inventory.Source, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("woocommerce: base_url required")
	}
	return New(log, cfg), nil
}

func init() {
	integrations.RegisterInventory("woocommerce", factory)
}
