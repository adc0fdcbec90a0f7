package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the service counters. All helper methods are safe on a nil
// *Registry so components can run without metrics in tests.
type Registry struct {
	reg *prometheus.Registry

	Searches          prometheus.Counter
	SearchFailures    prometheus.Counter
	SearchLatencySec  prometheus.Histogram
	MergedProducts    prometheus.Counter
	InventoryMatched  prometheus.Counter
	InventoryMissing  prometheus.Counter
	CatalogCacheHits  prometheus.Counter
	CatalogCacheMiss  prometheus.Counter
	CatalogFetchError prometheus.Counter
	CatalogEntries    prometheus.Gauge
	DiscountWrites    *prometheus.CounterVec
	DiscountResolved  *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	searches := prometheus.NewCounter(prometheus.CounterOpts{Name: "kingtire_search_total"})
	searchFailures := prometheus.NewCounter(prometheus.CounterOpts{Name: "kingtire_search_failures_total"})
	searchLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "kingtire_search_latency_seconds",
		Buckets: prometheus.DefBuckets,
	})
	merged := prometheus.NewCounter(prometheus.CounterOpts{Name: "kingtire_merged_products_total"})
	matched := prometheus.NewCounter(prometheus.CounterOpts{Name: "kingtire_inventory_matched_total"})
	missing := prometheus.NewCounter(prometheus.CounterOpts{Name: "kingtire_inventory_missing_total"})
	hits := prometheus.NewCounter(prometheus.CounterOpts{Name: "kingtire_catalog_cache_hits_total"})
	miss := prometheus.NewCounter(prometheus.CounterOpts{Name: "kingtire_catalog_cache_misses_total"})
	fetchErr := prometheus.NewCounter(prometheus.CounterOpts{Name: "kingtire_catalog_fetch_errors_total"})
	entries := prometheus.NewGauge(prometheus.GaugeOpts{Name: "kingtire_catalog_entries"})
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "kingtire_discount_writes_total"}, []string{"kind", "result"})
	resolved := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "kingtire_discount_resolved_total"}, []string{"layer"})

	r.MustRegister(searches, searchFailures, searchLatency, merged, matched, missing, hits, miss, fetchErr, entries, writes, resolved)
	return &Registry{
		reg:               r,
		Searches:          searches,
		SearchFailures:    searchFailures,
		SearchLatencySec:  searchLatency,
		MergedProducts:    merged,
		InventoryMatched:  matched,
		InventoryMissing:  missing,
		CatalogCacheHits:  hits,
		CatalogCacheMiss:  miss,
		CatalogFetchError: fetchErr,
		CatalogEntries:    entries,
		DiscountWrites:    writes,
		DiscountResolved:  resolved,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) ObserveSearch(seconds float64, products, matched int, failed bool) {
	if r == nil {
		return
	}
	r.Searches.Inc()
	r.SearchLatencySec.Observe(seconds)
	if failed {
		r.SearchFailures.Inc()
		return
	}
	r.MergedProducts.Add(float64(products))
	r.InventoryMatched.Add(float64(matched))
	r.InventoryMissing.Add(float64(products - matched))
}

func (r *Registry) CacheHit() {
	if r != nil {
		r.CatalogCacheHits.Inc()
	}
}

func (r *Registry) CacheMiss() {
	if r != nil {
		r.CatalogCacheMiss.Inc()
	}
}

func (r *Registry) CatalogFetched(n int, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.CatalogFetchError.Inc()
		return
	}
	r.CatalogEntries.Set(float64(n))
}

func (r *Registry) DiscountWrite(kind string, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.DiscountWrites.WithLabelValues(kind, result).Inc()
}

func (r *Registry) Resolved(layer string) {
	if r != nil {
		r.DiscountResolved.WithLabelValues(layer).Inc()
	}
}
