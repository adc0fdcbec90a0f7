package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNilRegistryIsSafe(t *testing.T) {
	var r *Registry
	r.ObserveSearch(0.1, 3, 1, false)
	r.CacheHit()
	r.CacheMiss()
	r.CatalogFetched(10, nil)
	r.DiscountWrite("code", nil)
	r.Resolved("code")
}

func TestHandlerExposesCounters(t *testing.T) {
	r := NewRegistry()
	r.ObserveSearch(0.2, 4, 3, false)
	r.DiscountWrite("pattern", errors.New("boom"))
	r.Resolved("pattern")

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	out := string(body)

	for _, want := range []string{
		"kingtire_search_total 1",
		"kingtire_merged_products_total 4",
		"kingtire_inventory_missing_total 1",
		`kingtire_discount_writes_total{kind="pattern",result="error"} 1`,
		`kingtire_discount_resolved_total{layer="pattern"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
