package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app", "config.json")

	cfg, created, err := LoadOrCreate(path)
	if err != nil || !created {
		t.Fatalf("first load: created=%v err=%v", created, err)
	}
	if cfg.Catalog != "sheet" || cfg.Store.Backend != "sqlite" || cfg.CatalogTTL() != time.Minute {
		t.Fatalf("defaults: %+v", cfg)
	}

	cfg.Listen = ":9090"
	cfg.Discount.LegacySizeFallback = true
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	again, created, err := LoadOrCreate(path)
	if err != nil || created {
		t.Fatalf("second load: created=%v err=%v", created, err)
	}
	if again.Listen != ":9090" || !again.Discount.LegacySizeFallback {
		t.Fatalf("reloaded: %+v", again)
	}

	var sheet struct {
		Path string `json:"path"`
	}
	if err := again.UnmarshalIntegration("sheet", &sheet); err != nil || sheet.Path != "catalog.csv" {
		t.Fatalf("sheet=%+v err=%v", sheet, err)
	}
	if err := again.UnmarshalIntegration("nope", &sheet); err == nil {
		t.Fatalf("expected missing integration error")
	}
}

func TestLoadBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadOrCreate(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := filepath.Join(t.TempDir(), ".env")
	content := "KINGTIRE_STORE_BACKEND=pebble\nKINGTIRE_CATALOG_TTL_SECONDS=5\nKINGTIRE_LEGACY_SIZE_FALLBACK=true\n"
	if err := os.WriteFile(env, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"KINGTIRE_STORE_BACKEND", "KINGTIRE_CATALOG_TTL_SECONDS", "KINGTIRE_LEGACY_SIZE_FALLBACK"} {
		k := k
		old, had := os.LookupEnv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			} else {
				os.Unsetenv(k)
			}
		})
		os.Unsetenv(k)
	}
	t.Setenv("KINGTIRE_LISTEN", ":7000")

	cfg := Default()
	if err := cfg.ApplyEnv(env); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Store.Backend != "pebble" || cfg.CatalogTTL() != 5*time.Second || !cfg.Discount.LegacySizeFallback || cfg.Listen != ":7000" {
		t.Fatalf("cfg=%+v", cfg)
	}

	if err := Default().ApplyEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
	t.Setenv("KINGTIRE_FETCH_TIMEOUT_SECONDS", "soon")
	if err := Default().ApplyEnv(""); err == nil {
		t.Fatalf("expected bad number error")
	}
}
