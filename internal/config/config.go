// internal/config/config.go
package conf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/minhanee-art/kingtire/internal/quote"
)

// Main application config, stored as config.json in the app data dir.
type Config struct {
	Listen              string `json:"listen"`
	AutoStart           bool   `json:"auto_start"` // start the catalog refresher at boot
	SyncIntervalSeconds int    `json:"sync_interval_seconds"`
	CatalogTTLSeconds   int    `json:"catalog_ttl_seconds"`
	FetchTimeoutSeconds int    `json:"fetch_timeout_seconds"`
	SessionIdleMinutes  int    `json:"session_idle_minutes"`
	LogLevel            string `json:"log_level"`

	// Adapter names looked up in the integrations registry; their settings
	// live under Integrations[name].
	Catalog      string                     `json:"catalog"`
	Inventory    string                     `json:"inventory"`
	Integrations map[string]json.RawMessage `json:"integrations"`

	Store     StoreConfig     `json:"store"`
	RateSheet RateSheetConfig `json:"rate_sheet"`
	Discount  DiscountConfig  `json:"discount"`
	Branding  quote.Branding  `json:"branding"`
}

type StoreConfig struct {
	Backend string `json:"backend"` // sqlite, sqlite3, mysql, postgres, pebble, memory
	DSN     string `json:"dsn"`     // file path for sqlite/pebble, empty = app data dir
}

type RateSheetConfig struct {
	Path     string            `json:"path"` // .csv or .xlsx, empty = none
	Charset  string            `json:"charset"`
	Columns  map[string]string `json:"columns"`   // grade -> column letter
	WatchDir string            `json:"watch_dir"` // drop folder; the newest sheet there wins over Path
	Prefix   string            `json:"prefix"`    // drop folder file name prefix
}

type DiscountConfig struct {
	LegacySizeFallback bool     `json:"legacy_size_fallback"`
	AllowedBrands      []string `json:"allowed_brands"`
}

// Default returns a config that runs against local files only.
func Default() *Config {
	sheet, _ := json.Marshal(map[string]any{"url": "", "path": "catalog.csv", "timeout_sec": 15})
	stock, _ := json.Marshal(map[string]any{"url": "https://example.com/shop/stock_list_option.php", "cookie": "", "timeout_sec": 8})
	woo, _ := json.Marshal(map[string]any{"base_url": "https://example.com", "username": "ck_xxx", "consumer_secret": "cs_xxx"})
	return &Config{
		Listen:              ":8080",
		AutoStart:           true,
		SyncIntervalSeconds: 60,
		CatalogTTLSeconds:   60,
		FetchTimeoutSeconds: 8,
		SessionIdleMinutes:  240,
		LogLevel:            "info",
		Catalog:             "sheet",
		Inventory:           "stockpage",
		Integrations: map[string]json.RawMessage{
			"sheet":       sheet,
			"stockpage":   stock,
			"woocommerce": woo,
		},
		Store: StoreConfig{Backend: "sqlite"},
		RateSheet: RateSheetConfig{
			Columns: map[string]string{"3": "A", "4": "B", "5": "C", "DC": "D"},
		},
		Branding: quote.Branding{Company: "킹타이어"},
	}
}

// LoadOrCreate reads path, writing Default() there first when it is missing.
// The bool reports whether the file was created.
func LoadOrCreate(path string) (*Config, bool, error) {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := Save(path, cfg); err != nil {
				return nil, false, fmt.Errorf("write default config: %w", err)
			}
			return cfg, true, nil
		}
		return nil, false, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	cfg.Integrations = nil
	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, false, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Integrations == nil {
		cfg.Integrations = map[string]json.RawMessage{}
	}
	return cfg, false, nil
}

func Save(path string, cfg *Config) error {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// UnmarshalIntegration decodes one adapter's settings into v.
func (c *Config) UnmarshalIntegration(name string, v any) error {
	raw, ok := c.Integrations[name]
	if !ok {
		return fmt.Errorf("integration %q missing from config", name)
	}
	return json.Unmarshal(raw, v)
}

// ApplyEnv loads envFile (if present) into the environment without
// overriding variables already set, then applies KINGTIRE_* overrides.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("KINGTIRE_LISTEN", &c.Listen)
	str("KINGTIRE_LOG_LEVEL", &c.LogLevel)
	str("KINGTIRE_CATALOG", &c.Catalog)
	str("KINGTIRE_INVENTORY", &c.Inventory)
	str("KINGTIRE_STORE_BACKEND", &c.Store.Backend)
	str("KINGTIRE_STORE_DSN", &c.Store.DSN)
	str("KINGTIRE_RATE_SHEET", &c.RateSheet.Path)
	str("KINGTIRE_RATE_SHEET_DIR", &c.RateSheet.WatchDir)
	str("KINGTIRE_BANK_ACCOUNT", &c.Branding.BankAccount)
	for _, e := range []error{
		num("KINGTIRE_CATALOG_TTL_SECONDS", &c.CatalogTTLSeconds),
		num("KINGTIRE_FETCH_TIMEOUT_SECONDS", &c.FetchTimeoutSeconds),
		num("KINGTIRE_SYNC_INTERVAL_SECONDS", &c.SyncIntervalSeconds),
		flag("KINGTIRE_AUTO_START", &c.AutoStart),
		flag("KINGTIRE_LEGACY_SIZE_FALLBACK", &c.Discount.LegacySizeFallback),
	} {
		if e != nil {
			return e
		}
	}
	return nil
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

func (c *Config) CatalogTTL() time.Duration   { return seconds(c.CatalogTTLSeconds, 60) }
func (c *Config) FetchTimeout() time.Duration { return seconds(c.FetchTimeoutSeconds, 8) }
func (c *Config) SyncInterval() time.Duration { return seconds(c.SyncIntervalSeconds, 60) }
func (c *Config) SessionIdle() time.Duration  { return seconds(c.SessionIdleMinutes*60, 4*3600) }
