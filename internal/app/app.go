// Package app wires config, storage, adapters and engines into one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/minhanee-art/kingtire/internal/catalog"
	conf "github.com/minhanee-art/kingtire/internal/config"
	"github.com/minhanee-art/kingtire/internal/db"
	"github.com/minhanee-art/kingtire/internal/discount"
	"github.com/minhanee-art/kingtire/internal/httpapi"
	"github.com/minhanee-art/kingtire/internal/integrations"
	"github.com/minhanee-art/kingtire/internal/integrations/importer"
	"github.com/minhanee-art/kingtire/internal/merge"
	"github.com/minhanee-art/kingtire/internal/metrics"
	"github.com/minhanee-art/kingtire/internal/quote"
	"github.com/minhanee-art/kingtire/internal/ratesheet"
	"github.com/minhanee-art/kingtire/internal/store"
	"github.com/minhanee-art/kingtire/internal/syncer"

	// adapters register themselves
	_ "github.com/minhanee-art/kingtire/internal/integrations/sheet"
	_ "github.com/minhanee-art/kingtire/internal/integrations/stockpage"
	_ "github.com/minhanee-art/kingtire/internal/integrations/woocommerce"
)

const refreshedAtKey = "catalog.refreshed_at"

type App struct {
	Dir      string
	Config   *conf.Config
	Log      zerolog.Logger
	DB       *db.Handle // nil unless the store is SQL backed
	Metrics  *metrics.Registry
	Catalog  *catalog.Cache
	Table    *discount.Table
	Admin    *discount.Admin
	Resolver *discount.Resolver
	Engine   *merge.Engine
	Sessions *quote.Sessions
	Syncer   *syncer.Syncer

	sheet   *sheetHolder
	closers []io.Closer
}

// sheetHolder lets the rate sheet be reloaded while searches read it.
type sheetHolder struct {
	p atomic.Pointer[ratesheet.Table]
}

func (h *sheetHolder) Lookup(code string) (ratesheet.Row, bool) {
	return h.p.Load().Lookup(code)
}

// DataDir returns (and creates) the per-user application directory.
func DataDir(name string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(base, name)
	if err := os.MkdirAll(p, 0o755); err != nil {
		return "", err
	}
	return p, nil
}

// New builds every component from cfg. dir holds the default database files.
func New(ctx context.Context, dir string, cfg *conf.Config, log zerolog.Logger) (*App, error) {
	a := &App{
		Dir:      dir,
		Config:   cfg,
		Log:      log,
		Metrics:  metrics.NewRegistry(),
		Table:    discount.NewTable(),
		Sessions: quote.NewSessions(),
		sheet:    &sheetHolder{},
	}

	st, err := a.openStore(cfg.Store)
	if err != nil {
		a.Close()
		return nil, err
	}
	if err := a.Table.LoadFrom(ctx, st); err != nil {
		a.Close()
		return nil, err
	}
	log.Info().Int("entries", a.Table.Len()).Str("backend", cfg.Store.Backend).Msg("discount table loaded")

	if err := a.loadRateSheet(); err != nil {
		a.Close()
		return nil, err
	}

	catSrc, err := integrations.BuildCatalog(log, cfg.Catalog, cfg.Integrations[cfg.Catalog])
	if err != nil {
		a.Close()
		return nil, err
	}
	invSrc, err := integrations.BuildInventory(log, cfg.Inventory, cfg.Integrations[cfg.Inventory])
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Catalog = catalog.NewCache(catSrc, cfg.CatalogTTL(), log, a.Metrics)
	a.Admin = discount.NewAdmin(a.Table, st, log, a.Metrics)
	a.Resolver = discount.NewResolver(a.Table, a.sheet, discount.Options{
		SheetColumns:       sheetColumns(cfg.RateSheet.Columns),
		LegacySizeFallback: cfg.Discount.LegacySizeFallback,
		Metrics:            a.Metrics,
	})
	a.Engine = merge.New(a.Catalog, invSrc, a.Resolver, log, merge.Options{
		Timeout: cfg.FetchTimeout(),
		Metrics: a.Metrics,
	})
	jobs := []syncer.Job{
		{Name: "catalog", Run: a.refreshCatalog},
		{Name: "sessions", Run: a.sweepSessions},
	}
	if rs := cfg.RateSheet; rs.WatchDir != "" {
		var ledger importer.Ledger
		if a.DB != nil {
			ledger = a.DB
		}
		imp := importer.New(log, importer.Config{WatchDir: rs.WatchDir, Prefix: rs.Prefix, Charset: rs.Charset}, ledger,
			func(t *ratesheet.Table, _ string) { a.sheet.p.Store(t) })
		jobs = append(jobs, syncer.Job{Name: "ratesheet", Run: func(ctx context.Context) error {
			_, err := imp.ScanOnce(ctx)
			return err
		}})
	}
	a.Syncer = syncer.New(log, cfg.SyncInterval(), jobs...)
	return a, nil
}

func (a *App) openStore(sc conf.StoreConfig) (discount.Store, error) {
	backend := strings.ToLower(strings.TrimSpace(sc.Backend))
	switch backend {
	case "memory":
		return store.NewMemory(), nil
	case "pebble":
		dir := sc.DSN
		if dir == "" {
			dir = filepath.Join(a.Dir, "discounts.pebble")
		}
		p, err := store.OpenPebble(dir)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p)
		return p, nil
	}

	dsn := sc.DSN
	if dsn == "" && (backend == "" || backend == db.DriverSQLite || backend == db.DriverSQLiteCgo) {
		dsn = filepath.Join(a.Dir, "kingtire.db")
	}
	h, err := db.Open(backend, dsn)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, h)
	if err := h.Migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	a.DB = h
	a.Log.Info().Str("driver", h.Driver).Msg("DB ready")
	return store.NewGorm(h), nil
}

func (a *App) loadRateSheet() error {
	rs := a.Config.RateSheet
	if rs.Path == "" {
		if rs.WatchDir == "" {
			a.sheet.p.Store(nil)
		}
		return nil
	}
	t, err := ratesheet.Load(rs.Path, rs.Charset)
	if err != nil {
		return fmt.Errorf("rate sheet: %w", err)
	}
	a.sheet.p.Store(t)
	a.Log.Info().Str("path", rs.Path).Int("codes", t.Len()).Msg("rate sheet loaded")
	return nil
}

func sheetColumns(m map[string]string) map[discount.Grade]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[discount.Grade]string, len(m))
	for name, col := range m {
		g, err := discount.ParseGrade(name)
		if err != nil {
			continue
		}
		out[g] = strings.ToUpper(strings.TrimSpace(col))
	}
	return out
}

func (a *App) refreshCatalog(ctx context.Context) error {
	entries, err := a.Catalog.Refresh(ctx)
	if err != nil {
		return err
	}
	if a.DB != nil {
		if err := a.DB.PutKV(refreshedAtKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
			a.Log.Warn().Err(err).Msg("record refresh time")
		}
	}
	a.Log.Debug().Int("entries", len(entries)).Msg("catalog refreshed")
	return nil
}

func (a *App) sweepSessions(context.Context) error {
	if n := a.Sessions.Sweep(a.Config.SessionIdle()); n > 0 {
		a.Log.Info().Int("sessions", n).Msg("idle sessions dropped")
	}
	return nil
}

// LastRefresh reports when the catalog was last refreshed by the syncer,
// surviving restarts when the store is SQL backed.
func (a *App) LastRefresh() (time.Time, bool) {
	if a.DB == nil {
		_, at := a.Catalog.Snapshot()
		return at, !at.IsZero()
	}
	v, found, err := a.DB.GetKV(refreshedAtKey)
	if err != nil || !found {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, err == nil
}

// Reload applies a re-read config: sync interval and rate sheet path.
// Adapter, store and watch folder changes need a restart.
func (a *App) Reload(cfg *conf.Config) error {
	a.Config = cfg
	a.Syncer.UpdateInterval(cfg.SyncInterval())
	return a.loadRateSheet()
}

func (a *App) HTTP() *httpapi.Server {
	return httpapi.New(httpapi.Deps{
		Engine:        a.Engine,
		Catalog:       a.Catalog,
		Admin:         a.Admin,
		Sessions:      a.Sessions,
		Metrics:       a.Metrics,
		Branding:      a.Config.Branding,
		AllowedBrands: a.AllowedBrands(),
		Log:           a.Log,
	})
}

// AllowedBrands is the admin pattern-list brand filter.
func (a *App) AllowedBrands() []string {
	if a.Config.Discount.AllowedBrands == nil {
		return discount.DefaultAllowedBrands
	}
	return a.Config.Discount.AllowedBrands
}

func (a *App) Close() error {
	if a.Syncer != nil {
		a.Syncer.Stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}
