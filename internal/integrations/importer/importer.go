// Package importer watches a drop folder for distributor rate sheets and
// activates the newest one.
package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/minhanee-art/kingtire/internal/db"
	"github.com/minhanee-art/kingtire/internal/ratesheet"
)

type Config struct {
	WatchDir string `json:"watch_dir"` // e.g. ~/kingtire/rates
	Prefix   string `json:"prefix"`    // only files starting with this, empty = any
	Charset  string `json:"charset"`   // CSV charset label, empty = detect
}

// Ledger remembers which file contents were already imported. *db.Handle
// satisfies it.
type Ledger interface {
	FindImport(sha string) (db.ImportFile, bool, error)
	SaveImport(rec *db.ImportFile) error
}

// ApplyFunc receives every newly loaded sheet.
type ApplyFunc func(t *ratesheet.Table, path string)

type Importer struct {
	log    zerolog.Logger
	cfg    Config
	ledger Ledger
	apply  ApplyFunc

	mu     sync.Mutex
	active string // sha256 of the sheet currently applied
}

// New builds an importer. ledger may be nil, in which case imports are only
// remembered for the life of the process.
func New(log zerolog.Logger, cfg Config, ledger Ledger, apply ApplyFunc) *Importer {
	if ledger == nil {
		ledger = &memLedger{m: map[string]db.ImportFile{}}
	}
	return &Importer{
		log:    log.With().Str("component", "importer").Logger(),
		cfg:    cfg,
		ledger: ledger,
		apply:  apply,
	}
}

// ScanOnce activates the newest rate sheet in the watch folder when its
// content differs from the active one. It reports whether a sheet was applied.
// A file that fails to parse is recorded and retried only once it changes.
func (i *Importer) ScanOnce(ctx context.Context) (bool, error) {
	dir := expandHome(i.cfg.WatchDir)
	path, err := i.newest(dir)
	if err != nil || path == "" {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	sum, size, err := fileSHA256(path)
	if err != nil {
		return false, err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if sum == i.active {
		return false, nil
	}

	rec, seen, err := i.ledger.FindImport(sum)
	if err != nil {
		return false, err
	}
	name := filepath.Base(path)
	if seen && rec.Status == db.ImportFail {
		i.log.Debug().Str("file", name).Msg("file failed before and is unchanged, skipping")
		return false, nil
	}
	if !seen {
		rec = db.ImportFile{Filename: name, SHA256: sum, SizeBytes: size, Status: db.ImportNew}
	}

	t, err := ratesheet.Load(path, i.cfg.Charset)
	if err != nil {
		rec.Status, rec.LastError = db.ImportFail, err.Error()
		if serr := i.ledger.SaveImport(&rec); serr != nil {
			i.log.Error().Err(serr).Str("file", name).Msg("record failed import")
		}
		return false, fmt.Errorf("import %s: %w", name, err)
	}

	now := time.Now()
	rec.Status, rec.LastError, rec.Rows, rec.ProcessedAt = db.ImportDone, "", t.Len(), &now
	if err := i.ledger.SaveImport(&rec); err != nil {
		return false, err
	}
	i.active = sum
	i.apply(t, path)
	i.log.Info().Str("file", name).Int("codes", t.Len()).Uint("import_id", rec.ImportID).Msg("rate sheet imported")
	return true, nil
}

// newest returns the most recently modified candidate file, or "".
func (i *Importer) newest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read watch dir: %w", err)
	}
	var (
		best    string
		bestMod time.Time
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		if i.cfg.Prefix != "" && !strings.HasPrefix(name, i.cfg.Prefix) {
			continue
		}
		// spreadsheet lock files
		if strings.HasPrefix(name, "~$") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best, bestMod = filepath.Join(dir, name), info.ModTime()
		}
	}
	return best, nil
}

func fileSHA256(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

type memLedger struct {
	mu   sync.Mutex
	m    map[string]db.ImportFile
	next uint
}

func (l *memLedger) FindImport(sha string) (db.ImportFile, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.m[sha]
	return rec, ok, nil
}

func (l *memLedger) SaveImport(rec *db.ImportFile) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if rec.ImportID == 0 {
		l.next++
		rec.ImportID = l.next
	}
	l.m[rec.SHA256] = *rec
	return nil
}
