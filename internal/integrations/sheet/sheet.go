// internal/integrations/sheet/sheet.go
package sheet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/minhanee-art/kingtire/internal/catalog"
	"github.com/minhanee-art/kingtire/internal/integrations"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
)

type Config struct {
	URL        string `json:"url"`     // published CSV export
	Path       string `json:"path"`    // local CSV, used when URL is empty
	Charset    string `json:"charset"` // overrides the response charset, e.g. "euc-kr"
	TimeoutSec int    `json:"timeout_sec"`
}

type Sheet struct {
	log  zerolog.Logger
	cfg  Config
	http *http.Client
}

func New(log zerolog.Logger, cfg Config) *Sheet {
	sec := cfg.TimeoutSec
	if sec <= 0 {
		sec = 15
	}
	return &Sheet{
		log:  log,
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(sec) * time.Second},
	}
}

// Fetch downloads (or opens) the sheet and parses every valid row.
func (s *Sheet) Fetch(ctx context.Context) ([]catalog.Entry, error) {
	if s.cfg.URL == "" {
		if s.cfg.Path == "" {
			return nil, fmt.Errorf("sheet: neither url nor path configured")
		}
		f, err := os.Open(s.cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sheet: %w", err)
		}
		defer f.Close()
		return s.parse(f, "")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")
	req.Header.Set("User-Agent", "kingtire/1.0")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheet fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheet fetch: http %d", resp.StatusCode)
	}
	return s.parse(resp.Body, resp.Header.Get("Content-Type"))
}

func (s *Sheet) parse(r io.Reader, contentType string) ([]catalog.Entry, error) {
	// Exports from Korean spreadsheet tools are often EUC-KR.
	if s.cfg.Charset != "" {
		contentType = "text/csv; charset=" + s.cfg.Charset
	}
	body, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("sheet charset: %w", err)
	}
	entries, dropped, err := Parse(body)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("rows", len(entries)).Int("dropped", dropped).Msg("sheet parsed")
	return entries, nil
}

func factory(log zerolog.Logger, raw json.RawMessage) (catalog.Source, error) {
	var cfg Config
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, err
		}
	}
	return New(log, cfg), nil
}

func init() {
	integrations.RegisterCatalog("sheet", factory)
}
