// internal/integrations/stockpage/stockpage.go
package stockpage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/minhanee-art/kingtire/internal/integrations"
	"github.com/minhanee-art/kingtire/internal/inventory"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
)

// ErrLoginPage is returned when the shop answers with its login form instead
// of the stock table (expired session).
var ErrLoginPage = errors.New("stock page returned a login page")

type Config struct {
	URL        string `json:"url"`    // stock_list_option.php endpoint
	Cookie     string `json:"cookie"` // session cookie forwarded as-is
	TimeoutSec int    `json:"timeout_sec"`
}

type StockPage struct {
	log  zerolog.Logger
	cfg  Config
	http *http.Client
}

func New(log zerolog.Logger, cfg Config) *StockPage {
	sec := cfg.TimeoutSec
	if sec <= 0 {
		sec = 8
	}
	return &StockPage{
		log:  log,
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(sec) * time.Second},
	}
}

// Fetch queries the stock list for sizeQuery. An empty query lists everything
// the shop is willing to return.
func (s *StockPage) Fetch(ctx context.Context, sizeQuery string) ([]inventory.Entry, error) {
	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("stock page url: %w", err)
	}
	if sizeQuery != "" {
		q := u.Query()
		q.Set("sfl", "all")
		q.Set("stx", sizeQuery)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", "kingtire/1.0")
	if s.cfg.Cookie != "" {
		req.Header.Set("Cookie", s.cfg.Cookie)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stock page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stock page: http %d", resp.StatusCode)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("stock page charset: %w", err)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("stock page read: %w", err)
	}
	text := string(raw)
	if isLoginPage(text) {
		return nil, ErrLoginPage
	}

	rows, err := Parse(strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("query", sizeQuery).Int("rows", len(rows)).Msg("stock page parsed")
	return rows, nil
}

func isLoginPage(text string) bool {
	if strings.Contains(text, "login") || strings.Contains(text, "로그인") {
		return true
	}
	return strings.Contains(text, "<!DOCTYPE html>") && !strings.Contains(text, "<table")
}

func factory(log zerolog.Logger, raw json.RawMessage) (inventory.Source, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.URL == "" {
		return nil, errors.New("stockpage: url required")
	}
	return New(log, cfg), nil
}

func init() {
	integrations.RegisterInventory("stockpage", factory)
}
