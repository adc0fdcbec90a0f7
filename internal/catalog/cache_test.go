package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingSource struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
	entries []Entry
}

func (s *countingSource) Fetch(ctx context.Context) ([]Entry, error) {
	s.calls.Add(1)
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.entries, nil
}

func TestCache_ServesWithinTTL(t *testing.T) {
	src := &countingSource{entries: []Entry{{Code: "A1"}}}
	c := NewCache(src, time.Minute, zerolog.Nop(), nil)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	if _, err := c.Fetch(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	now = now.Add(30 * time.Second)
	if _, err := c.Fetch(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := src.calls.Load(); got != 1 {
		t.Fatalf("source calls=%d want=1", got)
	}

	now = now.Add(31 * time.Second)
	if _, err := c.Fetch(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("expired cache should refetch, calls=%d", got)
	}
}

func TestCache_RefreshBypassesTTL(t *testing.T) {
	src := &countingSource{entries: []Entry{{Code: "A1"}}}
	c := NewCache(src, time.Hour, zerolog.Nop(), nil)
	ctx := context.Background()

	_, _ = c.Fetch(ctx)
	if _, err := c.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("calls=%d want=2", got)
	}
}

func TestCache_ConcurrentMissesShareOneFetch(t *testing.T) {
	src := &countingSource{entries: []Entry{{Code: "A1"}}, release: make(chan struct{})}
	c := NewCache(src, time.Minute, zerolog.Nop(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entries, err := c.Fetch(context.Background())
			if err != nil || len(entries) != 1 {
				t.Errorf("fetch: entries=%v err=%v", entries, err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	if got := src.calls.Load(); got != 1 {
		t.Fatalf("source calls=%d want=1", got)
	}
}

func TestCache_StaleOnError(t *testing.T) {
	src := &countingSource{entries: []Entry{{Code: "A1"}, {Code: "B2"}}}
	c := NewCache(src, time.Minute, zerolog.Nop(), nil)
	ctx := context.Background()

	if _, err := c.Fetch(ctx); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	src.err = errors.New("sheet unavailable")
	entries, err := c.Refresh(ctx)
	if err != nil {
		t.Fatalf("stale snapshot expected, got err %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries=%d want=2", len(entries))
	}
}

func TestCache_ErrorWithoutSnapshot(t *testing.T) {
	src := &countingSource{err: errors.New("boom")}
	c := NewCache(src, time.Minute, zerolog.Nop(), nil)
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCache_Invalidate(t *testing.T) {
	src := &countingSource{entries: []Entry{{Code: "A1"}}}
	c := NewCache(src, time.Hour, zerolog.Nop(), nil)
	ctx := context.Background()

	_, _ = c.Fetch(ctx)
	c.Invalidate()
	if entries, _ := c.Snapshot(); entries != nil {
		t.Fatalf("snapshot should be empty after invalidate")
	}
	_, _ = c.Fetch(ctx)
	if got := src.calls.Load(); got != 2 {
		t.Fatalf("calls=%d want=2", got)
	}
}
