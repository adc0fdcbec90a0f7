package syncer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStartRunsJobsAndStops(t *testing.T) {
	var runs atomic.Int32
	s := New(zerolog.Nop(), 10*time.Millisecond, Job{Name: "count", Run: func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = s.Start(context.Background()) // no-op
	if !s.IsRunning() {
		t.Fatalf("not running")
	}
	waitFor(t, func() bool { return runs.Load() >= 3 })

	s.Stop()
	s.Stop()
	if s.IsRunning() {
		t.Fatalf("still running")
	}
	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Fatalf("job ran after stop")
	}
}

func TestStatusRecordsErrors(t *testing.T) {
	boom := errors.New("sheet down")
	s := New(zerolog.Nop(), time.Hour,
		Job{Name: "ok", Run: func(ctx context.Context) error { return nil }},
		Job{Name: "bad", Run: func(ctx context.Context) error { return boom }},
	)
	s.RunNow(context.Background())

	st := s.Status()
	if len(st) != 2 || st[0].Name != "ok" || st[1].Name != "bad" {
		t.Fatalf("status=%+v", st)
	}
	if st[0].Err != "" || st[0].Runs != 1 {
		t.Fatalf("ok status=%+v", st[0])
	}
	if st[1].Err != "sheet down" {
		t.Fatalf("bad status=%+v", st[1])
	}
	if s.Ticks() != 1 {
		t.Fatalf("ticks=%d", s.Ticks())
	}
}

func TestUpdateIntervalWhileRunning(t *testing.T) {
	var runs atomic.Int32
	s := New(zerolog.Nop(), time.Hour, Job{Name: "count", Run: func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	waitFor(t, func() bool { return runs.Load() == 1 })
	s.UpdateInterval(10 * time.Millisecond)
	waitFor(t, func() bool { return runs.Load() >= 3 })
}
