// internal/syncer/syncer.go
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const DefaultInterval = time.Minute

// Job is one periodic task, e.g. a forced catalog refresh.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// JobStatus is the outcome of a job's last run.
type JobStatus struct {
	Name    string        `json:"name"`
	LastRun time.Time     `json:"lastRun"`
	Took    time.Duration `json:"took"`
	Err     string        `json:"error,omitempty"`
	Runs    uint64        `json:"runs"`
}

type Syncer struct {
	log      zerolog.Logger
	mu       sync.Mutex
	jobs     []Job
	interval time.Duration
	running  bool
	cancel   context.CancelFunc
	reset    chan time.Duration
	wg       sync.WaitGroup
	ticks    uint64
	status   map[string]JobStatus
}

func New(log zerolog.Logger, interval time.Duration, jobs ...Job) *Syncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Syncer{
		log:      log,
		jobs:     jobs,
		interval: interval,
		status:   make(map[string]JobStatus, len(jobs)),
	}
}

// Start runs every job once right away and then on each tick. A second Start
// while running is a no-op.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.ticks = 0
	s.reset = make(chan time.Duration, 1)
	interval, reset := s.interval, s.reset
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Info().Dur("interval", interval).Int("jobs", len(s.jobs)).Msg("syncer: start")
	go s.loop(ctx, interval, reset)
	return nil
}

func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Info().Msg("syncer: stop")
}

// UpdateInterval applies a new period; a running loop picks it up at once.
func (s *Syncer) UpdateInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultInterval
	}
	s.mu.Lock()
	s.interval = d
	reset, running := s.reset, s.running
	s.mu.Unlock()

	s.log.Info().Dur("interval", d).Msg("syncer: interval updated")
	if running {
		select {
		case reset <- d:
		default:
		}
	}
}

func (s *Syncer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Syncer) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Status lists each job's last outcome in registration order.
func (s *Syncer) Status() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobStatus, 0, len(s.jobs))
	for _, j := range s.jobs {
		st, ok := s.status[j.Name]
		if !ok {
			st = JobStatus{Name: j.Name}
		}
		out = append(out, st)
	}
	return out
}

// RunNow runs every job once on the caller's goroutine.
func (s *Syncer) RunNow(ctx context.Context) {
	s.tickOnce(ctx)
}

func (s *Syncer) loop(ctx context.Context, interval time.Duration, reset <-chan time.Duration) {
	defer s.wg.Done()

	// first run right away
	s.tickOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("syncer: loop done")
			return
		case d := <-reset:
			ticker.Reset(d)
		case <-ticker.C:
			s.tickOnce(ctx)
		}
	}
}

func (s *Syncer) tickOnce(ctx context.Context) {
	s.mu.Lock()
	s.ticks++
	n := s.ticks
	s.mu.Unlock()

	for _, j := range s.jobs {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		err := j.Run(ctx)
		took := time.Since(start)

		s.mu.Lock()
		st := s.status[j.Name]
		st.Name = j.Name
		st.LastRun = start
		st.Took = took
		st.Runs++
		st.Err = ""
		if err != nil {
			st.Err = err.Error()
		}
		s.status[j.Name] = st
		s.mu.Unlock()

		if err != nil {
			s.log.Error().Err(err).Str("job", j.Name).Uint64("tick", n).Msg("syncer: job failed")
			continue
		}
		s.log.Debug().Str("job", j.Name).Uint64("tick", n).Dur("took", took).Msg("syncer: job done")
	}
}
