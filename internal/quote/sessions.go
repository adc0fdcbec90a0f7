package quote

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minhanee-art/kingtire/internal/discount"
)

// Sessions is the in-memory session registry. Nothing is persisted.
type Sessions struct {
	mu  sync.RWMutex
	m   map[string]*Session
	now func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{m: make(map[string]*Session), now: time.Now}
}

func (ss *Sessions) New(g discount.Grade) *Session {
	s := newSession(uuid.NewString(), g, ss.now())
	ss.mu.Lock()
	ss.m[s.ID] = s
	ss.mu.Unlock()
	return s
}

// Get returns the session and marks it used.
func (ss *Sessions) Get(id string) (*Session, error) {
	ss.mu.RLock()
	s, ok := ss.m[id]
	ss.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	s.touched = ss.now()
	s.mu.Unlock()
	return s, nil
}

func (ss *Sessions) Delete(id string) {
	ss.mu.Lock()
	delete(ss.m, id)
	ss.mu.Unlock()
}

func (ss *Sessions) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.m)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many.
func (ss *Sessions) Sweep(maxIdle time.Duration) int {
	cutoff := ss.now().Add(-maxIdle)
	ss.mu.Lock()
	defer ss.mu.Unlock()
	n := 0
	for id, s := range ss.m {
		s.mu.Lock()
		idle := s.touched.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(ss.m, id)
			n++
		}
	}
	return n
}
