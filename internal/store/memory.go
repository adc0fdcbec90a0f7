package store

import (
	"context"
	"sync"

	"github.com/minhanee-art/kingtire/internal/discount"
)

// Memory is a process-local store, used when no database is configured.
type Memory struct {
	mu sync.RWMutex
	m  map[discount.Key][]byte
}

func NewMemory() *Memory {
	return &Memory{m: make(map[discount.Key][]byte)}
}

func (s *Memory) Get(ctx context.Context, k discount.Key) (discount.Rates, bool, error) {
	s.mu.RLock()
	b, ok := s.m[k]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	r, err := decodeRates(b)
	return r, err == nil, err
}

func (s *Memory) Upsert(ctx context.Context, k discount.Key, r discount.Rates) error {
	b, err := encodeRates(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.m[k] = b
	s.mu.Unlock()
	return nil
}

func (s *Memory) All(ctx context.Context) ([]discount.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]discount.Record, 0, len(s.m))
	for k, b := range s.m {
		r, err := decodeRates(b)
		if err != nil {
			return nil, err
		}
		out = append(out, discount.Record{Key: k, Rates: r})
	}
	return out, nil
}
