package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/pebble"
	"github.com/minhanee-art/kingtire/internal/discount"
)

const pebblePrefix = "discount/"

// Pebble stores each key as "discount/<kind>/<id>" -> JSON rates.
type Pebble struct {
	db *pebble.DB
}

func OpenPebble(dir string) (*Pebble, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &Pebble{db: d}, nil
}

func (p *Pebble) Close() error { return p.db.Close() }

func pebbleKey(k discount.Key) []byte {
	return []byte(pebblePrefix + string(k.Kind) + "/" + k.ID)
}

func (p *Pebble) Get(ctx context.Context, k discount.Key) (discount.Rates, bool, error) {
	v, closer, err := p.db.Get(pebbleKey(k))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", k, err)
	}
	defer closer.Close()
	r, err := decodeRates(v)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// Upsert syncs the WAL before returning; the admin treats a nil error as durable.
func (p *Pebble) Upsert(ctx context.Context, k discount.Key, r discount.Rates) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := encodeRates(r)
	if err != nil {
		return err
	}
	if err := p.db.Set(pebbleKey(k), b, pebble.Sync); err != nil {
		return fmt.Errorf("upsert %s: %w", k, err)
	}
	return nil
}

func (p *Pebble) All(ctx context.Context) ([]discount.Record, error) {
	it, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(pebblePrefix),
		UpperBound: []byte("discount0"), // '0' follows '/'
	})
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer it.Close()

	var out []discount.Record
	for it.First(); it.Valid(); it.Next() {
		rest := strings.TrimPrefix(string(it.Key()), pebblePrefix)
		kind, id, ok := strings.Cut(rest, "/")
		if !ok {
			continue
		}
		r, err := decodeRates(append([]byte(nil), it.Value()...))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rest, err)
		}
		out = append(out, discount.Record{Key: discount.Key{Kind: discount.Kind(kind), ID: id}, Rates: r})
	}
	return out, it.Error()
}
