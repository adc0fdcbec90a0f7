// Package store persists discount tables. Three backends share the
// discount.Store contract: gorm-backed SQL, an embedded pebble directory and
// a process-local map.
package store

import (
	"encoding/json"
	"fmt"

	"github.com/minhanee-art/kingtire/internal/discount"
)

func encodeRates(r discount.Rates) ([]byte, error) {
	if r == nil {
		r = discount.Rates{}
	}
	return json.Marshal(r)
}

func decodeRates(b []byte) (discount.Rates, error) {
	r := discount.Rates{}
	if len(b) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode rates: %w", err)
	}
	return r, nil
}
