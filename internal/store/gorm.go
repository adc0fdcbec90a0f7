package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/minhanee-art/kingtire/internal/db"
	"github.com/minhanee-art/kingtire/internal/discount"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm keeps one discount_rates row per key. Call Handle.Migrate first.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(h *db.Handle) *Gorm { return &Gorm{db: h.DB} }

func (g *Gorm) Get(ctx context.Context, k discount.Key) (discount.Rates, bool, error) {
	var row db.DiscountRate
	err := g.db.WithContext(ctx).
		Where("kind = ? AND key_id = ?", string(k.Kind), k.ID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", k, err)
	}
	r, err := decodeRates([]byte(row.RatesJSON))
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

func (g *Gorm) Upsert(ctx context.Context, k discount.Key, r discount.Rates) error {
	b, err := encodeRates(r)
	if err != nil {
		return err
	}
	row := db.DiscountRate{Kind: string(k.Kind), KeyID: k.ID, RatesJSON: string(b), UpdatedAt: time.Now()}
	if err := g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "key_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rates_json", "updated_at"}),
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert %s: %w", k, err)
	}
	return nil
}

func (g *Gorm) All(ctx context.Context) ([]discount.Record, error) {
	var rows []db.DiscountRate
	if err := g.db.WithContext(ctx).Order("kind, key_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	out := make([]discount.Record, 0, len(rows))
	for _, row := range rows {
		r, err := decodeRates([]byte(row.RatesJSON))
		if err != nil {
			return nil, fmt.Errorf("%s:%s: %w", row.Kind, row.KeyID, err)
		}
		out = append(out, discount.Record{
			Key:   discount.Key{Kind: discount.Kind(row.Kind), ID: row.KeyID},
			Rates: r,
		})
	}
	return out, nil
}
