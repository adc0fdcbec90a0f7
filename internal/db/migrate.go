package db

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate creates or updates the schema.
func (h *Handle) Migrate() error {
	if err := h.DB.AutoMigrate(&DiscountRate{}, &KV{}, &ImportFile{}); err != nil {
		return fmt.Errorf("AutoMigrate error: %w", err)
	}
	return nil
}

// PutKV upserts one state value.
func (h *Handle) PutKV(k, v string) error {
	err := h.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "k"}},
		DoUpdates: clause.AssignmentColumns([]string{"v"}),
	}).Create(&KV{K: k, V: v}).Error
	if err != nil {
		return fmt.Errorf("put kv %s: %w", k, err)
	}
	return nil
}

// GetKV returns ok=false for a missing key.
func (h *Handle) GetKV(k string) (string, bool, error) {
	var row KV
	err := h.DB.Where("k = ?", k).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get kv %s: %w", k, err)
	}
	return row.V, true, nil
}

// FindImport looks a file up by content hash.
func (h *Handle) FindImport(sha string) (ImportFile, bool, error) {
	var rec ImportFile
	err := h.DB.Where("sha256 = ?", sha).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ImportFile{}, false, nil
	}
	if err != nil {
		return ImportFile{}, false, fmt.Errorf("find import: %w", err)
	}
	return rec, true, nil
}

// SaveImport inserts rec, or updates it when ImportID is set.
func (h *Handle) SaveImport(rec *ImportFile) error {
	if err := h.DB.Save(rec).Error; err != nil {
		return fmt.Errorf("save import %s: %w", rec.Filename, err)
	}
	return nil
}
