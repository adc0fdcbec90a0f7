// internal/db/models.go
package db

import "time"

// discount_rates: one row per discount key, grades kept as a JSON object so
// a new grade needs no schema change.
type DiscountRate struct {
	Kind      string    `gorm:"primaryKey;size:16"`
	KeyID     string    `gorm:"primaryKey;size:255;column:key_id"`
	RatesJSON string    `gorm:"type:text;column:rates_json"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// kv holds small bits of service state, e.g. the last catalog refresh.
type KV struct {
	K string `gorm:"primaryKey;size:191"`
	V string `gorm:"type:text"`
}

func (KV) TableName() string { return "kv" }

// Import status values.
const (
	ImportNew  = 0
	ImportDone = 1
	ImportFail = 2
)

// import_files: rate sheets picked up from the watch folder, one row per
// distinct file content.
type ImportFile struct {
	ImportID    uint   `gorm:"primaryKey;autoIncrement"`
	Filename    string `gorm:"size:255;index"`
	SHA256      string `gorm:"size:64;uniqueIndex;column:sha256"`
	SizeBytes   int64
	Rows        int
	Status      int
	LastError   string `gorm:"type:text"`
	ProcessedAt *time.Time
	CreatedAt   time.Time
}
