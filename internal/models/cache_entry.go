package models

import (
	"time"
)

// CacheEntry is a key/value row used by the database-backed cache store (rate limiting counters).
type CacheEntry struct {
	Key       string    `gorm:"column:cache_key;primaryKey;size:191"`
	Value     []byte
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
