package models

import "time"

// Snapshot holds the serialized collection for one storage key.
type Snapshot struct {
	StorageKey string    `gorm:"column:storage_key;primaryKey"`
	Payload    string    `gorm:"column:payload;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (Snapshot) TableName() string {
	return "snapshots"
}
