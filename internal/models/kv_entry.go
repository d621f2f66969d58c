package models

import (
	"time"

	"gorm.io/datatypes"
)

// KVEntry is one key of local persisted storage. Each logical slice of farm
// state lives under its own key as a JSON snapshot.
type KVEntry struct {
	Key       string         `gorm:"primaryKey;size:64"`
	Value     datatypes.JSON `gorm:"not null"`
	UpdatedAt time.Time
}
