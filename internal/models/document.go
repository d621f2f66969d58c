package models

import (
	"time"

	"gorm.io/datatypes"
)

// Document is a row of the SQL-backed remote document store: one JSON
// document per (collection, id).
type Document struct {
	Collection string         `gorm:"primaryKey;size:64"`
	DocID      string         `gorm:"primaryKey;size:128"`
	Data       datatypes.JSON `gorm:"not null"`
	UpdatedAt  time.Time      `gorm:"index"`
}

// CollectionRevision is bumped on every write to a collection so watchers can
// detect changes with a single-row read.
type CollectionRevision struct {
	Collection string `gorm:"primaryKey;size:64"`
	Revision   int64  `gorm:"not null;default:0"`
	UpdatedAt  time.Time
}
