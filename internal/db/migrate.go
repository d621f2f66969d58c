package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/farmhand/farmhand/internal/models"
)

// LocalModels are the tables of the on-device store.
func LocalModels() []interface{} {
	return []interface{}{
		&models.KVEntry{},
	}
}

// DocumentModels are the tables of the SQL document remote.
func DocumentModels() []interface{} {
	return []interface{}{
		&models.Document{},
		&models.CollectionRevision{},
	}
}

// AllModels returns every GORM model farmhand knows about.
func AllModels() []interface{} {
	return append(LocalModels(), DocumentModels()...)
}

// AutoMigrate creates or updates the local tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(LocalModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// MigrateDocuments creates or updates the document tables. Until this has
// run the sqldoc remote reports its schema as missing.
func MigrateDocuments(db *gorm.DB) error {
	if err := db.AutoMigrate(DocumentModels()...); err != nil {
		return fmt.Errorf("db: migrate documents: %w", err)
	}
	return nil
}
