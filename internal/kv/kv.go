// Package kv is farmhand's on-device key/value storage: a SQLite table of
// JSON values, one key per logical slice of farm state.
package kv

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farmhand/farmhand/internal/models"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kv: key not found")

// Store reads and writes JSON values by key.
type Store struct {
	db *gorm.DB
}

// New wraps an already migrated database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Get decodes the value stored under key into v.
func (s *Store) Get(key string, v any) error {
	raw, err := s.GetRaw(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("kv: decode %s: %w", key, err)
	}
	return nil
}

// GetRaw returns the JSON stored under key.
func (s *Store) GetRaw(key string) (json.RawMessage, error) {
	var e models.KVEntry
	err := s.db.Where("`key` = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: get %s: %w", key, err)
	}
	return json.RawMessage(e.Value), nil
}

// Set encodes v and stores it under key, replacing any previous value.
func (s *Store) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", key, err)
	}
	return s.SetRaw(key, raw)
}

// SetRaw stores already encoded JSON under key.
func (s *Store) SetRaw(key string, raw json.RawMessage) error {
	e := models.KVEntry{Key: key, Value: []byte(raw)}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("kv: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(key string) error {
	if err := s.db.Where("`key` = ?", key).Delete(&models.KVEntry{}).Error; err != nil {
		return fmt.Errorf("kv: delete %s: %w", key, err)
	}
	return nil
}

// Keys lists every stored key in ascending order.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	if err := s.db.Model(&models.KVEntry{}).Order("`key`").Pluck("key", &keys).Error; err != nil {
		return nil, fmt.Errorf("kv: list keys: %w", err)
	}
	return keys, nil
}
