package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrDuplicate means a row with the same unique key already exists.
	ErrDuplicate = errors.New("database: duplicate entry")
	// ErrNotFound means the row to read or update does not exist.
	ErrNotFound = errors.New("database: not found")
)

// Store owns the connection pool and holds every query the bot runs.
// Writes are single statements scoped to one row or key, so callers for
// different accounts never contend on anything but the pool.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicate(err):
		return ErrDuplicate
	default:
		return err
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
