// Package history persists a summary of every evaluation served.
package history

import (
	"fmt"
	"os"
	"path/filepath"

	"dealscreener/server/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DefaultLimit is the number of records Recent returns when no limit is given.
const DefaultLimit = 50

// MaxLimit caps how many records one Recent call can return.
const MaxLimit = 500

// Store reads and writes evaluation records.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite history database at path, creating its directory and
// schema when needed. ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.Migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the evaluations table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&models.EvaluationRecord{}); err != nil {
		return fmt.Errorf("failed to migrate history schema: %w", err)
	}
	return nil
}

// DB exposes the connection for transactional writers.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// InsertEvaluations writes records inside tx. Records whose ID already exists are skipped,
// so a retried batch never duplicates rows.
func InsertEvaluations(tx *gorm.DB, records []*models.EvaluationRecord) error {
	if len(records) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(records, 100).Error
}

// Recent returns the newest records first. limit <= 0 uses DefaultLimit.
func (s *Store) Recent(limit int) ([]models.EvaluationRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var records []models.EvaluationRecord
	if err := s.db.Order("created_at DESC").Order("id").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return records, nil
}

// Get returns the record with id, or gorm.ErrRecordNotFound.
func (s *Store) Get(id string) (*models.EvaluationRecord, error) {
	var rec models.EvaluationRecord
	if err := s.db.Where("id = ?", id).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// Count returns the number of stored records.
func (s *Store) Count() (int64, error) {
	var n int64
	err := s.db.Model(&models.EvaluationRecord{}).Count(&n).Error
	return n, err
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
