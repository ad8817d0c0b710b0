// Package storage persists experiment results, evaluations, rankings,
// weights, and recommendations in SQLite. It implements the read surface
// the recommendation engine consumes plus the write operations used by the
// API and CLI layers.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a lookup by identifier matches nothing.
var ErrNotFound = errors.New("not found")

// Store provides SQLite-backed persistence via GORM.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path and migrates
// the schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path must not be empty")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database %q: %w", path, err)
	}

	if err := db.AutoMigrate(
		&experimentResultRow{},
		&experimentRunRow{},
		&aiEvaluationRow{},
		&aiEvaluationBatchRow{},
		&reviewPromptRow{},
		&humanRankingRow{},
		&rankingWeightsRow{},
		&recommendationRow{},
	); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying handle for callers that need raw queries.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// toJSON serializes v for a TEXT column. Slices and maps only; errors are
// not expected and collapse to "null".
func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// fromJSON deserializes a TEXT column into out, tolerating empty columns.
func fromJSON(data string, out any) {
	if data == "" {
		return
	}
	_ = json.Unmarshal([]byte(data), out)
}
