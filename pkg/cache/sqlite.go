// pkg/cache/sqlite.go
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/eltahawyomar001-eng/salla-analytics/pkg/model"
)

// SQLiteStore persists column mappings in a single-file SQLite database.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if necessary) a mapping store at the given
// path and ensures the backing table exists.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping cache: %w", err)
	}
	// A single-file cache with a single-writer contract needs exactly
	// one connection.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.setup(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to setup mapping cache: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) setup() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS column_mappings (
			file_key   TEXT PRIMARY KEY,
			mapping    TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create column_mappings table: %w", err)
	}

	s.logger.Debug("Ensured column_mappings table exists")
	return nil
}

// Get returns the cached mapping for a file key, if present.
func (s *SQLiteStore) Get(key string) (*model.Mapping, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var raw string
	err := s.db.GetContext(ctx, &raw,
		`SELECT mapping FROM column_mappings WHERE file_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read mapping cache: %w", err)
	}

	var mapping model.Mapping
	if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
		// A corrupt entry is treated as a miss; the pipeline will
		// re-match and overwrite it.
		s.logger.Warn("Discarding corrupt mapping cache entry",
			zap.String("key", key),
			zap.Error(err))
		return nil, false, nil
	}

	s.logger.Info("Mapping cache hit", zap.String("key", key))
	return &mapping, true, nil
}

// Put stores a mapping under a file key, replacing any previous entry.
func (s *SQLiteStore) Put(key string, mapping *model.Mapping) error {
	raw, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO column_mappings (file_key, mapping, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(file_key) DO UPDATE SET
			mapping = excluded.mapping,
			updated_at = excluded.updated_at
	`, key, string(raw))
	if err != nil {
		return fmt.Errorf("failed to write mapping cache: %w", err)
	}

	s.logger.Info("Saved mapping to cache", zap.String("key", key))
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
