package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/vertextoedge/audio-dedup/internal/port"
)

// Store implements port.Store interface using SQLite
type Store struct {
	db *sql.DB
}

// Ensure Store implements port.Store
var _ port.Store = (*Store)(nil)

// Open opens a connection to the SQLite database, creating the parent
// directory and schema when missing.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open database with WAL mode and busy timeout
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -16000", // 16MB cache
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks database connectivity
func (s *Store) Ping() error {
	return s.db.Ping()
}

// migrate creates or updates the database schema
func (s *Store) migrate() error {
	migrations := []string{
		// Cached per-file signals, valid while size and mtime match
		`CREATE TABLE IF NOT EXISTS signals (
			path TEXT PRIMARY KEY,
			size INTEGER NOT NULL DEFAULT 0,
			mod_time INTEGER NOT NULL DEFAULT 0,
			hash TEXT NOT NULL DEFAULT '',
			tags_ok BOOLEAN NOT NULL DEFAULT FALSE,
			artist TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			has_cover BOOLEAN NOT NULL DEFAULT FALSE,
			has_lyrics BOOLEAN NOT NULL DEFAULT FALSE,
			fingerprint BLOB,
			fingerprint_backend TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Journal of every move and delete
		`CREATE TABLE IF NOT EXISTS dispositions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			action TEXT NOT NULL,
			path TEXT NOT NULL,
			destination TEXT NOT NULL DEFAULT '',
			keeper TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_dispositions_run_id ON dispositions(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_dispositions_destination ON dispositions(destination)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, migration)
		}
	}

	return nil
}
