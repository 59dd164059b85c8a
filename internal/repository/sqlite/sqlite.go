package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store bundles the per-collection repositories backed by one SQLite
// database
type Store struct {
	db *sql.DB

	Intents *IntentStore
	Groups  *GroupStore
	Diffs   *DiffStore
}

// IntentStore implements repository.Intents
type IntentStore struct {
	db *sql.DB
}

// GroupStore implements repository.Groups
type GroupStore struct {
	db *sql.DB
}

// DiffStore implements repository.Diffs
type DiffStore struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and migrates the schema
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:      db,
		Intents: &IntentStore{db: db},
		Groups:  &GroupStore{db: db},
		Diffs:   &DiffStore{db: db},
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS intents (
		id TEXT PRIMARY KEY,
		hostname TEXT,
		description TEXT,
		type TEXT NOT NULL,
		config TEXT,
		config_hash TEXT,
		filter TEXT,
		filter_hash TEXT,
		netdrift_managed INTEGER NOT NULL DEFAULT 1,
		last_discovery_id TEXT,
		last_discovery_status TEXT NOT NULL DEFAULT 'unknown',
		last_discovery_message TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_intents_full_hostname
		ON intents(hostname) WHERE type = 'full';
	CREATE UNIQUE INDEX IF NOT EXISTS idx_intents_partial_config
		ON intents(ifnull(hostname, ''), config_hash) WHERE type = 'partial';
	CREATE UNIQUE INDEX IF NOT EXISTS idx_intents_partial_filter
		ON intents(ifnull(hostname, ''), filter_hash) WHERE type = 'partial';

	CREATE TABLE IF NOT EXISTS intent_groups (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL UNIQUE,
		description TEXT,
		hostname TEXT,
		members JSON NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS intent_diffs (
		id TEXT PRIMARY KEY,
		intent_id TEXT NOT NULL,
		diff TEXT NOT NULL,
		intent TEXT NOT NULL,
		patch TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_intent_diffs_intent ON intent_diffs(intent_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// DB exposes the underlying handle so the job queue can share the database
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
