package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/idlbind/internal/errors"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - runs and units tables
const currentSchemaVersion = 1

// Store is the generation manifest.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a manifest database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open manifest")
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "connect to manifest %s", path)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "apply pragmas")
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "apply schema")
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return errors.Wrapf(err, "execute %q", pragma)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and stamps the schema
// version. A manifest written by a newer build is refused.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return errors.Wrap(err, "get user_version")
	}
	if version > currentSchemaVersion {
		return errors.WithHint(
			errors.Newf("manifest schema version %d is newer than %d", version, currentSchemaVersion),
			"upgrade idlbind or point --manifest at a new file")
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "execute schema")
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return errors.Wrap(err, "set user_version")
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return errors.Wrapf(err, "query %s", name)
	}
	if value != expected {
		return errors.Newf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// withTx runs fn in a transaction, committing when it returns nil.
func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "commit")
}
