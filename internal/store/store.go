package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/spinpick/internal/ir"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - result_slots table
const currentSchemaVersion = 1

// Backend is implemented by every result store.
type Backend interface {
	Save(ctx context.Context, o ir.Outcome) error
	Load(ctx context.Context) (ir.Outcome, bool, error)
	Clear(ctx context.Context) error
	Close() error
}

// Store is the SQLite-backed result slot.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, and :memory: databases are
	// per-connection, so keep exactly one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
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
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Save overwrites the slot with the given outcome.
func (s *Store) Save(ctx context.Context, o ir.Outcome) error {
	payload, err := encodeSnapshot(o)
	if err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO result_slots (namespace, payload, saved_at)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			payload = excluded.payload,
			saved_at = excluded.saved_at
	`, Namespace, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save outcome: %w", err)
	}
	return nil
}

// Load returns the stored outcome, if any.
// A corrupt payload is cleared and reported as absent.
func (s *Store) Load(ctx context.Context) (ir.Outcome, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM result_slots WHERE namespace = ?`, Namespace,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Outcome{}, false, nil
	}
	if err != nil {
		return ir.Outcome{}, false, fmt.Errorf("load outcome: %w", err)
	}

	o, err := decodeSnapshot([]byte(payload))
	if err != nil {
		return ir.Outcome{}, false, discardCorrupt(ctx, "sqlite", err, s.Clear)
	}
	return o, true, nil
}

// Clear removes the slot unconditionally.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM result_slots WHERE namespace = ?`, Namespace,
	); err != nil {
		return fmt.Errorf("clear outcome: %w", err)
	}
	return nil
}

// discardCorrupt logs a corrupt snapshot and clears the slot.
// The returned error is non-nil only if clearing failed.
func discardCorrupt(ctx context.Context, backend string, cause error, clear func(context.Context) error) error {
	slog.Warn("discarding corrupt result snapshot",
		"backend", backend,
		"namespace", Namespace,
		"error", cause,
	)
	if err := clear(ctx); err != nil {
		return fmt.Errorf("clear corrupt snapshot: %w", err)
	}
	return nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and records the schema version.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, currentSchemaVersion)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
