package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"nickandperla.net/ski/internal/expr"
	"nickandperla.net/ski/internal/parser"
)

// Current schema version
const SchemaVersion = "2"

const driverName = "sqlite"

// tsLayout is fixed-width so timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	// One connection, so ":memory:" databases are not split across a pool.
	db.SetMaxOpenConns(1)

	// Create tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS definitions (
			name TEXT PRIMARY KEY,
			body TEXT NOT NULL,
			seq INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	// Check/set schema version (use unlocked versions since we're in init)
	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}

	if version == "" || version == "1" {
		// New DB or migrate from v1 to v2: add version and run history tables
		if err := s.migrateToV2(); err != nil {
			db.Close()
			return nil, err
		}
		if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	} else if version != SchemaVersion {
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// migrateToV2 creates the history tables and records every existing
// definition as its first version.
func (s *SQLite) migrateToV2() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS definition_versions (
			name TEXT NOT NULL,
			version INTEGER NOT NULL,
			body TEXT NOT NULL,
			ts TEXT NOT NULL,
			PRIMARY KEY (name, version)
		);
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			status TEXT NOT NULL,
			passes INTEGER NOT NULL,
			nodes INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL,
			ts TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS runs_ts ON runs (ts);
	`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT OR IGNORE INTO definition_versions (name, version, body, ts)
		SELECT name, 1, body, ? FROM definitions
	`, formatTs(time.Now()))
	return err
}

// Get retrieves a definition body by name.
func (s *SQLite) Get(name string) (expr.Expr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var body string
	err := s.db.QueryRow("SELECT body FROM definitions WHERE name = ?", name).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeBody(name, body)
}

// Put stores a definition body by name.
func (s *SQLite) Put(name string, e expr.Expr) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := expr.Validate(e); err != nil {
		return fmt.Errorf("definition %q: %w", name, err)
	}
	body := expr.String(e)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow("SELECT body FROM definitions WHERE name = ?", name).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return err
	case current == body:
		return nil
	}

	_, err = tx.Exec(`
		INSERT INTO definitions (name, body, seq)
		VALUES (?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM definitions))
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, seq = excluded.seq
	`, name, body)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO definition_versions (name, version, body, ts)
		VALUES (?, (SELECT COALESCE(MAX(version), 0) + 1 FROM definition_versions WHERE name = ?), ?, ?)
	`, name, name, body, formatTs(time.Now()))
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a definition and its versions.
func (s *SQLite) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM definition_versions WHERE name = ?", name); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM definitions WHERE name = ?", name)
	return err
}

// List returns every definition in definition order.
func (s *SQLite) List() ([]expr.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT name, body FROM definitions ORDER BY seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var defs []expr.Definition
	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return nil, err
		}
		e, err := decodeBody(name, body)
		if err != nil {
			return nil, err
		}
		defs = append(defs, expr.Definition{Name: name, Body: e})
	}
	return defs, rows.Err()
}

// Versions returns up to limit versions of name, newest first.
func (s *SQLite) Versions(name string, limit int) ([]VersionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := "SELECT version, body, ts FROM definition_versions WHERE name = ? ORDER BY version DESC"
	args := []any{name}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VersionEntry
	for rows.Next() {
		var v VersionEntry
		var ts string
		if err := rows.Scan(&v.Version, &v.Body, &ts); err != nil {
			return nil, err
		}
		v.Ts = parseTs(ts)
		out = append(out, v)
	}
	return out, rows.Err()
}

// Record appends a run.
func (s *SQLite) Record(r *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Ts.IsZero() {
		r.Ts = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (id, input, output, status, passes, nodes, duration_ns, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.Input, r.Output, r.Status, r.Passes, r.Nodes, int64(r.Duration), formatTs(r.Ts))
	return err
}

// History returns runs newest first.
func (s *SQLite) History(limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := "SELECT id, input, output, status, passes, nodes, duration_ns, ts FROM runs ORDER BY ts DESC, rowid DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		var dur int64
		var ts string
		if err := rows.Scan(&r.ID, &r.Input, &r.Output, &r.Status, &r.Passes, &r.Nodes, &dur, &ts); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(dur)
		r.Ts = parseTs(ts)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetadataUnlocked(key)
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMetadataUnlocked(key, value)
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func decodeBody(name, body string) (expr.Expr, error) {
	e, err := parser.ParseExpr(body)
	if err != nil {
		return nil, fmt.Errorf("stored definition %q: %w", name, err)
	}
	return e, nil
}

func formatTs(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTs(s string) time.Time {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
