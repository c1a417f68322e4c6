// Package store persists the definition library and the run history.
package store

import (
	"time"

	"nickandperla.net/ski/internal/expr"
)

// Store is the interface for definition persistence. Bodies are stored
// already resolved, so loading them needs no further inlining.
type Store interface {
	// Get retrieves a definition body by name. Returns nil if not found.
	Get(name string) (expr.Expr, error)
	// Put stores a definition body by name. Storing a different body for an
	// existing name moves it to the end of the definition order; storing the
	// same body again is a no-op.
	Put(name string, e expr.Expr) error
	// Delete removes a definition and its versions.
	Delete(name string) error
	// List returns every definition in definition order.
	List() ([]expr.Definition, error)
	// Close releases resources.
	Close() error
}

// VersionEntry represents a single version of a persisted definition.
type VersionEntry struct {
	Version int
	Body    string
	Ts      time.Time
}

// VersionStore extends Store with per-definition version history.
type VersionStore interface {
	Versions(name string, limit int) ([]VersionEntry, error)
}

// Run is one evaluated expression.
type Run struct {
	ID       string
	Input    string
	Output   string
	Status   string
	Passes   int
	Nodes    int
	Duration time.Duration
	Ts       time.Time
}

// HistoryStore records evaluated expressions.
type HistoryStore interface {
	// Record appends r, filling in ID and Ts when they are empty.
	Record(r *Run) error
	// History returns up to limit runs, newest first; limit <= 0 means all.
	History(limit int) ([]Run, error)
}
