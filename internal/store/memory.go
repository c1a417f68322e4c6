package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"nickandperla.net/ski/internal/expr"
)

// Memory is an in-memory store for testing.
type Memory struct {
	mu       sync.RWMutex
	data     map[string]expr.Expr
	order    []string
	versions map[string][]VersionEntry
	runs     []Run
	metadata map[string]string
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		data:     make(map[string]expr.Expr),
		versions: make(map[string][]VersionEntry),
		metadata: make(map[string]string),
	}
}

// Get retrieves a definition body by name.
func (m *Memory) Get(name string) (expr.Expr, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.data[name]; ok {
		return expr.Clone(e), nil
	}
	return nil, nil
}

// Put stores a definition body by name.
func (m *Memory) Put(name string, e expr.Expr) error {
	if err := expr.Validate(e); err != nil {
		return fmt.Errorf("definition %q: %w", name, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.data[name]; ok {
		if expr.Equal(old, e) {
			return nil
		}
		m.removeOrder(name)
	}
	m.data[name] = expr.Clone(e)
	m.order = append(m.order, name)
	vs := m.versions[name]
	m.versions[name] = append(vs, VersionEntry{
		Version: len(vs) + 1,
		Body:    expr.String(e),
		Ts:      time.Now().UTC(),
	})
	return nil
}

// Delete removes a definition and its versions.
func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[name]; ok {
		m.removeOrder(name)
	}
	delete(m.data, name)
	delete(m.versions, name)
	return nil
}

// List returns every definition in definition order.
func (m *Memory) List() ([]expr.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	defs := make([]expr.Definition, 0, len(m.order))
	for _, name := range m.order {
		defs = append(defs, expr.Definition{Name: name, Body: expr.Clone(m.data[name])})
	}
	return defs, nil
}

// Versions returns up to limit versions of name, newest first.
func (m *Memory) Versions(name string, limit int) ([]VersionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vs := m.versions[name]
	if len(vs) == 0 {
		return nil, nil
	}
	out := make([]VersionEntry, 0, len(vs))
	for i := len(vs) - 1; i >= 0; i-- {
		out = append(out, vs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Record appends a run.
func (m *Memory) Record(r *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Ts.IsZero() {
		r.Ts = time.Now().UTC()
	}
	m.runs = append(m.runs, *r)
	return nil
}

// History returns runs newest first.
func (m *Memory) History(limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Run
	for i := len(m.runs) - 1; i >= 0; i-- {
		out = append(out, m.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// GetMetadata retrieves a metadata value by key.
func (m *Memory) GetMetadata(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[key], nil
}

// SetMetadata stores a metadata value by key.
func (m *Memory) SetMetadata(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
	return nil
}

func (m *Memory) removeOrder(name string) {
	for i, o := range m.order {
		if o == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}
