// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package eval resolves SKI definitions and reduces expressions to normal
// form.
package eval

import (
	"sync"

	"nickandperla.net/ski/internal/expr"
)

// Namespace maps definition names to their fully inlined bodies, remembering
// the order in which names were defined. It is safe for concurrent use.
type Namespace struct {
	mu    sync.RWMutex
	store map[string]expr.Expr
	order []string
}

// NewNamespace creates a new empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{
		store: make(map[string]expr.Expr),
	}
}

// Lookup returns the resolved body bound to name. The returned tree belongs
// to the namespace; callers that keep or mutate it must Clone it.
func (n *Namespace) Lookup(name string) (expr.Expr, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	e, ok := n.store[name]
	return e, ok
}

// Get returns a private copy of the body bound to name, or nil.
func (n *Namespace) Get(name string) expr.Expr {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if e, ok := n.store[name]; ok {
		return expr.Clone(e)
	}
	return nil
}

// Set binds name to e, which must already be resolved. A redefined name
// moves to the end of the definition order.
func (n *Namespace) Set(name string, e expr.Expr) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.store[name]; ok {
		n.removeOrder(name)
	}
	n.store[name] = e
	n.order = append(n.order, name)
}

// Has returns true if the name exists in the namespace.
func (n *Namespace) Has(name string) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	_, ok := n.store[name]
	return ok
}

// Delete removes a name from the namespace.
func (n *Namespace) Delete(name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.store[name]; !ok {
		return
	}
	delete(n.store, name)
	n.removeOrder(name)
}

// Names returns the defined names in definition order.
func (n *Namespace) Names() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Len returns the number of definitions.
func (n *Namespace) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.order)
}

// Clone creates a copy of the namespace. Bodies are never mutated once
// stored, so they are shared with the copy.
func (n *Namespace) Clone() *Namespace {
	n.mu.RLock()
	defer n.mu.RUnlock()
	clone := NewNamespace()
	for k, v := range n.store {
		clone.store[k] = v
	}
	clone.order = append(clone.order, n.order...)
	return clone
}

func (n *Namespace) removeOrder(name string) {
	for i, o := range n.order {
		if o == name {
			n.order = append(n.order[:i], n.order[i+1:]...)
			return
		}
	}
}
