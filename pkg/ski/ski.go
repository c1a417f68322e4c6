// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package ski provides the public API for the SKI normalizer.
package ski

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"nickandperla.net/ski/internal/eval"
	"nickandperla.net/ski/internal/logger"
	"nickandperla.net/ski/internal/metrics"
	"nickandperla.net/ski/internal/parser"
	"nickandperla.net/ski/internal/stdlib"
	"nickandperla.net/ski/internal/store"
)

// ErrNoStore is returned by library operations on a runtime without a store.
var ErrNoStore = errors.New("no definition store configured")

// ErrNoHistory is returned by History when the store keeps no history.
var ErrNoHistory = errors.New("store does not keep a history")

// Runtime is the SKI normalizer runtime. It keeps the definitions of every
// program it evaluates, so later programs may refer to earlier definitions.
type Runtime struct {
	evaluator  *eval.Evaluator
	store      store.Store
	limits     eval.Limits
	log        logger.Logger
	metrics    *metrics.Metrics
	trace      eval.TraceFunc
	prelude    string // Custom prelude source (if empty, uses stdlib.Prelude)
	usePrelude bool
	history    bool
	err        error // First error raised by an option
}

// New creates a runtime. The prelude, when requested, is loaded first and the
// persisted library second, so stored definitions override prelude ones.
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		limits: eval.DefaultLimits(),
		log:    logger.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.err != nil {
		r.closeStore()
		return nil, r.err
	}

	evalOpts := []eval.Option{
		eval.WithLimits(r.limits),
		eval.WithLogger(r.log),
	}
	if r.store != nil {
		evalOpts = append(evalOpts, eval.WithStore(r.store))
		if h, ok := r.store.(store.HistoryStore); ok && r.history {
			evalOpts = append(evalOpts, eval.WithHistory(h))
		}
	}
	if r.metrics != nil {
		evalOpts = append(evalOpts, eval.WithObserver(r.metrics))
	}
	if r.trace != nil {
		evalOpts = append(evalOpts, eval.WithTrace(r.trace))
	}
	r.evaluator = eval.New(evalOpts...)

	if r.usePrelude {
		src, name := r.prelude, "<prelude>"
		if src == "" {
			src, name = stdlib.Prelude, stdlib.Filename
		}
		if _, err := r.evaluator.Load(strings.NewReader(src), name); err != nil {
			r.closeStore()
			return nil, fmt.Errorf("loading prelude: %w", err)
		}
	}
	if _, err := r.evaluator.LoadLibrary(); err != nil {
		r.closeStore()
		return nil, err
	}
	return r, nil
}

// Eval evaluates a program and returns one canonical line per expression.
// The error is the first failure, syntax or reduction; outputs of the other
// expressions are still returned.
func (r *Runtime) Eval(src string) ([]string, error) {
	results, err := r.EvalContext(context.Background(), src)
	if err != nil {
		return nil, err
	}
	return eval.Outputs(results), eval.FirstError(results)
}

// EvalContext evaluates a program and returns a result per expression.
func (r *Runtime) EvalContext(ctx context.Context, src string) ([]Result, error) {
	return r.evaluator.Eval(ctx, src)
}

// EvalReader evaluates a program read from reader.
func (r *Runtime) EvalReader(ctx context.Context, reader io.Reader, filename string) ([]Result, error) {
	return r.evaluator.EvalReader(ctx, reader, filename)
}

// EvalFile evaluates a program file.
func (r *Runtime) EvalFile(ctx context.Context, path string) ([]Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.EvalReader(ctx, f, path)
}

// LoadFile defines the definitions in a file without evaluating its
// expressions. It returns the names defined.
func (r *Runtime) LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return r.evaluator.Load(f, path)
}

// Define parses body as a single expression and binds it to name.
func (r *Runtime) Define(name, body string) error {
	e, err := parser.ParseExpr(body)
	if err != nil {
		return err
	}
	r.evaluator.Define(name, e)
	return nil
}

// Lookup returns the canonical resolved body of name.
func (r *Runtime) Lookup(name string) (string, bool) {
	e, ok := r.evaluator.Namespace().Lookup(name)
	if !ok {
		return "", false
	}
	return e.String(), true
}

// Definitions returns the session's definitions in definition order.
func (r *Runtime) Definitions() []Definition {
	ns := r.evaluator.Namespace()
	names := ns.Names()
	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		if body := ns.Get(name); body != nil {
			defs = append(defs, Definition{Name: name, Body: body})
		}
	}
	return defs
}

// Persist writes the definition of name to the store.
func (r *Runtime) Persist(name string) error {
	if r.store == nil {
		return ErrNoStore
	}
	return r.evaluator.Persist(name)
}

// PersistAll writes every session definition to the store.
func (r *Runtime) PersistAll() (int, error) {
	if r.store == nil {
		return 0, ErrNoStore
	}
	return r.evaluator.PersistAll()
}

// Forget removes name from the session and the store.
func (r *Runtime) Forget(name string) error {
	return r.evaluator.Forget(name)
}

// Library returns the persisted definitions in definition order.
func (r *Runtime) Library() ([]Definition, error) {
	if r.store == nil {
		return nil, ErrNoStore
	}
	return r.store.List()
}

// Versions returns up to limit earlier bodies of a persisted name, newest
// first.
func (r *Runtime) Versions(name string, limit int) ([]Version, error) {
	vs, ok := r.store.(store.VersionStore)
	if !ok {
		return nil, ErrNoStore
	}
	return vs.Versions(name, limit)
}

// History returns up to limit recorded evaluations, newest first.
func (r *Runtime) History(limit int) ([]Run, error) {
	h, ok := r.store.(store.HistoryStore)
	if !ok {
		return nil, ErrNoHistory
	}
	return h.History(limit)
}

// Limits returns the reduction limits in effect.
func (r *Runtime) Limits() Limits {
	return r.evaluator.Limits()
}

// Metrics returns the metrics set with WithMetrics, or nil.
func (r *Runtime) Metrics() *metrics.Metrics {
	return r.metrics
}

// Close releases resources.
func (r *Runtime) Close() error {
	return r.closeStore()
}

func (r *Runtime) closeStore() error {
	if r.store == nil {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	return err
}
