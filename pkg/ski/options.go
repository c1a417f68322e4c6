package ski

import (
	"time"

	"nickandperla.net/ski/internal/eval"
	"nickandperla.net/ski/internal/expr"
	"nickandperla.net/ski/internal/logger"
	"nickandperla.net/ski/internal/metrics"
	"nickandperla.net/ski/internal/store"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithSQLiteStore configures SQLite persistence at the given path.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err != nil {
			r.err = err
			return
		}
		r.store = s
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = store.NewMemory()
	}
}

// WithStore uses a caller-provided store. The runtime closes it on Close.
func WithStore(s Store) Option {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithLimits sets all reduction limits.
func WithLimits(l Limits) Option {
	return func(r *Runtime) {
		r.limits = l
	}
}

// WithMaxPasses bounds the number of changing passes per expression.
func WithMaxPasses(n int) Option {
	return func(r *Runtime) {
		r.limits.MaxPasses = n
	}
}

// WithMaxNodes bounds the size of an expression between passes.
func WithMaxNodes(n int) Option {
	return func(r *Runtime) {
		r.limits.MaxNodes = n
	}
}

// WithTimeout bounds the time spent reducing each expression.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Runtime) {
		r.limits.Timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runtime) {
		r.log = l
	}
}

// WithMetrics records every reduction in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runtime) {
		r.metrics = m
	}
}

// WithTrace calls fn after every changing pass.
func WithTrace(fn eval.TraceFunc) Option {
	return func(r *Runtime) {
		r.trace = fn
	}
}

// WithPrelude loads the standard prelude on startup.
func WithPrelude() Option {
	return func(r *Runtime) {
		r.usePrelude = true
	}
}

// WithCustomPrelude loads source instead of the standard prelude on startup.
func WithCustomPrelude(source string) Option {
	return func(r *Runtime) {
		r.usePrelude = true
		r.prelude = source
	}
}

// WithHistory records every evaluated expression in the store, when the
// store keeps a history.
func WithHistory() Option {
	return func(r *Runtime) {
		r.history = true
	}
}

// Store is the definition store interface.
type Store = store.Store

// Limits bounds a reduction.
type Limits = eval.Limits

// Result is the evaluation of one expression.
type Result = eval.Result

// Definition is a named, resolved body.
type Definition = expr.Definition

// Run is a recorded evaluation.
type Run = store.Run

// Version is an earlier body of a persisted definition.
type Version = store.VersionEntry

// DefaultLimits returns the default reduction limits.
func DefaultLimits() Limits {
	return eval.DefaultLimits()
}
