package eval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"nickandperla.net/ski/internal/expr"
	"nickandperla.net/ski/internal/logger"
	"nickandperla.net/ski/internal/parser"
	"nickandperla.net/ski/internal/store"
)

// ErrUndefined is returned when persisting a name that is not defined.
var ErrUndefined = errors.New("undefined name")

// Observer receives every finished reduction, e.g. for metrics.
type Observer interface {
	ObserveReduction(o Outcome, elapsed time.Duration)
}

// Result is the evaluation of one top-level expression.
type Result struct {
	Index    int        // Position among the program's expressions
	Input    string     // The expression as written
	Output   string     // Canonical rendering of the final tree
	Form     expr.Expr  // The final tree
	Passes   int        // Passes in which a rule fired
	Rules    RuleCounts // Rule firings over all passes
	Nodes    int        // Size of Form
	Status   Status
	Duration time.Duration
	Err      error // Non-nil unless Status is StatusNormal
}

// OK returns true if the expression reached normal form.
func (r Result) OK() bool {
	return r.Err == nil && r.Status == StatusNormal
}

// Evaluator resolves definitions and normalizes expressions.
type Evaluator struct {
	namespace *Namespace
	reducer   Reducer
	log       logger.Logger
	observer  Observer
	store     store.Store
	history   store.HistoryStore
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLimits sets all reduction limits at once.
func WithLimits(l Limits) Option {
	return func(e *Evaluator) { e.reducer.Limits = l }
}

// WithMaxPasses bounds the number of changing passes per expression.
func WithMaxPasses(n int) Option {
	return func(e *Evaluator) { e.reducer.Limits.MaxPasses = n }
}

// WithMaxNodes bounds the size of an expression between passes.
func WithMaxNodes(n int) Option {
	return func(e *Evaluator) { e.reducer.Limits.MaxNodes = n }
}

// WithTimeout bounds the wall-clock time spent on each expression.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) { e.reducer.Limits.Timeout = d }
}

// WithTrace sets a callback invoked after every changing pass.
func WithTrace(fn TraceFunc) Option {
	return func(e *Evaluator) { e.reducer.Trace = fn }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Evaluator) { e.log = l }
}

// WithObserver sets the reduction observer.
func WithObserver(o Observer) Option {
	return func(e *Evaluator) { e.observer = o }
}

// WithStore sets the definition store used by LoadLibrary and Persist.
func WithStore(s store.Store) Option {
	return func(e *Evaluator) { e.store = s }
}

// WithHistory records every evaluated expression in h.
func WithHistory(h store.HistoryStore) Option {
	return func(e *Evaluator) { e.history = h }
}

// WithNamespace starts the evaluator from an existing namespace.
func WithNamespace(ns *Namespace) Option {
	return func(e *Evaluator) { e.namespace = ns }
}

// New creates a new Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		namespace: NewNamespace(),
		reducer:   Reducer{Limits: DefaultLimits()},
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Namespace returns the resolved definitions.
func (e *Evaluator) Namespace() *Namespace {
	return e.namespace
}

// Limits returns the reduction limits in effect.
func (e *Evaluator) Limits() Limits {
	return e.reducer.Limits
}

// Store returns the definition store, which may be nil.
func (e *Evaluator) Store() store.Store {
	return e.store
}

// Define resolves body against the current namespace and binds it to name.
func (e *Evaluator) Define(name string, body expr.Expr) expr.Expr {
	resolved := e.namespace.Define(name, body)
	e.log.Debug("defined", "name", name, "nodes", expr.Size(resolved))
	return resolved
}

// Eval parses src and evaluates it. See EvalProgram.
func (e *Evaluator) Eval(ctx context.Context, src string) ([]Result, error) {
	return e.EvalReader(ctx, strings.NewReader(src), "<input>")
}

// EvalReader parses a program from r and evaluates it.
func (e *Evaluator) EvalReader(ctx context.Context, r io.Reader, filename string) ([]Result, error) {
	prog, err := parser.Parse(r, filename)
	if err != nil {
		return nil, err
	}
	return e.EvalProgram(ctx, prog)
}

// Load parses a program from r and defines its definitions without
// evaluating any expression. It returns the names defined.
func (e *Evaluator) Load(r io.Reader, filename string) ([]string, error) {
	prog, err := parser.Parse(r, filename)
	if err != nil {
		return nil, err
	}
	if err := prog.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	names := make([]string, 0, len(prog.Defs))
	for _, d := range prog.Defs {
		e.Define(d.Name, d.Body)
		names = append(names, d.Name)
	}
	if len(prog.Exprs) > 0 {
		e.log.Debug("load ignored expressions", "file", filename, "count", len(prog.Exprs))
	}
	return names, nil
}

// EvalProgram defines prog's definitions in order, then normalizes each
// expression independently, in order. A failed reduction is reported in its
// Result and does not stop the others. The returned error is reserved for a
// malformed program.
func (e *Evaluator) EvalProgram(ctx context.Context, prog *expr.Program) ([]Result, error) {
	if err := prog.Validate(); err != nil {
		return nil, err
	}
	for _, d := range prog.Defs {
		e.Define(d.Name, d.Body)
	}
	results := make([]Result, 0, len(prog.Exprs))
	for i, x := range prog.Exprs {
		res := e.Normalize(ctx, x)
		res.Index = i
		results = append(results, res)
	}
	return results, nil
}

// Normalize substitutes the namespace into x and reduces the result. x is
// not modified.
func (e *Evaluator) Normalize(ctx context.Context, x expr.Expr) Result {
	start := time.Now()
	res := Result{Input: expr.String(x)}

	ground := Substitute(x, e.namespace)
	out, err := e.reducer.Normalize(ctx, ground)

	res.Form = out.Form
	res.Output = out.Normal()
	res.Passes = out.Passes
	res.Rules = out.Rules
	res.Nodes = out.Nodes
	res.Status = out.Status
	res.Duration = time.Since(start)
	res.Err = err

	if err != nil {
		e.log.Warn("reduction failed",
			"input", abbreviate(res.Input), "status", res.Status, "passes", res.Passes, "err", err)
	} else {
		e.log.Debug("normalized",
			"input", abbreviate(res.Input), "passes", res.Passes, "rules", res.Rules.String(), "nodes", res.Nodes)
	}
	if e.observer != nil {
		e.observer.ObserveReduction(out, res.Duration)
	}
	e.record(res)
	return res
}

// LoadLibrary binds every definition in the store. Stored bodies are already
// resolved, so they are bound as they are. It returns the number loaded.
func (e *Evaluator) LoadLibrary() (int, error) {
	if e.store == nil {
		return 0, nil
	}
	defs, err := e.store.List()
	if err != nil {
		return 0, fmt.Errorf("loading library: %w", err)
	}
	for _, d := range defs {
		e.namespace.Set(d.Name, d.Body)
	}
	e.log.Debug("library loaded", "definitions", len(defs))
	return len(defs), nil
}

// Persist writes the resolved body of name to the store.
func (e *Evaluator) Persist(name string) error {
	if e.store == nil {
		return nil
	}
	body, ok := e.namespace.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUndefined, name)
	}
	if err := e.store.Put(name, body); err != nil {
		return fmt.Errorf("persisting %s: %w", name, err)
	}
	return nil
}

// PersistAll writes every definition in the namespace to the store, in
// definition order.
func (e *Evaluator) PersistAll() (int, error) {
	names := e.namespace.Names()
	for _, name := range names {
		if err := e.Persist(name); err != nil {
			return 0, err
		}
	}
	return len(names), nil
}

// Forget removes name from the namespace and the store.
func (e *Evaluator) Forget(name string) error {
	e.namespace.Delete(name)
	if e.store == nil {
		return nil
	}
	return e.store.Delete(name)
}

func (e *Evaluator) record(res Result) {
	if e.history == nil {
		return
	}
	run := &store.Run{
		Input:    res.Input,
		Output:   res.Output,
		Status:   res.Status.String(),
		Passes:   res.Passes,
		Nodes:    res.Nodes,
		Duration: res.Duration,
	}
	if err := e.history.Record(run); err != nil {
		e.log.Warn("history not recorded", "err", err)
	}
}

// Outputs returns the Output of every result.
func Outputs(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Output
	}
	return out
}

// FirstError returns the first failed result's error, annotated with its
// position, or nil.
func FirstError(results []Result) error {
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("expression %d: %w", r.Index+1, r.Err)
		}
	}
	return nil
}

// abbreviate keeps log lines readable for large expressions.
func abbreviate(s string) string {
	const limit = 120
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
