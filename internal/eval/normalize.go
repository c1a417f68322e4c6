package eval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nickandperla.net/ski/internal/expr"
)

var (
	// ErrNotConverged means the pass budget ran out while rules were still firing.
	ErrNotConverged = errors.New("did not converge")
	// ErrTooLarge means the tree outgrew the node budget.
	ErrTooLarge = errors.New("expression too large")
)

// Default reduction limits.
const (
	DefaultMaxPasses = 100000
	DefaultMaxNodes  = 1 << 22
)

// Limits bounds a reduction. Zero values disable the corresponding check.
type Limits struct {
	MaxPasses int           // Passes in which a rule may fire
	MaxNodes  int           // Largest tree allowed between passes
	Timeout   time.Duration // Wall-clock budget per expression
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxPasses: DefaultMaxPasses,
		MaxNodes:  DefaultMaxNodes,
	}
}

// Status is the terminal state of a reduction.
type Status int

const (
	// StatusNormal means a pass fired no rule: the expression is in normal form.
	StatusNormal Status = iota
	// StatusNotConverged means MaxPasses was exhausted.
	StatusNotConverged
	// StatusTooLarge means MaxNodes was exceeded.
	StatusTooLarge
	// StatusCancelled means the context was cancelled or timed out.
	StatusCancelled
	// StatusMalformed means the input tree failed validation.
	StatusMalformed
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusNotConverged:
		return "not_converged"
	case StatusTooLarge:
		return "too_large"
	case StatusCancelled:
		return "cancelled"
	case StatusMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// ParseStatus parses the output of Status.String.
func ParseStatus(s string) (Status, bool) {
	for st := StatusNormal; st <= StatusMalformed; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return StatusNormal, false
}

// Outcome describes a finished reduction.
type Outcome struct {
	Form   expr.Expr  // Final tree; the normal form when Status is StatusNormal
	Passes int        // Passes in which at least one rule fired
	Rules  RuleCounts // Rule firings over all passes
	Nodes  int        // Size of Form
	Status Status
}

// Normal returns the canonical rendering of the final tree.
func (o Outcome) Normal() string {
	return expr.String(o.Form)
}

// TraceFunc observes the tree after every pass that changed it.
type TraceFunc func(pass int, e expr.Expr, rules RuleCounts)

// Reducer drives expressions to normal form.
type Reducer struct {
	Limits Limits
	Trace  TraceFunc
}

// Normalize reduces e with the given limits. See Reducer.Normalize.
func Normalize(ctx context.Context, e expr.Expr, limits Limits) (Outcome, error) {
	r := Reducer{Limits: limits}
	return r.Normalize(ctx, e)
}

// Normalize repeats Rewrite passes over e until a pass fires no rule. The
// tree is consumed: callers that need e afterwards must pass a Clone.
//
// The loop stops early with ErrNotConverged after Limits.MaxPasses changing
// passes, with ErrTooLarge when the tree grows past Limits.MaxNodes, and with
// the context's error when ctx is done. The Outcome is filled in on every
// path and holds the last tree reached.
func (r *Reducer) Normalize(ctx context.Context, e expr.Expr) (Outcome, error) {
	if err := expr.Validate(e); err != nil {
		return Outcome{Form: e, Status: StatusMalformed}, err
	}
	if r.Limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Limits.Timeout)
		defer cancel()
	}

	out := Outcome{Form: e}
	for {
		if err := ctx.Err(); err != nil {
			out.Status = StatusCancelled
			out.Nodes = expr.Size(out.Form)
			return out, fmt.Errorf("reduction stopped after %d passes: %w", out.Passes, err)
		}

		next, fired := Rewrite(out.Form)
		out.Form = next
		if fired.Total() == 0 {
			out.Status = StatusNormal
			out.Nodes = expr.Size(out.Form)
			return out, nil
		}
		if r.Limits.MaxPasses > 0 && out.Passes >= r.Limits.MaxPasses {
			out.Status = StatusNotConverged
			out.Nodes = expr.Size(out.Form)
			return out, fmt.Errorf("%w after %d passes", ErrNotConverged, out.Passes)
		}
		out.Passes++
		out.Rules.Add(fired)

		if r.Trace != nil {
			r.Trace(out.Passes, out.Form, fired)
		}

		if r.Limits.MaxNodes > 0 {
			if n := expr.Size(out.Form); n > r.Limits.MaxNodes {
				out.Status = StatusTooLarge
				out.Nodes = n
				return out, fmt.Errorf("%w: %d nodes after %d passes (limit %d)",
					ErrTooLarge, n, out.Passes, r.Limits.MaxNodes)
			}
		}
	}
}
