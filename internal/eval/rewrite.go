package eval

import (
	"fmt"

	"nickandperla.net/ski/internal/expr"
)

// Rule identifies one of the three reduction rules.
type Rule int

const (
	// RuleI rewrites I x to x.
	RuleI Rule = iota
	// RuleK rewrites K x y to x without looking at y.
	RuleK
	// RuleS rewrites S x y z to x z (y z), copying z.
	RuleS
)

// String returns the rule's combinator letter.
func (r Rule) String() string {
	switch r {
	case RuleI:
		return "I"
	case RuleK:
		return "K"
	case RuleS:
		return "S"
	default:
		return "UNKNOWN"
	}
}

// RuleCounts tallies rule firings.
type RuleCounts struct {
	I int
	K int
	S int
}

// Total returns the number of rule firings.
func (c RuleCounts) Total() int {
	return c.I + c.K + c.S
}

// Add accumulates o into c.
func (c *RuleCounts) Add(o RuleCounts) {
	c.I += o.I
	c.K += o.K
	c.S += o.S
}

func (c *RuleCounts) inc(r Rule) {
	switch r {
	case RuleI:
		c.I++
	case RuleK:
		c.K++
	case RuleS:
		c.S++
	}
}

func (c RuleCounts) String() string {
	return fmt.Sprintf("I=%d K=%d S=%d", c.I, c.K, c.S)
}

// slot is a reference to the place a sub-tree lives, so a rewritten node can
// be written back into its parent.
type slot struct {
	ref     *expr.Expr
	visited bool
}

// Rewrite performs one bottom-up pass over e. At every application the
// children are rewritten first, then the node itself is matched against the
// I, K and S rules in that order; whatever a rule produces is left for the
// next pass. The tree is rewritten in place and the new root is returned
// together with the number of rules that fired.
func Rewrite(e expr.Expr) (expr.Expr, RuleCounts) {
	root := e
	var counts RuleCounts

	stack := []slot{{ref: &root}}
	for len(stack) > 0 {
		top := len(stack) - 1
		app, ok := (*stack[top].ref).(*expr.App)
		if !ok || app == nil {
			stack = stack[:top]
			continue
		}
		if !stack[top].visited {
			stack[top].visited = true
			stack = append(stack, slot{ref: &app.Right}, slot{ref: &app.Left})
			continue
		}
		ref := stack[top].ref
		stack = stack[:top]
		if out, rule, ok := step(app); ok {
			*ref = out
			counts.inc(rule)
		}
	}
	return root, counts
}

// step applies the first matching rule at app.
func step(app *expr.App) (expr.Expr, Rule, bool) {
	switch l := app.Left.(type) {
	case expr.I:
		// I x = x
		return app.Right, RuleI, true
	case *expr.App:
		switch ll := l.Left.(type) {
		case expr.K:
			// K x y = x
			return l.Right, RuleK, true
		case *expr.App:
			if _, ok := ll.Left.(expr.S); ok {
				// S x y z = x z (y z)
				x, y, z := ll.Right, l.Right, app.Right
				return expr.NewApp(
					expr.NewApp(x, z),
					expr.NewApp(y, expr.Clone(z)),
				), RuleS, true
			}
		}
	}
	return nil, 0, false
}
