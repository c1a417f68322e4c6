package eval

import "nickandperla.net/ski/internal/expr"

// Resolve inlines defs in declaration order and returns the resulting
// namespace. Each body may only use names defined before it; any other
// identifier is left in place as a free variable.
func Resolve(defs []expr.Definition) *Namespace {
	ns := NewNamespace()
	ResolveInto(ns, defs)
	return ns
}

// ResolveInto is Resolve on top of an existing namespace.
func ResolveInto(ns *Namespace, defs []expr.Definition) {
	for _, d := range defs {
		ns.Define(d.Name, d.Body)
	}
}

// Define substitutes the names already bound in n into body and binds the
// result to name. It returns the resolved body.
func (n *Namespace) Define(name string, body expr.Expr) expr.Expr {
	resolved := Substitute(body, n)
	n.Set(name, resolved)
	return resolved
}

// Substitute returns a copy of e in which every variable bound in ns is
// replaced by a fresh copy of its body. It performs no reduction and never
// mutates e. A nil namespace yields a plain copy.
func Substitute(e expr.Expr, ns *Namespace) expr.Expr {
	leaf := func(x expr.Expr) expr.Expr {
		if v, ok := x.(expr.Var); ok && ns != nil {
			if body, ok := ns.Lookup(v.Name); ok {
				return expr.Clone(body)
			}
		}
		return x
	}

	root, ok := e.(*expr.App)
	if !ok || root == nil {
		return leaf(e)
	}

	type pair struct{ src, dst *expr.App }
	out := &expr.App{}
	stack := []pair{{root, out}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if l, ok := p.src.Left.(*expr.App); ok && l != nil {
			c := &expr.App{}
			p.dst.Left = c
			stack = append(stack, pair{l, c})
		} else {
			p.dst.Left = leaf(p.src.Left)
		}

		if r, ok := p.src.Right.(*expr.App); ok && r != nil {
			c := &expr.App{}
			p.dst.Right = c
			stack = append(stack, pair{r, c})
		} else {
			p.dst.Right = leaf(p.src.Right)
		}
	}
	return out
}
