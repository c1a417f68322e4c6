// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package expr defines the SKI expression tree.
//
// Expr is a closed sum type: the only implementations are Var, S, K, I and
// *App. Consumers match on it with a type switch. An *App exclusively owns
// its children; a sub-tree that has to appear twice must be copied with
// Clone.
//
// Every walk in this package uses an explicit stack, so trees deeper than
// the goroutine stack would allow are handled.
package expr

import (
	"errors"
	"strings"
)

// ErrMalformed reports a tree that violates the model, such as an App with
// a missing child. It indicates a defect in whatever built the tree.
var ErrMalformed = errors.New("malformed expression")

// Expr is the interface all expression variants implement.
type Expr interface {
	// String returns the canonical fully-parenthesized rendering.
	String() string
	expr()
}

// Var is a named identifier. After substitution it is a free variable.
type Var struct {
	Name string
}

// S is the substitution combinator: S x y z = x z (y z).
type S struct{}

// K is the constant combinator: K x y = x.
type K struct{}

// I is the identity combinator: I x = x.
type I struct{}

// App is the application of Left to Right.
type App struct {
	Left  Expr
	Right Expr
}

func (Var) expr()  {}
func (S) expr()    {}
func (K) expr()    {}
func (I) expr()    {}
func (*App) expr() {}

func (v Var) String() string { return v.Name }
func (S) String() string     { return "S" }
func (K) String() string     { return "K" }
func (I) String() string     { return "I" }

func (a *App) String() string {
	var sb strings.Builder
	Write(&sb, a)
	return sb.String()
}

// NewVar creates a variable node.
func NewVar(name string) Var {
	return Var{Name: name}
}

// NewApp creates an application node.
func NewApp(left, right Expr) *App {
	return &App{Left: left, Right: right}
}

// Apply builds the left-nested application f a1 a2 ... an.
func Apply(f Expr, args ...Expr) Expr {
	e := f
	for _, a := range args {
		e = &App{Left: e, Right: a}
	}
	return e
}

// renderItem is either a sub-tree to render or literal punctuation.
type renderItem struct {
	e   Expr
	lit string
}

// Write renders e into sb in canonical form: leaves as their name or letter,
// applications as "(" left " " right ")".
func Write(sb *strings.Builder, e Expr) {
	stack := []renderItem{{e: e}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.e == nil {
			sb.WriteString(it.lit)
			continue
		}
		switch n := it.e.(type) {
		case *App:
			if n == nil {
				continue
			}
			stack = append(stack,
				renderItem{lit: ")"},
				renderItem{e: n.Right},
				renderItem{lit: " "},
				renderItem{e: n.Left},
				renderItem{lit: "("},
			)
		default:
			sb.WriteString(n.String())
		}
	}
}

// String renders e, returning "" for a nil expression.
func String(e Expr) string {
	if e == nil {
		return ""
	}
	return e.String()
}

// clonePair links a source App to the fresh App receiving its copy.
type clonePair struct {
	src, dst *App
}

// Clone returns a deep copy of e that shares no App nodes with it.
func Clone(e Expr) Expr {
	root, ok := e.(*App)
	if !ok || root == nil {
		return e
	}
	out := &App{}
	stack := []clonePair{{src: root, dst: out}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if l, ok := p.src.Left.(*App); ok && l != nil {
			c := &App{}
			p.dst.Left = c
			stack = append(stack, clonePair{src: l, dst: c})
		} else {
			p.dst.Left = p.src.Left
		}

		if r, ok := p.src.Right.(*App); ok && r != nil {
			c := &App{}
			p.dst.Right = c
			stack = append(stack, clonePair{src: r, dst: c})
		} else {
			p.dst.Right = p.src.Right
		}
	}
	return out
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b Expr) bool {
	type pair struct{ a, b Expr }
	stack := []pair{{a, b}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch x := p.a.(type) {
		case *App:
			y, ok := p.b.(*App)
			if !ok || (x == nil) != (y == nil) {
				return false
			}
			if x == nil {
				continue
			}
			stack = append(stack, pair{x.Right, y.Right}, pair{x.Left, y.Left})
		case Var:
			y, ok := p.b.(Var)
			if !ok || x.Name != y.Name {
				return false
			}
		case S:
			if _, ok := p.b.(S); !ok {
				return false
			}
		case K:
			if _, ok := p.b.(K); !ok {
				return false
			}
		case I:
			if _, ok := p.b.(I); !ok {
				return false
			}
		case nil:
			if p.b != nil {
				return false
			}
		}
	}
	return true
}

// Size returns the number of nodes in e.
func Size(e Expr) int {
	if e == nil {
		return 0
	}
	n := 0
	stack := []Expr{e}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		if a, ok := cur.(*App); ok && a != nil {
			stack = append(stack, a.Left, a.Right)
		}
	}
	return n
}

// Depth returns the height of e; a leaf has depth 1.
func Depth(e Expr) int {
	if e == nil {
		return 0
	}
	type item struct {
		e Expr
		d int
	}
	deepest := 0
	stack := []item{{e, 1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.d > deepest {
			deepest = it.d
		}
		if a, ok := it.e.(*App); ok && a != nil {
			stack = append(stack, item{a.Left, it.d + 1}, item{a.Right, it.d + 1})
		}
	}
	return deepest
}

// Validate checks that e is a well-formed tree: no nil nodes, no App with a
// missing child, no variable without a name, and no App reachable twice
// (which would mean shared ownership or a cycle).
func Validate(e Expr) error {
	seen := make(map[*App]struct{})
	stack := []Expr{e}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch n := cur.(type) {
		case nil:
			return ErrMalformed
		case *App:
			if n == nil || n.Left == nil || n.Right == nil {
				return ErrMalformed
			}
			if _, dup := seen[n]; dup {
				return ErrMalformed
			}
			seen[n] = struct{}{}
			stack = append(stack, n.Left, n.Right)
		case Var:
			if n.Name == "" {
				return ErrMalformed
			}
		}
	}
	return nil
}
