// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"nickandperla.net/ski/internal/expr"
	"nickandperla.net/ski/internal/store"
)

func evalOutputs(t *testing.T, e *Evaluator, src string) []string {
	t.Helper()
	results, err := e.Eval(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := FirstError(results); err != nil {
		t.Fatalf("unexpected reduction error: %v", err)
	}
	return Outputs(results)
}

func assertOutputs(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d outputs %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("output %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNaturalNumbers(t *testing.T) {
	out := evalOutputs(t, New(), `
def inc = S (S (K S) K);
def _0  = S K;
def _1  = inc _0;

_0 f x;
_1 f x;
(inc _1) f x;
`)
	assertOutputs(t, out, "x", "(f x)", "(f (f x))")
}

func TestSwapCombinator(t *testing.T) {
	out := evalOutputs(t, New(), "def swap = S (K (SI)) (S (K K) I);\nswap a b;")
	assertOutputs(t, out, "(b a)")
}

func TestIsOdd(t *testing.T) {
	out := evalOutputs(t, New(), `
def ff = S K;
def tt = K;
def c1 = S (K S) K;
def c2 = S (c1 S (c1 K (c1 S (S (c1 c1 I) (K I)))))(K (c1 K I));
def not = S(S I (K (S K))) (K K);
def is_odd = c2 (c2 I not) ff;

def inc = S (S (K S) K);
def _0  = S K;
def _1  = inc _0;
def _2  = inc _1;

is_odd _0;
is_odd _1;
is_odd _2;
`)
	assertOutputs(t, out, "(S K)", "K", "(S K)")
}

func TestArithmetic(t *testing.T) {
	out := evalOutputs(t, New(), `
def c1 = S (K S) K;
def c2 = S (c1 S (c1 K (c1 S (S (c1 c1 I) (K I)))))(K (c1 K I));
def inc = S (S (K S) K);
def add = c2 ( c1 c1 ( c2 I inc) ) I;

def _0  = S K;
def _1  = inc _0;
def _2  = inc _1;
def _3  = inc _2;
def _4  = inc _3;
def _5  = inc _4;

_5;
add _3 _2;
`)
	five := "((S ((S (K S)) K)) ((S ((S (K S)) K)) ((S ((S (K S)) K)) ((S ((S (K S)) K)) ((S ((S (K S)) K)) (S K))))))"
	assertOutputs(t, out, five, five)
}

func TestDefinitionOrder(t *testing.T) {
	assertOutputs(t, evalOutputs(t, New(), "def a = b; def b = K; a x y;"), "((b x) y)")
	assertOutputs(t, evalOutputs(t, New(), "def b = K; def a = b; a x y;"), "x")
}

func TestDefinitionsPersistAcrossPrograms(t *testing.T) {
	e := New()
	evalOutputs(t, e, "def t = K; def u = t;")
	assertOutputs(t, evalOutputs(t, e, "def t = S K; u a b; t a b;"), "a", "b")
}

func TestFailuresAreIndependent(t *testing.T) {
	e := New(WithMaxPasses(200))
	results, err := e.Eval(context.Background(), "I a; S I I (S I I); K b c;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if !results[0].OK() || results[0].Output != "a" {
		t.Errorf("result 0 = %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrNotConverged) || results[1].Status != StatusNotConverged {
		t.Errorf("result 1 = %v %s", results[1].Err, results[1].Status)
	}
	if !results[2].OK() || results[2].Output != "b" || results[2].Index != 2 {
		t.Errorf("result 2 = %+v", results[2])
	}
	if err := FirstError(results); err == nil || !strings.HasPrefix(err.Error(), "expression 2: ") {
		t.Errorf("FirstError = %v", err)
	}
}

func TestSyntaxErrorStopsProgram(t *testing.T) {
	e := New()
	if _, err := e.Eval(context.Background(), "def x = K; x a"); err == nil {
		t.Fatal("expected syntax error")
	}
	if e.Namespace().Has("x") {
		t.Error("definitions of an unparsable program were applied")
	}
}

func TestInputUnchanged(t *testing.T) {
	e := New()
	x := expr.Apply(expr.S{}, expr.K{}, expr.K{}, expr.NewVar("x"))
	res := e.Normalize(context.Background(), x)
	if res.Output != "x" || res.Input != "(((S K) K) x)" {
		t.Errorf("result = %+v", res)
	}
	if got := x.String(); got != "(((S K) K) x)" {
		t.Errorf("input mutated to %s", got)
	}
}

func TestEvalProgramRejectsMalformed(t *testing.T) {
	prog := &expr.Program{Exprs: []expr.Expr{&expr.App{Left: expr.I{}}}}
	if _, err := New().EvalProgram(context.Background(), prog); !errors.Is(err, expr.ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestLoadSkipsExpressions(t *testing.T) {
	e := New(WithHistory(store.NewMemory()))
	names, err := e.Load(strings.NewReader("def tt = K; def ff = S K; tt a b;"), "lib.ski")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "tt" || names[1] != "ff" {
		t.Errorf("names = %v", names)
	}
}

type countingObserver struct {
	calls  int
	status []Status
}

func (o *countingObserver) ObserveReduction(out Outcome, elapsed time.Duration) {
	o.calls++
	o.status = append(o.status, out.Status)
}

func TestObserver(t *testing.T) {
	obs := &countingObserver{}
	e := New(WithObserver(obs), WithMaxPasses(10))
	if _, err := e.Eval(context.Background(), "I a; S I I (S I I);"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.calls != 2 || obs.status[0] != StatusNormal || obs.status[1] != StatusNotConverged {
		t.Errorf("observer saw %d calls: %v", obs.calls, obs.status)
	}
}

func TestHistory(t *testing.T) {
	h := store.NewMemory()
	e := New(WithHistory(h), WithMaxNodes(4))
	if _, err := e.Eval(context.Background(), "K a b; S I I x;"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runs, err := h.History(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs", len(runs))
	}
	if runs[0].Status != "too_large" || runs[1].Output != "a" || runs[1].Passes != 1 {
		t.Errorf("runs = %+v", runs)
	}
}

func TestLibraryRoundTrip(t *testing.T) {
	s := store.NewMemory()
	e := New(WithStore(s))
	evalOutputs(t, e, "def tt = K; def pick = tt;")
	if err := e.Persist("pick"); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := e.Persist("nope"); !errors.Is(err, ErrUndefined) {
		t.Errorf("persisting an undefined name: %v", err)
	}

	fresh := New(WithStore(s))
	n, err := fresh.LoadLibrary()
	if err != nil || n != 1 {
		t.Fatalf("LoadLibrary = %d, %v", n, err)
	}
	// The stored body is already resolved, so tt need not be stored.
	assertOutputs(t, evalOutputs(t, fresh, "pick a b;"), "a")

	if err := fresh.Forget("pick"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if body, _ := s.Get("pick"); body != nil {
		t.Error("forgotten definition still stored")
	}
	assertOutputs(t, evalOutputs(t, fresh, "pick a b;"), "((pick a) b)")
}

func TestPersistAll(t *testing.T) {
	s := store.NewMemory()
	e := New(WithStore(s))
	evalOutputs(t, e, "def a = K; def b = S; def c = I;")
	n, err := e.PersistAll()
	if err != nil || n != 3 {
		t.Fatalf("PersistAll = %d, %v", n, err)
	}
	defs, _ := s.List()
	if len(defs) != 3 || defs[0].Name != "a" || defs[2].Name != "c" {
		t.Errorf("stored = %v", defs)
	}
}

func TestWithoutStore(t *testing.T) {
	e := New()
	if n, err := e.LoadLibrary(); n != 0 || err != nil {
		t.Errorf("LoadLibrary = %d, %v", n, err)
	}
	if err := e.Persist("x"); err != nil {
		t.Errorf("Persist = %v", err)
	}
	if e.Store() != nil {
		t.Error("unexpected store")
	}
}
