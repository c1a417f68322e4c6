package expr

import (
	"errors"
	"testing"
)

func TestStringRendering(t *testing.T) {
	tests := []struct {
		name string
		e    Expr
		want string
	}{
		{"identity", I{}, "I"},
		{"variable", NewVar("f"), "f"},
		{"application", NewApp(S{}, K{}), "(S K)"},
		{"left nested", Apply(S{}, K{}, K{}), "((S K) K)"},
		{"right nested", NewApp(NewVar("f"), NewApp(NewVar("f"), NewVar("x"))), "(f (f x))"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := String(tt.e); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := Apply(S{}, NewVar("x"), NewApp(K{}, NewVar("y")))
	c := Clone(orig)
	if !Equal(orig, c) {
		t.Fatalf("clone differs: %s vs %s", orig, c)
	}

	// Mutating the copy must not reach the original.
	c.(*App).Right.(*App).Right = I{}
	if got := orig.String(); got != "((S x) (K y))" {
		t.Errorf("original changed to %s", got)
	}
	if err := Validate(NewApp(orig, c)); err != nil {
		t.Errorf("original and clone share nodes: %v", err)
	}
}

func TestCloneLeaf(t *testing.T) {
	if got := Clone(NewVar("v")); got != NewVar("v") {
		t.Errorf("Clone(var) = %v", got)
	}
	if got := Clone(nil); got != nil {
		t.Errorf("Clone(nil) = %v", got)
	}
}

func TestEqual(t *testing.T) {
	a := Apply(S{}, K{}, NewVar("x"))
	if !Equal(a, Apply(S{}, K{}, NewVar("x"))) {
		t.Error("equal trees reported different")
	}
	if Equal(a, Apply(S{}, K{}, NewVar("y"))) {
		t.Error("different variables reported equal")
	}
	if Equal(a, Apply(S{}, I{}, NewVar("x"))) {
		t.Error("different combinators reported equal")
	}
	if Equal(NewApp(S{}, K{}), S{}) {
		t.Error("app and leaf reported equal")
	}
	if !Equal(nil, nil) {
		t.Error("nil trees reported different")
	}
}

func TestSizeAndDepth(t *testing.T) {
	e := Apply(S{}, K{}, NewApp(K{}, I{}))
	if got := Size(e); got != 7 {
		t.Errorf("Size = %d, want 7", got)
	}
	if got := Depth(e); got != 3 {
		t.Errorf("Depth = %d, want 3", got)
	}
	if Size(nil) != 0 || Depth(nil) != 0 {
		t.Error("nil tree has non-zero size or depth")
	}
	if Size(I{}) != 1 || Depth(I{}) != 1 {
		t.Error("leaf size and depth must be 1")
	}
}

func TestValidate(t *testing.T) {
	shared := NewApp(K{}, I{})
	cyclic := NewApp(S{}, K{})
	cyclic.Right = cyclic

	tests := []struct {
		name string
		e    Expr
		ok   bool
	}{
		{"leaf", K{}, true},
		{"tree", Apply(S{}, NewVar("x"), NewVar("y")), true},
		{"nil", nil, false},
		{"missing child", &App{Left: S{}}, false},
		{"nil app child", &App{Left: S{}, Right: (*App)(nil)}, false},
		{"empty var", NewApp(S{}, Var{}), false},
		{"shared subtree", NewApp(shared, shared), false},
		{"cycle", cyclic, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.e)
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrMalformed) {
				t.Errorf("expected ErrMalformed, got %v", err)
			}
		})
	}
}

func TestDeepTreeNoRecursion(t *testing.T) {
	// A left spine deep enough to exhaust a recursive walker's stack.
	const depth = 1_000_000
	var e Expr = NewVar("x")
	for i := 0; i < depth; i++ {
		e = NewApp(e, I{})
	}
	if got := Depth(e); got != depth+1 {
		t.Fatalf("Depth = %d, want %d", got, depth+1)
	}
	c := Clone(e)
	if !Equal(e, c) {
		t.Fatal("deep clone differs")
	}
	if err := Validate(c); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s := String(c); len(s) != 1+depth*4 {
		t.Errorf("rendering length = %d, want %d", len(s), 1+depth*4)
	}
}

func TestProgramString(t *testing.T) {
	p := &Program{
		Defs: []Definition{
			{Name: "tt", Body: K{}},
			{Name: "ff", Body: NewApp(S{}, K{})},
		},
		Exprs: []Expr{Apply(NewVar("tt"), NewVar("a"), NewVar("b"))},
	}
	want := "def tt = K;\ndef ff = (S K);\n\n((tt a) b);\n"
	if got := p.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if p.IsEmpty() {
		t.Error("program reported empty")
	}
	if !(&Program{}).IsEmpty() {
		t.Error("empty program reported non-empty")
	}
	if err := p.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
	p.Defs = append(p.Defs, Definition{Name: "", Body: I{}})
	if err := p.Validate(); !errors.Is(err, ErrMalformed) {
		t.Errorf("unnamed definition: got %v", err)
	}
}

func TestProgramStringComments(t *testing.T) {
	p := &Program{
		Defs:  []Definition{{Name: "a", Body: K{}}},
		Exprs: []Expr{NewApp(I{}, NewVar("x"))},
		Comments: []Comment{
			{Text: "# header", Stmt: 0},
			{Text: "# a is K", Stmt: 0, Trailing: true},
			{Text: "# before x", Stmt: 1, Gap: true},
			{Text: "# t", Stmt: 1, Trailing: true},
			{Text: "# end", Stmt: 2, Gap: true},
		},
	}
	want := "# header\ndef a = K; # a is K\n\n# before x\n(I x); # t\n\n# end\n"
	if got := p.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestProgramStringOnlyComments(t *testing.T) {
	p := &Program{Comments: []Comment{{Text: "# one"}, {Text: "# two", Stmt: 5, Gap: true}}}
	if got, want := p.String(), "# one\n\n# two\n"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
