package expr

import "strings"

// Definition binds a name to an expression body.
type Definition struct {
	Name string
	Body Expr
	Line int // Source line of the def keyword, 0 if unknown
}

func (d Definition) String() string {
	return "def " + d.Name + " = " + String(d.Body)
}

// Comment is a source comment kept for reformatting. Statements are
// numbered definitions first, then expressions; a Stmt equal to the
// statement count places the comment at the end of the program.
type Comment struct {
	Text     string // Including the leading '#'
	Stmt     int
	Trailing bool // Follows the statement on the same line
	Gap      bool // A blank line preceded it in the source
}

// Program is an ordered list of definitions followed by the top-level
// expressions to evaluate. Comments are only filled in when the parser is
// asked to keep them, and evaluation ignores them.
type Program struct {
	Defs     []Definition
	Exprs    []Expr
	Comments []Comment
}

// IsEmpty returns true if the program has neither definitions nor expressions.
func (p *Program) IsEmpty() bool {
	return p == nil || (len(p.Defs) == 0 && len(p.Exprs) == 0)
}

// String renders the program in canonical form: one definition per line, a
// blank line, then one expression per line. Kept comments are written
// before or after their statement, and a blank line is kept before a
// comment that had one.
func (p *Program) String() string {
	if p == nil {
		return ""
	}
	n := len(p.Defs) + len(p.Exprs)
	leading := make(map[int][]Comment)
	trailing := make(map[int]Comment)
	for _, c := range p.Comments {
		switch {
		case c.Trailing && c.Stmt < n:
			trailing[c.Stmt] = c
		case c.Stmt >= n:
			leading[n] = append(leading[n], c)
		default:
			leading[c.Stmt] = append(leading[c.Stmt], c)
		}
	}

	var sb strings.Builder
	blank := func() {
		s := sb.String()
		if s != "" && !strings.HasSuffix(s, "\n\n") {
			sb.WriteString("\n")
		}
	}
	comments := func(cs []Comment) {
		for _, c := range cs {
			if c.Gap {
				blank()
			}
			sb.WriteString(c.Text)
			sb.WriteString("\n")
		}
	}

	for i := 0; i < n; i++ {
		if i == len(p.Defs) && i > 0 {
			blank()
		}
		comments(leading[i])
		if i < len(p.Defs) {
			sb.WriteString(p.Defs[i].String())
		} else {
			Write(&sb, p.Exprs[i-len(p.Defs)])
		}
		sb.WriteString(";")
		if c, ok := trailing[i]; ok {
			sb.WriteString(" ")
			sb.WriteString(c.Text)
		}
		sb.WriteString("\n")
	}
	comments(leading[n])
	return sb.String()
}

// Validate checks every definition body and expression in the program.
func (p *Program) Validate() error {
	for _, d := range p.Defs {
		if d.Name == "" {
			return ErrMalformed
		}
		if err := Validate(d.Body); err != nil {
			return err
		}
	}
	for _, e := range p.Exprs {
		if err := Validate(e); err != nil {
			return err
		}
	}
	return nil
}
