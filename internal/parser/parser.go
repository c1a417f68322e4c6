// Package parser builds SKI programs from source text by recursive descent.
//
//	program := { defn ";" } { expr ";" }
//	defn    := "def" ident "=" expr
//	expr    := term { term }
//	term    := ident | "S" | "K" | "I" | "(" expr ")"
//
// Juxtaposition is left-associative: "a b c" parses as ((a b) c).
package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"nickandperla.net/ski/internal/expr"
	"nickandperla.net/ski/internal/scanner"
	"nickandperla.net/ski/internal/token"
)

// Error is a syntax error with its source position.
type Error struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

// Parser consumes tokens from a scanner.
type Parser struct {
	scan         *scanner.Scanner
	keepComments bool
	prog         *expr.Program

	lastLine int         // Line of the last consumed item
	lastTok  token.Token // Last consumed non-comment token
}

// Option configures a Parser.
type Option func(*Parser)

// WithComments keeps source comments in Program.Comments, attached to the
// statement they precede or trail. A comment inside a statement moves
// before it.
func WithComments() Option {
	return func(p *Parser) { p.keepComments = true }
}

// New creates a parser reading from r. The filename is used in error
// positions.
func New(r io.Reader, filename string, opts ...Option) *Parser {
	p := &Parser{lastTok: token.EOF}
	for _, opt := range opts {
		opt(p)
	}
	scanOpts := []scanner.Option{scanner.WithFilename(filename)}
	if p.keepComments {
		scanOpts = append(scanOpts, scanner.WithComments())
	}
	p.scan = scanner.New(r, scanOpts...)
	return p
}

// Parse parses a whole program from r.
func Parse(r io.Reader, filename string, opts ...Option) (*expr.Program, error) {
	return New(r, filename, opts...).Program()
}

// ParseString parses a whole program from src.
func ParseString(src, filename string, opts ...Option) (*expr.Program, error) {
	return Parse(strings.NewReader(src), filename, opts...)
}

// ParseExpr parses a single expression with no trailing semicolon.
func ParseExpr(src string) (expr.Expr, error) {
	p := New(strings.NewReader(src), "<expr>")
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.EOF); err != nil {
		return nil, err
	}
	return e, nil
}

// Program parses definitions followed by expressions until end of input.
func (p *Parser) Program() (*expr.Program, error) {
	prog := &expr.Program{}
	p.prog = prog

	for {
		item, err := p.peek()
		if err != nil {
			return nil, err
		}
		if item.Token != token.DEF {
			break
		}
		def, err := p.definition()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		prog.Defs = append(prog.Defs, def)
	}

	for {
		item, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !item.Token.StartsTerm() {
			break
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMI); err != nil {
			return nil, err
		}
		prog.Exprs = append(prog.Exprs, e)
	}

	item, err := p.next()
	if err != nil {
		return nil, err
	}
	if item.Token != token.EOF {
		if item.Token == token.DEF {
			return nil, p.errorAt(item, "definitions must precede expressions")
		}
		return nil, p.errorAt(item, fmt.Sprintf("unexpected '%s'", item.Token))
	}
	return prog, nil
}

func (p *Parser) definition() (expr.Definition, error) {
	defItem, err := p.next()
	if err != nil {
		return expr.Definition{}, err
	}
	name, err := p.next()
	if err != nil {
		return expr.Definition{}, err
	}
	if name.Token != token.IDENT {
		return expr.Definition{}, p.expected(name, token.IDENT)
	}
	if err := p.expect(token.EQUAL); err != nil {
		return expr.Definition{}, err
	}
	body, err := p.expr()
	if err != nil {
		return expr.Definition{}, err
	}
	return expr.Definition{Name: name.Value, Body: body, Line: defItem.Line}, nil
}

// expr parses one or more terms and folds them into left-nested applications.
func (p *Parser) expr() (expr.Expr, error) {
	e, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		item, err := p.peek()
		if err != nil {
			return nil, err
		}
		if !item.Token.StartsTerm() {
			return e, nil
		}
		arg, err := p.term()
		if err != nil {
			return nil, err
		}
		e = expr.NewApp(e, arg)
	}
}

func (p *Parser) term() (expr.Expr, error) {
	item, err := p.next()
	if err != nil {
		return nil, err
	}
	switch item.Token {
	case token.IDENT:
		return expr.NewVar(item.Value), nil
	case token.S:
		return expr.S{}, nil
	case token.K:
		return expr.K{}, nil
	case token.I:
		return expr.I{}, nil
	case token.LPAREN:
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, p.errorAt(item, fmt.Sprintf("unexpected '%s'", item.Token))
}

// peek returns the next token, recording any comments before it.
func (p *Parser) peek() (*scanner.Item, error) {
	for {
		item, err := p.scan.Peek()
		if err != nil {
			return nil, err
		}
		if item.Token != token.COMMENT {
			return item, nil
		}
		p.scan.Next()
		p.note(item)
	}
}

func (p *Parser) next() (*scanner.Item, error) {
	if _, err := p.peek(); err != nil {
		return nil, err
	}
	item, err := p.scan.Next()
	if err != nil {
		return nil, err
	}
	if item.Token != token.EOF {
		p.lastLine = item.Line
		p.lastTok = item.Token
	}
	return item, nil
}

func (p *Parser) note(item *scanner.Item) {
	defer func() { p.lastLine = item.Line }()
	if p.prog == nil {
		return
	}
	done := len(p.prog.Defs) + len(p.prog.Exprs)
	c := expr.Comment{Text: item.Value, Stmt: done}
	if p.lastTok == token.SEMI && item.Line == p.lastLine && done > 0 {
		c.Stmt = done - 1
		c.Trailing = true
	} else {
		c.Gap = p.lastLine > 0 && item.Line > p.lastLine+1
	}
	p.prog.Comments = append(p.prog.Comments, c)
}

func (p *Parser) expect(want token.Token) error {
	item, err := p.next()
	if err != nil {
		return err
	}
	if item.Token != want {
		return p.expected(item, want)
	}
	return nil
}

func (p *Parser) expected(item *scanner.Item, want token.Token) error {
	return p.errorAt(item, fmt.Sprintf("expected '%s', found '%s'", want, item.Token))
}

func (p *Parser) errorAt(item *scanner.Item, msg string) error {
	return &Error{File: p.scan.Filename(), Line: item.Line, Column: item.Column, Msg: msg}
}

// IsSyntaxError reports whether err came from the scanner or the parser.
func IsSyntaxError(err error) bool {
	var pe *Error
	var se *scanner.Error
	return errors.As(err, &pe) || errors.As(err, &se)
}
