// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides a streaming lexer for SKI source text.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"nickandperla.net/ski/internal/token"
)

// Scanner tokenizes SKI input rune-by-rune.
type Scanner struct {
	reader       *bufio.Reader
	buf          strings.Builder
	peeked       *Item
	filename     string
	line         int // Current line number (1-based)
	column       int // Column of the last consumed rune (1-based, 0 before the first)
	prevColumn   int // Column before the last newline, for UnreadRune
	keepComments bool
}

// Item represents a scanned token with its value.
type Item struct {
	Token  token.Token
	Value  string
	Line   int // Line number where this token started
	Column int // Column where this token started
}

// Error is a lexical error with its source position.
type Error struct {
	File   string
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Msg)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithFilename sets the name reported in error positions.
func WithFilename(name string) Option {
	return func(s *Scanner) { s.filename = name }
}

// WithComments makes the scanner return COMMENT items instead of dropping them.
func WithComments() Option {
	return func(s *Scanner) { s.keepComments = true }
}

// New creates a new Scanner from an io.Reader.
func New(r io.Reader, opts ...Option) *Scanner {
	s := &Scanner{
		reader:   bufio.NewReader(r),
		filename: "<input>",
		line:     1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromString creates a new Scanner from a string.
func NewFromString(src string, opts ...Option) *Scanner {
	return New(strings.NewReader(src), opts...)
}

// Filename returns the name used in error positions.
func (s *Scanner) Filename() string {
	return s.filename
}

// Line returns the current line number (1-based).
func (s *Scanner) Line() int {
	return s.line
}

// Peek returns the next item without consuming it.
func (s *Scanner) Peek() (*Item, error) {
	if s.peeked != nil {
		return s.peeked, nil
	}
	item, err := s.Next()
	if err != nil {
		return nil, err
	}
	s.peeked = item
	return item, nil
}

// Next returns the next token from the input.
func (s *Scanner) Next() (*Item, error) {
	if s.peeked != nil {
		item := s.peeked
		s.peeked = nil
		return item, nil
	}

	for {
		r, err := s.read()
		if err == io.EOF {
			return &Item{Token: token.EOF, Line: s.line, Column: s.column + 1}, nil
		}
		if err != nil {
			return nil, err
		}

		if token.IsSpace(r) {
			continue
		}

		line, col := s.line, s.column

		if r == token.CommentRune {
			text, err := s.scanComment(r)
			if err != nil {
				return nil, err
			}
			if s.keepComments {
				return &Item{Token: token.COMMENT, Value: text, Line: line, Column: col}, nil
			}
			continue
		}

		if tok, ok := token.FromRune(r); ok {
			return &Item{Token: tok, Value: string(r), Line: line, Column: col}, nil
		}

		if token.IsIdentStart(r) {
			name, err := s.scanIdent(r)
			if err != nil {
				return nil, err
			}
			if name == token.KeywordDef {
				return &Item{Token: token.DEF, Value: name, Line: line, Column: col}, nil
			}
			return &Item{Token: token.IDENT, Value: name, Line: line, Column: col}, nil
		}

		return nil, &Error{
			File:   s.filename,
			Line:   line,
			Column: col,
			Msg:    fmt.Sprintf("invalid character %q", r),
		}
	}
}

// All scans the remaining input and returns every item up to, but not
// including, EOF.
func (s *Scanner) All() ([]Item, error) {
	var items []Item
	for {
		item, err := s.Next()
		if err != nil {
			return nil, err
		}
		if item.Token == token.EOF {
			return items, nil
		}
		items = append(items, *item)
	}
}

// scanIdent reads the rest of an identifier whose first rune is first.
func (s *Scanner) scanIdent(first rune) (string, error) {
	s.buf.Reset()
	s.buf.WriteRune(first)
	for {
		r, err := s.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if !token.IsIdentPart(r) {
			s.unread(r)
			break
		}
		s.buf.WriteRune(r)
	}
	return s.buf.String(), nil
}

// scanComment reads up to, but not including, the end of the line.
func (s *Scanner) scanComment(first rune) (string, error) {
	s.buf.Reset()
	s.buf.WriteRune(first)
	for {
		r, err := s.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if r == '\n' {
			s.unread(r)
			break
		}
		s.buf.WriteRune(r)
	}
	return strings.TrimRight(s.buf.String(), "\r"), nil
}

func (s *Scanner) read() (rune, error) {
	r, _, err := s.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	if r == '\n' {
		s.line++
		s.prevColumn = s.column
		s.column = 0
	} else {
		s.column++
	}
	return r, nil
}

func (s *Scanner) unread(r rune) {
	s.reader.UnreadRune()
	if r == '\n' {
		s.line--
		s.column = s.prevColumn
	} else {
		s.column--
	}
}
