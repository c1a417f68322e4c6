// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines the token kinds of the SKI source language.
package token

// Token represents an SKI token type.
type Token int

const (
	EOF Token = iota
	IDENT

	// Primitive combinators
	S // S
	K // K
	I // I

	// Punctuation
	LPAREN // (
	RPAREN // )
	SEMI   // ;
	EQUAL  // =

	// Keywords
	DEF // def

	// Trivia, dropped by the scanner unless asked to keep it
	COMMENT // # ... end of line
)

// Keyword introducing a definition.
const KeywordDef = "def"

// CommentRune starts a line comment.
const CommentRune = '#'

// names is the kind-to-name table used in diagnostics.
var names = map[Token]string{
	EOF:     "end of input",
	IDENT:   "identifier",
	S:       "S",
	K:       "K",
	I:       "I",
	LPAREN:  "(",
	RPAREN:  ")",
	SEMI:    ";",
	EQUAL:   "=",
	DEF:     "def",
	COMMENT: "comment",
}

// String returns the diagnostic name of a token.
func (t Token) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return "UNKNOWN"
}

// FromRune returns the token for a single-rune lexeme, and false if the rune
// does not form a token on its own.
func FromRune(r rune) (Token, bool) {
	switch r {
	case 'S':
		return S, true
	case 'K':
		return K, true
	case 'I':
		return I, true
	case '(':
		return LPAREN, true
	case ')':
		return RPAREN, true
	case ';':
		return SEMI, true
	case '=':
		return EQUAL, true
	}
	return EOF, false
}

// IsIdentStart reports whether r may begin an identifier.
func IsIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || r == '_'
}

// IsIdentPart reports whether r may continue an identifier.
func IsIdentPart(r rune) bool {
	return IsIdentStart(r) || (r >= '0' && r <= '9')
}

// IsSpace reports whether r is insignificant whitespace.
func IsSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

// IsCombinator returns true for S, K and I.
func (t Token) IsCombinator() bool {
	switch t {
	case S, K, I:
		return true
	}
	return false
}

// StartsTerm returns true if the token can begin an application operand.
func (t Token) StartsTerm() bool {
	switch t {
	case IDENT, S, K, I, LPAREN:
		return true
	}
	return false
}
