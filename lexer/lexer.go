// Package lexer turns a source buffer into a stream of tokens.
//
// It scans rune-at-a-time (readChar/peek/advance, line/column tracking, a
// per-character switch in scanOne) over FoxScript's token set: the single
// character operators of token.go, doc-comments, block comments, and the
// `@include` directive. The tokenizer never fails — malformed input (an
// unterminated string or block comment) silently consumes the remainder
// of the buffer instead of reporting an error; it is the parser's job to
// notice the resulting gap.
package lexer

import (
	"fmt"

	"foxscript/pagedarray"
	"foxscript/token"
)

func isLetter(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_'
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

// FileOpener resolves the path argument of an `@include` directive to
// source text. Only NewWithIncludes takes one; the Script facade and the
// CLI commands lex with New and supply none, so `@include` is skipped
// there. Tests wire it to an in-memory map so the lexer package stays
// testable without touching the filesystem.
type FileOpener interface {
	Open(path string) (string, error)
}

// buffer is the scanning state for one source text — the Lexer's own
// input, or an `@include`d file's, pushed on inclusion and popped on
// return.
type buffer struct {
	chars   []rune
	total   int
	pos     int
	current rune
	readPos int
}

// Lexer scans one top-level source buffer, descending into `@include`d
// buffers as it encounters them.
type Lexer struct {
	buf   buffer
	stack []buffer

	// tokens is paged so each token submitted during scanning keeps a
	// stable index and address while the stream grows; Scan copies them
	// into a plain slice once scanning finishes.
	tokens *pagedarray.PagedArray[token.Token]
	line   int32
	column int

	opener FileOpener
}

// New creates a Lexer over input with no include support — any
// `@include` directive it meets is silently skipped (see scanDirective).
func New(input string) *Lexer {
	return NewWithIncludes(input, nil)
}

// NewWithIncludes creates a Lexer that resolves `@include "path"`
// directives through opener.
func NewWithIncludes(input string, opener FileOpener) *Lexer {
	lex := &Lexer{opener: opener, tokens: pagedarray.New[token.Token](0)}
	lex.buf = newBuffer(input)
	return lex
}

func newBuffer(input string) buffer {
	b := buffer{chars: []rune(input)}
	b.total = len(b.chars)
	b.readChar()
	return b
}

func (b *buffer) readChar() {
	if b.readPos >= b.total {
		b.current = rune(0)
	} else {
		b.current = b.chars[b.readPos]
	}
	b.pos = b.readPos
	b.readPos++
}

func (b *buffer) atEnd() bool {
	return b.pos >= b.total && b.current == rune(0)
}

func (b *buffer) peek() rune {
	if b.readPos >= b.total {
		return rune(0)
	}
	return b.chars[b.readPos]
}

// Scan performs lexical analysis over the whole buffer (including any
// `@include`s it reaches) and returns the resulting token stream, always
// terminated by a single EOF token.
func (lex *Lexer) Scan() []token.Token {
	lex.scanBuffer()
	lex.tokens.Append(token.Make(token.EOF, lex.line, lex.column))
	out := make([]token.Token, lex.tokens.Len())
	for i := range out {
		out[i] = *lex.tokens.Get(i)
	}
	return out
}

func (lex *Lexer) scanBuffer() {
	for !lex.buf.atEnd() {
		lex.skipWhiteSpace()
		if lex.buf.atEnd() {
			break
		}
		lex.scanOne()
	}
}

func (lex *Lexer) isWhiteSpace(r rune) bool {
	switch r {
	case ' ', '\r', '\t':
		return true
	case '\n':
		lex.line++
		lex.column = 0
		return true
	}
	return false
}

func (lex *Lexer) skipWhiteSpace() {
	for !lex.buf.atEnd() && lex.isWhiteSpace(lex.buf.current) {
		lex.advance()
	}
}

func (lex *Lexer) advance() {
	lex.buf.readChar()
	lex.column++
}

func (lex *Lexer) scanOne() {
	c := lex.buf.current
	startLine, startCol := lex.line, lex.column

	switch {
	case c == '"':
		lex.scanString()
	case c == '/':
		if lex.buf.peek() == '/' {
			lex.scanLineOrDocComment()
		} else if lex.buf.peek() == '*' {
			lex.scanBlockComment()
		} else if kind, ok := token.OperatorKind('/'); ok {
			lex.tokens.Append(token.Make(kind, startLine, startCol))
			lex.advance()
		} else {
			lex.advance()
		}
	case c == '@':
		lex.scanDirective()
	case isLetter(c):
		lex.scanIdentifier()
	case isDigit(c):
		lex.scanNumber()
	default:
		if kind, ok := token.OperatorKind(c); ok {
			lex.tokens.Append(token.Make(kind, startLine, startCol))
		}
		// any other character (stray punctuation, or an operator absent
		// from token.OperatorKind like '/') is silently consumed — the
		// tokenizer never fails.
		lex.advance()
	}
}

// scanIdentifier scans an identifier/keyword. Digits are allowed after the
// first character — a letters-only loop would break an identifier like
// `x1` into two tokens, which FoxScript source (parameter names, loop
// counters) routinely contains.
func (lex *Lexer) scanIdentifier() {
	startLine, startCol := lex.line, lex.column
	start := lex.buf.pos
	for !lex.buf.atEnd() && (isLetter(lex.buf.current) || isDigit(lex.buf.current)) {
		lex.advance()
	}
	lexeme := string(lex.buf.chars[start:lex.buf.pos])
	kind := token.IDENTIFIER
	if kw, ok := token.Keywords[lexeme]; ok {
		kind = kw
	}
	lex.tokens.Append(token.MakeLiteral(kind, lexeme, lexeme, startLine, startCol))
}

// scanNumber scans a maximal run of digits and dots starting at a digit,
// then classifies it post-hoc: digits only is an integer; digits with
// exactly one interior dot is a float; anything else (a malformed run
// like "1.2.3") falls back to an identifier-kind token carrying the raw
// text, left for the parser to reject.
func (lex *Lexer) scanNumber() {
	startLine, startCol := lex.line, lex.column
	start := lex.buf.pos
	dots := 0
	for !lex.buf.atEnd() && (isDigit(lex.buf.current) || lex.buf.current == '.') {
		if lex.buf.current == '.' {
			dots++
		}
		lex.advance()
	}
	text := string(lex.buf.chars[start:lex.buf.pos])

	switch {
	case dots == 0:
		var iv int64
		fmt.Sscanf(text, "%d", &iv)
		lex.tokens.Append(token.MakeLiteral(token.INT, int32(iv), text, startLine, startCol))
	case dots == 1 && text[0] != '.' && text[len(text)-1] != '.':
		var fv float64
		fmt.Sscanf(text, "%g", &fv)
		lex.tokens.Append(token.MakeLiteral(token.FLOAT, float32(fv), text, startLine, startCol))
	default:
		lex.tokens.Append(token.MakeLiteral(token.IDENTIFIER, text, text, startLine, startCol))
	}
}

// scanString consumes a double-quoted string literal, stripping the
// quotes from the submitted token's lexeme. An unterminated string
// silently consumes the remainder of the buffer and submits no token.
func (lex *Lexer) scanString() {
	startLine, startCol := lex.line, lex.column
	lex.advance() // consume opening quote
	start := lex.buf.pos
	for !lex.buf.atEnd() && lex.buf.current != '"' {
		if lex.buf.current == '\n' {
			lex.line++
			lex.column = 0
		}
		lex.advance()
	}
	if lex.buf.atEnd() {
		return // unterminated: consumed to EOF, no token submitted.
	}
	text := string(lex.buf.chars[start:lex.buf.pos])
	lex.advance() // consume closing quote
	lex.tokens.Append(token.MakeLiteral(token.STRING, text, text, startLine, startCol))
}

func (lex *Lexer) scanLineOrDocComment() {
	lex.advance() // first '/'
	lex.advance() // second '/'
	if lex.buf.current == '?' {
		startLine, startCol := lex.line, lex.column
		lex.advance() // '?'
		start := lex.buf.pos
		for !lex.buf.atEnd() && lex.buf.current != '\n' {
			lex.advance()
		}
		body := string(lex.buf.chars[start:lex.buf.pos])
		lex.tokens.Append(token.MakeLiteral(token.DOC_COMMENT, body, body, startLine, startCol))
		return
	}
	for !lex.buf.atEnd() && lex.buf.current != '\n' {
		lex.advance()
	}
}

// scanBlockComment consumes a `/* ... */` comment, spanning newlines. An
// unterminated block comment silently consumes the remainder of the
// buffer.
func (lex *Lexer) scanBlockComment() {
	lex.advance() // '/'
	lex.advance() // '*'
	for {
		if lex.buf.atEnd() {
			return
		}
		if lex.buf.current == '*' && lex.buf.peek() == '/' {
			lex.advance()
			lex.advance()
			return
		}
		if lex.buf.current == '\n' {
			lex.line++
			lex.column = 0
		}
		lex.advance()
	}
}

// scanDirective handles `@include "path"` and silently consumes any
// other `@word` it doesn't recognize.
func (lex *Lexer) scanDirective() {
	lex.advance() // '@'
	start := lex.buf.pos
	for !lex.buf.atEnd() && isLetter(lex.buf.current) {
		lex.advance()
	}
	word := string(lex.buf.chars[start:lex.buf.pos])
	if word != "include" {
		return
	}

	lex.skipWhiteSpace()
	if lex.buf.atEnd() || lex.buf.current != '"' {
		return
	}
	lex.advance() // opening quote
	pathStart := lex.buf.pos
	for !lex.buf.atEnd() && lex.buf.current != '"' {
		lex.advance()
	}
	if lex.buf.atEnd() {
		return
	}
	path := string(lex.buf.chars[pathStart:lex.buf.pos])
	lex.advance() // closing quote

	if lex.opener == nil {
		return
	}
	content, err := lex.opener.Open(path)
	if err != nil {
		return
	}
	lex.stack = append(lex.stack, lex.buf)
	lex.buf = newBuffer(content)
	lex.scanBuffer()
	lex.buf = lex.stack[len(lex.stack)-1]
	lex.stack = lex.stack[:len(lex.stack)-1]
}
