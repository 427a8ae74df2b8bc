// Package token defines the token type shared by the scanner, the
// keyword resolver and the lexer facade, and the drain-once queue used
// for token injection (push-back and block expansion).
package token

// Type identifies a token's kind. Negative values are reserved sentinels
// (EOF, end-of-input); zero and positive values identify primitive token
// kinds (see the Kind* constants) or, once resolved against a keyword
// table, a grammar-specific keyword token id.
type Type int

const (
	// EofType marks the end of the current include frame.
	EofType Type = -1
	// EoiType marks the end of input (the include stack is empty).
	EoiType Type = -2

	// KindNumber, KindString, KindIdentifier, KindPunct, KindOperator,
	// KindPragma and KindCapture are the primitive token kinds produced by
	// the raw scanner before keyword resolution narrows KindIdentifier
	// tokens down to specific grammar token ids.
	KindNumber Type = iota
	KindString
	KindIdentifier
	KindPunct
	KindOperator
	KindPragma
	KindCapture
)

// SourcePos is implemented by anything that can describe where a token
// came from; source.Pos satisfies it.
type SourcePos interface {
	SourceName() string
	Line() int
	Col() int
}

// Token is an immutable lexical unit. Tokens carrying string or
// identifier text own a private copy of their lexeme: Copy() duplicates
// it so a Block can be drained independently of whoever reads from it.
type Token struct {
	typ        Type
	text       string
	sourceName string
	line, col  int
	injected   bool
}

// New creates a Token of the given type and text at the given position.
func New(typ Type, text string, pos SourcePos) *Token {
	t := &Token{typ: typ, text: text}
	if pos != nil {
		t.sourceName = pos.SourceName()
		t.line = pos.Line()
		t.col = pos.Col()
	}
	return t
}

// Eof returns the end-of-frame sentinel token at the given position.
func Eof(pos SourcePos) *Token {
	return New(EofType, "", pos)
}

// Eoi returns the end-of-input sentinel token (no position).
func Eoi() *Token {
	return New(EoiType, "", nil)
}

func (t *Token) Type() Type     { return t.typ }
func (t *Token) Text() string   { return t.text }
func (t *Token) SourceName() string {
	return t.sourceName
}
func (t *Token) Line() int { return t.line }
func (t *Token) Col() int  { return t.col }

// Injected reports whether this token was produced by draining a Block
// rather than by a fresh scan; the facade uses this to skip re-echoing it.
func (t *Token) Injected() bool {
	return t.injected
}

// WithPos returns a copy of t relocated to pos; used when a Block is
// drained and its tokens must report the current include frame's location
// rather than the location they were captured at.
func (t *Token) WithPos(pos SourcePos) *Token {
	c := *t
	c.injected = true
	if pos != nil {
		c.sourceName = pos.SourceName()
		c.line = pos.Line()
		c.col = pos.Col()
	}
	return &c
}

// WithType returns a copy of t narrowed to typ, keeping its text and
// position; used once keyword resolution has turned a plain
// KindIdentifier into a specific grammar token id.
func (t *Token) WithType(typ Type) *Token {
	c := *t
	c.typ = typ
	return &c
}

// Copy duplicates t, including its lexeme, so the copy can outlive the
// original's owner.
func (t *Token) Copy() *Token {
	c := *t
	return &c
}
