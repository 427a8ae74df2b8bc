/*
Package cfglex implements the configuration lexer and preprocessor of a
log-routing daemon: it turns configuration source text (files and
in-memory buffers) into a stream of tokens for a downstream grammar
parser, while expanding back-tick variable references, user-defined
blocks, and include directives along the way.

Consists of subpackages:
  - argmap: case/separator-normalized string maps used for block arguments,
    defaults and lexer-global variables;
  - token: the token type and a drain-once queue used for token injection;
  - lexctx: the lexer context stack and keyword resolution;
  - source: line/column indexed byte buffers;
  - include: the nested file/buffer input stack;
  - scanner: the primitive byte-to-token scanner;
  - subst: back-tick reference expansion;
  - block: user-defined block registration and expansion;
  - diag: structured, one-shot-aware diagnostics.

The downstream grammar parser (pragma directives, block-reference argument
lists, and the configuration grammar itself) is not part of this package;
it is modeled by the GrammarParser interface and re-entered by Facade.
*/
package cfglex

import (
	"fmt"
)

// Error classes used by this module and its subpackages, each spanning up to 99 codes.
const (
	ArgErrors     = 101
	LexicalErrors = 201
	IncludeErrors = 301
	SubstErrors   = 401
	BlockErrors   = 501
	ContextErrors = 601
)

// Error is the error type returned by cfglex and its subpackages.
type Error struct {
	// Code is a non-zero error code, see the *Errors constants above.
	Code int

	// Message is a non-empty, human-readable message, including position
	// information when it was available at construction time.
	Message string

	// SourceName is the source file or buffer name that caused the error, or "".
	SourceName string

	// Line and Col are 1-based source position, or 0 when unknown.
	Line, Col int
}

// SourcePos is implemented by anything that can describe its own source
// position: source.Pos and token.Token both satisfy it.
type SourcePos interface {
	SourceName() string
	Line() int
	Col() int
}

// NewError creates a new Error. name, line and col are appended to msg
// (as "in <name> at line <line> col <col>") when all three are non-zero/non-empty.
func NewError(code int, msg, name string, line, col int) *Error {
	if name != "" && line != 0 && col != 0 {
		msg += fmt.Sprintf(" in %s at line %d col %d", name, line, col)
	}
	return &Error{code, msg, name, line, col}
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// FormatError creates an Error with no position information.
func FormatError(code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, "", 0, 0)
}

// FormatErrorPos creates an Error carrying pos's source position.
func FormatErrorPos(pos SourcePos, code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return NewError(code, msg, pos.SourceName(), pos.Line(), pos.Col())
}
