// Package scanner turns raw frame bytes into primitive tokens, and
// separately knows how to read a balanced-delimiter capture body for
// block-content/block-arg contexts. It has no notion of includes,
// pragmas or keyword tables; callers (the facade) interpret the
// primitive tokens it returns.
package scanner

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/relaylog/cfglex"
	"github.com/relaylog/cfglex/token"
)

// tokenRe's capturing groups, in order, map to the Kind values below.
// A match with no captured group (whitespace or a comment) is
// insignificant and simply advances past.
var tokenRe = regexp.MustCompile(
	`(?s:` +
		`\s+|#[^\n]*|` +
		`(\d+(?:\.\d+)?)|` +
		`("(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*')|` +
		`(@)|` +
		`([A-Za-z_][A-Za-z0-9_-]*)|` +
		`(::|[=+\-*/<>!:]+)|` +
		`([(){};,])` +
		`)`,
)

var groupKinds = []token.Type{
	token.KindNumber,
	token.KindString,
	token.KindPragma,
	token.KindIdentifier,
	token.KindOperator,
	token.KindPunct,
}

// ScanOneError codes.
const (
	// ErrWrongChar indicates the scanner found a byte it could not start
	// any token with.
	ErrWrongChar = cfglex.LexicalErrors + iota
	// ErrUnterminatedCapture indicates a block-content/block-arg capture
	// ran off the end of the frame before its closing delimiter.
	ErrUnterminatedCapture
)

// Locator reports the line/column of a byte offset within the frame
// currently being scanned. include.Stack does not implement it: its
// LocationAt returns the concrete include.Location type rather than
// cfglex.SourcePos.
type Locator interface {
	LocationAt(pos int) cfglex.SourcePos
}

// ScanOne matches one primitive token starting at content[pos:]. It
// returns (nil, advance, nil) when the match was insignificant
// (whitespace or a comment); the caller should call ScanOne again at
// pos+advance. sourceName/line/col describe the match's start for the
// returned token's position.
func ScanOne(content []byte, pos int, sourceName string, line, col int) (*token.Token, int, error) {
	rest := content[pos:]
	match := tokenRe.FindSubmatchIndex(rest)
	if len(match) == 0 || match[0] != 0 || match[1] <= match[0] {
		r, _ := utf8.DecodeRune(rest)
		return nil, 0, cfglex.NewError(ErrWrongChar, fmt.Sprintf("unexpected character %q", r), sourceName, line, col)
	}

	for i := 2; i < len(match); i += 2 {
		if match[i] < 0 {
			continue
		}
		kind := token.KindIdentifier
		if gi := i/2 - 1; gi < len(groupKinds) {
			kind = groupKinds[gi]
		}
		text := string(rest[match[i]:match[i+1]])
		tok := token.New(kind, text, simplePos{sourceName, line, col})
		return tok, match[1], nil
	}

	// Matched but captured nothing: whitespace or a comment.
	return nil, match[1], nil
}

type simplePos struct {
	name      string
	line, col int
}

func (p simplePos) SourceName() string { return p.name }
func (p simplePos) Line() int          { return p.line }
func (p simplePos) Col() int           { return p.col }

// CaptureBalanced reads from content[pos:] up to (but not including) the
// delimiter that balances the opening one already consumed by the
// caller, honoring nested open/close pairs and skipping over quoted
// strings so a delimiter inside a string literal is not counted. It
// returns the captured text and the offset of the closing delimiter.
func CaptureBalanced(content []byte, pos int, open, close byte) (text string, closePos int, err error) {
	depth := 1
	start := pos
	i := pos
	for i < len(content) {
		c := content[i]
		switch {
		case c == 0:
			return "", 0, fmt.Errorf("unterminated block body: reached end of input")
		case c == '"' || c == '\'':
			q := c
			i++
			for i < len(content) && content[i] != q {
				if content[i] == '\\' && i+1 < len(content) {
					i++
				}
				i++
			}
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return string(content[start:i]), i, nil
			}
		}
		i++
	}
	return "", 0, fmt.Errorf("unterminated block body: reached end of input")
}
