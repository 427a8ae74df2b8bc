// Package include implements the nested file/memory-buffer input stack
// that the scanner reads from and that include directives and block
// expansions push new frames onto.
package include

import (
	"fmt"
	"os"

	"github.com/relaylog/cfglex/source"
)

// MaxDepth bounds how deeply frames may nest, guarding against runaway
// include recursion (see spec.md §3/§9).
const MaxDepth = 16

// ErrDepthExceeded is returned by Push* once MaxDepth would be exceeded.
var ErrDepthExceeded = fmt.Errorf("include depth exceeds %d", MaxDepth)

// Frame is one level of the include stack: either a file or an
// in-memory buffer. The two variants are exhaustively handled by Stack;
// Frame itself only exposes what both need in common.
type Frame interface {
	// Name is the frame's display name (a file path, or a synthetic name
	// such as "<string>" or "source block myblk").
	Name() string
	Src() *source.Source
	// close releases whatever the frame owns (a file handle for file
	// frames, nothing for buffer frames).
	close() error
}

type fileFrame struct {
	name string
	src  *source.Source
	file *os.File
}

func (f *fileFrame) Name() string          { return f.name }
func (f *fileFrame) Src() *source.Source   { return f.src }
func (f *fileFrame) close() error {
	if f.file != nil {
		return f.file.Close()
	}
	return nil
}

type bufferFrame struct {
	name string
	src  *source.Source
}

func (f *bufferFrame) Name() string        { return f.name }
func (f *bufferFrame) Src() *source.Source { return f.src }
func (f *bufferFrame) close() error        { return nil }

// padded appends the two trailing NUL bytes the scanner relies on as an
// end-of-buffer marker.
func padded(content []byte) []byte {
	out := make([]byte, len(content)+2)
	copy(out, content)
	return out
}

// level pairs a Frame with its mutable read position.
type level struct {
	frame Frame
	pos   int
}

// Stack is the bounded stack of input frames. The zero value is not
// usable; create one with NewStack.
type Stack struct {
	levels      []*level
	activeFiles map[string]bool
}

// NewStack creates an empty Stack.
func NewStack() *Stack {
	return &Stack{activeFiles: make(map[string]bool)}
}

// IsEmpty reports whether there are no frames left at all.
func (s *Stack) IsEmpty() bool {
	return len(s.levels) == 0
}

// Depth returns the number of frames currently pushed.
func (s *Stack) Depth() int {
	return len(s.levels)
}

// PushFile opens path and pushes it as a new top frame. It fails with
// ErrDepthExceeded past MaxDepth, and reports a cycle if path is already
// active somewhere on the current stack (an ancestor include chain).
func (s *Stack) PushFile(path string) error {
	if len(s.levels) >= MaxDepth {
		return ErrDepthExceeded
	}
	if s.activeFiles[path] {
		return fmt.Errorf("include cycle detected: %q is already being included", path)
	}

	f, e := os.Open(path)
	if e != nil {
		return e
	}
	stat, e := f.Stat()
	if e != nil {
		f.Close()
		return e
	}
	content := make([]byte, stat.Size())
	if _, e = readFull(f, content); e != nil {
		f.Close()
		return e
	}

	src := source.New(path, padded(content))
	s.levels = append(s.levels, &level{frame: &fileFrame{name: path, src: src, file: f}})
	s.activeFiles[path] = true
	return nil
}

func readFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, e := f.Read(buf[total:])
		total += n
		if e != nil {
			if n == 0 {
				return total, e
			}
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// PushBuffer pushes an in-memory buffer named name as the new top frame.
// Buffer frames are never subject to cycle detection.
func (s *Stack) PushBuffer(name string, content []byte) error {
	if len(s.levels) >= MaxDepth {
		return ErrDepthExceeded
	}
	src := source.New(name, padded(content))
	s.levels = append(s.levels, &level{frame: &bufferFrame{name: name, src: src}})
	return nil
}

// Pop removes the top frame, releasing whatever it owns.
func (s *Stack) Pop() error {
	if len(s.levels) == 0 {
		return nil
	}
	top := s.levels[len(s.levels)-1]
	s.levels = s.levels[:len(s.levels)-1]
	if ff, ok := top.frame.(*fileFrame); ok {
		delete(s.activeFiles, ff.name)
	}
	return top.frame.close()
}

// PopAll releases every remaining frame, for facade teardown.
func (s *Stack) PopAll() error {
	var firstErr error
	for !s.IsEmpty() {
		if e := s.Pop(); e != nil && firstErr == nil {
			firstErr = e
		}
	}
	return firstErr
}

// Top returns the current top frame, or nil if the stack is empty.
func (s *Stack) Top() Frame {
	if len(s.levels) == 0 {
		return nil
	}
	return s.levels[len(s.levels)-1].frame
}

// ContentPos returns the top frame's content and current read position.
func (s *Stack) ContentPos() ([]byte, int) {
	if len(s.levels) == 0 {
		return nil, 0
	}
	l := s.levels[len(s.levels)-1]
	return l.frame.Src().Content(), l.pos
}

// Skip advances the top frame's read position by size bytes.
func (s *Stack) Skip(size int) {
	if len(s.levels) == 0 || size <= 0 {
		return
	}
	s.levels[len(s.levels)-1].pos += size
}

// AtEof reports whether the top frame has been fully consumed (not
// counting the two trailing NUL padding bytes).
func (s *Stack) AtEof() bool {
	if len(s.levels) == 0 {
		return true
	}
	l := s.levels[len(s.levels)-1]
	return l.pos >= l.frame.Src().Len()-2
}

// Location describes where the scanner currently is within the top
// frame, satisfying cfglex.SourcePos/token.SourcePos.
type Location struct {
	name            string
	firstLine, firstCol int
	lastLine, lastCol   int
}

func (l Location) SourceName() string { return l.name }
func (l Location) Line() int          { return l.lastLine }
func (l Location) Col() int           { return l.lastCol }
func (l Location) FirstLine() int     { return l.firstLine }
func (l Location) FirstCol() int      { return l.firstCol }

// TopLocation reports the current position within the top frame.
func (s *Stack) TopLocation() Location {
	if len(s.levels) == 0 {
		return Location{}
	}
	l := s.levels[len(s.levels)-1]
	line, col := l.frame.Src().LineCol(l.pos)
	return Location{name: l.frame.Name(), firstLine: line, firstCol: col, lastLine: line, lastCol: col}
}

// LocationAt reports the position of byte offset pos within the top frame.
func (s *Stack) LocationAt(pos int) Location {
	if len(s.levels) == 0 {
		return Location{}
	}
	l := s.levels[len(s.levels)-1]
	line, col := l.frame.Src().LineCol(pos)
	return Location{name: l.frame.Name(), firstLine: line, firstCol: col, lastLine: line, lastCol: col}
}

// SpanLocation reports a location spanning [fromPos, toPos) within the
// top frame. Balanced-delimiter capture tokens do not use it; they carry
// the LocationAt of their first byte.
func (s *Stack) SpanLocation(fromPos, toPos int) Location {
	if len(s.levels) == 0 {
		return Location{}
	}
	l := s.levels[len(s.levels)-1]
	fl, fc := l.frame.Src().LineCol(fromPos)
	ll, lc := l.frame.Src().LineCol(toPos)
	return Location{name: l.frame.Name(), firstLine: fl, firstCol: fc, lastLine: ll, lastCol: lc}
}
