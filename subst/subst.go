// Package subst implements back-tick variable reference expansion: the
// textual preprocessing step applied to block bodies and argument
// strings before they are scanned or re-included.
package subst

import (
	"os"
	"strings"

	"github.com/relaylog/cfglex"
	"github.com/relaylog/cfglex/argmap"
)

// ErrUnterminatedRef is returned when a backtick opens a reference that
// is never closed.
const ErrUnterminatedRef = cfglex.SubstErrors

// Substitutor expands `name` references found in text, consulting
// args, then defs, then globals, then the process environment, in that
// order. Any of args/defs/globals may be nil, in which case that
// lookup layer is skipped.
type Substitutor struct {
	Globals *argmap.Map
	Defs    *argmap.Map
	Args    *argmap.Map
}

func lookup(m *argmap.Map, name string) (string, bool) {
	if m == nil {
		return "", false
	}
	return m.Get(name)
}

// Expand scans text for backtick-delimited references and returns the
// text with each reference replaced by its resolved value. An empty
// reference ("``") is replaced by a literal backtick. A reference whose
// name resolves nowhere (not in args, defs, globals or the environment)
// is replaced by the empty string. Expand fails only when a backtick is
// left open at the end of text.
func (s *Substitutor) Expand(text string) (string, error) {
	var out strings.Builder
	out.Grow(len(text))

	inRef := false
	refStart := 0
	i := 0
	for i < len(text) {
		if text[i] != '`' {
			if !inRef {
				out.WriteByte(text[i])
			}
			i++
			continue
		}

		if !inRef {
			inRef = true
			refStart = i + 1
			i++
			continue
		}

		inRef = false
		name := text[refStart:i]
		i++
		if name == "" {
			out.WriteByte('`')
			continue
		}

		if val, ok := lookup(s.Args, name); ok {
			out.WriteString(val)
		} else if val, ok := lookup(s.Defs, name); ok {
			out.WriteString(val)
		} else if val, ok := lookup(s.Globals, name); ok {
			out.WriteString(val)
		} else if val, ok := os.LookupEnv(name); ok {
			out.WriteString(val)
		}
		// else: unresolved reference, contributes nothing.
	}

	if inRef {
		return "", cfglex.FormatError(ErrUnterminatedRef, "unterminated backtick reference starting at %q", text[refStart:])
	}
	return out.String(), nil
}
