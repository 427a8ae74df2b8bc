// Package diag wraps structured diagnostics emitted while lexing:
// keyword warnings, substitution notices and include-stack errors,
// each tagged with the source position they occurred at. It also
// tracks which one-shot warnings have already fired so a given
// occurrence is reported at most once.
package diag

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"

	"github.com/relaylog/cfglex"
)

func tracer() tracing.Trace {
	return tracing.Select("cfglex")
}

// Severity classifies a diagnostic.
type Severity int

const (
	Warning Severity = iota
	Error
)

// Diagnostic is one reported item, carrying enough position information
// to render a "file:line:col: message" line.
type Diagnostic struct {
	Severity Severity
	Keyword  string
	Pos      cfglex.SourcePos
	Message  string
}

func (d Diagnostic) String() string {
	level := "warning"
	if d.Severity == Error {
		level = "error"
	}
	if d.Pos != nil && d.Pos.SourceName() != "" {
		return fmt.Sprintf("%s:%d:%d: %s: %s", d.Pos.SourceName(), d.Pos.Line(), d.Pos.Col(), level, d.Message)
	}
	return fmt.Sprintf("%s: %s", level, d.Message)
}

// Sink collects diagnostics as they are reported and traces them
// through tracing.Trace, deduplicating one-shot warnings by key.
type Sink struct {
	items    []Diagnostic
	reported map[string]bool
}

// NewSink creates an empty Sink.
func NewSink() *Sink {
	return &Sink{reported: make(map[string]bool)}
}

// Report records d unconditionally and traces it at the appropriate level.
func (s *Sink) Report(d Diagnostic) {
	s.items = append(s.items, d)
	if d.Severity == Error {
		tracer().Errorf(d.String())
	} else {
		tracer().Debugf(d.String())
	}
}

// ReportOnce records d only the first time it is called with a given
// key; subsequent calls with the same key are silently dropped. The
// facade uses it for the reserved-word (version-gate) warning, keyed by
// keyword, and for the missing-version warning. Obsolescence warnings go
// through Report, since the resolver already flips an obsolete entry to
// normal after its first match.
func (s *Sink) ReportOnce(key string, d Diagnostic) {
	if s.reported[key] {
		return
	}
	s.reported[key] = true
	s.Report(d)
}

// Items returns every diagnostic reported so far, in report order.
func (s *Sink) Items() []Diagnostic {
	return s.items
}

// HasErrors reports whether any reported diagnostic was an Error.
func (s *Sink) HasErrors() bool {
	for _, d := range s.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}
