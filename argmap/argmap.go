// Package argmap implements a case/separator-normalized string-to-string
// map with layered lookup, used for block-reference arguments, block
// argument defaults, and lexer-global variables.
package argmap

import "strings"

// Map is a normalized string-to-string map. Keys are stored both under
// their original spelling and their normalized form, so Get can find a
// value that was Set under either one.
type Map struct {
	raw        map[string]string
	normalized map[string]string
	order      []string
}

// New creates an empty Map.
func New() *Map {
	return &Map{
		raw:        make(map[string]string),
		normalized: make(map[string]string),
	}
}

// Normalize lowercases ASCII letters and replaces '-' with '_', the key
// form used for matching block-reference arguments against their
// definitions regardless of the caller's spelling.
func Normalize(name string) string {
	b := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '-':
			b[i] = '_'
		case c >= 'A' && c <= 'Z':
			b[i] = c - 'A' + 'a'
		default:
			b[i] = c
		}
	}
	return string(b)
}

// Set stores value under name, both as given and under its normalized form.
func (m *Map) Set(name, value string) {
	if _, has := m.raw[name]; !has {
		m.order = append(m.order, name)
	}
	m.raw[name] = value
	m.normalized[Normalize(name)] = value
}

// Get looks up name, trying the raw spelling first and the normalized
// form second.
func (m *Map) Get(name string) (string, bool) {
	if v, has := m.raw[name]; has {
		return v, true
	}
	v, has := m.normalized[Normalize(name)]
	return v, has
}

// Has reports whether name (or its normalized form) has been Set.
func (m *Map) Has(name string) bool {
	_, has := m.Get(name)
	return has
}

// Visitor is called by ForEach for each (name, value) pair.
type Visitor func(name, value string)

// ForEach visits every entry in the order it was first Set, so callers
// can make a deterministic choice when more than one entry matters (see
// Validate).
func (m *Map) ForEach(visit Visitor) {
	for _, name := range m.order {
		visit(name, m.raw[name])
	}
}

// Len returns the number of distinct entries.
func (m *Map) Len() int {
	return len(m.order)
}

// BadEntry describes the first entry rejected by Validate.
type BadEntry struct {
	Key, Value string
}

// Validate reports the first (key, value) pair in m whose key is not
// present in defs, in m's insertion order. ok is true iff every key in m
// is present in defs.
func Validate(m, defs *Map) (bad BadEntry, ok bool) {
	ok = true
	m.ForEach(func(name, value string) {
		if !ok {
			return
		}
		if defs == nil || !defs.Has(name) {
			bad = BadEntry{name, value}
			ok = false
		}
	})
	return
}

// Clone returns an independent copy of m.
func (m *Map) Clone() *Map {
	c := New()
	m.ForEach(func(name, value string) {
		c.Set(name, value)
	})
	return c
}

// Equal is a convenience predicate: two maps are equal if
// they normalize to the same set of (key, value) pairs.
func Equal(a, b *Map) bool {
	if a.Len() != b.Len() {
		return false
	}
	equal := true
	a.ForEach(func(name, value string) {
		v, has := b.Get(name)
		if !has || v != value {
			equal = false
		}
	})
	return equal
}

// String implements fmt.Stringer for debugging.
func (m *Map) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	m.ForEach(func(name, value string) {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(value)
	})
	sb.WriteByte('}')
	return sb.String()
}
