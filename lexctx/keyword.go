package lexctx

import "github.com/lithammer/fuzzysearch/fuzzy"

// Status is a keyword entry's lifecycle state.
type Status int

const (
	Normal Status = iota
	Obsolete
)

// StopName is the sentinel keyword name that terminates resolution early
// for a table, forcing the candidate identifier to be treated as a plain
// identifier rather than matched against later entries.
const StopName = "@STOP@"

// Entry describes one keyword recognized while a particular context is
// active.
type Entry struct {
	Name string
	// TokenID is the downstream grammar token id this keyword resolves to.
	TokenID int
	// RequiredVersion gates the keyword behind a configuration version,
	// encoded major<<8|minor (see cfglex.EncodeVersion). Zero means
	// "always available".
	RequiredVersion uint16
	Status          Status
	// Explain is shown once when an Obsolete keyword is first matched.
	Explain string
}

// Table is an ordered list of keyword entries for one context. A table
// whose first entry's Name is StopName disables keyword resolution for
// that context entirely.
type Table []Entry

// matchName implements the identifier-vs-keyword equivalence rule:
// '-' in the candidate matches only '_' in the entry; any other
// mismatch breaks the match; lengths must match exactly.
func matchName(candidate, entry string) bool {
	if len(candidate) != len(entry) {
		return false
	}
	for i := 0; i < len(candidate); i++ {
		c, e := candidate[i], entry[i]
		if c == '-' {
			if e != '_' {
				return false
			}
		} else if c != e {
			return false
		}
	}
	return true
}

// Resolution is the outcome of resolving a candidate identifier against
// the active context stack.
type Resolution struct {
	// IsKeyword is false when the candidate should be treated as a plain
	// identifier (no table matched, a @STOP@ sentinel was hit, or the
	// match was version-gated away).
	IsKeyword bool
	TokenID   int
	// Warning is set when a one-shot warning should be reported for this
	// occurrence (version-gate notice or obsolescence notice).
	Warning *Warning
}

// Warning describes a one-shot keyword diagnostic.
type Warning struct {
	Keyword string
	Kind    WarningKind
	Explain string
}

type WarningKind int

const (
	ReservedWordUsed WarningKind = iota
	ObsoleteKeywordUsed
)

// ResolveKeyword walks stack from top to bottom, resolving candidate
// against each non-empty keyword table in turn, per spec §4.F. version is
// the configuration's currently active version (0 if none established
// yet). RequiredVersion 0 always passes; any nonzero RequiredVersion
// exceeds an unset version, so such entries are gated while version is 0.
//
// A version-gated match only stops the scan of the table it was found
// in; resolution continues against the remaining (outer) context tables
// on the stack, matching cfg_lexer_lookup_keyword's break-out-of-the-
// inner-entry-loop-only behavior. Its warning is carried along and
// returned with whatever Resolution is reached, including an outer
// keyword match, unless that match is Obsolete, in which case the
// obsolescence warning is returned instead.
func ResolveKeyword(stack *Stack, candidate string, version uint16) Resolution {
	var pending *Warning

	for i := len(stack.frames) - 1; i >= 0; i-- {
		table := stack.frames[i].keywords
		if len(table) == 0 {
			continue
		}

		if table[0].Name == StopName {
			return Resolution{IsKeyword: false, Warning: pending}
		}

		for idx := range table {
			entry := &table[idx]
			if !matchName(candidate, entry.Name) {
				continue
			}

			if entry.RequiredVersion != 0 && entry.RequiredVersion > version {
				// Match suppressed at this version: stop scanning this
				// table's remaining entries, but keep looking in outer
				// context tables for an unsuppressed match.
				if pending == nil {
					pending = &Warning{Keyword: entry.Name, Kind: ReservedWordUsed}
				}
				break
			}

			var warn *Warning
			if entry.Status == Obsolete {
				warn = &Warning{Keyword: entry.Name, Kind: ObsoleteKeywordUsed, Explain: entry.Explain}
				entry.Status = Normal
			}
			if warn == nil {
				warn = pending
			}
			return Resolution{IsKeyword: true, TokenID: entry.TokenID, Warning: warn}
		}
	}

	return Resolution{IsKeyword: false, Warning: pending}
}

// SuggestKeyword returns the closest-spelled keyword name in the active
// context's keyword tables, for a "did you mean" hint attached to an
// unresolved-identifier diagnostic. It never influences resolution
// itself, only diagnostic text.
func SuggestKeyword(stack *Stack, candidate string) (string, bool) {
	var names []string
	for i := len(stack.frames) - 1; i >= 0; i-- {
		for _, e := range stack.frames[i].keywords {
			if e.Name == StopName {
				break
			}
			names = append(names, e.Name)
		}
	}
	if len(names) == 0 {
		return "", false
	}

	ranks := fuzzy.RankFindFold(candidate, names)
	if len(ranks) == 0 {
		return "", false
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	if best.Distance > len(candidate)/2+1 {
		return "", false
	}
	return best.Target, true
}
