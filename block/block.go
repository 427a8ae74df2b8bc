// Package block implements user-defined block registration and
// expansion: named, parameterized snippets of configuration text that
// get substituted and re-included as a new buffer frame when
// referenced.
package block

import (
	"fmt"
	"strings"

	"github.com/relaylog/cfglex"
	"github.com/relaylog/cfglex/argmap"
	"github.com/relaylog/cfglex/lexctx"
	"github.com/relaylog/cfglex/subst"
)

// UserBlock is one block definition: its raw, unsubstituted body text
// and the names it accepts as arguments (with their default values).
type UserBlock struct {
	Content string
	ArgDefs *argmap.Map
}

// entry pairs a registered name/context with the block it expands to.
type entry struct {
	context lexctx.Type
	anyType bool
	name    string
	block   *UserBlock
}

// Registry holds every block registered for the lexer's lifetime,
// keyed by (context, name); an entry registered with anyContext set
// matches every context.
type Registry struct {
	entries []*entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// ErrDuplicateBlock is the class of error Register returns when the
// same (context, name) pair is registered twice.
const ErrDuplicateBlock = cfglex.BlockErrors

// Register adds ub under (context, name). anyContext registers the
// block so it matches every context, mirroring passing context 0 to
// the original registration call. Register refuses a duplicate
// registration: the earlier block is left untouched and an error is
// returned, so the caller's block is simply never installed.
func (r *Registry) Register(context lexctx.Type, anyContext bool, name string, ub *UserBlock) error {
	if r.find(context, name) != nil {
		return cfglex.FormatError(ErrDuplicateBlock, "block %q is already registered for context %q", name, lexctx.Name(context))
	}
	r.entries = append(r.entries, &entry{context: context, anyType: anyContext, name: name, block: ub})
	return nil
}

func (r *Registry) find(context lexctx.Type, name string) *entry {
	for _, e := range r.entries {
		if e.name == name && (e.anyType || e.context == context) {
			return e
		}
	}
	return nil
}

// Find looks up the block registered for (context, name), the same
// matching rule used internally by Register's duplicate check.
func (r *Registry) Find(context lexctx.Type, name string) (*UserBlock, bool) {
	e := r.find(context, name)
	if e == nil {
		return nil, false
	}
	return e.block, true
}

// varargsKey is the synthetic argument name that collects every
// reference argument not mentioned in the block's ArgDefs.
const varargsKey = "__VARARGS__"

// fillVarargs computes the __VARARGS__ value: every (name, value) pair
// in args not present in defs, rendered as "name(value) " in args's
// insertion order, and stores it into args itself. If the caller
// already supplied an explicit __VARARGS__ argument it is overwritten;
// the reference argument loses to the computed value.
func fillVarargs(defs, args *argmap.Map) {
	var sb strings.Builder
	args.ForEach(func(name, value string) {
		if defs != nil && defs.Has(name) {
			return
		}
		if name == varargsKey {
			return
		}
		fmt.Fprintf(&sb, "%s(%s) ", name, value)
	})
	args.Set(varargsKey, sb.String())
}

// Expander substitutes and expands user blocks into new include
// frames.
type Expander struct {
	Globals *argmap.Map
}

// Expand resolves ub's body against args (falling back to ub's own
// ArgDefs, then Globals, then the environment, per subst.Substitutor)
// and returns the buffer content ready to be pushed as a new include
// frame, along with a synthetic frame name for diagnostics.
func (e *Expander) Expand(context lexctx.Type, name string, ub *UserBlock, args *argmap.Map) (content, frameName string, err error) {
	if args == nil {
		args = argmap.New()
	}
	fillVarargs(ub.ArgDefs, args)

	s := &subst.Substitutor{Globals: e.Globals, Defs: ub.ArgDefs, Args: args}
	value, err := s.Expand(ub.Content)
	if err != nil {
		return "", "", cfglex.FormatError(cfglex.BlockErrors+1, "syntax error while resolving backtick references in block %q: %v", name, err)
	}

	frameName = fmt.Sprintf("%s block %s", lexctx.Name(context), name)
	return value, frameName, nil
}
