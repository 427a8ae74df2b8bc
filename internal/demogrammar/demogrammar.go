// Package demogrammar is a minimal downstream grammar good enough to
// drive the command-line tools: it understands "@version: MAJ.MIN;"
// pragmas and "(name(value) ...)" block-reference argument lists. It is
// not a configuration grammar — the actual grammar productions for a
// routing daemon's configuration language are out of scope for this
// module, which treats the grammar as an opaque collaborator.
package demogrammar

import (
	"strconv"
	"strings"

	"github.com/relaylog/cfglex"
	"github.com/relaylog/cfglex/argmap"
	"github.com/relaylog/cfglex/lexctx"
	"github.com/relaylog/cfglex/token"
)

// Grammar implements cfglex.GrammarParser.
type Grammar struct{}

func (Grammar) ParsePragma(f *cfglex.Facade) error {
	f.PushContext(lexctx.Pragma, nil, "pragma")
	defer f.PopContext()

	name, err := f.Next()
	if err != nil {
		return err
	}
	if name.Text() != "version" {
		// Unknown pragma: consume up to the terminating ';' and ignore it.
		for {
			tok, err := f.Next()
			if err != nil {
				return err
			}
			if tok.Text() == ";" {
				return nil
			}
		}
	}

	if _, err := f.Next(); err != nil { // ':'
		return err
	}
	verTok, err := f.Next()
	if err != nil {
		return err
	}
	if _, err := f.Next(); err != nil { // ';'
		return err
	}

	major, minor := parseVersion(verTok.Text())
	f.Config().SetVersion(cfglex.EncodeVersion(major, minor))
	return nil
}

func parseVersion(text string) (major, minor byte) {
	parts := strings.SplitN(text, ".", 2)
	if n, e := strconv.Atoi(parts[0]); e == nil {
		major = byte(n)
	}
	if len(parts) > 1 {
		if n, e := strconv.Atoi(parts[1]); e == nil {
			minor = byte(n)
		}
	}
	return
}

func (Grammar) ParseBlockRefArgs(f *cfglex.Facade) (*argmap.Map, error) {
	args := argmap.New()
	if _, err := f.Next(); err != nil { // '('
		return nil, err
	}
	for {
		tok, err := f.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type() == token.KindPunct && tok.Text() == ")" {
			return args, nil
		}
		name := tok.Text()
		if _, err := f.Next(); err != nil { // '('
			return nil, err
		}
		valTok, err := f.Next()
		if err != nil {
			return nil, err
		}
		if _, err := f.Next(); err != nil { // ')'
			return nil, err
		}
		args.Set(name, valTok.Text())
	}
}
