package cfglex

import (
	"fmt"
	"strings"

	"github.com/relaylog/cfglex/argmap"
	"github.com/relaylog/cfglex/block"
	"github.com/relaylog/cfglex/diag"
	"github.com/relaylog/cfglex/include"
	"github.com/relaylog/cfglex/lexctx"
	"github.com/relaylog/cfglex/scanner"
	"github.com/relaylog/cfglex/token"
)

// ErrInclude and ErrBlockExpand are the error codes Facade itself
// raises (as opposed to ones surfaced from a subpackage).
// ErrContextMisuse is defined alongside them; Facade never returns it.
const (
	ErrInclude       = IncludeErrors + 1
	ErrContextMisuse = ContextErrors + 1
	ErrBlockExpand   = BlockErrors + 2
)

// GrammarParser is the downstream grammar the facade re-enters for the
// two narrow tasks it cannot perform itself: parsing a pragma directive
// and parsing a block-reference argument list. Within this module it is
// implemented only by the minimal internal/demogrammar package used by
// the command-line tools; production code supplies its own grammar.
type GrammarParser interface {
	// ParsePragma is invoked when the facade sees a '@' marker. It reads
	// whatever tokens the pragma sub-grammar needs via f.Next and acts on
	// them (typically f.Config().SetVersion). Implementations should push
	// lexctx.Pragma for the duration of the parse, so tokens consumed
	// while inside the pragma are not mistaken for the first non-pragma
	// token that triggers the legacy version default.
	ParsePragma(f *Facade) error

	// ParseBlockRefArgs is invoked right after an identifier that matches
	// a registered block name, to consume "(k1(v1) k2(v2) …)" and build
	// the corresponding ArgMap.
	ParseBlockRefArgs(f *Facade) (*argmap.Map, error)
}

// Facade is the configuration lexer and preprocessor entry point: it
// drives token production, intercepts pragmas/includes/block
// references, and accumulates a preprocessed echo of everything it
// reads. A Facade is single-threaded and non-suspending; create one per
// concurrent lex.
type Facade struct {
	cfg     *Config
	grammar GrammarParser

	contexts *lexctx.Stack
	includes *include.Stack
	pending  []*token.Block

	blocks   *block.Registry
	expander *block.Expander
	globals  *argmap.Map

	diagSink *diag.Sink

	suppression int
	echo        strings.Builder
	versioned   bool
	lastToken   *token.Token
}

// NewFacade creates a Facade bound to cfg (shared with the caller, so
// version updates made here are visible there) and grammar.
func NewFacade(cfg *Config, grammar GrammarParser) *Facade {
	globals := argmap.New()
	f := &Facade{
		cfg:      cfg,
		grammar:  grammar,
		contexts: lexctx.NewStack(),
		includes: include.NewStack(),
		blocks:   block.NewRegistry(),
		globals:  globals,
		diagSink: diag.NewSink(),
	}
	f.expander = &block.Expander{Globals: globals}
	return f
}

// Config returns the configuration capability (version gate) shared
// between the facade and its caller.
func (f *Facade) Config() *Config { return f.cfg }

// Globals returns the lexer-wide argument scope consulted as the
// innermost fallback in every substitution, ahead of the environment.
func (f *Facade) Globals() *argmap.Map { return f.globals }

// Diagnostics returns the sink every warning and error this facade
// reports is recorded into.
func (f *Facade) Diagnostics() *diag.Sink { return f.diagSink }

// Echo returns the preprocessed text accumulated so far.
func (f *Facade) Echo() string { return f.echo.String() }

// SuppressionDepth returns the current suppression nesting level; it is
// always >= 0 and returns to its pre-call value on every exit path out
// of handleInclude/handleBlockRef.
func (f *Facade) SuppressionDepth() int { return f.suppression }

// ContextDepth returns the number of frames currently pushed on the
// context stack.
func (f *Facade) ContextDepth() int { return f.contexts.Depth() }

// IncludeFile pushes path as a new top include frame.
func (f *Facade) IncludeFile(path string) error {
	if e := f.includes.PushFile(path); e != nil {
		return FormatError(IncludeErrors, "%v", e)
	}
	return nil
}

// IncludeBuffer pushes an in-memory buffer named name as a new top
// include frame; this is the entry point used to start lexing from a
// string rather than a file.
func (f *Facade) IncludeBuffer(name string, content []byte) error {
	if e := f.includes.PushBuffer(name, content); e != nil {
		return FormatError(IncludeErrors, "%v", e)
	}
	return nil
}

// PushContext enters a new grammar region. typ zero inherits the
// current type, per lexctx.Stack.Push.
func (f *Facade) PushContext(typ lexctx.Type, keywords lexctx.Table, description string) {
	f.contexts.Push(typ, keywords, description)
}

// PopContext leaves the current grammar region.
func (f *Facade) PopContext() {
	f.contexts.Pop()
}

// LookupContextNameByType is the name/type lookup exposed to the
// downstream grammar.
func (f *Facade) LookupContextNameByType(t lexctx.Type) string { return lexctx.Name(t) }

// LookupContextTypeByName is the inverse of LookupContextNameByType.
func (f *Facade) LookupContextTypeByName(name string) (lexctx.Type, bool) { return lexctx.TypeByName(name) }

// InjectTokenBlock appends a pre-synthesized block of tokens to the
// pending queue; Next drains the head of this queue before scanning.
func (f *Facade) InjectTokenBlock(blk *token.Block) {
	f.pending = append(f.pending, blk)
}

// LastToken returns the most recent token Next handed back, or nil
// before the first call. Convenient for a grammar that wants to Unput
// without holding onto the value itself.
func (f *Facade) LastToken() *token.Token { return f.lastToken }

// Unput pushes tok back onto the front of the pending queue, so the
// next Next call returns it again before anything else. Callers
// typically pass the token they just got back from Next.
func (f *Facade) Unput(tok *token.Token) {
	blk := token.NewBlock()
	blk.Append(tok)
	f.pending = append([]*token.Block{blk}, f.pending...)
}

// RegisterBlockGenerator registers a user-defined block body under
// (context, name). anyContext makes it match every context, mirroring
// passing context 0 to the original registration call.
func (f *Facade) RegisterBlockGenerator(context lexctx.Type, anyContext bool, name string, ub *block.UserBlock) error {
	return f.blocks.Register(context, anyContext, name, ub)
}

// Close releases every resource the facade owns: include frames, then
// the context stack, then pending token blocks, then the block
// registry, then globals.
func (f *Facade) Close() error {
	err := f.includes.PopAll()
	f.contexts = lexctx.NewStack()
	f.pending = nil
	f.blocks = block.NewRegistry()
	f.globals = argmap.New()
	return err
}

func unquoteString(text string) string {
	if len(text) < 2 {
		return text
	}
	quote := text[0]
	if quote != '"' && quote != '\'' {
		return text
	}
	body := text[1 : len(text)-1]
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		sb.WriteByte(body[i])
	}
	return sb.String()
}

// rawScan pulls the next primitive token from the top include frame,
// accumulating any whitespace/comments skipped along the way into the
// echo buffer unconditionally. It returns (nil, nil) once the top
// frame is exhausted (the caller pops the frame and retries).
func (f *Facade) rawScan() (*token.Token, error) {
	for {
		if f.includes.IsEmpty() {
			return nil, nil
		}
		if f.includes.AtEof() {
			return nil, nil
		}
		content, pos := f.includes.ContentPos()
		loc := f.includes.LocationAt(pos)
		tok, advance, err := scanner.ScanOne(content, pos, loc.SourceName(), loc.Line(), loc.Col())
		if err != nil {
			return nil, err
		}
		if tok == nil {
			f.echo.Write(content[pos : pos+advance])
			f.includes.Skip(advance)
			continue
		}
		f.includes.Skip(advance)
		return tok, nil
	}
}

// scanCapture reads a balanced-delimiter body for block-content/block-arg
// contexts and wraps it as a single KindCapture token.
func (f *Facade) scanCapture(open, close byte) (*token.Token, error) {
	content, pos := f.includes.ContentPos()
	startLoc := f.includes.LocationAt(pos)
	text, closePos, err := scanner.CaptureBalanced(content, pos, open, close)
	if err != nil {
		return nil, FormatErrorPos(startLoc, scanner.ErrUnterminatedCapture, "%v", err)
	}
	// Stop right at the closing delimiter, not past it: the grammar pops
	// back out of block-content/block-arg and reads it as an ordinary
	// punctuation token, the same way it read the opening one before
	// pushing this context.
	f.includes.Skip(closePos - pos)
	return token.New(token.KindCapture, text, startLoc), nil
}

func (f *Facade) handleInclude() error {
	f.suppression++
	defer func() { f.suppression-- }()

	pathTok, err := f.Next()
	if err != nil {
		return err
	}
	var path string
	switch pathTok.Type() {
	case token.KindString:
		path = unquoteString(pathTok.Text())
	case token.KindIdentifier:
		path = pathTok.Text()
	default:
		return FormatErrorPos(pathTok, ErrInclude, "expected a path after \"include\", got %q", pathTok.Text())
	}

	semiTok, err := f.Next()
	if err != nil {
		return err
	}
	if semiTok.Type() != token.KindPunct || semiTok.Text() != ";" {
		return FormatErrorPos(semiTok, ErrInclude, "expected ';' after include path, got %q", semiTok.Text())
	}

	if e := f.includes.PushFile(path); e != nil {
		return FormatErrorPos(pathTok, ErrInclude, "%v", e)
	}
	return nil
}

// handleBlockRef consumes a block-reference argument list and expands
// the named block, returning ok=false when name is not registered for
// the current context (in which case the caller treats tok as an
// ordinary identifier instead).
func (f *Facade) handleBlockRef(tok *token.Token) (ok bool, err error) {
	ctxType := f.contexts.CurrentType()
	ub, found := f.blocks.Find(ctxType, tok.Text())
	if !found {
		return false, nil
	}

	f.suppression++
	args, err := f.grammar.ParseBlockRefArgs(f)
	f.suppression--
	if err != nil {
		return true, err
	}

	content, frameName, err := f.expander.Expand(ctxType, tok.Text(), ub, args)
	if err != nil {
		f.diagSink.Report(diag.Diagnostic{Severity: diag.Error, Keyword: tok.Text(), Pos: tok, Message: err.Error()})
		return true, FormatErrorPos(tok, ErrBlockExpand, "%v", err)
	}
	if e := f.includes.PushBuffer(frameName, []byte(content)); e != nil {
		return true, FormatErrorPos(tok, ErrBlockExpand, "%v", e)
	}
	return true, nil
}

// Next implements the facade's core algorithm: drain any pending
// injected tokens, otherwise scan and intercept pragmas, includes and
// block references, echoing everything that is not suppressed.
func (f *Facade) Next() (*token.Token, error) {
	for {
		var tok *token.Token
		var err error

		if len(f.pending) > 0 {
			blk := f.pending[0]
			adopted, has := blk.Next()
			if !has {
				f.pending = f.pending[1:]
				continue
			}
			tok = adopted.WithPos(f.includes.TopLocation())
		} else {
			if f.includes.IsEmpty() {
				return token.Eoi(), nil
			}

			ctxType := f.contexts.CurrentType()
			if open, close, capturing := ctxType.CapturesBalancedBody(); capturing {
				tok, err = f.scanCapture(open, close)
			} else {
				tok, err = f.rawScan()
			}
			if err != nil {
				return nil, err
			}
			if tok == nil {
				// Top frame exhausted: pop and resume from the frame beneath it.
				f.includes.Pop()
				continue
			}
		}

		result, restart, e := f.postProcess(tok)
		if e != nil {
			return nil, e
		}
		if restart {
			continue
		}

		f.echoToken(result)
		f.lastToken = result
		return result, nil
	}
}

// postProcess implements step 4 of the algorithm: resolving identifiers
// against the active keyword tables, then intercepting pragma markers,
// include directives and block-reference identifiers that keyword
// resolution left as plain identifiers. restart is true when the caller
// should go back to step 1 (pending-block drain) instead of returning
// tok.
func (f *Facade) postProcess(tok *token.Token) (result *token.Token, restart bool, err error) {
	ctxType := f.contexts.CurrentType()

	switch {
	case tok.Type() == token.KindPragma:
		f.echo.WriteString(tok.Text())
		if e := f.grammar.ParsePragma(f); e != nil {
			return nil, false, e
		}
		return nil, true, nil

	case tok.Type() == token.KindIdentifier:
		res := lexctx.ResolveKeyword(f.contexts, tok.Text(), f.cfg.Version())
		f.reportKeywordWarning(tok, res.Warning)

		if res.IsKeyword {
			tok = tok.WithType(token.Type(res.TokenID))
			break
		}

		if tok.Text() == "include" && ctxType != lexctx.Pragma {
			if e := f.handleInclude(); e != nil {
				return nil, false, e
			}
			return nil, true, nil
		}

		matched, e := f.handleBlockRef(tok)
		if e != nil {
			return nil, false, e
		}
		if matched {
			return nil, true, nil
		}

		f.reportUnresolvedIdentifier(tok)
	}

	if !f.versioned && ctxType != lexctx.Pragma {
		f.versioned = true
		if !f.cfg.HasVersion() {
			f.cfg.SetVersion(LegacyVersion)
			f.diagSink.ReportOnce("no-version", diag.Diagnostic{
				Severity: diag.Warning,
				Pos:      tok,
				Message:  "configuration has no version number, assuming legacy format; add @version at the top of the file",
			})
		}
	}

	return tok, false, nil
}

// reportKeywordWarning surfaces the one-shot warning ResolveKeyword
// attaches to a reserved-word-suppressed or obsolete keyword match, if
// any.
func (f *Facade) reportKeywordWarning(tok *token.Token, w *lexctx.Warning) {
	if w == nil {
		return
	}
	switch w.Kind {
	case lexctx.ReservedWordUsed:
		f.diagSink.ReportOnce("reserved:"+w.Keyword, diag.Diagnostic{
			Severity: diag.Warning,
			Keyword:  w.Keyword,
			Pos:      tok,
			Message:  fmt.Sprintf("%q is a reserved word in a newer configuration version, use a different name or enclose it in quotes", w.Keyword),
		})
	case lexctx.ObsoleteKeywordUsed:
		f.diagSink.Report(diag.Diagnostic{
			Severity: diag.Warning,
			Keyword:  w.Keyword,
			Pos:      tok,
			Message:  fmt.Sprintf("%q is obsolete: %s", w.Keyword, w.Explain),
		})
	}
}

// reportUnresolvedIdentifier attaches a "did you mean" hint to an
// identifier that matched no keyword table and no registered block,
// when its spelling is close to one that would have matched.
func (f *Facade) reportUnresolvedIdentifier(tok *token.Token) {
	hint, ok := lexctx.SuggestKeyword(f.contexts, tok.Text())
	if !ok {
		return
	}
	f.diagSink.Report(diag.Diagnostic{
		Severity: diag.Warning,
		Keyword:  tok.Text(),
		Pos:      tok,
		Message:  fmt.Sprintf("unrecognized identifier %q, did you mean %q?", tok.Text(), hint),
	})
}

func (f *Facade) echoToken(tok *token.Token) {
	if !tok.Injected() && f.suppression == 0 {
		f.echo.WriteString(tok.Text())
	}
}
