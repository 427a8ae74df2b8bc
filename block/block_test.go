package block

import (
	"strings"
	"testing"

	"github.com/relaylog/cfglex/argmap"
	"github.com/relaylog/cfglex/lexctx"
)

func TestRegisterAndFind(t *testing.T) {
	r := NewRegistry()
	ub := &UserBlock{Content: "tcp(ip(`ip`));", ArgDefs: argmap.New()}
	if e := r.Register(lexctx.Source, false, "myblock", ub); e != nil {
		t.Fatalf("Register: %v", e)
	}
	got, ok := r.Find(lexctx.Source, "myblock")
	if !ok || got != ub {
		t.Fatalf("expected to find the registered block, got %v ok=%v", got, ok)
	}
	if _, ok := r.Find(lexctx.Destination, "myblock"); ok {
		t.Fatalf("expected no match in an unrelated context")
	}
}

func TestRegisterDuplicateRejected(t *testing.T) {
	r := NewRegistry()
	first := &UserBlock{Content: "a", ArgDefs: argmap.New()}
	second := &UserBlock{Content: "b", ArgDefs: argmap.New()}
	if e := r.Register(lexctx.Source, false, "myblock", first); e != nil {
		t.Fatalf("first Register: %v", e)
	}
	if e := r.Register(lexctx.Source, false, "myblock", second); e == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	got, _ := r.Find(lexctx.Source, "myblock")
	if got != first {
		t.Fatalf("expected the earlier block to remain installed")
	}
}

func TestAnyContextMatchesEveryContext(t *testing.T) {
	r := NewRegistry()
	ub := &UserBlock{Content: "x", ArgDefs: argmap.New()}
	if e := r.Register(0, true, "shared", ub); e != nil {
		t.Fatalf("Register: %v", e)
	}
	if _, ok := r.Find(lexctx.Source, "shared"); !ok {
		t.Fatalf("expected any-context block to match Source")
	}
	if _, ok := r.Find(lexctx.Destination, "shared"); !ok {
		t.Fatalf("expected any-context block to match Destination")
	}
}

func TestExpandSubstitutesArgsAndBuildsVarargs(t *testing.T) {
	defs := argmap.New()
	defs.Set("ip", "127.0.0.1")
	ub := &UserBlock{Content: "tcp(ip(`ip`) port(`port`));", ArgDefs: defs}

	args := argmap.New()
	args.Set("ip", "10.0.0.1")
	args.Set("port", "514")
	args.Set("flags", "no-multi-line")

	e := &Expander{Globals: argmap.New()}
	content, frameName, err := e.Expand(lexctx.Source, "myblock", ub, args)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if content != "tcp(ip(10.0.0.1) port(514));" {
		t.Fatalf("unexpected expansion: %q", content)
	}
	if frameName != "source block myblock" {
		t.Fatalf("unexpected frame name: %q", frameName)
	}
	if got, _ := args.Get("__VARARGS__"); !strings.Contains(got, "flags(no-multi-line)") {
		t.Fatalf("expected __VARARGS__ to capture the unknown argument, got %q", got)
	}
}

func TestExpandWithNoArgsUsesDefaults(t *testing.T) {
	defs := argmap.New()
	defs.Set("ip", "127.0.0.1")
	ub := &UserBlock{Content: "ip(`ip`)", ArgDefs: defs}

	e := &Expander{Globals: argmap.New()}
	content, _, err := e.Expand(lexctx.Source, "myblock", ub, nil)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if content != "ip(127.0.0.1)" {
		t.Fatalf("unexpected expansion: %q", content)
	}
}

func TestExpandPropagatesUnterminatedBacktickError(t *testing.T) {
	ub := &UserBlock{Content: "ip(`unterminated", ArgDefs: argmap.New()}
	e := &Expander{}
	if _, _, err := e.Expand(lexctx.Source, "myblock", ub, nil); err == nil {
		t.Fatalf("expected an error for an unterminated backtick inside the block body")
	}
}
