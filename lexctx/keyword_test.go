package lexctx

import "testing"

func TestSimpleKeywordMatch(t *testing.T) {
	s := NewStack()
	s.Push(Root, Table{{Name: "source", TokenID: 1}}, "configuration")

	res := ResolveKeyword(s, "source", 0)
	if !res.IsKeyword || res.TokenID != 1 {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestStopSentinel(t *testing.T) {
	s := NewStack()
	s.Push(BlockDef, Table{{Name: StopName}}, "block definition")

	res := ResolveKeyword(s, "source", 0)
	if res.IsKeyword {
		t.Fatalf("expected plain identifier, got keyword %+v", res)
	}
}

func TestHyphenUnderscoreEquivalence(t *testing.T) {
	s := NewStack()
	s.Push(Root, Table{{Name: "flush_lines", TokenID: 7}}, "configuration")

	if res := ResolveKeyword(s, "flush-lines", 0); !res.IsKeyword || res.TokenID != 7 {
		t.Fatalf("expected match via hyphen/underscore equivalence, got %+v", res)
	}
	if res := ResolveKeyword(s, "flush.lines", 0); res.IsKeyword {
		t.Fatalf("expected no match for unrelated punctuation, got %+v", res)
	}
}

func TestVersionGateSuppressesMatch(t *testing.T) {
	s := NewStack()
	s.Push(Root, Table{{Name: "newkw", TokenID: 5, RequiredVersion: 0x0400}}, "configuration")

	res := ResolveKeyword(s, "newkw", 0x0300)
	if res.IsKeyword {
		t.Fatalf("expected version-gated match to be suppressed, got %+v", res)
	}
	if res.Warning == nil || res.Warning.Kind != ReservedWordUsed {
		t.Fatalf("expected reserved-word warning, got %+v", res.Warning)
	}
}

func TestVersionGateAllowsMatchAtOrAboveRequired(t *testing.T) {
	s := NewStack()
	s.Push(Root, Table{{Name: "newkw", TokenID: 5, RequiredVersion: 0x0400}}, "configuration")

	res := ResolveKeyword(s, "newkw", 0x0400)
	if !res.IsKeyword || res.TokenID != 5 {
		t.Fatalf("expected allowed match, got %+v", res)
	}
}

func TestObsoleteWarnsOnceThenNormal(t *testing.T) {
	s := NewStack()
	s.Push(Root, Table{{Name: "oldkw", TokenID: 9, Status: Obsolete, Explain: "use newkw instead"}}, "configuration")

	first := ResolveKeyword(s, "oldkw", 0)
	if first.Warning == nil || first.Warning.Kind != ObsoleteKeywordUsed || first.Warning.Explain != "use newkw instead" {
		t.Fatalf("expected obsolescence warning on first occurrence, got %+v", first.Warning)
	}

	second := ResolveKeyword(s, "oldkw", 0)
	if second.Warning != nil {
		t.Fatalf("expected no warning on second occurrence, got %+v", second.Warning)
	}
	if !second.IsKeyword || second.TokenID != 9 {
		t.Fatalf("expected keyword still resolved, got %+v", second)
	}
}

func TestNoFrameYieldsIdentifier(t *testing.T) {
	s := NewStack()
	res := ResolveKeyword(s, "anything", 0)
	if res.IsKeyword {
		t.Fatalf("expected identifier with empty stack, got %+v", res)
	}
}

func TestVersionGateFallsThroughToOuterTable(t *testing.T) {
	s := NewStack()
	s.Push(Root, Table{{Name: "newkw", TokenID: 1}}, "configuration")
	s.Push(Source, Table{{Name: "newkw", TokenID: 2, RequiredVersion: 0x0400}}, "source statement")

	res := ResolveKeyword(s, "newkw", 0x0300)
	if !res.IsKeyword || res.TokenID != 1 {
		t.Fatalf("expected the suppressed inner match to fall through to the outer table, got %+v", res)
	}
	if res.Warning == nil || res.Warning.Kind != ReservedWordUsed {
		t.Fatalf("expected the version-gate warning to survive the fall-through, got %+v", res.Warning)
	}
}

func TestWalksOuterFramesWhenInnerEmpty(t *testing.T) {
	s := NewStack()
	s.Push(Root, Table{{Name: "outer", TokenID: 2}}, "outer")
	s.Push(Source, nil, "inner source statement")

	res := ResolveKeyword(s, "outer", 0)
	if !res.IsKeyword || res.TokenID != 2 {
		t.Fatalf("expected outer-frame match, got %+v", res)
	}
}

func TestSuggestKeyword(t *testing.T) {
	s := NewStack()
	s.Push(Root, Table{{Name: "destination"}, {Name: "source"}}, "configuration")

	if suggestion, ok := SuggestKeyword(s, "destinaton"); !ok || suggestion != "destination" {
		t.Fatalf("expected suggestion \"destination\", got %q ok=%v", suggestion, ok)
	}
}
