package lang

import (
	"strings"
	"testing"
)

// fakeFamily is a minimal Family over a fixed identifier set.
type fakeFamily struct {
	sep     string
	top     []Identifier
	members map[string][]Identifier
}

func (f *fakeFamily) Separator() string { return f.sep }

func (f *fakeFamily) ExtractIdentifier(source, name string) *Identifier {
	for _, id := range f.top {
		if id.Name == name {
			out := id
			return &out
		}
	}
	return nil
}

func (f *fakeFamily) ListIdentifiers(source string) []Identifier { return f.top }

func (f *fakeFamily) ListMembers(source, container string) []Identifier {
	return f.members[container]
}

func (f *fakeFamily) ExpandPattern(source, pattern string) []Identifier {
	return Expand(f, source, pattern)
}

func newFake() *fakeFamily {
	return &fakeFamily{
		sep: "::",
		top: []Identifier{
			{Name: "alpha", Source: "int alpha;"},
			{Name: "alpha_two", Source: "int alpha_two;"},
			{Name: "beta", Source: "int beta;"},
		},
		members: map[string][]Identifier{
			"P": {
				{Name: "P::x", Source: "int x;"},
				{Name: "P::y", Source: "int y;"},
			},
		},
	}
}

func TestExpandExactName(t *testing.T) {
	f := newFake()
	got := Expand(f, "", "beta")
	if len(got) != 1 || got[0].Name != "beta" {
		t.Fatalf("Expand(beta) = %v, want single beta", got)
	}
}

func TestExpandWildcard(t *testing.T) {
	f := newFake()
	got := Expand(f, "", "alpha*")
	if len(got) != 2 {
		t.Fatalf("Expand(alpha*) returned %d identifiers, want 2", len(got))
	}
}

func TestExpandQuestionMark(t *testing.T) {
	f := newFake()
	got := Expand(f, "", "bet?")
	if len(got) != 1 || got[0].Name != "beta" {
		t.Fatalf("Expand(bet?) = %v, want beta only", got)
	}
}

func TestExpandNoMatch(t *testing.T) {
	f := newFake()
	if got := Expand(f, "", "gamma"); len(got) != 0 {
		t.Errorf("Expand(gamma) = %v, want empty", got)
	}
	if got := Expand(f, "", "gamma_*"); len(got) != 0 {
		t.Errorf("Expand(gamma_*) = %v, want empty", got)
	}
}

func TestExpandMemberExact(t *testing.T) {
	f := newFake()
	got := Expand(f, "", "P::y")
	if len(got) != 1 || got[0].Name != "P::y" {
		t.Fatalf("Expand(P::y) = %v, want single P::y", got)
	}
}

func TestExpandMemberWildcard(t *testing.T) {
	f := newFake()
	got := Expand(f, "", "P::*")
	if len(got) != 2 {
		t.Fatalf("Expand(P::*) returned %d members, want 2", len(got))
	}
}

func TestExpandUnknownContainer(t *testing.T) {
	f := newFake()
	if got := Expand(f, "", "Q::*"); len(got) != 0 {
		t.Errorf("Expand(Q::*) = %v, want empty", got)
	}
}

func TestHasWildcard(t *testing.T) {
	cases := map[string]bool{
		"foo":     false,
		"foo*":    true,
		"f?o":     true,
		"P::x":    false,
		"P::get*": true,
	}
	for pattern, want := range cases {
		if got := HasWildcard(pattern); got != want {
			t.Errorf("HasWildcard(%q) = %v, want %v", pattern, got, want)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	f := newFake()
	reg.Register([]string{".c", ".H"}, f)

	if reg.ForPath("src/main.c") == nil {
		t.Error("expected extractor for .c")
	}
	// Lookup is case-insensitive on the extension.
	if reg.ForPath("include/defs.h") == nil {
		t.Error("expected extractor for .h via .H registration")
	}
	if reg.ForPath("IMAGE.C") == nil {
		t.Error("expected extractor for .C")
	}
	if reg.ForPath("notes.txt") != nil {
		t.Error("expected nil extractor for unregistered extension")
	}
	if reg.ForPath("Makefile") != nil {
		t.Error("expected nil extractor for extension-less path")
	}
}

func TestRegistryOverride(t *testing.T) {
	reg := NewRegistry()
	first := newFake()
	second := newFake()
	second.sep = "."

	reg.Register([]string{".x"}, first)
	reg.Register([]string{".x"}, second)

	got, ok := reg.ForPath("a.x").(*fakeFamily)
	if !ok || got.sep != "." {
		t.Error("later registration should win")
	}
}

func TestGlobDoesNotMatchAcrossSeparator(t *testing.T) {
	// A bare wildcard pattern should not accidentally match path-like names
	// in surprising ways; names here never contain '/'.
	if !Glob("test_*", "test_invariant_one") {
		t.Error("test_* should match test_invariant_one")
	}
	if Glob("test_?", "test_ab") {
		t.Error("test_? should not match two trailing characters")
	}
	if !Glob("P::*", "P::x") {
		t.Error("P::* should match P::x")
	}
	if got := Glob("[", strings.Repeat("a", 3)); got {
		t.Error("malformed pattern should match nothing")
	}
}
