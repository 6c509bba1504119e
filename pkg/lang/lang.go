// Package lang defines the identifier model shared by all language
// extractors, the extension-keyed extractor registry, and the wildcard
// pattern expansion used by the manifest layer.
//
// To add support for a new language, implement Extractor (usually via the
// Family helpers) and register it for the language's file extensions.
package lang

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// ErrNoExtractor reports that no extractor is registered for a file's
// extension. This is a missing capability, distinct from an identifier
// simply not being found in the source.
var ErrNoExtractor = errors.New("no extractor available")

// Identifier is a named, extractable code construct with its exact source
// span. Identifiers are created fresh on every extraction call; they are
// never cached, since the underlying file may change between calls.
type Identifier struct {
	Name      string // simple ("foo") or qualified ("Container::member")
	Source    string // full source text of the construct
	StartLine int
	EndLine   int
}

// Extractor locates named constructs in source text for one language
// family. All failure modes (syntax errors, unknown names, unsupported
// constructs) surface as nil / empty results, never as panics.
type Extractor interface {
	// ExtractIdentifier returns the top-level or qualified construct named
	// name, or nil if it cannot be found.
	ExtractIdentifier(source, name string) *Identifier

	// ListIdentifiers returns every top-level construct in the source.
	ListIdentifiers(source string) []Identifier

	// ExpandPattern resolves a name pattern, which may contain wildcards
	// and/or a container qualifier, to the matching identifiers.
	ExpandPattern(source, pattern string) []Identifier
}

// Family is implemented by extractors that support one level of container
// nesting (struct/class members). Expand builds ExpandPattern on top of it.
type Family interface {
	Extractor

	// Separator is the qualified-name separator ("::" or ".").
	Separator() string

	// ListMembers returns every member of the named container, with names
	// qualified as Container<sep>member.
	ListMembers(source, container string) []Identifier
}

// HasWildcard reports whether pattern contains a shell-glob wildcard.
func HasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?")
}

// Glob matches name against a shell-glob pattern (* = any run, ? = one
// character). Malformed patterns match nothing.
func Glob(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

// Expand resolves pattern against source using the family's member
// separator and extraction callbacks. Results are always fully resolved
// identifiers with computed source spans.
func Expand(f Family, source, pattern string) []Identifier {
	sep := f.Separator()

	if strings.Contains(pattern, sep) {
		parts := strings.SplitN(pattern, sep, 2)
		container, memberPattern := parts[0], parts[1]

		members := f.ListMembers(source, container)
		var out []Identifier
		if HasWildcard(memberPattern) {
			full := container + sep + memberPattern
			for _, m := range members {
				if Glob(full, m.Name) {
					out = append(out, m)
				}
			}
			return out
		}
		for _, m := range members {
			if m.Name == pattern {
				out = append(out, m)
			}
		}
		return out
	}

	if HasWildcard(pattern) {
		var out []Identifier
		for _, id := range f.ListIdentifiers(source) {
			if Glob(pattern, id.Name) {
				out = append(out, id)
			}
		}
		return out
	}

	if id := f.ExtractIdentifier(source, pattern); id != nil {
		return []Identifier{*id}
	}
	return nil
}

// Registry maps lowercased file extensions to extractors. It is populated
// once at startup; pass it explicitly to consumers rather than relying on
// package-level state.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Extractor)}
}

// Register binds an extractor to the given extensions (".c", ".py", ...).
// Later registrations for the same extension win, which lets project
// config override built-ins.
func (r *Registry) Register(extensions []string, x Extractor) {
	for _, ext := range extensions {
		r.byExt[strings.ToLower(ext)] = x
	}
}

// ForPath returns the extractor registered for the path's extension, or
// nil when the extension has no extractor. A nil result is a routine
// outcome: whole-file protection works for any text file.
func (r *Registry) ForPath(p string) Extractor {
	return r.byExt[strings.ToLower(filepath.Ext(p))]
}

// Extensions returns the registered extensions, for diagnostics.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	return out
}
