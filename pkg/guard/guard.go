// Package guard maintains the .ai-guard manifest: the ordered set of
// protected entries binding paths (and optionally identifiers) to expected
// content hashes, including the manifest's own self-protection entry.
package guard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/aiguard/pkg/fingerprint"
	"github.com/odvcencio/aiguard/pkg/lang"
)

const (
	// ManifestName is the manifest file at the project root.
	ManifestName = ".ai-guard"

	// CacheDirName holds the baseline snapshot store.
	CacheDirName = ".ai-guard-cache"

	// placeholderHash marks a self-protection entry before its first save.
	placeholderHash = "0000000000000000"
)

// Entry is one protected region: a whole file when Identifier is empty,
// otherwise a named construct within the file.
type Entry struct {
	Path       string
	Identifier string
	Hash       string
}

// Key returns the entry's unique key within the manifest.
func (e Entry) Key() string {
	if e.Identifier == "" {
		return e.Path
	}
	return e.Path + ":" + e.Identifier
}

// String renders the entry in manifest line format.
func (e Entry) String() string {
	return e.Key() + ":" + e.Hash
}

// IsSelf reports whether this is the manifest's self-protection entry.
func (e Entry) IsSelf() bool {
	return e.Path == ManifestName && e.Identifier == ""
}

// Guard is the manifest state machine. Entries keep manifest order; keys
// (path, identifier) are unique.
type Guard struct {
	root     string
	registry *lang.Registry
	entries  []Entry
}

// New returns a Guard rooted at the project directory. The registry
// resolves identifier extraction per file extension; whole-file protection
// needs no extractor.
func New(root string, registry *lang.Registry) *Guard {
	return &Guard{root: root, registry: registry}
}

// Open returns a Guard with the on-disk manifest loaded.
func Open(root string, registry *lang.Registry) (*Guard, error) {
	g := New(root, registry)
	if err := g.Load(); err != nil {
		return nil, err
	}
	return g, nil
}

// Root returns the project root directory.
func (g *Guard) Root() string { return g.root }

// ManifestPath returns the manifest file location.
func (g *Guard) ManifestPath() string {
	return filepath.Join(g.root, ManifestName)
}

// Entries returns a copy of the entry list in manifest order.
func (g *Guard) Entries() []Entry {
	out := make([]Entry, len(g.entries))
	copy(out, g.entries)
	return out
}

// Load reads the on-disk manifest. A missing file yields an empty entry
// set. Blank lines, comment lines and malformed lines are dropped.
func (g *Guard) Load() error {
	data, err := os.ReadFile(g.ManifestPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			g.entries = nil
			return nil
		}
		return fmt.Errorf("load manifest: %w", err)
	}
	g.entries = parseManifest(string(data))
	return nil
}

// parseManifest parses manifest text into entries, dropping anything that
// does not parse.
func parseManifest(text string) []Entry {
	var out []Entry
	for _, line := range strings.Split(text, "\n") {
		if e, ok := parseLine(line); ok {
			out = append(out, e)
		}
	}
	return out
}

// parseLine parses one manifest line. The hash is always the text after
// the last colon; the identifier, when present, is everything between the
// first colon and the hash, so identifiers may embed "::" qualifiers.
func parseLine(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Entry{}, false
	}

	last := strings.LastIndex(trimmed, ":")
	if last <= 0 || last == len(trimmed)-1 {
		return Entry{}, false
	}
	hash := trimmed[last+1:]
	rest := trimmed[:last]

	e := Entry{Hash: hash}
	if i := strings.Index(rest, ":"); i >= 0 {
		e.Path, e.Identifier = rest[:i], rest[i+1:]
	} else {
		e.Path = rest
	}
	if e.Path == "" {
		return Entry{}, false
	}
	return e, true
}

// find returns the index of the entry with the exact (path, identifier)
// key, or -1.
func (g *Guard) find(path, identifier string) int {
	for idx, e := range g.entries {
		if e.Path == path && e.Identifier == identifier {
			return idx
		}
	}
	return -1
}

// AddFile protects a whole file. When the file is already protected the
// existing entry is returned as skipped and left untouched.
func (g *Guard) AddFile(path string) (added, skipped *Entry, err error) {
	if idx := g.find(path, ""); idx >= 0 {
		e := g.entries[idx]
		return nil, &e, nil
	}

	h, err := fingerprint.HashFile(filepath.Join(g.root, path))
	if err != nil {
		return nil, nil, fmt.Errorf("add %s: %w", path, err)
	}

	e := Entry{Path: path, Hash: h}
	g.entries = append(g.entries, e)
	return &e, nil, nil
}

// AddIdentifier protects the identifiers matching pattern within a file.
// Existing entries are skipped with their stored hash retained. A pattern
// that resolves to nothing is an error.
func (g *Guard) AddIdentifier(path, pattern string) (added, skipped []Entry, err error) {
	ids, err := g.resolve(path, pattern)
	if err != nil {
		return nil, nil, err
	}

	for _, id := range ids {
		if idx := g.find(path, id.Name); idx >= 0 {
			skipped = append(skipped, g.entries[idx])
			continue
		}
		e := Entry{Path: path, Identifier: id.Name, Hash: fingerprint.Hash(id.Source)}
		g.entries = append(g.entries, e)
		added = append(added, e)
	}
	return added, skipped, nil
}

// Update re-protects with current content: matching entries are removed
// and re-added fresh, bypassing the skip-on-exists rule. An empty pattern
// updates the whole-file entry. Content is resolved before any entry is
// touched, so a failed update leaves the entry list unchanged.
func (g *Guard) Update(path, pattern string) ([]Entry, error) {
	if pattern == "" {
		h, err := fingerprint.HashFile(filepath.Join(g.root, path))
		if err != nil {
			return nil, fmt.Errorf("update %s: %w", path, err)
		}
		g.Remove(path, "")
		e := Entry{Path: path, Hash: h}
		g.entries = append(g.entries, e)
		return []Entry{e}, nil
	}

	ids, err := g.resolve(path, pattern)
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, id := range ids {
		g.Remove(path, id.Name)
		e := Entry{Path: path, Identifier: id.Name, Hash: fingerprint.Hash(id.Source)}
		g.entries = append(g.entries, e)
		out = append(out, e)
	}
	return out, nil
}

// Remove deletes the entry with the exact (path, identifier) key and
// reports how many entries were removed (0 or 1; keys are unique). An
// empty identifier removes only the whole-file entry, never the
// identifier entries for that path.
func (g *Guard) Remove(path, identifier string) int {
	idx := g.find(path, identifier)
	if idx < 0 {
		return 0
	}
	g.entries = append(g.entries[:idx], g.entries[idx+1:]...)
	return 1
}

// resolve expands pattern against the file's current content.
func (g *Guard) resolve(path, pattern string) ([]lang.Identifier, error) {
	source, err := os.ReadFile(filepath.Join(g.root, path))
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	x := g.registry.ForPath(path)
	if x == nil {
		return nil, fmt.Errorf("resolve %s: %w for %q files", path, lang.ErrNoExtractor, filepath.Ext(path))
	}

	ids := x.ExpandPattern(string(source), pattern)
	if len(ids) == 0 {
		return nil, fmt.Errorf("no identifiers matching %q in %s", pattern, path)
	}
	return ids, nil
}

// Save writes the manifest atomically with the self-protection entry
// first, its hash covering every other entry's serialized line. Baseline
// snapshots are refreshed on a best-effort basis; they never fail a save.
func (g *Guard) Save() error {
	g.ensureSelfFirst()
	g.entries[0].Hash = fingerprint.Hash(serializeEntries(g.entries[1:]))

	var b strings.Builder
	for _, e := range g.entries {
		b.WriteString(e.String())
		b.WriteString("\n")
	}

	if err := atomicWrite(g.root, g.ManifestPath(), []byte(b.String())); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}

	g.SnapshotBaselines()
	return nil
}

// ensureSelfFirst moves the self-protection entry to position 0, creating
// it with a placeholder hash when absent.
func (g *Guard) ensureSelfFirst() {
	idx := g.find(ManifestName, "")
	switch {
	case idx < 0:
		g.entries = append([]Entry{{Path: ManifestName, Hash: placeholderHash}}, g.entries...)
	case idx > 0:
		self := g.entries[idx]
		g.entries = append(g.entries[:idx], g.entries[idx+1:]...)
		g.entries = append([]Entry{self}, g.entries...)
	}
}

// serializeEntries renders entries one per line with a trailing newline,
// or an empty string for an empty list. This exact serialization is what
// the self-protection hash covers.
func serializeEntries(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return b.String()
}

// atomicWrite writes data via a temp file in dir renamed over path.
func atomicWrite(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".aiguard-tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
