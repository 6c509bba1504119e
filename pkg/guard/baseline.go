package guard

import (
	"os"
	"path/filepath"

	"github.com/odvcencio/aiguard/pkg/baseline"
)

// baselineStore returns the snapshot store under the project cache dir.
func (g *Guard) baselineStore() *baseline.Store {
	return baseline.NewStore(filepath.Join(g.root, CacheDirName))
}

// SnapshotBaselines records the current text of every protected region in
// the baseline store, keyed by entry. Entries whose content cannot be read
// or extracted right now are left at their previous snapshot. The store is
// advisory: it explains failures, it never decides them.
func (g *Guard) SnapshotBaselines() error {
	store := g.baselineStore()
	idx, err := store.ReadIndex()
	if err != nil {
		return err
	}

	for _, e := range g.entries {
		if e.IsSelf() {
			continue
		}
		text, ok := g.CurrentText(e)
		if !ok {
			continue
		}
		k, err := store.WriteString(text)
		if err != nil {
			return err
		}
		idx.Entries[e.Key()] = k
	}
	return store.WriteIndex(idx)
}

// BaselineText returns the recorded approved text for an entry, if a
// snapshot exists.
func (g *Guard) BaselineText(e Entry) (string, bool) {
	store := g.baselineStore()
	idx, err := store.ReadIndex()
	if err != nil {
		return "", false
	}
	k, ok := idx.Entries[e.Key()]
	if !ok {
		return "", false
	}
	text, err := store.ReadString(k)
	if err != nil {
		return "", false
	}
	return text, true
}

// CurrentText returns the present on-disk text of the region an entry
// protects: the whole file, or the extracted identifier span.
func (g *Guard) CurrentText(e Entry) (string, bool) {
	data, err := os.ReadFile(filepath.Join(g.root, e.Path))
	if err != nil {
		return "", false
	}
	if e.Identifier == "" {
		return string(data), true
	}

	x := g.registry.ForPath(e.Path)
	if x == nil {
		return "", false
	}
	id := x.ExtractIdentifier(string(data), e.Identifier)
	if id == nil {
		return "", false
	}
	return id.Source, true
}
