package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Index maps manifest entry keys ("path" or "path:identifier") to the
// snapshot key of their approved content.
type Index struct {
	Entries map[string]Key `json:"entries"`
}

func (s *Store) indexPath() string {
	return filepath.Join(s.root, "index")
}

// ReadIndex loads the snapshot index. A missing file yields an empty
// index, not an error.
func (s *Store) ReadIndex() (*Index, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Index{Entries: make(map[string]Key)}, nil
		}
		return nil, fmt.Errorf("read baseline index: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("read baseline index: unmarshal: %w", err)
	}
	if idx.Entries == nil {
		idx.Entries = make(map[string]Key)
	}
	return &idx, nil
}

// WriteIndex atomically writes the snapshot index.
func (s *Store) WriteIndex(idx *Index) error {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("write baseline index: marshal: %w", err)
	}

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("write baseline index: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(s.root, ".index-tmp-*")
	if err != nil {
		return fmt.Errorf("write baseline index: tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write baseline index: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write baseline index: close: %w", err)
	}

	if err := os.Rename(tmpName, s.indexPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write baseline index: rename: %w", err)
	}
	return nil
}
