// Package baseline stores the last-approved content of protected regions
// so verification failures can be rendered as diffs against what was
// actually approved, not just reported as hash mismatches.
//
// Snapshots live in a content-addressed store with a 2-character fan-out
// layout (objects/ab/cdef...), keyed by the BLAKE2b-256 of the raw content
// and compressed with zstd on disk.
package baseline

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
)

// Key is the lowercase hex BLAKE2b-256 digest of a snapshot's raw content.
type Key string

// KeyFor computes the snapshot key for raw content.
func KeyFor(data []byte) Key {
	sum := blake2b.Sum256(data)
	return Key(hex.EncodeToString(sum[:]))
}

// Store is a content-addressed snapshot store rooted at a cache directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

func (s *Store) objectPath(k Key) string {
	return filepath.Join(s.root, "objects", string(k[:2]), string(k[2:]))
}

// Has reports whether the store contains a snapshot with the given key.
func (s *Store) Has(k Key) bool {
	if len(k) < 3 {
		return false
	}
	_, err := os.Stat(s.objectPath(k))
	return err == nil
}

// Write stores a snapshot and returns its content key. Writes are atomic:
// compressed data goes to a temp file which is then renamed into place.
func (s *Store) Write(data []byte) (Key, error) {
	k := KeyFor(data)

	// Fast path: already exists.
	if s.Has(k) {
		return k, nil
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return "", fmt.Errorf("baseline write: %w", err)
	}
	compressed := enc.EncodeAll(data, nil)
	enc.Close()

	dir := filepath.Join(s.root, "objects", string(k[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("baseline write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("baseline write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("baseline write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("baseline write close: %w", err)
	}

	if err := os.Rename(tmpName, s.objectPath(k)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("baseline write rename: %w", err)
	}
	return k, nil
}

// Read retrieves a snapshot by key and verifies its content against the
// key before returning it.
func (s *Store) Read(k Key) ([]byte, error) {
	if len(k) < 3 {
		return nil, fmt.Errorf("baseline read: invalid key %q", k)
	}
	compressed, err := os.ReadFile(s.objectPath(k))
	if err != nil {
		return nil, fmt.Errorf("baseline read %s: %w", k, err)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("baseline read %s: %w", k, err)
	}
	defer dec.Close()

	data, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("baseline read %s: decompress: %w", k, err)
	}
	if got := KeyFor(data); got != k {
		return nil, fmt.Errorf("baseline read %s: content mismatch (got %s)", k, got)
	}
	return data, nil
}

// WriteString stores a text snapshot.
func (s *Store) WriteString(text string) (Key, error) {
	return s.Write([]byte(text))
}

// ReadString retrieves a text snapshot.
func (s *Store) ReadString(k Key) (string, error) {
	data, err := s.Read(k)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
