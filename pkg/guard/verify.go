package guard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/aiguard/pkg/fingerprint"
)

// Verification failure reasons.
const (
	ReasonFileNotFound       = "file not found"
	ReasonIdentifierNotFound = "identifier not found"
	ReasonHashMismatch       = "hash mismatch"
)

// Failure pairs a manifest entry with the reason it failed verification.
type Failure struct {
	Entry  Entry
	Reason string
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s", f.Entry.Key(), f.Reason)
}

// Verify checks every entry against current on-disk content and returns
// all failures in manifest order. An empty result means everything passed.
// Only I/O errors other than missing files abort the walk.
func (g *Guard) Verify() ([]Failure, error) {
	var failures []Failure
	for _, e := range g.entries {
		reason, err := g.verifyEntry(e)
		if err != nil {
			return nil, err
		}
		if reason != "" {
			failures = append(failures, Failure{Entry: e, Reason: reason})
		}
	}
	return failures, nil
}

// verifyEntry returns the failure reason for one entry, or "" on pass.
func (g *Guard) verifyEntry(e Entry) (string, error) {
	if e.IsSelf() {
		return g.verifySelf(e)
	}

	path := filepath.Join(g.root, e.Path)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ReasonFileNotFound, nil
		}
		return "", fmt.Errorf("verify %s: %w", e.Key(), err)
	}

	if e.Identifier == "" {
		h, err := fingerprint.HashFile(path)
		if err != nil {
			return "", fmt.Errorf("verify %s: %w", e.Key(), err)
		}
		if h != e.Hash {
			return ReasonHashMismatch, nil
		}
		return "", nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("verify %s: %w", e.Key(), err)
	}
	x := g.registry.ForPath(e.Path)
	if x == nil {
		return ReasonIdentifierNotFound, nil
	}
	id := x.ExtractIdentifier(string(source), e.Identifier)
	if id == nil {
		return ReasonIdentifierNotFound, nil
	}
	if fingerprint.Hash(id.Source) != e.Hash {
		return ReasonHashMismatch, nil
	}
	return "", nil
}

// verifySelf re-reads the on-disk manifest, serializes every entry except
// the self-protection one, and compares the recomputed hash with the
// stored self hash. Working from the file rather than the in-memory set
// makes hand edits to any manifest line detectable.
func (g *Guard) verifySelf(e Entry) (string, error) {
	data, err := os.ReadFile(g.ManifestPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ReasonFileNotFound, nil
		}
		return "", fmt.Errorf("verify %s: %w", ManifestName, err)
	}

	var others []Entry
	for _, entry := range parseManifest(string(data)) {
		if entry.IsSelf() {
			continue
		}
		others = append(others, entry)
	}

	if fingerprint.Hash(serializeEntries(others)) != e.Hash {
		return ReasonHashMismatch, nil
	}
	return "", nil
}
