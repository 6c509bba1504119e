// Package fingerprint computes the content hashes stored in the .ai-guard
// manifest. Hashes are deterministic across platforms: every carriage
// return is stripped before digesting, so CRLF and LF renditions of the
// same text always agree.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// HexLen is the length of a manifest hash: SHA-256 truncated to 16 hex
// characters. Short hashes keep the manifest compact and diff-friendly.
const HexLen = 16

// Hash returns the fingerprint of text: SHA-256 over the UTF-8 bytes of
// text with all '\r' characters removed, truncated to HexLen hex chars.
func Hash(text string) string {
	normalized := strings.ReplaceAll(text, "\r", "")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:HexLen]
}

// HashFile returns the fingerprint of the file's contents.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return Hash(string(data)), nil
}
