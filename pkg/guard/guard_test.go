package guard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/aiguard/pkg/fingerprint"
	"github.com/odvcencio/aiguard/pkg/lang"
	"github.com/odvcencio/aiguard/pkg/lang/cfamily"
	"github.com/odvcencio/aiguard/pkg/lang/python"
)

func testRegistry() *lang.Registry {
	reg := lang.NewRegistry()
	reg.Register(cfamily.Extensions, cfamily.New())
	reg.Register(python.Extensions, python.New())
	return reg
}

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	return New(t.TempDir(), testRegistry())
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
}

func TestAddFileIdempotent(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "util.c", "int x;\n")

	added, skipped, err := g.AddFile("util.c")
	require.NoError(t, err)
	require.NotNil(t, added)
	assert.Nil(t, skipped)
	assert.Equal(t, "util.c", added.Path)
	assert.Len(t, added.Hash, fingerprint.HexLen)

	added2, skipped2, err := g.AddFile("util.c")
	require.NoError(t, err)
	assert.Nil(t, added2)
	require.NotNil(t, skipped2)
	assert.Equal(t, added.Hash, skipped2.Hash)
	assert.Len(t, g.Entries(), 1)
}

func TestAddFileMissing(t *testing.T) {
	g := newTestGuard(t)
	_, _, err := g.AddFile("absent.c")
	assert.Error(t, err)
}

func TestAddIdentifier(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "math.c", "int add(int a,int b){return a+b;}\n")

	added, skipped, err := g.AddIdentifier("math.c", "add")
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Empty(t, skipped)
	assert.Equal(t, "add", added[0].Identifier)
	assert.Equal(t, fingerprint.Hash("int add(int a,int b){return a+b;}"), added[0].Hash)

	// Second add skips, keeping the stored hash.
	added2, skipped2, err := g.AddIdentifier("math.c", "add")
	require.NoError(t, err)
	assert.Empty(t, added2)
	require.Len(t, skipped2, 1)
	assert.Equal(t, added[0].Hash, skipped2[0].Hash)
	assert.Len(t, g.Entries(), 1)
}

func TestAddIdentifierNoMatches(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "math.c", "int add(int a,int b){return a+b;}\n")

	_, _, err := g.AddIdentifier("math.c", "missing")
	assert.ErrorContains(t, err, "no identifiers matching")

	_, _, err = g.AddIdentifier("math.c", "nothing_*")
	assert.Error(t, err)
}

func TestAddIdentifierNoExtractor(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "notes.txt", "hello\n")

	_, _, err := g.AddIdentifier("notes.txt", "anything")
	assert.ErrorIs(t, err, lang.ErrNoExtractor)
}

func TestWildcardAdd(t *testing.T) {
	g := newTestGuard(t)
	src := `def test_invariant_one():
    return 1

def test_invariant_two():
    return 2

def test_invariant_three():
    return 3

def test_other():
    return 0
`
	writeFile(t, g.Root(), "checks.py", src)

	added, _, err := g.AddIdentifier("checks.py", "test_invariant_*")
	require.NoError(t, err)
	require.Len(t, added, 3)

	hashes := map[string]bool{}
	for _, e := range added {
		assert.True(t, strings.HasPrefix(e.Identifier, "test_invariant_"))
		hashes[e.Hash] = true
	}
	assert.Len(t, hashes, 3, "each function should hash distinctly")
	assert.Equal(t, 0, g.Remove("checks.py", "test_other"))
}

func TestUpdateRefreshesHash(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "math.c", "int add(int a,int b){return a+b;}\n")

	added, _, err := g.AddIdentifier("math.c", "add")
	require.NoError(t, err)

	writeFile(t, g.Root(), "math.c", "int add(int a,int b){return a-b;}\n")

	// Skip-on-exists would keep the stale hash.
	_, skipped, err := g.AddIdentifier("math.c", "add")
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, added[0].Hash, skipped[0].Hash)

	updated, err := g.Update("math.c", "add")
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.NotEqual(t, added[0].Hash, updated[0].Hash)
	assert.Len(t, g.Entries(), 1)
}

func TestUpdateWholeFile(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "data.txt", "v1\n")

	_, _, err := g.AddFile("data.txt")
	require.NoError(t, err)

	writeFile(t, g.Root(), "data.txt", "v2\n")
	updated, err := g.Update("data.txt", "")
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, fingerprint.Hash("v2\n"), updated[0].Hash)
}

func TestFailedUpdateKeepsEntries(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "data.txt", "v1\n")
	writeFile(t, g.Root(), "math.c", "int add(int a,int b){return a+b;}\n")

	_, _, err := g.AddFile("data.txt")
	require.NoError(t, err)
	_, _, err = g.AddIdentifier("math.c", "add")
	require.NoError(t, err)
	before := g.Entries()

	// Updating a deleted file must fail without dropping its entry.
	require.NoError(t, os.Remove(filepath.Join(g.Root(), "data.txt")))
	_, err = g.Update("data.txt", "")
	require.Error(t, err)
	assert.Equal(t, before, g.Entries())

	// Same for an identifier that no longer resolves.
	writeFile(t, g.Root(), "math.c", "int sub(int a,int b){return a-b;}\n")
	_, err = g.Update("math.c", "add")
	require.Error(t, err)
	assert.Equal(t, before, g.Entries())
}

func TestRemoveWholeFileEntryOnly(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "math.c", "int add(int a,int b){return a+b;}\n")

	_, _, err := g.AddFile("math.c")
	require.NoError(t, err)
	_, _, err = g.AddIdentifier("math.c", "add")
	require.NoError(t, err)

	assert.Equal(t, 1, g.Remove("math.c", ""))
	require.Len(t, g.Entries(), 1)
	assert.Equal(t, "add", g.Entries()[0].Identifier)

	assert.Equal(t, 0, g.Remove("math.c", ""))
	assert.Equal(t, 1, g.Remove("math.c", "add"))
	assert.Empty(t, g.Entries())
}

func TestVerifyReasons(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "math.c", "int add(int a,int b){return a+b;}\n")
	writeFile(t, g.Root(), "gone.c", "int z;\n")

	_, _, err := g.AddIdentifier("math.c", "add")
	require.NoError(t, err)
	_, _, err = g.AddFile("gone.c")
	require.NoError(t, err)

	failures, err := g.Verify()
	require.NoError(t, err)
	assert.Empty(t, failures)

	// Rename the function: identifier not found.
	writeFile(t, g.Root(), "math.c", "int sum(int a,int b){return a+b;}\n")
	// Delete the other file: file not found.
	require.NoError(t, os.Remove(filepath.Join(g.Root(), "gone.c")))

	failures, err = g.Verify()
	require.NoError(t, err)
	require.Len(t, failures, 2)
	byKey := map[string]string{}
	for _, f := range failures {
		byKey[f.Entry.Key()] = f.Reason
	}
	assert.Equal(t, ReasonIdentifierNotFound, byKey["math.c:add"])
	assert.Equal(t, ReasonFileNotFound, byKey["gone.c"])
}

func TestVerifyHashMismatch(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "math.c", "int add(int a,int b){return a+b;}\n")

	_, _, err := g.AddIdentifier("math.c", "add")
	require.NoError(t, err)

	writeFile(t, g.Root(), "math.c", "int add(int a,int b){return a-b;}\n")
	failures, err := g.Verify()
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, ReasonHashMismatch, failures[0].Reason)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "math.c", "int add(int a,int b){return a+b;}\n")

	_, _, err := g.AddFile("math.c")
	require.NoError(t, err)
	_, _, err = g.AddIdentifier("math.c", "add")
	require.NoError(t, err)
	require.NoError(t, g.Save())

	reloaded, err := Open(g.Root(), testRegistry())
	require.NoError(t, err)

	entries := reloaded.Entries()
	require.Len(t, entries, 3)
	assert.True(t, entries[0].IsSelf(), "self entry must come first")
	assert.Equal(t, "math.c", entries[1].Path)
	assert.Equal(t, "add", entries[2].Identifier)

	failures, err := reloaded.Verify()
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func TestSelfProtectionDetectsTampering(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "a.txt", "alpha\n")
	writeFile(t, g.Root(), "b.txt", "beta\n")

	_, _, err := g.AddFile("a.txt")
	require.NoError(t, err)
	_, _, err = g.AddFile("b.txt")
	require.NoError(t, err)
	require.NoError(t, g.Save())

	// Delete the a.txt line from the manifest by hand.
	data, err := os.ReadFile(g.ManifestPath())
	require.NoError(t, err)
	var kept []string
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if !strings.HasPrefix(line, "a.txt:") {
			kept = append(kept, line)
		}
	}
	require.NoError(t, os.WriteFile(g.ManifestPath(), []byte(strings.Join(kept, "\n")+"\n"), 0o644))

	reloaded, err := Open(g.Root(), testRegistry())
	require.NoError(t, err)
	failures, err := reloaded.Verify()
	require.NoError(t, err)
	require.Len(t, failures, 1)
	assert.Equal(t, ManifestName, failures[0].Entry.Path)
	assert.Equal(t, ReasonHashMismatch, failures[0].Reason)
}

func TestManifestParsing(t *testing.T) {
	text := strings.Join([]string{
		"# protected regions",
		"",
		"src/point.cpp:Point::x:aabbccddeeff0011",
		"src/point.cpp:0123456789abcdef",
		"not-a-valid-line",
		"  ",
	}, "\n")

	entries := parseManifest(text)
	require.Len(t, entries, 2)

	assert.Equal(t, "src/point.cpp", entries[0].Path)
	assert.Equal(t, "Point::x", entries[0].Identifier, "embedded :: must survive parsing")
	assert.Equal(t, "aabbccddeeff0011", entries[0].Hash)

	assert.Equal(t, "src/point.cpp", entries[1].Path)
	assert.Empty(t, entries[1].Identifier)

	assert.Equal(t, "src/point.cpp:Point::x:aabbccddeeff0011", entries[0].String())
}

func TestSerializationSelfHash(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "x.txt", "x\n")

	_, _, err := g.AddFile("x.txt")
	require.NoError(t, err)
	require.NoError(t, g.Save())

	entries := g.Entries()
	require.Len(t, entries, 2)
	want := fingerprint.Hash(entries[1].String() + "\n")
	assert.Equal(t, want, entries[0].Hash)
}

func TestSelfHashEmptyManifest(t *testing.T) {
	g := newTestGuard(t)
	require.NoError(t, g.Save())

	entries := g.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsSelf())
	assert.Equal(t, fingerprint.Hash(""), entries[0].Hash)

	failures, err := g.Verify()
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func TestBaselineSnapshotOnSave(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "math.c", "int add(int a,int b){return a+b;}\n")

	_, _, err := g.AddIdentifier("math.c", "add")
	require.NoError(t, err)
	require.NoError(t, g.Save())

	entry := g.Entries()[1]
	text, ok := g.BaselineText(entry)
	require.True(t, ok)
	assert.Equal(t, "int add(int a,int b){return a+b;}", text)

	// Editing the file changes CurrentText but not the recorded baseline.
	writeFile(t, g.Root(), "math.c", "int add(int a,int b){return a-b;}\n")
	current, ok := g.CurrentText(entry)
	require.True(t, ok)
	assert.NotEqual(t, text, current)

	still, ok := g.BaselineText(entry)
	require.True(t, ok)
	assert.Equal(t, text, still)
}

func TestBaselineMissingIsAdvisory(t *testing.T) {
	g := newTestGuard(t)
	writeFile(t, g.Root(), "x.txt", "x\n")

	_, _, err := g.AddFile("x.txt")
	require.NoError(t, err)

	// No Save yet, so no snapshot exists; verify is unaffected.
	_, ok := g.BaselineText(g.Entries()[0])
	assert.False(t, ok)

	failures, err := g.Verify()
	require.NoError(t, err)
	assert.Empty(t, failures)
}
