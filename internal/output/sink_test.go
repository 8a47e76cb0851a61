package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idlbind/internal/emit"
	"github.com/roach88/idlbind/internal/errors"
)

func unit(path, content string) *emit.Unit {
	return &emit.Unit{Path: path, Content: content}
}

func TestFileSink_WritesAndCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)

	require.NoError(t, sink.Write(unit("shapes/Point.java", "package shapes;\n")))

	data, err := os.ReadFile(filepath.Join(dir, "shapes", "Point.java"))
	require.NoError(t, err)
	assert.Equal(t, "package shapes;\n", string(data))
	assert.Equal(t, 1, sink.Written)
}

func TestFileSink_SkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)
	u := unit("a/B.java", "class B {}\n")
	require.NoError(t, sink.Write(u))

	path := filepath.Join(dir, "a", "B.java")
	old := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, old, old))

	require.NoError(t, sink.Write(u))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old), "unchanged file must not be rewritten")
	assert.Equal(t, 1, sink.Written)
	assert.Equal(t, 1, sink.Unchanged)

	require.NoError(t, sink.Write(unit("a/B.java", "class B { int x; }\n")))
	assert.Equal(t, 2, sink.Written)
}

func TestFileSink_RejectsEscapingPaths(t *testing.T) {
	sink := NewFileSink(t.TempDir())
	for _, p := range []string{"../evil.java", "/abs/X.java", "a/../../X.java"} {
		err := sink.Write(unit(p, "x"))
		require.Error(t, err, p)
		assert.True(t, errors.IsInvalidInput(err), p)
	}
}

func TestFileSink_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	// A file where a directory is needed.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes"), []byte("x"), 0o644))

	err := NewFileSink(dir).Write(unit("shapes/Point.java", "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shapes/Point.java")
}

func TestFileSink_Remove(t *testing.T) {
	dir := t.TempDir()
	sink := NewFileSink(dir)
	require.NoError(t, sink.Write(unit("a/b/Gone.java", "x")))
	require.NoError(t, sink.Write(unit("a/Kept.java", "y")))

	require.NoError(t, sink.Remove("a/b/Gone.java"))
	_, err := os.Stat(filepath.Join(dir, "a", "b"))
	assert.True(t, os.IsNotExist(err), "empty directory is pruned")
	_, err = os.Stat(filepath.Join(dir, "a", "Kept.java"))
	assert.NoError(t, err)

	assert.NoError(t, sink.Remove("a/b/Gone.java"), "missing file is fine")
	assert.Error(t, sink.Remove("../x.java"))
}

func TestMemorySink(t *testing.T) {
	sink := NewMemorySink()
	require.NoError(t, sink.Write(unit("b/Two.java", "2")))
	require.NoError(t, sink.Write(unit("a/One.java", "1")))

	assert.Equal(t, []string{"b/Two.java", "a/One.java"}, sink.Paths())
	u, ok := sink.Get("a/One.java")
	require.True(t, ok)
	assert.Equal(t, "1", u.Content)
	_, ok = sink.Get("c/None.java")
	assert.False(t, ok)

	units := sink.Units()
	units[0] = nil
	assert.NotNil(t, sink.Units()[0], "Units returns a copy")
}

func TestMemorySink_FailOn(t *testing.T) {
	sink := NewMemorySink()
	boom := errors.New("boom")
	sink.FailOn("x/Bad.java", boom)

	assert.ErrorIs(t, sink.Write(unit("x/Bad.java", "")), boom)
	require.NoError(t, sink.Write(unit("x/Good.java", "")))
	assert.Equal(t, []string{"x/Good.java"}, sink.Paths())
}
