package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idlbind/internal/errors"
)

func TestRunWithGolden_ShapesDefault(t *testing.T) {
	result, err := RunWithGolden(t, loadTestdata(t, "shapes_default"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunWithGolden_UnresolvedType(t *testing.T) {
	result, err := RunWithGolden(t, loadTestdata(t, "unresolved_type"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot_OmitsEmptyFields(t *testing.T) {
	r := NewResult()
	r.AddCycleTrace("info", "recursive types: a::B → a::B")
	r.AddVectorTrace("a::B", "00", "")

	data, err := Snapshot("snap", r)
	require.NoError(t, err)

	want := `{
  "scenario_name": "snap",
  "trace": [
    {
      "level": "info",
      "message": "recursive types: a::B → a::B",
      "seq": 1,
      "type": "cycle"
    },
    {
      "hex": "00",
      "seq": 2,
      "type": "vector",
      "type_name": "a::B"
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}

func TestWriteAndCompareGolden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golden", "x.golden")
	r := sampleResult()

	_, err := CompareGolden(path, "x", r)
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, WriteGolden(path, "x", r))
	match, err := CompareGolden(path, "x", r)
	require.NoError(t, err)
	assert.True(t, match)

	r.AddVectorTrace("m::A", "ff", "")
	match, err = CompareGolden(path, "x", r)
	require.NoError(t, err)
	assert.False(t, match)

	match, err = CompareGolden(path, "renamed", sampleResult())
	require.NoError(t, err)
	assert.False(t, match)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "x"`)
}

func TestGoldenPath(t *testing.T) {
	assert.Equal(t, filepath.Join("s", "golden", "shapes.golden"), GoldenPath(filepath.Join("s", "shapes.yaml")))
	assert.Equal(t, filepath.Join("golden", "a.b.golden"), GoldenPath("a.b.yml"))
}
