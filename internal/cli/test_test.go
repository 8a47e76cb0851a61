package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idlbind/internal/harness"
	"github.com/roach88/idlbind/internal/testutil"
)

var harnessScenarios = filepath.Join("..", "harness", "testdata", "scenarios")

// scenarioDir lays out scenarios/scenario.yaml and trees/shapes.yaml in a
// fresh directory and returns the scenarios directory. The tree lives outside
// it because every YAML file under a scenarios directory is a scenario.
func scenarioDir(t *testing.T, scenario string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "scenarios")
	trees := filepath.Join(root, "trees")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.MkdirAll(trees, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(trees, "shapes.yaml"), []byte(testutil.ShapesYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenario.yaml"), []byte(scenario), 0o644))
	return dir
}

const passingScenario = `name: point_unit
tree: ../trees/shapes.yaml
assertions:
  - type: unit_exists
    path: shapes/Point.java
vectors:
  - type: shapes::Point
    value: { x: 1, y: 2 }
    hex: "01000000 02000000"
`

const failingScenario = `name: missing_unit
tree: ../trees/shapes.yaml
assertions:
  - type: unit_exists
    path: shapes/Hexagon.java
`

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), harnessScenarios)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ shapes_default")
	assert.Contains(t, out, "Test Summary: 4 passed, 0 failed, 4 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), harnessScenarios, "--filter", "shapes_*")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.NotContains(t, out, "recursive")
}

func TestTestCommandUpdateThenMatch(t *testing.T) {
	dir := scenarioDir(t, passingScenario)

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ point_unit (golden updated)")
	assert.FileExists(t, harness.GoldenPath(filepath.Join(dir, "scenario.yaml")))

	out, _, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ point_unit (golden matched)")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := scenarioDir(t, failingScenario)

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ missing_unit")
	assert.Contains(t, out, "shapes/Hexagon.java")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	dir := scenarioDir(t, failingScenario)

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var response struct {
		Status string              `json:"status"`
		Data   harness.SuiteResult `json:"data"`
		Error  *CLIError           `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	require.NotNil(t, response.Error)
	assert.Equal(t, "E_TEST_FAILED", response.Error.Code)
	assert.Equal(t, 1, response.Data.Failed)
}

func TestTestHelpText(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "golden")
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
	assert.Contains(t, out, "scenarios-dir")
}
