package harness

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/idlbind/internal/errors"
	"github.com/roach88/idlbind/internal/ir"
)

// Snapshot renders a scenario's trace for golden comparison: sorted-key JSON,
// indented two spaces, with a trailing newline.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	events := make(ir.IRArray, len(result.Trace))
	for i, event := range result.Trace {
		events[i] = event.toIRObject()
	}
	doc := ir.IRObject{
		"scenario_name": ir.IRString(scenarioName),
		"trace":         events,
	}
	compact, err := ir.MarshalIRValue(doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshal trace")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, "", "  "); err != nil {
		return nil, errors.Wrap(err, "indent trace")
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// GoldenPath returns where the golden file for a scenario file lives:
// golden/<name>.golden next to the scenario.
func GoldenPath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

// WriteGolden writes the snapshot of result to path, creating directories.
func WriteGolden(path, scenarioName string, result *Result) error {
	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create golden directory")
	}
	return errors.Wrap(os.WriteFile(path, data, 0o644), "write golden file")
}

// CompareGolden reports whether the snapshot of result matches the golden
// file at path. A missing file is ErrNotFound.
func CompareGolden(path, scenarioName string, result *Result) (bool, error) {
	want, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, errors.NewNotFoundf("golden file %s", path)
	}
	if err != nil {
		return false, errors.Wrap(err, "read golden file")
	}
	got, err := Snapshot(scenarioName, result)
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
