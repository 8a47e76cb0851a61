package harness

import (
	"bytes"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/idlbind/internal/emit"
	"github.com/roach88/idlbind/internal/errors"
)

// Scenario defines a generation test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Tree is the type tree document to generate from.
	// Relative paths are resolved against the scenario file's directory.
	Tree string `yaml:"tree"`

	// Options configure the emitter.
	Options Options `yaml:"options,omitempty"`

	// Vectors are wire test vectors checked against the reference codec.
	Vectors []Vector `yaml:"vectors,omitempty"`

	// Assertions validate the emitted units and diagnostics.
	Assertions []Assertion `yaml:"assertions"`
}

// Options mirrors emit.Options with YAML field names.
type Options struct {
	NamespacePrefix string `yaml:"namespace_prefix,omitempty"`
	UseArrays       bool   `yaml:"use_arrays,omitempty"`
	DisableCodec    bool   `yaml:"disable_codec,omitempty"`
	Compact         bool   `yaml:"compact,omitempty"`
}

// Emit converts to the emitter's option type.
func (o Options) Emit() emit.Options {
	return emit.Options{
		NamespacePrefix: o.NamespacePrefix,
		UseArrays:       o.UseArrays,
		DisableCodec:    o.DisableCodec,
		Compact:         o.Compact,
	}
}

// Vector is one wire test vector.
type Vector struct {
	// Type is the scoped name of the declaration to encode, e.g. "shapes::Point".
	Type string `yaml:"type"`

	// Value is the value to encode, in the same shape the encode command accepts.
	Value any `yaml:"value"`

	// Hex is the expected encoding. Whitespace is ignored.
	Hex string `yaml:"hex,omitempty"`

	// Decoded is the expected result of decoding the encoding, when it differs
	// from Value (missing members come back as zero values).
	Decoded any `yaml:"decoded,omitempty"`

	// Error expects encoding to fail with a message containing this text.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the outcome of a run.
type Assertion struct {
	// Type selects the check; see the Assert constants.
	Type string `yaml:"type"`

	// Path is a unit path (unit_exists, unit_absent, unit_contains).
	Path string `yaml:"path,omitempty"`

	// Paths is the expected unit order (unit_order).
	Paths []string `yaml:"paths,omitempty"`

	// Count is the expected number of units (unit_count).
	Count int `yaml:"count,omitempty"`

	// Text must appear in the unit (unit_contains).
	Text string `yaml:"text,omitempty"`

	// Code is a diagnostic code such as W003 or E102 (diagnostic).
	Code string `yaml:"code,omitempty"`

	// Entity optionally narrows a diagnostic assertion.
	Entity string `yaml:"entity,omitempty"`
}

// Assertion type constants.
const (
	AssertUnitExists   = "unit_exists"
	AssertUnitAbsent   = "unit_absent"
	AssertUnitOrder    = "unit_order"
	AssertUnitCount    = "unit_count"
	AssertUnitContains = "unit_contains"
	AssertDiagnostic   = "diagnostic"
	AssertNoErrors     = "no_errors"
)

// LoadScenario reads and parses a scenario YAML file, resolving the tree
// path relative to the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the tree path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario file")
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "parse YAML: "+err.Error())
	}

	if scenario.Tree != "" && !filepath.IsAbs(scenario.Tree) && basePath != "" {
		scenario.Tree = filepath.Join(basePath, scenario.Tree)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, errors.Wrapf(err, "invalid scenario %s", path)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.NewInvalidInputf("name is required")
	}

	if s.Description == "" {
		return errors.NewInvalidInputf("description is required")
	}

	if s.Tree == "" {
		return errors.NewInvalidInputf("tree is required")
	}
	if _, err := os.Stat(s.Tree); os.IsNotExist(err) {
		return errors.NewNotFoundf("tree file not found: %s", s.Tree)
	}

	if len(s.Assertions) == 0 && len(s.Vectors) == 0 {
		return errors.NewInvalidInputf("a scenario needs at least one assertion or vector")
	}

	for i, v := range s.Vectors {
		if v.Type == "" {
			return errors.NewInvalidInputf("vectors[%d]: type is required", i)
		}
		if v.Error != "" && (v.Hex != "" || v.Decoded != nil) {
			return errors.NewInvalidInputf("vectors[%d]: error cannot be combined with hex or decoded", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return errors.NewInvalidInputf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertUnitExists, AssertUnitAbsent:
		if a.Path == "" {
			return errors.NewInvalidInputf("assertions[%d]: path is required for %s", index, a.Type)
		}
	case AssertUnitOrder:
		if len(a.Paths) == 0 {
			return errors.NewInvalidInputf("assertions[%d]: paths list is required for unit_order", index)
		}
	case AssertUnitCount:
		if a.Count < 0 {
			return errors.NewInvalidInputf("assertions[%d]: count must be non-negative for unit_count", index)
		}
	case AssertUnitContains:
		if a.Path == "" || a.Text == "" {
			return errors.NewInvalidInputf("assertions[%d]: path and text are required for unit_contains", index)
		}
	case AssertDiagnostic:
		if a.Code == "" {
			return errors.NewInvalidInputf("assertions[%d]: code is required for diagnostic", index)
		}
	case AssertNoErrors:
	default:
		return errors.NewInvalidInputf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
