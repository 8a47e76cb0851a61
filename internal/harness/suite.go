package harness

import (
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/idlbind/internal/errors"
	"github.com/roach88/idlbind/internal/logger"
)

// SuiteOptions control a directory run.
type SuiteOptions struct {
	Filter string      // glob matched against scenario file names without extension
	Update bool        // rewrite golden files instead of comparing
	Logger *zap.Logger // generator logging; nil discards
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // matched, mismatch, updated, or absent
	Errors []string `json:"errors,omitempty"`
}

// SuiteResult summarizes a directory run.
type SuiteResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// Golden comparison outcomes.
const (
	GoldenMatched  = "matched"
	GoldenMismatch = "mismatch"
	GoldenUpdated  = "updated"
	GoldenAbsent   = "absent"
)

// FindScenarioFiles returns the YAML files under dir, skipping golden
// directories, in lexical order.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, errors.Wrap(errors.ErrInvalidInput, "invalid filter pattern: "+err.Error())
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if matched, _ := filepath.Match(filter, name); !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", dir)
	}
	return files, nil
}

// RunSuite runs every scenario under dir. Scenarios with a golden file are
// compared against it; with Update set, golden files are written instead.
// Individual scenario failures are reported in the result, not as an error.
func RunSuite(dir string, opts SuiteOptions) (*SuiteResult, error) {
	files, err := FindScenarioFiles(dir, opts.Filter)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	suite := &SuiteResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenarioFile(file, opts.Update, log)
		suite.Scenarios = append(suite.Scenarios, sr)
		if sr.Pass {
			suite.Passed++
		} else {
			suite.Failed++
		}
	}
	return suite, nil
}

func runScenarioFile(file string, update bool, log *zap.Logger) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := LoadScenario(file)
	if err != nil {
		sr.Errors = []string{"load: " + err.Error()}
		return sr
	}
	sr.Name = scenario.Name

	result, err := RunWithLogger(scenario, log.With(zap.String("scenario", scenario.Name)))
	if err != nil {
		sr.Errors = []string{"execution: " + err.Error()}
		return sr
	}
	sr.Errors = result.Errors
	sr.Pass = result.Pass

	goldenPath := GoldenPath(file)
	if update {
		if err := WriteGolden(goldenPath, scenario.Name, result); err != nil {
			sr.Pass = false
			sr.Errors = append(sr.Errors, "golden update: "+err.Error())
			return sr
		}
		sr.Golden = GoldenUpdated
		return sr
	}

	match, err := CompareGolden(goldenPath, scenario.Name, result)
	switch {
	case errors.IsNotFound(err):
		sr.Golden = GoldenAbsent
	case err != nil:
		sr.Pass = false
		sr.Errors = append(sr.Errors, "golden comparison: "+err.Error())
	case !match:
		sr.Golden = GoldenMismatch
		sr.Pass = false
		sr.Errors = append(sr.Errors, "trace does not match golden file (run with --update to regenerate)")
	default:
		sr.Golden = GoldenMatched
	}
	return sr
}
