package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/idlbind/internal/harness"
	"github.com/roach88/idlbind/internal/logger"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run generation scenarios",
		Long: `Run generation scenarios using the harness framework.

Each scenario names a tree document and the options to generate it with,
wire test vectors to encode, and assertions over the emitted units and
diagnostics. A scenario with a golden file in golden/ next to it must also
reproduce that trace exactly.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  idlbind test ./scenarios
  idlbind test ./scenarios --filter "shapes_*"
  idlbind test ./scenarios --update
  idlbind test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	// Validate directories
	info, err := os.Stat(scenariosDir)
	if os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}
	if err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("not a directory: %s", scenariosDir))
	}

	log := logger.Nop()
	if opts.Verbose {
		if log, err = logger.New(logger.Options{Level: "debug", Output: cmd.ErrOrStderr()}); err != nil {
			return WrapExitError(ExitCommandError, "create logger", err)
		}
	}

	result, err := harness.RunSuite(scenariosDir, harness.SuiteOptions{
		Filter: opts.Filter,
		Update: opts.Update,
		Logger: log,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	// Output results
	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, result *harness.SuiteResult) error {
	formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	if result.Failed > 0 {
		message := fmt.Sprintf("%d scenario(s) failed", result.Failed)
		if err := formatter.Failure(result, "E_TEST_FAILED", message); err != nil {
			return err
		}
		// Test failures = exit code 1
		return reportedExitError(ExitFailure, message)
	}
	return formatter.Success(result)
}

// outputTestText outputs the test result as text.
func outputTestText(cmd *cobra.Command, result *harness.SuiteResult) error {
	w := cmd.OutOrStdout()

	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	for _, sr := range result.Scenarios {
		line := fmt.Sprintf("%s %s", mark(sr.Pass), sr.Name)
		switch sr.Golden {
		case harness.GoldenUpdated:
			line += dimStyle.Render(" (golden updated)")
		case harness.GoldenMatched:
			line += dimStyle.Render(" (golden matched)")
		}
		fmt.Fprintln(w, line)
		if !sr.Pass {
			for _, e := range sr.Errors {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return reportedExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, okStyle.Render("✓ All scenarios passed"))
	return nil
}
