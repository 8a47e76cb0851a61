package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/idlbind/internal/compiler"
	"github.com/roach88/idlbind/internal/ir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidationResult is the result of validating a tree.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Cycles   []compiler.CycleNote       `json:"cycles,omitempty"`
	Entities map[string]int             `json:"entities,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <tree>",
		Short: "Validate a type tree without generating",
		Long: `Validate a type tree document: names are unique per scope, every type
reference resolves, typedef chains do not loop, and union labels are distinct
and fit the discriminator.

Reference cycles between composite types are reported as notes. They are
representable because the generated codecs delegate by method call.

Exit codes:
  0 - Tree is valid
  1 - Tree has validation errors
  2 - Document could not be read or decoded`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *ValidateOptions, treePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	res, errs := LoadTree(treePath, LoadModeCollectAll)
	if res == nil {
		return outputLoadErrors(formatter, errs, ExitCommandError)
	}

	entities := countEntities(res.Tree)
	formatter.VerboseLog("Loaded %s: %d declaration(s)", treePath, totalEntities(entities))

	if !res.OK() {
		return outputValidationErrors(formatter, res)
	}
	return outputValidateSuccess(formatter, res, entities)
}

// countEntities tallies declarations per kind. Modules are counted too.
func countEntities(tree *ir.Tree) map[string]int {
	counts := make(map[string]int)
	if tree == nil || tree.Root == nil {
		return counts
	}
	tree.Walk(func(def ir.Definition) bool {
		counts[def.Kind().String()]++
		return true
	})
	return counts
}

func totalEntities(counts map[string]int) int {
	total := 0
	for kind, n := range counts {
		if kind != ir.KindModule.String() {
			total += n
		}
	}
	return total
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, res *compiler.Result, entities map[string]int) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{
			Valid:    true,
			Cycles:   res.Cycles,
			Entities: entities,
		})
	}

	fmt.Fprintf(formatter.Writer, "%s Tree is valid: %d declaration(s) in %d module(s)\n",
		mark(true), totalEntities(entities), entities[ir.KindModule.String()])
	writeCycleNotes(formatter, res.Cycles)
	return nil
}

func writeCycleNotes(formatter *OutputFormatter, notes []compiler.CycleNote) {
	if len(notes) == 0 {
		return
	}
	fmt.Fprintln(formatter.Writer)
	for _, note := range notes {
		style := dimStyle
		if note.Level == "warning" {
			style = warnStyle
		}
		fmt.Fprintf(formatter.Writer, "  %s %s\n", style.Render(note.Level+":"), note.Message)
	}
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, res *compiler.Result) error {
	errs := res.Errors
	summary := fmt.Sprintf("validation failed with %d error(s)", len(errs))

	if formatter.JSON() {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
			Cycles: res.Cycles,
		}
		if err := formatter.Failure(result, errs[0].Code, errs[0].Message); err != nil {
			return err
		}
		// Validation failures = exit code 1
		return reportedExitError(ExitFailure, summary)
	}

	// Text format
	fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", mark(false))
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintln(formatter.Writer, dimStyle.Render(fmt.Sprintf("line %d", err.Line)))
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", failStyle.Render(err.Code), err.Field, err.Message)
	}
	writeCycleNotes(formatter, res.Cycles)

	// Validation failures = exit code 1
	return reportedExitError(ExitFailure, summary)
}

// ValidateTree validates the tree document at path.
// This is a helper function for external callers.
func ValidateTree(path string) ([]compiler.ValidationError, error) {
	res, errs := LoadTree(path, LoadModeCollectAll)
	if res == nil {
		return nil, errs[0]
	}
	return res.Errors, nil
}
