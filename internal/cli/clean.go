package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/idlbind/internal/config"
	"github.com/roach88/idlbind/internal/errors"
	"github.com/roach88/idlbind/internal/output"
)

// CleanOptions holds flags for the clean command.
type CleanOptions struct {
	*RootOptions
	ConfigFlags
	Output string
	DryRun bool
	Keep   int
}

// CleanResult reports what clean removed.
type CleanResult struct {
	OutputDir string   `json:"output_dir"`
	Removed   []string `json:"removed"`
	DryRun    bool     `json:"dry_run,omitempty"`
	Pruned    int64    `json:"pruned_runs,omitempty"`
}

// NewCleanCommand creates the clean command.
func NewCleanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CleanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete generated files the latest run no longer produces",
		Long: `Delete files that earlier runs generated into the output directory but the
latest run did not, then forget them in the manifest. Directories left empty
are removed too.

Examples:
  idlbind clean --manifest .idlbind.db -o src/main/java
  idlbind clean --dry-run
  idlbind clean --keep 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (default from configuration)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "list stale files without deleting them")
	cmd.Flags().IntVar(&opts.Keep, "keep", 0, "also drop all but the newest N runs into the directory from the manifest")
	opts.ConfigFlags.register(cmd)

	return cmd
}

func runClean(opts *CleanOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
	if opts.Keep < 0 {
		return formatter.fail(ErrCodeValue, fmt.Sprintf("--keep must not be negative, got %d", opts.Keep))
	}

	st, cfg, err := openManifest(cmd, opts.ConfigFlags, map[string]string{config.KeyOutputDirectory: "output"})
	if err != nil {
		return formatter.fail(ErrCodeManifest, err.Error())
	}
	defer st.Close()
	ctx := commandContext(cmd)

	result := CleanResult{OutputDir: cfg.OutputDirectory, Removed: []string{}, DryRun: opts.DryRun}

	stale, err := st.StaleUnits(ctx, cfg.OutputDirectory)
	if errors.IsNotFound(err) {
		return formatter.fail(ErrCodeNotFound, fmt.Sprintf("no runs recorded for %s", cfg.OutputDirectory))
	}
	if err != nil {
		return formatter.fail(ErrCodeManifest, err.Error())
	}

	if opts.DryRun {
		result.Removed = stale
	} else {
		sink := output.NewFileSink(cfg.OutputDirectory)
		for _, p := range stale {
			if err := sink.Remove(p); err != nil {
				return formatter.fail(ErrCodeWriteFailed, err.Error())
			}
			formatter.VerboseLog("Removed %s", p)
			result.Removed = append(result.Removed, p)
		}
		if len(result.Removed) > 0 {
			if _, err := st.ForgetUnits(ctx, cfg.OutputDirectory, result.Removed); err != nil {
				return formatter.fail(ErrCodeManifest, err.Error())
			}
		}
		if opts.Keep > 0 {
			if result.Pruned, err = st.PruneRuns(ctx, cfg.OutputDirectory, opts.Keep); err != nil {
				return formatter.fail(ErrCodeManifest, err.Error())
			}
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if len(result.Removed) == 0 {
		fmt.Fprintf(w, "%s No stale files in %s\n", mark(true), result.OutputDir)
	} else {
		verb := "Removed"
		if result.DryRun {
			verb = "Would remove"
		}
		fmt.Fprintf(w, "%s %s %d stale file(s) from %s\n", mark(true), verb, len(result.Removed), result.OutputDir)
		for _, p := range result.Removed {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	if result.Pruned > 0 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("Dropped %d old run(s) from the manifest", result.Pruned)))
	}
	return nil
}
