package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/idlbind/internal/config"
	"github.com/roach88/idlbind/internal/errors"
	"github.com/roach88/idlbind/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	ConfigFlags
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded generation runs",
		Long: `List the generation runs recorded in the manifest, newest first. With a
run ID, show what that run added, changed and removed compared with the
previous run into the same output directory.

Examples:
  idlbind history --manifest .idlbind.db
  idlbind history --limit 5
  idlbind history 0192f4c1-8b7e-7c3a-9d1e-2f6a5b4c3d2e --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runHistory(opts, runID, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")
	opts.ConfigFlags.register(cmd)

	return cmd
}

// openManifest resolves the manifest path from flags and configuration and
// opens it. keys are bound on top of the manifest flag.
func openManifest(cmd *cobra.Command, flags ConfigFlags, keys map[string]string) (*store.Store, *config.Config, error) {
	bound := map[string]string{config.KeyManifest: "manifest"}
	for k, v := range keys {
		bound[k] = v
	}
	loader, err := loadConfig(cmd, flags.Config, bound)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Manifest == "" {
		return nil, nil, errors.WithHint(
			errors.NewNotFoundf("no manifest configured"),
			"pass --manifest or set manifest in "+config.FileName)
	}
	st, err := store.Open(cfg.Manifest)
	if err != nil {
		return nil, nil, err
	}
	return st, cfg, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func runHistory(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, _, err := openManifest(cmd, opts.ConfigFlags, nil)
	if err != nil {
		return formatter.fail(ErrCodeManifest, err.Error())
	}
	defer st.Close()
	ctx := commandContext(cmd)

	if runID != "" {
		diff, err := st.DiffRun(ctx, runID)
		if errors.IsNotFound(err) {
			return formatter.fail(ErrCodeNotFound, err.Error())
		}
		if err != nil {
			return formatter.fail(ErrCodeManifest, err.Error())
		}
		if formatter.JSON() {
			return formatter.Success(diff)
		}
		writeRunDiff(formatter, diff)
		return nil
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return formatter.fail(ErrCodeManifest, err.Error())
	}
	if formatter.JSON() {
		return formatter.Success(runs)
	}
	writeRuns(formatter, runs)
	return nil
}

func writeRuns(formatter *OutputFormatter, runs []store.Run) {
	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%-5s %-36s %-20s %6s %6s %8s  %s",
		"SEQ", "RUN", "STARTED", "UNITS", "ERRORS", "WARNINGS", "OUTPUT")))
	for _, r := range runs {
		line := fmt.Sprintf("%-5d %-36s %-20s %6d %6d %8d  %s",
			r.Seq, r.ID, r.StartedAt.Local().Format(time.DateTime), r.Units, r.Errors, r.Warnings, r.OutputDir)
		if r.Errors > 0 {
			line = failStyle.Render(line)
		}
		fmt.Fprintln(w, line)
	}
}

func writeRunDiff(formatter *OutputFormatter, diff *store.RunDiff) {
	w := formatter.Writer
	r := diff.Run
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render("Run"), r.ID)
	fmt.Fprintf(w, "  seq %d, %s, %s\n", r.Seq, r.StartedAt.Local().Format(time.DateTime), r.Duration)
	fmt.Fprintf(w, "  %s -> %s\n", r.Source, r.OutputDir)
	fmt.Fprintf(w, "  %d unit(s), %d error(s), %d warning(s)\n", r.Units, r.Errors, r.Warnings)
	if diff.Previous == nil {
		fmt.Fprintln(w, dimStyle.Render("  first run into this directory"))
	} else {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  compared with %s (seq %d)", diff.Previous.ID, diff.Previous.Seq)))
	}
	fmt.Fprintln(w)
	for _, p := range diff.Added {
		fmt.Fprintf(w, "  %s %s\n", okStyle.Render("+"), p)
	}
	for _, p := range diff.Changed {
		fmt.Fprintf(w, "  %s %s\n", warnStyle.Render("~"), p)
	}
	for _, p := range diff.Removed {
		fmt.Fprintf(w, "  %s %s\n", failStyle.Render("-"), p)
	}
	fmt.Fprintf(w, "\n%d added, %d changed, %d removed, %d unchanged\n",
		len(diff.Added), len(diff.Changed), len(diff.Removed), diff.Same)
}
