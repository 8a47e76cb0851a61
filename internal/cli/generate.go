package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/idlbind/internal/config"
	"github.com/roach88/idlbind/internal/emit"
	"github.com/roach88/idlbind/internal/generator"
	"github.com/roach88/idlbind/internal/logger"
	"github.com/roach88/idlbind/internal/output"
	"github.com/roach88/idlbind/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	ConfigFlags
	Output  string
	Prefix  string
	Arrays  bool
	NoCodec bool
	Records bool
	DryRun  bool
	Watch   bool

	// IDGenerator overrides run IDs (for testing). Defaults to UUIDv7.
	IDGenerator generator.IDGenerator
}

// generateFlagKeys maps configuration keys to the generate flags that override them.
var generateFlagKeys = map[string]string{
	config.KeyOutputDirectory: "output",
	config.KeyNamespacePrefix: "prefix",
	config.KeyDisableCodec:    "no-codec",
	config.KeyCompactForm:     "records",
	config.KeyManifest:        "manifest",
}

// watchDebounce collapses the bursts of events editors produce on save.
const watchDebounce = 200 * time.Millisecond

// GenerateReport is the outcome of one generation run.
type GenerateReport struct {
	*generator.Result
	OutputDir string   `json:"output_dir"`
	DryRun    bool     `json:"dry_run,omitempty"`
	Written   int      `json:"written"`
	Unchanged int      `json:"unchanged"`
	Seq       int64    `json:"manifest_seq,omitempty"`
	Stale     []string `json:"stale,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return newGenerateCommand(&GenerateOptions{RootOptions: rootOpts})
}

func newGenerateCommand(opts *GenerateOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <tree>",
		Short: "Generate Java sources from a type tree",
		Long: `Generate one Java source file per declaration of a type tree, plus the
runtime support types the generated code uses.

Settings come from idlbind.toml, IDLBIND_* environment variables and flags,
in increasing precedence. With a manifest configured every run is recorded so
stale files can be found later with 'idlbind clean'.

Exit codes:
  0 - Generation finished without errors
  1 - Generation finished with errors (path collisions, write failures)
  2 - Command error (invalid tree, bad configuration, etc.)

Examples:
  idlbind generate shapes.cue -o src/main/java
  idlbind generate shapes.yaml --prefix com.acme --records
  idlbind generate shapes.yaml --dry-run --format json
  idlbind generate shapes.cue --watch`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output directory (default \".\")")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "namespace prefix prepended to every package")
	cmd.Flags().BoolVar(&opts.Arrays, "arrays", false, "map sequences to arrays instead of java.util.List")
	cmd.Flags().BoolVar(&opts.NoCodec, "no-codec", false, "omit encode/decode methods and WireBuffer")
	cmd.Flags().BoolVar(&opts.Records, "records", false, "emit structs as records")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "generate without writing files or recording the run")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "regenerate whenever the tree document changes")
	opts.ConfigFlags.register(cmd)

	return cmd
}

func runGenerate(opts *GenerateOptions, treePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loader, err := loadConfig(cmd, opts.Config, generateFlagKeys)
	if err != nil {
		return formatter.fail(ErrCodeConfig, err.Error())
	}
	if cmd.Flags().Changed("arrays") {
		loader.Set(config.KeyUseCollections, !opts.Arrays)
	}
	cfg, err := loader.Load()
	if err != nil {
		return formatter.fail(ErrCodeConfig, err.Error())
	}
	if cfg.File != "" {
		formatter.VerboseLog("Using configuration %s", cfg.File)
	}

	log, err := newLogger(cmd, cfg, opts.Verbose)
	if err != nil {
		return formatter.fail(ErrCodeConfig, err.Error())
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	err = generateOnce(ctx, formatter, opts, cfg, log, treePath)
	if !opts.Watch {
		return err
	}

	if !formatter.JSON() {
		fmt.Fprintln(formatter.Writer, dimStyle.Render("Watching "+treePath+" for changes. Press Ctrl-C to stop."))
	}
	return watchTree(ctx, treePath, log, func() {
		// Errors were already reported; keep watching.
		_ = generateOnce(ctx, formatter, opts, cfg, log, treePath)
	})
}

// generateOnce runs one generation pass and reports it.
func generateOnce(ctx context.Context, formatter *OutputFormatter, opts *GenerateOptions, cfg *config.Config, log *zap.Logger, treePath string) error {
	started := time.Now()

	compiled, errs := LoadTree(treePath, LoadModeCollectAll)
	if len(errs) > 0 {
		return outputLoadErrors(formatter, errs, ExitCommandError)
	}
	for _, note := range compiled.Cycles {
		formatter.VerboseLog("%s: %s", note.Level, note.Message)
	}

	var (
		sink     generator.UnitSink
		fileSink *output.FileSink
	)
	if opts.DryRun {
		sink = output.NewMemorySink()
	} else {
		fileSink = output.NewFileSink(cfg.OutputDirectory)
		sink = fileSink
	}

	gen := generator.New(cfg.EmitOptions(),
		generator.WithLogger(log),
		generator.WithIDGenerator(opts.IDGenerator),
	)
	result := gen.Run(compiled.Tree, sink)

	report := GenerateReport{
		Result:    result,
		OutputDir: cfg.OutputDirectory,
		DryRun:    opts.DryRun,
	}
	if fileSink != nil {
		report.Written = fileSink.Written
		report.Unchanged = fileSink.Unchanged
	}

	if cfg.Manifest != "" && !opts.DryRun {
		seq, stale, err := recordRun(ctx, cfg.Manifest, treePath, cfg.OutputDirectory, result, started)
		if err != nil {
			return formatter.fail(ErrCodeManifest, err.Error())
		}
		report.Seq = seq
		report.Stale = stale
		log.Info("run recorded",
			zap.String(logger.FieldRunID, result.RunID),
			zap.Int64("seq", seq),
			zap.Int("stale", len(stale)),
		)
	}

	if err := outputGenerate(formatter, report); err != nil {
		return err
	}
	if !result.OK() {
		return reportedExitError(ExitFailure, fmt.Sprintf("generation finished with %d error(s)", result.Errors))
	}
	return nil
}

// recordRun stores result in the manifest and returns its seq together with
// the files earlier runs left in the same output directory.
func recordRun(ctx context.Context, manifest, treePath, outputDir string, result *generator.Result, started time.Time) (int64, []string, error) {
	st, err := store.Open(manifest)
	if err != nil {
		return 0, nil, err
	}
	defer st.Close()

	source, err := os.ReadFile(treePath)
	if err != nil {
		return 0, nil, err
	}
	run, units, err := store.NewRun(result, source, outputDir, started)
	if err != nil {
		return 0, nil, err
	}
	seq, err := st.RecordRun(ctx, run, units)
	if err != nil {
		return 0, nil, err
	}
	stale, err := st.StaleUnits(ctx, run.OutputDir)
	if err != nil {
		return 0, nil, err
	}
	return seq, stale, nil
}

func outputGenerate(formatter *OutputFormatter, report GenerateReport) error {
	if formatter.JSON() {
		if !report.OK() {
			first := firstError(report.Diagnostics)
			return formatter.Failure(report, first.Code, first.Message)
		}
		return formatter.Success(report)
	}

	w := formatter.Writer
	res := report.Result
	verb := "Generated"
	if report.DryRun {
		verb = "Would generate"
	}
	fmt.Fprintf(w, "%s %s %d unit(s) into %s", mark(res.OK()), verb, res.Counts.Total(), report.OutputDir)
	if !report.DryRun {
		fmt.Fprintf(w, " (%d written, %d unchanged)", report.Written, report.Unchanged)
	}
	fmt.Fprintln(w)

	c := res.Counts
	fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("  structs %d, unions %d, enums %d, bitmasks %d, typedefs %d, runtime %d",
		c.Structs, c.Unions, c.Enums, c.Bitmasks, c.Typedefs, c.Runtime)))

	if report.DryRun || formatter.Verbose {
		for _, u := range res.Units {
			fmt.Fprintf(w, "  %s\n", u.Path)
		}
	}

	if len(res.Diagnostics) > 0 {
		fmt.Fprintln(w)
		for _, d := range res.Diagnostics {
			fmt.Fprintf(w, "  %s\n", diagnosticLine(d))
		}
	}
	if res.Errors > 0 || res.Warnings > 0 {
		fmt.Fprintf(w, "\n%d error(s), %d warning(s)\n", res.Errors, res.Warnings)
	}

	if report.Seq > 0 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("Run %s recorded (seq %d)", res.RunID, report.Seq)))
	}
	if len(report.Stale) > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d stale file(s) from earlier runs; run 'idlbind clean' to remove them", len(report.Stale))))
	}
	return nil
}

// diagnosticLine renders a diagnostic with its code styled by severity.
func diagnosticLine(d emit.Diagnostic) string {
	style := dimStyle
	switch d.Severity {
	case emit.SeverityError:
		style = failStyle
	case emit.SeverityWarning:
		style = warnStyle
	}
	if d.Entity == "" {
		return fmt.Sprintf("%s %s", style.Render(d.Code), d.Message)
	}
	return fmt.Sprintf("%s %s: %s", style.Render(d.Code), d.Entity, d.Message)
}

func firstError(diags []emit.Diagnostic) emit.Diagnostic {
	for _, d := range diags {
		if d.Severity == emit.SeverityError {
			return d
		}
	}
	return emit.Diagnostic{Code: ErrCodeGeneric, Message: "generation failed"}
}

// watchTree calls regenerate after the tree document changes, until ctx is
// done. The directory is watched rather than the file so editors that save by
// renaming a temporary file are still seen.
func watchTree(ctx context.Context, treePath string, log *zap.Logger, regenerate func()) error {
	target, err := filepath.Abs(treePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolve tree path", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return WrapExitError(ExitCommandError, "create file watcher", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return WrapExitError(ExitCommandError, "watch "+filepath.Dir(target), err)
	}

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debug("tree changed", zap.String(logger.FieldSource, event.Name), zap.String("op", event.Op.String()))
			debounce.Reset(watchDebounce)

		case <-debounce.C:
			regenerate()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("file watcher error", zap.Error(err))
		}
	}
}
