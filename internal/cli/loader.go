package cli

import (
	"fmt"
	"io/fs"
	"os"

	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/idlbind/internal/compiler"
	"github.com/roach88/idlbind/internal/config"
	"github.com/roach88/idlbind/internal/errors"
	"github.com/roach88/idlbind/internal/logger"
)

// LoadMode controls how errors are handled during tree loading.
type LoadMode int

const (
	// LoadModeFailFast reports only the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll reports every error.
	LoadModeCollectAll
)

// LoadError represents an error that occurred before a tree could be built.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants for failures outside the tree itself. Tree validation
// errors carry the compiler's own codes (E101 and up).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeLoadFailed  = "E004" // Document could not be decoded
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeConfig      = "E008" // Configuration could not be loaded
	ErrCodeManifest    = "E009" // Manifest could not be opened or queried
	ErrCodeValue       = "E010" // Encode/decode input rejected
)

// LoadTree reads, builds and validates the tree document at path. The result
// is nil when the document could not be decoded. In fail-fast mode only the
// first error is returned.
func LoadTree(path string, mode LoadMode) (*compiler.Result, []error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("tree document not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing tree document: %v", err)}}
	}
	if info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s is a directory, not a tree document", path)}}
	}

	res, err := compiler.Compile(path)
	if err != nil {
		return nil, []error{convertCompileError(err)}
	}

	errs := make([]error, 0, len(res.Errors))
	for _, ve := range res.Errors {
		errs = append(errs, ve)
		if mode == LoadModeFailFast {
			break
		}
	}
	return res, errs
}

// convertCompileError converts a compiler load error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeLoadFailed,
			Message: fmt.Sprintf("%s: %s", compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	if errors.IsInvalidInput(err) {
		return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// parseLoadError extracts error code and message from an error returned by LoadTree.
func parseLoadError(err error) (string, string) {
	var ve compiler.ValidationError
	if errors.As(err, &ve) {
		return ve.Code, fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// mustLoadTree loads a tree for commands that cannot proceed with an invalid
// one. Every error is reported through formatter and the returned error
// carries exit code 2.
func mustLoadTree(formatter *OutputFormatter, path string) (*compiler.Result, error) {
	res, errs := LoadTree(path, LoadModeCollectAll)
	if len(errs) == 0 {
		return res, nil
	}
	return nil, outputLoadErrors(formatter, errs, ExitCommandError)
}

// outputLoadErrors reports load or validation errors and returns an ExitError
// with the given code.
func outputLoadErrors(formatter *OutputFormatter, errs []error, exitCode int) error {
	details := make([]CLIError, len(errs))
	for i, err := range errs {
		code, message := parseLoadError(err)
		details[i] = CLIError{Code: code, Message: message}
	}
	summary := fmt.Sprintf("tree has %d error(s)", len(errs))

	if formatter.JSON() {
		if err := formatter.Failure(details, details[0].Code, details[0].Message); err != nil {
			return err
		}
		return reportedExitError(exitCode, summary)
	}

	fmt.Fprintf(formatter.Writer, "%s Tree is invalid\n\n", mark(false))
	for _, err := range errs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintln(formatter.Writer, dimStyle.Render(fmt.Sprintf("%s:%d:%d",
				loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())))
		}
		code, message := parseLoadError(err)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", failStyle.Render(code), message)
	}
	fmt.Fprintln(formatter.Writer)
	return reportedExitError(exitCode, summary)
}

// ConfigFlags are the flags that locate and override the configuration.
type ConfigFlags struct {
	Config   string
	Manifest string
}

func (c *ConfigFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.Config, "config", "", "configuration file (default: "+config.FileName+" searched upward)")
	cmd.Flags().StringVar(&c.Manifest, "manifest", "", "SQLite manifest recording generation runs")
}

// loadConfig resolves the configuration for cmd. keys maps configuration keys
// to the command's flag names; set flags override every other source.
func loadConfig(cmd *cobra.Command, file string, keys map[string]string) (*config.Loader, error) {
	l, err := config.NewLoader(file, "")
	if err != nil {
		return nil, err
	}
	if err := l.BindFlags(cmd.Flags(), keys); err != nil {
		return nil, err
	}
	return l, nil
}

// newLogger builds the driver logger from cfg. --verbose lowers the level to
// debug.
func newLogger(cmd *cobra.Command, cfg *config.Config, verbose bool) (*zap.Logger, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logger.New(logger.Options{
		Level:  level,
		JSON:   cfg.LogJSON,
		Output: cmd.ErrOrStderr(),
	})
}
