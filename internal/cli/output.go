package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Generation finished with errors, failed scenarios, invalid tree
	ExitCommandError = 2 // Command error (unreadable tree, bad flags, manifest unavailable, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the command already wrote the failure to its
	// output, so main does not print it again.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// reportedExitError creates an ExitError for a failure already written out.
func reportedExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message, Reported: true}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported reports whether err was already written to the command output.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// Text styles. lipgloss drops the colors when the output is not a terminal.
var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD75F"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	titleStyle = lipgloss.NewStyle().Bold(true)
	kindStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
)

// mark returns the styled pass/fail glyph.
func mark(ok bool) string {
	if ok {
		return okStyle.Render("✓")
	}
	return failStyle.Render("✗")
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
	RunID  string    `json:"run_id,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", "E102", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// JSON reports whether output is JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Failure writes a JSON response carrying both a payload and the first error.
// Text output is left to the caller.
func (f *OutputFormatter) Failure(data any, code, message string) error {
	return f.encode(CLIResponse{
		Status: "error",
		Data:   data,
		Error:  &CLIError{Code: code, Message: message},
	})
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "%s [%s]: %s\n", failStyle.Render("Error"), code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// fail reports a command error and returns it with exit code 2.
func (f *OutputFormatter) fail(code, message string) error {
	_ = f.Error(code, message, nil)
	return reportedExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
