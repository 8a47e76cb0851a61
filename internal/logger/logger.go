// Package logger builds the zap loggers used by the generator driver and CLI.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/idlbind/internal/errors"
)

// Standard field names for structured logging.
const (
	FieldEntity    = "entity"
	FieldKind      = "kind"
	FieldNamespace = "namespace"
	FieldPath      = "path"
	FieldCode      = "code"
	FieldSource    = "source"
	FieldRunID     = "run_id"
	FieldCount     = "count"
	FieldErrors    = "errors"
	FieldWarnings  = "warnings"
)

// Options controls logger construction.
type Options struct {
	Level  string    // debug|info|warn|error
	JSON   bool      // JSON encoder instead of console
	Output io.Writer // defaults to os.Stderr
}

// New builds a logger. Logs go to stderr by default so generated listings and
// JSON command output on stdout stay clean.
func New(opts Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", opts.Level)
		}
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var encoder zapcore.Encoder
	if opts.JSON {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.CallerKey = ""
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(out), level)
	return zap.New(core), nil
}

// Nop returns a logger that discards everything. Used by tests and library callers
// that don't care about driver logs.
func Nop() *zap.Logger {
	return zap.NewNop()
}
