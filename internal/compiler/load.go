package compiler

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/idlbind/internal/errors"
)

//go:embed schema.cue
var schemaSource string

// LoadFile reads a document, choosing the format from the file extension:
// .cue, or .yaml/.yml/.json.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUE(data, path)
	case ".yaml", ".yml", ".json":
		return LoadYAML(data, path)
	}
	return nil, errors.WithHint(
		errors.NewInvalidInputf("unsupported document format %q", filepath.Ext(path)),
		"use a .cue, .yaml, .yml or .json file")
}

// LoadYAML decodes a YAML or JSON document. Unknown fields are rejected.
func LoadYAML(data []byte, filename string) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, fmt.Sprintf("%s: %v", filename, err))
	}
	return &doc, nil
}

// LoadCUE evaluates a CUE document, checks it against the embedded schema and
// decodes it. Uses the CUE Go API directly.
//
// The document's top level is the Document itself:
//
//	ir_version: "1.0.0"
//	definitions: [{kind: "module", name: "shapes", definitions: [...]}]
func LoadCUE(data []byte, filename string) (*Document, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, errors.Wrap(err, "embedded schema")
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	v = schema.LookupPath(cue.ParsePath("#Document")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var doc Document
	if err := v.Decode(&doc); err != nil {
		return nil, formatCUEError(err)
	}
	return &doc, nil
}

// CompileError is a document error with a source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e *CompileError) Unwrap() error {
	return errors.ErrInvalidInput
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}

	// Return first error with position info
	first := errs[0]
	field := "cue"
	if path := cueerrors.Path(first); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	positions := cueerrors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   field,
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return &CompileError{Field: field, Message: first.Error()}
}
