package harness

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/roach88/idlbind/internal/compiler"
	"github.com/roach88/idlbind/internal/emit"
	"github.com/roach88/idlbind/internal/errors"
	"github.com/roach88/idlbind/internal/generator"
	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/output"
	"github.com/roach88/idlbind/internal/testutil"
	"github.com/roach88/idlbind/internal/wire"
)

// RunID is the fixed run identifier used for every scenario.
const RunID = "harness-run"

// Harness executes one scenario.
type Harness struct {
	scenario *Scenario
	logger   *zap.Logger
	result   *Result
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Compile the tree document; validation errors and cycle notes go to the trace
// 2. Generate into an in-memory sink, unless compilation failed
// 3. Encode, decode and re-encode every vector
// 4. Evaluate assertions
//
// An error is returned only when the scenario cannot run at all, such as an
// unreadable tree document.
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, zap.NewNop())
}

// RunWithLogger is Run with generator logging sent to logger.
func RunWithLogger(scenario *Scenario, logger *zap.Logger) (*Result, error) {
	h := &Harness{scenario: scenario, logger: logger, result: NewResult()}

	compiled, err := compiler.Compile(scenario.Tree)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", scenario.Name)
	}
	for _, ve := range compiled.Errors {
		h.result.AddDiagnosticTrace(ve.Code, emit.SeverityError.String(), ve.Field, ve.Message)
	}
	for _, note := range compiled.Cycles {
		h.result.AddCycleTrace(note.Level, note.Message)
	}

	if compiled.OK() {
		h.generate(compiled.Tree)
		h.executeVectors(compiled.Tree)
	} else if len(scenario.Vectors) > 0 {
		h.result.AddError("vectors skipped: the tree did not compile")
	}

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func (h *Harness) generate(tree *ir.Tree) {
	gen := generator.New(h.scenario.Options.Emit(),
		generator.WithLogger(h.logger),
		generator.WithIDGenerator(testutil.NewFixedIDGenerator(RunID)),
	)
	sink := output.NewMemorySink()
	res := gen.Run(tree, sink)

	h.result.Units = sink.Units()
	for _, u := range h.result.Units {
		h.result.AddUnitTrace(u)
	}
	for _, d := range res.Diagnostics {
		h.result.AddDiagnosticTrace(d.Code, d.Level, d.Entity, d.Message)
	}
}

// executeVectors checks each vector against the reference codec. Encoding
// failures are expected only when the vector says so.
func (h *Harness) executeVectors(tree *ir.Tree) {
	for i, v := range h.scenario.Vectors {
		label := fmt.Sprintf("vectors[%d] %s", i, v.Type)
		encoded, err := h.executeVector(tree, v)
		switch {
		case err != nil && v.Error != "":
			h.result.AddVectorTrace(v.Type, "", err.Error())
			if !strings.Contains(err.Error(), v.Error) {
				h.result.AddError(fmt.Sprintf("%s: error %q does not contain %q", label, err.Error(), v.Error))
			}
		case err != nil:
			h.result.AddVectorTrace(v.Type, "", err.Error())
			h.result.AddError(fmt.Sprintf("%s: %v", label, err))
		case v.Error != "":
			h.result.AddVectorTrace(v.Type, encoded, "")
			h.result.AddError(fmt.Sprintf("%s: expected error containing %q, encoded %s", label, v.Error, encoded))
		default:
			h.result.AddVectorTrace(v.Type, encoded, "")
			if want := NormalizeHex(v.Hex); want != "" && want != encoded {
				h.result.AddError(fmt.Sprintf("%s: encoded %s, want %s", label, encoded, want))
			}
		}
	}
}

// executeVector returns the hex encoding of v after checking the decode and
// re-encode round trip.
func (h *Harness) executeVector(tree *ir.Tree, v Vector) (string, error) {
	t, err := ResolveType(tree, v.Type)
	if err != nil {
		return "", err
	}
	value, err := ir.FromGo(v.Value)
	if err != nil {
		return "", errors.Wrap(errors.ErrInvalidInput, "value: "+err.Error())
	}
	data, err := wire.Encode(t, value)
	if err != nil {
		return "", err
	}
	encoded := hex.EncodeToString(data)

	decoded, err := wire.Decode(t, data)
	if err != nil {
		return encoded, errors.Wrap(err, "decode")
	}
	again, err := wire.Encode(t, decoded)
	if err != nil {
		return encoded, errors.Wrap(err, "re-encode")
	}
	if !bytes.Equal(data, again) {
		return encoded, errors.Newf("round trip changed the encoding: %s then %s", encoded, hex.EncodeToString(again))
	}
	if v.Decoded != nil {
		want, err := ir.FromGo(v.Decoded)
		if err != nil {
			return encoded, errors.Wrap(errors.ErrInvalidInput, "decoded: "+err.Error())
		}
		if !ir.Equal(want, decoded) {
			got, _ := ir.MarshalIRValue(decoded)
			return encoded, errors.Newf("decoded %s does not match expected value", got)
		}
	}
	return encoded, nil
}

// ResolveType finds the declaration named by a scoped name from the tree root
// and returns its reference type.
func ResolveType(tree *ir.Tree, name string) (ir.Type, error) {
	def := ir.Lookup(tree.Root, name)
	if def == nil {
		return nil, errors.NewNotFoundf("type %s", name)
	}
	t := ir.RefTo(def)
	if t == nil {
		return nil, errors.NewInvalidInputf("%s is a %s, not a type", name, def.Kind())
	}
	return t, nil
}

// NormalizeHex lowercases s and strips whitespace, so vectors can group bytes.
func NormalizeHex(s string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}
