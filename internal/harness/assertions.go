package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/idlbind/internal/emit"
)

// AssertionError is returned when an assertion fails.
// It includes the emitted paths to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			switch event.Type {
			case EventUnit:
				fmt.Fprintf(&buf, "  [%d] unit %s\n", event.Seq, event.Path)
			case EventDiagnostic:
				fmt.Fprintf(&buf, "  [%d] %s %s %s\n", event.Seq, event.Code, event.Entity, event.Message)
			}
		}
	}

	return buf.String()
}

func unitPaths(trace []TraceEvent) []string {
	var paths []string
	for _, event := range trace {
		if event.Type == EventUnit {
			paths = append(paths, event.Path)
		}
	}
	return paths
}

func indexOf(paths []string, path string) int {
	for i, p := range paths {
		if p == path {
			return i
		}
	}
	return -1
}

func assertUnitExists(trace []TraceEvent, a Assertion) error {
	if indexOf(unitPaths(trace), a.Path) >= 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertUnitExists,
		Expected: fmt.Sprintf("unit %s", a.Path),
		Actual:   "not emitted",
		Trace:    trace,
	}
}

func assertUnitAbsent(trace []TraceEvent, a Assertion) error {
	if indexOf(unitPaths(trace), a.Path) < 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertUnitAbsent,
		Expected: fmt.Sprintf("no unit %s", a.Path),
		Actual:   "emitted",
		Trace:    trace,
	}
}

// assertUnitOrder checks that the listed paths were emitted in order.
// Paths don't need to be consecutive.
func assertUnitOrder(trace []TraceEvent, a Assertion) error {
	paths := unitPaths(trace)
	last := -1
	for i, p := range a.Paths {
		pos := indexOf(paths, p)
		if pos < 0 {
			return &AssertionError{
				Type:     AssertUnitOrder,
				Expected: fmt.Sprintf("all units present: %v", a.Paths),
				Actual:   fmt.Sprintf("missing unit: %s", p),
				Trace:    trace,
			}
		}
		if pos <= last {
			return &AssertionError{
				Type:     AssertUnitOrder,
				Expected: fmt.Sprintf("units in order: %v", a.Paths),
				Actual:   fmt.Sprintf("%s (pos %d) should be before %s (pos %d)", a.Paths[i-1], last+1, p, pos+1),
				Trace:    trace,
			}
		}
		last = pos
	}
	return nil
}

func assertUnitCount(trace []TraceEvent, a Assertion) error {
	count := len(unitPaths(trace))
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertUnitCount,
		Expected: fmt.Sprintf("%d units", a.Count),
		Actual:   fmt.Sprintf("%d units", count),
		Trace:    trace,
	}
}

func assertUnitContains(result *Result, a Assertion) error {
	u := result.Unit(a.Path)
	if u == nil {
		return &AssertionError{
			Type:     AssertUnitContains,
			Expected: fmt.Sprintf("unit %s containing %q", a.Path, a.Text),
			Actual:   "unit not emitted",
			Trace:    result.Trace,
		}
	}
	if strings.Contains(u.Content, a.Text) {
		return nil
	}
	return &AssertionError{
		Type:     AssertUnitContains,
		Expected: fmt.Sprintf("unit %s containing %q", a.Path, a.Text),
		Actual:   "text not found",
	}
}

func assertDiagnostic(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if event.Type != EventDiagnostic || event.Code != a.Code {
			continue
		}
		if a.Entity == "" || event.Entity == a.Entity {
			return nil
		}
	}
	expected := a.Code
	if a.Entity != "" {
		expected += " on " + a.Entity
	}
	return &AssertionError{
		Type:     AssertDiagnostic,
		Expected: "diagnostic " + expected,
		Actual:   "not reported",
		Trace:    trace,
	}
}

func assertNoErrors(trace []TraceEvent) error {
	var found []string
	for _, event := range trace {
		if event.Type == EventDiagnostic && event.Level == emit.SeverityError.String() {
			found = append(found, event.Code)
		}
		if event.Type == EventVector && event.Error != "" {
			found = append(found, "vector "+event.TypeName)
		}
	}
	if len(found) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoErrors,
		Expected: "no errors",
		Actual:   strings.Join(found, ", "),
		Trace:    trace,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertUnitExists:
			err = assertUnitExists(result.Trace, assertion)
		case AssertUnitAbsent:
			err = assertUnitAbsent(result.Trace, assertion)
		case AssertUnitOrder:
			err = assertUnitOrder(result.Trace, assertion)
		case AssertUnitCount:
			err = assertUnitCount(result.Trace, assertion)
		case AssertUnitContains:
			err = assertUnitContains(result, assertion)
		case AssertDiagnostic:
			err = assertDiagnostic(result.Trace, assertion)
		case AssertNoErrors:
			err = assertNoErrors(result.Trace)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	return failures
}
