package emit

import "fmt"

// Diagnostic codes. W-codes degrade output but keep it usable; E-codes mean
// an entity was not delivered.
const (
	CodeUnnamedEntity   = "W001"
	CodeUnnamedMember   = "W002"
	CodeUnmappedType    = "W003"
	CodeBitmaskOverflow = "W004"
	CodeAliasDepth      = "W005"
	CodePathCollision   = "E201"
	CodeSinkWrite       = "E202"
)

// Severity grades a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Diagnostic is one finding reported during a run.
type Diagnostic struct {
	Code     string   `json:"code"`
	Severity Severity `json:"-"`
	Level    string   `json:"severity"`
	Entity   string   `json:"entity,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Entity == "" {
		return fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return fmt.Sprintf("%s %s: %s", d.Code, d.Entity, d.Message)
}

// Diagnostics accumulates findings for a run. Identical findings are recorded
// once, so a member whose type is unmapped in its declaration, encode and
// decode counts as a single warning.
type Diagnostics struct {
	list []Diagnostic
	seen map[Diagnostic]bool
}

func (d *Diagnostics) add(sev Severity, code, entity, format string, args []any) {
	diag := Diagnostic{
		Code:     code,
		Severity: sev,
		Level:    sev.String(),
		Entity:   entity,
		Message:  fmt.Sprintf(format, args...),
	}
	if d.seen == nil {
		d.seen = make(map[Diagnostic]bool)
	}
	if d.seen[diag] {
		return
	}
	d.seen[diag] = true
	d.list = append(d.list, diag)
}

// Infof records an informational note.
func (d *Diagnostics) Infof(code, entity, format string, args ...any) {
	d.add(SeverityInfo, code, entity, format, args)
}

// Warnf records a warning.
func (d *Diagnostics) Warnf(code, entity, format string, args ...any) {
	d.add(SeverityWarning, code, entity, format, args)
}

// Errorf records an error.
func (d *Diagnostics) Errorf(code, entity, format string, args ...any) {
	d.add(SeverityError, code, entity, format, args)
}

// List returns the findings in the order they were reported.
func (d *Diagnostics) List() []Diagnostic {
	return d.list
}

// Count returns how many findings have the given severity.
func (d *Diagnostics) Count(sev Severity) int {
	n := 0
	for _, diag := range d.list {
		if diag.Severity == sev {
			n++
		}
	}
	return n
}

// Warnings returns the warning count.
func (d *Diagnostics) Warnings() int { return d.Count(SeverityWarning) }

// Errors returns the error count.
func (d *Diagnostics) Errors() int { return d.Count(SeverityError) }
