package harness

import (
	"github.com/roach88/idlbind/internal/generator"
	"github.com/roach88/idlbind/internal/ir"
)

// Trace event types.
const (
	EventUnit       = "unit"
	EventDiagnostic = "diagnostic"
	EventCycle      = "cycle"
	EventVector     = "vector"
)

// TraceEvent is one observable outcome of a run. Only the fields relevant to
// the event's type are set.
type TraceEvent struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`

	// unit
	Path      string `json:"path,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name,omitempty"`
	Kind      string `json:"kind,omitempty"`

	// diagnostic, cycle
	Code    string `json:"code,omitempty"`
	Level   string `json:"level,omitempty"`
	Entity  string `json:"entity,omitempty"`
	Message string `json:"message,omitempty"`

	// vector
	TypeName string `json:"type_name,omitempty"`
	Hex      string `json:"hex,omitempty"`
	Error    string `json:"error,omitempty"`
}

// toIRObject drops empty fields so each event serializes only what it has.
func (e TraceEvent) toIRObject() ir.IRObject {
	obj := ir.IRObject{
		"type": ir.IRString(e.Type),
		"seq":  ir.IRInt(e.Seq),
	}
	for k, v := range map[string]string{
		"path":      e.Path,
		"namespace": e.Namespace,
		"name":      e.Name,
		"kind":      e.Kind,
		"code":      e.Code,
		"level":     e.Level,
		"entity":    e.Entity,
		"message":   e.Message,
		"type_name": e.TypeName,
		"hex":       e.Hex,
		"error":     e.Error,
	} {
		if v != "" {
			obj[k] = ir.IRString(v)
		}
	}
	return obj
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion and vector check held.
	Pass bool `json:"pass"`

	// Trace lists units, diagnostics, cycle notes and vectors in the order
	// they were observed.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Units are the emitted units, for content assertions.
	Units []*generator.Unit `json:"-"`

	seq int64
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) add(e TraceEvent) {
	r.seq++
	e.Seq = r.seq
	r.Trace = append(r.Trace, e)
}

// AddUnitTrace records an emitted unit.
func (r *Result) AddUnitTrace(u *generator.Unit) {
	kind := u.Kind.String()
	if u.Runtime {
		kind = "runtime"
	}
	r.add(TraceEvent{
		Type:      EventUnit,
		Path:      u.Path,
		Namespace: u.Namespace,
		Name:      u.Name,
		Kind:      kind,
	})
}

// AddDiagnosticTrace records a diagnostic or validation error.
func (r *Result) AddDiagnosticTrace(code, level, entity, message string) {
	r.add(TraceEvent{
		Type:    EventDiagnostic,
		Code:    code,
		Level:   level,
		Entity:  entity,
		Message: message,
	})
}

// AddCycleTrace records a reference-cycle note.
func (r *Result) AddCycleTrace(level, message string) {
	r.add(TraceEvent{Type: EventCycle, Level: level, Message: message})
}

// AddVectorTrace records the outcome of encoding one vector.
func (r *Result) AddVectorTrace(typeName, hex, errMsg string) {
	r.add(TraceEvent{Type: EventVector, TypeName: typeName, Hex: hex, Error: errMsg})
}

// Unit returns the emitted unit at path, or nil.
func (r *Result) Unit(path string) *generator.Unit {
	for _, u := range r.Units {
		if u.Path == path {
			return u
		}
	}
	return nil
}
