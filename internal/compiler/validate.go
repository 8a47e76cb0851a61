package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/idlbind/internal/ir"
)

// Validation error codes (E100-E199)
const (
	ErrDuplicateName      = "E101" // two declarations, members, enumerators or bits share a name
	ErrUnresolvedType     = "E102" // type name not found in scope
	ErrAliasCycle         = "E103" // typedef reaches itself without passing through a struct or union
	ErrLabelConflict      = "E104" // label collision, second default, or label outside the discriminator range
	ErrUnknownEnumerator  = "E105" // enum-typed label names no enumerator
	ErrUnsupportedVersion = "E106" // ir_version outside the accepted range
	ErrMissingKind        = "E107" // definition without a known kind
	ErrMalformedEntry     = "E108" // unparsable type, enumerator or label
	ErrInvalidName        = "E109" // declared name is not an identifier
)

// ValidationError represents a document or tree validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a built tree. Returns all errors found (does not fail-fast).
// Field paths use scoped names, e.g. "shapes::Shape.cases[1].labels[0]".
func Validate(tree *ir.Tree) []ValidationError {
	if tree == nil || tree.Root == nil {
		return nil
	}
	var errs []ValidationError
	validateScope(tree.Root, &errs)
	tree.Walk(func(def ir.Definition) bool {
		switch d := def.(type) {
		case *ir.Module:
			validateScope(d, &errs)
		case *ir.Struct:
			validateMembers(d, d.Members, "members", &errs)
		case *ir.Union:
			validateUnion(d, &errs)
		case *ir.Enum:
			names := make([]string, len(d.Enumerators))
			for i, en := range d.Enumerators {
				names[i] = en.Name
			}
			validateUnique(label(d), "enumerators", "enumerator", names, &errs)
		case *ir.Bitmask:
			validateUnique(label(d), "bits", "bit", d.Bits, &errs)
		}
		return true
	})
	errs = append(errs, aliasCycles(tree)...)
	return errs
}

func label(def ir.Definition) string {
	if def.Name() == "" {
		return "<anonymous " + def.Kind().String() + ">"
	}
	return ir.ScopedName(def.Declaration())
}

// validateScope reports declarations sharing a name within one module.
// Modules may repeat; they are reopened rather than redeclared.
func validateScope(m *ir.Module, errs *[]ValidationError) {
	seen := make(map[string]ir.Kind)
	for _, def := range m.Definitions {
		name := def.Name()
		if name == "" {
			continue
		}
		if !isIdentifier(name) {
			*errs = append(*errs, invalidName(label(def), def.Kind().String(), name))
		}
		prev, dup := seen[name]
		if dup && !(prev == ir.KindModule && def.Kind() == ir.KindModule) {
			*errs = append(*errs, ValidationError{
				Field:   label(def),
				Message: fmt.Sprintf("%s %q already declared as %s in this scope", def.Kind(), name, prev),
				Code:    ErrDuplicateName,
			})
			continue
		}
		seen[name] = def.Kind()
	}
}

func validateMembers(def ir.Definition, members []*ir.Member, path string, errs *[]ValidationError) {
	validateUnique(label(def), path, "member", memberNames(members), errs)
}

func validateUnique(owner, path, what string, names []string, errs *[]ValidationError) {
	seen := make(map[string]bool)
	for i, name := range names {
		if name == "" {
			continue
		}
		if !isIdentifier(name) {
			*errs = append(*errs, invalidName(fmt.Sprintf("%s.%s[%d]", owner, path, i), what, name))
		}
		if seen[name] {
			*errs = append(*errs, ValidationError{
				Field:   fmt.Sprintf("%s.%s[%d]", owner, path, i),
				Message: fmt.Sprintf("duplicate %s name: %q", what, name),
				Code:    ErrDuplicateName,
			})
		}
		seen[name] = true
	}
}

func invalidName(field, what, name string) ValidationError {
	return ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%s name %q is not an identifier", what, name),
		Code:    ErrInvalidName,
	}
}

func validateUnion(u *ir.Union, errs *[]ValidationError) {
	owner := label(u)
	members := make([]*ir.Member, len(u.Cases))
	for i, c := range u.Cases {
		members[i] = c.Member
	}
	validateUnique(owner, "cases", "case member", memberNames(members), errs)

	width := ir.DiscriminantWidth(u.Discriminant)
	boolean := isBool(u.Discriminant)
	taken := make(map[int64]int)
	defaults := 0
	for i, c := range u.Cases {
		if c.IsDefault {
			defaults++
			if defaults > 1 {
				*errs = append(*errs, ValidationError{
					Field:   fmt.Sprintf("%s.cases[%d]", owner, i),
					Message: "union has more than one default case",
					Code:    ErrLabelConflict,
				})
			}
		}
		for j, l := range c.Labels {
			field := fmt.Sprintf("%s.cases[%d].labels[%d]", owner, i, j)
			if !labelFits(l, width) || (boolean && l != 0 && l != 1) {
				*errs = append(*errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("label %d does not fit a %d-byte discriminator", l, width),
					Code:    ErrLabelConflict,
				})
				continue
			}
			key := ir.Narrow(l, width)
			if prev, ok := taken[key]; ok {
				*errs = append(*errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("label %d already selects case %d", l, prev),
					Code:    ErrLabelConflict,
				})
				continue
			}
			taken[key] = i
		}
	}
}

func memberNames(members []*ir.Member) []string {
	names := make([]string, len(members))
	for i, m := range members {
		if m != nil {
			names[i] = m.Name
		}
	}
	return names
}

func isBool(t ir.Type) bool {
	term, ok := ir.Terminal(t)
	if !ok {
		return false
	}
	p, ok := term.(ir.Primitive)
	return ok && p.Kind == ir.Bool
}

// labelFits accepts both the signed and the unsigned reading of width bytes.
func labelFits(v int64, width int) bool {
	if width >= 8 {
		return true
	}
	bits := uint(8 * width)
	lo := -int64(1) << (bits - 1)
	hi := int64(1)<<bits - 1
	return v >= lo && v <= hi
}

// joinPath renders a cycle path for messages.
func joinPath(path []string) string {
	return strings.Join(path, " → ")
}
