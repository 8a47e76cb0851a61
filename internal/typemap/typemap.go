// Package typemap maps type-tree nodes to Java type names.
//
// A Mapper is a pure function of its options and input; it never looks at
// other declarations except through the references carried by the node.
package typemap

import (
	"fmt"
	"strconv"

	"github.com/roach88/idlbind/internal/ir"
)

// Fallback is the Java type used for nodes with no mapping.
const Fallback = "Object"

type scalar struct {
	unboxed string
	boxed   string
}

var scalars = map[ir.PrimitiveKind]scalar{
	ir.Bool:      {"boolean", "Boolean"},
	ir.Octet:     {"byte", "Byte"},
	ir.Char:      {"byte", "Byte"},
	ir.Short:     {"short", "Short"},
	ir.UShort:    {"char", "Character"},
	ir.Long:      {"int", "Integer"},
	ir.ULong:     {"int", "Integer"},
	ir.LongLong:  {"long", "Long"},
	ir.ULongLong: {"long", "Long"},
	ir.Float:     {"float", "Float"},
	ir.Double:    {"double", "Double"},
}

// Mapper turns ir.Type nodes into Java type expressions.
type Mapper struct {
	// UseArrays renders sequences as Java arrays instead of java.util.List.
	UseArrays bool
}

// Map returns the Java type for t. When boxed is true primitives map to their
// object counterparts, as required for generic type arguments. Sequence
// elements are always boxed in list form.
//
// The second result is false when t (or something inside it) has no mapping;
// the returned name is then Fallback and the caller should record a warning.
func (m Mapper) Map(t ir.Type, boxed bool) (string, bool) {
	switch n := t.(type) {
	case ir.Primitive:
		s, ok := scalars[n.Kind]
		if !ok {
			return Fallback, false
		}
		if boxed {
			return s.boxed, true
		}
		return s.unboxed, true
	case ir.StringType, ir.WideStringType:
		return "String", true
	case ir.Sequence:
		if m.UseArrays {
			elem, ok := m.Map(n.Elem, false)
			return elem + "[]", ok
		}
		elem, ok := m.Map(n.Elem, true)
		return "java.util.List<" + elem + ">", ok
	case ir.StructRef, ir.UnionRef, ir.EnumRef, ir.BitmaskRef, ir.TypedefRef:
		// Typedefs map to their own name; codec and defaults look past them.
		def := ir.Target(t)
		if def == nil || def.Name() == "" {
			return Fallback, false
		}
		return Identifier(def.Name()), true
	}
	return Fallback, false
}

// DefaultValue returns a Java initializer expression for a field of type t.
// Strings and sequences start absent (null). Composite references get a fresh
// instance so the generated encode never has to special-case null.
func (m Mapper) DefaultValue(t ir.Type, boxed bool) string {
	switch n := t.(type) {
	case ir.Primitive:
		if boxed {
			return "null"
		}
		switch n.Kind {
		case ir.Bool:
			return "false"
		case ir.LongLong, ir.ULongLong:
			return "0L"
		case ir.Float:
			return "0.0f"
		case ir.Double:
			return "0.0"
		default:
			return "0"
		}
	case ir.EnumRef:
		if n.Target == nil || n.Target.Ident == "" || len(n.Target.Enumerators) == 0 {
			return "null"
		}
		first := n.Target.Enumerators[0].Name
		if first == "" {
			return "null"
		}
		return Identifier(n.Target.Ident) + "." + Identifier(first)
	case ir.StructRef, ir.UnionRef, ir.BitmaskRef, ir.TypedefRef:
		name, ok := m.Map(t, false)
		if !ok {
			return "null"
		}
		return "new " + name + "()"
	}
	return "null"
}

// Describe renders t in IDL notation for listings and diagnostics.
func (m Mapper) Describe(t ir.Type) string {
	switch n := t.(type) {
	case nil:
		return "<unset>"
	case ir.Primitive:
		return n.Kind.String()
	case ir.StringType:
		return bounded("string", n.Bound)
	case ir.WideStringType:
		return bounded("wstring", n.Bound)
	case ir.Sequence:
		if n.Bound > 0 {
			return fmt.Sprintf("sequence<%s, %d>", m.Describe(n.Elem), n.Bound)
		}
		return "sequence<" + m.Describe(n.Elem) + ">"
	case ir.StructRef, ir.UnionRef, ir.EnumRef, ir.BitmaskRef, ir.TypedefRef:
		def := ir.Target(t)
		if def == nil {
			return "<unresolved>"
		}
		return def.Kind().String() + " " + ir.ScopedName(def.Declaration())
	}
	return fmt.Sprintf("<%T>", t)
}

func bounded(name string, bound int) string {
	if bound > 0 {
		return name + "<" + strconv.Itoa(bound) + ">"
	}
	return name
}

// IsArray reports whether t renders as a Java array under m.
func (m Mapper) IsArray(t ir.Type) bool {
	_, ok := t.(ir.Sequence)
	return ok && m.UseArrays
}

// IsNullable reports whether the Java value of t may legitimately be null on
// the wire, i.e. t is a string or sequence after unwrapping no aliases.
func IsNullable(t ir.Type) bool {
	switch t.(type) {
	case ir.StringType, ir.WideStringType, ir.Sequence:
		return true
	}
	return false
}
