package ir

import "fmt"

// Type is a sealed interface over the type-tree variants a member, case,
// typedef or discriminant can reference.
type Type interface {
	isType()
}

// PrimitiveKind enumerates the scalar types.
type PrimitiveKind int

const (
	Bool PrimitiveKind = iota
	Octet
	Char
	Short
	UShort
	Long
	ULong
	LongLong
	ULongLong
	Float
	Double
)

var primitiveNames = []string{
	Bool:      "boolean",
	Octet:     "octet",
	Char:      "char",
	Short:     "short",
	UShort:    "unsigned short",
	Long:      "long",
	ULong:     "unsigned long",
	LongLong:  "long long",
	ULongLong: "unsigned long long",
	Float:     "float",
	Double:    "double",
}

func (k PrimitiveKind) String() string {
	if int(k) >= 0 && int(k) < len(primitiveNames) {
		return primitiveNames[k]
	}
	return fmt.Sprintf("primitive(%d)", int(k))
}

// Width returns the encoded size in bytes.
func (k PrimitiveKind) Width() int {
	switch k {
	case Bool, Octet, Char:
		return 1
	case Short, UShort:
		return 2
	case Long, ULong, Float:
		return 4
	case LongLong, ULongLong, Double:
		return 8
	}
	return 0
}

// Primitive is a scalar type.
type Primitive struct {
	Kind PrimitiveKind
}

// StringType is a narrow string. Bound is accepted from the source and ignored.
type StringType struct {
	Bound int
}

// WideStringType is a wide string; it is encoded as UTF-8 like StringType.
type WideStringType struct {
	Bound int
}

// Sequence is a variable-length list of Elem.
type Sequence struct {
	Elem  Type
	Bound int
}

// StructRef points at a struct declaration.
type StructRef struct{ Target *Struct }

// UnionRef points at a union declaration.
type UnionRef struct{ Target *Union }

// EnumRef points at an enum declaration.
type EnumRef struct{ Target *Enum }

// BitmaskRef points at a bitmask declaration.
type BitmaskRef struct{ Target *Bitmask }

// TypedefRef points at a typedef declaration.
type TypedefRef struct{ Target *Typedef }

func (Primitive) isType()      {}
func (StringType) isType()     {}
func (WideStringType) isType() {}
func (Sequence) isType()       {}
func (StructRef) isType()      {}
func (UnionRef) isType()       {}
func (EnumRef) isType()        {}
func (BitmaskRef) isType()     {}
func (TypedefRef) isType()     {}

// Prim is shorthand for Primitive{Kind: k}.
func Prim(k PrimitiveKind) Type { return Primitive{Kind: k} }

// SeqOf is shorthand for an unbounded Sequence of elem.
func SeqOf(elem Type) Type { return Sequence{Elem: elem} }

// RefTo returns the reference type for a declaration, or nil for modules.
func RefTo(def Definition) Type {
	switch d := def.(type) {
	case *Struct:
		return StructRef{Target: d}
	case *Union:
		return UnionRef{Target: d}
	case *Enum:
		return EnumRef{Target: d}
	case *Bitmask:
		return BitmaskRef{Target: d}
	case *Typedef:
		return TypedefRef{Target: d}
	}
	return nil
}

// Target returns the declaration a reference type points at, or nil when t is
// not a reference.
func Target(t Type) Definition {
	switch r := t.(type) {
	case StructRef:
		if r.Target != nil {
			return r.Target
		}
	case UnionRef:
		if r.Target != nil {
			return r.Target
		}
	case EnumRef:
		if r.Target != nil {
			return r.Target
		}
	case BitmaskRef:
		if r.Target != nil {
			return r.Target
		}
	case TypedefRef:
		if r.Target != nil {
			return r.Target
		}
	}
	return nil
}
