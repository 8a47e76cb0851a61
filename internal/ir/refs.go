package ir

import "strings"

// MaxAliasDepth bounds typedef unwrapping. The compiler rejects alias cycles,
// so a chain this long only happens with hand-built trees.
const MaxAliasDepth = 64

// ScopeChain returns the identifiers of the modules enclosing d, outermost
// first. Anonymous modules and the root are skipped.
func ScopeChain(d *Decl) []string {
	if d == nil {
		return nil
	}
	var rev []string
	for m := d.Parent; m != nil; m = m.Parent {
		if m.Ident != "" {
			rev = append(rev, m.Ident)
		}
	}
	chain := make([]string, len(rev))
	for i, name := range rev {
		chain[len(rev)-1-i] = name
	}
	return chain
}

// ScopedName returns the IDL-style name of d, e.g. "shapes::Point".
func ScopedName(d *Decl) string {
	parts := append(ScopeChain(d), d.Ident)
	return strings.Join(parts, "::")
}

// Unwrap removes exactly one typedef hop. Non-typedef types are returned as is.
func Unwrap(t Type) Type {
	if td, ok := t.(TypedefRef); ok && td.Target != nil {
		return td.Target.Aliased
	}
	return t
}

// Terminal unwraps typedef hops until a non-typedef type is reached. It returns
// false when the chain exceeds MaxAliasDepth or ends in an unset type.
func Terminal(t Type) (Type, bool) {
	for i := 0; i <= MaxAliasDepth; i++ {
		td, ok := t.(TypedefRef)
		if !ok {
			return t, t != nil
		}
		if td.Target == nil {
			return nil, false
		}
		t = td.Target.Aliased
	}
	return nil, false
}

// ZeroWidth reports whether t encodes to no bytes on the wire, which holds
// only for structs without members.
func ZeroWidth(t Type) bool {
	term, ok := Terminal(t)
	if !ok {
		return false
	}
	ref, ok := term.(StructRef)
	return ok && ref.Target != nil && len(ref.Target.Members) == 0
}

// AliasDepth returns how many typedef hops separate t from its terminal type,
// or -1 when the chain does not terminate within MaxAliasDepth.
func AliasDepth(t Type) int {
	for i := 0; i <= MaxAliasDepth; i++ {
		td, ok := t.(TypedefRef)
		if !ok || td.Target == nil {
			return i
		}
		t = td.Target.Aliased
	}
	return -1
}

// Lookup finds a definition by scoped name starting at scope and moving outward,
// the way IDL resolves relative names. A leading "::" anchors at the root.
func Lookup(scope *Module, name string) Definition {
	if scope == nil || name == "" {
		return nil
	}
	if strings.HasPrefix(name, "::") {
		root := scope
		for root.Parent != nil {
			root = root.Parent
		}
		return lookupPath(root, strings.Split(strings.TrimPrefix(name, "::"), "::"))
	}
	parts := strings.Split(name, "::")
	for m := scope; m != nil; m = m.Parent {
		if def := lookupPath(m, parts); def != nil {
			return def
		}
	}
	return nil
}

func lookupPath(m *Module, parts []string) Definition {
	var found Definition
	cur := m
	for i, part := range parts {
		found = nil
		for _, def := range cur.Definitions {
			if def.Name() == part {
				found = def
				break
			}
		}
		if found == nil {
			return nil
		}
		if i < len(parts)-1 {
			next, ok := found.(*Module)
			if !ok {
				return nil
			}
			cur = next
		}
	}
	return found
}

// DiscriminantWidth returns the encoded size of a union discriminant declared
// as t: the width of its terminal primitive, or 4 for enums and anything else.
// Booleans take one byte.
func DiscriminantWidth(t Type) int {
	term, ok := Terminal(t)
	if !ok {
		return 4
	}
	p, ok := term.(Primitive)
	if !ok {
		return 4
	}
	switch p.Kind {
	case Float, Double:
		return 4
	}
	return p.Kind.Width()
}

// Narrow truncates v to width bytes and sign-extends the result, the way a
// discriminant of that width compares against a label.
func Narrow(v int64, width int) int64 {
	switch width {
	case 1:
		return int64(int8(v))
	case 2:
		return int64(int16(v))
	case 4:
		return int64(int32(v))
	}
	return v
}
