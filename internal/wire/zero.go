package wire

import (
	"github.com/roach88/idlbind/internal/errors"
	"github.com/roach88/idlbind/internal/ir"
)

// Zero returns the value a freshly constructed generated object holds for
// type t: zero scalars, absent strings and sequences, the first enumerator,
// and zeroed composites. A union selects its first case and, unlike the Java
// constructor, also carries that case's zero payload so it can be encoded.
func Zero(t ir.Type) (ir.IRValue, error) {
	return zero(t, 0)
}

func zero(t ir.Type, depth int) (ir.IRValue, error) {
	if depth > MaxNesting {
		return nil, errors.NewInvalidInputf("zero value nests deeper than %d levels", MaxNesting)
	}
	switch n := t.(type) {
	case ir.Primitive:
		switch n.Kind {
		case ir.Bool:
			return ir.IRBool(false), nil
		case ir.Float, ir.Double:
			return ir.IRFloat(0), nil
		}
		return ir.IRInt(0), nil
	case ir.StructRef:
		if n.Target == nil {
			break
		}
		obj := make(ir.IRObject, len(n.Target.Members))
		for i, m := range n.Target.Members {
			v, err := zero(m.Type, depth+1)
			if err != nil {
				return nil, err
			}
			obj[MemberKey(m, i)] = v
		}
		return obj, nil
	case ir.UnionRef:
		if n.Target == nil {
			break
		}
		u := n.Target
		if len(u.Cases) == 0 {
			return ir.IRObject{ir.DiscriminatorKey: discriminantValue(u.Discriminant, 0)}, nil
		}
		first := u.Cases[0]
		obj := ir.IRObject{ir.DiscriminatorKey: discriminantValue(u.Discriminant, u.SelectValue(first))}
		if first.Member != nil {
			v, err := zero(first.Member.Type, depth+1)
			if err != nil {
				return nil, err
			}
			obj[MemberKey(first.Member, 0)] = v
		}
		return obj, nil
	case ir.EnumRef:
		if n.Target == nil {
			break
		}
		if len(n.Target.Enumerators) == 0 {
			return nil, errors.NewInvalidInputf("enum %s has no enumerators", n.Target.Ident)
		}
		return enumeratorValue(n.Target, 0), nil
	case ir.BitmaskRef:
		return ir.IRInt(0), nil
	case ir.TypedefRef:
		if n.Target == nil {
			break
		}
		return zero(n.Target.Aliased, depth+1)
	}
	return ir.IRNull{}, nil
}
