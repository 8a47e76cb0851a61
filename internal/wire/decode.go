package wire

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/roach88/idlbind/internal/errors"
	"github.com/roach88/idlbind/internal/ir"
)

type decoder struct {
	r *Reader
}

func (d *decoder) value(t ir.Type, path string, depth int) (ir.IRValue, error) {
	if depth > MaxNesting {
		return nil, errors.NewInvalidInputf("%s: nesting exceeds %d levels", path, MaxNesting)
	}
	switch n := t.(type) {
	case nil:
		return nil, errors.NewInvalidInputf("%s: member has no type", path)
	case ir.Primitive:
		return d.primitive(n.Kind, path)
	case ir.StringType, ir.WideStringType:
		return d.str(path)
	case ir.Sequence:
		return d.sequence(n, path, depth)
	case ir.StructRef:
		if n.Target == nil {
			break
		}
		return d.structure(n.Target, path, depth)
	case ir.UnionRef:
		if n.Target == nil {
			break
		}
		return d.union(n.Target, path, depth)
	case ir.EnumRef:
		if n.Target == nil {
			break
		}
		raw, err := d.r.ReadU32()
		if err != nil {
			return nil, errors.Wrap(err, path)
		}
		ord := int32(raw)
		if ord < 0 || int(ord) >= len(n.Target.Enumerators) {
			return nil, errors.NewInvalidInputf("%s: ordinal %d out of range for %s", path, ord, n.Target.Ident)
		}
		return enumeratorValue(n.Target, int(ord)), nil
	case ir.BitmaskRef:
		if n.Target == nil {
			break
		}
		bits, err := d.r.ReadU64()
		if err != nil {
			return nil, errors.Wrap(err, path)
		}
		return ir.IRInt(int64(bits)), nil
	case ir.TypedefRef:
		if n.Target == nil {
			break
		}
		return d.value(n.Target.Aliased, path, depth+1)
	}
	return nil, errors.NewNotFoundf("%s: unresolved type reference", path)
}

// enumeratorValue names the enumerator at ord, or returns the ordinal itself
// for an anonymous enumerator.
func enumeratorValue(en *ir.Enum, ord int) ir.IRValue {
	if name := en.Enumerators[ord].Name; name != "" {
		return ir.IRString(name)
	}
	return ir.IRInt(ord)
}

// primitive reads a scalar. Signed kinds are sign-extended and unsigned kinds
// are zero-extended; unsigned long long keeps its bit pattern in an int64.
func (d *decoder) primitive(k ir.PrimitiveKind, path string) (ir.IRValue, error) {
	var (
		v   ir.IRValue
		err error
	)
	switch k {
	case ir.Bool:
		var b byte
		b, err = d.r.ReadByte()
		v = ir.IRBool(b != 0)
	case ir.Octet:
		var b byte
		b, err = d.r.ReadByte()
		v = ir.IRInt(b)
	case ir.UShort:
		var u uint16
		u, err = d.r.ReadU16()
		v = ir.IRInt(u)
	case ir.ULong:
		var u uint32
		u, err = d.r.ReadU32()
		v = ir.IRInt(u)
	case ir.Float:
		var u uint32
		u, err = d.r.ReadU32()
		v = ir.IRFloat(math.Float32frombits(u))
	case ir.Double:
		var u uint64
		u, err = d.r.ReadU64()
		v = ir.IRFloat(math.Float64frombits(u))
	default:
		var i int64
		i, err = d.r.ReadSized(k.Width())
		v = ir.IRInt(i)
	}
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return v, nil
}

func (d *decoder) str(path string) (ir.IRValue, error) {
	n, err := d.r.ReadLength()
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if n < 0 {
		return ir.IRNull{}, nil
	}
	b, err := d.r.ReadBytes(n)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if !utf8.Valid(b) {
		return nil, errors.NewInvalidInputf("%s: string is not valid UTF-8", path)
	}
	return ir.IRString(b), nil
}

func (d *decoder) sequence(s ir.Sequence, path string, depth int) (ir.IRValue, error) {
	n, err := d.r.ReadLength()
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	if n < 0 {
		return ir.IRNull{}, nil
	}
	// Every element takes at least one byte except empty structs, so a
	// count beyond the remaining bytes cannot be honest.
	if n > d.r.Remaining() && !ir.ZeroWidth(s.Elem) {
		return nil, errors.Wrapf(errors.ErrShortBuffer,
			"%s: count %d exceeds %d remaining bytes", path, n, d.r.Remaining())
	}
	arr := make(ir.IRArray, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		elem, err := d.value(s.Elem, fmt.Sprintf("%s[%d]", path, i), depth+1)
		if err != nil {
			return nil, err
		}
		arr = append(arr, elem)
	}
	return arr, nil
}

func (d *decoder) structure(s *ir.Struct, path string, depth int) (ir.IRValue, error) {
	obj := make(ir.IRObject, len(s.Members))
	for i, m := range s.Members {
		key := MemberKey(m, i)
		v, err := d.value(m.Type, path+"."+key, depth+1)
		if err != nil {
			return nil, err
		}
		obj[key] = v
	}
	return obj, nil
}

func (d *decoder) union(u *ir.Union, path string, depth int) (ir.IRValue, error) {
	width := ir.DiscriminantWidth(u.Discriminant)
	raw, err := d.r.ReadSized(width)
	if err != nil {
		return nil, errors.Wrap(err, path+"."+ir.DiscriminatorKey)
	}
	obj := ir.IRObject{ir.DiscriminatorKey: discriminantValue(u.Discriminant, raw)}

	c, index := SelectCase(u, raw)
	if c == nil {
		return obj, nil
	}
	key := MemberKey(c.Member, index)
	var caseType ir.Type
	if c.Member != nil {
		caseType = c.Member.Type
	}
	v, err := d.value(caseType, path+"."+key, depth+1)
	if err != nil {
		return nil, err
	}
	obj[key] = v
	return obj, nil
}

// discriminantValue renders a raw discriminant the way a caller would write
// it: an enumerator name, a boolean, or an integer in the declared kind's
// signedness.
func discriminantValue(t ir.Type, raw int64) ir.IRValue {
	term, ok := ir.Terminal(t)
	if !ok {
		return ir.IRInt(raw)
	}
	switch n := term.(type) {
	case ir.EnumRef:
		if n.Target != nil && raw >= 0 && raw < int64(len(n.Target.Enumerators)) {
			return enumeratorValue(n.Target, int(raw))
		}
	case ir.Primitive:
		switch n.Kind {
		case ir.Bool:
			return ir.IRBool(raw != 0)
		case ir.Octet:
			return ir.IRInt(uint8(raw))
		case ir.UShort:
			return ir.IRInt(uint16(raw))
		case ir.ULong:
			return ir.IRInt(uint32(raw))
		}
	}
	return ir.IRInt(raw)
}
