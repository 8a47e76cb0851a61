package wire

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/roach88/idlbind/internal/errors"
	"github.com/roach88/idlbind/internal/ir"
)

// MaxNesting bounds how deeply composite values may nest. Mutually
// containing structs have no finite encoding; the bound turns them into an
// error instead of unbounded recursion.
const MaxNesting = 256

// Encode writes v as a value of type t and returns the bytes.
func Encode(t ir.Type, v ir.IRValue) ([]byte, error) {
	w := NewWriter()
	if err := EncodeTo(w, t, v); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// EncodeTo appends v as a value of type t to w.
func EncodeTo(w *Writer, t ir.Type, v ir.IRValue) error {
	return (&encoder{w: w}).value(t, v, "value", 0)
}

// Decode reads one value of type t from data. Every byte must be consumed.
func Decode(t ir.Type, data []byte) (ir.IRValue, error) {
	r := NewReader(data)
	v, err := DecodeFrom(r, t)
	if err != nil {
		return nil, err
	}
	if r.Remaining() > 0 {
		return nil, errors.WithHint(
			errors.NewInvalidInputf("%d trailing bytes after offset %d", r.Remaining(), r.Position()),
			"the payload may belong to a different type")
	}
	return v, nil
}

// DecodeFrom reads one value of type t from r.
func DecodeFrom(r *Reader, t ir.Type) (ir.IRValue, error) {
	return (&decoder{r: r}).value(t, "value", 0)
}

// MemberKey returns the object key for the member at index: its name, or the
// member<N> fallback the generated code uses for anonymous members.
func MemberKey(m *ir.Member, index int) string {
	if m == nil || m.Name == "" {
		return fmt.Sprintf("member%d", index)
	}
	return m.Name
}

type encoder struct {
	w *Writer
}

func (e *encoder) value(t ir.Type, v ir.IRValue, path string, depth int) error {
	if depth > MaxNesting {
		return errors.NewInvalidInputf("%s: nesting exceeds %d levels", path, MaxNesting)
	}
	switch n := t.(type) {
	case nil:
		return errors.NewInvalidInputf("%s: member has no type", path)
	case ir.Primitive:
		return e.primitive(n.Kind, v, path)
	case ir.StringType, ir.WideStringType:
		return e.str(v, path)
	case ir.Sequence:
		return e.sequence(n, v, path, depth)
	case ir.StructRef:
		if n.Target == nil {
			break
		}
		return e.structure(n.Target, v, path, depth)
	case ir.UnionRef:
		if n.Target == nil {
			break
		}
		return e.union(n.Target, v, path, depth)
	case ir.EnumRef:
		if n.Target == nil {
			break
		}
		ord, err := ordinal(n.Target, v, path)
		if err != nil {
			return err
		}
		e.w.U32(uint32(ord))
		return nil
	case ir.BitmaskRef:
		if n.Target == nil {
			break
		}
		bits, err := packBits(n.Target, v, path)
		if err != nil {
			return err
		}
		e.w.U64(bits)
		return nil
	case ir.TypedefRef:
		if n.Target == nil {
			break
		}
		return e.value(n.Target.Aliased, v, path, depth+1)
	}
	return errors.NewNotFoundf("%s: unresolved type reference", path)
}

func (e *encoder) primitive(k ir.PrimitiveKind, v ir.IRValue, path string) error {
	switch k {
	case ir.Bool:
		b, ok := v.(ir.IRBool)
		if !ok {
			return mismatch(path, "boolean", v)
		}
		if b {
			e.w.Byte(1)
		} else {
			e.w.Byte(0)
		}
		return nil
	case ir.Float, ir.Double:
		var f float64
		switch x := v.(type) {
		case ir.IRFloat:
			f = float64(x)
		case ir.IRInt:
			f = float64(x)
		default:
			return mismatch(path, k.String(), v)
		}
		if k == ir.Float {
			e.w.U32(math.Float32bits(float32(f)))
		} else {
			e.w.U64(math.Float64bits(f))
		}
		return nil
	}
	i, ok := v.(ir.IRInt)
	if !ok {
		return mismatch(path, k.String(), v)
	}
	width := k.Width()
	if !fits(int64(i), width) {
		return errors.NewInvalidInputf("%s: %d does not fit in %s", path, int64(i), k)
	}
	e.w.Sized(int64(i), width)
	return nil
}

// fits accepts both the signed and the unsigned reading of a width-byte
// integer, since Java holds unsigned IDL types in signed storage.
func fits(v int64, width int) bool {
	if width >= 8 {
		return true
	}
	bits := uint(width * 8)
	return v >= -(int64(1)<<(bits-1)) && v <= (int64(1)<<bits)-1
}

func (e *encoder) str(v ir.IRValue, path string) error {
	switch s := v.(type) {
	case nil, ir.IRNull:
		e.w.Length(absent)
		return nil
	case ir.IRString:
		if !utf8.ValidString(string(s)) {
			return errors.NewInvalidInputf("%s: string is not valid UTF-8", path)
		}
		e.w.Length(len(s))
		e.w.WriteBytes([]byte(s))
		return nil
	}
	return mismatch(path, "string", v)
}

func (e *encoder) sequence(s ir.Sequence, v ir.IRValue, path string, depth int) error {
	switch arr := v.(type) {
	case nil, ir.IRNull:
		e.w.Length(absent)
		return nil
	case ir.IRArray:
		e.w.Length(len(arr))
		for i, elem := range arr {
			if err := e.value(s.Elem, elem, fmt.Sprintf("%s[%d]", path, i), depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return mismatch(path, "sequence", v)
}

// structure writes every member in declaration order. Members missing from
// obj are written as their zero value, matching a freshly constructed Java
// object.
func (e *encoder) structure(s *ir.Struct, v ir.IRValue, path string, depth int) error {
	obj, err := asObject(v, path)
	if err != nil {
		return err
	}
	keys := make(map[string]bool, len(s.Members))
	for i, m := range s.Members {
		keys[MemberKey(m, i)] = true
	}
	for _, k := range obj.SortedKeys() {
		if !keys[k] {
			return errors.NewInvalidInputf("%s: struct %s has no member %q", path, s.Ident, k)
		}
	}
	for i, m := range s.Members {
		key := MemberKey(m, i)
		mv, ok := obj[key]
		if !ok {
			mv, err = zero(m.Type, depth+1)
			if err != nil {
				return errors.Wrapf(err, "%s.%s", path, key)
			}
		}
		if err := e.value(m.Type, mv, path+"."+key, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) union(u *ir.Union, v ir.IRValue, path string, depth int) error {
	obj, err := asObject(v, path)
	if err != nil {
		return err
	}
	keys := make(map[string]*ir.Case, len(u.Cases))
	for i, c := range u.Cases {
		keys[MemberKey(c.Member, i)] = c
	}
	for _, k := range obj.SortedKeys() {
		if _, ok := keys[k]; !ok && k != ir.DiscriminatorKey {
			return errors.NewInvalidInputf("%s: union %s has no case %q", path, u.Ident, k)
		}
	}

	disc, err := discriminant(u, obj, path)
	if err != nil {
		return err
	}
	width := ir.DiscriminantWidth(u.Discriminant)
	e.w.Sized(disc, width)

	selected, index := SelectCase(u, disc)
	for k := range obj {
		if c, ok := keys[k]; ok && c != selected {
			return errors.NewInvalidInputf("%s: case %q is not selected by discriminator %d", path, k, disc)
		}
	}
	if selected == nil {
		return nil
	}
	key := MemberKey(selected.Member, index)
	var caseType ir.Type
	if selected.Member != nil {
		caseType = selected.Member.Type
	}
	mv, ok := obj[key]
	if !ok {
		if !nullable(caseType) {
			return errors.NewInvalidInputf("%s: case %s is selected but not set", path, key)
		}
		mv = ir.IRNull{}
	}
	return e.value(caseType, mv, path+"."+key, depth+1)
}

// discriminant returns the discriminant held in obj. When it is missing, the
// case whose member is present selects, otherwise the first case does.
func discriminant(u *ir.Union, obj ir.IRObject, path string) (int64, error) {
	raw, ok := obj[ir.DiscriminatorKey]
	if !ok {
		for i, c := range u.Cases {
			if _, present := obj[MemberKey(c.Member, i)]; present {
				return u.SelectValue(c), nil
			}
		}
		if len(u.Cases) > 0 {
			return u.SelectValue(u.Cases[0]), nil
		}
		return 0, nil
	}
	switch d := raw.(type) {
	case ir.IRInt:
		return int64(d), nil
	case ir.IRBool:
		if d {
			return 1, nil
		}
		return 0, nil
	case ir.IRString:
		term, _ := ir.Terminal(u.Discriminant)
		if ref, isEnum := term.(ir.EnumRef); isEnum && ref.Target != nil {
			if ord, found := ref.Target.Ordinal(string(d)); found {
				return int64(ord), nil
			}
			return 0, errors.NewInvalidInputf("%s: %q is not an enumerator of %s", path, string(d), ref.Target.Ident)
		}
	}
	return 0, mismatch(path+"."+ir.DiscriminatorKey, "discriminator", raw)
}

// SelectCase returns the case of u selected by disc and its index, comparing
// labels at the discriminant's width. The default case applies when no label
// matches; nil means no case is selected and the union carries no payload.
func SelectCase(u *ir.Union, disc int64) (*ir.Case, int) {
	width := ir.DiscriminantWidth(u.Discriminant)
	d := ir.Narrow(disc, width)
	for i, c := range u.Cases {
		for _, l := range c.Labels {
			if ir.Narrow(l, width) == d {
				return c, i
			}
		}
	}
	for i, c := range u.Cases {
		if c.IsDefault {
			return c, i
		}
	}
	return nil, -1
}

func ordinal(en *ir.Enum, v ir.IRValue, path string) (int, error) {
	switch x := v.(type) {
	case ir.IRString:
		if ord, ok := en.Ordinal(string(x)); ok && x != "" {
			return ord, nil
		}
		return 0, errors.NewInvalidInputf("%s: %q is not an enumerator of %s", path, string(x), en.Ident)
	case ir.IRInt:
		if x < 0 || int(x) >= len(en.Enumerators) {
			return 0, errors.NewInvalidInputf("%s: ordinal %d out of range for %s", path, int64(x), en.Ident)
		}
		return int(x), nil
	}
	return 0, mismatch(path, "enumerator", v)
}

// packBits accepts packed flags as an integer or a list of bit names.
func packBits(b *ir.Bitmask, v ir.IRValue, path string) (uint64, error) {
	switch x := v.(type) {
	case ir.IRInt:
		return uint64(x), nil
	case ir.IRArray:
		var bits uint64
		for _, item := range x {
			name, ok := item.(ir.IRString)
			if !ok {
				return 0, mismatch(path, "bit name", item)
			}
			pos := bitPosition(b, string(name))
			if pos < 0 {
				return 0, errors.NewInvalidInputf("%s: %q is not a bit of %s", path, string(name), b.Ident)
			}
			if pos > 63 {
				return 0, errors.NewInvalidInputf("%s: bit %s at position %d does not fit in 64 bits", path, string(name), pos)
			}
			bits |= 1 << uint(pos)
		}
		return bits, nil
	}
	return 0, mismatch(path, "bitmask", v)
}

func bitPosition(b *ir.Bitmask, name string) int {
	for i, bit := range b.Bits {
		if bit != "" && bit == name {
			return i
		}
	}
	return -1
}

func nullable(t ir.Type) bool {
	switch t.(type) {
	case ir.StringType, ir.WideStringType, ir.Sequence:
		return true
	}
	return false
}

func asObject(v ir.IRValue, path string) (ir.IRObject, error) {
	switch obj := v.(type) {
	case nil:
		return ir.IRObject{}, nil
	case ir.IRObject:
		return obj, nil
	}
	return nil, mismatch(path, "object", v)
}

func mismatch(path, want string, got ir.IRValue) error {
	return errors.NewInvalidInputf("%s: expected %s, got %s", path, want, describe(got))
}

func describe(v ir.IRValue) string {
	switch v.(type) {
	case nil, ir.IRNull:
		return "null"
	case ir.IRString:
		return "string"
	case ir.IRInt:
		return "integer"
	case ir.IRFloat:
		return "float"
	case ir.IRBool:
		return "boolean"
	case ir.IRArray:
		return "array"
	case ir.IRObject:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
