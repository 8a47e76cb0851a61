package emit

import (
	"fmt"
	"strconv"

	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/typemap"
)

// MaxBitPosition is the highest bit a 64-bit packed value can hold.
const MaxBitPosition = 63

// BitConstant renders the value of the flag at position as a Java long
// literal, or false when the position does not fit.
func BitConstant(position int) (string, bool) {
	switch {
	case position < 0 || position > MaxBitPosition:
		return "", false
	case position == MaxBitPosition:
		return "Long.MIN_VALUE", true
	}
	return strconv.FormatInt(int64(1)<<position, 10) + "L", true
}

// emitBitmask writes a final class over one packed long, with a constant per
// declared bit in declaration order.
func (e *Emitter) emitBitmask(f *javaFile, b *ir.Bitmask) {
	a := &f.body
	sections := []func(){
		func() {
			for pos, bit := range b.Bits {
				name := typemap.Identifier(bit)
				if bit == "" {
					name = fmt.Sprintf("BIT%d", pos)
					e.diags.Warnf(CodeUnnamedMember, f.entity, "anonymous bit at position %d emitted as %s", pos, name)
				}
				value, ok := BitConstant(pos)
				if !ok {
					e.diags.Warnf(CodeBitmaskOverflow, f.entity, "bit %s at position %d does not fit in 64 bits; skipped", name, pos)
					continue
				}
				a.Linef("public static final long %s = %s;", name, value)
			}
			if len(b.Bits) > 0 {
				a.Blank()
			}
			a.Linef("private long %s;", valueField)
		},
		func() {
			a.Block(fmt.Sprintf("public %s()", f.name), func() {})
			a.Blank()
			a.Block(fmt.Sprintf("public %s(long value)", f.name), func() {
				a.Linef("this.%s = value;", valueField)
			})
		},
		func() {
			a.Block("public long getValue()", func() { a.Linef("return %s;", valueField) })
			a.Blank()
			a.Block("public void setValue(long value)", func() { a.Linef("this.%s = value;", valueField) })
		},
		func() {
			a.Block("public boolean isSet(long flag)", func() { a.Linef("return (%s & flag) == flag;", valueField) })
			a.Blank()
			a.Block("public void set(long flag)", func() { a.Linef("%s |= flag;", valueField) })
			a.Blank()
			a.Block("public void clear(long flag)", func() { a.Linef("%s &= ~flag;", valueField) })
		},
		func() { f.writeEquals([]string{valueField}) },
		func() {
			a.Line("@Override")
			a.Block("public int hashCode()", func() { a.Linef("return Long.hashCode(%s);", valueField) })
		},
		func() {
			a.Line("@Override")
			a.Block("public String toString()", func() {
				a.Linef("return \"%s[value=0x\" + Long.toHexString(%s) + \"]\";", f.name, valueField)
			})
		},
	}
	f.annotate(b)
	writeType(f, classHeader(f.name), sections)
}
