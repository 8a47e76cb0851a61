package emit

import (
	"fmt"

	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/typemap"
)

// EnumeratorName returns the Java constant for the enumerator at index,
// substituting VALUE<N> for an anonymous one.
func EnumeratorName(en ir.Enumerator, index int) string {
	if en.Name == "" {
		return fmt.Sprintf("VALUE%d", index)
	}
	return typemap.Identifier(en.Name)
}

// valueField backs getValue in enums and bitmasks. The '$' keeps it clear of
// enumerator and bit names.
const valueField = "value$"

// emitEnum writes a Java enum whose values are the positional ordinals.
// Literal values from the source are deliberately not consulted.
func (e *Emitter) emitEnum(f *javaFile, en *ir.Enum) {
	a := &f.body
	f.annotate(en)
	a.Block(fmt.Sprintf("public enum %s", f.name), func() {
		if len(en.Enumerators) == 0 {
			a.Line(";")
		}
		for i, v := range en.Enumerators {
			name := EnumeratorName(v, i)
			if v.Name == "" {
				e.diags.Warnf(CodeUnnamedMember, f.entity, "anonymous enumerator at position %d emitted as %s", i, name)
			}
			term := ","
			if i == len(en.Enumerators)-1 {
				term = ";"
			}
			a.Linef("%s(%d)%s", name, i, term)
		}
		a.Blank()
		a.Linef("private final int %s;", valueField)
		a.Blank()
		a.Block(fmt.Sprintf("%s(int value)", f.name), func() {
			a.Linef("this.%s = value;", valueField)
		})
		a.Blank()
		a.Block("public int getValue()", func() {
			a.Linef("return %s;", valueField)
		})
		a.Blank()
		a.Block(fmt.Sprintf("public static %s fromValue(int value)", f.name), func() {
			a.Block(fmt.Sprintf("for (%s e : values())", f.name), func() {
				a.Block(fmt.Sprintf("if (e.%s == value)", valueField), func() {
					a.Line("return e;")
				})
			})
			a.Linef("throw new IllegalArgumentException(\"unknown %s value: \" + value);", f.name)
		})
	})
}
