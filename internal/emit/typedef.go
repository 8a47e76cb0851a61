package emit

import (
	"fmt"

	"github.com/roach88/idlbind/internal/ir"
)

// emitTypedef writes a wrapper class around one value of the aliased type.
// Wrappers carry no codec; fields of the typedef's type encode the aliased
// value in place.
func (e *Emitter) emitTypedef(f *javaFile, td *ir.Typedef) {
	a := &f.body
	value := field{
		idl:   "value",
		java:  "value",
		typ:   td.Aliased,
		jtype: f.javaType(td.Aliased, false, "value"),
	}
	sections := []func(){
		func() {
			a.Linef("private %s value = %s;", value.jtype, e.mapper.DefaultValue(td.Aliased, false))
		},
		func() {
			a.Block(fmt.Sprintf("public %s()", f.name), func() {})
			a.Blank()
			a.Block(fmt.Sprintf("public %s(%s value)", f.name, value.jtype), func() {
				a.Line("this.value = value;")
			})
		},
		func() { f.writeAccessors(value) },
		func() { f.writeEquals([]string{"value"}) },
		func() { f.writeHashCode([]string{"value"}) },
		func() { f.writeToString(f.name, []shown{f.show(value)}) },
	}
	f.annotate(td)
	writeType(f, classHeader(f.name), sections)
}
