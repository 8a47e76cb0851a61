package emit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/typemap"
)

// discField is the union's discriminant field. IDL identifiers cannot start
// with an underscore, so no case member can shadow it.
const discField = "_d"

// DiscriminantStorage returns the Java type holding a union discriminant
// declared as t, chosen from t's terminal type.
func DiscriminantStorage(t ir.Type) string {
	switch ir.DiscriminantWidth(t) {
	case 1:
		return "byte"
	case 2:
		return "short"
	case 8:
		return "long"
	}
	return "int"
}

func labelLiteral(storage string, v int64) string {
	switch storage {
	case "long":
		return strconv.FormatInt(v, 10) + "L"
	case "byte":
		if v >= math.MinInt8 && v <= math.MaxInt8 {
			return strconv.FormatInt(v, 10)
		}
	case "short":
		if v >= math.MinInt16 && v <= math.MaxInt16 {
			return strconv.FormatInt(v, 10)
		}
	default:
		if v >= math.MinInt32 && v <= math.MaxInt32 {
			return strconv.FormatInt(v, 10)
		}
	}
	lit := strconv.FormatInt(v, 10)
	if v < math.MinInt32 || v > math.MaxInt32 {
		lit += "L"
	}
	return "(" + storage + ") " + lit
}

var discriminantIO = map[string][2]string{
	"byte":  {"writeByte", "readByte"},
	"short": {"writeShort", "readShort"},
	"int":   {"writeInt", "readInt"},
	"long":  {"writeLong", "readLong"},
}

type unionCase struct {
	field
	c *ir.Case
}

// emitUnion writes a union as a tagged variant: setters select a case and
// clear the others, and the codec dispatches on the discriminant.
func (e *Emitter) emitUnion(f *javaFile, u *ir.Union) {
	storage := DiscriminantStorage(u.Discriminant)

	members := make([]*ir.Member, len(u.Cases))
	for i, c := range u.Cases {
		m := c.Member
		if m == nil {
			m = &ir.Member{}
		}
		members[i] = m
	}
	fields := f.fields(members, true)
	cases := make([]unionCase, len(u.Cases))
	for i, c := range u.Cases {
		cases[i] = unionCase{field: fields[i], c: c}
	}

	codec := !e.opts.DisableCodec
	if codec {
		f.useWire()
	}
	a := &f.body

	sections := []func(){
		func() {
			a.Linef("private %s %s;", storage, discField)
			for _, uc := range cases {
				f.annotate(uc.annots)
				a.Linef("private %s %s;", uc.jtype, uc.java)
			}
		},
		func() {
			a.Block(fmt.Sprintf("public %s()", f.name), func() {
				if len(cases) > 0 {
					a.Linef("this.%s = %s;", discField, labelLiteral(storage, u.SelectValue(cases[0].c)))
				}
			})
		},
		func() {
			a.Block(fmt.Sprintf("public %s discriminator()", storage), func() {
				a.Linef("return %s;", discField)
			})
		},
	}
	for _, uc := range cases {
		uc := uc
		sections = append(sections, func() {
			suffix := typemap.Capitalize(uc.java)
			a.Block(fmt.Sprintf("public %s get%s()", uc.jtype, suffix), func() {
				a.Linef("return %s;", uc.java)
			})
			a.Blank()
			a.Block(fmt.Sprintf("public void set%s(%s %s)", suffix, uc.jtype, uc.java), func() {
				a.Linef("this.%s = %s;", discField, labelLiteral(storage, u.SelectValue(uc.c)))
				for _, other := range cases {
					if other.java == uc.java {
						a.Linef("this.%s = %s;", uc.java, uc.java)
					} else {
						a.Linef("this.%s = null;", other.java)
					}
				}
			})
		})
	}
	if codec {
		sections = append(sections,
			func() { writeUnionEncode(f, cases, storage) },
			func() { writeUnionDecode(f, cases, storage) },
		)
		if IsTopic(u) {
			sections = append(sections, f.writeTopicHelpers)
		}
	}

	names := []string{discField}
	parts := []shown{{"discriminator", discField}}
	for _, uc := range cases {
		names = append(names, uc.java)
		parts = append(parts, f.show(uc.field))
	}
	sections = append(sections,
		func() { f.writeEquals(names) },
		func() { f.writeHashCode(names) },
		func() { f.writeToString(f.name, parts) },
	)

	f.annotate(u)
	writeType(f, classHeader(f.name), sections)
}

// dispatch writes an if/else-if chain with one branch per case, matching the
// discriminant held in disc against each case's labels. The default case, if
// any, becomes the final else.
func dispatch(f *javaFile, cases []unionCase, storage, disc string, branch func(unionCase)) {
	a := &f.body
	var deflt *unionCase
	first := true
	for i := range cases {
		uc := cases[i]
		if uc.c.IsDefault {
			deflt = &cases[i]
			continue
		}
		if len(uc.c.Labels) == 0 {
			continue
		}
		conds := make([]string, len(uc.c.Labels))
		for j, l := range uc.c.Labels {
			conds[j] = fmt.Sprintf("%s == %s", disc, labelLiteral(storage, l))
		}
		if first {
			a.Linef("if (%s) {", strings.Join(conds, " || "))
			first = false
		} else {
			a.Dedent()
			a.Linef("} else if (%s) {", strings.Join(conds, " || "))
		}
		a.Indent()
		branch(uc)
	}
	if deflt != nil {
		if first {
			branch(*deflt)
			return
		}
		a.Dedent()
		a.Line("} else {")
		a.Indent()
		branch(*deflt)
	}
	if !first {
		a.Dedent()
		a.Line("}")
	}
}

func writeUnionEncode(f *javaFile, cases []unionCase, storage string) {
	a := &f.body
	a.Block(fmt.Sprintf("public void encode(WireBuffer %s)", outVar), func() {
		a.Linef("%s.%s(this.%s);", outVar, discriminantIO[storage][0], discField)
		dispatch(f, cases, storage, "this."+discField, func(uc unionCase) {
			value := "this." + uc.java
			if !typemap.IsNullable(uc.typ) {
				a.Block(fmt.Sprintf("if (%s == null)", value), func() {
					a.Linef("throw new IllegalStateException(%q);",
						fmt.Sprintf("%s: case %s is selected but not set", f.name, uc.idl))
				})
			}
			f.codec.ForMember(uc.idl)
			f.codec.EmitEncode(uc.typ, value, a)
		})
	})
}

func writeUnionDecode(f *javaFile, cases []unionCase, storage string) {
	a := &f.body
	a.Block(fmt.Sprintf("public static %s decode(WireBuffer %s)", f.name, inVar), func() {
		a.Linef("%s value = new %s();", f.name, f.name)
		a.Linef("value.%s = %s.%s();", discField, inVar, discriminantIO[storage][1])
		dispatch(f, cases, storage, "value."+discField, func(uc unionCase) {
			f.codec.ForMember(uc.idl)
			f.codec.EmitDecode(uc.typ, "value."+uc.java, a)
		})
		a.Line("return value;")
	})
}
