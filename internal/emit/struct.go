package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/idlbind/internal/ir"
)

// emitStruct writes a struct as a final class, or as a record in compact form.
func (e *Emitter) emitStruct(f *javaFile, s *ir.Struct) {
	fields := f.fields(s.Members, false)
	codec := !e.opts.DisableCodec
	if codec {
		f.useWire()
	}

	var sections []func()
	sections = append(sections, func() { writeFieldOrder(f, fields) })
	if !e.opts.Compact {
		sections = append(sections,
			func() { writeFields(f, fields) },
			func() { writeConstructors(f, fields) },
		)
		for _, fd := range fields {
			fd := fd
			sections = append(sections, func() { f.writeAccessors(fd) })
		}
	}
	if codec {
		sections = append(sections,
			func() { writeStructEncode(f, fields) },
			func() { writeStructDecode(f, fields, e.opts.Compact) },
		)
		if IsTopic(s) {
			sections = append(sections, f.writeTopicHelpers)
		}
	}
	if !e.opts.Compact {
		names := make([]string, len(fields))
		for i, fd := range fields {
			names[i] = fd.java
		}
		sections = append(sections,
			func() { f.writeEquals(names) },
			func() { f.writeHashCode(names) },
		)
	}
	sections = append(sections, func() {
		parts := make([]shown, len(fields))
		for i, fd := range fields {
			parts[i] = f.show(fd)
		}
		f.writeToString(f.name, parts)
	})

	f.annotate(s)
	header := classHeader(f.name)
	if e.opts.Compact {
		header = fmt.Sprintf("public record %s(%s) %s", f.name, recordComponents(f, fields), serializable)
	}
	writeType(f, header, sections)
}

// serializable is implemented by every generated value type, records and
// classes alike.
const serializable = "implements java.io.Serializable"

func classHeader(name string) string {
	return fmt.Sprintf("public final class %s %s", name, serializable)
}

// writeType writes a type declaration whose body is sections separated by
// blank lines.
func writeType(f *javaFile, header string, sections []func()) {
	a := &f.body
	a.Block(header, func() {
		for _, section := range sections {
			a.Blank()
			section()
		}
	})
}

func recordComponents(f *javaFile, fields []field) string {
	parts := make([]string, len(fields))
	for i, fd := range fields {
		parts[i] = f.inlineMarkers(fd.annots) + fd.jtype + " " + fd.java
	}
	return strings.Join(parts, ", ")
}

func writeFieldOrder(f *javaFile, fields []field) {
	quoted := make([]string, len(fields))
	for i, fd := range fields {
		quoted[i] = strconv.Quote(fd.idl)
	}
	f.body.Linef("public static final java.util.List<String> FIELD_ORDER = java.util.List.of(%s);",
		strings.Join(quoted, ", "))
}

func writeFields(f *javaFile, fields []field) {
	for _, fd := range fields {
		f.annotate(fd.annots)
		f.body.Linef("private %s %s = %s;", fd.jtype, fd.java, f.e.mapper.DefaultValue(fd.typ, false))
	}
}

func writeConstructors(f *javaFile, fields []field) {
	a := &f.body
	a.Block(fmt.Sprintf("public %s()", f.name), func() {})
	if len(fields) == 0 {
		return
	}
	params := make([]string, len(fields))
	for i, fd := range fields {
		params[i] = fd.jtype + " " + fd.java
	}
	a.Blank()
	a.Block(fmt.Sprintf("public %s(%s)", f.name, strings.Join(params, ", ")), func() {
		for _, fd := range fields {
			a.Linef("this.%s = %s;", fd.java, fd.java)
		}
	})
}

func writeStructEncode(f *javaFile, fields []field) {
	a := &f.body
	a.Block(fmt.Sprintf("public void encode(WireBuffer %s)", outVar), func() {
		for _, fd := range fields {
			f.codec.ForMember(fd.idl)
			f.codec.EmitEncode(fd.typ, "this."+fd.java, a)
		}
	})
}

// writeStructDecode reads members in declaration order. Classes assign into a
// fresh instance; records decode into locals and call the canonical
// constructor.
func writeStructDecode(f *javaFile, fields []field, compact bool) {
	a := &f.body
	a.Block(fmt.Sprintf("public static %s decode(WireBuffer %s)", f.name, inVar), func() {
		if compact {
			args := make([]string, len(fields))
			for i, fd := range fields {
				local := fd.java + "$"
				args[i] = local
				a.Linef("%s %s;", fd.jtype, local)
				f.codec.ForMember(fd.idl)
				f.codec.EmitDecode(fd.typ, local, a)
			}
			a.Linef("return new %s(%s);", f.name, strings.Join(args, ", "))
			return
		}
		a.Linef("%s value = new %s();", f.name, f.name)
		for _, fd := range fields {
			f.codec.ForMember(fd.idl)
			f.codec.EmitDecode(fd.typ, "value."+fd.java, a)
		}
		a.Line("return value;")
	})
}
