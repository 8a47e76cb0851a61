package emit

import (
	"fmt"
	"strings"

	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/typemap"
)

// Names of the buffer parameters in generated encode and decode methods.
const (
	outVar = "out"
	inVar  = "in"
)

const utf8Charset = "java.nio.charset.StandardCharsets.UTF_8"

// Codec writes encode and decode statements for one entity. Temporaries carry
// a '$' so they can never collide with IDL identifiers, and a per-entity
// counter keeps them unique across nested blocks.
type Codec struct {
	mapper typemap.Mapper
	diags  *Diagnostics
	entity string
	member string
	tmp    int
}

// NewCodec returns a Codec reporting under entity.
func NewCodec(mapper typemap.Mapper, diags *Diagnostics, entity string) *Codec {
	return &Codec{mapper: mapper, diags: diags, entity: entity}
}

// ForMember sets the member name used in diagnostics for subsequent calls.
func (c *Codec) ForMember(name string) {
	c.member = name
}

func (c *Codec) temp(prefix string) string {
	name := fmt.Sprintf("%s$%d", prefix, c.tmp)
	c.tmp++
	return name
}

func (c *Codec) unmapped(t ir.Type) {
	reportUnmapped(c.diags, c.entity, c.member, c.mapper.Describe(t))
}

func reportUnmapped(diags *Diagnostics, entity, member, desc string) {
	if diags == nil {
		return
	}
	diags.Warnf(CodeUnmappedType, entity, "member %s: type %s has no mapping", member, desc)
}

// EmitEncode appends statements writing value, an expression of type t, to out.
func (c *Codec) EmitEncode(t ir.Type, value string, a *Assembler) {
	c.encode(t, value, a, 0)
}

// EmitDecode appends statements reading a value of type t from in and
// assigning it to target, which must be assignable.
func (c *Codec) EmitDecode(t ir.Type, target string, a *Assembler) {
	c.decode(t, target, a, 0)
}

func (c *Codec) encode(t ir.Type, v string, a *Assembler, depth int) {
	switch n := t.(type) {
	case ir.Primitive:
		if call, ok := primitiveWrite(n.Kind, v); ok {
			a.Line(call)
			return
		}
	case ir.StringType, ir.WideStringType:
		c.encodeString(v, a)
		return
	case ir.Sequence:
		c.encodeSequence(n, v, a, depth)
		return
	case ir.StructRef, ir.UnionRef:
		if _, ok := c.mapper.Map(t, false); ok {
			a.Linef("%s.encode(%s);", v, outVar)
			return
		}
	case ir.EnumRef:
		if _, ok := c.mapper.Map(t, false); ok {
			a.Linef("%s.writeInt(%s.getValue());", outVar, v)
			return
		}
	case ir.BitmaskRef:
		if _, ok := c.mapper.Map(t, false); ok {
			a.Linef("%s.writeLong(%s.getValue());", outVar, v)
			return
		}
	case ir.TypedefRef:
		if n.Target == nil {
			break
		}
		if depth >= ir.MaxAliasDepth {
			c.aliasTooDeep(n.Target)
			a.Linef("// %s: alias chain of %s too deep to encode", v, n.Target.Ident)
			return
		}
		c.encode(n.Target.Aliased, v+".getValue()", a, depth+1)
		return
	}
	c.unmapped(t)
	a.Linef("// %s: no wire mapping for %s", v, c.mapper.Describe(t))
}

func primitiveWrite(k ir.PrimitiveKind, v string) (string, bool) {
	switch k {
	case ir.Bool:
		return fmt.Sprintf("%s.writeByte(%s ? 1 : 0);", outVar, v), true
	case ir.Octet, ir.Char:
		return fmt.Sprintf("%s.writeByte(%s);", outVar, v), true
	case ir.Short, ir.UShort:
		return fmt.Sprintf("%s.writeShort(%s);", outVar, v), true
	case ir.Long, ir.ULong:
		return fmt.Sprintf("%s.writeInt(%s);", outVar, v), true
	case ir.LongLong, ir.ULongLong:
		return fmt.Sprintf("%s.writeLong(%s);", outVar, v), true
	case ir.Float:
		return fmt.Sprintf("%s.writeFloat(%s);", outVar, v), true
	case ir.Double:
		return fmt.Sprintf("%s.writeDouble(%s);", outVar, v), true
	}
	return "", false
}

func primitiveRead(k ir.PrimitiveKind) (string, bool) {
	switch k {
	case ir.Bool:
		return inVar + ".readByte() != 0", true
	case ir.Octet, ir.Char:
		return inVar + ".readByte()", true
	case ir.Short:
		return inVar + ".readShort()", true
	case ir.UShort:
		return "(char) " + inVar + ".readShort()", true
	case ir.Long, ir.ULong:
		return inVar + ".readInt()", true
	case ir.LongLong, ir.ULongLong:
		return inVar + ".readLong()", true
	case ir.Float:
		return inVar + ".readFloat()", true
	case ir.Double:
		return inVar + ".readDouble()", true
	}
	return "", false
}

func (c *Codec) encodeString(v string, a *Assembler) {
	bytes := c.temp("b")
	a.Linef("if (%s == null) {", v)
	a.Indent()
	a.Linef("%s.writeInt(-1);", outVar)
	a.Dedent()
	a.Line("} else {")
	a.Indent()
	a.Linef("byte[] %s = %s.getBytes(%s);", bytes, v, utf8Charset)
	a.Linef("%s.writeInt(%s.length);", outVar, bytes)
	a.Linef("%s.writeBytes(%s);", outVar, bytes)
	a.Dedent()
	a.Line("}")
}

func (c *Codec) encodeSequence(s ir.Sequence, v string, a *Assembler, depth int) {
	elemType, _ := c.mapper.Map(s.Elem, !c.mapper.UseArrays)
	size := v + ".size()"
	if c.mapper.UseArrays {
		size = v + ".length"
	}
	elem := c.temp("e")

	a.Linef("if (%s == null) {", v)
	a.Indent()
	a.Linef("%s.writeInt(-1);", outVar)
	a.Dedent()
	a.Line("} else {")
	a.Indent()
	a.Linef("%s.writeInt(%s);", outVar, size)
	a.Block(fmt.Sprintf("for (%s %s : %s)", elemType, elem, v), func() {
		c.encode(s.Elem, elem, a, depth)
	})
	a.Dedent()
	a.Line("}")
}

func (c *Codec) decode(t ir.Type, target string, a *Assembler, depth int) {
	switch n := t.(type) {
	case ir.Primitive:
		if expr, ok := primitiveRead(n.Kind); ok {
			a.Linef("%s = %s;", target, expr)
			return
		}
	case ir.StringType, ir.WideStringType:
		c.decodeString(target, a)
		return
	case ir.Sequence:
		c.decodeSequence(n, target, a, depth)
		return
	case ir.StructRef, ir.UnionRef:
		if name, ok := c.mapper.Map(t, false); ok {
			a.Linef("%s = %s.decode(%s);", target, name, inVar)
			return
		}
	case ir.EnumRef:
		if name, ok := c.mapper.Map(t, false); ok {
			a.Linef("%s = %s.fromValue(%s.readInt());", target, name, inVar)
			return
		}
	case ir.BitmaskRef:
		if name, ok := c.mapper.Map(t, false); ok {
			a.Linef("%s = new %s(%s.readLong());", target, name, inVar)
			return
		}
	case ir.TypedefRef:
		if n.Target == nil {
			break
		}
		if depth >= ir.MaxAliasDepth {
			c.aliasTooDeep(n.Target)
			a.Linef("// %s: alias chain of %s too deep to decode", target, n.Target.Ident)
			a.Linef("%s = null;", target)
			return
		}
		name, _ := c.mapper.Map(t, false)
		aliased, _ := c.mapper.Map(n.Target.Aliased, false)
		tmp := c.temp("a")
		a.Linef("%s %s;", aliased, tmp)
		c.decode(n.Target.Aliased, tmp, a, depth+1)
		a.Linef("%s = new %s(%s);", target, name, tmp)
		return
	}
	c.unmapped(t)
	a.Linef("// %s: no wire mapping for %s", target, c.mapper.Describe(t))
	a.Linef("%s = null;", target)
}

func (c *Codec) decodeString(target string, a *Assembler) {
	n := c.temp("n")
	a.Linef("int %s = %s.readInt();", n, inVar)
	a.Linef("if (%s < 0) {", n)
	a.Indent()
	a.Linef("%s = null;", target)
	a.Dedent()
	a.Line("} else {")
	a.Indent()
	a.Linef("%s = new String(%s.readBytes(%s), %s);", target, inVar, n, utf8Charset)
	a.Dedent()
	a.Line("}")
}

func (c *Codec) decodeSequence(s ir.Sequence, target string, a *Assembler, depth int) {
	n := c.temp("n")
	list := c.temp("l")
	idx := c.temp("i")

	a.Linef("int %s = %s.readInt();", n, inVar)
	a.Linef("if (%s < 0) {", n)
	a.Indent()
	a.Linef("%s = null;", target)
	a.Dedent()
	if !ir.ZeroWidth(s.Elem) {
		a.Linef("} else if (%s > %s.remaining()) {", n, inVar)
		a.Indent()
		a.Linef("throw new IllegalStateException(\"sequence count \" + %s + \" exceeds \" + %s.remaining() + \" remaining bytes\");", n, inVar)
		a.Dedent()
	}
	a.Line("} else {")
	a.Indent()
	loop := fmt.Sprintf("for (int %s = 0; %s < %s; %s++)", idx, idx, n, idx)
	if c.mapper.UseArrays {
		seqType, _ := c.mapper.Map(s, false)
		a.Linef("%s %s = %s;", seqType, list, newArray(seqType, n))
		a.Block(loop, func() {
			c.decode(s.Elem, fmt.Sprintf("%s[%s]", list, idx), a, depth)
		})
	} else {
		seqType, _ := c.mapper.Map(s, false)
		elemType, _ := c.mapper.Map(s.Elem, true)
		elem := c.temp("e")
		a.Linef("%s %s = new java.util.ArrayList<>(%s);", seqType, list, n)
		a.Block(loop, func() {
			a.Linef("%s %s;", elemType, elem)
			c.decode(s.Elem, elem, a, depth)
			a.Linef("%s.add(%s);", list, elem)
		})
	}
	a.Linef("%s = %s;", target, list)
	a.Dedent()
	a.Line("}")
}

// newArray renders an array creation expression for arrayType with n elements
// in the outermost dimension: "int[][]" becomes "new int[n][]".
func newArray(arrayType, n string) string {
	base := strings.TrimSuffix(arrayType, "[]")
	dims := 0
	for strings.HasSuffix(base, "[]") {
		base = strings.TrimSuffix(base, "[]")
		dims++
	}
	return "new " + base + "[" + n + "]" + strings.Repeat("[]", dims)
}

func (c *Codec) aliasTooDeep(td *ir.Typedef) {
	if c.diags == nil {
		return
	}
	c.diags.Warnf(CodeAliasDepth, c.entity, "member %s: alias chain through %s exceeds %d hops",
		c.member, td.Ident, ir.MaxAliasDepth)
}
