package emit

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/namespace"
	"github.com/roach88/idlbind/internal/typemap"
)

// Extension is the file extension of every emitted unit.
const Extension = "java"

// Options is the configuration threaded into every emission.
type Options struct {
	NamespacePrefix string `json:"namespace_prefix,omitempty"` // prepended to every package
	UseArrays       bool   `json:"use_arrays,omitempty"`       // sequences become arrays instead of java.util.List
	DisableCodec    bool   `json:"disable_codec,omitempty"`    // no encode/decode methods and no WireBuffer
	Compact         bool   `json:"compact,omitempty"`          // structs become records
}

// Unit is one emitted source file.
type Unit struct {
	Namespace string  `json:"namespace"`
	Name      string  `json:"name"`
	Kind      ir.Kind `json:"-"`
	Runtime   bool    `json:"runtime,omitempty"`
	Path      string  `json:"path"`
	Content   string  `json:"-"`
}

// Emitter turns declarations into units. It remembers which runtime support
// types the emitted units need so RuntimeUnits can produce exactly those.
// An Emitter is used by one run at a time.
type Emitter struct {
	opts    Options
	mapper  typemap.Mapper
	diags   *Diagnostics
	markers map[Marker]bool
	wire    bool
}

// New returns an Emitter reporting into diags.
func New(opts Options, diags *Diagnostics) *Emitter {
	if diags == nil {
		diags = &Diagnostics{}
	}
	return &Emitter{
		opts:    opts,
		mapper:  typemap.Mapper{UseArrays: opts.UseArrays},
		diags:   diags,
		markers: make(map[Marker]bool),
	}
}

// Options returns the emitter's configuration.
func (e *Emitter) Options() Options { return e.opts }

// Mapper returns the type mapper configured for this emitter.
func (e *Emitter) Mapper() typemap.Mapper { return e.mapper }

// Namespace returns the Java package for def.
func (e *Emitter) Namespace(def ir.Definition) string {
	return namespace.Resolve(def.Declaration(), e.opts.NamespacePrefix)
}

// Name returns the Java type name for def, substituting a fallback for
// anonymous declarations.
func (e *Emitter) Name(def ir.Definition) string {
	if def.Name() == "" {
		return "Unnamed" + typemap.Capitalize(def.Kind().String())
	}
	return typemap.Identifier(def.Name())
}

// Emit produces the unit for def. Modules produce nothing and return nil.
func (e *Emitter) Emit(def ir.Definition) *Unit {
	if def.Kind() == ir.KindModule {
		return nil
	}
	ns := e.Namespace(def)
	name := e.Name(def)
	f := &javaFile{
		e:       e,
		ns:      ns,
		name:    name,
		entity:  entityLabel(def, name),
		imports: make(map[string]bool),
	}
	if def.Name() == "" {
		e.diags.Warnf(CodeUnnamedEntity, f.entity, "anonymous %s emitted as %s", def.Kind(), name)
	}
	switch d := def.(type) {
	case *ir.Struct:
		f.codec = NewCodec(e.mapper, e.diags, f.entity)
		e.emitStruct(f, d)
	case *ir.Union:
		f.codec = NewCodec(e.mapper, e.diags, f.entity)
		e.emitUnion(f, d)
	case *ir.Enum:
		e.emitEnum(f, d)
	case *ir.Bitmask:
		e.emitBitmask(f, d)
	case *ir.Typedef:
		e.emitTypedef(f, d)
	default:
		return nil
	}

	return &Unit{
		Namespace: ns,
		Name:      name,
		Kind:      def.Kind(),
		Path:      namespace.UnitPath(ns, name, Extension),
		Content:   f.render(),
	}
}

func entityLabel(def ir.Definition, name string) string {
	chain := ir.ScopeChain(def.Declaration())
	return strings.Join(append(chain, name), "::")
}

// javaFile collects the pieces of one unit. The body is written first so
// imports can be gathered while it is produced.
type javaFile struct {
	e       *Emitter
	ns      string
	name    string
	entity  string
	imports map[string]bool
	codec   *Codec
	body    Assembler
}

func (f *javaFile) render() string {
	var a Assembler
	a.Linef("package %s;", f.ns)
	a.Blank()
	if len(f.imports) > 0 {
		imports := make([]string, 0, len(f.imports))
		for imp := range f.imports {
			imports = append(imports, imp)
		}
		slices.Sort(imports)
		for _, imp := range imports {
			a.Linef("import %s;", imp)
		}
		a.Blank()
	}
	a.Raw(f.body.String())
	return a.String()
}

func (f *javaFile) importRuntime(name string) {
	ns := namespace.Runtime(f.e.opts.NamespacePrefix)
	if ns != f.ns {
		f.imports[namespace.Qualified(ns, name)] = true
	}
}

// annotate writes the markers for node, one per line, and records their use.
func (f *javaFile) annotate(node ir.Annotated) {
	for _, m := range Tag(node) {
		f.useMarker(m)
		f.body.Linef("@%s", m)
	}
}

// inlineMarkers renders node's markers as a prefix for a record component.
func (f *javaFile) inlineMarkers(node ir.Annotated) string {
	var sb strings.Builder
	for _, m := range Tag(node) {
		f.useMarker(m)
		sb.WriteString("@" + string(m) + " ")
	}
	return sb.String()
}

func (f *javaFile) useMarker(m Marker) {
	f.e.markers[m] = true
	f.importRuntime(string(m))
}

func (f *javaFile) useWire() {
	f.e.wire = true
	f.importRuntime("WireBuffer")
}

// importType adds imports for the declarations t refers to outside this
// package, following typedef hops because decode names every alias it wraps.
func (f *javaFile) importType(t ir.Type) {
	for depth := 0; depth <= ir.MaxAliasDepth && t != nil; depth++ {
		if seq, ok := t.(ir.Sequence); ok {
			t = seq.Elem
			continue
		}
		def := ir.Target(t)
		if def == nil || def.Name() == "" {
			return
		}
		ns := f.e.Namespace(def)
		name := f.e.Name(def)
		if ns != f.ns {
			f.imports[namespace.Qualified(ns, name)] = true
		}
		td, ok := def.(*ir.Typedef)
		if !ok {
			return
		}
		t = td.Aliased
	}
}

// javaType maps t for a declaration, importing what it needs and reporting
// unmapped types against member.
func (f *javaFile) javaType(t ir.Type, boxed bool, member string) string {
	name, ok := f.e.mapper.Map(t, boxed)
	if !ok {
		reportUnmapped(f.e.diags, f.entity, member, f.e.mapper.Describe(t))
	}
	f.importType(t)
	return name
}

// field is a member prepared for emission.
type field struct {
	idl    string  // name as declared; used in FIELD_ORDER and toString
	java   string  // escaped Java identifier
	typ    ir.Type // declared type
	annots ir.Annotated
	jtype  string
}

// shown is one name=value pair of a toString rendering.
type shown struct {
	name string
	expr string
}

// memberName returns a member's declared name, or member<N> with a warning
// when the member is anonymous.
func (f *javaFile) memberName(m *ir.Member, index int) string {
	if m.Name != "" {
		return m.Name
	}
	fallback := fmt.Sprintf("member%d", index)
	f.e.diags.Warnf(CodeUnnamedMember, f.entity, "anonymous member at position %d emitted as %s", index, fallback)
	return fallback
}

func (f *javaFile) fields(members []*ir.Member, boxed bool) []field {
	out := make([]field, 0, len(members))
	for i, m := range members {
		idl := f.memberName(m, i)
		out = append(out, field{
			idl:    idl,
			java:   typemap.Identifier(idl),
			typ:    m.Type,
			annots: m,
			jtype:  f.javaType(m.Type, boxed, idl),
		})
	}
	return out
}

// show renders expr for toString; arrays need java.util.Arrays to print
// their contents.
func (f *javaFile) show(fd field) shown {
	seq, ok := fd.typ.(ir.Sequence)
	if !ok || !f.e.mapper.UseArrays {
		return shown{fd.idl, fd.java}
	}
	elem, _ := f.e.mapper.Map(seq.Elem, false)
	if isJavaPrimitive(elem) {
		return shown{fd.idl, "java.util.Arrays.toString(" + fd.java + ")"}
	}
	return shown{fd.idl, "java.util.Arrays.deepToString(" + fd.java + ")"}
}

func isJavaPrimitive(name string) bool {
	switch name {
	case "boolean", "byte", "short", "char", "int", "long", "float", "double":
		return true
	}
	return false
}

func (f *javaFile) writeToString(label string, parts []shown) {
	a := &f.body
	a.Line("@Override")
	a.Block("public String toString()", func() {
		if len(parts) == 0 {
			a.Linef("return %q;", label+"[]")
			return
		}
		a.Linef("return %q", label+"[")
		a.Indent()
		for i, p := range parts {
			sep := ", "
			if i == 0 {
				sep = ""
			}
			a.Linef("+ %q + %s", sep+p.name+"=", p.expr)
		}
		a.Line(`+ "]";`)
		a.Dedent()
	})
}

func (f *javaFile) writeEquals(exprs []string) {
	a := &f.body
	a.Line("@Override")
	a.Block("public boolean equals(Object o)", func() {
		a.Block("if (this == o)", func() { a.Line("return true;") })
		a.Block(fmt.Sprintf("if (!(o instanceof %s))", f.name), func() { a.Line("return false;") })
		if len(exprs) == 0 {
			a.Line("return true;")
			return
		}
		a.Linef("%s other = (%s) o;", f.name, f.name)
		for i, x := range exprs {
			cmp := fmt.Sprintf("java.util.Objects.deepEquals(this.%s, other.%s)", x, x)
			switch {
			case len(exprs) == 1:
				a.Linef("return %s;", cmp)
			case i == 0:
				a.Linef("return %s", cmp)
				a.Indent()
			case i == len(exprs)-1:
				a.Linef("&& %s;", cmp)
				a.Dedent()
			default:
				a.Linef("&& %s", cmp)
			}
		}
	})
}

func (f *javaFile) writeHashCode(exprs []string) {
	a := &f.body
	a.Line("@Override")
	a.Block("public int hashCode()", func() {
		if len(exprs) == 0 {
			a.Line("return 0;")
			return
		}
		a.Linef("return java.util.Arrays.deepHashCode(new Object[] {%s});", strings.Join(exprs, ", "))
	})
}

func (f *javaFile) writeTopicHelpers() {
	a := &f.body
	a.Block("public byte[] toBytes()", func() {
		a.Linef("WireBuffer %s = new WireBuffer();", outVar)
		a.Linef("encode(%s);", outVar)
		a.Linef("return %s.toByteArray();", outVar)
	})
	a.Blank()
	a.Block(fmt.Sprintf("public static %s fromBytes(byte[] data)", f.name), func() {
		a.Line("return decode(WireBuffer.wrap(data));")
	})
}

func (f *javaFile) writeAccessors(fd field) {
	a := &f.body
	suffix := typemap.Capitalize(fd.java)
	a.Block(fmt.Sprintf("public %s get%s()", fd.jtype, suffix), func() {
		a.Linef("return %s;", fd.java)
	})
	a.Blank()
	a.Block(fmt.Sprintf("public void set%s(%s %s)", suffix, fd.jtype, fd.java), func() {
		a.Linef("this.%s = %s;", fd.java, fd.java)
	})
}
