package emit

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/testutil"
)

func emitOne(t *testing.T, opts Options, tree *ir.Tree, name string) (*Unit, *Diagnostics) {
	t.Helper()
	diags := &Diagnostics{}
	u := New(opts, diags).Emit(testutil.Find(tree, name))
	require.NotNil(t, u, "no unit for %s", name)
	return u, diags
}

func TestEmitGolden(t *testing.T) {
	tests := []struct {
		golden string
		entity string
		opts   Options
	}{
		{"Point", "shapes::Point", Options{}},
		{"PointRecord", "shapes::Point", Options{Compact: true}},
		{"ShapeType", "shapes::ShapeType", Options{}},
		{"Flags", "shapes::Flags", Options{}},
		{"Meters", "shapes::Meters", Options{}},
	}
	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			u, diags := emitOne(t, tt.opts, testutil.Shapes(), tt.entity)
			assert.Empty(t, diags.List())

			g := goldie.New(t,
				goldie.WithFixtureDir("testdata/golden"),
				goldie.WithNameSuffix(".golden"),
			)
			g.Assert(t, tt.golden, []byte(u.Content))
		})
	}
}

func TestEmitUnitMetadata(t *testing.T) {
	u, _ := emitOne(t, Options{}, testutil.Shapes(), "shapes::Point")

	assert.Equal(t, "shapes", u.Namespace)
	assert.Equal(t, "Point", u.Name)
	assert.Equal(t, ir.KindStruct, u.Kind)
	assert.Equal(t, "shapes/Point.java", u.Path)
	assert.False(t, u.Runtime)
}

func TestEmitModuleProducesNothing(t *testing.T) {
	tree := testutil.Shapes()
	e := New(Options{}, nil)
	assert.Nil(t, e.Emit(testutil.Find(tree, "shapes")))
}

func TestEmitRootDeclarationUsesDefaultNamespace(t *testing.T) {
	tree := ir.NewTree("root.yaml")
	tree.Root.Add(testutil.Struct("Loose", testutil.M("a", ir.Prim(ir.Octet))))

	u, _ := emitOne(t, Options{}, tree, "Loose")
	assert.Equal(t, "generated/Loose.java", u.Path)
	assert.True(t, strings.HasPrefix(u.Content, "package generated;\n"))
}

func TestEmitNamespacePrefix(t *testing.T) {
	u, _ := emitOne(t, Options{NamespacePrefix: ".com.example."}, testutil.Shapes(), "shapes::Point")

	assert.Equal(t, "com.example.shapes", u.Namespace)
	assert.Equal(t, "com/example/shapes/Point.java", u.Path)
	assert.Contains(t, u.Content, "package com.example.shapes;\n")
	assert.Contains(t, u.Content, "import com.example.idlbind.runtime.WireBuffer;\n")
}

func TestStructMemberOrderPreserved(t *testing.T) {
	tree := ir.NewTree("order.yaml")
	mod := testutil.Module(tree.Root, "m")
	mod.Add(testutil.Struct("Ordered",
		testutil.M("zeta", ir.Prim(ir.Short)),
		testutil.M("alpha", ir.Prim(ir.Double)),
		testutil.M("mid", ir.Prim(ir.Bool)),
	))

	u, _ := emitOne(t, Options{}, tree, "m::Ordered")
	c := u.Content

	assert.Contains(t, c, `java.util.List.of("zeta", "alpha", "mid")`)
	assert.Contains(t, c, "public Ordered(short zeta, double alpha, boolean mid)")
	assertInOrder(t, c,
		"out.writeShort(this.zeta);",
		"out.writeDouble(this.alpha);",
		"out.writeByte(this.mid ? 1 : 0);",
	)
	assertInOrder(t, c,
		"value.zeta = in.readShort();",
		"value.alpha = in.readDouble();",
		"value.mid = in.readByte() != 0;",
	)
	assertInOrder(t, c, `"zeta=" + zeta`, `", alpha=" + alpha`, `", mid=" + mid`)
}

func TestStructZeroMembers(t *testing.T) {
	tree := ir.NewTree("empty.yaml")
	mod := testutil.Module(tree.Root, "m")
	mod.Add(testutil.Struct("Empty"))

	u, _ := emitOne(t, Options{}, tree, "m::Empty")
	c := u.Content

	assert.Contains(t, c, "java.util.List.of();")
	assert.Equal(t, 1, strings.Count(c, "public Empty("), "only the no-arg constructor")
	assert.Contains(t, c, "return 0;")
	assert.Contains(t, c, `return "Empty[]";`)
	assert.Contains(t, c, "public void encode(WireBuffer out) {\n    }")
}

func TestStructReferencesAndAnnotations(t *testing.T) {
	u, _ := emitOne(t, Options{}, testutil.Shapes(), "shapes::Drawing")
	c := u.Content

	assert.Contains(t, c, "import idlbind.runtime.Key;\nimport idlbind.runtime.Topic;\nimport idlbind.runtime.WireBuffer;\n")
	assert.Contains(t, c, "@Topic\npublic final class Drawing implements java.io.Serializable {")
	assert.Contains(t, c, "    @Key\n    private int id = 0;")
	assert.Contains(t, c, "private java.util.List<Shape> shapes = null;")
	assert.Contains(t, c, "private Flags flags = new Flags();")
	assert.Contains(t, c, "private ShapeType kind = ShapeType.CIRCLE;")

	assert.Contains(t, c, "for (Shape e$0 : this.shapes) {")
	assert.Contains(t, c, "e$0.encode(out);")
	assert.Contains(t, c, "out.writeLong(this.flags.getValue());")
	assert.Contains(t, c, "out.writeInt(this.kind.getValue());")
	assert.Contains(t, c, "e$4 = Shape.decode(in);")
	assert.Contains(t, c, "value.flags = new Flags(in.readLong());")
	assert.Contains(t, c, "value.kind = ShapeType.fromValue(in.readInt());")
	assert.Contains(t, c, "public byte[] toBytes()")
}

func TestNestedStructHasNoTopicHelpers(t *testing.T) {
	u, _ := emitOne(t, Options{}, testutil.Shapes(), "shapes::Circle")
	c := u.Content

	assert.Contains(t, c, "import idlbind.runtime.Nested;")
	assert.Contains(t, c, "@Nested\npublic final class Circle implements java.io.Serializable {")
	assert.NotContains(t, c, "toBytes")
	assert.NotContains(t, c, "fromBytes")

	assert.Contains(t, c, "private Meters radius = new Meters();")
	assert.Contains(t, c, "out.writeDouble(this.radius.getValue());")
	assertInOrder(t, c, "double a$0;", "a$0 = in.readDouble();", "value.radius = new Meters(a$0);")
}

func TestCompactStructIsRecord(t *testing.T) {
	u, _ := emitOne(t, Options{Compact: true}, testutil.Shapes(), "shapes::Drawing")
	c := u.Content

	assert.Contains(t, c, "public record Drawing(@Key int id, java.util.List<Shape> shapes, Flags flags, ShapeType kind) implements java.io.Serializable {")
	assert.Contains(t, c, "return new Drawing(id$, shapes$, flags$, kind$);")
	assert.NotContains(t, c, "public boolean equals")
	assert.NotContains(t, c, "public int hashCode")
	assert.NotContains(t, c, "getId()")
	assert.Contains(t, c, "public String toString()")
}

func TestDisableCodec(t *testing.T) {
	tree := testutil.Shapes()
	e := New(Options{DisableCodec: true}, nil)

	for _, name := range []string{"shapes::Point", "shapes::Shape"} {
		u := e.Emit(testutil.Find(tree, name))
		require.NotNil(t, u)
		assert.NotContains(t, u.Content, "WireBuffer")
		assert.NotContains(t, u.Content, "encode(")
		assert.NotContains(t, u.Content, "decode(")
	}
	assert.Empty(t, e.RuntimeUnits())
}

func TestUseArrays(t *testing.T) {
	tree := ir.NewTree("arrays.yaml")
	mod := testutil.Module(tree.Root, "m")
	mod.Add(testutil.Struct("Grid",
		testutil.M("row", ir.SeqOf(ir.Prim(ir.Long))),
		testutil.M("cells", ir.SeqOf(ir.SeqOf(ir.Prim(ir.Float)))),
	))

	u, _ := emitOne(t, Options{UseArrays: true}, tree, "m::Grid")
	c := u.Content

	assert.Contains(t, c, "private int[] row = null;")
	assert.Contains(t, c, "private float[][] cells = null;")
	assert.Contains(t, c, "out.writeInt(this.row.length);")
	assert.Contains(t, c, "for (int e$0 : this.row) {")
	assert.Contains(t, c, "int[] l$")
	assert.Contains(t, c, "= new int[n$")
	assert.Contains(t, c, "= new float[n$")
	assert.Contains(t, c, "][];")
	assert.Contains(t, c, `java.util.Arrays.toString(row)`)
	assert.Contains(t, c, `java.util.Arrays.deepToString(cells)`)
}

func TestKeywordIdentifiersEscaped(t *testing.T) {
	tree := ir.NewTree("kw.yaml")
	mod := testutil.Module(tree.Root, "package")
	mod.Add(testutil.Struct("class", testutil.M("int", ir.Prim(ir.Long))))

	u, _ := emitOne(t, Options{}, tree, "package::class")
	c := u.Content

	assert.Equal(t, "package_/class_.java", u.Path)
	assert.Contains(t, c, "package package_;")
	assert.Contains(t, c, "public final class class_ implements java.io.Serializable {")
	assert.Contains(t, c, "private int int_ = 0;")
	assert.Contains(t, c, `java.util.List.of("int")`)
	assert.Contains(t, c, "public int getInt_()")
}

func TestImportsAcrossNamespaces(t *testing.T) {
	tree := ir.NewTree("multi.yaml")
	geo := testutil.Module(tree.Root, "geo")
	point := testutil.Struct("Point", testutil.M("x", ir.Prim(ir.Long)))
	geo.Add(point)
	dist := &ir.Typedef{Decl: ir.Decl{Ident: "Distance"}, Aliased: ir.RefTo(point)}
	geo.Add(dist)

	app := testutil.Module(tree.Root, "app")
	app.Add(testutil.Struct("Route",
		testutil.M("stops", ir.SeqOf(ir.RefTo(point))),
		testutil.M("length", ir.RefTo(dist)),
	))

	u, _ := emitOne(t, Options{}, tree, "app::Route")
	assert.Contains(t, u.Content, "import geo.Distance;\nimport geo.Point;\nimport idlbind.runtime.WireBuffer;\n")
}

func TestAnonymousFallbacks(t *testing.T) {
	tree := ir.NewTree("anon.yaml")
	mod := testutil.Module(tree.Root, "m")
	mod.Add(testutil.Struct("", testutil.M("", ir.Prim(ir.Long))))

	diags := &Diagnostics{}
	e := New(Options{}, diags)
	u := e.Emit(mod.Definitions[0])
	require.NotNil(t, u)

	assert.Equal(t, "UnnamedStruct", u.Name)
	assert.Contains(t, u.Content, "private int member0 = 0;")

	codes := diagCodes(diags)
	assert.Equal(t, []string{CodeUnnamedEntity, CodeUnnamedMember}, codes)
	assert.Equal(t, "m::UnnamedStruct", diags.List()[0].Entity)
}

func TestUnmappedMemberWarnsOnce(t *testing.T) {
	tree := ir.NewTree("unmapped.yaml")
	mod := testutil.Module(tree.Root, "m")
	mod.Add(testutil.Struct("Holder", testutil.M("bad", nil), testutil.M("ok", ir.Prim(ir.Long))))

	u, diags := emitOne(t, Options{}, tree, "m::Holder")
	c := u.Content

	require.Len(t, diags.List(), 1)
	d := diags.List()[0]
	assert.Equal(t, CodeUnmappedType, d.Code)
	assert.Equal(t, SeverityWarning, d.Severity)
	assert.Equal(t, "m::Holder", d.Entity)
	assert.Equal(t, "member bad: type <unset> has no mapping", d.Message)

	assert.Contains(t, c, "private Object bad = null;")
	assert.Contains(t, c, "// this.bad: no wire mapping for <unset>")
	assert.Contains(t, c, "value.bad = null;")
	assert.Contains(t, c, "out.writeInt(this.ok);")
}

func TestRuntimeUnits(t *testing.T) {
	tree := testutil.Shapes()
	e := New(Options{NamespacePrefix: "org.acme"}, nil)
	tree.Walk(func(def ir.Definition) bool {
		e.Emit(def)
		return true
	})

	units := e.RuntimeUnits()
	names := make([]string, len(units))
	for i, u := range units {
		names[i] = u.Name
		assert.True(t, u.Runtime)
		assert.Equal(t, "org.acme.idlbind.runtime", u.Namespace)
	}
	assert.Equal(t, []string{"WireBuffer", "Key", "Topic", "Nested"}, names)
	assert.Equal(t, "org/acme/idlbind/runtime/WireBuffer.java", units[0].Path)
	assert.True(t, strings.HasPrefix(units[0].Content, "package org.acme.idlbind.runtime;\n\n"))
	assert.Contains(t, units[0].Content, "public final class WireBuffer {")
	assert.Contains(t, units[1].Content, "@Retention(RetentionPolicy.RUNTIME)")
	assert.Contains(t, units[1].Content, "public @interface Key {\n}\n")
}

func TestRuntimeUnitsNoneBeforeEmission(t *testing.T) {
	assert.Empty(t, New(Options{}, nil).RuntimeUnits())
}

func TestEmitDeterministic(t *testing.T) {
	render := func() []string {
		tree := testutil.Shapes()
		e := New(Options{}, nil)
		var out []string
		tree.Walk(func(def ir.Definition) bool {
			if u := e.Emit(def); u != nil {
				out = append(out, u.Path, u.Content)
			}
			return true
		})
		return out
	}
	assert.Equal(t, render(), render())
}

func assertInOrder(t *testing.T, s string, parts ...string) {
	t.Helper()
	pos := 0
	for _, p := range parts {
		i := strings.Index(s[pos:], p)
		if !assert.GreaterOrEqual(t, i, 0, "%q missing or out of order", p) {
			return
		}
		pos += i + len(p)
	}
}

func diagCodes(d *Diagnostics) []string {
	var codes []string
	for _, diag := range d.List() {
		codes = append(codes, diag.Code)
	}
	return codes
}
