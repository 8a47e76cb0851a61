package emit

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/testutil"
)

func TestTag(t *testing.T) {
	m := testutil.M("id", ir.Prim(ir.Long), "key", "doc", "optional", "key", "id")
	assert.Equal(t, []Marker{MarkerKey, MarkerOptional, MarkerIDLEntity}, Tag(m))
	assert.Empty(t, Tag(testutil.M("plain", ir.Prim(ir.Long))))
	assert.Nil(t, Tag(nil))
}

func TestIsTopic(t *testing.T) {
	tests := []struct {
		annots []string
		want   bool
	}{
		{nil, true},
		{[]string{"topic"}, true},
		{[]string{"nested"}, false},
		{[]string{"nested", "topic"}, true},
	}
	for _, tt := range tests {
		s := testutil.Struct("S")
		s.Annots = testutil.Annot(tt.annots...)
		assert.Equal(t, tt.want, IsTopic(s), "%v", tt.annots)
	}
}

func TestEnumOrdinalsArePositional(t *testing.T) {
	five, nine := int64(5), int64(9)
	tree := ir.NewTree("e.yaml")
	mod := testutil.Module(tree.Root, "m")
	mod.Add(&ir.Enum{Decl: ir.Decl{Ident: "Level"}, Enumerators: []ir.Enumerator{
		{Name: "LOW", Value: &nine},
		{Name: ""},
		{Name: "HIGH", Value: &five},
	}})

	u, diags := emitOne(t, Options{}, tree, "m::Level")
	c := u.Content

	assert.Contains(t, c, "    LOW(0),\n    VALUE1(1),\n    HIGH(2);\n")
	assert.Equal(t, []string{CodeUnnamedMember}, diagCodes(diags))
	assert.NotContains(t, c, "WireBuffer")
}

func TestEnumEmpty(t *testing.T) {
	tree := ir.NewTree("e.yaml")
	mod := testutil.Module(tree.Root, "m")
	mod.Add(&ir.Enum{Decl: ir.Decl{Ident: "Void"}})

	u, _ := emitOne(t, Options{}, tree, "m::Void")
	assert.Contains(t, u.Content, "public enum Void {\n    ;\n")
}

func TestBitConstant(t *testing.T) {
	tests := []struct {
		pos  int
		want string
		ok   bool
	}{
		{0, "1L", true},
		{1, "2L", true},
		{62, "4611686018427387904L", true},
		{63, "Long.MIN_VALUE", true},
		{64, "", false},
		{-1, "", false},
	}
	for _, tt := range tests {
		got, ok := BitConstant(tt.pos)
		assert.Equal(t, tt.ok, ok, "position %d", tt.pos)
		assert.Equal(t, tt.want, got, "position %d", tt.pos)
	}
}

func TestBitmaskOverflow(t *testing.T) {
	bits := make([]string, 66)
	for i := range bits {
		bits[i] = fmt.Sprintf("B%d", i)
	}
	bits[5] = ""
	tree := ir.NewTree("b.yaml")
	mod := testutil.Module(tree.Root, "m")
	mod.Add(&ir.Bitmask{Decl: ir.Decl{Ident: "Wide"}, Bits: bits})

	u, diags := emitOne(t, Options{}, tree, "m::Wide")
	c := u.Content

	assert.Contains(t, c, "public static final long B0 = 1L;")
	assert.Contains(t, c, "public static final long BIT5 = 32L;")
	assert.Contains(t, c, "public static final long B63 = Long.MIN_VALUE;")
	assert.NotContains(t, c, "B64")
	assert.NotContains(t, c, "B65")
	assert.Equal(t, 64, strings.Count(c, "public static final long "))

	codes := diagCodes(diags)
	assert.Equal(t, []string{CodeUnnamedMember, CodeBitmaskOverflow, CodeBitmaskOverflow}, codes)
}

func TestBitmaskEmpty(t *testing.T) {
	tree := ir.NewTree("b.yaml")
	mod := testutil.Module(tree.Root, "m")
	mod.Add(&ir.Bitmask{Decl: ir.Decl{Ident: "None"}})

	u, _ := emitOne(t, Options{}, tree, "m::None")
	assert.Contains(t, u.Content, "public final class None implements java.io.Serializable {\n\n    private long value$;\n")
}

func TestEnumeratorNamedValue(t *testing.T) {
	tree := ir.NewTree("e.yaml")
	mod := testutil.Module(tree.Root, "m")
	mod.Add(&ir.Enum{Decl: ir.Decl{Ident: "Kind"}, Enumerators: []ir.Enumerator{
		{Name: "value"},
		{Name: "other"},
	}})

	u, diags := emitOne(t, Options{}, tree, "m::Kind")
	c := u.Content

	assert.Empty(t, diags.List())
	assert.Contains(t, c, "    value(0),\n    other(1);\n")
	assert.Contains(t, c, "private final int value$;")
	assert.NotContains(t, c, "int value;")
	assert.Contains(t, c, "if (e.value$ == value) {")
	assert.Contains(t, c, "public int getValue() {\n        return value$;\n")
}

func TestBitNamedValue(t *testing.T) {
	tree := ir.NewTree("b.yaml")
	mod := testutil.Module(tree.Root, "m")
	mod.Add(&ir.Bitmask{Decl: ir.Decl{Ident: "Bits"}, Bits: []string{"value"}})

	u, _ := emitOne(t, Options{}, tree, "m::Bits")
	c := u.Content

	assert.Equal(t, 1, strings.Count(c, "long value ="))
	assert.Contains(t, c, "public static final long value = 1L;")
	assert.Contains(t, c, "private long value$;")
	assert.NotContains(t, c, "long value;")
	assert.Contains(t, c, "public void setValue(long value) {\n        this.value$ = value;\n")
	assert.Contains(t, c, "return (value$ & flag) == flag;")
}

func TestTypedefWrappers(t *testing.T) {
	tree := ir.NewTree("t.yaml")
	mod := testutil.Module(tree.Root, "m")
	names := &ir.Typedef{Decl: ir.Decl{Ident: "Names"}, Aliased: ir.SeqOf(ir.StringType{})}
	mod.Add(names)
	mod.Add(&ir.Typedef{Decl: ir.Decl{Ident: "Roster"}, Aliased: ir.RefTo(names)})

	e := New(Options{}, nil)
	u := e.Emit(testutil.Find(tree, "m::Names"))
	require.NotNil(t, u)
	assert.Contains(t, u.Content, "private java.util.List<String> value = null;")
	assert.Contains(t, u.Content, "public Names(java.util.List<String> value) {")
	assert.NotContains(t, u.Content, "encode")

	u = e.Emit(testutil.Find(tree, "m::Roster"))
	require.NotNil(t, u)
	assert.Contains(t, u.Content, "private Names value = new Names();")
	assert.Contains(t, u.Content, "public Names getValue()")
	assert.Empty(t, e.RuntimeUnits())
}
