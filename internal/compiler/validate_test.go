package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/testutil"
)

func TestValidate_Shapes(t *testing.T) {
	assert.Empty(t, Validate(testutil.Shapes()))
}

func TestValidate_NilTree(t *testing.T) {
	assert.Empty(t, Validate(nil))
}

func TestValidate_DuplicateNames(t *testing.T) {
	tree, errs := buildYAML(t, `
definitions:
  - kind: module
    name: m
    definitions:
      - { kind: struct, name: A }
      - { kind: enum, name: A, enumerators: [X, Y, X] }
      - { kind: bitmask, name: F, bits: [ON, ON] }
      - kind: struct
        name: S
        members:
          - { name: a, type: long }
          - { name: a, type: short }
      - kind: union
        name: U
        discriminator: long
        cases:
          - { labels: [1], member: { name: v, type: long } }
          - { labels: [2], member: { name: v, type: long } }
`)
	require.Empty(t, errs)

	verrs := Validate(tree)
	require.Equal(t, []string{ErrDuplicateName, ErrDuplicateName, ErrDuplicateName, ErrDuplicateName, ErrDuplicateName}, codes(verrs))
	assert.Equal(t, "m::A", verrs[0].Field)
	assert.Contains(t, verrs[0].Message, `enum "A" already declared as struct`)
	assert.Equal(t, "m::A.enumerators[2]", verrs[1].Field)
	assert.Equal(t, "m::F.bits[1]", verrs[2].Field)
	assert.Equal(t, "m::S.members[1]", verrs[3].Field)
	assert.Equal(t, "m::U.cases[1]", verrs[4].Field)
}

func TestValidate_InvalidNames(t *testing.T) {
	tree, errs := buildYAML(t, `
definitions:
  - kind: module
    name: m
    definitions:
      - { kind: struct, name: Bad$Name }
      - { kind: enum, name: Kind, enumerators: [value, value$] }
      - { kind: bitmask, name: Bits, bits: [value, "1st"] }
      - kind: struct
        name: S
        members:
          - { name: a-b, type: long }
`)
	require.Empty(t, errs)

	verrs := Validate(tree)
	require.Equal(t, []string{ErrInvalidName, ErrInvalidName, ErrInvalidName, ErrInvalidName}, codes(verrs))
	assert.Equal(t, "m::Bad$Name", verrs[0].Field)
	assert.Contains(t, verrs[0].Message, `struct name "Bad$Name" is not an identifier`)
	assert.Equal(t, "m::Kind.enumerators[1]", verrs[1].Field)
	assert.Equal(t, "m::Bits.bits[1]", verrs[2].Field)
	assert.Equal(t, "m::S.members[0]", verrs[3].Field)
}

func TestValidate_ReopenedModulesAreNotDuplicates(t *testing.T) {
	tree := ir.NewTree("t")
	testutil.Module(tree.Root, "m")
	testutil.Module(tree.Root, "m")
	assert.Empty(t, Validate(tree))
}

func TestValidate_UnionLabels(t *testing.T) {
	tests := []struct {
		name    string
		disc    ir.Type
		cases   []*ir.Case
		codes   []string
		message string
	}{
		{
			name: "distinct labels",
			disc: ir.Prim(ir.Long),
			cases: []*ir.Case{
				{Labels: []int64{1, 2}, Member: testutil.M("a", ir.Prim(ir.Long))},
				{Labels: []int64{3}, Member: testutil.M("b", ir.Prim(ir.Long))},
				{IsDefault: true, Member: testutil.M("c", ir.Prim(ir.Long))},
			},
		},
		{
			name: "repeated label",
			disc: ir.Prim(ir.Long),
			cases: []*ir.Case{
				{Labels: []int64{1}, Member: testutil.M("a", ir.Prim(ir.Long))},
				{Labels: []int64{1}, Member: testutil.M("b", ir.Prim(ir.Long))},
			},
			codes:   []string{ErrLabelConflict},
			message: "label 1 already selects case 0",
		},
		{
			name: "labels equal after narrowing",
			disc: ir.Prim(ir.Octet),
			cases: []*ir.Case{
				{Labels: []int64{-1}, Member: testutil.M("a", ir.Prim(ir.Long))},
				{Labels: []int64{255}, Member: testutil.M("b", ir.Prim(ir.Long))},
			},
			codes:   []string{ErrLabelConflict},
			message: "label 255 already selects case 0",
		},
		{
			name: "label out of range",
			disc: ir.Prim(ir.Short),
			cases: []*ir.Case{
				{Labels: []int64{70000}, Member: testutil.M("a", ir.Prim(ir.Long))},
			},
			codes:   []string{ErrLabelConflict},
			message: "label 70000 does not fit a 2-byte discriminator",
		},
		{
			name: "unsigned reading fits",
			disc: ir.Prim(ir.UShort),
			cases: []*ir.Case{
				{Labels: []int64{65535}, Member: testutil.M("a", ir.Prim(ir.Long))},
			},
		},
		{
			name: "boolean label other than 0 or 1",
			disc: ir.Prim(ir.Bool),
			cases: []*ir.Case{
				{Labels: []int64{2}, Member: testutil.M("a", ir.Prim(ir.Long))},
			},
			codes: []string{ErrLabelConflict},
		},
		{
			name: "two defaults",
			disc: ir.Prim(ir.Long),
			cases: []*ir.Case{
				{IsDefault: true, Member: testutil.M("a", ir.Prim(ir.Long))},
				{IsDefault: true, Member: testutil.M("b", ir.Prim(ir.Long))},
			},
			codes:   []string{ErrLabelConflict},
			message: "union has more than one default case",
		},
		{
			name: "long long labels are never out of range",
			disc: ir.Prim(ir.LongLong),
			cases: []*ir.Case{
				{Labels: []int64{-1 << 62, 1 << 62}, Member: testutil.M("a", ir.Prim(ir.Long))},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := ir.NewTree("t")
			tree.Root.Add(&ir.Union{Decl: ir.Decl{Ident: "U"}, Discriminant: tt.disc, Cases: tt.cases})

			errs := Validate(tree)
			if len(tt.codes) == 0 {
				assert.Empty(t, errs)
				return
			}
			require.Equal(t, tt.codes, codes(errs))
			if tt.message != "" {
				assert.Equal(t, tt.message, errs[0].Message)
			}
		})
	}
}

func TestValidate_AliasCycles(t *testing.T) {
	tree, errs := buildYAML(t, `
definitions:
  - { kind: typedef, name: A, type: B }
  - { kind: typedef, name: B, type: "sequence<C>" }
  - { kind: typedef, name: C, type: A }
  - { kind: typedef, name: Self, type: Self }
  - { kind: typedef, name: Fine, type: C }
`)
	require.Empty(t, errs)

	verrs := Validate(tree)
	require.Equal(t, []string{ErrAliasCycle, ErrAliasCycle}, codes(verrs))
	messages := []string{verrs[0].Message, verrs[1].Message}
	assert.Contains(t, messages, "typedef alias cycle: A → B → C → A")
	assert.Contains(t, messages, "typedef alias cycle: Self → Self")
}

func TestValidate_AliasThroughStructIsNotACycle(t *testing.T) {
	tree, errs := buildYAML(t, `
definitions:
  - { kind: typedef, name: List, type: "sequence<Node>" }
  - kind: struct
    name: Node
    members: [{ name: next, type: List }]
`)
	require.Empty(t, errs)
	assert.Empty(t, Validate(tree))
}

func TestCompileDocument(t *testing.T) {
	doc, err := LoadYAML([]byte(testutil.ShapesYAML), "shapes.yaml")
	require.NoError(t, err)

	result := CompileDocument(doc, "shapes.yaml")
	assert.True(t, result.OK())
	assert.Empty(t, result.Cycles)
	assert.Equal(t, "shapes.yaml", result.Tree.Source)
}

func TestCompileDocument_CollectsBuildAndTreeErrors(t *testing.T) {
	doc, err := LoadYAML([]byte(`
definitions:
  - { kind: struct, name: S, members: [{ name: a, type: Missing }] }
  - { kind: struct, name: S }
`), "bad.yaml")
	require.NoError(t, err)

	result := CompileDocument(doc, "bad.yaml")
	assert.False(t, result.OK())
	assert.Equal(t, []string{ErrUnresolvedType, ErrDuplicateName}, codes(result.Errors))
}
