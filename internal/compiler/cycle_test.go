package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/testutil"
)

// TestAnalyzeCycles_Empty tests that an empty tree produces no notes.
func TestAnalyzeCycles_Empty(t *testing.T) {
	notes := AnalyzeCycles(ir.NewTree("empty"))
	assert.Empty(t, notes)
}

// TestAnalyzeCycles_DAG tests that the acyclic fixture produces no notes.
func TestAnalyzeCycles_DAG(t *testing.T) {
	assert.Empty(t, AnalyzeCycles(testutil.Shapes()))
}

// TestAnalyzeCycles_SelfLoopThroughSequence tests a tree node holding its children.
func TestAnalyzeCycles_SelfLoopThroughSequence(t *testing.T) {
	tree, errs := buildYAML(t, `
definitions:
  - kind: module
    name: fs
    definitions:
      - kind: struct
        name: Dir
        members:
          - { name: name, type: string }
          - { name: children, type: "sequence<Dir>" }
`)
	require.Empty(t, errs)

	notes := AnalyzeCycles(tree)
	require.Len(t, notes, 1)
	assert.Equal(t, []string{"fs::Dir", "fs::Dir"}, notes[0].Path)
	assert.Equal(t, "info", notes[0].Level)
	assert.Equal(t, "recursive types: fs::Dir → fs::Dir", notes[0].Message)
}

// TestAnalyzeCycles_DirectContainment tests structs that contain each other by value.
func TestAnalyzeCycles_DirectContainment(t *testing.T) {
	tree, errs := buildYAML(t, `
definitions:
  - { kind: struct, name: A, members: [{ name: b, type: B }] }
  - { kind: typedef, name: AliasA, type: A }
  - { kind: struct, name: B, members: [{ name: a, type: AliasA }] }
`)
	require.Empty(t, errs)

	notes := AnalyzeCycles(tree)
	require.Len(t, notes, 1)
	assert.Equal(t, []string{"A", "B", "A"}, notes[0].Path)
	assert.Equal(t, "warning", notes[0].Level)
}

// TestAnalyzeCycles_ThroughUnion tests that a union on the path makes the cycle soft.
func TestAnalyzeCycles_ThroughUnion(t *testing.T) {
	tree, errs := buildYAML(t, `
definitions:
  - kind: union
    name: Expr
    discriminator: octet
    cases:
      - { labels: [0], member: { name: value, type: long } }
      - { labels: [1], member: { name: neg, type: Neg } }
  - kind: struct
    name: Neg
    members: [{ name: operand, type: Expr }]
`)
	require.Empty(t, errs)

	notes := AnalyzeCycles(tree)
	require.Len(t, notes, 1)
	assert.Equal(t, []string{"Expr", "Neg", "Expr"}, notes[0].Path)
	assert.Equal(t, "info", notes[0].Level)
}

// TestAnalyzeCycles_Deterministic tests that repeated analysis gives identical output.
func TestAnalyzeCycles_Deterministic(t *testing.T) {
	tree, errs := buildYAML(t, `
definitions:
  - { kind: struct, name: A, members: [{ name: b, type: "sequence<B>" }] }
  - { kind: struct, name: B, members: [{ name: c, type: C }] }
  - { kind: struct, name: C, members: [{ name: a, type: A }, { name: c, type: "sequence<C>" }] }
  - { kind: struct, name: D, members: [{ name: d, type: "sequence<D>" }] }
`)
	require.Empty(t, errs)

	first := AnalyzeCycles(tree)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AnalyzeCycles(tree))
	}
	require.Len(t, first, 2)
	assert.Equal(t, []string{"A", "B", "C", "A"}, first[0].Path)
	assert.Equal(t, "info", first[0].Level)
	assert.Equal(t, []string{"D", "D"}, first[1].Path)
}

func TestTarjanSCC(t *testing.T) {
	// 0 -> 1 -> 2 -> 0, 3 -> 3, 4 -> 0
	adj := [][]int{{1}, {2}, {0}, {3}, {0}}
	sccs := tarjanSCC(adj)

	var sizes []int
	for _, scc := range sccs {
		sizes = append(sizes, len(scc))
	}
	assert.ElementsMatch(t, []int{3, 1, 1}, sizes)
	assert.Equal(t, []int{0, 1, 2, 0}, reconstructCyclePath([]int{2, 1, 0}, adj))
	assert.Equal(t, []int{3, 3}, reconstructCyclePath([]int{3}, adj))
}
