// Package testutil provides fixture type trees and deterministic helpers for
// tests across idlbind packages.
package testutil

import (
	"github.com/roach88/idlbind/internal/ir"
)

// Annot builds an annotation list from names.
func Annot(names ...string) []ir.Annotation {
	out := make([]ir.Annotation, len(names))
	for i, n := range names {
		out[i] = ir.Annotation{Name: n}
	}
	return out
}

// Struct builds a struct with members given as name/type pairs.
func Struct(name string, members ...*ir.Member) *ir.Struct {
	return &ir.Struct{Decl: ir.Decl{Ident: name}, Members: members}
}

// M builds a member.
func M(name string, t ir.Type, annots ...string) *ir.Member {
	return &ir.Member{Name: name, Type: t, Annots: Annot(annots...)}
}

// Module builds a named module under parent. A nil parent makes a detached
// module.
func Module(parent *ir.Module, name string) *ir.Module {
	m := &ir.Module{Decl: ir.Decl{Ident: name}}
	if parent != nil {
		parent.Add(m)
	}
	return m
}

// Shapes returns the reference fixture:
//
//	module shapes {
//	  struct Point { long x; long y; };
//	  enum ShapeType { CIRCLE, SQUARE, TRIANGLE };
//	  @nested struct Circle { Point center; Meters radius; };
//	  typedef double Meters;
//	  bitmask Flags { FAST, WIDE };
//	  union Shape switch (ShapeType) {
//	    case CIRCLE: Circle circle;
//	    case SQUARE: case TRIANGLE: sequence<Point> vertices;
//	    default: string label;
//	  };
//	  struct Name { string label; };
//	  @topic struct Drawing { @key long id; sequence<Shape> shapes; Flags flags; ShapeType kind; };
//	};
func Shapes() *ir.Tree {
	tree := ir.NewTree("shapes.yaml")
	shapes := Module(tree.Root, "shapes")

	point := Struct("Point", M("x", ir.Prim(ir.Long)), M("y", ir.Prim(ir.Long)))
	shapes.Add(point)

	kind := &ir.Enum{Decl: ir.Decl{Ident: "ShapeType"}, Enumerators: []ir.Enumerator{
		{Name: "CIRCLE"}, {Name: "SQUARE"}, {Name: "TRIANGLE"},
	}}
	shapes.Add(kind)

	meters := &ir.Typedef{Decl: ir.Decl{Ident: "Meters"}, Aliased: ir.Prim(ir.Double)}

	circle := Struct("Circle", M("center", ir.RefTo(point)), M("radius", ir.RefTo(meters)))
	circle.Annots = Annot("nested")
	shapes.Add(circle)
	shapes.Add(meters)

	flags := &ir.Bitmask{Decl: ir.Decl{Ident: "Flags"}, Bits: []string{"FAST", "WIDE"}}
	shapes.Add(flags)

	shape := &ir.Union{
		Decl:         ir.Decl{Ident: "Shape"},
		Discriminant: ir.RefTo(kind),
		Cases: []*ir.Case{
			{Labels: []int64{0}, Member: M("circle", ir.RefTo(circle))},
			{Labels: []int64{1, 2}, Member: M("vertices", ir.SeqOf(ir.RefTo(point)))},
			{IsDefault: true, Member: M("label", ir.StringType{})},
		},
	}
	shapes.Add(shape)

	shapes.Add(Struct("Name", M("label", ir.StringType{})))

	drawing := Struct("Drawing",
		M("id", ir.Prim(ir.Long), "key"),
		M("shapes", ir.SeqOf(ir.RefTo(shape))),
		M("flags", ir.RefTo(flags)),
		M("kind", ir.RefTo(kind)),
	)
	drawing.Annots = Annot("topic")
	shapes.Add(drawing)

	return tree
}

// Find resolves a scoped name such as "shapes::Point" from the tree root and
// panics when it is missing. Use only with fixtures.
func Find(tree *ir.Tree, name string) ir.Definition {
	def := ir.Lookup(tree.Root, name)
	if def == nil {
		panic("testutil: no definition " + name)
	}
	return def
}

// ShapesYAML is the Shapes fixture as a tree document.
const ShapesYAML = `ir_version: "1.0.0"
definitions:
  - kind: module
    name: shapes
    definitions:
      - kind: struct
        name: Point
        members:
          - { name: x, type: long }
          - { name: y, type: long }
      - kind: enum
        name: ShapeType
        enumerators: [CIRCLE, SQUARE, TRIANGLE]
      - kind: struct
        name: Circle
        annotations: [nested]
        members:
          - { name: center, type: Point }
          - { name: radius, type: Meters }
      - kind: typedef
        name: Meters
        type: double
      - kind: bitmask
        name: Flags
        bits: [FAST, WIDE]
      - kind: union
        name: Shape
        discriminator: ShapeType
        cases:
          - { labels: [CIRCLE], member: { name: circle, type: Circle } }
          - { labels: [SQUARE, TRIANGLE], member: { name: vertices, type: "sequence<Point>" } }
          - { default: true, member: { name: label, type: string } }
      - kind: struct
        name: Name
        members:
          - { name: label, type: string }
      - kind: struct
        name: Drawing
        annotations: [topic]
        members:
          - { name: id, type: long, annotations: [key] }
          - { name: shapes, type: "sequence<Shape>" }
          - { name: flags, type: Flags }
          - { name: kind, type: ShapeType }
`
