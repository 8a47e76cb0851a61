package ir

import "fmt"

// Kind identifies the variant of a Definition.
type Kind int

const (
	KindModule Kind = iota
	KindStruct
	KindUnion
	KindEnum
	KindBitmask
	KindTypedef
)

var kindNames = map[Kind]string{
	KindModule:  "module",
	KindStruct:  "struct",
	KindUnion:   "union",
	KindEnum:    "enum",
	KindBitmask: "bitmask",
	KindTypedef: "typedef",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind returns the Kind for a document keyword.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Annotation is a metadata tag attached to a declaration or member.
type Annotation struct {
	Name string `json:"name"`
}

// Annotated is implemented by every tree node that can carry annotations.
type Annotated interface {
	Annotations() []Annotation
}

// HasAnnotation reports whether node carries an annotation with the given name.
func HasAnnotation(node Annotated, name string) bool {
	if node == nil {
		return false
	}
	for _, a := range node.Annotations() {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Decl holds what every named declaration shares.
type Decl struct {
	Ident  string       // identifier text; empty for anonymous declarations
	Annots []Annotation // in source order
	Parent *Module      // enclosing module; nil only for the tree root
}

// Name returns the identifier text.
func (d *Decl) Name() string { return d.Ident }

// Annotations implements Annotated.
func (d *Decl) Annotations() []Annotation { return d.Annots }

// Declaration returns the shared declaration header.
func (d *Decl) Declaration() *Decl { return d }

// Definition is a node that can appear in a module body.
type Definition interface {
	Annotated
	Kind() Kind
	Name() string
	Declaration() *Decl
}

// Module is a named scope.
type Module struct {
	Decl
	Definitions []Definition
}

func (*Module) Kind() Kind { return KindModule }

// IsRoot reports whether m is the unnamed tree root.
func (m *Module) IsRoot() bool { return m.Parent == nil && m.Ident == "" }

// Member is a named, typed slot inside a struct or a union case.
type Member struct {
	Name   string
	Type   Type
	Annots []Annotation
}

// Annotations implements Annotated.
func (m *Member) Annotations() []Annotation { return m.Annots }

// Struct is an ordered record of members.
type Struct struct {
	Decl
	Members []*Member
}

func (*Struct) Kind() Kind { return KindStruct }

// Case is one branch of a union.
type Case struct {
	Labels    []int64 // discriminant values selecting this case
	IsDefault bool    // selected when no label of any case matches
	Member    *Member
}

// Union is a discriminated variant.
type Union struct {
	Decl
	Discriminant Type
	Cases        []*Case
}

func (*Union) Kind() Kind { return KindUnion }

// DefaultCase returns the case marked default, if any.
func (u *Union) DefaultCase() *Case {
	for _, c := range u.Cases {
		if c.IsDefault {
			return c
		}
	}
	return nil
}

// SelectValue returns the discriminant that selects c: its first label, or for
// a case without labels (the default case) the smallest non-negative value no
// case of u uses.
func (u *Union) SelectValue(c *Case) int64 {
	if len(c.Labels) > 0 {
		return c.Labels[0]
	}
	used := make(map[int64]bool)
	for _, other := range u.Cases {
		for _, l := range other.Labels {
			used[l] = true
		}
	}
	var v int64
	for used[v] {
		v++
	}
	return v
}

// Enumerator is one declared enum value. Value holds a literal from the source,
// if any; ordinals are always positional and Value is never consulted.
type Enumerator struct {
	Name  string
	Value *int64
}

// Enum is an ordered list of enumerators.
type Enum struct {
	Decl
	Enumerators []Enumerator
}

func (*Enum) Kind() Kind { return KindEnum }

// Ordinal returns the positional ordinal of the named enumerator.
func (e *Enum) Ordinal(name string) (int, bool) {
	for i, en := range e.Enumerators {
		if en.Name == name {
			return i, true
		}
	}
	return 0, false
}

// Bitmask is an ordered list of bit names; the bit position is the index.
type Bitmask struct {
	Decl
	Bits []string
}

func (*Bitmask) Kind() Kind { return KindBitmask }

// Typedef introduces a new name for an existing type.
type Typedef struct {
	Decl
	Aliased Type
}

func (*Typedef) Kind() Kind { return KindTypedef }

// Tree is a complete compilation unit.
type Tree struct {
	Root   *Module
	Source string // path of the document the tree was built from
}

// NewTree returns an empty tree with an unnamed root module.
func NewTree(source string) *Tree {
	return &Tree{Root: &Module{}, Source: source}
}

// Walk visits every definition depth-first in declaration order. Modules are
// visited before their contents. Returning false from fn skips a module's body.
func (t *Tree) Walk(fn func(Definition) bool) {
	walkModule(t.Root, fn)
}

func walkModule(m *Module, fn func(Definition) bool) {
	for _, def := range m.Definitions {
		descend := fn(def)
		if mod, ok := def.(*Module); ok && descend {
			walkModule(mod, fn)
		}
	}
}

// Add appends def to module m and links its parent.
func (m *Module) Add(def Definition) {
	def.Declaration().Parent = m
	m.Definitions = append(m.Definitions, def)
}
