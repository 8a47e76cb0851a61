package compiler

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/idlbind/internal/ir"
)

// Build turns a document into a type tree. Declarations are created first so
// references can point forward; types and labels are resolved in a second
// pass. All problems are returned, and the tree is still populated as far as
// possible so it can be inspected. Unresolved types are left unset.
//
// Modules with the same name in the same scope are merged, the way a reopened
// IDL module extends the first one.
func Build(doc *Document, source string) (*ir.Tree, []ValidationError) {
	b := &builder{tree: ir.NewTree(source)}
	if doc == nil {
		return b.tree, nil
	}
	if err := ir.CheckVersion(doc.IRVersion); err != nil {
		b.errorf("ir_version", ErrUnsupportedVersion, "%v", err)
	}
	b.declare(b.tree.Root, doc.Definitions, "definitions")
	for _, p := range b.pending {
		b.resolve(p)
	}
	return b.tree, b.errs
}

type builder struct {
	tree    *ir.Tree
	pending []pendingDecl
	errs    []ValidationError
}

// pendingDecl is a declaration whose types are resolved once every name in
// the document exists.
type pendingDecl struct {
	def   ir.Definition
	doc   *DefinitionDoc
	scope *ir.Module
	path  string
}

func (b *builder) errorf(field, code, format string, args ...any) {
	b.errs = append(b.errs, ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Code:    code,
	})
}

func (b *builder) declare(scope *ir.Module, docs []DefinitionDoc, path string) {
	for i := range docs {
		d := &docs[i]
		field := fmt.Sprintf("%s[%d]", path, i)
		if d.Kind == "" {
			b.errorf(field+".kind", ErrMissingKind, "definition %q has no kind", d.Name)
			continue
		}
		kind, ok := ir.ParseKind(d.Kind)
		if !ok {
			b.errorf(field+".kind", ErrMissingKind,
				"unknown kind %q, must be module, struct, union, enum, bitmask or typedef", d.Kind)
			continue
		}

		decl := ir.Decl{Ident: d.Name, Annots: annotations(d.Annotations)}
		var def ir.Definition
		switch kind {
		case ir.KindModule:
			mod := reopen(scope, d.Name)
			if mod == nil {
				mod = &ir.Module{Decl: decl}
				scope.Add(mod)
			} else {
				mod.Annots = append(mod.Annots, decl.Annots...)
			}
			b.declare(mod, d.Definitions, field+".definitions")
			continue
		case ir.KindStruct:
			def = &ir.Struct{Decl: decl}
		case ir.KindUnion:
			def = &ir.Union{Decl: decl}
		case ir.KindEnum:
			en := &ir.Enum{Decl: decl}
			en.Enumerators = b.enumerators(d.Enumerators, field+".enumerators")
			def = en
		case ir.KindBitmask:
			def = &ir.Bitmask{Decl: decl, Bits: append([]string(nil), d.Bits...)}
		case ir.KindTypedef:
			def = &ir.Typedef{Decl: decl}
		}
		scope.Add(def)
		b.pending = append(b.pending, pendingDecl{def: def, doc: d, scope: scope, path: field})
	}
}

// reopen returns the named module already declared in scope, if any.
func reopen(scope *ir.Module, name string) *ir.Module {
	if name == "" {
		return nil
	}
	for _, def := range scope.Definitions {
		if mod, ok := def.(*ir.Module); ok && mod.Ident == name {
			return mod
		}
	}
	return nil
}

func annotations(names []string) []ir.Annotation {
	if len(names) == 0 {
		return nil
	}
	out := make([]ir.Annotation, len(names))
	for i, n := range names {
		out[i] = ir.Annotation{Name: n}
	}
	return out
}

func (b *builder) enumerators(raw []any, path string) []ir.Enumerator {
	out := make([]ir.Enumerator, 0, len(raw))
	for i, r := range raw {
		field := fmt.Sprintf("%s[%d]", path, i)
		switch v := r.(type) {
		case string:
			out = append(out, ir.Enumerator{Name: v})
		case map[string]any:
			name, _ := v["name"].(string)
			en := ir.Enumerator{Name: name}
			if lit, ok := v["value"]; ok {
				n, ok := integer(lit)
				if !ok {
					b.errorf(field+".value", ErrMalformedEntry, "enumerator value %v is not an integer", lit)
				} else {
					en.Value = &n
				}
			}
			out = append(out, en)
		default:
			b.errorf(field, ErrMalformedEntry, "enumerator must be a name or {name, value}, got %T", r)
		}
	}
	return out
}

func (b *builder) resolve(p pendingDecl) {
	switch def := p.def.(type) {
	case *ir.Struct:
		for i := range p.doc.Members {
			field := fmt.Sprintf("%s.members[%d]", p.path, i)
			def.Members = append(def.Members, b.member(p.scope, &p.doc.Members[i], field))
		}
	case *ir.Typedef:
		def.Aliased = b.typeOf(p.scope, p.doc.Type, p.path+".type")
	case *ir.Union:
		if p.doc.Discriminator == "" {
			b.errorf(p.path+".discriminator", ErrMalformedEntry, "union %q has no discriminator", def.Ident)
		} else {
			def.Discriminant = b.typeOf(p.scope, p.doc.Discriminator, p.path+".discriminator")
		}
		for i := range p.doc.Cases {
			cd := &p.doc.Cases[i]
			field := fmt.Sprintf("%s.cases[%d]", p.path, i)
			c := &ir.Case{
				IsDefault: cd.Default,
				Member:    b.member(p.scope, &cd.Member, field+".member"),
			}
			for j, raw := range cd.Labels {
				if v, ok := b.label(def.Discriminant, raw, fmt.Sprintf("%s.labels[%d]", field, j)); ok {
					c.Labels = append(c.Labels, v)
				}
			}
			def.Cases = append(def.Cases, c)
		}
	}
}

func (b *builder) member(scope *ir.Module, md *MemberDoc, field string) *ir.Member {
	return &ir.Member{
		Name:   md.Name,
		Type:   b.typeOf(scope, md.Type, field+".type"),
		Annots: annotations(md.Annotations),
	}
}

// typeOf parses and resolves a type string. Failures are reported and leave
// the type unset.
func (b *builder) typeOf(scope *ir.Module, src, field string) ir.Type {
	if strings.TrimSpace(src) == "" {
		b.errorf(field, ErrMalformedEntry, "missing type")
		return nil
	}
	expr, err := ParseTypeExpr(src)
	if err != nil {
		b.errorf(field, ErrMalformedEntry, "%v", err)
		return nil
	}
	return b.resolveExpr(scope, expr, field)
}

func (b *builder) resolveExpr(scope *ir.Module, expr *TypeExpr, field string) ir.Type {
	switch {
	case expr.Prim != nil:
		return ir.Prim(*expr.Prim)
	case expr.IsString && expr.Wide:
		return ir.WideStringType{Bound: expr.Bound}
	case expr.IsString:
		return ir.StringType{Bound: expr.Bound}
	case expr.Sequence != nil:
		elem := b.resolveExpr(scope, expr.Sequence, field)
		if elem == nil {
			return nil
		}
		return ir.Sequence{Elem: elem, Bound: expr.Bound}
	}
	def := ir.Lookup(scope, expr.Name)
	if def == nil {
		b.errorf(field, ErrUnresolvedType, "unresolved type %q", expr.Name)
		return nil
	}
	if def.Kind() == ir.KindModule {
		b.errorf(field, ErrUnresolvedType, "%q names a module, not a type", expr.Name)
		return nil
	}
	return ir.RefTo(def)
}

// label converts a case label. Integers are taken as is, booleans become 0
// and 1, and names are looked up among the enumerators of an enum
// discriminator; a scoped name is matched by its last segment.
func (b *builder) label(disc ir.Type, raw any, field string) (int64, bool) {
	en := discriminantEnum(disc)
	if v, ok := raw.(bool); ok {
		if v {
			return 1, true
		}
		return 0, true
	}
	if v, ok := integer(raw); ok {
		if en != nil && (v < 0 || v >= int64(len(en.Enumerators))) {
			b.errorf(field, ErrUnknownEnumerator, "label %d is not an ordinal of enum %q", v, en.Ident)
			return 0, false
		}
		return v, true
	}
	name, ok := raw.(string)
	if !ok {
		b.errorf(field, ErrMalformedEntry, "label must be an integer, a boolean or an enumerator name, got %T", raw)
		return 0, false
	}
	if en == nil {
		if disc == nil {
			return 0, false
		}
		b.errorf(field, ErrMalformedEntry, "label %q names an enumerator but the discriminator is not an enum", name)
		return 0, false
	}
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	ord, ok := en.Ordinal(name)
	if !ok {
		b.errorf(field, ErrUnknownEnumerator, "enum %q has no enumerator %q", en.Ident, name)
		return 0, false
	}
	return int64(ord), true
}

func discriminantEnum(t ir.Type) *ir.Enum {
	term, ok := ir.Terminal(t)
	if !ok {
		return nil
	}
	if ref, ok := term.(ir.EnumRef); ok {
		return ref.Target
	}
	return nil
}

// integer accepts the integral forms YAML, JSON and CUE decoding produce.
func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n <= math.MaxInt64 {
			return int64(n), true
		}
	}
	return 0, false
}
