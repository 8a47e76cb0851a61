package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/roach88/idlbind/internal/ir"
)

// TypeExpr is a parsed type string before name resolution.
type TypeExpr struct {
	Prim     *ir.PrimitiveKind // set for primitives
	IsString bool              // string or wstring
	Wide     bool
	Sequence *TypeExpr // element type of a sequence
	Bound    int       // string or sequence bound; 0 when unbounded
	Name     string    // scoped name to resolve
}

var primitiveWords = map[string]ir.PrimitiveKind{
	"boolean":            ir.Bool,
	"bool":               ir.Bool,
	"octet":              ir.Octet,
	"uint8":              ir.Octet,
	"char":               ir.Char,
	"int8":               ir.Char,
	"short":              ir.Short,
	"int16":              ir.Short,
	"unsigned short":     ir.UShort,
	"ushort":             ir.UShort,
	"uint16":             ir.UShort,
	"long":               ir.Long,
	"int32":              ir.Long,
	"unsigned long":      ir.ULong,
	"ulong":              ir.ULong,
	"uint32":             ir.ULong,
	"long long":          ir.LongLong,
	"longlong":           ir.LongLong,
	"int64":              ir.LongLong,
	"unsigned long long": ir.ULongLong,
	"ulonglong":          ir.ULongLong,
	"uint64":             ir.ULongLong,
	"float":              ir.Float,
	"double":             ir.Double,
}

// ParseTypeExpr parses a type string:
//
//	long | unsigned long long | string | string<32> | wstring
//	sequence<T> | sequence<T, 8> | Point | shapes::Point | ::shapes::Point
func ParseTypeExpr(s string) (*TypeExpr, error) {
	p := &typeParser{src: s}
	p.tokenize()
	if p.err != nil {
		return nil, p.err
	}
	t := p.parseType()
	if p.err == nil && p.pos < len(p.toks) {
		p.fail("unexpected %q", p.toks[p.pos])
	}
	if p.err != nil {
		return nil, p.err
	}
	return t, nil
}

type typeParser struct {
	src  string
	toks []string
	pos  int
	err  error
}

func (p *typeParser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("type %q: %s", p.src, fmt.Sprintf(format, args...))
	}
}

// tokenize splits into words (identifiers, numbers, scoped names) and the
// punctuation < > , characters.
func (p *typeParser) tokenize() {
	s := p.src
	for i := 0; i < len(s); {
		r := rune(s[i])
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '<' || r == '>' || r == ',':
			p.toks = append(p.toks, string(r))
			i++
		case r == ':' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			j := i
			for j < len(s) {
				c := rune(s[j])
				if c == ':' || c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c) {
					j++
					continue
				}
				break
			}
			p.toks = append(p.toks, s[i:j])
			i = j
		default:
			p.fail("unexpected character %q", r)
			return
		}
	}
	if len(p.toks) == 0 {
		p.fail("empty type")
	}
}

func (p *typeParser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

func (p *typeParser) next() string {
	t := p.peek()
	if t != "" {
		p.pos++
	}
	return t
}

func (p *typeParser) expect(tok string) {
	if got := p.next(); got != tok {
		if got == "" {
			got = "end of input"
		}
		p.fail("expected %q, got %q", tok, got)
	}
}

func (p *typeParser) parseType() *TypeExpr {
	if p.err != nil {
		return nil
	}
	word := p.next()
	switch word {
	case "":
		p.fail("missing type")
		return nil
	case "unsigned":
		rest := p.next()
		if rest == "long" && p.peek() == "long" {
			p.next()
			rest = "long long"
		}
		return p.primitive("unsigned " + rest)
	case "long":
		if p.peek() == "long" {
			p.next()
			return p.primitive("long long")
		}
		return p.primitive("long")
	case "string", "wstring":
		t := &TypeExpr{IsString: true, Wide: word == "wstring"}
		if p.peek() == "<" {
			p.next()
			t.Bound = p.bound()
			p.expect(">")
		}
		return t
	case "sequence":
		p.expect("<")
		elem := p.parseType()
		t := &TypeExpr{Sequence: elem}
		if p.peek() == "," {
			p.next()
			t.Bound = p.bound()
		}
		p.expect(">")
		return t
	}
	if _, ok := primitiveWords[word]; ok {
		return p.primitive(word)
	}
	if !validScopedName(word) {
		p.fail("invalid name %q", word)
		return nil
	}
	return &TypeExpr{Name: word}
}

func (p *typeParser) primitive(word string) *TypeExpr {
	k, ok := primitiveWords[word]
	if !ok {
		p.fail("unknown primitive %q", word)
		return nil
	}
	return &TypeExpr{Prim: &k}
}

func (p *typeParser) bound() int {
	tok := p.next()
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		p.fail("invalid bound %q", tok)
		return 0
	}
	return n
}

// validScopedName accepts identifiers joined by "::", optionally anchored
// with a leading "::".
func validScopedName(s string) bool {
	s = strings.TrimPrefix(s, "::")
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, "::") {
		if !isIdentifier(part) {
			return false
		}
	}
	return true
}

// isIdentifier accepts letters, digits and underscores, not starting with a
// digit.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !(r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) || (i == 0 && unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

// String renders the expression in IDL notation.
func (t *TypeExpr) String() string {
	switch {
	case t == nil:
		return "<nil>"
	case t.Prim != nil:
		return t.Prim.String()
	case t.IsString:
		name := "string"
		if t.Wide {
			name = "wstring"
		}
		if t.Bound > 0 {
			return fmt.Sprintf("%s<%d>", name, t.Bound)
		}
		return name
	case t.Sequence != nil:
		if t.Bound > 0 {
			return fmt.Sprintf("sequence<%s, %d>", t.Sequence, t.Bound)
		}
		return fmt.Sprintf("sequence<%s>", t.Sequence)
	}
	return t.Name
}
