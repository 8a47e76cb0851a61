package emit

import (
	"fmt"
	"strings"
)

const indentUnit = "    "

// Assembler is an append-only text buffer with indentation tracking.
// One Assembler belongs to one emission; it is never shared.
type Assembler struct {
	buf   strings.Builder
	depth int
}

// Line appends s at the current indentation followed by a newline.
func (a *Assembler) Line(s string) {
	if s != "" {
		for i := 0; i < a.depth; i++ {
			a.buf.WriteString(indentUnit)
		}
		a.buf.WriteString(s)
	}
	a.buf.WriteByte('\n')
}

// Linef is Line with fmt formatting.
func (a *Assembler) Linef(format string, args ...any) {
	a.Line(fmt.Sprintf(format, args...))
}

// Blank appends an empty line.
func (a *Assembler) Blank() {
	a.buf.WriteByte('\n')
}

// Indent increases the indentation of subsequent lines by one level.
func (a *Assembler) Indent() {
	a.depth++
}

// Dedent decreases the indentation by one level; it stops at zero.
func (a *Assembler) Dedent() {
	if a.depth > 0 {
		a.depth--
	}
}

// Block appends "header {", the body one level deeper, then "}".
func (a *Assembler) Block(header string, body func()) {
	a.Line(header + " {")
	a.Indent()
	body()
	a.Dedent()
	a.Line("}")
}

// Raw appends s verbatim, ignoring indentation.
func (a *Assembler) Raw(s string) {
	a.buf.WriteString(s)
}

// String returns the accumulated text.
func (a *Assembler) String() string {
	return a.buf.String()
}

// Len returns the number of bytes accumulated so far.
func (a *Assembler) Len() int {
	return a.buf.Len()
}
