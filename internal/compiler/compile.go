package compiler

import (
	"github.com/roach88/idlbind/internal/ir"
)

// Result is a compiled document: the tree, every validation error, and the
// reference cycles found among its composite types.
type Result struct {
	Tree   *ir.Tree          `json:"-"`
	Errors []ValidationError `json:"errors"`
	Cycles []CycleNote       `json:"cycles"`
}

// OK reports whether the document compiled without errors.
func (r *Result) OK() bool { return len(r.Errors) == 0 }

// Compile loads the document at path, builds its tree and validates it.
// A document that cannot be read or decoded is returned as an error; problems
// inside a decoded document are collected in Result.Errors.
func Compile(path string) (*Result, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return CompileDocument(doc, path), nil
}

// CompileDocument builds and validates an already decoded document.
func CompileDocument(doc *Document, source string) *Result {
	tree, errs := Build(doc, source)
	errs = append(errs, Validate(tree)...)
	return &Result{
		Tree:   tree,
		Errors: errs,
		Cycles: AnalyzeCycles(tree),
	}
}
