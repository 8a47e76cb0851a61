// Package namespace derives Java package names and output paths from the
// module scopes enclosing a declaration.
package namespace

import (
	"strings"

	"github.com/roach88/idlbind/internal/ir"
	"github.com/roach88/idlbind/internal/typemap"
)

// Default is the package for declarations at the tree root.
const Default = "generated"

// RuntimePackage is where support types (WireBuffer, marker annotations) live,
// below the configured prefix.
const RuntimePackage = "idlbind.runtime"

// Resolve returns the dotted package for decl: its enclosing module
// identifiers, outermost first, or Default when there are none. A non-empty
// prefix is prepended with a dot.
//
// The result depends only on the scope chain, so siblings always share it.
func Resolve(decl *ir.Decl, prefix string) string {
	chain := ir.ScopeChain(decl)
	if len(chain) == 0 {
		return withPrefix(prefix, Default)
	}
	segs := make([]string, len(chain))
	for i, s := range chain {
		segs[i] = typemap.Identifier(s)
	}
	return withPrefix(prefix, strings.Join(segs, "."))
}

// Runtime returns the runtime support package under prefix.
func Runtime(prefix string) string {
	return withPrefix(prefix, RuntimePackage)
}

// Qualified returns the fully qualified Java name of a type called name
// declared in package ns.
func Qualified(ns, name string) string {
	return ns + "." + name
}

// UnitPath derives the slash-separated relative path of an output unit:
// ns with dots turned into directories, then name.ext.
func UnitPath(ns, name, ext string) string {
	dir := strings.ReplaceAll(ns, ".", "/")
	file := name
	if ext != "" {
		file += "." + ext
	}
	if dir == "" {
		return file
	}
	return dir + "/" + file
}

func withPrefix(prefix, ns string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return ns
	}
	return prefix + "." + ns
}
