package typemap

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var javaKeywords = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true, "byte": true,
	"case": true, "catch": true, "char": true, "class": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extends": true, "final": true, "finally": true, "float": true,
	"for": true, "goto": true, "if": true, "implements": true, "import": true,
	"instanceof": true, "int": true, "interface": true, "long": true, "native": true,
	"new": true, "package": true, "private": true, "protected": true, "public": true,
	"return": true, "short": true, "static": true, "strictfp": true, "super": true,
	"switch": true, "synchronized": true, "this": true, "throw": true, "throws": true,
	"transient": true, "try": true, "void": true, "volatile": true, "while": true,
	"true": true, "false": true, "null": true, "var": true, "record": true,
	"yield": true, "sealed": true, "permits": true,
}

// Identifier returns name as a legal Java identifier. Reserved words get a
// trailing underscore; IDL identifiers never end in one, so this cannot clash.
func Identifier(name string) string {
	if javaKeywords[name] {
		return name + "_"
	}
	return name
}

var upper = cases.Upper(language.Und)

// Capitalize upper-cases the first letter of name, leaving the rest alone:
// "radius" becomes "Radius", "sideLength" becomes "SideLength".
func Capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return upper.String(name[:size]) + name[size:]
}
