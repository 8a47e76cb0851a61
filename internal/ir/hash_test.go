package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitHashDeterminism(t *testing.T) {
	content := []byte("package shapes;\n")

	h1 := UnitHash("shapes/Point.java", content)
	h2 := UnitHash("shapes/Point.java", content)

	assert.Equal(t, h1, h2, "UnitHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestUnitHashIncludesPath(t *testing.T) {
	content := []byte("body")

	assert.NotEqual(t,
		UnitHash("shapes/Point.java", content),
		UnitHash("shapes/Circle.java", content),
		"same body at different paths must hash differently")
}

func TestUnitHashBoundary(t *testing.T) {
	// The separator keeps path/content splits from colliding.
	assert.NotEqual(t,
		UnitHash("ab", []byte("c")),
		UnitHash("a", []byte("bc")))
}

func TestDomainSeparation(t *testing.T) {
	data := []byte("same bytes")
	assert.NotEqual(t, hashWithDomain(DomainUnit, data), hashWithDomain(DomainTree, data))
	assert.Equal(t, hashWithDomain(DomainTree, data), TreeHash(data))
}
