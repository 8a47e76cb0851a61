package emit

import "github.com/roach88/idlbind/internal/ir"

// Marker is a Java annotation emitted for a recognized IDL annotation.
type Marker string

const (
	MarkerKey       Marker = "Key"
	MarkerOptional  Marker = "Optional"
	MarkerIDLEntity Marker = "IDLEntity"
	MarkerTopic     Marker = "Topic"
	MarkerNested    Marker = "Nested"
)

var markers = map[string]Marker{
	"key":      MarkerKey,
	"optional": MarkerOptional,
	"id":       MarkerIDLEntity,
	"topic":    MarkerTopic,
	"nested":   MarkerNested,
}

// AllMarkers lists every marker in a fixed order.
var AllMarkers = []Marker{MarkerKey, MarkerOptional, MarkerIDLEntity, MarkerTopic, MarkerNested}

// Tag returns the markers for node's recognized annotations, in annotation
// order. Unknown annotations are ignored and repeats collapse to one marker.
func Tag(node ir.Annotated) []Marker {
	if node == nil {
		return nil
	}
	var out []Marker
	seen := make(map[Marker]bool)
	for _, a := range node.Annotations() {
		m, ok := markers[a.Name]
		if !ok || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// IsTopic reports whether node is a topic-level entity: it is marked topic,
// or it is not marked nested.
func IsTopic(node ir.Annotated) bool {
	return ir.HasAnnotation(node, "topic") || !ir.HasAnnotation(node, "nested")
}
