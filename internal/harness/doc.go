// Package harness runs generation scenarios for idlbind.
//
// A scenario names a type tree document, the emit options to generate it
// with, wire test vectors to encode, and assertions over what came out. Each
// run produces a trace of emitted units, diagnostics, reference-cycle notes
// and vector encodings that can be compared against a golden file.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: shapes_default
//	description: "Shapes with default options"
//	tree: ../trees/shapes.yaml
//	options:
//	  namespace_prefix: com.acme
//	  compact: true
//	vectors:
//	  - type: shapes::Point
//	    value: { x: 1, y: 2 }
//	    hex: "01000000 02000000"
//	assertions:
//	  - type: unit_exists
//	    path: com/acme/shapes/Point.java
//	  - type: diagnostic
//	    code: W003
//
// The tree path is resolved relative to the scenario file.
//
// # Assertion Types
//
//   - unit_exists: a unit was emitted at path
//   - unit_absent: no unit was emitted at path
//   - unit_order: the listed paths were emitted in that order
//   - unit_count: exactly count units were emitted
//   - unit_contains: the unit at path contains text
//   - diagnostic: a diagnostic with code (and entity, if given) was reported
//   - no_errors: nothing of error severity was reported
//
// # Vectors
//
// Every vector is encoded with the reference wire codec, decoded again and
// re-encoded; the two encodings must match. A vector with hex also checks the
// bytes, one with decoded checks the decoded value, and one with error
// expects encoding to fail with a message containing that text.
//
// # Determinism
//
// Runs use a fixed run ID, an in-memory sink and a sequence counter for trace
// events, so traces are identical across runs and machines.
package harness
