// Package emit turns type-tree declarations into Java source units.
//
// Each call to Emitter.Emit owns a fresh Assembler and returns one complete
// unit. Emission never fails: structural gaps and unmapped types degrade to
// fallbacks and are reported through the Diagnostics collector, so a run
// always reaches every entity.
//
// Generated classes encode to a little-endian, length-prefixed format through
// the WireBuffer runtime type. Strings and sequences carry a 4-byte length
// with -1 meaning absent; composite fields delegate to the referenced type's
// own encode and decode methods.
package emit
