// Package wire is the Go reference implementation of the binary format the
// generated Java codecs read and write.
//
// Values are written in member declaration order with no framing:
//
//   - bool, octet, char: 1 byte; short, unsigned short: 2 bytes;
//     long, unsigned long, float: 4 bytes; long long, unsigned long long,
//     double: 8 bytes; all little-endian
//   - string, wstring: int32 byte length then UTF-8 bytes; -1 when absent
//   - sequence: int32 element count then each element; -1 when absent
//   - struct: each member in order
//   - union: the discriminant at its own width, then the selected case
//   - enum: int32 positional ordinal
//   - bitmask: int64 packed flags
//   - typedef: the aliased type
//
// Encode and Decode work over ir.IRValue so test vectors can be produced and
// checked without a JVM.
package wire
