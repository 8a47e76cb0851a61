package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/roach88/idlbind/internal/errors"
)

// absent is the length prefix of a null string or sequence.
const absent = -1

// Writer appends little-endian values to a growable buffer.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Byte writes a single byte.
func (w *Writer) Byte(b byte) {
	w.buf.WriteByte(b)
}

// U16 writes a little-endian uint16.
func (w *Writer) U16(v uint16) {
	w.buf.Write(binary.LittleEndian.AppendUint16(nil, v))
}

// U32 writes a little-endian uint32.
func (w *Writer) U32(v uint32) {
	w.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

// U64 writes a little-endian uint64.
func (w *Writer) U64(v uint64) {
	w.buf.Write(binary.LittleEndian.AppendUint64(nil, v))
}

// Length writes an int32 length or count prefix; pass absent for null.
func (w *Writer) Length(n int) {
	w.U32(uint32(int32(n)))
}

// WriteBytes writes data verbatim.
func (w *Writer) WriteBytes(data []byte) {
	w.buf.Write(data)
}

// Sized writes v truncated to width bytes.
func (w *Writer) Sized(v int64, width int) {
	switch width {
	case 1:
		w.Byte(byte(v))
	case 2:
		w.U16(uint16(v))
	case 8:
		w.U64(uint64(v))
	default:
		w.U32(uint32(v))
	}
}

// Reader consumes little-endian values from a byte slice with position
// tracking.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Position returns the current byte offset.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns how many bytes are left.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, errors.Wrapf(errors.ErrShortBuffer,
			"need %d bytes at offset %d, have %d", n, r.pos, r.Remaining())
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadLength reads an int32 length or count prefix. A negative result means
// the value is absent.
func (r *Reader) ReadLength() (int, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return int(int32(v)), nil
}

// ReadBytes reads exactly n bytes. The result is a copy.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(b), nil
}

// ReadSized reads width bytes and sign-extends them.
func (r *Reader) ReadSized(width int) (int64, error) {
	switch width {
	case 1:
		b, err := r.ReadByte()
		return int64(int8(b)), err
	case 2:
		v, err := r.ReadU16()
		return int64(int16(v)), err
	case 8:
		v, err := r.ReadU64()
		return int64(v), err
	default:
		v, err := r.ReadU32()
		return int64(int32(v)), err
	}
}
