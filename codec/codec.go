package codec

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/smartmodule/errors"
)

// Version is a wire protocol version.
type Version = int16

// Encoder writes a value in the wire format of a protocol version.
type Encoder interface {
	Encode(w *Writer, version Version) error
}

// Decoder reads a value in the wire format of a protocol version.
type Decoder interface {
	Decode(r *Reader, version Version) error
}

// Marshal encodes v into a new buffer.
func Marshal(v Encoder, version Version) ([]byte, error) {
	w := NewWriter()
	if err := v.Encode(w, version); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Unmarshal decodes v from data. Bytes left after v are ignored.
func Unmarshal(data []byte, v Decoder, version Version) error {
	return v.Decode(NewReader(data), version)
}

// Writer appends wire-encoded values to a growing buffer.
type Writer struct {
	buf []byte
}

// NewWriter creates a new Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Int8(v int8) {
	w.buf = append(w.buf, byte(v))
}

func (w *Writer) Bool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *Writer) Int16(v int16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v))
}

func (w *Writer) Int32(v int32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
}

func (w *Writer) Int64(v int64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
}

// Varint writes a zigzag encoded signed varint.
func (w *Writer) Varint(v int64) {
	w.buf = binary.AppendVarint(w.buf, v)
}

// Raw appends data without a length prefix.
func (w *Writer) Raw(data []byte) {
	w.buf = append(w.buf, data...)
}

// Bytes32 writes data with an int32 length prefix.
func (w *Writer) Bytes32(data []byte) error {
	if len(data) > math.MaxInt32 {
		return errors.Overflow(errors.PhaseEncode, nil, len(data), "int32 length")
	}
	w.Int32(int32(len(data)))
	w.Raw(data)
	return nil
}

// VarBytes writes data with a varint length prefix.
func (w *Writer) VarBytes(data []byte) {
	w.Varint(int64(len(data)))
	w.Raw(data)
}

// NullableVarBytes writes data with a varint length prefix, or -1 when nil.
func (w *Writer) NullableVarBytes(data []byte) {
	if data == nil {
		w.Varint(-1)
		return
	}
	w.VarBytes(data)
}

// String16 writes s with an int16 length prefix.
func (w *Writer) String16(s string) error {
	if len(s) > math.MaxInt16 {
		return errors.Overflow(errors.PhaseEncode, nil, len(s), "int16 length")
	}
	w.Int16(int16(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}

// Reader consumes wire-encoded values from a buffer. Slices it returns alias
// the source buffer with their capacity clipped, so appending to them never
// writes into neighbouring data.
type Reader struct {
	src []byte
	pos int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{src: data}
}

// Position returns the number of bytes consumed.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.src) - r.pos
}

// Span consumes the next n bytes.
func (r *Reader) Span(n int) ([]byte, error) {
	if n < 0 {
		return nil, errors.InvalidLength(errors.PhaseDecode, nil, int64(n))
	}
	if r.Remaining() < n {
		return nil, errors.Truncated(nil, n, r.Remaining())
	}
	b := r.src[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) Int8() (int8, error) {
	b, err := r.Span(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (r *Reader) Bool() (bool, error) {
	b, err := r.Span(1)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.InvalidDiscriminant(errors.PhaseDecode, nil, int64(b[0]), 1)
	}
}

func (r *Reader) Int16() (int16, error) {
	b, err := r.Span(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (r *Reader) Int32() (int32, error) {
	b, err := r.Span(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (r *Reader) Int64() (int64, error) {
	b, err := r.Span(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// Varint reads a zigzag encoded signed varint.
func (r *Reader) Varint() (int64, error) {
	v, n := binary.Varint(r.src[r.pos:])
	switch {
	case n == 0:
		return 0, errors.Truncated(nil, r.Remaining()+1, r.Remaining())
	case n < 0:
		return 0, errors.Overflow(errors.PhaseDecode, nil, "varint", "int64")
	}
	r.pos += n
	return v, nil
}

// Bytes32 reads an int32 length-prefixed byte string.
func (r *Reader) Bytes32() ([]byte, error) {
	n, err := r.Int32()
	if err != nil {
		return nil, err
	}
	return r.Span(int(n))
}

// VarBytes reads a varint length-prefixed byte string.
func (r *Reader) VarBytes() ([]byte, error) {
	data, present, err := r.NullableVarBytes()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, errors.InvalidLength(errors.PhaseDecode, nil, -1)
	}
	return data, nil
}

// NullableVarBytes reads a varint length-prefixed byte string where -1 marks
// an absent value. A present empty value decodes to a non-nil empty slice.
func (r *Reader) NullableVarBytes() ([]byte, bool, error) {
	n, err := r.Varint()
	if err != nil {
		return nil, false, err
	}
	if n == -1 {
		return nil, false, nil
	}
	if n < -1 || n > int64(r.Remaining()) {
		if n > 0 {
			return nil, false, errors.Truncated(nil, int(min(n, math.MaxInt32)), r.Remaining())
		}
		return nil, false, errors.InvalidLength(errors.PhaseDecode, nil, n)
	}
	data, err := r.Span(int(n))
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		data = []byte{}
	}
	return data, true, nil
}

// String16 reads an int16 length-prefixed string.
func (r *Reader) String16() (string, error) {
	n, err := r.Int16()
	if err != nil {
		return "", err
	}
	b, err := r.Span(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
