package collection

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	// ErrTruncated is returned when a read runs past the end of the buffer.
	ErrTruncated = errors.New("truncated input")

	// ErrMalformedRecord is returned when a field has a value the format
	// does not allow (unknown string prefix, negative count, oversized
	// varint).
	ErrMalformedRecord = errors.New("malformed record")
)

// String presence prefixes used by the osu! binary formats.
const (
	stringAbsent  = 0x00
	stringPresent = 0x0b
)

// Reader is a single-pass cursor over an in-memory little-endian buffer.
//
// Every read consumes exactly the bytes it decodes and fails with
// [ErrTruncated] if fewer remain. The cursor never seeks backward.
type Reader struct {
	buf []byte
	off int
}

// NewReader returns a cursor positioned at the start of buf.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of bytes left to read.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// take consumes n bytes or fails with ErrTruncated at the current offset.
func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("need %d bytes at offset %d: %w", n, r.off, ErrTruncated)
	}

	b := r.buf[r.off : r.off+n]
	r.off += n

	return b, nil
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// Uint16 reads a little-endian 16-bit unsigned integer.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b), nil
}

// Uint32 reads a little-endian 32-bit unsigned integer.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

// Uint64 reads a little-endian 64-bit unsigned integer.
func (r *Reader) Uint64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

// Int32 reads a little-endian 32-bit signed integer.
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()

	return int32(v), err
}

// Bool reads one byte, any nonzero value meaning true.
func (r *Reader) Bool() (bool, error) {
	b, err := r.Uint8()

	return b != 0, err
}

// Float64 reads a little-endian IEEE 754 double.
func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(v), nil
}

// DateTime reads a 64-bit .NET tick count (100ns units since 0001-01-01).
// The raw tick value is returned; callers needing wall time convert it.
func (r *Reader) DateTime() (int64, error) {
	v, err := r.Uint64()

	return int64(v), err
}

// maxVarIntBytes bounds ULEB128 to a uint64's worth of septets.
const maxVarIntBytes = 10

// ULEB128 reads an unsigned little-endian base-128 varint, the length
// prefix the format uses for strings and some counts.
func (r *Reader) ULEB128() (uint64, error) {
	var result uint64

	for i := 0; i < maxVarIntBytes; i++ {
		b, err := r.Uint8()
		if err != nil {
			return 0, err
		}

		result |= uint64(b&0x7f) << (7 * i)

		if b&0x80 == 0 {
			return result, nil
		}
	}

	return 0, fmt.Errorf("varint longer than %d bytes at offset %d: %w",
		maxVarIntBytes, r.off, ErrMalformedRecord)
}

// String reads a presence-prefixed string: 0x00 means absent (empty
// string), 0x0b means a ULEB128 byte length followed by UTF-8 bytes.
// Any other prefix is a malformed record.
func (r *Reader) String() (string, error) {
	prefix, err := r.Uint8()
	if err != nil {
		return "", err
	}

	switch prefix {
	case stringAbsent:
		return "", nil
	case stringPresent:
	default:
		return "", fmt.Errorf("unknown string prefix 0x%02x at offset %d: %w",
			prefix, r.off-1, ErrMalformedRecord)
	}

	length, err := r.ULEB128()
	if err != nil {
		return "", err
	}

	if length > uint64(r.Remaining()) {
		return "", fmt.Errorf("string of %d bytes at offset %d: %w", length, r.off, ErrTruncated)
	}

	b, err := r.take(int(length))
	if err != nil {
		return "", err
	}

	return string(b), nil
}
