package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrVarIntTooLong is returned when a 7-bit packed integer carries more
// continuation bytes than the protocol allows.
var ErrVarIntTooLong = errors.New("7-bit packed integer exceeds 5 bytes")

// maxVarIntBytes bounds 7-bit packed integers; a malformed stream with the
// continuation bit stuck on must not be read forever.
const maxVarIntBytes = 5

// Reader provides cursor-style reads over one message payload.
// All multi-byte values are little-endian.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadByte reads 1 byte.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("ReadByte: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadInt16 reads an int16 (2 bytes, LE).
func (r *Reader) ReadInt16() (int16, error) {
	if r.pos+2 > len(r.data) {
		return 0, fmt.Errorf("ReadInt16: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := int16(binary.LittleEndian.Uint16(r.data[r.pos:]))
	r.pos += 2
	return val, nil
}

// ReadUint16 reads a uint16 (2 bytes, LE).
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadInt16()
	return uint16(v), err
}

// ReadInt32 reads an int32 (4 bytes, LE).
func (r *Reader) ReadInt32() (int32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("ReadInt32: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := int32(binary.LittleEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	return val, nil
}

// ReadUint64 reads a uint64 (8 bytes, LE).
func (r *Reader) ReadUint64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("ReadUint64: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return val, nil
}

// ReadFloat32 reads a float32 (4 bytes, LE IEEE 754).
func (r *Reader) ReadFloat32() (float32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("ReadFloat32: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := math.Float32frombits(binary.LittleEndian.Uint32(r.data[r.pos:]))
	r.pos += 4
	return val, nil
}

// ReadBytes reads n bytes into a fresh slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("ReadBytes: negative count %d", n)
	}
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("ReadBytes: not enough data (pos=%d, need=%d, len=%d)", r.pos, n, len(r.data))
	}
	out := make([]byte, n)
	copy(out, r.data[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// ReadString reads a length-prefixed string: u8 length, then that many bytes.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", fmt.Errorf("ReadString: %w", err)
	}
	if r.pos+int(n) > len(r.data) {
		return "", fmt.Errorf("ReadString: declared %d bytes, %d remain", n, len(r.data)-r.pos)
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// ReadColor reads 3 raw bytes: R, G, B.
func (r *Reader) ReadColor() (Color, error) {
	if r.pos+3 > len(r.data) {
		return Color{}, fmt.Errorf("ReadColor: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	c := Color{R: r.data[r.pos], G: r.data[r.pos+1], B: r.data[r.pos+2]}
	r.pos += 3
	return c, nil
}

// ReadVarUint reads a 7-bit packed variable-length integer: one byte per
// 7 bits, MSB continuation, little-endian accumulation. Returns
// ErrVarIntTooLong after maxVarIntBytes continuation bytes.
func (r *Reader) ReadVarUint() (uint32, error) {
	var val uint32
	var shift uint
	for i := 0; ; i++ {
		if i >= maxVarIntBytes {
			return 0, ErrVarIntTooLong
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("ReadVarUint: %w", err)
		}
		val |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return val, nil
		}
		shift += 7
	}
}

// ReadVarString reads a string whose length is a 7-bit packed integer.
// Used inside NetModule sub-payloads.
func (r *Reader) ReadVarString() (string, error) {
	n, err := r.ReadVarUint()
	if err != nil {
		return "", err
	}
	if r.pos+int(n) > len(r.data) {
		return "", fmt.Errorf("ReadVarString: declared %d bytes, %d remain", n, len(r.data)-r.pos)
	}
	s := string(r.data[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// Remaining returns the count of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Position returns the current read offset.
func (r *Reader) Position() int {
	return r.pos
}

// Color is a 3-byte RGB triple as used throughout the protocol.
type Color struct {
	R, G, B byte
}
