package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer builds a message payload, mirroring Reader.
// All multi-byte values are little-endian.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty payload Writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// WriteUint8 appends 1 byte.
func (w *Writer) WriteUint8(b byte) {
	w.buf = append(w.buf, b)
}

// WriteInt16 appends an int16 (2 bytes, LE).
func (w *Writer) WriteInt16(v int16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(v))
}

// WriteUint16 appends a uint16 (2 bytes, LE).
func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteInt32 appends an int32 (4 bytes, LE).
func (w *Writer) WriteInt32(v int32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, uint32(v))
}

// WriteFloat32 appends a float32 (4 bytes, LE IEEE 754).
func (w *Writer) WriteFloat32(v float32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, math.Float32bits(v))
}

// WriteBytes appends raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteString appends a length-prefixed string: u8 length, then the bytes.
// Strings longer than 255 bytes are truncated; the single length byte cannot
// express more.
func (w *Writer) WriteString(s string) {
	if len(s) > 255 {
		s = s[:255]
	}
	w.buf = append(w.buf, byte(len(s)))
	w.buf = append(w.buf, s...)
}

// WriteColor appends 3 raw bytes: R, G, B.
func (w *Writer) WriteColor(c Color) {
	w.buf = append(w.buf, c.R, c.G, c.B)
}

// WriteVarUint appends a 7-bit packed variable-length integer.
func (w *Writer) WriteVarUint(v uint32) {
	for v >= 0x80 {
		w.buf = append(w.buf, byte(v)|0x80)
		v >>= 7
	}
	w.buf = append(w.buf, byte(v))
}

// WriteVarString appends a string with a 7-bit packed length prefix.
func (w *Writer) WriteVarString(s string) {
	w.WriteVarUint(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// Len returns the number of payload bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Payload returns the raw payload bytes without any frame header.
func (w *Writer) Payload() []byte {
	return w.buf
}

// Frame wraps the payload into a complete wire frame:
// u16 total length (including itself), u8 message type, payload.
func (w *Writer) Frame(msgType byte) []byte {
	total := FrameHeaderSize + len(w.buf)
	out := make([]byte, 0, total)
	out = binary.LittleEndian.AppendUint16(out, uint16(total))
	out = append(out, msgType)
	out = append(out, w.buf...)
	return out
}

// Frame builds a complete wire frame for msgType from an already-assembled
// payload. Convenience for zero-payload and pass-through messages.
func Frame(msgType byte, payload []byte) ([]byte, error) {
	total := FrameHeaderSize + len(payload)
	if total > math.MaxUint16 {
		return nil, fmt.Errorf("frame too large: %d bytes", total)
	}
	out := make([]byte, 0, total)
	out = binary.LittleEndian.AppendUint16(out, uint16(total))
	out = append(out, msgType)
	out = append(out, payload...)
	return out, nil
}
