package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestReaderPrimitives(t *testing.T) {
	data := []byte{
		0x2A,                   // byte
		0xFE, 0xFF,             // int16 -2
		0x01, 0x00, 0x00, 0x80, // int32 (LE, high bit set)
		0x00, 0x00, 0x80, 0x3F, // float32 1.0
		0x10, 0x20, 0x30, // color
	}
	r := NewReader(data)

	b, err := r.ReadByte()
	if err != nil || b != 0x2A {
		t.Fatalf("ReadByte() = %v, %v", b, err)
	}
	i16, err := r.ReadInt16()
	if err != nil || i16 != -2 {
		t.Fatalf("ReadInt16() = %v, %v", i16, err)
	}
	i32, err := r.ReadInt32()
	if err != nil || i32 != -2147483647 {
		t.Fatalf("ReadInt32() = %v, %v", i32, err)
	}
	f, err := r.ReadFloat32()
	if err != nil || f != 1.0 {
		t.Fatalf("ReadFloat32() = %v, %v", f, err)
	}
	c, err := r.ReadColor()
	if err != nil || c != (Color{R: 0x10, G: 0x20, B: 0x30}) {
		t.Fatalf("ReadColor() = %+v, %v", c, err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestReaderTruncated(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(r *Reader) error
	}{
		{"byte from empty", nil, func(r *Reader) error { _, err := r.ReadByte(); return err }},
		{"int16 one byte short", []byte{0x01}, func(r *Reader) error { _, err := r.ReadInt16(); return err }},
		{"int32 short", []byte{1, 2, 3}, func(r *Reader) error { _, err := r.ReadInt32(); return err }},
		{"float32 short", []byte{1, 2, 3}, func(r *Reader) error { _, err := r.ReadFloat32(); return err }},
		{"uint64 short", []byte{1, 2, 3, 4, 5, 6, 7}, func(r *Reader) error { _, err := r.ReadUint64(); return err }},
		{"color short", []byte{1, 2}, func(r *Reader) error { _, err := r.ReadColor(); return err }},
		{"bytes past end", []byte{1, 2}, func(r *Reader) error { _, err := r.ReadBytes(3); return err }},
		{"string declares more than present", []byte{5, 'a', 'b'}, func(r *Reader) error { _, err := r.ReadString(); return err }},
		{"varstring declares more than present", []byte{5, 'a'}, func(r *Reader) error { _, err := r.ReadVarString(); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(tt.data)
			if err := tt.read(r); err == nil {
				t.Fatal("expected error on truncated input")
			}
		})
	}
}

func TestReadString(t *testing.T) {
	w := NewWriter()
	w.WriteString("Terraria279")
	r := NewReader(w.Payload())
	s, err := r.ReadString()
	if err != nil {
		t.Fatal(err)
	}
	if s != "Terraria279" {
		t.Fatalf("ReadString() = %q", s)
	}
}

func TestWriteStringTruncates(t *testing.T) {
	long := strings.Repeat("x", 300)
	w := NewWriter()
	w.WriteString(long)
	if w.Len() != 256 {
		t.Fatalf("Len() = %d, want 256", w.Len())
	}
	r := NewReader(w.Payload())
	s, err := r.ReadString()
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 255 {
		t.Fatalf("len = %d, want 255", len(s))
	}
}

func TestVarUintRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 300, 16383, 16384, 1<<21 - 1, 1 << 28, 0xFFFFFFFF}
	for _, v := range values {
		w := NewWriter()
		w.WriteVarUint(v)
		r := NewReader(w.Payload())
		got, err := r.ReadVarUint()
		if err != nil {
			t.Fatalf("ReadVarUint(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d = %d", v, got)
		}
		if r.Remaining() != 0 {
			t.Fatalf("value %d left %d bytes", v, r.Remaining())
		}
	}
}

func TestVarUintTooLong(t *testing.T) {
	// Continuation bit stuck on for more than 5 bytes.
	r := NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	_, err := r.ReadVarUint()
	if !errors.Is(err, ErrVarIntTooLong) {
		t.Fatalf("err = %v, want ErrVarIntTooLong", err)
	}
}

func TestVarStringRoundTrip(t *testing.T) {
	msg := strings.Repeat("chat ", 60) // long enough for a 2-byte length prefix
	w := NewWriter()
	w.WriteVarString(msg)
	r := NewReader(w.Payload())
	got, err := r.ReadVarString()
	if err != nil {
		t.Fatal(err)
	}
	if got != msg {
		t.Fatalf("round trip mismatch: %d vs %d bytes", len(got), len(msg))
	}
}

func TestWriterFrame(t *testing.T) {
	w := NewWriter()
	w.WriteString("hi")
	frame := w.Frame(MsgChat)
	if len(frame) != 6 {
		t.Fatalf("frame len = %d, want 6", len(frame))
	}
	if frame[0] != 6 || frame[1] != 0 {
		t.Fatalf("length field = %v", frame[:2])
	}
	if frame[2] != MsgChat {
		t.Fatalf("type = 0x%02X", frame[2])
	}
}

func TestFrameTooLarge(t *testing.T) {
	_, err := Frame(MsgTileSection, make([]byte, 70000))
	if err == nil {
		t.Fatal("expected error for oversized frame")
	}
}
