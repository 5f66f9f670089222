package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"
)

// ErrConnectionClosed is returned when the peer closes the transport:
// a zero-length read or EOF. Fatal for the connection, never retried here.
var ErrConnectionClosed = errors.New("connection closed by peer")

// readChunkSize is the transport read granularity. Frames are at most
// 64 KiB so one chunk can hold any single frame.
const readChunkSize = 64 * 1024

// FramerConfig carries explicit per-instance knobs; there is no ambient
// global debug state.
type FramerConfig struct {
	// Logger receives per-frame debug records when non-nil.
	Logger *slog.Logger
}

// Framer turns a raw byte stream into discrete length-prefixed messages.
// It accumulates arbitrary read chunks; partial frames persist across calls.
// A Framer owns one direction of one connection and is not safe for
// concurrent use.
type Framer struct {
	conn  net.Conn
	buf   []byte
	chunk []byte
	log   *slog.Logger
}

// NewFramer wraps conn. conn may be nil when only Feed/TryNext are used
// (e.g. framing an in-memory capture).
func NewFramer(conn net.Conn, cfg FramerConfig) *Framer {
	return &Framer{
		conn:  conn,
		buf:   make([]byte, 0, readChunkSize),
		chunk: make([]byte, readChunkSize),
		log:   cfg.Logger,
	}
}

// Feed appends newly read bytes to the internal buffer. No parsing happens.
func (f *Framer) Feed(data []byte) {
	f.buf = append(f.buf, data...)
}

// Buffered returns the count of bytes held but not yet framed.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// TryNext returns the next complete message, or ok=false when the buffer
// does not yet hold a full frame. Nothing is consumed on an incomplete frame.
func (f *Framer) TryNext() (RawMessage, bool) {
	var length uint16
	for {
		if len(f.buf) < 2 {
			return RawMessage{}, false
		}
		length = binary.LittleEndian.Uint16(f.buf)
		if length >= FrameHeaderSize {
			break
		}
		// A frame shorter than its own header carries no type byte; skip
		// the declared bytes (at least the length field) and rescan.
		f.buf = f.buf[min(max(int(length), 2), len(f.buf)):]
	}
	if int(length) > len(f.buf) {
		return RawMessage{}, false
	}

	payload := make([]byte, int(length)-FrameHeaderSize)
	copy(payload, f.buf[FrameHeaderSize:length])
	msg := RawMessage{
		Length:  length,
		Type:    f.buf[2],
		Payload: payload,
	}
	f.buf = f.buf[length:]

	if f.log != nil {
		f.log.Debug("frame", "type", fmt.Sprintf("0x%02X", msg.Type), "name", MessageName(msg.Type), "len", msg.Length)
	}
	return msg, true
}

// RecvBlocking reads from the transport until a complete message is framed.
// Returns ErrConnectionClosed when the peer disconnects. Read deadlines set
// on the underlying connection surface as timeout errors.
func (f *Framer) RecvBlocking() (RawMessage, error) {
	for {
		if msg, ok := f.TryNext(); ok {
			return msg, nil
		}
		n, err := f.conn.Read(f.chunk)
		if n > 0 {
			f.Feed(f.chunk[:n])
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return RawMessage{}, ErrConnectionClosed
			}
			return RawMessage{}, fmt.Errorf("reading from transport: %w", err)
		}
		// Zero-length read with no error: peer is gone.
		return RawMessage{}, ErrConnectionClosed
	}
}

// PollNonblocking drains whatever transport data is ready right now, then
// frames up to max messages. It never blocks: readiness is checked with a
// zero read deadline. An empty slice means nothing was ready.
func (f *Framer) PollNonblocking(max int) ([]RawMessage, error) {
	defer f.conn.SetReadDeadline(time.Time{})
	for {
		if err := f.conn.SetReadDeadline(time.Now()); err != nil {
			return nil, fmt.Errorf("setting poll deadline: %w", err)
		}
		n, err := f.conn.Read(f.chunk)
		if n > 0 {
			f.Feed(f.chunk[:n])
		}
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				break // nothing more ready
			}
			if errors.Is(err, io.EOF) {
				return nil, ErrConnectionClosed
			}
			return nil, fmt.Errorf("polling transport: %w", err)
		}
		if n == 0 {
			return nil, ErrConnectionClosed
		}
	}

	var msgs []RawMessage
	for i := 0; i < max; i++ {
		msg, ok := f.TryNext()
		if !ok {
			break
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
