package protocol

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/grottonet/grotto/internal/metrics"
)

// TilePoint is an absolute world tile coordinate.
type TilePoint struct {
	X, Y int32
}

// TileSection is one decoded rectangular tile-data blob. Tiles is sparse:
// only active cells are present.
type TileSection struct {
	XStart int32
	YStart int32
	Width  int16
	Height int16
	Tiles  map[TilePoint]uint16
}

func (*TileSection) MsgType() byte { return MsgTileSection }

// degradedWarnOnce gates the single process-wide warning emitted when tile
// sections are decoded without a tile-frame-important set.
var degradedWarnOnce sync.Once

// DecodeTileSection decompresses and decodes one tile section payload.
//
// The payload is deflate-compressed, normally with a zlib header; some
// variants omit it, so raw deflate is tried second. The decompressed form
// is a 10-byte header (x i32, y i32, width i16, height i16) followed by a
// bit-flag/RLE cell stream scanned in row-major order.
//
// Without a resolved tile-frame-important set the per-tile extra fields
// cannot be located, so the section degrades to bounds plus an empty map.
func (c *Codec) DecodeTileSection(payload []byte) (*TileSection, error) {
	data, err := inflate(payload)
	if err != nil {
		metrics.TileSections.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("decompressing tile section: %w", err)
	}

	r := NewReader(data)
	ts := &TileSection{Tiles: make(map[TilePoint]uint16)}
	if ts.XStart, err = r.ReadInt32(); err != nil {
		return nil, fmt.Errorf("tile section header: %w", err)
	}
	if ts.YStart, err = r.ReadInt32(); err != nil {
		return nil, fmt.Errorf("tile section header: %w", err)
	}
	if ts.Width, err = r.ReadInt16(); err != nil {
		return nil, fmt.Errorf("tile section header: %w", err)
	}
	if ts.Height, err = r.ReadInt16(); err != nil {
		return nil, fmt.Errorf("tile section header: %w", err)
	}

	if !c.prof.HasFrameImportant() {
		degradedWarnOnce.Do(func() {
			slog.Warn("no tile-frame-important set resolved; decoding tile section bounds only",
				"profile", c.prof.Name)
		})
		metrics.TileSections.WithLabelValues("degraded").Inc()
		return ts, nil
	}

	if err := c.decodeCells(r, ts); err != nil {
		metrics.TileSections.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("tile section cells at (%d,%d) %dx%d: %w",
			ts.XStart, ts.YStart, ts.Width, ts.Height, err)
	}
	metrics.TileSections.WithLabelValues("ok").Inc()
	return ts, nil
}

// decodeCells walks the cell stream. Byte consumption at each cell depends
// on flags read at that cell, and a pending RLE count suppresses byte
// consumption entirely; the conditional reads below are in wire order and
// must not be reordered.
func (c *Codec) decodeCells(r *Reader, ts *TileSection) error {
	var (
		rle        int
		lastActive bool
		lastType   uint16
	)
	for y := ts.YStart; y < ts.YStart+int32(ts.Height); y++ {
		for x := ts.XStart; x < ts.XStart+int32(ts.Width); x++ {
			if rle > 0 {
				rle--
				if lastActive {
					ts.Tiles[TilePoint{X: x, Y: y}] = lastType
				}
				continue
			}

			b4, err := r.ReadByte()
			if err != nil {
				return err
			}
			var b3, b2 byte
			if b4&0x01 != 0 {
				if b3, err = r.ReadByte(); err != nil {
					return err
				}
				if b3&0x01 != 0 {
					if b2, err = r.ReadByte(); err != nil {
						return err
					}
					if b2&0x01 != 0 {
						// Reserved header byte behind triple-nested flags;
						// meaning unknown, consumed and discarded.
						if _, err = r.ReadByte(); err != nil {
							return err
						}
					}
				}
			}

			active := b4&0x02 != 0
			var tileType uint16
			if active {
				if b4&0x20 != 0 {
					if tileType, err = r.ReadUint16(); err != nil {
						return err
					}
				} else {
					b, err := r.ReadByte()
					if err != nil {
						return err
					}
					tileType = uint16(b)
				}
				if c.prof.FrameImportant(tileType) {
					// Frame coordinates, two i16; not retained.
					if _, err = r.ReadInt16(); err != nil {
						return err
					}
					if _, err = r.ReadInt16(); err != nil {
						return err
					}
				}
				if b2&0x08 != 0 {
					if _, err = r.ReadByte(); err != nil { // tile color
						return err
					}
				}
			}

			if b4&0x04 != 0 {
				if _, err = r.ReadByte(); err != nil { // wall id
					return err
				}
				if b2&0x10 != 0 {
					if _, err = r.ReadByte(); err != nil { // wall color
						return err
					}
				}
			}

			if liquid := (b4 >> 3) & 0x03; liquid != 0 {
				if _, err = r.ReadByte(); err != nil { // liquid amount
					return err
				}
			}

			if b2&0x40 != 0 {
				if _, err = r.ReadByte(); err != nil {
					return err
				}
			}

			switch (b4 >> 6) & 0x03 {
			case 0:
				rle = 0
			case 1:
				n, err := r.ReadByte()
				if err != nil {
					return err
				}
				rle = int(n)
			default:
				n, err := r.ReadInt16()
				if err != nil {
					return err
				}
				if n < 0 {
					return fmt.Errorf("negative rle count %d", n)
				}
				rle = int(n)
			}

			if active {
				ts.Tiles[TilePoint{X: x, Y: y}] = tileType
			}
			// The next RLE repeat replays this exact state, active or not.
			lastActive, lastType = active, tileType
		}
	}
	return nil
}

// inflate decompresses with zlib framing, falling back to raw deflate when
// the zlib header is absent.
func inflate(payload []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err == nil {
		defer zr.Close()
		data, err := io.ReadAll(zr)
		if err == nil {
			return data, nil
		}
	}
	fr := flate.NewReader(bytes.NewReader(payload))
	defer fr.Close()
	data, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("neither zlib nor raw deflate: %w", err)
	}
	return data, nil
}
