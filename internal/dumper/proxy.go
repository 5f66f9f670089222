// Package dumper is a relaying proxy that frames and decodes both directions
// of a client↔server connection for protocol inspection. Each direction owns
// its own framer and decode loop; the two pipe tasks share nothing beyond
// the sockets they forward between.
package dumper

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/grottonet/grotto/internal/capture"
	"github.com/grottonet/grotto/internal/profile"
	"github.com/grottonet/grotto/internal/protocol"
)

// Config carries proxy parameters. Suppression of chatty message types is
// explicit per-instance configuration.
type Config struct {
	ListenAddress   string
	UpstreamAddress string

	// Suppress lists message types to relay without logging.
	Suppress map[byte]bool

	// Store, when non-nil, persists every relayed frame.
	Store *capture.Store

	// DumpPayloads includes hex payload dumps in the log output.
	DumpPayloads bool

	Logger *slog.Logger
}

// Proxy accepts client connections and relays each to the upstream server,
// dumping framed traffic in both directions.
type Proxy struct {
	cfg   Config
	prof  *profile.Profile
	log   *slog.Logger
	conns int

	listener net.Listener
	mu       sync.Mutex
}

// New creates a Proxy. The profile drives payload decoding for the dump
// output; relaying itself is byte-exact regardless of decode success.
func New(cfg Config, prof *profile.Profile) *Proxy {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Proxy{cfg: cfg, prof: prof, log: log}
}

// Addr returns the listening address, nil before Run.
func (p *Proxy) Addr() net.Addr {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listener == nil {
		return nil
	}
	return p.listener.Addr()
}

// Run listens and serves until ctx is cancelled.
func (p *Proxy) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", p.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", p.cfg.ListenAddress, err)
	}
	p.mu.Lock()
	p.listener = ln
	p.mu.Unlock()
	return p.Serve(ctx, ln)
}

// Serve accepts connections on a ready listener. Split from Run for tests
// with an arbitrary listener.
func (p *Proxy) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	p.log.Info("dumper listening", "address", ln.Addr(), "upstream", p.cfg.UpstreamAddress)

	var wg sync.WaitGroup
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				wg.Wait()
				return nil
			}
			p.log.Error("accept failed", "err", err)
			continue
		}
		p.mu.Lock()
		p.conns++
		label := fmt.Sprintf("conn-%d", p.conns)
		p.mu.Unlock()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.handle(ctx, conn, label); err != nil {
				p.log.Info("connection finished", "label", label, "err", err)
			}
		}()
	}
}

// handle relays one client connection to the upstream server.
func (p *Proxy) handle(ctx context.Context, client net.Conn, label string) error {
	defer client.Close()

	upstream, err := net.Dial("tcp", p.cfg.UpstreamAddress)
	if err != nil {
		return fmt.Errorf("dialing upstream %s: %w", p.cfg.UpstreamAddress, err)
	}
	defer upstream.Close()

	p.log.Info("relaying", "label", label, "client", client.RemoteAddr(), "upstream", upstream.RemoteAddr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.pipe(gctx, client, upstream, label, capture.DirClientToServer)
	})
	g.Go(func() error {
		return p.pipe(gctx, upstream, client, label, capture.DirServerToClient)
	})
	go func() {
		<-gctx.Done()
		client.Close()
		upstream.Close()
	}()
	return g.Wait()
}

// pipe copies src→dst, framing and dumping everything that passes through.
// Forwarding is chunk-level: bytes are relayed as read, so a decode problem
// never stalls or alters the relayed stream.
func (p *Proxy) pipe(ctx context.Context, src, dst net.Conn, label, direction string) error {
	framer := protocol.NewFramer(nil, protocol.FramerConfig{})
	codec := protocol.NewCodec(p.prof)
	chunk := make([]byte, 64*1024)

	for {
		n, err := src.Read(chunk)
		if n > 0 {
			if _, werr := dst.Write(chunk[:n]); werr != nil {
				return fmt.Errorf("forwarding %s: %w", direction, werr)
			}
			framer.Feed(chunk[:n])
			for {
				raw, ok := framer.TryNext()
				if !ok {
					break
				}
				p.dump(ctx, codec, raw, label, direction)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("reading %s: %w", direction, err)
		}
	}
}

func (p *Proxy) dump(ctx context.Context, codec *protocol.Codec, raw protocol.RawMessage, label, direction string) {
	if p.cfg.Store != nil {
		frame, err := protocol.Frame(raw.Type, raw.Payload)
		if err == nil {
			if err := p.cfg.Store.RecordFrame(ctx, label, direction, raw.Type, frame); err != nil {
				p.log.Error("recording frame", "label", label, "err", err)
			}
		}
	}
	if p.cfg.Suppress[raw.Type] {
		return
	}

	attrs := []any{
		"label", label,
		"dir", direction,
		"type", fmt.Sprintf("0x%02X", raw.Type),
		"name", protocol.MessageName(raw.Type),
		"len", raw.Length,
	}
	if p.cfg.DumpPayloads {
		attrs = append(attrs, "payload", hex.EncodeToString(raw.Payload))
	}
	if msg := codec.Decode(raw); msg != nil {
		if u, ok := msg.(protocol.Unknown); ok && u.Err != nil {
			attrs = append(attrs, "decode_err", u.Err)
		}
	}
	p.log.Info("frame", attrs...)
}
