// Package session drives the login handshake and keeps the world store
// current from decoded messages. The engine is a synchronous state machine:
// one goroutine reads, decodes and applies; no outbound traffic is gated
// once the session is playing.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/grottonet/grotto/internal/profile"
	"github.com/grottonet/grotto/internal/protocol"
	"github.com/grottonet/grotto/internal/world"
)

// ErrServerRejected is returned when the server answers the handshake with
// a fatal-error message. The server-supplied text is attached.
var ErrServerRejected = errors.New("server rejected connection")

// Config carries per-session parameters. Empty name/UUID and a zero slot
// count fall back to DefaultConfig; a zero WorldInfoRetry stays zero and
// disables the retry.
type Config struct {
	PlayerName string
	Password   string
	ClientUUID string

	// InventorySlots is how many slots the full inventory sync covers.
	InventorySlots int

	// WorldInfoRetry re-sends the world-info request when no message of
	// any kind arrives for this long. Zero disables the retry.
	WorldInfoRetry time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns the config used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		PlayerName:     "grotto",
		ClientUUID:     "00000000-0000-0000-0000-000000000000",
		InventorySlots: 73,
		WorldInfoRetry: 2 * time.Second,
	}
}

// Session is the protocol engine for one connection.
type Session struct {
	conn      net.Conn
	framer    *protocol.Framer
	codec     *protocol.Codec
	enc       *protocol.Encoder
	prof      *profile.Profile
	cfg       Config
	log       *slog.Logger
	world     *world.State
	teleports *world.TeleportTracker

	state     State
	slot      byte
	worldInfo *protocol.WorldInfo
	failure   error
}

// New creates a Session over an established connection. The profile is
// immutable for the session's lifetime.
func New(conn net.Conn, prof *profile.Profile, cfg Config) *Session {
	def := DefaultConfig()
	if cfg.PlayerName == "" {
		cfg.PlayerName = def.PlayerName
	}
	if cfg.ClientUUID == "" {
		cfg.ClientUUID = def.ClientUUID
	}
	if cfg.InventorySlots == 0 {
		cfg.InventorySlots = def.InventorySlots
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Session{
		conn:      conn,
		framer:    protocol.NewFramer(conn, protocol.FramerConfig{}),
		codec:     protocol.NewCodec(prof),
		enc:       protocol.NewEncoder(prof),
		prof:      prof,
		cfg:       cfg,
		log:       cfg.Logger,
		world:     world.NewState(),
		teleports: world.NewTeleportTracker(),
		state:     StateConnecting,
	}
}

// State returns the current handshake state.
func (s *Session) State() State { return s.state }

// Slot returns the player slot assigned by the server.
func (s *Session) Slot() byte { return s.slot }

// World returns the session's world store.
func (s *Session) World() *world.State { return s.world }

// WorldInfo returns the captured world metadata, nil before it arrives.
func (s *Session) WorldInfo() *protocol.WorldInfo { return s.worldInfo }

// Encoder returns the session's frame encoder for external senders (bot,
// keep-alive, CLI).
func (s *Session) Encoder() *protocol.Encoder { return s.enc }

// Send writes a pre-built frame to the transport.
func (s *Session) Send(frame []byte) error {
	if _, err := s.conn.Write(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Run performs the handshake until the session is playing. Cancelling ctx
// closes the transport, which surfaces as a connection error.
func (s *Session) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-done:
		}
	}()

	s.log.Info("connecting", "profile", s.prof.Name, "handshake", s.prof.Handshake)
	if err := s.Send(s.enc.Connect()); err != nil {
		return s.fail(err)
	}
	s.state = StateAwaitingApproval

	for s.state != StatePlaying {
		msg, err := s.recv()
		if err != nil {
			return s.fail(err)
		}
		if err := s.Handle(msg); err != nil {
			return s.fail(err)
		}
	}
	s.log.Info("session playing", "slot", s.slot, "world", s.worldInfo.WorldName)
	return nil
}

// recv blocks for the next message, re-sending the world-info request when
// the retry interval elapses with no traffic at all.
func (s *Session) recv() (protocol.Message, error) {
	for {
		if s.state == StateAwaitingWorldInfo && s.cfg.WorldInfoRetry > 0 {
			if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.WorldInfoRetry)); err != nil {
				return nil, fmt.Errorf("setting retry deadline: %w", err)
			}
		} else {
			if err := s.conn.SetReadDeadline(time.Time{}); err != nil {
				return nil, fmt.Errorf("clearing read deadline: %w", err)
			}
		}

		raw, err := s.framer.RecvBlocking()
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() && s.state == StateAwaitingWorldInfo {
				s.log.Debug("no world info yet, re-requesting")
				if err := s.Send(s.enc.RequestWorldInfo()); err != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}
		return s.codec.Decode(raw), nil
	}
}

// Poll drains ready transport data and applies up to max messages. Intended
// for the playing phase, called from a tick loop that does other work
// between polls.
func (s *Session) Poll(max int) (int, error) {
	raws, err := s.framer.PollNonblocking(max)
	if err != nil {
		return 0, err
	}
	for _, raw := range raws {
		if err := s.Handle(s.codec.Decode(raw)); err != nil {
			return 0, err
		}
	}
	return len(raws), nil
}

// Handle applies one decoded message to the state machine and world store.
func (s *Session) Handle(msg protocol.Message) error {
	switch m := msg.(type) {
	case protocol.FatalError:
		s.state = StateFailed
		return fmt.Errorf("%w: %s", ErrServerRejected, m.Text)

	case protocol.RequestPassword:
		if s.state != StateAwaitingApproval {
			return nil
		}
		s.log.Info("server requested password")
		return s.Send(s.enc.Password(s.cfg.Password))

	case protocol.ConnectionApproved:
		if s.state != StateAwaitingApproval {
			return nil
		}
		s.slot = m.Slot
		s.log.Info("connection approved", "slot", s.slot)
		if err := s.sendClientInfo(); err != nil {
			return err
		}
		s.state = StateAwaitingWorldInfo
		return nil

	case protocol.WorldInfo:
		if s.state != StateAwaitingWorldInfo {
			return nil
		}
		s.worldInfo = &m
		// Seed the fallback position from the spawn tile until a real
		// position update arrives.
		s.world.SetPlayerPosition(s.slot, float32(m.SpawnTileX)*16, float32(m.SpawnTileY)*16)
		s.log.Info("world info received",
			"world", m.WorldName, "id", m.WorldID,
			"spawn_x", m.SpawnTileX, "spawn_y", m.SpawnTileY)
		if err := s.Send(s.enc.RequestTileData(int32(m.SpawnTileX), int32(m.SpawnTileY))); err != nil {
			return err
		}
		s.state = StateAwaitingSpawn
		return nil

	case protocol.StartPlaying:
		return s.spawnSelf()

	case protocol.PlayerSpawn:
		if m.Slot == s.slot && (s.state == StateAwaitingSpawn) {
			return s.spawnSelf()
		}
		return nil

	case *protocol.TileSection:
		s.world.MergeSection(m)
		return nil

	case protocol.UpdateItem:
		s.world.SetItem(world.Item{
			Slot: m.Slot, X: m.X, Y: m.Y, VelX: m.VelX, VelY: m.VelY,
			Stack: m.Stack, Prefix: m.Prefix, ItemID: m.ItemID,
		})
		return nil

	case protocol.ItemOwner:
		s.world.SetItemOwner(m.Slot, m.Owner)
		return nil

	case protocol.UpdateNPC:
		n := world.Npc{
			Slot: m.Slot, X: m.X, Y: m.Y, VelX: m.VelX, VelY: m.VelY,
			Target: m.Target, NPCID: m.NPCID, Life: 1,
		}
		if m.Life != nil {
			n.Life = *m.Life
		}
		s.world.SetNpc(n)
		return nil

	case protocol.PlayerControls:
		s.world.SetPlayerPosition(m.Slot, m.X, m.Y)
		return nil

	case protocol.PlayerActive:
		if !m.Active {
			s.world.RemovePlayer(m.Slot)
		}
		return nil

	case protocol.Teleport:
		return s.handleTeleport(m)

	case protocol.NetModuleText:
		s.log.Info("chat", "command", m.Command, "text", m.Text)
		return nil

	case protocol.StatusBar:
		s.log.Debug("status", "text", m.Text)
		return nil

	case protocol.Unknown:
		if m.Err != nil {
			s.log.Debug("malformed payload kept raw",
				"type", protocol.MessageName(m.Type), "len", len(m.Payload), "err", m.Err)
		}
		return nil

	default:
		return nil
	}
}

// sendClientInfo sends the post-approval burst: appearance, client
// identifier, health, mana, buffs, loadout, a full inventory sync, then the
// world-info request.
func (s *Session) sendClientInfo() error {
	appearance := protocol.PlayerAppearance{
		Slot:            s.slot,
		Name:            s.cfg.PlayerName,
		SkinColor:       protocol.Color{R: 255, G: 224, B: 189},
		EyeColor:        protocol.Color{R: 64, G: 64, B: 64},
		ShirtColor:      protocol.Color{R: 100, G: 100, B: 100},
		UndershirtColor: protocol.Color{R: 100, G: 100, B: 100},
		PantsColor:      protocol.Color{R: 100, G: 100, B: 100},
		ShoeColor:       protocol.Color{R: 50, G: 50, B: 50},
	}
	frames := [][]byte{
		s.enc.Appearance(appearance),
		s.enc.ClientUUID(s.cfg.ClientUUID),
		s.enc.PlayerLife(s.slot, 100, 100),
		s.enc.PlayerMana(s.slot, 20, 20),
		s.enc.PlayerBuffs(s.slot, nil),
		s.enc.Loadout(s.slot, 0),
	}
	for _, f := range frames {
		if err := s.Send(f); err != nil {
			return err
		}
	}
	for i := 0; i < s.cfg.InventorySlots; i++ {
		eq := protocol.SyncEquipment{PlayerSlot: s.slot, Slot: int16(i)}
		if err := s.Send(s.enc.SyncEquipment(eq)); err != nil {
			return err
		}
	}
	return s.Send(s.enc.RequestWorldInfo())
}

// spawnSelf announces the local player's spawn and enters the playing
// state. Safe to call once; repeat spawn signals are ignored.
func (s *Session) spawnSelf() error {
	if s.state != StateAwaitingSpawn {
		return nil
	}
	if s.worldInfo == nil {
		return errors.New("spawn signal before world info")
	}
	spawn := protocol.PlayerSpawn{
		Slot:   s.slot,
		SpawnX: int32(s.worldInfo.SpawnTileX),
		SpawnY: int32(s.worldInfo.SpawnTileY),
	}
	if err := s.Send(s.enc.PlayerSpawn(spawn)); err != nil {
		return err
	}
	s.state = StatePlaying
	return nil
}

// handleTeleport applies the request/acknowledge cycle. Modes 0 and 2 are
// pending requests; mode 3 is a server acknowledgement.
func (s *Session) handleTeleport(t protocol.Teleport) error {
	if s.state != StateAwaitingSpawn && s.state != StatePlaying {
		return nil
	}
	switch t.Mode() {
	case 0, 2:
		if s.teleports.Sent(t.Target) {
			s.log.Debug("teleport pending", "target", t.Target, "mode", t.Mode())
		}
		if t.Target == int16(s.slot) {
			if err := s.Send(s.enc.TeleportAck(t.Target, t.X, t.Y)); err != nil {
				return err
			}
			s.teleports.Ack(t.Target)
			s.world.SetPlayerPosition(s.slot, t.X, t.Y)
		}
	case 3:
		if s.teleports.Ack(t.Target) {
			s.log.Debug("teleport acknowledged", "target", t.Target)
		}
	}
	return nil
}

// Teleports exposes the tracker for tests and reporting.
func (s *Session) Teleports() *world.TeleportTracker { return s.teleports }

func (s *Session) fail(err error) error {
	s.state = StateFailed
	s.failure = err
	return err
}

// Failure returns the terminal error after the session failed.
func (s *Session) Failure() error { return s.failure }
