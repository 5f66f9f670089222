package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grottonet/grotto/internal/profile"
	"github.com/grottonet/grotto/internal/protocol"
)

// scriptServer drives one side of a net.Pipe through the handshake: approve
// the connect, answer the world-info request, send the spawn signal, and
// record every client frame type in arrival order. The pipe is unbuffered,
// so the server keeps reading while the client bursts.
type scriptServer struct {
	conn   net.Conn
	framer *protocol.Framer

	// requirePassword makes the server demand the password before approval.
	requirePassword bool
	// withholdWorldInfo is how many world-info requests to ignore before
	// answering; exercises the client-side retry.
	withholdWorldInfo int

	received chan []byte
}

func newScriptServer(conn net.Conn) *scriptServer {
	return &scriptServer{
		conn:     conn,
		framer:   protocol.NewFramer(conn, protocol.FramerConfig{}),
		received: make(chan []byte, 1),
	}
}

func (s *scriptServer) send(frame []byte) {
	s.conn.Write(frame)
}

func (s *scriptServer) worldInfoFrame() []byte {
	w := protocol.NewWriter()
	w.WriteInt32(27000)
	w.WriteUint8(1)
	w.WriteUint8(0)
	w.WriteInt16(4200)
	w.WriteInt16(1200)
	w.WriteInt16(100) // spawn x
	w.WriteInt16(50)  // spawn y
	w.WriteInt16(350)
	w.WriteInt16(500)
	w.WriteInt32(99)
	w.WriteString("ScriptWorld")
	w.WriteUint8(0)
	w.WriteBytes(make([]byte, 16))
	w.WriteBytes(make([]byte, 8))
	return w.Frame(protocol.MsgWorldInfo)
}

// run scripts the handshake until the client announces its spawn, then
// delivers the ordered list of received frame types.
func (s *scriptServer) run() {
	var types []byte
	worldInfoRequests := 0
	for {
		msg, err := s.framer.RecvBlocking()
		if err != nil {
			s.received <- types
			return
		}
		types = append(types, msg.Type)

		switch msg.Type {
		case protocol.MsgConnect:
			if s.requirePassword {
				s.send(mustFrame(protocol.MsgRequestPassword, nil))
				continue
			}
			s.send(mustFrame(protocol.MsgConnectionApproved, []byte{4}))

		case protocol.MsgSendPassword:
			s.send(mustFrame(protocol.MsgConnectionApproved, []byte{4}))

		case protocol.MsgRequestWorldInfo:
			worldInfoRequests++
			if worldInfoRequests <= s.withholdWorldInfo {
				continue
			}
			s.send(s.worldInfoFrame())

		case protocol.MsgRequestTileData:
			s.send(mustFrame(protocol.MsgStartPlaying, nil))

		case protocol.MsgPlayerSpawn:
			s.received <- types
			return
		}
	}
}

func mustFrame(msgType byte, payload []byte) []byte {
	frame, err := protocol.Frame(msgType, payload)
	if err != nil {
		panic(err)
	}
	return frame
}

func runSession(t *testing.T, sess *Session) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- sess.Run(context.Background()) }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("handshake did not finish")
		return nil
	}
}

func TestHandshake(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	srv := newScriptServer(server)
	go srv.run()

	sess := New(client, profile.Default(), Config{
		PlayerName:     "tester",
		InventorySlots: 3,
	})
	require.NoError(t, runSession(t, sess))

	assert.Equal(t, StatePlaying, sess.State())
	assert.Equal(t, byte(4), sess.Slot())
	require.NotNil(t, sess.WorldInfo())
	assert.Equal(t, "ScriptWorld", sess.WorldInfo().WorldName)

	pos, ok := sess.World().PlayerPosition(4)
	require.True(t, ok)
	assert.Equal(t, float32(100*16), pos.X)
	assert.Equal(t, float32(50*16), pos.Y)

	types := <-srv.received
	want := []byte{
		protocol.MsgConnect,
		protocol.MsgPlayerAppearance,
		protocol.MsgClientUUID,
		protocol.MsgPlayerLife,
		protocol.MsgPlayerMana,
		protocol.MsgPlayerBuffs,
		protocol.MsgLoadout,
		protocol.MsgSyncEquipment,
		protocol.MsgSyncEquipment,
		protocol.MsgSyncEquipment,
		protocol.MsgRequestWorldInfo,
		protocol.MsgRequestTileData,
		protocol.MsgPlayerSpawn,
	}
	assert.Equal(t, want, types)
}

func TestHandshakeWithPassword(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	srv := newScriptServer(server)
	srv.requirePassword = true
	go srv.run()

	sess := New(client, profile.Default(), Config{
		Password:       "hunter2",
		InventorySlots: 1,
	})
	require.NoError(t, runSession(t, sess))
	assert.Equal(t, StatePlaying, sess.State())

	types := <-srv.received
	require.GreaterOrEqual(t, len(types), 2)
	assert.Equal(t, byte(protocol.MsgConnect), types[0])
	assert.Equal(t, byte(protocol.MsgSendPassword), types[1])
}

func TestHandshakeRejected(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		f := protocol.NewFramer(server, protocol.FramerConfig{})
		f.RecvBlocking() // the connect
		w := protocol.NewWriter()
		w.WriteString("You are banned")
		server.Write(w.Frame(protocol.MsgFatalError))
	}()

	sess := New(client, profile.Default(), Config{InventorySlots: 1})
	err := runSession(t, sess)
	require.ErrorIs(t, err, ErrServerRejected)
	assert.Contains(t, err.Error(), "You are banned")
	assert.Equal(t, StateFailed, sess.State())
	assert.ErrorIs(t, sess.Failure(), ErrServerRejected)
}

func TestWorldInfoRetry(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	srv := newScriptServer(server)
	srv.withholdWorldInfo = 2
	go srv.run()

	sess := New(client, profile.Default(), Config{
		InventorySlots: 1,
		WorldInfoRetry: 50 * time.Millisecond,
	})
	require.NoError(t, runSession(t, sess))
	assert.Equal(t, StatePlaying, sess.State())

	types := <-srv.received
	requests := 0
	for _, tp := range types {
		if tp == protocol.MsgRequestWorldInfo {
			requests++
		}
	}
	assert.Equal(t, 3, requests, "two ignored requests plus the answered one")
}

func TestRunCancelled(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	// Server accepts the connect but never answers.
	go func() {
		f := protocol.NewFramer(server, protocol.FramerConfig{})
		for {
			if _, err := f.RecvBlocking(); err != nil {
				return
			}
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	sess := New(client, profile.Default(), Config{InventorySlots: 1})

	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, StateFailed, sess.State())
	case <-time.After(5 * time.Second):
		t.Fatal("cancellation did not end the session")
	}
}

// playingSession completes the handshake and returns the session plus a
// channel of frames the fake server keeps receiving afterwards.
func playingSession(t *testing.T) (*Session, <-chan protocol.RawMessage) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })

	srv := newScriptServer(server)
	go srv.run()

	sess := New(client, profile.Default(), Config{InventorySlots: 1})
	require.NoError(t, runSession(t, sess))
	<-srv.received

	frames := make(chan protocol.RawMessage, 16)
	go func() {
		f := protocol.NewFramer(server, protocol.FramerConfig{})
		for {
			msg, err := f.RecvBlocking()
			if err != nil {
				close(frames)
				return
			}
			frames <- msg
		}
	}()
	return sess, frames
}

func TestHandleTeleportOwnSlot(t *testing.T) {
	sess, frames := playingSession(t)

	// A pending teleport aimed at the local slot is acknowledged right away.
	err := sess.Handle(protocol.Teleport{Flags: 0x00, Target: int16(sess.Slot()), X: 640, Y: 320})
	require.NoError(t, err)

	select {
	case msg := <-frames:
		assert.Equal(t, byte(protocol.MsgTeleport), msg.Type)
		assert.Equal(t, byte(0x03), msg.Payload[0]&0x03)
	case <-time.After(2 * time.Second):
		t.Fatal("no teleport ack sent")
	}

	pos, ok := sess.World().PlayerPosition(sess.Slot())
	require.True(t, ok)
	assert.Equal(t, float32(640), pos.X)
	assert.Equal(t, float32(320), pos.Y)
	assert.Zero(t, sess.Teleports().Pending(int16(sess.Slot())), "own requests drain immediately")
}

func TestHandleTeleportOtherSlot(t *testing.T) {
	sess, _ := playingSession(t)

	other := int16(sess.Slot()) + 1
	require.NoError(t, sess.Handle(protocol.Teleport{Flags: 0x02, Target: other}))
	require.NoError(t, sess.Handle(protocol.Teleport{Flags: 0x02, Target: other}))
	assert.Equal(t, 2, sess.Teleports().Pending(other))

	require.NoError(t, sess.Handle(protocol.Teleport{Flags: 0x03, Target: other}))
	assert.Equal(t, 1, sess.Teleports().Pending(other))
	require.NoError(t, sess.Handle(protocol.Teleport{Flags: 0x03, Target: other}))
	assert.Zero(t, sess.Teleports().Pending(other))
}

func TestHandleWorldMessages(t *testing.T) {
	sess, _ := playingSession(t)

	require.NoError(t, sess.Handle(protocol.UpdateItem{Slot: 7, ItemID: 757, Stack: 1, X: 100, Y: 200}))
	it, ok := sess.World().Item(7)
	require.True(t, ok)
	assert.Equal(t, int16(757), it.ItemID)

	require.NoError(t, sess.Handle(protocol.ItemOwner{Slot: 7, Owner: 2}))
	it, _ = sess.World().Item(7)
	assert.Equal(t, byte(2), it.Owner)

	life := int32(80)
	require.NoError(t, sess.Handle(protocol.UpdateNPC{Slot: 3, NPCID: 46, Life: &life}))
	n, ok := sess.World().Npc(3)
	require.True(t, ok)
	assert.Equal(t, int32(80), n.Life)

	// No life block on the wire means the NPC is alive.
	require.NoError(t, sess.Handle(protocol.UpdateNPC{Slot: 9, NPCID: 1}))
	_, ok = sess.World().Npc(9)
	assert.True(t, ok)

	require.NoError(t, sess.Handle(protocol.PlayerControls{Slot: 6, X: 50, Y: 60}))
	pos, ok := sess.World().PlayerPosition(6)
	require.True(t, ok)
	assert.Equal(t, float32(50), pos.X)

	require.NoError(t, sess.Handle(protocol.PlayerActive{Slot: 6, Active: false}))
	_, ok = sess.World().PlayerPosition(6)
	assert.False(t, ok)

	// Unknown and malformed messages are inert.
	require.NoError(t, sess.Handle(protocol.Unknown{Type: 0xEE, Payload: []byte{1}}))
}
