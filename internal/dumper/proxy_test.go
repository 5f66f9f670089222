package dumper

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

// TestProxyRelay runs a scripted upstream behind the proxy and checks the
// relayed bytes survive untouched in both directions.
func TestProxyRelay(t *testing.T) {
	upstream, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer upstream.Close()

	// Upstream answers every connect with an approval and closes.
	go func() {
		conn, err := upstream.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		f := protocol.NewFramer(conn, protocol.FramerConfig{})
		msg, err := f.RecvBlocking()
		if err != nil || msg.Type != protocol.MsgConnect {
			return
		}
		frame, _ := protocol.Frame(protocol.MsgConnectionApproved, []byte{4})
		conn.Write(frame)
	}()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	proxy := New(Config{
		UpstreamAddress: upstream.Addr().String(),
		Suppress:        map[byte]bool{protocol.MsgPlayerControls: true},
	}, profile.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- proxy.Serve(ctx, ln) }()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	enc := protocol.NewEncoder(profile.Default())
	_, err = client.Write(enc.Connect())
	require.NoError(t, err)

	f := protocol.NewFramer(client, protocol.FramerConfig{})
	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	msg, err := f.RecvBlocking()
	require.NoError(t, err)
	assert.Equal(t, byte(protocol.MsgConnectionApproved), msg.Type)
	assert.Equal(t, []byte{4}, msg.Payload)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("proxy did not shut down")
	}
}

func TestProxyUpstreamUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	// A listener that is closed immediately leaves a port nothing accepts on.
	dead, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	deadAddr := dead.Addr().String()
	dead.Close()

	proxy := New(Config{UpstreamAddress: deadAddr}, profile.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- proxy.Serve(ctx, ln) }()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	// The proxy drops the client once the upstream dial fails.
	require.NoError(t, client.SetReadDeadline(time.Now().Add(5*time.Second)))
	buf := make([]byte, 1)
	_, err = client.Read(buf)
	assert.Error(t, err)

	cancel()
	select {
	case err := <-served:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("proxy did not shut down")
	}
}
