package ws_test

import (
	"context"
	"testing"
	"time"

	"github.com/omochice/guessthesong/internal/session"
	"github.com/omochice/guessthesong/internal/transport/ws"
	"github.com/omochice/guessthesong/pkg/protocol"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// handshakeHandler answers the session handshake and then echoes frames.
func handshakeHandler(ctx context.Context, conn *ws.Conn) {
	f, err := conn.ReadFrame(ctx)
	if err != nil {
		return
	}
	id, err := protocol.ParseHandshake(f.Payload)
	if err != nil {
		return
	}
	if err := conn.WriteFrame(ctx, protocol.Binary(protocol.HandshakeResponse(id))); err != nil {
		return
	}
	for {
		f, err := conn.ReadFrame(ctx)
		if err != nil {
			return
		}
		if err := conn.WriteFrame(ctx, f); err != nil {
			return
		}
	}
}

func startServer(t *testing.T, handler ws.Handler) *ws.Server {
	t.Helper()
	srv := ws.NewServer("127.0.0.1:0", handler, zerolog.Nop())
	require.NoError(t, srv.Listen())
	go srv.Serve()
	return srv
}

func TestServer_Addr(t *testing.T) {
	srv := startServer(t, handshakeHandler)
	defer srv.Stop()

	assert.Contains(t, srv.Addr(), "127.0.0.1:")
}

func TestServer_SessionRoundTrip(t *testing.T) {
	srv := startServer(t, handshakeHandler)
	defer srv.Stop()

	conn, err := session.Dial(context.Background(), "ws://"+srv.Addr(), ws.NewDialer(time.Second), session.DefaultConfig(), zerolog.Nop())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SendText(context.Background(), "receiverSignature"))
	f, err := conn.Receive(context.Background())
	require.NoError(t, err)
	assert.True(t, f.IsText("receiverSignature"))
}

func TestServer_Stop(t *testing.T) {
	srv := startServer(t, handshakeHandler)

	conn, err := ws.NewDialer(time.Second).Dial(context.Background(), "ws://"+srv.Addr())
	require.NoError(t, err)
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		srv.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while a handler was blocked reading")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = ws.NewDialer(100*time.Millisecond).Dial(ctx, "ws://"+srv.Addr())
	assert.Error(t, err, "expected error after stop")
}

func TestServer_HandshakeRejected(t *testing.T) {
	srv := startServer(t, func(ctx context.Context, conn *ws.Conn) {
		if _, err := conn.ReadFrame(ctx); err != nil {
			return
		}
		_ = conn.WriteFrame(ctx, protocol.Text("not a relay"))
	})
	defer srv.Stop()

	_, err := session.Dial(context.Background(), "ws://"+srv.Addr(), ws.NewDialer(time.Second), session.DefaultConfig(), zerolog.Nop())
	require.ErrorIs(t, err, session.ErrHandshakeNotBinary)
}
