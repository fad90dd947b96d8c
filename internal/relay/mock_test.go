package relay_test

import (
	"context"
	"io"
	"sync"

	"github.com/omochice/guessthesong/internal/config"
	"github.com/omochice/guessthesong/pkg/protocol"
)

// mockConn is a mock implementation of relay.Conn for testing.
type mockConn struct {
	readCh     chan protocol.Frame
	writtenMu  sync.Mutex
	written    []protocol.Frame
	writeErr   error
	closed     bool
	remoteAddr string
}

func newMockConn(addr string) *mockConn {
	return &mockConn{
		readCh:     make(chan protocol.Frame, 10),
		remoteAddr: addr,
	}
}

func (m *mockConn) ReadFrame(ctx context.Context) (protocol.Frame, error) {
	select {
	case <-ctx.Done():
		return protocol.Frame{}, ctx.Err()
	case f, ok := <-m.readCh:
		if !ok {
			return protocol.Frame{}, io.EOF
		}
		return f, nil
	}
}

func (m *mockConn) WriteFrame(ctx context.Context, f protocol.Frame) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	m.written = append(m.written, f)
	return nil
}

func (m *mockConn) Close() error {
	m.closed = true
	return nil
}

func (m *mockConn) RemoteAddr() string {
	return m.remoteAddr
}

func (m *mockConn) frames() []protocol.Frame {
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	out := make([]protocol.Frame, len(m.written))
	copy(out, m.written)
	return out
}

func testMessages() config.Messages {
	msgs := config.Messages{}
	for _, name := range config.RequiredMessages {
		msgs[name] = name
	}
	return msgs
}
