package session_test

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/omochice/guessthesong/internal/session"
	"github.com/omochice/guessthesong/pkg/protocol"
)

var errBroken = errors.New("broken pipe")

// fakeServer is a scripted session.Dialer. Each Dial pops the next dial
// error; the handshake reply is produced by respond.
type fakeServer struct {
	mu       sync.Mutex
	dialErrs []error
	respond  func(handshake []byte) protocol.Frame
	conns    []*fakeTransport

	// per-transport failure script, indexed by dial order
	writeFails map[int]int
	readFails  map[int]int
	inbox      map[int][]protocol.Frame
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		respond: func(handshake []byte) protocol.Frame {
			id, _ := protocol.ParseHandshake(handshake)
			return protocol.Binary(protocol.HandshakeResponse(id))
		},
		writeFails: map[int]int{},
		readFails:  map[int]int{},
		inbox:      map[int][]protocol.Frame{},
	}
}

func (s *fakeServer) Dial(ctx context.Context, addr string) (session.Transport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.dialErrs) > 0 {
		err := s.dialErrs[0]
		s.dialErrs = s.dialErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	n := len(s.conns)
	t := &fakeTransport{
		server:     s,
		writeFails: s.writeFails[n],
		readFails:  s.readFails[n],
		inbox:      append([]protocol.Frame(nil), s.inbox[n]...),
	}
	s.conns = append(s.conns, t)
	return t, nil
}

func (s *fakeServer) dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *fakeServer) conn(i int) *fakeTransport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[i]
}

type fakeTransport struct {
	server     *fakeServer
	handshake  []byte
	reply      *protocol.Frame
	written    []protocol.Frame
	inbox      []protocol.Frame
	writeFails int
	readFails  int
	closed     bool
}

func (t *fakeTransport) WriteFrame(ctx context.Context, f protocol.Frame) error {
	if t.handshake == nil {
		t.handshake = append([]byte(nil), f.Payload...)
		reply := t.server.respond(t.handshake)
		t.reply = &reply
		return nil
	}
	if t.writeFails > 0 {
		t.writeFails--
		return errBroken
	}
	t.written = append(t.written, f)
	return nil
}

func (t *fakeTransport) ReadFrame(ctx context.Context) (protocol.Frame, error) {
	if t.reply != nil {
		reply := *t.reply
		t.reply = nil
		return reply, nil
	}
	if t.readFails > 0 {
		t.readFails--
		return protocol.Frame{}, errBroken
	}
	if len(t.inbox) == 0 {
		return protocol.Frame{}, io.EOF
	}
	f := t.inbox[0]
	t.inbox = t.inbox[1:]
	return f, nil
}

func (t *fakeTransport) Close() error {
	t.closed = true
	return nil
}

func (t *fakeTransport) RemoteAddr() string {
	return "fake:0"
}

var _ session.Dialer = (*fakeServer)(nil)
var _ session.Transport = (*fakeTransport)(nil)
