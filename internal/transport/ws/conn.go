// Package ws provides the WebSocket transport used by both the session
// client and the relay server, built on gobwas/ws.
package ws

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/omochice/guessthesong/pkg/protocol"
)

// Conn adapts a gobwas/ws connection to frame-level reads and writes.
// Messages are read whole, without a size ceiling.
type Conn struct {
	conn       net.Conn
	rw         io.ReadWriter
	state      ws.State
	remoteAddr string
}

// lockedWriter serializes writes. Data frames are compiled and written in
// one call so they never interleave with control replies sent while reading.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

type readWriter struct {
	io.Reader
	io.Writer
}

func newConn(conn net.Conn, r io.Reader, state ws.State, addr string) *Conn {
	if r == nil {
		r = conn
	}
	return &Conn{
		conn:       conn,
		rw:         readWriter{Reader: r, Writer: &lockedWriter{w: conn}},
		state:      state,
		remoteAddr: addr,
	}
}

// ReadFrame reads a single text or binary message.
func (c *Conn) ReadFrame(ctx context.Context) (protocol.Frame, error) {
	defer c.watch(ctx)()

	var (
		data []byte
		op   ws.OpCode
		err  error
	)
	if c.state.ClientSide() {
		data, op, err = wsutil.ReadServerData(c.rw)
	} else {
		data, op, err = wsutil.ReadClientData(c.rw)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return protocol.Frame{}, ctxErr
		}
		return protocol.Frame{}, err
	}

	kind := protocol.FrameBinary
	if op == ws.OpText {
		kind = protocol.FrameText
	}
	return protocol.Frame{Kind: kind, Payload: data}, nil
}

// WriteFrame writes f as a single message.
func (c *Conn) WriteFrame(ctx context.Context, f protocol.Frame) error {
	defer c.watch(ctx)()

	op := ws.OpBinary
	if f.Kind == protocol.FrameText {
		op = ws.OpText
	}
	if _, err := c.rw.Write(c.compile(op, f.Payload)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

// Close sends a close frame and closes the connection.
func (c *Conn) Close() error {
	body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
	_, _ = c.rw.Write(c.compile(ws.OpClose, body))
	return c.conn.Close()
}

func (c *Conn) compile(op ws.OpCode, payload []byte) []byte {
	f := ws.NewFrame(op, true, payload)
	if c.state.ClientSide() {
		f = ws.MaskFrame(f)
	}
	b, err := ws.CompileFrame(f)
	if err != nil {
		// only reachable with a malformed header, which NewFrame never builds
		panic(err)
	}
	return b
}

// RemoteAddr returns the remote address for logging.
func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}

// watch interrupts blocked I/O when ctx is done.
func (c *Conn) watch(ctx context.Context) func() {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	return func() { stop() }
}
