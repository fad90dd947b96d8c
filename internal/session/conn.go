// Package session keeps one logical connection to the relay server alive
// across transport failures.
//
// Every transport is opened with the protocol handshake (see pkg/protocol).
// A failed handshake is fatal; a lost transport is re-dialed with backoff and
// the interrupted operation is retried on the new transport.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/omochice/guessthesong/pkg/protocol"
	"github.com/rs/zerolog"
)

// Transport abstracts one live bidirectional message connection.
type Transport interface {
	// ReadFrame reads a single complete frame.
	ReadFrame(ctx context.Context) (protocol.Frame, error)

	// WriteFrame sends a single frame.
	WriteFrame(ctx context.Context, f protocol.Frame) error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}

// Dialer opens transports to an address.
type Dialer interface {
	Dial(ctx context.Context, addr string) (Transport, error)
}

// Conn is a client session with the relay server.
//
// Conn does no locking: callers must not use one Conn from several
// goroutines at once. Blocking calls are aborted through their context.
type Conn struct {
	addr      string
	dialer    Dialer
	cfg       Config
	log       zerolog.Logger
	rng       *rand.Rand
	id        protocol.ConnectionID
	transport Transport
	state     State
	err       error
	greeting  *protocol.Frame
}

// New creates an unconnected session for addr and draws its connection id.
func New(addr string, dialer Dialer, cfg Config, logger zerolog.Logger) (*Conn, error) {
	id, err := protocol.NewConnectionID(nil)
	if err != nil {
		return nil, err
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = DefaultConfig().MaxReconnectAttempts
	}
	return &Conn{
		addr:   addr,
		dialer: dialer,
		cfg:    cfg,
		log:    logger.With().Str("component", "session").Str("addr", addr).Logger(),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		id:     id,
		state:  Unconnected,
	}, nil
}

// Dial creates a session for addr and performs the initial handshake.
func Dial(ctx context.Context, addr string, dialer Dialer, cfg Config, logger zerolog.Logger) (*Conn, error) {
	c, err := New(addr, dialer, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// ID returns the current connection id.
func (c *Conn) ID() protocol.ConnectionID {
	return c.id
}

// Addr returns the server address.
func (c *Conn) Addr() string {
	return c.addr
}

// State returns the lifecycle state.
func (c *Conn) State() State {
	return c.state
}

// Connect performs the initial handshake. A transport failure leaves the
// session unconnected so Connect may be called again; a handshake
// rejection moves it to Failed.
func (c *Conn) Connect(ctx context.Context) error {
	switch c.state {
	case Closed:
		return ErrClosed
	case Failed:
		return fmt.Errorf("%w: %w", ErrNotConnected, c.err)
	case Connected, Reconnecting:
		return fmt.Errorf("already connected to %s", c.addr)
	}

	c.state = Connecting
	t, err := c.handshake(ctx)
	if err != nil {
		c.fail(err)
		if c.state == Connecting {
			c.state = Unconnected
		}
		return err
	}
	c.transport = t
	c.state = Connected
	c.log.Info().Str("id", c.id.String()).Msg("connected")
	return nil
}

// SetGreeting sets a frame that is written on every new transport right
// after a reconnect handshake, before the interrupted operation is retried.
// A client announces its role with it so a restarted server learns it again.
func (c *Conn) SetGreeting(f protocol.Frame) {
	c.greeting = &f
}

// Send writes f, reconnecting as needed.
func (c *Conn) Send(ctx context.Context, f protocol.Frame) error {
	return c.do(ctx, func(t Transport) error {
		return t.WriteFrame(ctx, f)
	})
}

// SendBinary writes data as a binary frame.
func (c *Conn) SendBinary(ctx context.Context, data []byte) error {
	return c.Send(ctx, protocol.Binary(data))
}

// SendText writes s as a text frame.
func (c *Conn) SendText(ctx context.Context, s string) error {
	return c.Send(ctx, protocol.Text(s))
}

// Receive reads the next frame, reconnecting as needed.
func (c *Conn) Receive(ctx context.Context) (protocol.Frame, error) {
	var f protocol.Frame
	err := c.do(ctx, func(t Transport) error {
		var err error
		f, err = t.ReadFrame(ctx)
		return err
	})
	return f, err
}

// Close terminates the transport. Later operations fail with ErrClosed,
// including a second Close.
func (c *Conn) Close() error {
	switch c.state {
	case Closed:
		return ErrClosed
	case Unconnected, Connecting:
		return ErrNotConnected
	}

	c.state = Closed
	if c.transport == nil {
		return nil
	}
	err := c.transport.Close()
	c.transport = nil
	c.log.Info().Msg("closed")
	return err
}

func (c *Conn) usable() error {
	switch c.state {
	case Connected, Reconnecting:
		return nil
	case Closed:
		return ErrClosed
	case Failed:
		return fmt.Errorf("%w: %w", ErrNotConnected, c.err)
	default:
		return ErrNotConnected
	}
}

// do runs op on the current transport. A failed op drops the transport; a
// context error is returned as is, anything else triggers a reconnect and
// op is retried on the new transport.
func (c *Conn) do(ctx context.Context, op func(Transport) error) error {
	if err := c.usable(); err != nil {
		return err
	}

	attempt := 0
	var cause error
	for {
		if c.transport == nil {
			if err := c.reconnect(ctx, cause, &attempt); err != nil {
				return err
			}
		}

		err := op(c.transport)
		if err == nil {
			return nil
		}
		c.drop()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.log.Warn().Err(err).Msg("connection lost, reconnecting")
		cause = err
	}
}

func (c *Conn) drop() {
	if c.transport != nil {
		_ = c.transport.Close()
		c.transport = nil
	}
	c.state = Reconnecting
}

func (c *Conn) reconnect(ctx context.Context, cause error, attempt *int) error {
	last := cause
	for *attempt < c.cfg.MaxReconnectAttempts {
		*attempt++
		if err := sleep(ctx, NextBackoffDelay(c.cfg.Backoff, *attempt, c.rng)); err != nil {
			return err
		}

		if c.cfg.RegenerateIDOnReconnect {
			id, err := protocol.NewConnectionID(nil)
			if err != nil {
				return err
			}
			c.id = id
		}

		t, err := c.handshake(ctx)
		if err == nil && c.greeting != nil {
			if werr := t.WriteFrame(ctx, *c.greeting); werr != nil {
				_ = t.Close()
				t, err = nil, fmt.Errorf("%w: %w", ErrTransportInit, werr)
			}
		}
		if c.cfg.OnReconnect != nil {
			c.cfg.OnReconnect(*attempt, err)
		}
		if err == nil {
			c.transport = t
			c.state = Connected
			c.log.Info().Int("attempt", *attempt).Str("id", c.id.String()).Msg("reconnected")
			return nil
		}
		if c.fail(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		c.log.Warn().Err(err).Int("attempt", *attempt).Msg("reconnect failed")
		last = err
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrReconnectExhausted, *attempt, last)
}

// fail records a fatal handshake error and reports whether err was one.
func (c *Conn) fail(err error) bool {
	if !IsHandshakeError(err) {
		return false
	}
	c.state = Failed
	c.err = err
	c.log.Error().Err(err).Msg("handshake rejected")
	return true
}

func (c *Conn) handshake(ctx context.Context) (Transport, error) {
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}

	t, err := c.dialer.Dial(ctx, c.addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransportInit, err)
	}
	if err := c.exchange(ctx, t); err != nil {
		_ = t.Close()
		return nil, err
	}
	return t, nil
}

func (c *Conn) exchange(ctx context.Context, t Transport) error {
	if err := t.WriteFrame(ctx, protocol.Binary(protocol.HandshakeFrame(c.id))); err != nil {
		return fmt.Errorf("%w: %w", ErrTransportInit, err)
	}
	resp, err := t.ReadFrame(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransportInit, err)
	}
	if resp.Kind != protocol.FrameBinary {
		return &HandshakeError{Addr: c.addr, Err: ErrHandshakeNotBinary}
	}
	if err := protocol.ValidateResponse(resp.Payload, c.id); err != nil {
		return &HandshakeError{Addr: c.addr, Err: err}
	}
	return nil
}
