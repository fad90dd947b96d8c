package session

import (
	"errors"

	"github.com/omochice/guessthesong/pkg/protocol"
)

var (
	// ErrTransportInit wraps dial, write and read failures during a handshake.
	ErrTransportInit = errors.New("transport init failed")
	// ErrHandshakeNotBinary is returned when the server answers the handshake with text.
	ErrHandshakeNotBinary = errors.New("handshake must be binary")
	// ErrInvalidHandshake is returned for a response with a wrong length or signature.
	ErrInvalidHandshake = protocol.ErrInvalidHandshake
	// ErrConnectionIDMismatch is returned when the server echoes a different id.
	ErrConnectionIDMismatch = protocol.ErrConnectionIDMismatch

	// ErrNotConnected is returned for operations before a successful Connect
	// or after a handshake failure.
	ErrNotConnected = errors.New("not connected")
	// ErrClosed is returned for operations after Close.
	ErrClosed = errors.New("connection closed")
	// ErrReconnectExhausted is returned when MaxReconnectAttempts reconnects in a row failed.
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)

// HandshakeError is a fatal rejection of the handshake by the remote endpoint.
// It is never retried.
type HandshakeError struct {
	Addr string
	Err  error
}

func (e *HandshakeError) Error() string {
	return "handshake with " + e.Addr + " failed: " + e.Err.Error()
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// IsHandshakeError reports whether err is a fatal handshake rejection.
func IsHandshakeError(err error) bool {
	var he *HandshakeError
	return errors.As(err, &he)
}
