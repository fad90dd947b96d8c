// Package relay implements the game server: it identifies every client by
// its role, broadcasts the sender's clips to the receivers and triggers
// playback once every receiver confirmed the clip.
package relay

import (
	"context"

	"github.com/omochice/guessthesong/pkg/protocol"
)

// Conn abstracts one client connection so the hub stays transport-agnostic.
type Conn interface {
	// ReadFrame reads a single message. It returns an error once the
	// connection is closed.
	ReadFrame(ctx context.Context) (protocol.Frame, error)

	// WriteFrame sends a single message. It must be safe to call
	// concurrently with ReadFrame and other WriteFrame calls.
	WriteFrame(ctx context.Context, f protocol.Frame) error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}
