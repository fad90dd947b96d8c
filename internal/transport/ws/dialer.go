package ws

import (
	"context"
	"fmt"
	"time"

	"github.com/gobwas/ws"
	"github.com/omochice/guessthesong/internal/session"
)

// Dialer opens client-side WebSocket transports.
type Dialer struct {
	dialer ws.Dialer
}

// NewDialer creates a Dialer; timeout bounds the TCP connect and upgrade.
func NewDialer(timeout time.Duration) *Dialer {
	return &Dialer{dialer: ws.Dialer{Timeout: timeout}}
}

// Dial implements session.Dialer.
func (d *Dialer) Dial(ctx context.Context, addr string) (session.Transport, error) {
	conn, br, _, err := d.dialer.Dial(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	// br holds bytes the server sent right after the upgrade response
	if br != nil {
		return newConn(conn, br, ws.StateClientSide, conn.RemoteAddr().String()), nil
	}
	return newConn(conn, nil, ws.StateClientSide, conn.RemoteAddr().String()), nil
}

var _ session.Dialer = (*Dialer)(nil)
