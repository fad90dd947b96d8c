package relay

import (
	"context"

	"github.com/omochice/guessthesong/internal/transport/ws"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Server serves the hub over WebSocket.
type Server struct {
	hub *Hub
	ws  *ws.Server
	log zerolog.Logger
}

// NewServer creates a server for hub listening on address.
func NewServer(address string, hub *Hub, logger zerolog.Logger) *Server {
	s := &Server{
		hub: hub,
		log: logger.With().Str("component", "relay").Logger(),
	}
	s.ws = ws.NewServer(address, func(ctx context.Context, conn *ws.Conn) {
		hub.Serve(ctx, conn)
	}, logger)
	return s
}

// Listen binds the listening socket so Addr is known before Start.
func (s *Server) Listen() error {
	return s.ws.Listen()
}

// Start serves until ctx is done or Stop is called. It binds the socket
// first unless Listen was called.
func (s *Server) Start(ctx context.Context) error {
	if s.ws.Addr() == "" {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		return s.ws.Serve()
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			s.log.Info().Msg("shutting down")
			s.ws.Stop()
		case <-done:
		}
		return nil
	})
	return g.Wait()
}

// Stop closes the listener and every client connection.
func (s *Server) Stop() {
	s.ws.Stop()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	return s.ws.Addr()
}

// Hub returns the served hub.
func (s *Server) Hub() *Hub {
	return s.hub
}
