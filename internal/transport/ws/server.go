package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/rs/zerolog"
)

// Handler serves one accepted connection; the connection is closed when it returns.
type Handler func(ctx context.Context, conn *Conn)

// Accept upgrades an HTTP request to a server-side WebSocket connection.
func Accept(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	conn, rw, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		return nil, err
	}
	if rw != nil && rw.Reader.Buffered() > 0 {
		return newConn(conn, rw.Reader, ws.StateServerSide, r.RemoteAddr), nil
	}
	return newConn(conn, nil, ws.StateServerSide, r.RemoteAddr), nil
}

// Server accepts WebSocket connections and hands them to a Handler.
type Server struct {
	address  string
	handler  Handler
	log      zerolog.Logger
	listener net.Listener
	server   *http.Server
	ctx      context.Context
	cancel   context.CancelFunc

	mu       sync.Mutex
	stopping bool
	wg       sync.WaitGroup
}

// NewServer creates a WebSocket server that serves every connection with handler.
func NewServer(address string, handler Handler, logger zerolog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		address: address,
		handler: handler,
		log:     logger.With().Str("component", "ws").Logger(),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWebSocket)
	s.server = &http.Server{Handler: mux}
	return nil
}

// Serve accepts connections until Stop is called.
func (s *Server) Serve() error {
	s.log.Info().Str("addr", s.Addr()).Msg("WebSocket server started")
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens and serves.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Stop closes the listener and all open connections and waits for handlers.
func (s *Server) Stop() {
	s.mu.Lock()
	s.stopping = true
	s.mu.Unlock()

	s.cancel()
	if s.server != nil {
		_ = s.server.Shutdown(context.Background())
	}
	s.wg.Wait()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Shutdown does not track hijacked connections: count them before the
	// upgrade and refuse new ones once Stop began
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	conn, err := Accept(w, r)
	if err != nil {
		s.wg.Done()
		s.log.Warn().Err(err).Msg("failed to accept WebSocket connection")
		return
	}

	go func() {
		defer s.wg.Done()
		defer conn.Close()
		s.handler(s.ctx, conn)
	}()
}
