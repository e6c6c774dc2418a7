package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/rateshub/rates-data/internal/session"
)

// Config holds websocket server configuration.
type Config struct {
	Addr string // Listen address (default: ":8080")
}

// Server accepts websocket connections and runs one session per client.
type Server struct {
	cfg    Config
	store  session.Store
	hub    session.Hub
	logger *slog.Logger

	upgrader websocket.Upgrader
	httpSrv  *http.Server
	ln       net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Open transports, so Stop can unblock sessions stuck in Receive.
	connMu sync.Mutex
	conns  map[*wsTransport]struct{}

	accepted atomic.Int64
	active   atomic.Int64
}

// New creates a new Server.
func New(cfg Config, store session.Store, hub session.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		store:  store,
		hub:    hub,
		logger: logger,
		conns:  make(map[*wsTransport]struct{}),
	}
}

// Start binds the listen address and begins serving. It returns once the
// listener is bound, so an unusable address fails fast.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	s.ln = ln
	s.httpSrv = &http.Server{Handler: s}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("websocket server failed", "error", err)
		}
	}()

	s.logger.Info("websocket server started", "addr", ln.Addr().String())
	return nil
}

// Stop closes the listener and every open connection, then waits for all
// sessions to finish.
func (s *Server) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("websocket server shutdown", "error", err)
		}
	}

	// Shutdown does not touch upgraded connections; close them so every
	// receive loop unblocks.
	s.connMu.Lock()
	for t := range s.conns {
		t.close()
	}
	s.connMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("websocket server stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr returns the bound listen address, valid after Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return s.cfg.Addr
	}
	return s.ln.Addr().String()
}

// ActiveSessions returns the number of currently open connections.
func (s *Server) ActiveSessions() int64 {
	return s.active.Load()
}

// Accepted returns the total number of connections accepted.
func (s *Server) Accepted() int64 {
	return s.accepted.Load()
}

// ServeHTTP upgrades the request and runs the session until the client
// disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	transport := newWSTransport(conn)

	// Shutdown stops tracking a request once the connection is hijacked,
	// so sessions register with the wait group themselves.
	s.wg.Add(1)
	defer s.wg.Done()

	s.connMu.Lock()
	s.conns[transport] = struct{}{}
	s.connMu.Unlock()

	s.accepted.Add(1)
	s.active.Add(1)
	defer func() {
		s.connMu.Lock()
		delete(s.conns, transport)
		s.connMu.Unlock()

		s.active.Add(-1)
		transport.close()
	}()

	logger := s.logger.With("remote", r.RemoteAddr)
	logger.Debug("connection accepted")

	ctx := s.ctx
	if ctx == nil {
		ctx = r.Context()
	}
	session.New(s.store, s.hub, transport, logger).Run(ctx)
}
