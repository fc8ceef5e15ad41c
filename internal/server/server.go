// Package server owns the HTTP listener lifecycle and the presentation of
// error responses. The transport itself is net/http; every request is
// dispatched to the handler on its own goroutine and requests never share
// mutable state.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"example.com/devserve/internal/config"
)

const shutdownTimeout = 5 * time.Second

// Server wraps an http.Server bound to the configured address.
type Server struct {
	cfg  *config.Config
	log  zerolog.Logger
	http *http.Server
	ln   net.Listener
}

// New creates a Server that dispatches every request to handler.
func New(cfg *config.Config, log zerolog.Logger, handler http.Handler) *Server {
	return &Server{
		cfg:  cfg,
		log:  log,
		http: &http.Server{Handler: handler},
	}
}

// Listen binds the configured address. It is split from Serve so callers
// (and tests) can learn the bound address before serving starts.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	s.ln = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts connections until Shutdown. A nil error means the server
// was shut down deliberately.
func (s *Server) Serve() error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.log.Info().Str("addr", s.ln.Addr().String()).Msg("HTTP server listening")
	if err := s.http.Serve(s.ln); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Run serves until SIGINT or SIGTERM arrives, then shuts down gracefully.
func (s *Server) Run() error {
	if err := s.Listen(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-errCh:
		return err
	case got := <-sig:
		s.log.Info().Str("signal", got.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return <-errCh
	}
}
