// Package server runs the HTTP listener with graceful shutdown.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const readHeaderTimeout = 10 * time.Second

type Server struct {
	addr            string
	shutdownTimeout time.Duration
	handler         http.Handler
	logger          *slog.Logger
}

func New(port string, shutdownTimeout time.Duration, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:            net.JoinHostPort("", port),
		shutdownTimeout: shutdownTimeout,
		handler:         handler,
		logger:          logger.With("component", "server"),
	}
}

// Run listens on the configured port until ctx is cancelled, then shuts
// down gracefully. It returns once shutdown has finished.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveDone := make(chan struct{})
	shutdownDone := make(chan error, 1)
	go func() {
		select {
		case <-ctx.Done():
		case <-serveDone:
			shutdownDone <- nil
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		s.logger.Info("Shutting down HTTP server", "timeout", s.shutdownTimeout)
		shutdownDone <- httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info("Server listening", "addr", ln.Addr().String())
	serveErr := httpServer.Serve(ln)
	close(serveDone)

	shutdownErr := <-shutdownDone
	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	if shutdownErr != nil {
		s.logger.Error("Graceful shutdown failed", "error", shutdownErr)
		return shutdownErr
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
