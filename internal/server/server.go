// Package server provides the HTTP server lifecycle for gradebookd:
// startup, serving, and graceful shutdown with a drain timeout for
// in-flight requests.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rollcall/gradebook/config"
	"github.com/rollcall/gradebook/internal/logging"
)

var log = logging.Component("server")

// Config holds server configuration.
type Config struct {
	// Listen is the address to bind, "host:port".
	Listen string

	// Handler is the assembled route tree.
	Handler http.Handler

	// DrainTimeout is how long Shutdown waits for in-flight requests.
	DrainTimeout time.Duration

	// ReadHeaderTimeout bounds the wait for request headers.
	ReadHeaderTimeout time.Duration
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	httpSrv      *http.Server
	drainTimeout time.Duration
}

// New creates a Server.
func New(cfg *Config) *Server {
	drain := cfg.DrainTimeout
	if drain <= 0 {
		drain = time.Duration(config.DefaultDrainTimeoutSec) * time.Second
	}
	readHeader := cfg.ReadHeaderTimeout
	if readHeader <= 0 {
		readHeader = config.DefaultReadHeaderTimeout
	}

	return &Server{
		httpSrv: &http.Server{
			Addr:              cfg.Listen,
			Handler:           cfg.Handler,
			ReadHeaderTimeout: readHeader,
		},
		drainTimeout: drain,
	}
}

// Run serves until Shutdown is called. It returns nil on clean shutdown.
func (s *Server) Run() error {
	log.Info("server listening", "addr", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting new requests and waits up to the drain timeout
// for in-flight requests to finish.
func (s *Server) Shutdown() {
	log.Info("server stopping", "drain_timeout", s.drainTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), s.drainTimeout)
	defer cancel()

	if err := s.httpSrv.Shutdown(ctx); err != nil {
		log.Warn("server drain timeout", "error", err)
		return
	}
	log.Info("server stopped gracefully")
}
