// Package server exposes the serving façade over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/llm-matchmaker/match"
)

// Config configures the HTTP listener.
type Config struct {
	Addr           string
	AllowedOrigins []string // "*" or empty allows every origin
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type Server struct {
	facade  *match.Facade
	log     logrus.FieldLogger
	origins map[string]struct{}
	anyOrig bool
	server  *http.Server

	mu   sync.Mutex
	addr string
}

// New builds a server around an existing façade. A nil logger uses the
// standard logrus logger.
func New(cfg Config, facade *match.Facade, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		facade:  facade,
		log:     log,
		origins: make(map[string]struct{}, len(cfg.AllowedOrigins)),
		anyOrig: len(cfg.AllowedOrigins) == 0,
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			s.anyOrig = true
		}
		s.origins[o] = struct{}{}
	}
	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.registerRoutes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves until Shutdown.
// A clean shutdown returns nil.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	s.log.WithField("addr", ln.Addr().String()).Info("HTTP server listening")

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Addr returns the bound address once Start is listening, or "".
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
