package api

import (
	"context"
	"net/http"

	"github.com/foliodb/folio/pkg/store"
)

// Server wraps HealthServer behind a Start/Stop lifecycle matching the
// rest of the engine's component shape.
type Server struct {
	health *HealthServer
	http   *http.Server
}

// NewServer builds an admin server over s. version is reported on
// /health and is typically the binary's build version.
func NewServer(s *store.RecordStore, version string) *Server {
	return &Server{health: NewHealthServer(s, version)}
}

// Start listens on addr and serves until Stop is called or the
// listener fails. It blocks, so callers typically run it in a
// goroutine.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{Addr: addr, Handler: s.health.GetHandler()}
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(context.Background())
}
