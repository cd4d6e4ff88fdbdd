// v1
// internal/api/server.go
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Server wraps the HTTP server so main can start and stop it without
// touching net/http details.
type Server struct {
	HTTP *http.Server
	Log  *slog.Logger
}

// NewServer builds the HTTP server around the wired router.
func NewServer(addr string, readTimeout, writeTimeout time.Duration, log *slog.Logger, handler http.Handler) *Server {
	hs := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{HTTP: hs, Log: log}
}

func (s *Server) Start() error {
	s.Log.Info("http server starting", slog.String("addr", s.HTTP.Addr))
	return s.HTTP.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.Log.Info("http server stopping")
	return s.HTTP.Shutdown(ctx)
}
