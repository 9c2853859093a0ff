package api

import (
	"context"
	"net/http"
	"time"

	"github.com/leafline/dispensary-backend/pkg/logger"
)

// Server wraps the HTTP listener with sane timeouts and graceful shutdown.
type Server struct {
	http *http.Server
	logg *logger.Logger
}

func NewServer(addr string, handler http.Handler, logg *logger.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logg: logg,
	}
}

func (s *Server) Start() error {
	if s.logg != nil {
		ctx := s.logg.WithField(context.Background(), "addr", s.http.Addr)
		s.logg.Info(ctx, "http server listening")
	}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
