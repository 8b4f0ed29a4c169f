package server

import (
	"context"
	"net/http"
	"time"
)

type Config struct {
	ListenAddr        string
	ReadHeaderTimeout time.Duration
}

type Server struct {
	httpSrv *http.Server
}

func New(cfg Config, app *App) *Server {
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 10 * time.Second
	}
	return &Server{httpSrv: &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.Routes(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}}
}

func (s *Server) ListenAndServe() error {
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}
