package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hnrobert/hostauth/internal/auth"
	"github.com/hnrobert/hostauth/internal/config"
	"github.com/hnrobert/hostauth/internal/logger"
	"github.com/hnrobert/hostauth/internal/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("HOSTAUTH_CONFIG"), "path to YAML config file")
	genSecret := flag.Bool("gen-secret", false, "print a random signing secret and exit")
	flag.Parse()

	if *genSecret {
		s, err := auth.NewRandomSecretB64(32)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(s)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hostauthd: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Dir); err != nil {
		fmt.Fprintf(os.Stderr, "hostauthd: %v\n", err)
		os.Exit(1)
	}

	app, err := server.Build(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	if cfg.Auth.DevMode && auth.DevAuthCompiled() {
		log.Warn().Msg("development credentials are enabled; do not run this build in production")
	}

	srv := server.New(server.Config{
		ListenAddr:        cfg.Server.ListenAddr,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}, app)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.ListenAddr).Str("host_root", cfg.Host.Root).Msg("hostauthd listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}
}
