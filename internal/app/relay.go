package app

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-tui/internal/config"
	"github.com/vovakirdan/wirechat-tui/internal/core"
	transporthttp "github.com/vovakirdan/wirechat-tui/internal/transport/http"
)

// Relay wires the hub to the HTTP transport.
type Relay struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             core.Hub
	log             *zerolog.Logger
}

// NewRelay constructs the development relay with provided configuration.
func NewRelay(cfg *config.Config, logger *zerolog.Logger) *Relay {
	hub := core.NewHub(logger)
	server := transporthttp.NewServer(hub, cfg, logger)

	return &Relay{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		log:             logger,
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (r *Relay) Handler() stdhttp.Handler {
	return r.server.Handler
}

// Run starts the hub and the HTTP server and blocks until context cancellation or fatal error.
func (r *Relay) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go r.hub.Run(ctx)

	go func() {
		r.log.Info().Str("addr", r.server.Addr).Msg("relay listening")
		if err := r.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
		defer cancel()

		r.log.Info().Msg("shutting down http server")
		if err := r.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
