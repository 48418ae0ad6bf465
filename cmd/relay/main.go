package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-tui/internal/app"
	"github.com/vovakirdan/wirechat-tui/internal/config"
	"github.com/vovakirdan/wirechat-tui/internal/log"
)

var (
	configPath string
	overrides  config.Config
)

var rootCmd = &cobra.Command{
	Use:           "wirechat-relay",
	Short:         "Development relay speaking the wirechat channel protocol",
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "config file path (default ./config.yaml)")
	flags.StringVar(&overrides.Addr, "addr", "", "HTTP listen address")
	flags.DurationVar(&overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout")
	flags.IntVar(&overrides.RateLimit, "rate-limit", 0, "inbound frames per connection per minute")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func run(_ *cobra.Command, _ []string) error {
	logger := log.New("info", os.Stdout)

	cfg, path, err := config.Load(logger, configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.UpdateFrom(overrides)
	logger = log.New(cfg.LogLevel, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("addr", cfg.Addr).Int("rate_limit", cfg.RateLimit).Msg("starting wirechat relay")
	if err := app.NewRelay(&cfg, logger).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("relay exited with error")
		return err
	}
	logger.Info().Msg("relay stopped")
	return nil
}

func execute(stderr io.Writer) int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(stderr, "wirechat-relay:", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(os.Stderr))
}
