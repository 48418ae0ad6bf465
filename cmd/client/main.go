package main

import (
	"context"
	"fmt"
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
	Use:   "wirechat-tui",
	Short: "Terminal client for a wirechat server",
	Long: `wirechat-tui connects to a wirechat server over websocket, registers a
display name and chats in the public lobby or in private two-party rooms.
The last joined room is remembered and rejoined on the next start.`,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "config file path (default ./config.yaml)")
	flags.StringVar(&overrides.URL, "url", "", "server websocket URL")
	flags.StringVar(&overrides.Name, "name", "", "display name to register")
	flags.StringVar(&overrides.Room, "room", "", "room to join, used together with --name")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, path, err := config.Load(nil, configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.UpdateFrom(overrides)

	logger, closer, err := log.NewFile(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Info().Str("config", path).Str("url", cfg.URL).Msg("starting wirechat-tui")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := app.NewClient(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("name") {
		client.Seed(cfg.Name, cfg.Room)
	}

	if err := client.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("client exited with error")
		return err
	}
	logger.Info().Msg("client stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "wirechat-tui:", err)
		os.Exit(1)
	}
}
