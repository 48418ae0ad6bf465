package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-tui/internal/chat"
	"github.com/vovakirdan/wirechat-tui/internal/config"
	"github.com/vovakirdan/wirechat-tui/internal/session"
	"github.com/vovakirdan/wirechat-tui/internal/store"
	"github.com/vovakirdan/wirechat-tui/internal/store/memory"
	"github.com/vovakirdan/wirechat-tui/internal/store/redis"
	"github.com/vovakirdan/wirechat-tui/internal/store/sqlite"
	"github.com/vovakirdan/wirechat-tui/internal/ui"
)

const title = "wirechat"

// Client wires the session, the chat view and the terminal UI.
type Client struct {
	cfg      *config.Config
	store    store.KV
	provider *session.Provider
	log      *zerolog.Logger
}

// NewClient opens the state store configured in cfg.
func NewClient(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Client, error) {
	kv, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("driver", cfg.StateDriver).Msg("state store opened")

	return &Client{
		cfg:      cfg,
		store:    kv,
		provider: session.NewProvider(),
		log:      logger,
	}, nil
}

// OpenStore returns the KV backend selected by cfg.StateDriver.
func OpenStore(ctx context.Context, cfg *config.Config) (store.KV, error) {
	switch cfg.StateDriver {
	case config.DriverSQLite:
		st, err := sqlite.New(cfg.StatePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverRedis:
		st, err := redis.New(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown state driver %q", cfg.StateDriver)
	}
}

// Seed stores name and room as the session record, so the next restore joins them.
// It is used when both are given on the command line.
func (c *Client) Seed(name, room string) {
	if name == "" || room == "" {
		return
	}
	chat.NewRecordStore(c.store, c.log).Save(chat.Record{Room: room, Name: name})
}

// Run connects and blocks in the terminal UI until the user quits or ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	defer c.cleanup()

	disp := ui.NewDispatcher(c.cfg.SendBuffer)
	defer disp.Stop()

	sess := c.provider.Connect(ctx, c.cfg.URL, session.Options{
		ReconnectDelay: c.cfg.ReconnectDelay,
		DialTimeout:    c.cfg.DialTimeout,
		SendBuffer:     c.cfg.SendBuffer,
		Dispatch:       disp.Dispatch,
		Logger:         c.log,
	})
	c.log.Info().Str("url", sess.URL()).Msg("session started")

	view := chat.NewView(sess, chat.NewRecordStore(c.store, c.log), c.log)
	view.Bind()
	defer view.Unbind()

	p := tea.NewProgram(ui.New(view, disp, title), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// cleanup closes the session and the store.
func (c *Client) cleanup() {
	if err := c.provider.Close(); err != nil {
		c.log.Warn().Err(err).Msg("failed to close session")
	}
	if err := c.store.Close(); err != nil {
		c.log.Warn().Err(err).Msg("failed to close store")
	} else {
		c.log.Info().Msg("store closed")
	}
}
