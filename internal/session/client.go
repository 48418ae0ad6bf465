// Package session owns the single websocket connection between the chat client
// and the message server.
//
// A Client dials on construction and keeps redialing with a fixed delay until it
// is closed. Callers never block on the network: Send enqueues a frame (or drops
// it when not connected) and all outcomes are reported as events on named
// channels. Inbound events and the local lifecycle events (connect, reconnect,
// disconnect, connect_error) are delivered one at a time through
// Options.Dispatch, so a UI can run every handler on its own event loop.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-tui/internal/proto"
)

// Handler receives the raw payload of one event.
type Handler func(data json.RawMessage)

// Options tunes a Client. Zero values fall back to defaults.
type Options struct {
	// ReconnectDelay is the fixed pause between dial attempts. Attempts are unbounded.
	ReconnectDelay time.Duration
	// DialTimeout bounds one dial plus the hello handshake.
	DialTimeout time.Duration
	// SendBuffer is the number of outbound frames queued per connection.
	SendBuffer int
	// Dispatch runs handler invocations. Defaults to running them inline.
	Dispatch func(fn func())
	Logger   *zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = time.Second
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 20 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.Dispatch == nil {
		o.Dispatch = func(fn func()) { fn() }
	}
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	return o
}

// Client is a self-reconnecting session with the message server.
type Client struct {
	url  string
	opts Options
	log  *zerolog.Logger

	mu        sync.RWMutex
	state     State
	id        string
	outbox    chan proto.Envelope
	handlers  map[string]Handler
	connected bool // set after the first successful handshake

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a client and starts connecting to url in the background.
// Failures are reported through the connect_error and disconnect channels.
func New(ctx context.Context, url string, opts Options) *Client {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(ctx)

	c := &Client{
		url:      url,
		opts:     opts,
		log:      opts.Logger,
		state:    StateConnecting,
		handlers: make(map[string]Handler),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go c.run()
	return c
}

// URL returns the endpoint the client dials.
func (c *Client) URL() string {
	return c.url
}

// ID returns the server-assigned id of the current connection, or the last one after a drop.
func (c *Client) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Connected reports whether Send currently delivers frames.
func (c *Client) Connected() bool {
	return c.State() == StateConnected
}

// Subscribe registers h for channel, replacing any handler already registered for it.
func (c *Client) Subscribe(channel string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, channel)
	if h != nil {
		c.handlers[channel] = h
	}
}

// Unsubscribe removes the handler for channel.
func (c *Client) Unsubscribe(channel string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, channel)
}

// Send publishes payload on channel. It never blocks and is a no-op unless connected.
func (c *Client) Send(channel string, payload any) {
	c.mu.RLock()
	outbox, state := c.outbox, c.state
	c.mu.RUnlock()

	if state != StateConnected || outbox == nil {
		c.log.Debug().Str("channel", channel).Str("state", state.String()).Msg("send skipped: not connected")
		return
	}

	env, err := proto.NewEnvelope(channel, payload)
	if err != nil {
		c.log.Error().Err(err).Str("channel", channel).Msg("send skipped: bad payload")
		return
	}

	select {
	case outbox <- env:
	default:
		c.log.Warn().Str("channel", channel).Msg("send buffer full, frame dropped")
	}
}

// Close tears the session down for good. It waits for the connection goroutines to exit.
func (c *Client) Close() error {
	c.cancel()
	<-c.done
	return nil
}

func (c *Client) run() {
	defer close(c.done)
	defer c.setState(StateDisconnected)

	for {
		err := c.connectOnce()
		if c.ctx.Err() != nil {
			return
		}

		c.setState(StateReconnecting)
		c.log.Debug().Err(err).Dur("delay", c.opts.ReconnectDelay).Msg("session reconnect scheduled")

		timer := time.NewTimer(c.opts.ReconnectDelay)
		select {
		case <-c.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// connectOnce dials, performs the hello handshake and serves the connection until it drops.
func (c *Client) connectOnce() error {
	dialCtx, cancelDial := context.WithTimeout(c.ctx, c.opts.DialTimeout)
	defer cancelDial()

	conn, _, err := websocket.Dial(dialCtx, c.url, nil)
	if err != nil {
		c.reportConnectError(err)
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	id, err := handshake(dialCtx, conn)
	if err != nil {
		c.reportConnectError(err)
		return fmt.Errorf("handshake: %w", err)
	}

	outbox := make(chan proto.Envelope, c.opts.SendBuffer)
	c.mu.Lock()
	c.id = id
	c.state = StateConnected
	c.outbox = outbox
	reconnected := c.connected
	c.connected = true
	c.mu.Unlock()

	event := proto.EventConnect
	if reconnected {
		event = proto.EventReconnect
	}
	c.log.Info().Str("url", c.url).Str("id", id).Str("event", event).Msg("session connected")
	c.emit(event, id)

	connCtx, stop := context.WithCancel(c.ctx)
	writeErr := make(chan error, 1)
	go func() {
		err := c.writeLoop(connCtx, conn, outbox)
		stop()
		writeErr <- err
	}()

	err = c.readLoop(connCtx, conn)
	stop()
	if werr := <-writeErr; err == nil || errors.Is(err, context.Canceled) {
		err = werr
	}

	c.mu.Lock()
	c.outbox = nil
	if c.state == StateConnected {
		c.state = StateReconnecting
	}
	c.mu.Unlock()

	if c.ctx.Err() != nil {
		return c.ctx.Err()
	}

	reason := disconnectReason(err)
	c.log.Warn().Err(err).Str("reason", reason).Msg("session disconnected")
	c.emit(proto.EventDisconnect, reason)
	return err
}

func (c *Client) reportConnectError(err error) {
	if c.ctx.Err() != nil {
		return
	}
	c.log.Warn().Err(err).Str("url", c.url).Msg("session connect error")
	c.emit(proto.EventConnectError, err.Error())
}

func handshake(ctx context.Context, conn *websocket.Conn) (string, error) {
	var env proto.Envelope
	if err := wsjson.Read(ctx, conn, &env); err != nil {
		return "", err
	}
	if env.Event != proto.EventHello {
		return "", fmt.Errorf("expected %q, got %q", proto.EventHello, env.Event)
	}
	var hello proto.HelloData
	if err := json.Unmarshal(env.Data, &hello); err != nil {
		return "", fmt.Errorf("decode hello: %w", err)
	}
	if hello.ID == "" {
		return "", errors.New("hello without id")
	}
	return hello.ID, nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			c.log.Warn().Str("type", typ.String()).Msg("ignoring non-text frame")
			continue
		}

		var env proto.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			c.log.Warn().Err(err).Int("bytes", len(data)).Msg("dropping malformed frame")
			continue
		}
		c.emitRaw(env.Event, env.Data)
	}
}

func (c *Client) writeLoop(ctx context.Context, conn *websocket.Conn, outbox <-chan proto.Envelope) error {
	for {
		select {
		case env := <-outbox:
			if err := wsjson.Write(ctx, conn, env); err != nil {
				c.log.Error().Err(err).Str("channel", env.Event).Msg("write frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) emit(channel string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		c.log.Error().Err(err).Str("channel", channel).Msg("encode local event")
		return
	}
	c.emitRaw(channel, raw)
}

func (c *Client) emitRaw(channel string, data json.RawMessage) {
	c.opts.Dispatch(func() {
		c.mu.RLock()
		h := c.handlers[channel]
		c.mu.RUnlock()

		if h == nil {
			c.log.Debug().Str("channel", channel).Msg("no handler")
			return
		}
		h(data)
	})
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func disconnectReason(err error) string {
	if err == nil {
		return "connection closed"
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure:
		return "server closed the connection"
	case websocket.StatusGoingAway:
		return "server going away"
	}
	return err.Error()
}
