package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-tui/internal/core"
	"github.com/vovakirdan/wirechat-tui/internal/metrics"
	"github.com/vovakirdan/wirechat-tui/internal/proto"
)

// WelcomeText is the greeting sent after the hello frame.
const WelcomeText = "welcome to wirechat"

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub       core.Hub
	rateLimit int
	log       *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. rateLimit caps inbound frames per minute; zero disables it.
func NewWSHandler(hub core.Hub, rateLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, rateLimit: rateLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	client := core.NewClient(uuid.NewString(), "")
	log := h.log.With().Str("client_id", client.ID).Logger()

	if err := greet(ctx, conn, client.ID); err != nil {
		log.Warn().Err(err).Msg("ws greet")
		return
	}

	metrics.ConnectionsTotal.Inc()
	metrics.ConnectionsActive.Inc()
	defer metrics.ConnectionsActive.Dec()

	h.hub.RegisterClient(client)
	defer h.hub.UnregisterClient(client)
	log.Info().Str("remote", r.RemoteAddr).Msg("ws connected")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, &log)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client, &log)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}
	log.Info().Msg("ws disconnected")

	conn.Close(status, reason)
}

// greet sends the hello frame carrying the connection id, then the welcome notice.
func greet(ctx context.Context, conn *websocket.Conn, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	hello, err := proto.NewEnvelope(proto.EventHello, proto.HelloData{ID: id})
	if err != nil {
		return err
	}
	if err := wsjson.Write(ctx, conn, hello); err != nil {
		return err
	}
	welcome, err := proto.NewEnvelope(proto.EventWelcome, WelcomeText)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, welcome)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, log *zerolog.Logger) error {
	limiter := newRateLimiter(h.rateLimit, time.Minute)

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("read ws inbound")
			return err
		}
		if typ != websocket.MessageText {
			continue
		}

		if !limiter.allow() {
			metrics.RateLimitHits.Inc()
			if err := writeError(ctx, conn, &proto.Error{Code: core.ErrCodeRateLimited, Msg: "too many messages"}); err != nil {
				return err
			}
			continue
		}

		var env proto.Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			log.Warn().Err(err).Msg("malformed inbound frame")
			if err := writeError(ctx, conn, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: "malformed frame"}); err != nil {
				return err
			}
			continue
		}

		cmd, protoErr := inboundToCommand(env)
		if protoErr != nil {
			if err := writeError(ctx, conn, protoErr); err != nil {
				return err
			}
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, log *zerolog.Logger) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			out, err := outboundFromEvent(event)
			if err != nil {
				log.Error().Err(err).Msg("map event")
				continue
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				log.Error().Err(err).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, perr *proto.Error) error {
	env, err := proto.NewEnvelope(proto.EventError, perr)
	if err != nil {
		return err
	}
	return wsjson.Write(ctx, conn, env)
}
