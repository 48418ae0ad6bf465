package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-tui/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "display name to register")
	room := flag.String("room", proto.PublicRoom, "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	mustSend := func(event string, payload any) error {
		env, err := proto.NewEnvelope(event, payload)
		if err != nil {
			return err
		}
		if err := wsjson.Write(ctx, conn, env); err != nil {
			return fmt.Errorf("send %s: %w", event, err)
		}
		return nil
	}

	if err := mustSend(proto.EventRegister, proto.RegisterData{Name: *user}); err != nil {
		return err
	}
	if err := mustSend(proto.EventJoin, *room); err != nil {
		return err
	}
	msg := proto.ChatMessage{Room: *room, Author: *user, Text: *text, IsPrivate: proto.IsPrivateRoom(*room)}
	if err := mustSend(proto.EventMessage, msg); err != nil {
		return err
	}

	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		fmt.Printf("Received event=%s\n", env.Event)

		switch env.Event {
		case proto.EventHello:
			var hello proto.HelloData
			if err := json.Unmarshal(env.Data, &hello); err == nil {
				fmt.Printf("Hello: id=%s\n", hello.ID)
			}
		case proto.EventWelcome:
			if text, err := proto.DecodeString(env.Data); err == nil {
				fmt.Printf("Welcome: %s\n", text)
			}
		case proto.EventUsers:
			var users []proto.User
			if err := json.Unmarshal(env.Data, &users); err == nil {
				fmt.Printf("Users: %d online\n", len(users))
			}
		case proto.EventError:
			var perr proto.Error
			if err := json.Unmarshal(env.Data, &perr); err != nil {
				return fmt.Errorf("unmarshal error: %w", err)
			}
			return &perr
		case proto.EventMessage:
			in, err := proto.DecodeMessage(env.Data)
			if err != nil {
				fmt.Printf("Raw data: %s\n", string(env.Data))
				return fmt.Errorf("decode message: %w", err)
			}
			if in.Kind == proto.InboundNotice {
				fmt.Printf("Notice: %s\n", in.Notice)
				continue
			}
			fmt.Printf("Message: room=%s author=%s text=%q private=%t\n", in.Chat.Room, in.Chat.Author, in.Chat.Text, in.Chat.IsPrivate)
			return nil
		}
	}
}
