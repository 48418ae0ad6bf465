package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-tui/internal/metrics"
	"github.com/vovakirdan/wirechat-tui/internal/proto"
)

// Hub coordinates clients and rooms.
type Hub interface {
	RegisterClient(c *Client)
	UnregisterClient(c *Client)
	Run(ctx context.Context)
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// hub owns every client and room. All state is touched only by the Run goroutine.
type hub struct {
	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	done       chan struct{}

	clients map[*Client]chan struct{} // value is closed on unregister to stop the pump
	rooms   map[string]*Room

	log *zerolog.Logger
}

// NewHub creates a new chat hub instance. Call Run to start it.
func NewHub(logger *zerolog.Logger) Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand, 64),
		done:       make(chan struct{}),
		clients:    make(map[*Client]chan struct{}),
		rooms:      make(map[string]*Room),
		log:        logger,
	}
}

// RegisterClient adds c. It is a no-op once the hub has stopped.
func (h *hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient removes c and its room memberships.
func (h *hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run processes registrations and client commands until ctx is cancelled.
func (h *hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.register:
			quit := make(chan struct{})
			h.clients[c] = quit
			go h.pump(ctx, c, quit)
			h.log.Debug().Str("client_id", c.ID).Msg("client registered")

		case c := <-h.unregister:
			h.removeClient(c)

		case cc := <-h.commands:
			if _, ok := h.clients[cc.client]; !ok {
				continue
			}
			h.handle(cc.client, cc.cmd)

		case <-ctx.Done():
			for c, quit := range h.clients {
				close(quit)
				delete(h.clients, c)
			}
			return
		}
	}
}

// pump forwards one client's commands into the hub loop.
func (h *hub) pump(ctx context.Context, c *Client, quit <-chan struct{}) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.commands <- clientCommand{client: c, cmd: cmd}:
			case <-quit:
				return
			case <-ctx.Done():
				return
			}
		case <-quit:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (h *hub) removeClient(c *Client) {
	quit, ok := h.clients[c]
	if !ok {
		return
	}
	close(quit)
	delete(h.clients, c)

	for name := range c.Rooms {
		h.leave(c, name, false)
	}
	h.log.Debug().Str("client_id", c.ID).Msg("client unregistered")

	if c.Name != "" {
		h.broadcastUsers()
	}
}

func (h *hub) handle(c *Client, cmd *Command) {
	switch cmd.Kind {
	case CommandRegister:
		h.handleRegister(c, cmd)
	case CommandJoinRoom:
		h.handleJoin(c, cmd)
	case CommandLeaveRoom:
		h.handleLeave(c, cmd)
	case CommandSendRoomMessage:
		h.handleMessage(c, cmd)
	case CommandCreatePrivateChat:
		h.handleCreatePrivateChat(c, cmd)
	default:
		h.fail(c, coreError(ErrCodeBadRequest, fmt.Sprintf("unknown command %v", cmd.Kind)))
	}
}

func (h *hub) handleRegister(c *Client, cmd *Command) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		h.fail(c, coreError(ErrCodeBadRequest, "name is required"))
		return
	}
	c.Name = name
	h.log.Info().Str("client_id", c.ID).Str("name", name).Msg("client named")
	h.broadcastUsers()
}

func (h *hub) handleJoin(c *Client, cmd *Command) {
	if cmd.Room == "" {
		h.fail(c, coreError(ErrCodeBadRequest, "room is required"))
		return
	}

	room, ok := h.rooms[cmd.Room]
	if !ok {
		room = NewRoom(cmd.Room)
		h.rooms[cmd.Room] = room
	}
	if !room.AddClient(c) {
		h.fail(c, coreError(ErrCodeAlreadyJoined, "already in "+cmd.Room))
		return
	}
	c.Rooms[cmd.Room] = struct{}{}

	room.Broadcast(&Event{
		Kind:   EventNotice,
		Room:   cmd.Room,
		Notice: fmt.Sprintf("%s joined %s", c.DisplayName(), cmd.Room),
	})
}

func (h *hub) handleLeave(c *Client, cmd *Command) {
	if cmd.Room == "" {
		h.fail(c, coreError(ErrCodeBadRequest, "room is required"))
		return
	}
	room, ok := h.rooms[cmd.Room]
	if !ok {
		h.fail(c, coreError(ErrCodeRoomNotFound, "no such room "+cmd.Room))
		return
	}
	if !room.Has(c) {
		h.fail(c, coreError(ErrCodeNotInRoom, "not in "+cmd.Room))
		return
	}
	h.leave(c, cmd.Room, true)
}

// leave removes c from the room and tells the remaining members.
func (h *hub) leave(c *Client, name string, notifySelf bool) {
	room, ok := h.rooms[name]
	delete(c.Rooms, name)
	if !ok || !room.RemoveClient(c) {
		return
	}

	ev := &Event{
		Kind:   EventNotice,
		Room:   name,
		Notice: fmt.Sprintf("%s left %s", c.DisplayName(), name),
	}
	room.Broadcast(ev)
	if notifySelf {
		deliver(c, ev)
	}
	if room.Empty() {
		delete(h.rooms, name)
	}
}

func (h *hub) handleMessage(c *Client, cmd *Command) {
	msg := cmd.Message
	if msg.Text == "" {
		h.fail(c, coreError(ErrCodeBadRequest, "text is required"))
		return
	}
	room, ok := h.rooms[cmd.Room]
	if !ok || !room.Has(c) {
		h.fail(c, coreError(ErrCodeNotInRoom, "join "+cmd.Room+" first"))
		return
	}

	msg.Room = cmd.Room
	msg.From = c.DisplayName()
	msg.Private = proto.IsPrivateRoom(cmd.Room)

	metrics.MessagesRelayed.WithLabelValues(metrics.RoomType(msg.Private)).Inc()
	room.Broadcast(&Event{Kind: EventRoomMessage, Room: cmd.Room, Message: msg})
}

func (h *hub) handleCreatePrivateChat(c *Client, cmd *Command) {
	target := h.clientByID(cmd.Target)
	if target == nil {
		h.fail(c, coreError(ErrCodeUserNotFound, "no such user "+cmd.Target))
		return
	}
	if target == c {
		h.fail(c, coreError(ErrCodeBadRequest, "cannot open a private chat with yourself"))
		return
	}

	want := proto.PrivateRoomID(c.ID, target.ID)
	if cmd.Room != "" && cmd.Room != want {
		h.fail(c, coreError(ErrCodeBadRequest, "private room id does not match participants"))
		return
	}

	metrics.PrivateInvites.Inc()
	deliver(target, &Event{
		Kind:   EventPrivateInvite,
		Room:   want,
		Invite: &Invite{FromID: c.ID, FromName: c.DisplayName(), Room: want},
	})
}

func (h *hub) clientByID(id string) *Client {
	for c := range h.clients {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// broadcastUsers sends the roster of named clients to every client.
func (h *hub) broadcastUsers() {
	users := make([]User, 0, len(h.clients))
	for c := range h.clients {
		if c.Name == "" {
			continue
		}
		users = append(users, User{ID: c.ID, Name: c.Name})
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].Name != users[j].Name {
			return users[i].Name < users[j].Name
		}
		return users[i].ID < users[j].ID
	})

	ev := &Event{Kind: EventUsers, Users: users}
	for c := range h.clients {
		deliver(c, ev)
	}
}

func (h *hub) fail(c *Client, err *CoreError) {
	metrics.CommandErrors.WithLabelValues(err.Code).Inc()
	h.log.Debug().Str("client_id", c.ID).Str("code", err.Code).Msg(err.Message)
	deliver(c, &Event{Kind: EventError, Error: err})
}
