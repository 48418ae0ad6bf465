// Package chat holds the user-facing chat state and maps user actions to session
// commands and session events back to state.
//
// A View is not safe for concurrent use. It must only be touched from the
// goroutine that runs session handlers (the UI loop when the session dispatches
// through it).
package chat

import (
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-tui/internal/proto"
	"github.com/vovakirdan/wirechat-tui/internal/session"
)

// Transport is the part of the session client the view talks to.
type Transport interface {
	ID() string
	Connected() bool
	Send(channel string, payload any)
	Subscribe(channel string, h session.Handler)
	Unsubscribe(channel string)
}

// State is a copy of the view state for rendering.
type State struct {
	ID        string
	Name      string
	Room      string
	Joined    bool
	Connected bool
	// Status is the last connection problem, empty while healthy.
	Status string
	// Rooms lists the rooms joined this session, lobby first.
	Rooms   []string
	History []Message
	Users   []proto.User
	Invite  *Invite
}

// View is the chat state machine.
type View struct {
	tr      Transport
	records *RecordStore
	log     *zerolog.Logger

	name      string
	room      string
	joined    bool
	connected bool
	status    string

	rooms   map[string]bool
	public  []Message
	private map[string][]Message
	users   []proto.User
	invite  *Invite

	restorePending bool
}

// NewView creates a view over tr. records may be nil.
func NewView(tr Transport, records *RecordStore, logger *zerolog.Logger) *View {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &View{
		tr:      tr,
		records: records,
		log:     logger,
		rooms:   make(map[string]bool),
		private: make(map[string][]Message),
	}
}

// Bind subscribes the view to every inbound channel. Calling it again replaces the handlers.
func (v *View) Bind() {
	v.connected = v.tr.Connected()

	v.tr.Subscribe(proto.EventConnect, v.onConnect)
	v.tr.Subscribe(proto.EventReconnect, v.onReconnect)
	v.tr.Subscribe(proto.EventDisconnect, v.onDisconnect)
	v.tr.Subscribe(proto.EventConnectError, v.onConnectError)
	v.tr.Subscribe(proto.EventMessage, v.onMessage)
	v.tr.Subscribe(proto.EventWelcome, v.onWelcome)
	v.tr.Subscribe(proto.EventUsers, v.onUsers)
	v.tr.Subscribe(proto.EventPrivateInvite, v.onPrivateInvite)
	v.tr.Subscribe(proto.EventError, v.onError)
}

// Unbind removes the handlers installed by Bind.
func (v *View) Unbind() {
	for _, ch := range []string{
		proto.EventConnect, proto.EventReconnect, proto.EventDisconnect, proto.EventConnectError,
		proto.EventMessage, proto.EventWelcome, proto.EventUsers, proto.EventPrivateInvite, proto.EventError,
	} {
		v.tr.Unsubscribe(ch)
	}
}

// Restore loads the saved record. With a saved room the view is marked joined and
// exactly one join is sent, now if connected or else on the first connect.
func (v *View) Restore() {
	rec := v.records.Load()
	if rec.Name != "" {
		v.name = rec.Name
	}
	if rec.Room == "" || rec.Name == "" {
		return
	}

	v.room = rec.Room
	v.joined = true
	v.rooms[rec.Room] = true
	v.appendTo(notice(rec.Room, "restored join to "+rec.Room))
	v.log.Info().Str("room", rec.Room).Str("name", rec.Name).Msg("session record restored")

	if v.tr.Connected() {
		v.sendRestoredJoin()
		return
	}
	v.restorePending = true
}

func (v *View) sendRestoredJoin() {
	v.restorePending = false
	v.tr.Send(proto.EventRegister, proto.RegisterData{Name: v.name})
	v.tr.Send(proto.EventJoin, v.room)
}

// RegisterName sets the display name. Blank names are ignored.
func (v *View) RegisterName(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	v.name = name
	v.tr.Send(proto.EventRegister, proto.RegisterData{Name: name})

	rec := Record{Name: name}
	if v.joined {
		rec.Room = v.room
	}
	v.records.Save(rec)
}

// JoinRoom registers name and joins room without waiting for the server.
func (v *View) JoinRoom(room, name string) {
	room = strings.TrimSpace(room)
	name = strings.TrimSpace(name)
	if room == "" || name == "" {
		return
	}

	v.name = name
	v.tr.Send(proto.EventRegister, proto.RegisterData{Name: name})
	v.tr.Send(proto.EventJoin, room)

	v.room = room
	v.joined = true
	v.rooms[room] = true
	v.records.Save(Record{Room: room, Name: name})
	v.appendTo(notice(room, "joined "+room))
}

// JoinPrivate opens the two-party room with targetID and asks the server to invite the target.
func (v *View) JoinPrivate(targetID string) {
	localID := v.tr.ID()
	if v.name == "" || localID == "" || targetID == "" || targetID == localID {
		return
	}

	room := proto.PrivateRoomID(localID, targetID)
	v.tr.Send(proto.EventCreatePrivateChat, proto.CreatePrivateChat{TargetUserID: targetID, RoomID: room})
	v.JoinRoom(room, v.name)
}

// ReceiveInvite records a pending invitation, replacing any earlier one.
func (v *View) ReceiveInvite(from, roomID, fromName string) {
	if roomID == "" {
		v.log.Warn().Str("from", from).Msg("dropping invite without room")
		return
	}
	v.invite = &Invite{From: from, RoomID: roomID, FromName: fromName}
}

// AcceptInvite joins the invited room. It needs a registered name.
func (v *View) AcceptInvite() {
	if v.invite == nil || v.name == "" {
		return
	}
	room := v.invite.RoomID
	v.invite = nil
	v.JoinRoom(room, v.name)
}

// DeclineInvite discards the pending invitation.
func (v *View) DeclineInvite() {
	v.invite = nil
}

// SendMessage publishes text to the current room. The message is shown when the server echoes it.
func (v *View) SendMessage(text string) {
	text = strings.TrimSpace(text)
	if !v.joined || text == "" {
		return
	}
	v.tr.Send(proto.EventMessage, proto.ChatMessage{
		Room:      v.room,
		Author:    v.name,
		Text:      text,
		IsPrivate: proto.IsPrivateRoom(v.room),
	})
}

// LeaveRoom leaves the current room and falls back to another joined room, if any.
func (v *View) LeaveRoom() {
	if !v.joined {
		return
	}

	left := v.room
	v.tr.Send(proto.EventLeave, proto.LeaveData{Room: left})
	delete(v.rooms, left)
	v.appendTo(notice(left, "left "+left))

	if rooms := v.joinedRooms(); len(rooms) > 0 {
		v.room = rooms[0]
		v.records.Save(Record{Room: v.room, Name: v.name})
		return
	}
	v.room = ""
	v.joined = false
	v.records.Save(Record{Name: v.name})
}

// SelectRoom makes an already joined room current. No commands are sent.
func (v *View) SelectRoom(room string) {
	if !v.rooms[room] || room == v.room {
		return
	}
	v.room = room
	v.records.Save(Record{Room: room, Name: v.name})
}

// PublicHistory returns a copy of the lobby history.
func (v *View) PublicHistory() []Message {
	return append([]Message(nil), v.public...)
}

// PrivateHistory returns a copy of the history of a private room.
func (v *View) PrivateHistory(room string) []Message {
	return append([]Message(nil), v.private[room]...)
}

// PrivateRooms lists the private rooms with history.
func (v *View) PrivateRooms() []string {
	rooms := make([]string, 0, len(v.private))
	for room := range v.private {
		rooms = append(rooms, room)
	}
	sort.Strings(rooms)
	return rooms
}

// Snapshot copies the state needed to render the view.
func (v *View) Snapshot() State {
	s := State{
		ID:        v.tr.ID(),
		Name:      v.name,
		Room:      v.room,
		Joined:    v.joined,
		Connected: v.connected,
		Status:    v.status,
		Rooms:     v.joinedRooms(),
		Users:     append([]proto.User(nil), v.users...),
	}
	if v.invite != nil {
		inv := *v.invite
		s.Invite = &inv
	}
	if v.joined && proto.IsPrivateRoom(v.room) {
		s.History = v.PrivateHistory(v.room)
	} else {
		s.History = v.PublicHistory()
	}
	return s
}

func (v *View) joinedRooms() []string {
	rooms := make([]string, 0, len(v.rooms))
	for room := range v.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i] == proto.PublicRoom || rooms[j] == proto.PublicRoom {
			return rooms[i] == proto.PublicRoom
		}
		return rooms[i] < rooms[j]
	})
	return rooms
}

// appendTo stores m in the history of m.Room. The privacy flag always follows the room.
func (v *View) appendTo(m Message) {
	if m.Room == "" {
		m.Room = proto.PublicRoom
	}
	m.Private = proto.IsPrivateRoom(m.Room)
	if m.Private {
		v.private[m.Room] = append(v.private[m.Room], m)
		return
	}
	v.public = append(v.public, m)
}
