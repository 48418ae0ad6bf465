package proto

import (
	"encoding/json"
	"fmt"
)

// Envelope wraps every frame exchanged with the server, in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// PublicRoom is the well-known shared room. Every other room is private.
const PublicRoom = "lobby"

// Lifecycle channels. Hello comes from the server; the rest are raised locally by the session.
const (
	EventHello        = "hello"
	EventConnect      = "connect"
	EventConnectError = "connect_error"
	EventDisconnect   = "disconnect"
	EventReconnect    = "reconnect"
)

// Chat channels.
const (
	EventRegister          = "register"
	EventRegisterUser      = "register-user"
	EventJoin              = "join"
	EventLeave             = "leave"
	EventMessage           = "message"
	EventWelcome           = "welcome"
	EventUsers             = "users"
	EventPrivateInvite     = "private-invite"
	EventCreatePrivateChat = "create-private-chat"
	EventError             = "error"
)

// HelloData carries the server-assigned connection id.
type HelloData struct {
	ID string `json:"id"`
}

// RegisterData associates a display name with the connection.
type RegisterData struct {
	Name string `json:"name"`
}

// LeaveData requests to leave a room.
type LeaveData struct {
	Room string `json:"room"`
}

// ChatMessage is the structured form of a chat message.
type ChatMessage struct {
	Room      string `json:"room"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	IsPrivate bool   `json:"isPrivate"`
}

// User is a roster entry.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PrivateInvite asks the receiver to join a two-party room.
type PrivateInvite struct {
	From     string `json:"from"`
	RoomID   string `json:"roomId"`
	FromName string `json:"fromName"`
}

// CreatePrivateChat asks the server to broker a private room with the target.
type CreatePrivateChat struct {
	TargetUserID string `json:"targetUserId"`
	RoomID       string `json:"roomId"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// NewEnvelope marshals payload into an envelope for event.
func NewEnvelope(event string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Event: event}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return Envelope{Event: event, Data: raw}, nil
}
