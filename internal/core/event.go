package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventRoomMessage notifies clients about a chat message in a room.
	EventRoomMessage EventKind = iota
	// EventNotice is a plain-text system notice (joins, leaves).
	EventNotice
	// EventUsers delivers the online roster.
	EventUsers
	// EventPrivateInvite asks a client to join a two-party room.
	EventPrivateInvite
	// EventError notifies clients about a domain error.
	EventError
)

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind    EventKind
	Room    string
	Message Message
	Notice  string
	Users   []User
	Invite  *Invite
	Error   *CoreError
}

// User is a roster entry.
type User struct {
	ID   string
	Name string
}

// Invite carries a private chat invitation.
type Invite struct {
	FromID   string
	FromName string
	Room     string
}

func (k EventKind) String() string {
	switch k {
	case EventRoomMessage:
		return "room_message"
	case EventNotice:
		return "notice"
	case EventUsers:
		return "users"
	case EventPrivateInvite:
		return "private_invite"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}
