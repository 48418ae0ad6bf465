package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandRegister sets the client's display name.
	CommandRegister CommandKind = iota
	// CommandJoinRoom subscribes the client to a room.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the client from a room.
	CommandLeaveRoom
	// CommandSendRoomMessage delivers a chat message to room participants.
	CommandSendRoomMessage
	// CommandCreatePrivateChat invites another client into a two-party room.
	CommandCreatePrivateChat
)

func (k CommandKind) String() string {
	switch k {
	case CommandRegister:
		return "register"
	case CommandJoinRoom:
		return "join"
	case CommandLeaveRoom:
		return "leave"
	case CommandSendRoomMessage:
		return "message"
	case CommandCreatePrivateChat:
		return "create-private-chat"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind    CommandKind
	Room    string
	Name    string // CommandRegister
	Target  string // CommandCreatePrivateChat
	Message Message
}
