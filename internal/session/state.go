package session

// State is the connection state of a Client.
type State int

const (
	// StateDisconnected is the initial state and the terminal state after Close.
	StateDisconnected State = iota
	// StateConnecting covers the first dial and handshake.
	StateConnecting
	// StateConnected means the handshake finished and Send delivers frames.
	StateConnected
	// StateReconnecting covers every dial after the connection dropped or a dial failed.
	StateReconnecting
)

// String returns a human-readable name for the state
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}
