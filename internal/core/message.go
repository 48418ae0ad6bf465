package core

// Message is a chat message relayed to a room.
type Message struct {
	Room    string
	From    string
	Text    string
	Private bool
}
