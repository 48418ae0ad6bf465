package chat

import (
	"github.com/vovakirdan/wirechat-tui/internal/proto"
)

// systemAuthor is the display name of notices that have no author.
const systemAuthor = "System"

// Message is one line of room history.
type Message struct {
	Room    string
	Author  string
	Text    string
	Private bool
	System  bool
}

// String renders the message as a history line.
func (m Message) String() string {
	author := m.Author
	if m.System || author == "" {
		author = systemAuthor
	}
	return author + ": " + m.Text
}

// Invite is a pending private-chat invitation.
type Invite struct {
	From     string
	RoomID   string
	FromName string
}

// Sender returns the best available label for the inviter.
func (i Invite) Sender() string {
	if i.FromName != "" {
		return i.FromName
	}
	return i.From
}

// fromInbound normalizes a decoded message payload.
func fromInbound(in proto.InboundMessage) Message {
	if in.Kind == proto.InboundNotice {
		return Message{Room: proto.PublicRoom, Text: in.Notice, System: true}
	}
	return Message{
		Room:    in.Chat.Room,
		Author:  in.Chat.Author,
		Text:    in.Chat.Text,
		Private: in.Chat.IsPrivate,
	}
}

func notice(room, text string) Message {
	return Message{Room: room, Text: text, System: true}
}
