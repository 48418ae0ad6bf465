package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrEmptyPayload is returned when a message frame has no data.
var ErrEmptyPayload = errors.New("empty message payload")

// InboundKind tags the shape a "message" payload arrived in.
type InboundKind int

const (
	// InboundNotice is a bare string, shown as an anonymous system notice.
	InboundNotice InboundKind = iota
	// InboundChat is a structured ChatMessage.
	InboundChat
)

func (k InboundKind) String() string {
	switch k {
	case InboundNotice:
		return "notice"
	case InboundChat:
		return "chat"
	default:
		return "unknown"
	}
}

// InboundMessage is the decoded "message" payload. Exactly one of Notice or Chat is meaningful, selected by Kind.
type InboundMessage struct {
	Kind   InboundKind
	Notice string
	Chat   ChatMessage
}

// DecodeMessage decodes a "message" payload that is either a JSON string or a ChatMessage object.
func DecodeMessage(raw json.RawMessage) (InboundMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return InboundMessage{}, ErrEmptyPayload
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return InboundMessage{}, fmt.Errorf("decode notice: %w", err)
		}
		return InboundMessage{Kind: InboundNotice, Notice: text}, nil
	case '{':
		var msg ChatMessage
		if err := json.Unmarshal(trimmed, &msg); err != nil {
			return InboundMessage{}, fmt.Errorf("decode chat message: %w", err)
		}
		if msg.Text == "" {
			return InboundMessage{}, fmt.Errorf("decode chat message: missing text")
		}
		return InboundMessage{Kind: InboundChat, Chat: msg}, nil
	default:
		return InboundMessage{}, fmt.Errorf("unexpected message payload %q", truncate(trimmed, 32))
	}
}

// DecodeString decodes a payload that is a bare JSON string (welcome, lifecycle reasons).
func DecodeString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	return s, nil
}

// IsPrivateRoom reports whether room is anything other than the public room.
func IsPrivateRoom(room string) bool {
	return room != PublicRoom
}

// PrivateRoomID derives the two-party room id both sides compute independently:
// the two connection ids sorted lexicographically and concatenated.
func PrivateRoomID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + ids[1]
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
