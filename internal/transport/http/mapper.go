package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vovakirdan/wirechat-tui/internal/core"
	"github.com/vovakirdan/wirechat-tui/internal/proto"
)

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

// inboundToCommand maps a client frame to a hub command, or to a protocol error to send back.
// Author and privacy of messages are filled in by the hub.
func inboundToCommand(env proto.Envelope) (*core.Command, *proto.Error) {
	switch env.Event {
	case proto.EventRegister, proto.EventRegisterUser:
		name, err := decodeName(env.Data)
		if err != nil || strings.TrimSpace(name) == "" {
			return nil, badRequest("name is required")
		}
		return &core.Command{Kind: core.CommandRegister, Name: name}, nil

	case proto.EventJoin:
		room, err := decodeRoom(env.Data)
		if err != nil || room == "" {
			return nil, badRequest("room is required")
		}
		return &core.Command{Kind: core.CommandJoinRoom, Room: room}, nil

	case proto.EventLeave:
		room, err := decodeRoom(env.Data)
		if err != nil || room == "" {
			return nil, badRequest("room is required")
		}
		return &core.Command{Kind: core.CommandLeaveRoom, Room: room}, nil

	case proto.EventMessage:
		var msg proto.ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, badRequest("message must be an object")
		}
		if msg.Room == "" {
			return nil, badRequest("room is required")
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, badRequest("text is required")
		}
		return &core.Command{
			Kind: core.CommandSendRoomMessage,
			Room: msg.Room,
			Message: core.Message{
				Room: msg.Room,
				Text: msg.Text,
			},
		}, nil

	case proto.EventCreatePrivateChat:
		var req proto.CreatePrivateChat
		if err := json.Unmarshal(env.Data, &req); err != nil || req.TargetUserID == "" {
			return nil, badRequest("targetUserId is required")
		}
		return &core.Command{Kind: core.CommandCreatePrivateChat, Target: req.TargetUserID, Room: req.RoomID}, nil

	default:
		return nil, &proto.Error{Code: core.ErrCodeInvalidMessage, Msg: fmt.Sprintf("unknown event %q", env.Event)}
	}
}

// decodeName accepts {"name": "..."} or a bare string.
func decodeName(raw json.RawMessage) (string, error) {
	if isJSONString(raw) {
		return proto.DecodeString(raw)
	}
	var data proto.RegisterData
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", err
	}
	return data.Name, nil
}

// decodeRoom accepts a bare string or {"room": "..."}.
func decodeRoom(raw json.RawMessage) (string, error) {
	if isJSONString(raw) {
		return proto.DecodeString(raw)
	}
	var data proto.LeaveData
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", err
	}
	return data.Room, nil
}

func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

// outboundFromEvent maps a hub event to the frame sent to the client.
func outboundFromEvent(ev *core.Event) (proto.Envelope, error) {
	switch ev.Kind {
	case core.EventRoomMessage:
		return proto.NewEnvelope(proto.EventMessage, proto.ChatMessage{
			Room:      ev.Message.Room,
			Author:    ev.Message.From,
			Text:      ev.Message.Text,
			IsPrivate: ev.Message.Private,
		})
	case core.EventNotice:
		return proto.NewEnvelope(proto.EventMessage, ev.Notice)
	case core.EventUsers:
		users := make([]proto.User, 0, len(ev.Users))
		for _, u := range ev.Users {
			users = append(users, proto.User{ID: u.ID, Name: u.Name})
		}
		return proto.NewEnvelope(proto.EventUsers, users)
	case core.EventPrivateInvite:
		if ev.Invite == nil {
			return proto.Envelope{}, fmt.Errorf("private invite event without invite")
		}
		return proto.NewEnvelope(proto.EventPrivateInvite, proto.PrivateInvite{
			From:     ev.Invite.FromID,
			RoomID:   ev.Invite.Room,
			FromName: ev.Invite.FromName,
		})
	case core.EventError:
		if ev.Error == nil {
			return proto.Envelope{}, fmt.Errorf("error event without error")
		}
		return proto.NewEnvelope(proto.EventError, proto.Error{Code: ev.Error.Code, Msg: ev.Error.Message})
	default:
		return proto.Envelope{}, fmt.Errorf("unknown event kind %v", ev.Kind)
	}
}
