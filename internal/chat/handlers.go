package chat

import (
	"encoding/json"

	"github.com/vovakirdan/wirechat-tui/internal/proto"
)

func (v *View) onConnect(json.RawMessage) {
	v.connected = true
	v.status = ""
	if v.restorePending {
		v.sendRestoredJoin()
	}
}

// onReconnect only flips the flag. The joined room is not re-joined.
func (v *View) onReconnect(json.RawMessage) {
	v.connected = true
	v.status = ""
	if v.restorePending {
		v.sendRestoredJoin()
	}
	v.log.Info().Str("room", v.room).Bool("joined", v.joined).Msg("reconnected")
}

func (v *View) onDisconnect(data json.RawMessage) {
	reason, _ := proto.DecodeString(data)
	if reason == "" {
		reason = "disconnected"
	}
	v.connected = false
	v.status = reason
}

func (v *View) onConnectError(data json.RawMessage) {
	reason, _ := proto.DecodeString(data)
	if reason == "" {
		reason = "connection failed"
	}
	v.connected = false
	v.status = reason
}

func (v *View) onMessage(data json.RawMessage) {
	in, err := proto.DecodeMessage(data)
	if err != nil {
		v.log.Warn().Err(err).Msg("dropping malformed message")
		return
	}

	m := fromInbound(in)
	if in.Kind == proto.InboundChat {
		if m.Room == "" {
			v.log.Warn().Str("author", m.Author).Msg("dropping message without room")
			return
		}
		if m.Private != proto.IsPrivateRoom(m.Room) {
			v.log.Debug().Str("room", m.Room).Bool("isPrivate", m.Private).Msg("privacy flag disagrees with room")
		}
	}
	v.appendTo(m)
}

func (v *View) onWelcome(data json.RawMessage) {
	text, err := proto.DecodeString(data)
	if err != nil || text == "" {
		v.log.Warn().Err(err).Msg("dropping malformed welcome")
		return
	}
	v.appendTo(notice(proto.PublicRoom, text))
}

func (v *View) onUsers(data json.RawMessage) {
	var users []proto.User
	if err := json.Unmarshal(data, &users); err != nil {
		v.log.Warn().Err(err).Msg("dropping malformed users list")
		return
	}

	self := v.tr.ID()
	filtered := users[:0]
	for _, u := range users {
		if u.ID == "" || u.ID == self {
			continue
		}
		filtered = append(filtered, u)
	}
	v.users = filtered
}

func (v *View) onPrivateInvite(data json.RawMessage) {
	var inv proto.PrivateInvite
	if err := json.Unmarshal(data, &inv); err != nil {
		v.log.Warn().Err(err).Msg("dropping malformed invite")
		return
	}
	v.ReceiveInvite(inv.From, inv.RoomID, inv.FromName)
}

func (v *View) onError(data json.RawMessage) {
	var perr proto.Error
	if err := json.Unmarshal(data, &perr); err != nil {
		v.log.Warn().Err(err).Msg("dropping malformed error")
		return
	}
	v.log.Warn().Str("code", perr.Code).Str("msg", perr.Msg).Msg("server error")

	room := proto.PublicRoom
	if v.joined {
		room = v.room
	}
	v.appendTo(notice(room, perr.Error()))
}
