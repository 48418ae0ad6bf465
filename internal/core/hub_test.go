package core

import (
	"context"
	"testing"
	"time"
)

func startHub(t *testing.T) Hub {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)
	return hub
}

func TestHubJoinBroadcastAndLeave(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a", "alice")
	bob := NewClient("b", "bob")

	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}
	mustEvent(t, alice.Events, EventNotice)
	bob.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}

	// Bob should see his own join notice (broadcasted to room).
	joinEv := mustEvent(t, bob.Events, EventNotice)
	if joinEv.Notice != "bob joined lobby" || joinEv.Room != "lobby" {
		t.Fatalf("unexpected join event: %+v", joinEv)
	}

	// Broadcast message from Alice; the sender receives it too.
	alice.Commands <- &Command{
		Kind:    CommandSendRoomMessage,
		Room:    "lobby",
		Message: Message{Text: "hi"},
	}

	msgEv := mustEvent(t, bob.Events, EventRoomMessage)
	if msgEv.Message.Text != "hi" || msgEv.Message.Room != "lobby" || msgEv.Message.From != "alice" || msgEv.Message.Private {
		t.Fatalf("unexpected message event: %+v", msgEv)
	}
	if echo := mustEvent(t, alice.Events, EventRoomMessage); echo.Message.Text != "hi" {
		t.Fatalf("sender echo: %+v", echo)
	}

	// Alice leaves; Bob should see the notice.
	alice.Commands <- &Command{Kind: CommandLeaveRoom, Room: "lobby"}
	leftEv := mustEvent(t, bob.Events, EventNotice)
	if leftEv.Notice != "alice left lobby" {
		t.Fatalf("unexpected leave event: %+v", leftEv)
	}
}

func TestHubDoubleJoinProducesError(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a", "alice")
	hub.RegisterClient(alice)

	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}
	alice.Commands <- &Command{Kind: CommandJoinRoom, Room: "lobby"}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeAlreadyJoined {
		t.Fatalf("expected already_joined error, got %+v", ev)
	}
}

func TestHubSendWithoutJoinProducesError(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a", "alice")
	hub.RegisterClient(alice)

	alice.Commands <- &Command{
		Kind:    CommandSendRoomMessage,
		Room:    "lobby",
		Message: Message{Text: "hi"},
	}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeNotInRoom {
		t.Fatalf("expected not_in_room error, got %+v", ev)
	}
}

func TestHubLeaveUnknownRoomError(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("a", "alice")
	hub.RegisterClient(alice)

	alice.Commands <- &Command{Kind: CommandLeaveRoom, Room: "ghost"}

	ev := mustEvent(t, alice.Events, EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeRoomNotFound {
		t.Fatalf("expected room_not_found error, got %+v", ev)
	}
}

func TestHubRegisterBroadcastsRoster(t *testing.T) {
	hub := startHub(t)

	a := NewClient("a", "")
	b := NewClient("b", "")
	hub.RegisterClient(a)
	hub.RegisterClient(b)

	a.Commands <- &Command{Kind: CommandRegister, Name: "alice"}
	ev := mustEvent(t, b.Events, EventUsers)
	if len(ev.Users) != 1 || ev.Users[0] != (User{ID: "a", Name: "alice"}) {
		t.Fatalf("roster = %+v", ev.Users)
	}

	b.Commands <- &Command{Kind: CommandRegister, Name: "bob"}
	ev = mustEvent(t, a.Events, EventUsers)
	for len(ev.Users) != 2 {
		ev = mustEvent(t, a.Events, EventUsers)
	}

	hub.UnregisterClient(b)
	ev = mustEvent(t, a.Events, EventUsers)
	if len(ev.Users) != 1 || ev.Users[0].ID != "a" {
		t.Fatalf("roster after disconnect = %+v", ev.Users)
	}
}

func TestHubPrivateRoomFlow(t *testing.T) {
	hub := startHub(t)

	a := NewClient("a", "alice")
	b := NewClient("b", "bob")
	hub.RegisterClient(a)
	hub.RegisterClient(b)

	a.Commands <- &Command{Kind: CommandCreatePrivateChat, Target: "b", Room: "ab"}
	inv := mustEvent(t, b.Events, EventPrivateInvite)
	if inv.Invite == nil || inv.Invite.Room != "ab" || inv.Invite.FromID != "a" || inv.Invite.FromName != "alice" {
		t.Fatalf("invite = %+v", inv.Invite)
	}

	a.Commands <- &Command{Kind: CommandJoinRoom, Room: "ab"}
	mustEvent(t, a.Events, EventNotice)
	b.Commands <- &Command{Kind: CommandJoinRoom, Room: "ab"}
	mustEvent(t, b.Events, EventNotice)

	b.Commands <- &Command{Kind: CommandSendRoomMessage, Room: "ab", Message: Message{Text: "psst"}}
	msg := mustEvent(t, a.Events, EventRoomMessage)
	if !msg.Message.Private || msg.Message.From != "bob" {
		t.Fatalf("private message = %+v", msg.Message)
	}
}

func TestHubPrivateChatErrors(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		code string
	}{
		{name: "unknown target", cmd: Command{Kind: CommandCreatePrivateChat, Target: "zz"}, code: ErrCodeUserNotFound},
		{name: "self", cmd: Command{Kind: CommandCreatePrivateChat, Target: "a"}, code: ErrCodeBadRequest},
		{name: "wrong room id", cmd: Command{Kind: CommandCreatePrivateChat, Target: "b", Room: "ba"}, code: ErrCodeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := startHub(t)
			a := NewClient("a", "alice")
			b := NewClient("b", "bob")
			hub.RegisterClient(a)
			hub.RegisterClient(b)

			cmd := tt.cmd
			a.Commands <- &cmd
			ev := mustEvent(t, a.Events, EventError)
			if ev.Error.Code != tt.code {
				t.Fatalf("code = %s, want %s", ev.Error.Code, tt.code)
			}
		})
	}
}

func TestHubStopReleasesCallers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	done := make(chan struct{})
	go func() {
		hub.RegisterClient(NewClient("late", ""))
		hub.UnregisterClient(NewClient("late", ""))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("register blocked on a stopped hub")
	}
}
