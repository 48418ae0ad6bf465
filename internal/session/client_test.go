package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/wirechat-tui/internal/proto"
)

// testServer accepts websocket connections, greets them with hello and records inbound frames.
type testServer struct {
	*httptest.Server
	frames chan proto.Envelope
	conns  chan *websocket.Conn
	nextID atomic.Int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		frames: make(chan proto.Envelope, 64),
		conns:  make(chan *websocket.Conn, 8),
	}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		id := fmt.Sprintf("conn-%d", ts.nextID.Add(1))
		hello, _ := proto.NewEnvelope(proto.EventHello, proto.HelloData{ID: id})
		if err := wsjson.Write(ctx, conn, hello); err != nil {
			return
		}
		ts.conns <- conn

		for {
			var env proto.Envelope
			if err := wsjson.Read(ctx, conn, &env); err != nil {
				return
			}
			ts.frames <- env
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func (ts *testServer) nextConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-ts.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no connection accepted")
		return nil
	}
}

func push(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	env, err := proto.NewEnvelope(event, payload)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	if err := wsjson.Write(context.Background(), conn, env); err != nil {
		t.Fatalf("push %s: %v", event, err)
	}
}

func testOptions() Options {
	return Options{
		ReconnectDelay: 20 * time.Millisecond,
		DialTimeout:    time.Second,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func record(c *Client, channel string) <-chan json.RawMessage {
	ch := make(chan json.RawMessage, 16)
	c.Subscribe(channel, func(data json.RawMessage) { ch <- data })
	return ch
}

func mustReceive(t *testing.T, ch <-chan json.RawMessage, what string) json.RawMessage {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(2 * time.Second):
		t.Fatalf("expected %s event", what)
		return nil
	}
}

func TestProviderConnectReturnsSameClient(t *testing.T) {
	ts := newTestServer(t)
	p := NewProvider()
	defer p.Close()

	first := p.Connect(context.Background(), ts.wsURL(), testOptions())
	second := p.Connect(context.Background(), "ws://ignored.invalid/ws", testOptions())

	if first != second {
		t.Fatal("second Connect created a new client")
	}
	if p.Client() != first {
		t.Fatal("Client() does not return the connected client")
	}

	ts.nextConn(t)
	select {
	case <-ts.conns:
		t.Fatal("provider opened a second connection")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestClientHandshakeAssignsID(t *testing.T) {
	ts := newTestServer(t)
	c := New(context.Background(), ts.wsURL(), testOptions())
	defer c.Close()

	waitFor(t, "connected", c.Connected)
	if c.ID() != "conn-1" {
		t.Fatalf("ID() = %q, want conn-1", c.ID())
	}
}

func TestSubscribeReplacesPreviousHandler(t *testing.T) {
	ts := newTestServer(t)
	c := New(context.Background(), ts.wsURL(), testOptions())
	defer c.Close()

	waitFor(t, "connected", c.Connected)
	conn := ts.nextConn(t)

	var first, second atomic.Int32
	delivered := make(chan struct{}, 8)
	c.Subscribe(proto.EventMessage, func(json.RawMessage) {
		first.Add(1)
		delivered <- struct{}{}
	})
	c.Subscribe(proto.EventMessage, func(json.RawMessage) {
		second.Add(1)
		delivered <- struct{}{}
	})

	push(t, conn, proto.EventMessage, "one")
	push(t, conn, proto.EventMessage, "two")
	for i := 0; i < 2; i++ {
		select {
		case <-delivered:
		case <-time.After(2 * time.Second):
			t.Fatal("message not delivered")
		}
	}

	select {
	case <-delivered:
		t.Fatal("duplicate delivery")
	case <-time.After(50 * time.Millisecond):
	}
	if first.Load() != 0 || second.Load() != 2 {
		t.Fatalf("first=%d second=%d, want 0 and 2", first.Load(), second.Load())
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	ts := newTestServer(t)
	c := New(context.Background(), ts.wsURL(), testOptions())
	defer c.Close()

	waitFor(t, "connected", c.Connected)
	conn := ts.nextConn(t)

	got := record(c, proto.EventWelcome)
	c.Unsubscribe(proto.EventWelcome)
	marker := record(c, proto.EventUsers)

	push(t, conn, proto.EventWelcome, "hi")
	push(t, conn, proto.EventUsers, []proto.User{})
	mustReceive(t, marker, "users")

	select {
	case <-got:
		t.Fatal("handler fired after Unsubscribe")
	default:
	}
}

func TestSendPreservesOrder(t *testing.T) {
	ts := newTestServer(t)
	c := New(context.Background(), ts.wsURL(), testOptions())
	defer c.Close()

	waitFor(t, "connected", c.Connected)

	const n = 20
	for i := 0; i < n; i++ {
		c.Send(proto.EventMessage, proto.ChatMessage{Room: "lobby", Author: "a", Text: fmt.Sprint(i)})
	}

	for i := 0; i < n; i++ {
		select {
		case env := <-ts.frames:
			var msg proto.ChatMessage
			if err := json.Unmarshal(env.Data, &msg); err != nil {
				t.Fatalf("decode frame: %v", err)
			}
			if msg.Text != fmt.Sprint(i) {
				t.Fatalf("frame %d has text %q", i, msg.Text)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("frame %d not received", i)
		}
	}
}

func TestSendWhileDisconnectedIsNoop(t *testing.T) {
	ts := newTestServer(t)
	url := ts.wsURL()
	ts.Close()

	c := New(context.Background(), url, testOptions())
	defer c.Close()

	errs := record(c, proto.EventConnectError)
	mustReceive(t, errs, "connect_error")

	c.Send(proto.EventJoin, "lobby")
	if c.Connected() {
		t.Fatal("client reports connected against a closed server")
	}
	if s := c.State(); s == StateConnected || s == StateDisconnected {
		t.Fatalf("state = %v, want connecting or reconnecting", s)
	}
}

func TestReconnectAfterServerDrop(t *testing.T) {
	ts := newTestServer(t)
	c := New(context.Background(), ts.wsURL(), testOptions())
	defer c.Close()

	waitFor(t, "connected", c.Connected)
	conn := ts.nextConn(t)
	firstID := c.ID()

	disconnects := record(c, proto.EventDisconnect)
	reconnects := record(c, proto.EventReconnect)

	conn.Close(websocket.StatusGoingAway, "restart")

	mustReceive(t, disconnects, "disconnect")
	data := mustReceive(t, reconnects, "reconnect")

	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		t.Fatalf("decode reconnect payload: %v", err)
	}
	if id == firstID || id != c.ID() {
		t.Fatalf("reconnect id %q, first %q, current %q", id, firstID, c.ID())
	}
	waitFor(t, "connected again", c.Connected)
}

func TestMalformedFrameKeepsConnection(t *testing.T) {
	ts := newTestServer(t)
	c := New(context.Background(), ts.wsURL(), testOptions())
	defer c.Close()

	waitFor(t, "connected", c.Connected)
	conn := ts.nextConn(t)

	disconnects := record(c, proto.EventDisconnect)
	welcomes := record(c, proto.EventWelcome)

	if err := conn.Write(context.Background(), websocket.MessageText, []byte("not json")); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	push(t, conn, proto.EventWelcome, "still here")

	data := mustReceive(t, welcomes, "welcome")
	if text, _ := proto.DecodeString(data); text != "still here" {
		t.Fatalf("welcome payload = %s", data)
	}
	select {
	case <-disconnects:
		t.Fatal("malformed frame dropped the connection")
	default:
	}
}

func TestCloseIsTerminal(t *testing.T) {
	ts := newTestServer(t)
	c := New(context.Background(), ts.wsURL(), testOptions())

	waitFor(t, "connected", c.Connected)
	ts.nextConn(t)

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if s := c.State(); s != StateDisconnected {
		t.Fatalf("state after Close = %v", s)
	}

	select {
	case <-ts.conns:
		t.Fatal("client redialed after Close")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatchHookRunsHandlers(t *testing.T) {
	ts := newTestServer(t)

	queue := make(chan func(), 16)
	opts := testOptions()
	opts.Dispatch = func(fn func()) { queue <- fn }

	c := New(context.Background(), ts.wsURL(), opts)
	defer c.Close()

	var got atomic.Value
	c.Subscribe(proto.EventConnect, func(data json.RawMessage) { got.Store(string(data)) })

	select {
	case fn := <-queue:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("connect not dispatched")
	}
	if got.Load() != `"conn-1"` {
		t.Fatalf("connect payload = %v", got.Load())
	}
}
