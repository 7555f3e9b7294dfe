package net

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/config"
	"github.com/wildhold/server/internal/protocol"
)

// fakeGateway answers every join with a welcome and records commands.
type fakeGateway struct {
	mu      sync.Mutex
	joinErr error
	sinks   map[string]protocol.Sink
	cmds    chan command.Command
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sinks: make(map[string]protocol.Sink),
		cmds:  make(chan command.Command, 32),
	}
}

func (g *fakeGateway) Join(_ context.Context, sessionID string, hello protocol.Hello, sink protocol.Sink) error {
	if g.joinErr != nil {
		return g.joinErr
	}
	g.mu.Lock()
	g.sinks[sessionID] = sink
	g.mu.Unlock()
	sink.Send(&protocol.Welcome{ID: "p-" + hello.Name, Token: "tok", ProtocolVersion: hello.ProtocolVersion})
	return nil
}

func (g *fakeGateway) Enqueue(cmd command.Command) command.Result {
	g.cmds <- cmd
	return command.ResultOK
}

func (g *fakeGateway) sink() protocol.Sink {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, s := range g.sinks {
		return s
	}
	return nil
}

func (g *fakeGateway) next(t *testing.T) command.Command {
	t.Helper()
	select {
	case cmd := <-g.cmds:
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatalf("no command enqueued")
		return command.Command{}
	}
}

func startServer(t *testing.T, gw Gateway, mutate func(*config.Config)) string {
	t.Helper()
	cfg := config.Defaults()
	if mutate != nil {
		mutate(cfg)
	}
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	srv := NewServer(cfg, gw, v, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, _ := json.Marshal(protocol.Envelope{Type: typ, Payload: raw})
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recv(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	env, err := protocol.DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func errorCode(t *testing.T, env protocol.Envelope) string {
	t.Helper()
	if env.Type != protocol.TypeError {
		t.Fatalf("expected error frame, got %q", env.Type)
	}
	var e protocol.Error
	if err := json.Unmarshal(env.Payload, &e); err != nil {
		t.Fatalf("error payload: %v", err)
	}
	return e.Code
}

func TestHandshakeRejectsWrongVersion(t *testing.T) {
	url := startServer(t, newFakeGateway(), nil)
	conn := dial(t, url)

	send(t, conn, protocol.TypeHello, protocol.Hello{ProtocolVersion: 99})
	if code := errorCode(t, recv(t, conn)); code != protocol.CodeBadVersion {
		t.Fatalf("code=%q", code)
	}
}

func TestHandshakeRequiresHelloFirst(t *testing.T) {
	url := startServer(t, newFakeGateway(), nil)
	conn := dial(t, url)

	send(t, conn, protocol.TypeCraft, protocol.CraftMsg{Recipe: "stone_axe"})
	if code := errorCode(t, recv(t, conn)); code != protocol.CodeBadRequest {
		t.Fatalf("code=%q", code)
	}
}

func TestJoinFailureReportsInternal(t *testing.T) {
	gw := newFakeGateway()
	gw.joinErr = errors.New("store down")
	url := startServer(t, gw, nil)
	conn := dial(t, url)

	send(t, conn, protocol.TypeHello, protocol.Hello{ProtocolVersion: config.Defaults().Server.ProtocolVersion})
	if code := errorCode(t, recv(t, conn)); code != protocol.CodeInternal {
		t.Fatalf("code=%q", code)
	}
}

func TestCommandsCarryWelcomedPlayerAndLeaveOnClose(t *testing.T) {
	gw := newFakeGateway()
	url := startServer(t, gw, nil)
	conn := dial(t, url)

	send(t, conn, protocol.TypeHello, protocol.Hello{ProtocolVersion: config.Defaults().Server.ProtocolVersion, Name: "ana"})
	if env := recv(t, conn); env.Type != protocol.TypeWelcome {
		t.Fatalf("first frame %q, want welcome", env.Type)
	}

	send(t, conn, protocol.TypeCraft, protocol.CraftMsg{Recipe: "stone_axe"})
	cmd := gw.next(t)
	if cmd.Kind != command.KindCraft || cmd.PlayerID != "p-ana" || cmd.Craft.Recipe != "stone_axe" {
		t.Fatalf("cmd=%+v", cmd)
	}

	conn.Close()
	leave := gw.next(t)
	if leave.Kind != command.KindLeave || leave.PlayerID != "p-ana" || leave.Leave.SessionID == "" {
		t.Fatalf("leave=%+v", leave)
	}
}

func TestInvalidPayloadAnsweredWithBadRequest(t *testing.T) {
	gw := newFakeGateway()
	url := startServer(t, gw, nil)
	conn := dial(t, url)

	send(t, conn, protocol.TypeHello, protocol.Hello{ProtocolVersion: config.Defaults().Server.ProtocolVersion, Name: "bo"})
	recv(t, conn)

	send(t, conn, protocol.TypeCraft, map[string]any{"recipe": ""})
	if code := errorCode(t, recv(t, conn)); code != protocol.CodeBadRequest {
		t.Fatalf("code=%q", code)
	}
	select {
	case cmd := <-gw.cmds:
		t.Fatalf("unexpected command %+v", cmd)
	default:
	}
}

func TestRateLimitedFramesAreRejected(t *testing.T) {
	gw := newFakeGateway()
	url := startServer(t, gw, func(c *config.Config) { c.Network.MessagesPerSecond = 1 })
	conn := dial(t, url)

	send(t, conn, protocol.TypeHello, protocol.Hello{ProtocolVersion: config.Defaults().Server.ProtocolVersion, Name: "cy"})
	recv(t, conn)

	send(t, conn, protocol.TypeSpawn, protocol.SpawnMsg{})
	send(t, conn, protocol.TypeSpawn, protocol.SpawnMsg{})
	if cmd := gw.next(t); cmd.Kind != command.KindSpawn {
		t.Fatalf("cmd=%+v", cmd)
	}
	if code := errorCode(t, recv(t, conn)); code != protocol.CodeRateLimited {
		t.Fatalf("code=%q", code)
	}
}

func TestSessionRevokedIsLastFrame(t *testing.T) {
	gw := newFakeGateway()
	url := startServer(t, gw, nil)
	conn := dial(t, url)

	send(t, conn, protocol.TypeHello, protocol.Hello{ProtocolVersion: config.Defaults().Server.ProtocolVersion, Name: "di"})
	recv(t, conn)

	sink := gw.sink()
	if !sink.Send(&protocol.SessionRevoked{Reason: "signed in elsewhere"}) {
		t.Fatalf("revoke not queued")
	}
	if sink.Send(&protocol.Notification{Text: "late"}) {
		t.Fatalf("send after revoke accepted")
	}
	if env := recv(t, conn); env.Type != protocol.TypeSessionRevoked {
		t.Fatalf("got %q", env.Type)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("connection still open after revoke")
	}
}
