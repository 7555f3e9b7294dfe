// Package net is the websocket transport. It turns client frames into
// commands for the game loop and drains each session's outbound queue. It
// never touches world state.
package net

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/config"
	"github.com/wildhold/server/internal/protocol"
)

const (
	helloTimeout   = 5 * time.Second
	joinTimeout    = 5 * time.Second
	welcomeTimeout = 10 * time.Second
)

// Gateway is the game loop as seen from the transport.
type Gateway interface {
	// Join resolves the hello off the loop and stages a join for sessionID.
	// The loop answers through sink with a welcome.
	Join(ctx context.Context, sessionID string, hello protocol.Hello, sink protocol.Sink) error
	Enqueue(cmd command.Command) command.Result
}

// Server accepts websocket upgrades on /ws and runs one Session per client.
type Server struct {
	cfg             config.NetworkConfig
	protocolVersion int
	gateway         Gateway
	validator       *protocol.Validator
	upgrader        websocket.Upgrader
	log             *zap.Logger

	listener net.Listener
	http     *http.Server

	mu       sync.Mutex
	sessions map[string]*Session
	closing  bool
}

func NewServer(cfg *config.Config, gw Gateway, v *protocol.Validator, log *zap.Logger) *Server {
	s := &Server{
		cfg:             cfg.Network,
		protocolVersion: cfg.Server.ProtocolVersion,
		gateway:         gw,
		validator:       v,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:      log,
		sessions: make(map[string]*Session),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	s.http = &http.Server{Handler: mux, ReadHeaderTimeout: helloTimeout}
	return s
}

// Handler exposes the /ws route, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Listen binds the configured address and serves in the background.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.BindAddress)
	if err != nil {
		return err
	}
	s.listener = ln
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("連線接受失敗", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting new connections and closes every live session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	live := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		live = append(live, sess)
	}
	s.mu.Unlock()

	err := s.http.Shutdown(ctx)
	for _, sess := range live {
		sess.Close()
	}
	return err
}

// SessionCount is the number of live sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) track(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.sessions[sess.ID] = sess
	return true
}

func (s *Server) untrack(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()
}

func (s *Server) serveWS(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	if s.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(s.cfg.MaxMessageBytes)
	}

	hello, ok := s.handshake(conn)
	if !ok {
		conn.Close()
		return
	}

	sess := newSession(conn, uuid.NewString(), s.cfg.OutQueueSize, s.cfg.MessagesPerSecond, s.cfg.WriteTimeout, s.log)
	if !s.track(sess) {
		conn.Close()
		return
	}
	defer s.untrack(sess)
	defer sess.Close()

	s.log.Info("玩家連線", zap.String("session", sess.ID), zap.String("ip", sess.IP))
	go sess.writeLoop()

	ctx, cancel := context.WithTimeout(r.Context(), joinTimeout)
	err = s.gateway.Join(ctx, sess.ID, hello, sess)
	cancel()
	if err != nil {
		s.log.Warn("加入失敗", zap.String("session", sess.ID), zap.Error(err))
		sess.closeWith(protocol.NewError(protocol.CodeInternal, "could not resolve player"))
		<-sess.closeCh
		return
	}

	defer func() {
		s.gateway.Enqueue(command.Command{
			Kind:     command.KindLeave,
			PlayerID: sess.PlayerID(),
			Leave:    &command.LeaveCommand{SessionID: sess.ID},
		})
		s.log.Info("玩家斷線",
			zap.String("session", sess.ID),
			zap.String("player", sess.PlayerID()),
			zap.Uint64("dropped", sess.Drops()),
		)
	}()

	select {
	case <-sess.Welcomed():
	case <-sess.closeCh:
		return
	case <-time.After(welcomeTimeout):
		s.log.Warn("等待歡迎訊息逾時", zap.String("session", sess.ID))
		return
	}

	s.readLoop(sess)
}

// handshake reads and checks the hello frame. Rejections are answered with
// an error frame written directly, before any writer goroutine exists.
func (s *Server) handshake(conn *websocket.Conn) (protocol.Hello, bool) {
	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return protocol.Hello{}, false
	}

	env, err := protocol.DecodeEnvelope(msg)
	if err != nil || env.Type != protocol.TypeHello {
		writeError(conn, protocol.CodeBadRequest, "expected hello")
		return protocol.Hello{}, false
	}
	if err := s.validator.Validate(env.Type, env.Payload); err != nil {
		writeError(conn, protocol.CodeBadRequest, err.Error())
		return protocol.Hello{}, false
	}

	var hello protocol.Hello
	if err := json.Unmarshal(env.Payload, &hello); err != nil {
		writeError(conn, protocol.CodeBadRequest, err.Error())
		return protocol.Hello{}, false
	}
	if hello.ProtocolVersion != s.protocolVersion {
		writeError(conn, protocol.CodeBadVersion, "unsupported protocol version")
		return protocol.Hello{}, false
	}
	return hello, true
}

// readLoop validates, rate limits and enqueues frames until the connection
// drops. Rejected frames are answered with an error and skipped.
func (s *Server) readLoop(sess *Session) {
	playerID := sess.PlayerID()
	for {
		if s.cfg.ReadTimeout > 0 {
			sess.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		}
		_, msg, err := sess.conn.ReadMessage()
		if err != nil {
			if !sess.IsClosed() {
				sess.log.Debug("讀取錯誤", zap.Error(err))
			}
			return
		}

		if !sess.Allow() {
			sess.Send(protocol.NewError(protocol.CodeRateLimited, "too many messages"))
			continue
		}

		env, err := protocol.DecodeEnvelope(msg)
		if err != nil {
			sess.Send(protocol.NewError(protocol.CodeBadRequest, err.Error()))
			continue
		}
		if err := s.validator.Validate(env.Type, env.Payload); err != nil {
			sess.Send(protocol.NewError(protocol.CodeBadRequest, err.Error()))
			continue
		}
		if env.Type == protocol.TypeHello {
			sess.Send(protocol.NewError(protocol.CodeBadRequest, "already joined"))
			continue
		}
		cmd, err := decodeCommand(env, playerID)
		if err != nil {
			sess.Send(protocol.NewError(protocol.CodeBadRequest, err.Error()))
			continue
		}
		if s.gateway.Enqueue(cmd) == command.ResultDropped {
			sess.log.Debug("指令佇列已滿，丟棄最舊指令", zap.String("kind", string(cmd.Kind)))
		}
	}
}

func writeError(conn *websocket.Conn, code, message string) {
	b, err := protocol.Encode(protocol.NewError(code, message))
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, code),
		time.Now().Add(time.Second))
}
