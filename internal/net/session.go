package net

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wildhold/server/internal/protocol"
)

// frame is one encoded message waiting for the writer. last closes the
// connection once written.
type frame struct {
	data []byte
	last bool
}

// Session represents a single client connection. Network I/O runs in
// dedicated goroutines; the game loop only ever calls Send.
type Session struct {
	ID   string
	conn *websocket.Conn

	OutQueue chan frame

	IP string

	playerID    atomic.Pointer[string]
	welcomed    chan struct{}
	welcomeOnce sync.Once

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	revoked   atomic.Bool

	drops        atomic.Uint64
	limiter      *rate.Limiter
	writeTimeout time.Duration

	log *zap.Logger
}

func newSession(conn *websocket.Conn, id string, outSize, msgPerSec int, writeTimeout time.Duration, log *zap.Logger) *Session {
	if outSize < 1 {
		outSize = 1
	}
	limit, burst := rate.Inf, 0
	if msgPerSec > 0 {
		limit, burst = rate.Limit(msgPerSec), msgPerSec
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Session{
		ID:           id,
		conn:         conn,
		OutQueue:     make(chan frame, outSize),
		IP:           conn.RemoteAddr().String(),
		welcomed:     make(chan struct{}),
		closeCh:      make(chan struct{}),
		limiter:      rate.NewLimiter(limit, burst),
		writeTimeout: writeTimeout,
		log:          log.With(zap.String("session", id)),
	}
}

// Send implements protocol.Sink. It never blocks: a full OutQueue drops the
// message and counts it. The first welcome tells the session which player it
// speaks for; a sessionRevoked is the last message written before closing.
func (s *Session) Send(m protocol.Message) bool {
	if s.closed.Load() || s.revoked.Load() {
		return false
	}
	data, err := protocol.Encode(m)
	if err != nil {
		s.log.Error("訊息編碼失敗", zap.String("type", m.Type()), zap.Error(err))
		return false
	}

	switch msg := m.(type) {
	case *protocol.Welcome:
		s.welcomeOnce.Do(func() {
			id := msg.ID
			s.playerID.Store(&id)
			close(s.welcomed)
		})
	case *protocol.SessionRevoked:
		s.revoked.Store(true)
		return s.push(frame{data: data, last: true})
	}
	return s.push(frame{data: data})
}

// closeWith queues m as the final message. Later sends are refused.
func (s *Session) closeWith(m protocol.Message) {
	if s.closed.Load() || !s.revoked.CompareAndSwap(false, true) {
		return
	}
	data, err := protocol.Encode(m)
	if err != nil {
		s.Close()
		return
	}
	s.push(frame{data: data, last: true})
}

func (s *Session) push(f frame) bool {
	select {
	case s.OutQueue <- f:
		return true
	default:
		s.drops.Add(1)
		if f.last {
			s.Close()
		}
		return false
	}
}

// PlayerID is the player this session speaks for, empty before the welcome.
func (s *Session) PlayerID() string {
	if p := s.playerID.Load(); p != nil {
		return *p
	}
	return ""
}

// Welcomed is closed once the game loop has attached this session.
func (s *Session) Welcomed() <-chan struct{} {
	return s.welcomed
}

// Drops is the number of outbound messages lost to a full OutQueue.
func (s *Session) Drops() uint64 {
	return s.drops.Load()
}

// Allow consumes one inbound message from the rate limiter.
func (s *Session) Allow() bool {
	return s.limiter.Allow()
}

// Close shuts the connection down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		s.conn.Close()
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// writeLoop drains OutQueue onto the socket until the session closes.
func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case f := <-s.OutQueue:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, f.data); err != nil {
				if !s.closed.Load() {
					s.log.Debug("寫入錯誤", zap.Error(err))
				}
				return
			}
			if f.last {
				s.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session revoked"),
					time.Now().Add(time.Second))
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
