package handler

import (
	"github.com/wildhold/server/internal/protocol"
)

type outboxEntry struct {
	sessionID string
	sink      protocol.Sink
}

// Outbox routes messages to each online player's current session. Only the
// newest session of a player is attached. Game loop only.
type Outbox struct {
	sessions map[string]outboxEntry
	drops    uint64
}

func NewOutbox() *Outbox {
	return &Outbox{sessions: make(map[string]outboxEntry)}
}

// Attach binds playerID to a session and returns the sink it replaced, if any.
func (o *Outbox) Attach(playerID, sessionID string, sink protocol.Sink) protocol.Sink {
	prev := o.sessions[playerID]
	o.sessions[playerID] = outboxEntry{sessionID: sessionID, sink: sink}
	return prev.sink
}

// Detach unbinds playerID only while sessionID is still the current session.
func (o *Outbox) Detach(playerID, sessionID string) bool {
	cur, ok := o.sessions[playerID]
	if !ok || cur.sessionID != sessionID {
		return false
	}
	delete(o.sessions, playerID)
	return true
}

// Session returns the current session id of playerID.
func (o *Outbox) Session(playerID string) (string, bool) {
	cur, ok := o.sessions[playerID]
	return cur.sessionID, ok
}

// Send hands m to the player's sink. False when the player has no session or
// the sink dropped the message.
func (o *Outbox) Send(playerID string, m protocol.Message) bool {
	cur, ok := o.sessions[playerID]
	if !ok || cur.sink == nil {
		return false
	}
	if !cur.sink.Send(m) {
		o.drops++
		return false
	}
	return true
}

// Drops is how many sends a full sink refused.
func (o *Outbox) Drops() uint64 { return o.drops }
