package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/protocol"
	"github.com/wildhold/server/internal/world"
)

// Gate is the player state a command requires before its handler runs.
type Gate int

const (
	GateNone    Gate = iota // no player needed (join)
	GateOnline              // player must be attached
	GateSpawned             // player must be in play
)

func (g Gate) String() string {
	switch g {
	case GateNone:
		return "None"
	case GateOnline:
		return "Online"
	case GateSpawned:
		return "Spawned"
	default:
		return fmt.Sprintf("Unknown(%d)", int(g))
	}
}

// HandlerFunc is the callback signature for command handlers.
type HandlerFunc func(cmd command.Command)

type handlerEntry struct {
	fn   HandlerFunc
	gate Gate
}

// Registry maps command kinds to handlers with state-based access control.
type Registry struct {
	handlers map[command.Kind]*handlerEntry
	world    *world.State
	outbox   *Outbox
	log      *zap.Logger
}

func NewRegistry(ws *world.State, outbox *Outbox, log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[command.Kind]*handlerEntry),
		world:    ws,
		outbox:   outbox,
		log:      log,
	}
}

// Register maps a command kind to a handler guarded by gate.
func (reg *Registry) Register(kind command.Kind, gate Gate, fn HandlerFunc) {
	reg.handlers[kind] = &handlerEntry{fn: fn, gate: gate}
}

// Dispatch validates the player's state and calls the handler. Commands for
// players that are gone are dropped silently; commands that need a spawned
// player get a not_spawned error back.
func (reg *Registry) Dispatch(cmd command.Command) error {
	entry, ok := reg.handlers[cmd.Kind]
	if !ok {
		reg.log.Debug("未知指令", zap.String("kind", string(cmd.Kind)), zap.String("player", cmd.PlayerID))
		return nil
	}

	if entry.gate != GateNone {
		p := reg.world.Player(cmd.PlayerID)
		if p == nil {
			reg.log.Debug("指令對象不在線上", zap.String("kind", string(cmd.Kind)), zap.String("player", cmd.PlayerID))
			return nil
		}
		if entry.gate == GateSpawned && !p.Spawned {
			reg.outbox.Send(p.ID, protocol.NewError(protocol.CodeNotSpawned, "spawn first"))
			return nil
		}
	}

	return reg.safeCall(entry.fn, cmd)
}

// safeCall executes a handler with panic recovery to prevent a single
// bad command from crashing the entire game loop.
func (reg *Registry) safeCall(fn HandlerFunc, cmd command.Command) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("處理器 panic 已恢復",
				zap.String("kind", string(cmd.Kind)),
				zap.String("player", cmd.PlayerID),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for %s: %v", cmd.Kind, rec)
		}
	}()
	fn(cmd)
	return nil
}
