package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/wildhold/server/internal/command"
	coresys "github.com/wildhold/server/internal/core/system"
	"github.com/wildhold/server/internal/handler"
)

// InputSystem drains the command queue and dispatches every command through
// the handler registry in arrival order. Phase 0 (Input).
type InputSystem struct {
	queue    *command.Queue
	registry *handler.Registry
	log      *zap.Logger
}

func NewInputSystem(queue *command.Queue, registry *handler.Registry, log *zap.Logger) *InputSystem {
	return &InputSystem{queue: queue, registry: registry, log: log}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for _, cmd := range s.queue.Drain() {
		if err := s.registry.Dispatch(cmd); err != nil {
			s.log.Warn("指令分派錯誤",
				zap.String("kind", string(cmd.Kind)),
				zap.String("player", cmd.PlayerID),
				zap.Error(err),
			)
		}
	}
}
