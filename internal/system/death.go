package system

import (
	"time"

	coresys "github.com/wildhold/server/internal/core/system"
	"github.com/wildhold/server/internal/handler"
	"github.com/wildhold/server/internal/world"
)

// DeathSystem takes every spawned player at 0 HP out of play. Phase 7 (Death).
type DeathSystem struct {
	deps *handler.Deps
}

func NewDeathSystem(deps *handler.Deps) *DeathSystem {
	return &DeathSystem{deps: deps}
}

func (s *DeathSystem) Phase() coresys.Phase { return coresys.PhaseDeath }

func (s *DeathSystem) Update(_ time.Duration) {
	for _, p := range s.deps.World.Players() {
		if p.Spawned && p.Vitals.HP <= 0 {
			handler.Kill(s.deps, p, s.cause(p))
		}
	}
}

// cause names the most likely killer for the death notice.
func (s *DeathSystem) cause(p *world.PlayerState) string {
	cfg := s.deps.Config.Survival
	v := p.Vitals
	switch {
	case v.Hunger <= 0:
		return "starvation"
	case cfg.ThirstEnabled && v.Thirst <= 0:
		return "thirst"
	case v.Temperature <= cfg.FreezeThreshold:
		return "cold"
	case v.Temperature >= cfg.HeatThreshold:
		return "heat"
	default:
		return "wounds"
	}
}
