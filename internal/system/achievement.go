package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/wildhold/server/internal/core/event"
	coresys "github.com/wildhold/server/internal/core/system"
	"github.com/wildhold/server/internal/data"
	"github.com/wildhold/server/internal/handler"
	"github.com/wildhold/server/internal/protocol"
	"github.com/wildhold/server/internal/world"
)

// AchievementSystem unlocks every achievement whose stat threshold a player
// has reached. Each unlocks once and pays its xp and bonuses once.
// Phase 8 (Achievement).
type AchievementSystem struct {
	deps *handler.Deps
}

func NewAchievementSystem(deps *handler.Deps) *AchievementSystem {
	return &AchievementSystem{deps: deps}
}

func (s *AchievementSystem) Phase() coresys.Phase { return coresys.PhaseAchievement }

func (s *AchievementSystem) Update(_ time.Duration) {
	defs := s.deps.Tables.Achievements.All()
	for _, p := range s.deps.World.Players() {
		for _, a := range defs {
			if p.Achievements[a.ID] {
				continue
			}
			if v, ok := p.Stats.Get(a.Stat); ok && v >= a.Threshold {
				s.unlock(p, a)
			}
		}
	}
}

func (s *AchievementSystem) unlock(p *world.PlayerState, a *data.Achievement) {
	if p.Achievements == nil {
		p.Achievements = make(map[string]bool)
	}
	p.Achievements[a.ID] = true
	for _, b := range a.Bonuses {
		p.AddBonus(b.Stat, b.Add, b.Mul)
	}
	p.Dirty = true
	handler.GrantXP(s.deps, p, a.XP)
	s.deps.Outbox.Send(p.ID, &protocol.Achievement{ID: a.ID, Name: a.Name})
	event.Emit(s.deps.Bus, event.AchievementUnlocked{PlayerID: p.ID, AchievementID: a.ID})
	s.deps.Log.Info("成就解鎖", zap.String("player", p.ID), zap.String("achievement", a.ID))
}
