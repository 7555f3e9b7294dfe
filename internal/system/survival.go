package system

import (
	"math"
	"time"

	coresys "github.com/wildhold/server/internal/core/system"
	"github.com/wildhold/server/internal/handler"
	"github.com/wildhold/server/internal/world"
)

const (
	campfireSubtype = "campfire"
	campfireRadius  = 8.0
	campfireWarmth  = 25.0
)

// SurvivalSystem drains hunger and thirst, drifts temperature toward the
// biome's target and applies starvation, dehydration, exposure and regen.
// Vitals are clamped to [0, max] at the end. Phase 3 (Survival).
type SurvivalSystem struct {
	deps *handler.Deps
}

func NewSurvivalSystem(deps *handler.Deps) *SurvivalSystem {
	return &SurvivalSystem{deps: deps}
}

func (s *SurvivalSystem) Phase() coresys.Phase { return coresys.PhaseSurvival }

func (s *SurvivalSystem) Update(dt time.Duration) {
	cfg := s.deps.Config.Survival
	sec := dt.Seconds()
	for _, p := range s.deps.World.Players() {
		if !p.Spawned {
			continue
		}
		hungerMul, thirstMul, tempOffset := 1.0, 1.0, 0.0
		if ch := s.deps.World.Chunk(p.Chunk); ch != nil {
			if b := s.deps.Tables.Biomes.Get(ch.Biome); b != nil {
				if b.HungerMul > 0 {
					hungerMul = b.HungerMul
				}
				if b.ThirstMul > 0 {
					thirstMul = b.ThirstMul
				}
				tempOffset = b.TempOffset
			}
		}

		v := &p.Vitals
		v.Hunger -= cfg.HungerDecay * hungerMul * sec
		if cfg.ThirstEnabled {
			v.Thirst -= cfg.ThirstDecay * thirstMul * sec
		}
		target := cfg.NeutralTemperature + tempOffset + s.warmth(p)
		v.Temperature += (target - v.Temperature) * math.Min(1, cfg.TemperatureRate*sec)

		limits := p.Limits(s.deps.Limits())
		v.Clamp(limits)

		if v.Hunger <= 0 {
			v.HP -= cfg.StarvationDamage * sec
		}
		if cfg.ThirstEnabled && v.Thirst <= 0 {
			v.HP -= cfg.DehydrationDamage * sec
		}
		if v.Temperature <= cfg.FreezeThreshold || v.Temperature >= cfg.HeatThreshold {
			v.HP -= cfg.ExposureDamage * sec
		}
		if v.Hunger >= cfg.HealThreshold {
			v.HP += cfg.RegenRate * sec
		}
		v.Clamp(limits)
		p.Dirty = true
	}
}

// warmth is the heat from the nearest lit campfire, if any.
func (s *SurvivalSystem) warmth(p *world.PlayerState) float64 {
	ch := s.deps.World.Chunk(p.Chunk)
	if ch == nil {
		return 0
	}
	fire := ch.NearestOf(world.KindStructure, p.Pos, campfireRadius, func(e *world.Entity) bool {
		return e.Subtype == campfireSubtype
	})
	if fire == nil {
		return 0
	}
	return campfireWarmth
}
