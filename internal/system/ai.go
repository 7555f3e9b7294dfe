package system

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	coresys "github.com/wildhold/server/internal/core/system"
	"github.com/wildhold/server/internal/handler"
	"github.com/wildhold/server/internal/scripting"
	"github.com/wildhold/server/internal/world"
	"github.com/wildhold/server/internal/worldgen"
)

const (
	saltWander = 0x77616e646572 // "wander"

	idleChance        = 0.3
	defaultContactDmg = 5.0
)

type contactHit struct {
	mob    *world.Entity
	chunk  *world.Chunk
	player *world.PlayerState
}

// AISystem runs mobs in the active chunk set. Hostiles chase the nearest
// player within aggression range and hit on contact; everything else wanders.
// Mobs never leave their chunk and hostiles never step into a safe zone.
// Contact damage is applied in a second pass once every mob has moved.
// Phase 6 (AI).
type AISystem struct {
	deps *handler.Deps
	rng  *worldgen.Stream
	hits []contactHit
}

func NewAISystem(deps *handler.Deps, seed int64) *AISystem {
	return &AISystem{
		deps: deps,
		rng:  worldgen.NewStream(worldgen.Hash2(seed^saltWander, 0, 0)),
	}
}

func (s *AISystem) Phase() coresys.Phase { return coresys.PhaseAI }

func (s *AISystem) Update(dt time.Duration) {
	s.hits = s.hits[:0]
	for _, ch := range s.deps.World.ActiveChunks() {
		lo, hi := ch.Bounds(s.deps.World.ChunkSize())
		hi = mgl64.Vec2{math.Nextafter(hi[0], lo[0]), math.Nextafter(hi[1], lo[1])}
		for _, m := range ch.Entities(world.KindMob) {
			if m.ContactCD > 0 {
				m.ContactCD -= dt
			}
			if m.Hostile {
				if target := s.acquire(ch, m); target != nil {
					s.chase(ch, m, target, lo, hi, dt)
					continue
				}
			}
			m.Target = ""
			s.wander(ch, m, lo, hi, dt)
		}
	}
	for _, h := range s.hits {
		s.applyHit(h)
	}
	clear(s.hits)
}

// acquire picks the nearest spawned player outside safe zones within
// aggression range; ties go to the lower id.
func (s *AISystem) acquire(ch *world.Chunk, m *world.Entity) *world.PlayerState {
	var (
		best  *world.PlayerState
		bestD float64
	)
	for _, p := range s.deps.World.PlayersNear(ch.Coord, 1) {
		if s.deps.World.InSafeZone(p.Pos) {
			continue
		}
		d := world.Dist(m.Pos, p.Pos)
		if d <= s.deps.Config.AI.AggressionRange && (best == nil || d < bestD) {
			best, bestD = p, d
		}
	}
	return best
}

func (s *AISystem) chase(ch *world.Chunk, m *world.Entity, p *world.PlayerState, lo, hi mgl64.Vec2, dt time.Duration) {
	cfg := s.deps.Config.AI
	m.Target = p.ID
	if world.Dist(m.Pos, p.Pos) > cfg.ContactRange {
		next := world.ClampBox(world.Toward(m.Pos, p.Pos, cfg.MobSpeed*dt.Seconds()), lo, hi)
		if !s.deps.World.InSafeZone(next) {
			m.Pos = next
			ch.Dirty = true
		}
	}
	if world.Dist(m.Pos, p.Pos) <= cfg.ContactRange && m.ContactCD <= 0 {
		s.hits = append(s.hits, contactHit{mob: m, chunk: ch, player: p})
		m.ContactCD = cfg.ContactInterval
	}
}

func (s *AISystem) wander(ch *world.Chunk, m *world.Entity, lo, hi mgl64.Vec2, dt time.Duration) {
	cfg := s.deps.Config.AI
	m.WanderLeft -= dt
	if m.WanderLeft <= 0 {
		m.WanderLeft = cfg.WanderInterval
		if s.rng.Float64() < idleChance {
			m.Heading = mgl64.Vec2{}
		} else {
			a := s.rng.Angle()
			m.Heading = mgl64.Vec2{math.Cos(a), math.Sin(a)}
		}
	}
	if m.Heading.Len() == 0 {
		return
	}
	next := world.ClampBox(m.Pos.Add(m.Heading.Mul(cfg.WanderSpeed*dt.Seconds())), lo, hi)
	if m.Hostile && s.deps.World.InSafeZone(next) {
		m.Heading = mgl64.Vec2{}
		return
	}
	m.Pos = next
	ch.Dirty = true
}

func (s *AISystem) applyHit(h contactHit) {
	p := h.player
	if !p.Spawned || s.deps.World.InSafeZone(p.Pos) {
		return
	}
	base := defaultContactDmg
	if row := spawnRow(s.deps.Tables, h.chunk, h.mob); row != nil {
		base = row.Damage
	}
	p.Vitals.HP -= s.deps.Scripting.CalcMobAttack(scripting.MobAttackContext{
		MobLevel:    h.mob.Level,
		BaseDamage:  base,
		TargetLevel: p.Level,
	})
	p.Vitals.Clamp(p.Limits(s.deps.Limits()))
	p.Dirty = true
}
