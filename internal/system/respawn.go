package system

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	coresys "github.com/wildhold/server/internal/core/system"
	"github.com/wildhold/server/internal/handler"
	"github.com/wildhold/server/internal/world"
	"github.com/wildhold/server/internal/worldgen"
)

// RespawnSystem counts down every loaded chunk's respawn queue and brings
// entries back at a fresh position once their cooldown runs out. Hostile mobs
// never come back inside a safe zone. Phase 5 (Spawn).
type RespawnSystem struct {
	deps *handler.Deps
	gen  worldgen.Config
}

func NewRespawnSystem(deps *handler.Deps, gen worldgen.Config) *RespawnSystem {
	return &RespawnSystem{deps: deps, gen: gen}
}

func (s *RespawnSystem) Phase() coresys.Phase { return coresys.PhaseSpawn }

func (s *RespawnSystem) Update(dt time.Duration) {
	for _, ch := range s.deps.World.Chunks() {
		if len(ch.RespawnQueue) > 0 {
			s.tickChunk(ch, dt)
		}
	}
}

func (s *RespawnSystem) tickChunk(ch *world.Chunk, dt time.Duration) {
	kept := ch.RespawnQueue[:0]
	for _, r := range ch.RespawnQueue {
		if r.Fresh {
			r.Fresh = false
			kept = append(kept, r)
			continue
		}
		r.Remaining -= dt
		if r.Remaining > 0 {
			kept = append(kept, r)
			continue
		}
		var avoid func(mgl64.Vec2) bool
		if r.Prior.Hostile {
			avoid = s.deps.World.InSafeZone
		}
		pos, ok := worldgen.RespawnPosition(s.gen, ch, avoid)
		if !ok {
			// Chunk is inside a barrier: try again after another cooldown.
			r.Remaining = respawnCooldown(s.deps.Tables, ch, &r.Prior)
			kept = append(kept, r)
			continue
		}
		e := r.Prior
		e.ID = ch.NextID(e.Kind)
		e.Pos = pos
		e.HP = e.MaxHP
		ch.Insert(&e)
	}
	clear(ch.RespawnQueue[len(kept):])
	ch.RespawnQueue = kept
	ch.Dirty = true
}
