package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/wildhold/server/internal/core/system"
	"github.com/wildhold/server/internal/handler"
	"github.com/wildhold/server/internal/world"
)

// BarrierSystem removes every hostile mob standing inside a settlement's safe
// radius and queues it to respawn elsewhere. Phase 4 (Barrier).
type BarrierSystem struct {
	deps *handler.Deps
}

func NewBarrierSystem(deps *handler.Deps) *BarrierSystem {
	return &BarrierSystem{deps: deps}
}

func (s *BarrierSystem) Phase() coresys.Phase { return coresys.PhaseBarrier }

func (s *BarrierSystem) Update(_ time.Duration) {
	for _, st := range s.deps.World.Settlements() {
		purged := 0
		for _, c := range s.deps.World.ChunksCovering(st.Pos, st.SafeRadius()) {
			ch := s.deps.World.Chunk(c)
			if ch == nil {
				continue
			}
			for _, m := range ch.Entities(world.KindMob) {
				if !m.Hostile || !st.Contains(m.Pos) {
					continue
				}
				ch.Remove(world.KindMob, m.ID)
				ch.EnqueueRespawn(m, respawnCooldown(s.deps.Tables, ch, m))
				purged++
			}
		}
		if purged > 0 {
			s.deps.Log.Debug("結界驅逐敵對生物", zap.String("settlement", st.ID), zap.Int("count", purged))
		}
	}
}
