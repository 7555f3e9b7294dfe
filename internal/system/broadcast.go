package system

import (
	"time"

	coresys "github.com/wildhold/server/internal/core/system"
	"github.com/wildhold/server/internal/handler"
	"github.com/wildhold/server/internal/protocol"
	"github.com/wildhold/server/internal/world"
)

// BroadcastSystem sends each spawned player one entityDelta per chunk in
// their view, and every online player a private playerUpdate every
// PrivateEveryTicks ticks. Phase 10 (Output).
type BroadcastSystem struct {
	deps *handler.Deps
	tick uint64

	// players seen per viewed chunk last tick, to report the ones that left
	lastPlayers map[world.ChunkCoord]map[string]struct{}
}

func NewBroadcastSystem(deps *handler.Deps) *BroadcastSystem {
	return &BroadcastSystem{
		deps:        deps,
		lastPlayers: make(map[world.ChunkCoord]map[string]struct{}),
	}
}

func (s *BroadcastSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

type chunkFrame struct {
	updates []protocol.EntityView
	removes []string
}

func (s *BroadcastSystem) Update(_ time.Duration) {
	s.tick++
	players := s.deps.World.Players()

	viewed := make(map[world.ChunkCoord]struct{})
	for _, p := range players {
		for c := range p.ActiveView {
			viewed[c] = struct{}{}
		}
	}
	frames := make(map[world.ChunkCoord]*chunkFrame, len(viewed))
	nowPlayers := make(map[world.ChunkCoord]map[string]struct{}, len(viewed))
	for c := range viewed {
		f := &chunkFrame{}
		if ch := s.deps.World.Chunk(c); ch != nil {
			f.updates = chunkViews(s.deps, ch)
			f.removes = ch.TakeRemoved()
		}
		present := make(map[string]struct{})
		for _, p := range s.deps.World.PlayersInChunk(c) {
			present[p.ID] = struct{}{}
		}
		for id := range s.lastPlayers[c] {
			if _, ok := present[id]; !ok {
				f.removes = append(f.removes, id)
			}
		}
		nowPlayers[c] = present
		frames[c] = f
	}
	s.lastPlayers = nowPlayers

	private := s.tick%uint64(max(1, s.deps.Config.Broadcast.PrivateEveryTicks)) == 0
	for _, p := range players {
		if p.Spawned {
			coords := make([]world.ChunkCoord, 0, len(p.ActiveView))
			for c := range p.ActiveView {
				coords = append(coords, c)
			}
			world.SortCoords(coords)
			for _, c := range coords {
				f := frames[c]
				s.deps.Outbox.Send(p.ID, &protocol.EntityDelta{
					Chunk:   protocol.CoordOf(c),
					Updates: f.updates,
					Removes: f.removes,
				})
			}
		}
		if private {
			s.deps.Outbox.Send(p.ID, handler.PlayerUpdateFor(s.deps, p))
		}
	}
}
