package system

import (
	"time"

	coresys "github.com/wildhold/server/internal/core/system"
	"github.com/wildhold/server/internal/handler"
	"github.com/wildhold/server/internal/protocol"
	"github.com/wildhold/server/internal/world"
)

// InterestSystem 計算每位玩家的視野方塊，送出 chunkRemove / chunkAdd 差異，
// 並重建模擬中的 active chunk 集合。未出生的玩家視野為空。
// Chunks are generated lazily the first time anyone needs them.
// Phase 9 (Interest).
type InterestSystem struct {
	deps *handler.Deps
}

func NewInterestSystem(deps *handler.Deps) *InterestSystem {
	return &InterestSystem{deps: deps}
}

func (s *InterestSystem) Phase() coresys.Phase { return coresys.PhaseInterest }

func (s *InterestSystem) Update(_ time.Duration) {
	cfg := s.deps.Config.World
	ws := s.deps.World
	active := make(map[world.ChunkCoord]struct{})

	for _, p := range ws.Players() {
		desired := make(map[world.ChunkCoord]struct{})
		if p.Spawned {
			for _, c := range world.Square(p.Chunk, cfg.ViewRadius) {
				if ws.InBounds(c) {
					desired[c] = struct{}{}
				}
			}
			for _, c := range world.Square(p.Chunk, cfg.SimRadius) {
				if ws.InBounds(c) {
					active[c] = struct{}{}
				}
			}
		}
		if p.ActiveView == nil {
			p.ActiveView = make(map[world.ChunkCoord]struct{})
		}
		s.diff(p, desired)
	}

	for c := range active {
		ws.EnsureChunk(c)
	}
	ws.SetActive(active)
}

// diff sends one chunkRemove per chunk leaving the view, then one chunkAdd
// per chunk entering it, each in coordinate order.
func (s *InterestSystem) diff(p *world.PlayerState, desired map[world.ChunkCoord]struct{}) {
	var leaving, entering []world.ChunkCoord
	for c := range p.ActiveView {
		if _, ok := desired[c]; !ok {
			leaving = append(leaving, c)
		}
	}
	for c := range desired {
		if _, ok := p.ActiveView[c]; !ok {
			entering = append(entering, c)
		}
	}
	world.SortCoords(leaving)
	world.SortCoords(entering)

	for _, c := range leaving {
		delete(p.ActiveView, c)
		s.deps.Outbox.Send(p.ID, &protocol.ChunkRemove{Coord: protocol.CoordOf(c)})
	}
	for _, c := range entering {
		ch, _ := s.deps.World.EnsureChunk(c)
		p.ActiveView[c] = struct{}{}
		s.deps.Outbox.Send(p.ID, &protocol.ChunkAdd{
			Coord:    protocol.CoordOf(c),
			Biome:    ch.Biome,
			Entities: chunkViews(s.deps, ch),
		})
	}
}

// chunkViews renders every entity and spawned player in ch.
func chunkViews(deps *handler.Deps, ch *world.Chunk) []protocol.EntityView {
	all := ch.All()
	players := deps.World.PlayersInChunk(ch.Coord)
	out := make([]protocol.EntityView, 0, len(all)+len(players))
	for _, e := range all {
		out = append(out, protocol.EntityOf(e))
	}
	base := deps.Limits()
	for _, p := range players {
		out = append(out, protocol.PlayerOf(p, p.Limits(base).MaxHP))
	}
	return out
}
