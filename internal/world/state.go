package world

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Generator builds the initial contents of a chunk. It must be a pure function
// of the coordinate (plus whatever immutable config it closed over).
type Generator func(ChunkCoord) *Chunk

// State is the canonical world: chunk map, player map, settlement map.
// Single-goroutine access only (game loop).
type State struct {
	chunkSize   float64
	worldRadius int
	gen         Generator

	chunks      map[ChunkCoord]*Chunk
	players     map[string]*PlayerState
	settlements map[string]*Settlement
	grid        *PlayerGrid

	// active is the union of every spawned player's simulation square as of
	// the last interest pass.
	active map[ChunkCoord]struct{}

	generated int
}

func NewState(chunkSize float64, worldRadius int, gen Generator) *State {
	return &State{
		chunkSize:   chunkSize,
		worldRadius: worldRadius,
		gen:         gen,
		chunks:      make(map[ChunkCoord]*Chunk),
		players:     make(map[string]*PlayerState),
		settlements: make(map[string]*Settlement),
		grid:        NewPlayerGrid(),
		active:      make(map[ChunkCoord]struct{}),
	}
}

func (s *State) ChunkSize() float64 { return s.chunkSize }

// ---------- Chunks ----------

// InBounds reports whether a chunk coordinate lies inside the world.
func (s *State) InBounds(c ChunkCoord) bool {
	if s.worldRadius <= 0 {
		return true
	}
	r := int32(s.worldRadius)
	return c.X >= -r && c.X < r && c.Y >= -r && c.Y < r
}

// Bounds returns the world-space corners of the playable area.
func (s *State) Bounds() (min, max mgl64.Vec2) {
	if s.worldRadius <= 0 {
		inf := math.Inf(1)
		return mgl64.Vec2{-inf, -inf}, mgl64.Vec2{inf, inf}
	}
	e := float64(s.worldRadius) * s.chunkSize
	// Keep max strictly inside the last chunk so ChunkOf never lands outside.
	return mgl64.Vec2{-e, -e}, mgl64.Vec2{math.Nextafter(e, 0), math.Nextafter(e, 0)}
}

// Chunk returns a loaded chunk or nil.
func (s *State) Chunk(c ChunkCoord) *Chunk {
	return s.chunks[c]
}

// EnsureChunk returns the chunk at c, generating it on first use. A coordinate
// is generated at most once per process lifetime. created reports whether
// this call generated it.
func (s *State) EnsureChunk(c ChunkCoord) (ch *Chunk, created bool) {
	if ch = s.chunks[c]; ch != nil {
		return ch, false
	}
	if s.gen == nil {
		ch = NewChunk(c, "")
	} else {
		ch = s.gen(c)
	}
	s.chunks[c] = ch
	s.generated++
	return ch, true
}

// LoadChunk installs a chunk restored from storage. An already-present chunk
// wins so restored state never clobbers live state.
func (s *State) LoadChunk(ch *Chunk) bool {
	if _, ok := s.chunks[ch.Coord]; ok {
		return false
	}
	s.chunks[ch.Coord] = ch
	return true
}

// Generated is how many chunks the generator has produced.
func (s *State) Generated() int { return s.generated }

// ChunkCount is how many chunks are loaded.
func (s *State) ChunkCount() int { return len(s.chunks) }

// Chunks returns every loaded chunk in coordinate order.
func (s *State) Chunks() []*Chunk {
	out := make([]*Chunk, 0, len(s.chunks))
	for _, ch := range s.chunks {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Coord.Less(out[j].Coord) })
	return out
}

// SetActive replaces the active simulation set.
func (s *State) SetActive(set map[ChunkCoord]struct{}) {
	s.active = set
}

// IsActive reports whether c was inside some player's simulation radius as of
// the last interest pass.
func (s *State) IsActive(c ChunkCoord) bool {
	_, ok := s.active[c]
	return ok
}

// ActiveChunks returns the loaded chunks of the active set in coordinate order.
func (s *State) ActiveChunks() []*Chunk {
	out := make([]*Chunk, 0, len(s.active))
	for c := range s.active {
		if ch := s.chunks[c]; ch != nil {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Coord.Less(out[j].Coord) })
	return out
}

// ---------- Players ----------

// AddPlayer registers a player in the world. Spawned players also enter the
// player grid.
func (s *State) AddPlayer(p *PlayerState) {
	s.players[p.ID] = p
	p.Chunk = ChunkOf(p.Pos, s.chunkSize)
	if p.Spawned {
		s.grid.Add(p.ID, p.Chunk)
	}
}

// RemovePlayer removes a player from the world.
func (s *State) RemovePlayer(id string) *PlayerState {
	p, ok := s.players[id]
	if !ok {
		return nil
	}
	if p.Spawned {
		s.grid.Remove(id, p.Chunk)
	}
	delete(s.players, id)
	return p
}

// Player returns a player by id, or nil.
func (s *State) Player(id string) *PlayerState {
	return s.players[id]
}

// PlayerCount is the number of online players.
func (s *State) PlayerCount() int { return len(s.players) }

// Players returns every online player sorted by id.
func (s *State) Players() []*PlayerState {
	out := make([]*PlayerState, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Spawn puts a player into play at pos.
func (s *State) Spawn(p *PlayerState, pos mgl64.Vec2) {
	if p.Spawned {
		s.grid.Remove(p.ID, p.Chunk)
	}
	p.Pos = pos
	p.Chunk = ChunkOf(pos, s.chunkSize)
	p.Spawned = true
	p.Dirty = true
	s.grid.Add(p.ID, p.Chunk)
}

// Unspawn takes a player out of play. The player stays online.
func (s *State) Unspawn(p *PlayerState) {
	if !p.Spawned {
		return
	}
	s.grid.Remove(p.ID, p.Chunk)
	p.Spawned = false
	p.Input = InputState{}
	p.Dirty = true
}

// MovePlayer sets a new position clamped to world bounds and keeps the
// derived chunk and player grid in sync.
func (s *State) MovePlayer(p *PlayerState, pos mgl64.Vec2) {
	lo, hi := s.Bounds()
	pos = ClampBox(pos, lo, hi)
	old := p.Chunk
	p.Pos = pos
	p.Chunk = ChunkOf(pos, s.chunkSize)
	p.Dirty = true
	if p.Spawned {
		s.grid.Move(p.ID, old, p.Chunk)
	}
}

// PlayersInChunk returns the spawned players standing in c, sorted by id.
func (s *State) PlayersInChunk(c ChunkCoord) []*PlayerState {
	ids := s.grid.In(c)
	out := make([]*PlayerState, 0, len(ids))
	for _, id := range ids {
		if p := s.players[id]; p != nil {
			out = append(out, p)
		}
	}
	return out
}

// PlayersNear returns the spawned players in the (2r+1)^2 chunk neighbourhood
// of c, sorted by id.
func (s *State) PlayersNear(c ChunkCoord, r int) []*PlayerState {
	ids := s.grid.Nearby(c, r)
	out := make([]*PlayerState, 0, len(ids))
	for _, id := range ids {
		if p := s.players[id]; p != nil {
			out = append(out, p)
		}
	}
	return out
}

// ---------- Settlements ----------

// AddSettlement registers (or replaces) a settlement.
func (s *State) AddSettlement(st *Settlement) {
	s.settlements[st.ID] = st
}

// Settlement returns a settlement by id, or nil.
func (s *State) Settlement(id string) *Settlement {
	return s.settlements[id]
}

// Settlements returns every settlement sorted by id.
func (s *State) Settlements() []*Settlement {
	out := make([]*Settlement, 0, len(s.settlements))
	for _, st := range s.settlements {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InSafeZone reports whether pos is inside any settlement's safe radius.
func (s *State) InSafeZone(pos mgl64.Vec2) bool {
	for _, st := range s.settlements {
		if st.Contains(pos) {
			return true
		}
	}
	return false
}

// NearestSettlement returns the settlement closest to pos, ties by id.
func (s *State) NearestSettlement(pos mgl64.Vec2) *Settlement {
	var best *Settlement
	bestD := math.Inf(1)
	for _, st := range s.Settlements() {
		if d := Dist(pos, st.Pos); d < bestD {
			best, bestD = st, d
		}
	}
	return best
}

// ChunksCovering returns the coordinates of every chunk that intersects the
// circle (center, radius).
func (s *State) ChunksCovering(center mgl64.Vec2, radius float64) []ChunkCoord {
	lo := ChunkOf(mgl64.Vec2{center[0] - radius, center[1] - radius}, s.chunkSize)
	hi := ChunkOf(mgl64.Vec2{center[0] + radius, center[1] + radius}, s.chunkSize)
	out := make([]ChunkCoord, 0, int(hi.X-lo.X+1)*int(hi.Y-lo.Y+1))
	for y := lo.Y; y <= hi.Y; y++ {
		for x := lo.X; x <= hi.X; x++ {
			out = append(out, ChunkCoord{X: x, Y: y})
		}
	}
	return out
}
