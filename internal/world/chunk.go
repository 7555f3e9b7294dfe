package world

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// RespawnEntry is a depleted entity waiting out its cooldown.
type RespawnEntry struct {
	Remaining time.Duration `msgpack:"remaining"`
	Prior     Entity        `msgpack:"prior"`
	// Fresh entries were queued during the current tick and are not counted
	// down until the next one.
	Fresh bool `msgpack:"-"`
}

// Chunk owns every entity inside one grid cell. Created lazily on first
// interest and kept for the lifetime of the process.
// Accessed only from the game loop goroutine.
type Chunk struct {
	Coord ChunkCoord
	Biome string

	Resources  map[string]*Entity
	Mobs       map[string]*Entity
	Structures map[string]*Entity
	NPCs       map[string]*Entity

	RespawnQueue []RespawnEntry

	// Dirty marks unsaved mutation since the last checkpoint.
	Dirty bool
	// Seq is the next entity sequence number; ids stay unique per chunk.
	Seq uint32

	removed []string // ids removed since the last TakeRemoved
}

func NewChunk(coord ChunkCoord, biome string) *Chunk {
	return &Chunk{
		Coord:      coord,
		Biome:      biome,
		Resources:  make(map[string]*Entity),
		Mobs:       make(map[string]*Entity),
		Structures: make(map[string]*Entity),
		NPCs:       make(map[string]*Entity),
	}
}

func (c *Chunk) bucket(kind EntityKind) map[string]*Entity {
	switch kind {
	case KindResource:
		return c.Resources
	case KindMob:
		return c.Mobs
	case KindStructure:
		return c.Structures
	case KindNPC:
		return c.NPCs
	default:
		return nil
	}
}

// NextID allocates a chunk-unique entity id. Ids depend only on coordinate,
// kind and allocation order, so generation stays deterministic.
func (c *Chunk) NextID(kind EntityKind) string {
	id := fmt.Sprintf("%s:%d:%d:%d", kind.idPrefix(), c.Coord.X, c.Coord.Y, c.Seq)
	c.Seq++
	return id
}

// Insert adds an entity to the map matching its kind.
func (c *Chunk) Insert(e *Entity) {
	m := c.bucket(e.Kind)
	if m == nil {
		return
	}
	m[e.ID] = e
	c.Dirty = true
}

// Get looks up an entity by kind and id.
func (c *Chunk) Get(kind EntityKind, id string) *Entity {
	return c.bucket(kind)[id]
}

// Remove deletes an entity and records its id for the next entity delta.
func (c *Chunk) Remove(kind EntityKind, id string) *Entity {
	m := c.bucket(kind)
	e, ok := m[id]
	if !ok {
		return nil
	}
	delete(m, id)
	c.removed = append(c.removed, id)
	c.Dirty = true
	return e
}

// EnqueueRespawn schedules a copy of e to reappear after cooldown.
func (c *Chunk) EnqueueRespawn(e *Entity, cooldown time.Duration) {
	prior := *e
	prior.Target = ""
	prior.Heading = mgl64.Vec2{}
	prior.WanderLeft = 0
	prior.ContactCD = 0
	c.RespawnQueue = append(c.RespawnQueue, RespawnEntry{Remaining: cooldown, Prior: prior, Fresh: true})
	c.Dirty = true
}

// TakeRemoved returns and clears the ids removed since the previous call.
func (c *Chunk) TakeRemoved() []string {
	if len(c.removed) == 0 {
		return nil
	}
	out := c.removed
	c.removed = nil
	return out
}

// Entities returns the entities of one kind sorted by id.
func (c *Chunk) Entities(kind EntityKind) []*Entity {
	return sortedEntities(c.bucket(kind))
}

// All returns every entity in the chunk: resources, mobs, structures, npcs,
// each group sorted by id.
func (c *Chunk) All() []*Entity {
	out := make([]*Entity, 0, c.Count())
	for _, k := range []EntityKind{KindResource, KindMob, KindStructure, KindNPC} {
		out = append(out, c.Entities(k)...)
	}
	return out
}

// Count is the total number of live entities.
func (c *Chunk) Count() int {
	return len(c.Resources) + len(c.Mobs) + len(c.Structures) + len(c.NPCs)
}

// NearestOf returns the closest entity of kind within maxDist of pos that
// passes keep (nil keeps everything). Equal distances resolve to the lower id.
func (c *Chunk) NearestOf(kind EntityKind, pos mgl64.Vec2, maxDist float64, keep func(*Entity) bool) *Entity {
	var best *Entity
	bestD := maxDist
	for _, e := range c.bucket(kind) {
		if keep != nil && !keep(e) {
			continue
		}
		d := Dist(pos, e.Pos)
		if d > maxDist {
			continue
		}
		if best == nil || d < bestD || (d == bestD && e.ID < best.ID) {
			best, bestD = e, d
		}
	}
	return best
}

// Bounds returns the world-space corners of the chunk.
func (c *Chunk) Bounds(chunkSize float64) (min, max mgl64.Vec2) {
	min = mgl64.Vec2{float64(c.Coord.X) * chunkSize, float64(c.Coord.Y) * chunkSize}
	max = mgl64.Vec2{min[0] + chunkSize, min[1] + chunkSize}
	return min, max
}

// Clone deep-copies the persistent part of the chunk for checkpointing.
func (c *Chunk) Clone() *Chunk {
	cp := &Chunk{
		Coord:        c.Coord,
		Biome:        c.Biome,
		Resources:    cloneEntities(c.Resources),
		Mobs:         cloneEntities(c.Mobs),
		Structures:   cloneEntities(c.Structures),
		NPCs:         cloneEntities(c.NPCs),
		RespawnQueue: append([]RespawnEntry(nil), c.RespawnQueue...),
		Dirty:        c.Dirty,
		Seq:          c.Seq,
	}
	return cp
}

func cloneEntities(m map[string]*Entity) map[string]*Entity {
	out := make(map[string]*Entity, len(m))
	for id, e := range m {
		out[id] = e.Clone()
	}
	return out
}

func sortedEntities(m map[string]*Entity) []*Entity {
	out := make([]*Entity, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
