// Package worldgen builds chunk contents as a pure function of world seed,
// chunk coordinate and the spawn tables. It never reads the wall clock or the
// global random source.
package worldgen

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildhold/server/internal/data"
	"github.com/wildhold/server/internal/world"
)

const (
	saltBiome   = 0x62696f6d65 // "biome"
	saltRespawn = 0x7265737077 // "respw"

	placeAttempts = 8
	keeperOffset  = 2.0
)

// Config is the immutable input of Generate besides the coordinate.
type Config struct {
	Seed            int64
	ChunkSize       float64
	BiomeRegionSize int32
	Tables          *data.Tables
}

// Generator returns a world.Generator bound to cfg.
func Generator(cfg Config) world.Generator {
	return func(c world.ChunkCoord) *world.Chunk {
		return Generate(cfg, c)
	}
}

// BiomeAt picks the biome for a chunk. Neighbouring chunks inside one biome
// region share a biome.
func BiomeAt(cfg Config, c world.ChunkCoord) *data.Biome {
	region := cfg.BiomeRegionSize
	if region <= 0 {
		region = 1
	}
	rx, ry := FloorDiv(c.X, region), FloorDiv(c.Y, region)
	biomes := cfg.Tables.Biomes.Sorted()
	weights := make([]int, len(biomes))
	for i, b := range biomes {
		weights[i] = b.Weight
	}
	s := NewStream(Hash2(cfg.Seed^saltBiome, rx, ry))
	return biomes[s.Weighted(weights)]
}

// Generate builds the initial contents of chunk c. Calling it twice with the
// same arguments yields identical chunks, regardless of call order.
func Generate(cfg Config, c world.ChunkCoord) *world.Chunk {
	biome := BiomeAt(cfg, c)
	ch := world.NewChunk(c, biome.ID)
	s := NewStream(Hash2(cfg.Seed, c.X, c.Y))
	lo, _ := ch.Bounds(cfg.ChunkSize)

	place := func() mgl64.Vec2 {
		return mgl64.Vec2{lo[0] + s.Float64()*cfg.ChunkSize, lo[1] + s.Float64()*cfg.ChunkSize}
	}

	n := s.Between(biome.ResourceCount.Min, biome.ResourceCount.Max)
	weights := entryWeights(biome.Resources)
	for i := 0; i < n; i++ {
		idx := s.Weighted(weights)
		if idx < 0 {
			break
		}
		e := newEntity(ch, world.KindResource, &biome.Resources[idx])
		e.Pos = place()
		ch.Insert(e)
	}

	n = s.Between(biome.MobCount.Min, biome.MobCount.Max)
	weights = entryWeights(biome.Mobs)
	for i := 0; i < n; i++ {
		idx := s.Weighted(weights)
		if idx < 0 {
			break
		}
		row := &biome.Mobs[idx]
		pos, ok := place(), true
		// Hostiles never start inside a barrier, even at its widest.
		for try := 0; row.Hostile && insideAnyBarrier(cfg, pos); try++ {
			if try == placeAttempts {
				ok = false
				break
			}
			pos = place()
		}
		if !ok {
			continue
		}
		e := newEntity(ch, world.KindMob, row)
		e.Pos = pos
		e.Heading = mgl64.Vec2{1, 0}
		ch.Insert(e)
	}

	if len(biome.NPCSubtypes) > 0 && s.Float64() < biome.NPCChance {
		subtype := biome.NPCSubtypes[s.Intn(len(biome.NPCSubtypes))]
		if tmpl := cfg.Tables.NPCs.Get(subtype); tmpl != nil {
			e := npcEntity(ch, tmpl)
			e.Pos = place()
			ch.Insert(e)
		}
	}

	for _, def := range cfg.Tables.Settlements.All() {
		if def.Keeper == "" || world.ChunkOf(mgl64.Vec2{def.X, def.Y}, cfg.ChunkSize) != c {
			continue
		}
		if tmpl := cfg.Tables.NPCs.Get(def.Keeper); tmpl != nil {
			e := npcEntity(ch, tmpl)
			e.Pos = mgl64.Vec2{def.X + keeperOffset, def.Y}
			e.Owner = def.ID
			ch.Insert(e)
		}
	}

	ch.Dirty = false
	return ch
}

// RespawnPosition picks a fresh spot for a respawning entity inside chunk ch.
// The pick is keyed on the chunk's next id so replays agree. avoid may reject
// candidates; ok is false when every candidate was rejected.
func RespawnPosition(cfg Config, ch *world.Chunk, avoid func(mgl64.Vec2) bool) (pos mgl64.Vec2, ok bool) {
	s := NewStream(Hash3(cfg.Seed^saltRespawn, ch.Coord.X, ch.Coord.Y, ch.Seq))
	lo, _ := ch.Bounds(cfg.ChunkSize)
	for try := 0; try <= placeAttempts; try++ {
		pos = mgl64.Vec2{lo[0] + s.Float64()*cfg.ChunkSize, lo[1] + s.Float64()*cfg.ChunkSize}
		if avoid == nil || !avoid(pos) {
			return pos, true
		}
	}
	return pos, false
}

func entryWeights(rows []data.SpawnEntry) []int {
	w := make([]int, len(rows))
	for i := range rows {
		w[i] = rows[i].Weight
	}
	return w
}

func newEntity(ch *world.Chunk, kind world.EntityKind, row *data.SpawnEntry) *world.Entity {
	level := row.Level
	if level < 1 {
		level = 1
	}
	return &world.Entity{
		ID:      ch.NextID(kind),
		Kind:    kind,
		Subtype: row.Subtype,
		HP:      row.HP,
		MaxHP:   row.HP,
		Level:   level,
		Hostile: row.Hostile,
	}
}

func npcEntity(ch *world.Chunk, tmpl *data.NpcTemplate) *world.Entity {
	return &world.Entity{
		ID:      ch.NextID(world.KindNPC),
		Kind:    world.KindNPC,
		Subtype: tmpl.Subtype,
		Name:    tmpl.Name,
		HP:      tmpl.HP,
		MaxHP:   tmpl.HP,
		Level:   1,
	}
}

func insideAnyBarrier(cfg Config, pos mgl64.Vec2) bool {
	for _, def := range cfg.Tables.Settlements.All() {
		r := def.BaseRadius + float64(def.MaxLevel)*def.RadiusPerLevel
		if world.Dist(pos, mgl64.Vec2{def.X, def.Y}) <= r {
			return true
		}
	}
	return false
}
