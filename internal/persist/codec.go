package persist

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/wildhold/server/internal/world"
)

// Chunk blobs are msgpack compressed with zstd. EncodeAll and DecodeAll are
// safe for concurrent use.
var (
	zenc, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zdec, _ = zstd.NewReader(nil)
)

type chunkRecord struct {
	X          int32                `msgpack:"x"`
	Y          int32                `msgpack:"y"`
	Biome      string               `msgpack:"biome"`
	Seq        uint32               `msgpack:"seq"`
	Resources  []world.Entity       `msgpack:"resources"`
	Mobs       []world.Entity       `msgpack:"mobs"`
	Structures []world.Entity       `msgpack:"structures"`
	NPCs       []world.Entity       `msgpack:"npcs"`
	Respawn    []world.RespawnEntry `msgpack:"respawn"`
}

func flatten(ch *world.Chunk, kind world.EntityKind) []world.Entity {
	src := ch.Entities(kind)
	out := make([]world.Entity, len(src))
	for i, e := range src {
		out[i] = *e
	}
	return out
}

// EncodeChunk serialises a chunk, including its id sequence and respawn queue.
func EncodeChunk(ch *world.Chunk) ([]byte, error) {
	rec := chunkRecord{
		X:          ch.Coord.X,
		Y:          ch.Coord.Y,
		Biome:      ch.Biome,
		Seq:        ch.Seq,
		Resources:  flatten(ch, world.KindResource),
		Mobs:       flatten(ch, world.KindMob),
		Structures: flatten(ch, world.KindStructure),
		NPCs:       flatten(ch, world.KindNPC),
		Respawn:    ch.RespawnQueue,
	}
	raw, err := msgpack.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("encode chunk %s: %w", ch.Coord, err)
	}
	return zenc.EncodeAll(raw, nil), nil
}

// DecodeChunk restores a chunk written by EncodeChunk. The result is clean.
func DecodeChunk(blob []byte) (*world.Chunk, error) {
	raw, err := zdec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress chunk: %w", err)
	}
	var rec chunkRecord
	if err := msgpack.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode chunk: %w", err)
	}
	ch := world.NewChunk(world.ChunkCoord{X: rec.X, Y: rec.Y}, rec.Biome)
	for _, group := range [][]world.Entity{rec.Resources, rec.Mobs, rec.Structures, rec.NPCs} {
		for i := range group {
			e := group[i]
			ch.Insert(&e)
		}
	}
	ch.Seq = rec.Seq
	ch.RespawnQueue = rec.Respawn
	ch.Dirty = false
	return ch, nil
}

type playerRecord struct {
	Name         string                     `json:"name"`
	Level        int                        `json:"level"`
	XP           int64                      `json:"xp"`
	X            float64                    `json:"x"`
	Y            float64                    `json:"y"`
	Vitals       world.Vitals               `json:"vitals"`
	Inventory    []*world.Stack             `json:"inventory"`
	ActiveSlot   int                        `json:"active_slot"`
	Stats        world.Stats                `json:"stats"`
	Achievements []string                   `json:"achievements"`
	Bonuses      map[string]world.StatBonus `json:"bonuses,omitempty"`
	Quests       []world.QuestProgress      `json:"quests,omitempty"`
	Spawned      bool                       `json:"spawned"`
}

// EncodePlayer serialises the persistent part of a player.
func EncodePlayer(p *world.PlayerState) ([]byte, error) {
	ach := make([]string, 0, len(p.Achievements))
	for id, ok := range p.Achievements {
		if ok {
			ach = append(ach, id)
		}
	}
	sort.Strings(ach)
	b, err := json.Marshal(playerRecord{
		Name:         p.Name,
		Level:        p.Level,
		XP:           p.XP,
		X:            p.Pos[0],
		Y:            p.Pos[1],
		Vitals:       p.Vitals,
		Inventory:    p.Inventory.Slots,
		ActiveSlot:   p.ActiveSlot,
		Stats:        p.Stats,
		Achievements: ach,
		Bonuses:      p.Bonuses,
		Quests:       p.Quests,
		Spawned:      p.Spawned,
	})
	if err != nil {
		return nil, fmt.Errorf("encode player %s: %w", p.ID, err)
	}
	return b, nil
}

// DecodePlayer restores a player. The inventory is resized to invSize.
func DecodePlayer(id, token string, invSize int, blob []byte) (*world.PlayerState, error) {
	var rec playerRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, fmt.Errorf("decode player %s: %w", id, err)
	}
	inv := world.NewInventory(invSize)
	copy(inv.Slots, rec.Inventory)
	if rec.ActiveSlot < 0 || rec.ActiveSlot >= invSize {
		rec.ActiveSlot = 0
	}
	p := &world.PlayerState{
		ID:           id,
		Token:        token,
		Name:         rec.Name,
		Level:        max(1, rec.Level),
		XP:           rec.XP,
		Pos:          mgl64.Vec2{rec.X, rec.Y},
		Vitals:       rec.Vitals,
		Inventory:    inv,
		ActiveSlot:   rec.ActiveSlot,
		Stats:        rec.Stats,
		Achievements: make(map[string]bool, len(rec.Achievements)),
		Bonuses:      rec.Bonuses,
		Quests:       rec.Quests,
		Spawned:      rec.Spawned,
		ActiveView:   make(map[world.ChunkCoord]struct{}),
	}
	if p.Bonuses == nil {
		p.Bonuses = make(map[string]world.StatBonus)
	}
	for _, a := range rec.Achievements {
		p.Achievements[a] = true
	}
	return p, nil
}

type settlementRecord struct {
	Name           string  `json:"name"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	BaseRadius     float64 `json:"base_radius"`
	RadiusPerLevel float64 `json:"radius_per_level"`
	SpawnX         float64 `json:"spawn_x"`
	SpawnY         float64 `json:"spawn_y"`
}

func encodeSettlement(s *world.Settlement) ([]byte, error) {
	return json.Marshal(settlementRecord{
		Name:           s.Name,
		X:              s.Pos[0],
		Y:              s.Pos[1],
		BaseRadius:     s.BaseRadius,
		RadiusPerLevel: s.RadiusPerLevel,
		SpawnX:         s.Spawn[0],
		SpawnY:         s.Spawn[1],
	})
}

func decodeSettlement(id string, level int, blob []byte) (*world.Settlement, error) {
	var rec settlementRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, fmt.Errorf("decode settlement %s: %w", id, err)
	}
	return &world.Settlement{
		ID:             id,
		Name:           rec.Name,
		Level:          level,
		Pos:            mgl64.Vec2{rec.X, rec.Y},
		BaseRadius:     rec.BaseRadius,
		RadiusPerLevel: rec.RadiusPerLevel,
		Spawn:          mgl64.Vec2{rec.SpawnX, rec.SpawnY},
	}, nil
}
