package world

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// EntityKind tags which map of its chunk an entity lives in.
type EntityKind uint8

const (
	KindResource EntityKind = iota + 1
	KindMob
	KindStructure
	KindNPC
)

func (k EntityKind) String() string {
	switch k {
	case KindResource:
		return "resource"
	case KindMob:
		return "mob"
	case KindStructure:
		return "structure"
	case KindNPC:
		return "npc"
	default:
		return "unknown"
	}
}

// idPrefix is the first segment of generated entity ids.
func (k EntityKind) idPrefix() string {
	switch k {
	case KindResource:
		return "r"
	case KindMob:
		return "m"
	case KindStructure:
		return "s"
	case KindNPC:
		return "n"
	default:
		return "x"
	}
}

// Entity is a resource, mob, structure or NPC. It is owned by exactly one map
// of exactly one chunk.
type Entity struct {
	ID      string     `msgpack:"id"`
	Kind    EntityKind `msgpack:"kind"`
	Subtype string     `msgpack:"subtype"`
	Pos     mgl64.Vec2 `msgpack:"pos"`
	HP      float64    `msgpack:"hp"`
	MaxHP   float64    `msgpack:"max_hp"`
	Level   int        `msgpack:"level"`
	Hostile bool       `msgpack:"hostile,omitempty"`
	Name    string     `msgpack:"name,omitempty"`
	Owner   string     `msgpack:"owner,omitempty"`
	Target  string     `msgpack:"target,omitempty"`

	// AI bookkeeping, not persisted.
	Heading    mgl64.Vec2    `msgpack:"-"`
	WanderLeft time.Duration `msgpack:"-"`
	ContactCD  time.Duration `msgpack:"-"`
}

// Clone returns a detached copy.
func (e *Entity) Clone() *Entity {
	cp := *e
	return &cp
}

// ChunkOfID recovers the owning chunk from an id minted by Chunk.NextID.
func ChunkOfID(id string) (ChunkCoord, bool) {
	parts := strings.Split(id, ":")
	if len(parts) != 4 {
		return ChunkCoord{}, false
	}
	x, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return ChunkCoord{}, false
	}
	y, err := strconv.ParseInt(parts[2], 10, 32)
	if err != nil {
		return ChunkCoord{}, false
	}
	return ChunkCoord{X: int32(x), Y: int32(y)}, true
}
