package world

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// ChunkCoord identifies one square cell of the world grid.
type ChunkCoord struct {
	X int32 `msgpack:"x" json:"x"`
	Y int32 `msgpack:"y" json:"y"`
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Less orders coordinates row-major. Only used to make iteration deterministic.
func (c ChunkCoord) Less(o ChunkCoord) bool {
	if c.Y != o.Y {
		return c.Y < o.Y
	}
	return c.X < o.X
}

// ChunkOf returns the chunk that owns a world position. Negative positions
// floor towards negative infinity so (-0.5, 0) lives in chunk (-1, 0).
func ChunkOf(pos mgl64.Vec2, chunkSize float64) ChunkCoord {
	return ChunkCoord{
		X: int32(math.Floor(pos[0] / chunkSize)),
		Y: int32(math.Floor(pos[1] / chunkSize)),
	}
}

// Square returns every coordinate within Chebyshev distance r of center,
// (2r+1)^2 entries in row-major order.
func Square(center ChunkCoord, r int) []ChunkCoord {
	if r < 0 {
		return nil
	}
	out := make([]ChunkCoord, 0, (2*r+1)*(2*r+1))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			out = append(out, ChunkCoord{X: center.X + int32(dx), Y: center.Y + int32(dy)})
		}
	}
	return out
}

// SortCoords sorts in place with ChunkCoord.Less.
func SortCoords(cs []ChunkCoord) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Less(cs[j]) })
}
