package worldgen

import "math"

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Hash2 mixes a seed with a 2D integer coordinate.
func Hash2(seed int64, x, y int32) uint64 {
	ux := uint64(uint32(x))
	uy := uint64(uint32(y))
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// Hash3 mixes a seed with a 2D coordinate and a third discriminator.
func Hash3(seed int64, x, y int32, z uint32) uint64 {
	ux := uint64(uint32(x))
	uy := uint64(uint32(y))
	uz := uint64(z)
	v := uint64(seed) ^ (ux * 0x9e3779b97f4a7c15) ^ (uy * 0xc2b2ae3d27d4eb4f) ^ (uz * 0xbf58476d1ce4e5b9)
	return mix64(v)
}

// FloorDiv divides rounding towards negative infinity. b > 0.
func FloorDiv(a, b int32) int32 {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// Stream is a counter-based generator: value n is mix64(key + n*golden), so
// it never depends on how many values other streams have drawn.
type Stream struct {
	key uint64
	ctr uint64
}

func NewStream(key uint64) *Stream {
	return &Stream{key: key}
}

func (s *Stream) Uint64() uint64 {
	s.ctr++
	return mix64(s.key + s.ctr*0x9e3779b97f4a7c15)
}

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 {
	return float64(s.Uint64()>>11) * (1.0 / (1 << 53))
}

// Intn returns a value in [0, n). n <= 0 yields 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.Uint64() % uint64(n))
}

// Between returns a value in [lo, hi].
func (s *Stream) Between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.Intn(hi-lo+1)
}

// Angle returns a heading in [0, 2pi).
func (s *Stream) Angle() float64 {
	return s.Float64() * 2 * math.Pi
}

// Weighted picks an index from weights; entries <= 0 are never picked.
// Returns -1 when nothing is pickable.
func (s *Stream) Weighted(weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return -1
	}
	r := s.Intn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}
