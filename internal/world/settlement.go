package world

import "github.com/go-gl/mathgl/mgl64"

// Settlement is a barrier core: a no-hostile-mob zone and a respawn point.
type Settlement struct {
	ID             string
	Name           string
	Level          int
	Pos            mgl64.Vec2
	BaseRadius     float64
	RadiusPerLevel float64
	Spawn          mgl64.Vec2

	Dirty bool
}

// SafeRadius is base + level * multiplier.
func (s *Settlement) SafeRadius() float64 {
	return s.BaseRadius + float64(s.Level)*s.RadiusPerLevel
}

// Contains reports whether pos lies inside the safe radius.
func (s *Settlement) Contains(pos mgl64.Vec2) bool {
	return Dist(s.Pos, pos) <= s.SafeRadius()
}

// Clone returns a detached copy for checkpointing.
func (s *Settlement) Clone() *Settlement {
	cp := *s
	return &cp
}
