package world

import "github.com/go-gl/mathgl/mgl64"

// Dist is the euclidean distance between two world positions.
func Dist(a, b mgl64.Vec2) float64 {
	return b.Sub(a).Len()
}

// ClampLen scales v down so its length never exceeds max. Shorter vectors are
// returned unchanged, so analog input below full deflection keeps its magnitude.
func ClampLen(v mgl64.Vec2, max float64) mgl64.Vec2 {
	l := v.Len()
	if l <= max || l == 0 {
		return v
	}
	return v.Mul(max / l)
}

// Toward returns a step of at most maxStep from `from` in the direction of `to`.
func Toward(from, to mgl64.Vec2, maxStep float64) mgl64.Vec2 {
	d := to.Sub(from)
	if d.Len() <= maxStep {
		return to
	}
	return from.Add(d.Normalize().Mul(maxStep))
}

// ClampBox keeps p inside the axis-aligned box [min, max].
func ClampBox(p, min, max mgl64.Vec2) mgl64.Vec2 {
	for i := 0; i < 2; i++ {
		if p[i] < min[i] {
			p[i] = min[i]
		}
		if p[i] > max[i] {
			p[i] = max[i]
		}
	}
	return p
}
