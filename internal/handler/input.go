package handler

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/world"
)

// HandleInput replaces the buffered input snapshot. A pending interact
// survives until the interaction system consumes it.
func HandleInput(cmd command.Command, deps *Deps) {
	in := cmd.Input
	if in == nil {
		return
	}
	p := deps.World.Player(cmd.PlayerID)
	dir := world.ClampLen(mgl64.Vec2{finite(in.DX), finite(in.DY)}, 1)
	p.Input = world.InputState{
		DX:       dir[0],
		DY:       dir[1],
		Attack:   in.Attack,
		Interact: p.Input.Interact || in.Interact,
		Aim:      mgl64.Vec2{finite(in.AimX), finite(in.AimY)},
	}
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
