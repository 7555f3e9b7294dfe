package handler

import (
	"go.uber.org/zap"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/config"
	"github.com/wildhold/server/internal/core/event"
	"github.com/wildhold/server/internal/data"
	"github.com/wildhold/server/internal/scripting"
	"github.com/wildhold/server/internal/world"
)

// PlayerSaver persists a detached player snapshot off the game loop.
type PlayerSaver interface {
	SavePlayer(p *world.PlayerState) bool
}

// Deps holds shared dependencies injected into all command handlers and the
// systems that reuse their helpers.
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	World     *world.State
	Tables    *data.Tables
	Scripting *scripting.Engine
	Bus       *event.Bus
	Outbox    *Outbox
	Saver     PlayerSaver

	// Dialogues is the open dialogue per player id.
	Dialogues map[string]*Dialogue
}

// Limits returns the configured base vital limits.
func (d *Deps) Limits() world.VitalLimits {
	s := d.Config.Survival
	return world.VitalLimits{
		MaxHP:          s.MaxHP,
		MaxHunger:      s.MaxHunger,
		MaxThirst:      s.MaxThirst,
		MaxTemperature: s.MaxTemperature,
	}
}

// RegisterAll registers all command handlers into the registry.
func RegisterAll(reg *Registry, deps *Deps) {
	if deps.Dialogues == nil {
		deps.Dialogues = make(map[string]*Dialogue)
	}

	// Session lifecycle
	reg.Register(command.KindJoin, GateNone, func(cmd command.Command) {
		HandleJoin(cmd, deps)
	})
	reg.Register(command.KindLeave, GateOnline, func(cmd command.Command) {
		HandleLeave(cmd, deps)
	})

	// Allowed before spawning
	reg.Register(command.KindSpawn, GateOnline, func(cmd command.Command) {
		HandleSpawn(cmd, deps)
	})
	reg.Register(command.KindSelectSlot, GateOnline, func(cmd command.Command) {
		HandleSelectSlot(cmd, deps)
	})
	reg.Register(command.KindSwapSlots, GateOnline, func(cmd command.Command) {
		HandleSwapSlots(cmd, deps)
	})
	reg.Register(command.KindRename, GateOnline, func(cmd command.Command) {
		HandleRename(cmd, deps)
	})

	// In play
	reg.Register(command.KindInput, GateSpawned, func(cmd command.Command) {
		HandleInput(cmd, deps)
	})
	reg.Register(command.KindCraft, GateSpawned, func(cmd command.Command) {
		HandleCraft(cmd, deps)
	})
	reg.Register(command.KindTrade, GateSpawned, func(cmd command.Command) {
		HandleTrade(cmd, deps)
	})
	reg.Register(command.KindNPCAction, GateSpawned, func(cmd command.Command) {
		HandleNPCAction(cmd, deps)
	})
	reg.Register(command.KindAcceptQuest, GateSpawned, func(cmd command.Command) {
		HandleAcceptQuest(cmd, deps)
	})
}
