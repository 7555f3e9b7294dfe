package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/core/event"
	"github.com/wildhold/server/internal/world"
)

// HandleSpawn puts an unspawned player into play at a settlement's spawn
// point: the named one, or the one nearest to where they last stood.
func HandleSpawn(cmd command.Command, deps *Deps) {
	p := deps.World.Player(cmd.PlayerID)
	if p.Spawned {
		ReplyError(deps, p.ID, ErrAlreadySpawned)
		return
	}

	var st *world.Settlement
	if cmd.Spawn != nil && cmd.Spawn.Settlement != "" {
		if st = deps.World.Settlement(cmd.Spawn.Settlement); st == nil {
			ReplyError(deps, p.ID, fmt.Errorf("%w: settlement %q", ErrUnknownTarget, cmd.Spawn.Settlement))
			return
		}
	} else {
		st = deps.World.NearestSettlement(p.Pos)
	}

	pos := p.Pos
	if st != nil {
		pos = st.Spawn
	}
	deps.World.Spawn(p, pos)
	p.ActionCooldown = 0

	where := "the wilds"
	if st != nil {
		where = st.Name
	}
	Notify(deps, p.ID, "You wake up in "+where+".")
	deps.Log.Debug("玩家出生", zap.String("player", p.ID), zap.String("at", where))
}

// Kill takes a player out of play and resets their vitals. They stay online
// and come back with a spawn command.
func Kill(deps *Deps, p *world.PlayerState, cause string) {
	deps.World.Unspawn(p)
	p.Stats.Deaths++
	p.Vitals = world.DefaultVitals(p.Limits(deps.Limits()), deps.Config.Survival.NeutralTemperature)
	p.ActionCooldown = 0
	p.Dirty = true
	delete(deps.Dialogues, p.ID)

	event.Emit(deps.Bus, event.PlayerDied{PlayerID: p.ID, Cause: cause})
	Notify(deps, p.ID, "You died of "+cause+".")
	deps.Log.Info("玩家死亡", zap.String("player", p.ID), zap.String("cause", cause))
}
