package handler

import (
	"go.uber.org/zap"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/world"
)

// HandleRename changes the display name after normalisation.
func HandleRename(cmd command.Command, deps *Deps) {
	p := deps.World.Player(cmd.PlayerID)
	if cmd.Rename == nil {
		return
	}
	pc := deps.Config.Player
	name, err := world.NormalizeName(cmd.Rename.Name, pc.NameMinLength, pc.NameMaxLength)
	if err != nil {
		ReplyError(deps, p.ID, err)
		return
	}
	old := p.Name
	p.Name = name
	p.Dirty = true
	Notify(deps, p.ID, "You are now known as "+name+".")
	deps.Log.Info("玩家改名", zap.String("player", p.ID), zap.String("from", old), zap.String("to", name))
}
