package handler

import (
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/protocol"
	"github.com/wildhold/server/internal/world"
)

// HandleJoin attaches a session to a player. A player that is already online
// is taken over: the live state is kept, the old session is told it was
// revoked and the new client starts from an empty view.
func HandleJoin(cmd command.Command, deps *Deps) {
	j := cmd.Join
	if j == nil {
		return
	}

	var p *world.PlayerState
	if cmd.PlayerID != "" {
		p = deps.World.Player(cmd.PlayerID)
	}
	takeover := p != nil
	if !takeover {
		p = j.Player
		if p == nil {
			p = newPlayer(deps, j.Name)
		}
		deps.World.AddPlayer(p)
	}
	p.ActiveView = make(map[world.ChunkCoord]struct{})
	delete(deps.Dialogues, p.ID)

	if prev := deps.Outbox.Attach(p.ID, j.SessionID, j.Sink); prev != nil && takeover {
		prev.Send(&protocol.SessionRevoked{Reason: "signed in from another session"})
	}

	deps.Outbox.Send(p.ID, &protocol.Welcome{
		ID:              p.ID,
		Token:           p.Token,
		ProtocolVersion: deps.Config.Server.ProtocolVersion,
		Spawned:         p.Spawned,
	})
	deps.Outbox.Send(p.ID, PlayerUpdateFor(deps, p))

	deps.Log.Info("玩家加入",
		zap.String("player", p.ID),
		zap.String("name", p.Name),
		zap.String("session", j.SessionID),
		zap.Bool("takeover", takeover),
		zap.Bool("new", j.Player == nil && !takeover),
	)
}

// newPlayer creates a level-1 player with a fresh id, token and start kit.
func newPlayer(deps *Deps, rawName string) *world.PlayerState {
	id := uuid.NewString()
	pc := deps.Config.Player
	name, err := world.NormalizeName(rawName, pc.NameMinLength, pc.NameMaxLength)
	if err != nil {
		name = "Wanderer-" + id[:4]
	}
	p := world.NewPlayer(id, uuid.NewString(), name, pc.InventorySize, deps.Limits(),
		deps.Config.Survival.NeutralTemperature)

	items := make([]string, 0, len(pc.StartItems))
	for item := range pc.StartItems {
		items = append(items, item)
	}
	sort.Strings(items)
	for _, item := range items {
		if err := p.Inventory.Add(item, pc.StartItems[item], deps.Tables.Items.StackSize(item)); err != nil {
			deps.Log.Warn("起始物品放入失敗", zap.String("item", item), zap.Error(err))
		}
	}
	return p
}

// HandleLeave detaches a session. A leave from a session that was already
// taken over is ignored. The player is saved and removed; the chunks stay.
func HandleLeave(cmd command.Command, deps *Deps) {
	if cmd.Leave == nil {
		return
	}
	if !deps.Outbox.Detach(cmd.PlayerID, cmd.Leave.SessionID) {
		deps.Log.Debug("忽略過期的離線請求",
			zap.String("player", cmd.PlayerID),
			zap.String("session", cmd.Leave.SessionID),
		)
		return
	}
	p := deps.World.RemovePlayer(cmd.PlayerID)
	if p == nil {
		return
	}
	delete(deps.Dialogues, p.ID)
	if deps.Saver != nil && !deps.Saver.SavePlayer(p.Snapshot()) {
		deps.Log.Warn("離線存檔排入失敗", zap.String("player", p.ID))
	}
	deps.Log.Info("玩家離線", zap.String("player", p.ID), zap.String("name", p.Name))
}
