package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/data"
	"github.com/wildhold/server/internal/world"
)

// HandleTrade runs one barter offer of an NPC within reach.
func HandleTrade(cmd command.Command, deps *Deps) {
	p := deps.World.Player(cmd.PlayerID)
	if cmd.Trade == nil {
		return
	}
	_, tmpl, err := npcInReach(deps, p, cmd.Trade.NPC)
	if err != nil {
		ReplyError(deps, p.ID, err)
		return
	}
	offer := tmpl.Offer(cmd.Trade.Offer)
	if offer == nil {
		ReplyError(deps, p.ID, fmt.Errorf("%w: offer %q", ErrUnknownTarget, cmd.Trade.Offer))
		return
	}
	if err := Barter(deps, p, offer); err != nil {
		ReplyError(deps, p.ID, err)
		return
	}
	Notify(deps, p.ID, "Trade complete.")
}

// Barter hands over the offer's Give and receives its Take atomically.
func Barter(deps *Deps, p *world.PlayerState, offer *data.BarterOffer) error {
	if err := p.Inventory.Exchange(offer.Give, offer.Take, deps.Tables.Items.StackSize); err != nil {
		return fmt.Errorf("trade %s: %w", offer.ID, err)
	}
	p.Dirty = true
	deps.Log.Debug("以物易物完成", zap.String("player", p.ID), zap.String("offer", offer.ID))
	return nil
}

// npcInReach resolves an NPC id and checks the player stands close enough.
func npcInReach(deps *Deps, p *world.PlayerState, npcID string) (*world.Entity, *data.NpcTemplate, error) {
	var npc *world.Entity
	if c, ok := world.ChunkOfID(npcID); ok {
		if ch := deps.World.Chunk(c); ch != nil {
			npc = ch.Get(world.KindNPC, npcID)
		}
	}
	if npc == nil {
		return nil, nil, fmt.Errorf("%w: npc %q", ErrUnknownTarget, npcID)
	}
	tmpl := deps.Tables.NPCs.Get(npc.Subtype)
	if tmpl == nil {
		return nil, nil, fmt.Errorf("%w: npc type %q", ErrUnknownTarget, npc.Subtype)
	}
	if world.Dist(p.Pos, npc.Pos) > deps.Config.Combat.InteractRange {
		return nil, nil, fmt.Errorf("%w: %s", ErrOutOfRange, tmpl.Name)
	}
	return npc, tmpl, nil
}
