package handler

import (
	"go.uber.org/zap"

	"github.com/wildhold/server/internal/command"
)

// HandleSelectSlot picks the active hotbar slot. Out-of-range slots are ignored.
func HandleSelectSlot(cmd command.Command, deps *Deps) {
	p := deps.World.Player(cmd.PlayerID)
	if cmd.SelectSlot == nil {
		return
	}
	slot := cmd.SelectSlot.Slot
	if slot < 0 || slot >= deps.Config.Player.HotbarSize || slot >= p.Inventory.Size() {
		deps.Log.Debug("忽略超出範圍的快捷欄", zap.String("player", p.ID), zap.Int("slot", slot))
		return
	}
	p.ActiveSlot = slot
	p.Dirty = true
}

// HandleSwapSlots swaps two inventory slots. Out-of-range slots are ignored.
func HandleSwapSlots(cmd command.Command, deps *Deps) {
	p := deps.World.Player(cmd.PlayerID)
	if cmd.SwapSlots == nil {
		return
	}
	if err := p.Inventory.Swap(cmd.SwapSlots.A, cmd.SwapSlots.B); err != nil {
		deps.Log.Debug("忽略無效的交換", zap.String("player", p.ID),
			zap.Int("a", cmd.SwapSlots.A), zap.Int("b", cmd.SwapSlots.B))
		return
	}
	p.Dirty = true
}
