package handler

import (
	"fmt"

	"github.com/wildhold/server/internal/core/event"
	"github.com/wildhold/server/internal/world"
)

// GrantXP adds xp and applies every level-up it pays for. XP holds the
// progress inside the current level.
func GrantXP(deps *Deps, p *world.PlayerState, xp int64) {
	if xp <= 0 {
		return
	}
	p.XP += xp
	p.Dirty = true
	for {
		need := deps.Scripting.XPForLevel(p.Level)
		if p.XP < need {
			return
		}
		p.XP -= need
		p.Level++
		event.Emit(deps.Bus, event.PlayerLeveled{PlayerID: p.ID, Level: p.Level})
		Notify(deps, p.ID, fmt.Sprintf("Level up! You are now level %d.", p.Level))
	}
}

// GrantItems adds every item or none of them.
func GrantItems(deps *Deps, p *world.PlayerState, items []world.ItemCount) error {
	if len(items) == 0 {
		return nil
	}
	if err := p.Inventory.Exchange(nil, items, deps.Tables.Items.StackSize); err != nil {
		return err
	}
	p.Dirty = true
	return nil
}
