package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wildhold/server/internal/world"
)

// UpgradeSettlement feeds the barrier core tended by keeper: the upgrade cost
// is taken from the player and the settlement gains a level. The wider
// radius is enforced by the barrier system on the next tick.
func UpgradeSettlement(deps *Deps, p *world.PlayerState, keeper *world.Entity) error {
	st := deps.World.Settlement(keeper.Owner)
	def := deps.Tables.Settlements.Get(keeper.Owner)
	if st == nil || def == nil {
		return fmt.Errorf("%w: settlement %q", ErrUnknownTarget, keeper.Owner)
	}
	if st.Level >= def.MaxLevel {
		return fmt.Errorf("%w: %s is level %d", ErrMaxLevel, st.Name, st.Level)
	}
	if err := p.Inventory.Exchange(def.UpgradeCost, nil, deps.Tables.Items.StackSize); err != nil {
		return fmt.Errorf("upgrade %s: %w", st.ID, err)
	}
	st.Level++
	st.Dirty = true
	p.Dirty = true

	Notify(deps, p.ID, fmt.Sprintf("The barrier of %s grows to level %d.", st.Name, st.Level))
	deps.Log.Info("結界升級",
		zap.String("settlement", st.ID),
		zap.Int("level", st.Level),
		zap.Float64("radius", st.SafeRadius()),
		zap.String("by", p.ID),
	)
	return nil
}
