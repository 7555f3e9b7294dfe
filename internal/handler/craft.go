package handler

import (
	"fmt"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/core/event"
	"github.com/wildhold/server/internal/data"
	"github.com/wildhold/server/internal/world"
)

// HandleCraft crafts one batch of a recipe. Failures go back to the crafting
// player only.
func HandleCraft(cmd command.Command, deps *Deps) {
	p := deps.World.Player(cmd.PlayerID)
	if cmd.Craft == nil {
		return
	}
	r := deps.Tables.Recipes.Get(cmd.Craft.Recipe)
	if r == nil {
		ReplyError(deps, p.ID, fmt.Errorf("%w: %q", ErrUnknownRecipe, cmd.Craft.Recipe))
		return
	}
	if err := Craft(deps, p, r); err != nil {
		ReplyError(deps, p.ID, err)
		return
	}
	Notify(deps, p.ID, fmt.Sprintf("Crafted %d x %s.", r.Count, itemName(deps, r.Output)))
}

// Craft consumes the ingredients and adds the output in one atomic step.
func Craft(deps *Deps, p *world.PlayerState, r *data.Recipe) error {
	out := []world.ItemCount{{Item: r.Output, Count: r.Count}}
	if err := p.Inventory.Exchange(r.Ingredients, out, deps.Tables.Items.StackSize); err != nil {
		return fmt.Errorf("craft %s: %w", r.ID, err)
	}
	p.Stats.Crafts++
	p.Dirty = true
	event.Emit(deps.Bus, event.ItemCrafted{PlayerID: p.ID, RecipeID: r.ID, Output: r.Output, Count: r.Count})
	return nil
}

func itemName(deps *Deps, id string) string {
	if it := deps.Tables.Items.Get(id); it != nil && it.Name != "" {
		return it.Name
	}
	return id
}
