package data

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildhold/server/internal/world"
)

// Tables is every balance table the simulation reads. Loaded once at boot and
// treated as immutable afterwards.
type Tables struct {
	Items        *ItemTable
	Recipes      *RecipeTable
	Biomes       *BiomeTable
	NPCs         *NpcTable
	Quests       *QuestTable
	Achievements *AchievementTable
	Settlements  *SettlementTable
}

// Load reads every table under dir and cross-checks references between them.
func Load(dir string) (*Tables, error) {
	var (
		t   Tables
		err error
	)
	if t.Items, err = LoadItemTable(filepath.Join(dir, "items.yaml")); err != nil {
		return nil, err
	}
	if t.Recipes, err = LoadRecipeTable(filepath.Join(dir, "recipes.yaml")); err != nil {
		return nil, err
	}
	if t.Biomes, err = LoadBiomeTable(filepath.Join(dir, "biomes.yaml")); err != nil {
		return nil, err
	}
	if t.NPCs, err = LoadNpcTable(filepath.Join(dir, "npcs.yaml")); err != nil {
		return nil, err
	}
	if t.Quests, err = LoadQuestTable(filepath.Join(dir, "quests.yaml")); err != nil {
		return nil, err
	}
	if t.Achievements, err = LoadAchievementTable(filepath.Join(dir, "achievements.yaml")); err != nil {
		return nil, err
	}
	if t.Settlements, err = LoadSettlementTable(filepath.Join(dir, "settlements.yaml")); err != nil {
		return nil, err
	}
	if err := t.check(); err != nil {
		return nil, fmt.Errorf("data tables in %s: %w", dir, err)
	}
	return &t, nil
}

// check reports every dangling reference at once.
func (t *Tables) check() error {
	var errs []error
	item := func(where, id string) {
		if t.Items.Get(id) == nil {
			errs = append(errs, fmt.Errorf("%s: unknown item %q", where, id))
		}
	}
	for _, r := range t.Recipes.All() {
		item("recipe "+r.ID, r.Output)
		for _, in := range r.Ingredients {
			item("recipe "+r.ID, in.Item)
		}
	}
	for _, b := range t.Biomes.Sorted() {
		for _, e := range b.Resources {
			if e.Yield != "" {
				item("biome "+b.ID, e.Yield)
			}
		}
		for _, e := range b.Mobs {
			for _, d := range e.Drops {
				item("biome "+b.ID, d.Item)
			}
		}
		for _, n := range b.NPCSubtypes {
			if t.NPCs.Get(n) == nil {
				errs = append(errs, fmt.Errorf("biome %s: unknown npc %q", b.ID, n))
			}
		}
	}
	for _, q := range t.Quests.All() {
		if t.NPCs.Get(q.Giver) == nil {
			errs = append(errs, fmt.Errorf("quest %s: unknown giver %q", q.ID, q.Giver))
		}
		for _, ic := range q.RewardItems {
			item("quest "+q.ID, ic.Item)
		}
	}
	for _, n := range t.NPCs.templates {
		for _, qid := range n.Quests {
			if t.Quests.Get(qid) == nil {
				errs = append(errs, fmt.Errorf("npc %s: unknown quest %q", n.Subtype, qid))
			}
		}
		for _, o := range n.Barter {
			for _, ic := range append(append([]world.ItemCount(nil), o.Give...), o.Take...) {
				item("npc "+n.Subtype+" offer "+o.ID, ic.Item)
			}
		}
	}
	for _, s := range t.Settlements.All() {
		if s.Keeper != "" && t.NPCs.Get(s.Keeper) == nil {
			errs = append(errs, fmt.Errorf("settlement %s: unknown keeper %q", s.ID, s.Keeper))
		}
		for _, ic := range s.UpgradeCost {
			item("settlement "+s.ID, ic.Item)
		}
	}
	for _, id := range t.Items.IDs() {
		it := t.Items.Get(id)
		if it.Kind == ItemPlaceable && it.Structure == "" {
			errs = append(errs, fmt.Errorf("item %s: placeable without structure", id))
		}
	}
	return errors.Join(errs...)
}

func vec(x, y float64) mgl64.Vec2 { return mgl64.Vec2{x, y} }
