package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wildhold/server/internal/world"
)

// Recipe turns ingredients into Count of Output in one atomic step.
type Recipe struct {
	ID          string            `yaml:"id"`
	Ingredients []world.ItemCount `yaml:"ingredients"`
	Output      string            `yaml:"output"`
	Count       int               `yaml:"count"`
}

type recipeListFile struct {
	Recipes []Recipe `yaml:"recipes"`
}

// RecipeTable holds crafting recipes indexed by id.
type RecipeTable struct {
	recipes map[string]*Recipe
}

// LoadRecipeTable loads crafting recipes from a YAML file.
func LoadRecipeTable(path string) (*RecipeTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recipes: %w", err)
	}
	var f recipeListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse recipes: %w", err)
	}
	t := &RecipeTable{recipes: make(map[string]*Recipe, len(f.Recipes))}
	for i := range f.Recipes {
		r := &f.Recipes[i]
		if r.ID == "" {
			r.ID = r.Output
		}
		if r.Count < 1 {
			r.Count = 1
		}
		t.recipes[r.ID] = r
	}
	return t, nil
}

// Get returns a recipe by id, or nil if not found.
func (t *RecipeTable) Get(id string) *Recipe {
	return t.recipes[id]
}

// Count returns the number of loaded recipes.
func (t *RecipeTable) Count() int {
	return len(t.recipes)
}

// All returns every recipe sorted by id.
func (t *RecipeTable) All() []*Recipe {
	out := make([]*Recipe, 0, len(t.recipes))
	for _, r := range t.recipes {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
