package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ItemKind decides what using or holding an item does.
type ItemKind string

const (
	ItemMaterial  ItemKind = "material"
	ItemFood      ItemKind = "food"
	ItemTool      ItemKind = "tool"
	ItemWeapon    ItemKind = "weapon"
	ItemPlaceable ItemKind = "placeable"
)

// FoodEffect is what consuming one unit restores.
type FoodEffect struct {
	Hunger float64 `yaml:"hunger"`
	Thirst float64 `yaml:"thirst"`
	HP     float64 `yaml:"hp"`
	Warmth float64 `yaml:"warmth"`
}

// ItemInfo is one item template.
type ItemInfo struct {
	ID        string     `yaml:"id"`
	Name      string     `yaml:"name"`
	Kind      ItemKind   `yaml:"kind"`
	StackSize int        `yaml:"stack_size"`
	Food      FoodEffect `yaml:"food"`

	// Tools multiply gather yield, weapons add flat damage.
	GatherPower float64 `yaml:"gather_power"`
	Damage      float64 `yaml:"damage"`

	// Placeables become a structure of this subtype.
	Structure   string  `yaml:"structure"`
	StructureHP float64 `yaml:"structure_hp"`
}

type itemListFile struct {
	Items []ItemInfo `yaml:"items"`
}

// ItemTable holds all item templates indexed by id.
type ItemTable struct {
	items map[string]*ItemInfo
}

// LoadItemTable loads item templates from a YAML file.
func LoadItemTable(path string) (*ItemTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}
	var f itemListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse items: %w", err)
	}
	t := &ItemTable{items: make(map[string]*ItemInfo, len(f.Items))}
	for i := range f.Items {
		it := &f.Items[i]
		if it.ID == "" {
			return nil, fmt.Errorf("items[%d]: missing id", i)
		}
		if _, dup := t.items[it.ID]; dup {
			return nil, fmt.Errorf("items: duplicate id %q", it.ID)
		}
		if it.StackSize < 1 {
			it.StackSize = 1
		}
		if it.Kind == "" {
			it.Kind = ItemMaterial
		}
		t.items[it.ID] = it
	}
	return t, nil
}

// Get returns an item by id, or nil if not found.
func (t *ItemTable) Get(id string) *ItemInfo {
	return t.items[id]
}

// Count returns total loaded items.
func (t *ItemTable) Count() int {
	return len(t.items)
}

// StackSize returns the max stack for id; unknown items do not stack.
func (t *ItemTable) StackSize(id string) int {
	if it := t.items[id]; it != nil {
		return it.StackSize
	}
	return 1
}

// IDs returns every item id in sorted order.
func (t *ItemTable) IDs() []string {
	ids := make([]string, 0, len(t.items))
	for id := range t.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
