package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wildhold/server/internal/world"
)

// SettlementDef seeds a barrier core at first boot. Later boots restore the
// persisted settlement instead.
type SettlementDef struct {
	ID             string  `yaml:"id"`
	Name           string  `yaml:"name"`
	X              float64 `yaml:"x"`
	Y              float64 `yaml:"y"`
	Level          int     `yaml:"level"`
	MaxLevel       int     `yaml:"max_level"`
	BaseRadius     float64 `yaml:"base_radius"`
	RadiusPerLevel float64 `yaml:"radius_per_level"`
	SpawnX         float64 `yaml:"spawn_x"`
	SpawnY         float64 `yaml:"spawn_y"`
	Keeper         string  `yaml:"keeper"` // npc subtype placed at the core
	// UpgradeCost is charged once per level gained.
	UpgradeCost []world.ItemCount `yaml:"upgrade_cost"`
}

type settlementListFile struct {
	Settlements []SettlementDef `yaml:"settlements"`
}

// SettlementTable holds settlement seeds indexed by id.
type SettlementTable struct {
	defs  map[string]*SettlementDef
	order []*SettlementDef
}

// LoadSettlementTable loads settlement seeds from a YAML file.
func LoadSettlementTable(path string) (*SettlementTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settlements: %w", err)
	}
	var f settlementListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse settlements: %w", err)
	}
	t := &SettlementTable{defs: make(map[string]*SettlementDef, len(f.Settlements))}
	for i := range f.Settlements {
		d := &f.Settlements[i]
		if d.Level < 1 {
			d.Level = 1
		}
		if d.MaxLevel < d.Level {
			d.MaxLevel = d.Level
		}
		t.defs[d.ID] = d
		t.order = append(t.order, d)
	}
	sort.Slice(t.order, func(i, j int) bool { return t.order[i].ID < t.order[j].ID })
	return t, nil
}

// Get returns a settlement seed by id, or nil if not found.
func (t *SettlementTable) Get(id string) *SettlementDef {
	return t.defs[id]
}

// Count returns the number of settlement seeds.
func (t *SettlementTable) Count() int {
	return len(t.order)
}

// All returns every seed sorted by id.
func (t *SettlementTable) All() []*SettlementDef {
	return t.order
}

// Settlement builds the live world object for a seed.
func (d *SettlementDef) Settlement() *world.Settlement {
	return &world.Settlement{
		ID:             d.ID,
		Name:           d.Name,
		Level:          d.Level,
		Pos:            vec(d.X, d.Y),
		BaseRadius:     d.BaseRadius,
		RadiusPerLevel: d.RadiusPerLevel,
		Spawn:          vec(d.SpawnX, d.SpawnY),
	}
}
