package data

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wildhold/server/internal/world"
)

// SpawnEntry is one weighted row of a biome's resource or mob table.
type SpawnEntry struct {
	Subtype string        `yaml:"subtype"`
	Weight  int           `yaml:"weight"`
	HP      float64       `yaml:"hp"`
	Level   int           `yaml:"level"`
	Hostile bool          `yaml:"hostile"`
	Respawn time.Duration `yaml:"respawn"`

	// Resources: what one gather yields.
	Yield      string `yaml:"yield"`
	YieldCount int    `yaml:"yield_count"`

	// Mobs: contact damage, kill xp and loot.
	Damage float64           `yaml:"damage"`
	XP     int64             `yaml:"xp"`
	Drops  []world.ItemCount `yaml:"drops"`
}

// Range is an inclusive [min, max] count.
type Range struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Biome carries survival modifiers and spawn tables for one biome.
type Biome struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Weight      int      `yaml:"weight"`
	HungerMul   float64  `yaml:"hunger_mul"`
	ThirstMul   float64  `yaml:"thirst_mul"`
	TempOffset  float64  `yaml:"temp_offset"`
	NPCChance   float64  `yaml:"npc_chance"`
	NPCSubtypes []string `yaml:"npcs"`

	ResourceCount Range        `yaml:"resource_count"`
	Resources     []SpawnEntry `yaml:"resources"`
	MobCount      Range        `yaml:"mob_count"`
	Mobs          []SpawnEntry `yaml:"mobs"`
}

type biomeListFile struct {
	Biomes []Biome `yaml:"biomes"`
}

// BiomeTable holds biomes indexed by id, plus a stable order for weighted picks.
type BiomeTable struct {
	biomes map[string]*Biome
	order  []*Biome
}

// LoadBiomeTable loads biome definitions from a YAML file.
func LoadBiomeTable(path string) (*BiomeTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read biomes: %w", err)
	}
	var f biomeListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse biomes: %w", err)
	}
	if len(f.Biomes) == 0 {
		return nil, fmt.Errorf("biomes: table is empty")
	}
	t := &BiomeTable{biomes: make(map[string]*Biome, len(f.Biomes))}
	for i := range f.Biomes {
		b := &f.Biomes[i]
		if b.HungerMul == 0 {
			b.HungerMul = 1
		}
		if b.ThirstMul == 0 {
			b.ThirstMul = 1
		}
		if b.Weight < 1 {
			b.Weight = 1
		}
		if b.ResourceCount.Max < b.ResourceCount.Min {
			b.ResourceCount.Max = b.ResourceCount.Min
		}
		if b.MobCount.Max < b.MobCount.Min {
			b.MobCount.Max = b.MobCount.Min
		}
		t.biomes[b.ID] = b
		t.order = append(t.order, b)
	}
	sort.Slice(t.order, func(i, j int) bool { return t.order[i].ID < t.order[j].ID })
	return t, nil
}

// Get returns a biome by id, or nil if not found.
func (t *BiomeTable) Get(id string) *Biome {
	return t.biomes[id]
}

// Count returns the number of loaded biomes.
func (t *BiomeTable) Count() int {
	return len(t.biomes)
}

// Sorted returns the biomes ordered by id. Weighted picks walk this order so
// results never depend on map iteration.
func (t *BiomeTable) Sorted() []*Biome {
	return t.order
}

// Resource returns the resource row for subtype, or nil.
func (b *Biome) Resource(subtype string) *SpawnEntry {
	return findEntry(b.Resources, subtype)
}

// Mob returns the mob row for subtype, or nil.
func (b *Biome) Mob(subtype string) *SpawnEntry {
	return findEntry(b.Mobs, subtype)
}

func findEntry(rows []SpawnEntry, subtype string) *SpawnEntry {
	for i := range rows {
		if rows[i].Subtype == subtype {
			return &rows[i]
		}
	}
	return nil
}
