package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wildhold/server/internal/world"
)

// BarterOffer is a fixed trade an NPC accepts: the player hands over Give and
// receives Take.
type BarterOffer struct {
	ID   string            `yaml:"id"`
	Give []world.ItemCount `yaml:"give"`
	Take []world.ItemCount `yaml:"take"`
}

// NpcTemplate holds static data for an NPC type loaded from YAML.
type NpcTemplate struct {
	Subtype  string        `yaml:"subtype"`
	Name     string        `yaml:"name"`
	HP       float64       `yaml:"hp"`
	Greeting string        `yaml:"greeting"`
	Quests   []string      `yaml:"quests"`
	Barter   []BarterOffer `yaml:"barter"`
	// Keeper NPCs tend a settlement's barrier core and offer upgrades.
	Keeper bool `yaml:"keeper"`
}

// Offer returns the barter offer with id, or nil.
func (n *NpcTemplate) Offer(id string) *BarterOffer {
	for i := range n.Barter {
		if n.Barter[i].ID == id {
			return &n.Barter[i]
		}
	}
	return nil
}

type npcListFile struct {
	Npcs []NpcTemplate `yaml:"npcs"`
}

// NpcTable holds all NPC templates indexed by subtype.
type NpcTable struct {
	templates map[string]*NpcTemplate
}

// LoadNpcTable loads NPC templates from a YAML file.
func LoadNpcTable(path string) (*NpcTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read npcs: %w", err)
	}
	var f npcListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse npcs: %w", err)
	}
	t := &NpcTable{templates: make(map[string]*NpcTemplate, len(f.Npcs))}
	for i := range f.Npcs {
		npc := &f.Npcs[i]
		if npc.HP <= 0 {
			npc.HP = 100
		}
		t.templates[npc.Subtype] = npc
	}
	return t, nil
}

// Get returns an NPC template by subtype, or nil if not found.
func (t *NpcTable) Get(subtype string) *NpcTemplate {
	return t.templates[subtype]
}

// Count returns the number of loaded templates.
func (t *NpcTable) Count() int {
	return len(t.templates)
}
