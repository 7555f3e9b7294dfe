package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// BonusReward is a permanent stat modifier granted on unlock.
type BonusReward struct {
	Stat string  `yaml:"stat"`
	Add  float64 `yaml:"add"`
	Mul  float64 `yaml:"mul"`
}

// Achievement unlocks once when Stat reaches Threshold.
type Achievement struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	Stat      string        `yaml:"stat"`
	Threshold int64         `yaml:"threshold"`
	XP        int64         `yaml:"xp"`
	Bonuses   []BonusReward `yaml:"bonuses"`
}

type achievementListFile struct {
	Achievements []Achievement `yaml:"achievements"`
}

// AchievementTable keeps achievements in id order; evaluation walks that order.
type AchievementTable struct {
	byID  map[string]*Achievement
	order []*Achievement
}

// LoadAchievementTable loads achievement definitions from a YAML file.
func LoadAchievementTable(path string) (*AchievementTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read achievements: %w", err)
	}
	var f achievementListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse achievements: %w", err)
	}
	t := &AchievementTable{byID: make(map[string]*Achievement, len(f.Achievements))}
	for i := range f.Achievements {
		a := &f.Achievements[i]
		t.byID[a.ID] = a
		t.order = append(t.order, a)
	}
	sort.Slice(t.order, func(i, j int) bool { return t.order[i].ID < t.order[j].ID })
	return t, nil
}

// Get returns an achievement by id, or nil if not found.
func (t *AchievementTable) Get(id string) *Achievement {
	return t.byID[id]
}

// Count returns the number of loaded achievements.
func (t *AchievementTable) Count() int {
	return len(t.order)
}

// All returns every achievement sorted by id.
func (t *AchievementTable) All() []*Achievement {
	return t.order
}
