package data

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wildhold/server/internal/world"
)

// ObjectiveKind is what a quest counts.
type ObjectiveKind string

const (
	ObjectiveGather ObjectiveKind = "gather"
	ObjectiveKill   ObjectiveKind = "kill"
	ObjectiveCraft  ObjectiveKind = "craft"
)

type Objective struct {
	Kind   ObjectiveKind `yaml:"kind"`
	Target string        `yaml:"target"` // resource subtype, mob subtype or recipe output
	Count  int           `yaml:"count"`
}

// QuestText is what the giver says at each stage.
type QuestText struct {
	Offer    string `yaml:"offer"`
	Progress string `yaml:"progress"`
	Complete string `yaml:"complete"`
	Done     string `yaml:"done"`
}

type Quest struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Giver       string            `yaml:"giver"` // npc subtype
	Objective   Objective         `yaml:"objective"`
	RewardXP    int64             `yaml:"reward_xp"`
	RewardItems []world.ItemCount `yaml:"reward_items"`
	Text        QuestText         `yaml:"text"`
}

type questListFile struct {
	Quests []Quest `yaml:"quests"`
}

// QuestTable holds quests indexed by id.
type QuestTable struct {
	quests map[string]*Quest
}

// LoadQuestTable loads quest definitions from a YAML file.
func LoadQuestTable(path string) (*QuestTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read quests: %w", err)
	}
	var f questListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse quests: %w", err)
	}
	t := &QuestTable{quests: make(map[string]*Quest, len(f.Quests))}
	for i := range f.Quests {
		q := &f.Quests[i]
		if q.Objective.Count < 1 {
			q.Objective.Count = 1
		}
		t.quests[q.ID] = q
	}
	return t, nil
}

// Get returns a quest by id, or nil if not found.
func (t *QuestTable) Get(id string) *Quest {
	return t.quests[id]
}

// Count returns the number of loaded quests.
func (t *QuestTable) Count() int {
	return len(t.quests)
}

// All returns every quest sorted by id.
func (t *QuestTable) All() []*Quest {
	out := make([]*Quest, 0, len(t.quests))
	for _, q := range t.quests {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
