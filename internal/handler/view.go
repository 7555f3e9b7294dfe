package handler

import (
	"github.com/wildhold/server/internal/protocol"
	"github.com/wildhold/server/internal/world"
)

// PlayerUpdateFor builds the private state message for p.
func PlayerUpdateFor(deps *Deps, p *world.PlayerState) *protocol.PlayerUpdate {
	inv := make([]*protocol.SlotView, p.Inventory.Size())
	for i, s := range p.Inventory.Slots {
		if s != nil {
			inv[i] = &protocol.SlotView{Item: s.Item, Count: s.Count}
		}
	}
	quests := make([]protocol.QuestView, 0, len(p.Quests))
	for _, qp := range p.Quests {
		quests = append(quests, QuestViewOf(deps, qp))
	}
	var bonuses map[string]world.StatBonus
	if len(p.Bonuses) > 0 {
		bonuses = make(map[string]world.StatBonus, len(p.Bonuses))
		for k, v := range p.Bonuses {
			bonuses[k] = v
		}
	}
	return &protocol.PlayerUpdate{
		Inventory:  inv,
		ActiveSlot: p.ActiveSlot,
		XP:         p.XP,
		Level:      p.Level,
		Stats:      p.Stats,
		Quests:     quests,
		Vitals:     p.Vitals,
		Bonuses:    bonuses,
	}
}

// QuestViewOf renders one quest log entry.
func QuestViewOf(deps *Deps, qp world.QuestProgress) protocol.QuestView {
	v := protocol.QuestView{ID: qp.QuestID, Name: qp.QuestID, Progress: qp.Progress, State: string(qp.State)}
	if q := deps.Tables.Quests.Get(qp.QuestID); q != nil {
		v.Name = q.Name
		v.Target = q.Objective.Count
	}
	return v
}
