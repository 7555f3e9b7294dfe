package handler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/data"
	"github.com/wildhold/server/internal/protocol"
	"github.com/wildhold/server/internal/world"
)

// HandleAcceptQuest accepts a quest offered by an NPC within reach.
func HandleAcceptQuest(cmd command.Command, deps *Deps) {
	p := deps.World.Player(cmd.PlayerID)
	aq := cmd.AcceptQuest
	if aq == nil {
		return
	}
	_, tmpl, err := npcInReach(deps, p, aq.NPC)
	if err == nil {
		err = AcceptQuest(deps, p, tmpl, aq.Quest)
	}
	if err != nil {
		ReplyError(deps, p.ID, err)
	}
}

// AcceptQuest adds questID to the log if tmpl gives it and the player has
// never taken it.
func AcceptQuest(deps *Deps, p *world.PlayerState, tmpl *data.NpcTemplate, questID string) error {
	q := deps.Tables.Quests.Get(questID)
	if q == nil || q.Giver != tmpl.Subtype || p.Quest(questID) != nil {
		return fmt.Errorf("%w: %q", ErrQuestUnavailable, questID)
	}
	p.Quests = append(p.Quests, world.QuestProgress{QuestID: q.ID, State: world.QuestActive})
	p.Dirty = true
	sendQuest(deps, p, p.Quest(q.ID))
	deps.Log.Debug("接受任務", zap.String("player", p.ID), zap.String("quest", q.ID))
	return nil
}

// TurnInQuest pays out a completed quest. A full inventory leaves the quest
// complete so it can be handed in later.
func TurnInQuest(deps *Deps, p *world.PlayerState, q *data.Quest) error {
	qp := p.Quest(q.ID)
	if qp == nil || qp.State != world.QuestComplete {
		return fmt.Errorf("%w: %q", ErrQuestUnavailable, q.ID)
	}
	if err := GrantItems(deps, p, q.RewardItems); err != nil {
		return fmt.Errorf("quest %s reward: %w", q.ID, err)
	}
	qp.State = world.QuestTurnedIn
	p.Dirty = true
	GrantXP(deps, p, q.RewardXP)
	sendQuest(deps, p, qp)
	Notify(deps, p.ID, "Quest complete: "+q.Name+".")
	return nil
}

// AdvanceQuests credits n units of (kind, target) to every matching active
// quest of the player.
func AdvanceQuests(deps *Deps, playerID string, kind data.ObjectiveKind, target string, n int) {
	p := deps.World.Player(playerID)
	if p == nil || n <= 0 {
		return
	}
	for i := range p.Quests {
		qp := &p.Quests[i]
		if qp.State != world.QuestActive {
			continue
		}
		q := deps.Tables.Quests.Get(qp.QuestID)
		if q == nil || q.Objective.Kind != kind || q.Objective.Target != target {
			continue
		}
		qp.Progress = min(qp.Progress+n, q.Objective.Count)
		if qp.Progress >= q.Objective.Count {
			qp.State = world.QuestComplete
			Notify(deps, p.ID, q.Name+": objective met. Return to "+giverName(deps, q)+".")
		}
		p.Dirty = true
		sendQuest(deps, p, qp)
	}
}

func giverName(deps *Deps, q *data.Quest) string {
	if t := deps.Tables.NPCs.Get(q.Giver); t != nil {
		return t.Name
	}
	return q.Giver
}

func sendQuest(deps *Deps, p *world.PlayerState, qp *world.QuestProgress) {
	if qp == nil {
		return
	}
	deps.Outbox.Send(p.ID, &protocol.QuestUpdate{Quest: QuestViewOf(deps, *qp)})
}
