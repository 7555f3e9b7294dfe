package handler

import (
	"fmt"
	"strings"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/data"
	"github.com/wildhold/server/internal/protocol"
	"github.com/wildhold/server/internal/world"
)

// DialogueKind tags which branch of an NPC conversation is open. The branch
// is derived from the player's quest log for that NPC's quests.
type DialogueKind int

const (
	DialogueGreeting      DialogueKind = iota // nothing quest-related to say
	DialogueQuestOffer                        // Quest can be accepted
	DialogueQuestProgress                     // Quest is active
	DialogueQuestTurnIn                       // Quest objective met
	DialogueQuestDone                         // every quest turned in
)

func (k DialogueKind) String() string {
	switch k {
	case DialogueGreeting:
		return "greeting"
	case DialogueQuestOffer:
		return "offer"
	case DialogueQuestProgress:
		return "progress"
	case DialogueQuestTurnIn:
		return "turn_in"
	case DialogueQuestDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Dialogue is the open conversation between a player and one NPC.
type Dialogue struct {
	Kind  DialogueKind
	NPCID string
	Quest *data.Quest // nil for greeting
}

// Dialogue option ids. Parameterised options are "<prefix><id>".
const (
	optionBye     = "bye"
	optionUpgrade = "upgrade"
	prefixAccept  = "accept:"
	prefixTurnIn  = "turn_in:"
	prefixTrade   = "trade:"
)

// resolveDialogue picks the branch for p talking to tmpl: a finished quest to
// hand in wins, then one in progress, then a new offer.
func resolveDialogue(deps *Deps, p *world.PlayerState, npcID string, tmpl *data.NpcTemplate) *Dialogue {
	d := &Dialogue{Kind: DialogueGreeting, NPCID: npcID}
	var progress, offer, done *data.Quest
	for _, qid := range tmpl.Quests {
		q := deps.Tables.Quests.Get(qid)
		if q == nil {
			continue
		}
		qp := p.Quest(qid)
		switch {
		case qp == nil:
			if offer == nil {
				offer = q
			}
		case qp.State == world.QuestComplete:
			d.Kind, d.Quest = DialogueQuestTurnIn, q
			return d
		case qp.State == world.QuestActive:
			if progress == nil {
				progress = q
			}
		case qp.State == world.QuestTurnedIn:
			done = q
		}
	}
	switch {
	case progress != nil:
		d.Kind, d.Quest = DialogueQuestProgress, progress
	case offer != nil:
		d.Kind, d.Quest = DialogueQuestOffer, offer
	case done != nil:
		d.Kind, d.Quest = DialogueQuestDone, done
	}
	return d
}

// render builds the message the client shows for d.
func (d *Dialogue) render(deps *Deps, npc *world.Entity, tmpl *data.NpcTemplate) *protocol.NPCInteraction {
	msg := &protocol.NPCInteraction{NPCID: npc.ID, Name: tmpl.Name, Text: tmpl.Greeting}
	switch d.Kind {
	case DialogueQuestOffer:
		msg.Text = d.Quest.Text.Offer
		msg.Options = append(msg.Options, protocol.DialogueOption{
			ID: prefixAccept + d.Quest.ID, Label: "Accept: " + d.Quest.Name,
		})
	case DialogueQuestProgress:
		msg.Text = d.Quest.Text.Progress
	case DialogueQuestTurnIn:
		msg.Text = d.Quest.Text.Complete
		msg.Options = append(msg.Options, protocol.DialogueOption{
			ID: prefixTurnIn + d.Quest.ID, Label: "Hand in: " + d.Quest.Name,
		})
	case DialogueQuestDone:
		msg.Text = d.Quest.Text.Done
	}
	for _, o := range tmpl.Barter {
		msg.Options = append(msg.Options, protocol.DialogueOption{
			ID: prefixTrade + o.ID, Label: "Trade " + describe(deps, o.Give) + " for " + describe(deps, o.Take),
		})
	}
	if tmpl.Keeper {
		if st := deps.World.Settlement(npc.Owner); st != nil {
			msg.Options = append(msg.Options, protocol.DialogueOption{
				ID: optionUpgrade, Label: fmt.Sprintf("Feed the barrier core (level %d)", st.Level),
			})
		}
	}
	msg.Options = append(msg.Options, protocol.DialogueOption{ID: optionBye, Label: "Farewell"})
	return msg
}

func describe(deps *Deps, items []world.ItemCount) string {
	parts := make([]string, len(items))
	for i, ic := range items {
		parts[i] = fmt.Sprintf("%d %s", ic.Count, itemName(deps, ic.Item))
	}
	return strings.Join(parts, ", ")
}

// OpenDialogue starts (or restarts) a conversation and sends its first page.
func OpenDialogue(deps *Deps, p *world.PlayerState, npc *world.Entity, tmpl *data.NpcTemplate) {
	d := resolveDialogue(deps, p, npc.ID, tmpl)
	deps.Dialogues[p.ID] = d
	deps.Outbox.Send(p.ID, d.render(deps, npc, tmpl))
}

// HandleNPCAction advances a dialogue. An empty option opens it. Options are
// only valid for the branch that is currently open.
func HandleNPCAction(cmd command.Command, deps *Deps) {
	p := deps.World.Player(cmd.PlayerID)
	act := cmd.NPCAction
	if act == nil {
		return
	}
	npc, tmpl, err := npcInReach(deps, p, act.NPC)
	if err != nil {
		ReplyError(deps, p.ID, err)
		return
	}
	d := deps.Dialogues[p.ID]
	if act.Option == "" || d == nil || d.NPCID != npc.ID {
		OpenDialogue(deps, p, npc, tmpl)
		return
	}

	switch opt := act.Option; {
	case opt == optionBye:
		delete(deps.Dialogues, p.ID)
		return
	case opt == optionUpgrade && tmpl.Keeper:
		err = UpgradeSettlement(deps, p, npc)
	case strings.HasPrefix(opt, prefixAccept):
		qid := strings.TrimPrefix(opt, prefixAccept)
		if d.Kind != DialogueQuestOffer || d.Quest.ID != qid {
			err = fmt.Errorf("%w: %q", ErrQuestUnavailable, qid)
		} else {
			err = AcceptQuest(deps, p, tmpl, qid)
		}
	case strings.HasPrefix(opt, prefixTurnIn):
		qid := strings.TrimPrefix(opt, prefixTurnIn)
		if d.Kind != DialogueQuestTurnIn || d.Quest.ID != qid {
			err = fmt.Errorf("%w: %q", ErrQuestUnavailable, qid)
		} else {
			err = TurnInQuest(deps, p, d.Quest)
		}
	case strings.HasPrefix(opt, prefixTrade):
		oid := strings.TrimPrefix(opt, prefixTrade)
		if offer := tmpl.Offer(oid); offer == nil {
			err = fmt.Errorf("%w: offer %q", ErrUnknownTarget, oid)
		} else {
			err = Barter(deps, p, offer)
		}
	default:
		err = fmt.Errorf("%w: option %q", ErrUnknownTarget, opt)
	}
	if err != nil {
		ReplyError(deps, p.ID, err)
		return
	}
	OpenDialogue(deps, p, npc, tmpl)
}
