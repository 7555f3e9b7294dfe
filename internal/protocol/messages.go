package protocol

import (
	"github.com/wildhold/server/internal/world"
)

// Outbound message types.
const (
	TypeWelcome        = "welcome"
	TypeSessionRevoked = "sessionRevoked"
	TypeChunkAdd       = "chunkAdd"
	TypeChunkRemove    = "chunkRemove"
	TypeEntityDelta    = "entityDelta"
	TypePlayerUpdate   = "playerUpdate"
	TypeAchievement    = "achievement"
	TypeNotification   = "notification"
	TypeError          = "error"
	TypeNPCInteraction = "npcInteraction"
	TypeQuestUpdate    = "questUpdate"
)

// Coord is a chunk coordinate on the wire.
type Coord struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

func CoordOf(c world.ChunkCoord) Coord { return Coord{X: c.X, Y: c.Y} }

// EntityView is one visible thing: a chunk entity or a player.
type EntityView struct {
	ID      string  `json:"id"`
	Kind    string  `json:"kind"`
	Subtype string  `json:"subtype,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	HP      float64 `json:"hp"`
	MaxHP   float64 `json:"max_hp"`
	Level   int     `json:"level,omitempty"`
	Hostile bool    `json:"hostile,omitempty"`
	Name    string  `json:"name,omitempty"`
	Owner   string  `json:"owner,omitempty"`
	Target  string  `json:"target,omitempty"`
}

// EntityOf converts a chunk entity.
func EntityOf(e *world.Entity) EntityView {
	return EntityView{
		ID:      e.ID,
		Kind:    e.Kind.String(),
		Subtype: e.Subtype,
		X:       e.Pos[0],
		Y:       e.Pos[1],
		HP:      e.HP,
		MaxHP:   e.MaxHP,
		Level:   e.Level,
		Hostile: e.Hostile,
		Name:    e.Name,
		Owner:   e.Owner,
		Target:  e.Target,
	}
}

// PlayerOf converts the public part of a player.
func PlayerOf(p *world.PlayerState, maxHP float64) EntityView {
	return EntityView{
		ID:    p.ID,
		Kind:  "player",
		X:     p.Pos[0],
		Y:     p.Pos[1],
		HP:    p.Vitals.HP,
		MaxHP: maxHP,
		Level: p.Level,
		Name:  p.Name,
	}
}

type Welcome struct {
	ID              string `json:"id"`
	Token           string `json:"token"`
	ProtocolVersion int    `json:"protocol_version"`
	Spawned         bool   `json:"spawned"`
}

type SessionRevoked struct {
	Reason string `json:"reason"`
}

type ChunkAdd struct {
	Coord    Coord        `json:"coord"`
	Biome    string       `json:"biome"`
	Entities []EntityView `json:"entities"`
}

type ChunkRemove struct {
	Coord Coord `json:"coord"`
}

type EntityDelta struct {
	Chunk   Coord        `json:"chunk"`
	Updates []EntityView `json:"updates"`
	Removes []string     `json:"removes"`
}

// SlotView is one inventory slot; nil slots are sent as null.
type SlotView struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

type QuestView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Progress int    `json:"progress"`
	Target   int    `json:"target"`
	State    string `json:"state"`
}

type PlayerUpdate struct {
	Inventory  []*SlotView                `json:"inventory"`
	ActiveSlot int                        `json:"active_slot"`
	XP         int64                      `json:"xp"`
	Level      int                        `json:"level"`
	Stats      world.Stats                `json:"stats"`
	Quests     []QuestView                `json:"quests"`
	Vitals     world.Vitals               `json:"vitals"`
	Bonuses    map[string]world.StatBonus `json:"bonuses,omitempty"`
}

type Achievement struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Notification struct {
	Text string `json:"text"`
}

type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// DialogueOption is one choice in an NPC dialogue.
type DialogueOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type NPCInteraction struct {
	NPCID   string           `json:"npc_id"`
	Name    string           `json:"name"`
	Text    string           `json:"text"`
	Options []DialogueOption `json:"options"`
}

type QuestUpdate struct {
	Quest QuestView `json:"quest"`
}

func (*Welcome) Type() string        { return TypeWelcome }
func (*SessionRevoked) Type() string { return TypeSessionRevoked }
func (*ChunkAdd) Type() string       { return TypeChunkAdd }
func (*ChunkRemove) Type() string    { return TypeChunkRemove }
func (*EntityDelta) Type() string    { return TypeEntityDelta }
func (*PlayerUpdate) Type() string   { return TypePlayerUpdate }
func (*Achievement) Type() string    { return TypeAchievement }
func (*Notification) Type() string   { return TypeNotification }
func (*Error) Type() string          { return TypeError }
func (*NPCInteraction) Type() string { return TypeNPCInteraction }
func (*QuestUpdate) Type() string    { return TypeQuestUpdate }
