// Package command holds the inbound commands the transport hands to the game
// loop and the bounded queue they travel through.
package command

import (
	"github.com/wildhold/server/internal/protocol"
	"github.com/wildhold/server/internal/world"
)

// Kind enumerates the supported commands.
type Kind string

const (
	KindJoin        Kind = "join"
	KindLeave       Kind = "leave"
	KindInput       Kind = "input"
	KindSpawn       Kind = "spawn"
	KindCraft       Kind = "craft"
	KindTrade       Kind = "trade"
	KindNPCAction   Kind = "npc_action"
	KindAcceptQuest Kind = "accept_quest"
	KindSelectSlot  Kind = "select_slot"
	KindSwapSlots   Kind = "swap_slots"
	KindRename      Kind = "rename"
)

// JoinCommand attaches a session to a player. Player is the state resolved
// from the rejoin token off the loop; nil means a new player is created.
type JoinCommand struct {
	SessionID string
	Sink      protocol.Sink
	Player    *world.PlayerState
	Token     string
	Name      string
}

// LeaveCommand detaches a session. It is ignored if another session has
// already taken the player over.
type LeaveCommand struct {
	SessionID string
}

// InputCommand replaces the player's buffered input snapshot.
type InputCommand struct {
	DX       float64
	DY       float64
	Attack   bool
	Interact bool
	AimX     float64
	AimY     float64
}

// SpawnCommand asks to enter play. Settlement may name a preferred respawn
// point; empty picks the nearest.
type SpawnCommand struct {
	Settlement string
}

type CraftCommand struct {
	Recipe string
}

type TradeCommand struct {
	NPC   string
	Offer string
}

// NPCActionCommand is a dialogue step. An empty Option opens the dialogue.
type NPCActionCommand struct {
	NPC    string
	Option string
}

type AcceptQuestCommand struct {
	NPC   string
	Quest string
}

type SelectSlotCommand struct {
	Slot int
}

type SwapSlotsCommand struct {
	A int
	B int
}

type RenameCommand struct {
	Name string
}

// Command is one intent captured for processing at the start of the next
// tick. Exactly one payload pointer matching Kind is set.
type Command struct {
	Kind     Kind
	PlayerID string

	Join        *JoinCommand
	Leave       *LeaveCommand
	Input       *InputCommand
	Spawn       *SpawnCommand
	Craft       *CraftCommand
	Trade       *TradeCommand
	NPCAction   *NPCActionCommand
	AcceptQuest *AcceptQuestCommand
	SelectSlot  *SelectSlotCommand
	SwapSlots   *SwapSlotsCommand
	Rename      *RenameCommand
}
