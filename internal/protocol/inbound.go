package protocol

// Inbound message types.
const (
	TypeHello       = "hello"
	TypeInput       = "input"
	TypeSpawn       = "spawn"
	TypeCraft       = "craft"
	TypeTrade       = "trade"
	TypeNPCAction   = "npc_action"
	TypeAcceptQuest = "accept_quest"
	TypeSelectSlot  = "select_slot"
	TypeSwapSlots   = "swap_slots"
	TypeRename      = "rename"
)

// Hello opens a session. An empty Token asks for a new player.
type Hello struct {
	ProtocolVersion int    `json:"protocol_version"`
	Token           string `json:"token,omitempty"`
	Name            string `json:"name,omitempty"`
}

type InputMsg struct {
	DX       float64 `json:"dx"`
	DY       float64 `json:"dy"`
	Attack   bool    `json:"attack"`
	Interact bool    `json:"interact"`
	AimX     float64 `json:"aim_x"`
	AimY     float64 `json:"aim_y"`
}

type SpawnMsg struct {
	Settlement string `json:"settlement,omitempty"`
}

type CraftMsg struct {
	Recipe string `json:"recipe"`
}

type TradeMsg struct {
	NPC   string `json:"npc"`
	Offer string `json:"offer"`
}

type NPCActionMsg struct {
	NPC    string `json:"npc"`
	Option string `json:"option,omitempty"`
}

type AcceptQuestMsg struct {
	NPC   string `json:"npc"`
	Quest string `json:"quest"`
}

type SelectSlotMsg struct {
	Slot int `json:"slot"`
}

type SwapSlotsMsg struct {
	A int `json:"a"`
	B int `json:"b"`
}

type RenameMsg struct {
	Name string `json:"name"`
}
