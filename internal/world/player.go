package world

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Vitals are each clamped to [0, max] after every system that touches them.
type Vitals struct {
	HP          float64 `json:"hp"`
	Hunger      float64 `json:"hunger"`
	Thirst      float64 `json:"thirst"`
	Temperature float64 `json:"temperature"`
}

// VitalLimits are the upper bounds used by Clamp.
type VitalLimits struct {
	MaxHP          float64
	MaxHunger      float64
	MaxThirst      float64
	MaxTemperature float64
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp forces every vital into [0, max].
func (v *Vitals) Clamp(l VitalLimits) {
	v.HP = clamp(v.HP, 0, l.MaxHP)
	v.Hunger = clamp(v.Hunger, 0, l.MaxHunger)
	v.Thirst = clamp(v.Thirst, 0, l.MaxThirst)
	v.Temperature = clamp(v.Temperature, 0, l.MaxTemperature)
}

// Stats are the generic counters achievements and quests read.
type Stats struct {
	Steps   int64 `json:"steps"`
	Kills   int64 `json:"kills"`
	Crafts  int64 `json:"crafts"`
	Gathers int64 `json:"gathers"`
	Deaths  int64 `json:"deaths"`
}

// Get returns the counter by name.
func (s Stats) Get(name string) (int64, bool) {
	switch name {
	case "steps":
		return s.Steps, true
	case "kills":
		return s.Kills, true
	case "crafts":
		return s.Crafts, true
	case "gathers":
		return s.Gathers, true
	case "deaths":
		return s.Deaths, true
	}
	return 0, false
}

// Bonus stat names understood by the simulation.
const (
	BonusMaxHP  = "max_hp"
	BonusSpeed  = "speed"
	BonusDamage = "damage"
	BonusGather = "gather"
)

// StatBonus accumulates additive and multiplicative modifiers for one stat.
// A zero Mul means "no multiplier".
type StatBonus struct {
	Add float64 `json:"add"`
	Mul float64 `json:"mul"`
}

// Apply returns (base + Add) * Mul.
func (b StatBonus) Apply(base float64) float64 {
	m := b.Mul
	if m == 0 {
		m = 1
	}
	return (base + b.Add) * m
}

// QuestState is where a player stands on one quest.
type QuestState string

const (
	QuestActive   QuestState = "active"
	QuestComplete QuestState = "complete" // objective met, not yet turned in
	QuestTurnedIn QuestState = "turned_in"
)

// QuestProgress is one entry of a player's quest log.
type QuestProgress struct {
	QuestID  string     `json:"quest_id"`
	Progress int        `json:"progress"`
	State    QuestState `json:"state"`
}

// InputState is the latest input snapshot a client sent. Movement and attack
// are held; Interact is consumed by the tick that handles it.
type InputState struct {
	DX       float64
	DY       float64
	Attack   bool
	Interact bool
	Aim      mgl64.Vec2
}

// PlayerState is everything the server knows about one player. Owned by State
// and referenced elsewhere by ID only.
type PlayerState struct {
	ID    string
	Token string
	Name  string
	Level int
	XP    int64

	Pos   mgl64.Vec2
	Chunk ChunkCoord

	Vitals     Vitals
	Inventory  *Inventory
	ActiveSlot int

	Stats        Stats
	Achievements map[string]bool
	Bonuses      map[string]StatBonus
	Quests       []QuestProgress

	Spawned    bool
	ActiveView map[ChunkCoord]struct{}
	Input      InputState

	// Runtime only.
	ActionCooldown time.Duration
	StepAccum      float64

	// Dirty is set whenever persisted state changes.
	Dirty bool
}

// NewPlayer builds a fresh level-1 player with full vitals.
func NewPlayer(id, token, name string, invSize int, limits VitalLimits, neutralTemp float64) *PlayerState {
	return &PlayerState{
		ID:           id,
		Token:        token,
		Name:         name,
		Level:        1,
		Inventory:    NewInventory(invSize),
		Vitals:       DefaultVitals(limits, neutralTemp),
		Achievements: make(map[string]bool),
		Bonuses:      make(map[string]StatBonus),
		ActiveView:   make(map[ChunkCoord]struct{}),
		Dirty:        true,
	}
}

// DefaultVitals are the vitals a new or respawning player starts with.
func DefaultVitals(l VitalLimits, neutralTemp float64) Vitals {
	return Vitals{
		HP:          l.MaxHP,
		Hunger:      l.MaxHunger,
		Thirst:      l.MaxThirst,
		Temperature: clamp(neutralTemp, 0, l.MaxTemperature),
	}
}

// Bonus returns the accumulated modifier for stat.
func (p *PlayerState) Bonus(stat string) StatBonus {
	return p.Bonuses[stat]
}

// AddBonus folds an achievement reward into the bonus map.
func (p *PlayerState) AddBonus(stat string, add, mul float64) {
	if p.Bonuses == nil {
		p.Bonuses = make(map[string]StatBonus)
	}
	b := p.Bonuses[stat]
	b.Add += add
	if mul != 0 {
		if b.Mul == 0 {
			b.Mul = 1
		}
		b.Mul *= mul
	}
	p.Bonuses[stat] = b
}

// Limits returns the vital limits with the max_hp bonus applied.
func (p *PlayerState) Limits(base VitalLimits) VitalLimits {
	base.MaxHP = p.Bonus(BonusMaxHP).Apply(base.MaxHP)
	return base
}

// Quest returns the log entry for questID, or nil.
func (p *PlayerState) Quest(questID string) *QuestProgress {
	for i := range p.Quests {
		if p.Quests[i].QuestID == questID {
			return &p.Quests[i]
		}
	}
	return nil
}

// Snapshot deep-copies the persistent fields for an asynchronous save.
func (p *PlayerState) Snapshot() *PlayerState {
	cp := &PlayerState{
		ID:           p.ID,
		Token:        p.Token,
		Name:         p.Name,
		Level:        p.Level,
		XP:           p.XP,
		Pos:          p.Pos,
		Chunk:        p.Chunk,
		Vitals:       p.Vitals,
		Inventory:    p.Inventory.Clone(),
		ActiveSlot:   p.ActiveSlot,
		Stats:        p.Stats,
		Achievements: make(map[string]bool, len(p.Achievements)),
		Bonuses:      make(map[string]StatBonus, len(p.Bonuses)),
		Quests:       append([]QuestProgress(nil), p.Quests...),
		Spawned:      p.Spawned,
	}
	for k, v := range p.Achievements {
		cp.Achievements[k] = v
	}
	for k, v := range p.Bonuses {
		cp.Bonuses[k] = v
	}
	return cp
}
