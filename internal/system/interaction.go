package system

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildhold/server/internal/core/event"
	coresys "github.com/wildhold/server/internal/core/system"
	"github.com/wildhold/server/internal/data"
	"github.com/wildhold/server/internal/handler"
	"github.com/wildhold/server/internal/scripting"
	"github.com/wildhold/server/internal/world"
)

// InteractionSystem moves every spawned player by their held input and then
// performs at most one action each, in this order of precedence: talk to an
// NPC, eat or drink, place a structure (all on interact), gather, hit a mob,
// hit a player (all on attack). Phase 2 (Interaction).
type InteractionSystem struct {
	deps *handler.Deps
}

func NewInteractionSystem(deps *handler.Deps) *InteractionSystem {
	return &InteractionSystem{deps: deps}
}

func (s *InteractionSystem) Phase() coresys.Phase { return coresys.PhaseInteraction }

func (s *InteractionSystem) Update(dt time.Duration) {
	for _, p := range s.deps.World.Players() {
		if !p.Spawned {
			p.Input.Interact = false
			continue
		}
		s.move(p, dt)

		if p.ActionCooldown > 0 {
			p.ActionCooldown -= dt
			if p.ActionCooldown > 0 {
				continue // a pending interact waits for the cooldown
			}
		}
		interact := p.Input.Interact
		p.Input.Interact = false
		if s.act(p, interact) {
			p.ActionCooldown = s.deps.Config.Combat.ActionCooldown
		}
	}
}

func (s *InteractionSystem) move(p *world.PlayerState, dt time.Duration) {
	dir := mgl64.Vec2{p.Input.DX, p.Input.DY}
	if dir.Len() == 0 {
		return
	}
	speed := p.Bonus(world.BonusSpeed).Apply(s.deps.Config.Combat.BaseSpeed)
	before := p.Pos
	s.deps.World.MovePlayer(p, before.Add(dir.Mul(speed*dt.Seconds())))

	p.StepAccum += world.Dist(before, p.Pos)
	if whole := math.Floor(p.StepAccum); whole >= 1 {
		p.Stats.Steps += int64(whole)
		p.StepAccum -= whole
	}
}

// act reports whether an action was performed.
func (s *InteractionSystem) act(p *world.PlayerState, interact bool) bool {
	if interact && (s.talk(p) || s.consume(p) || s.place(p)) {
		return true
	}
	if p.Input.Attack {
		return s.gather(p) || s.attackMob(p) || s.attackPlayer(p)
	}
	return false
}

// nearest searches the player's chunk and its neighbours. Equal distances
// resolve to the lower id.
func (s *InteractionSystem) nearest(p *world.PlayerState, kind world.EntityKind, maxDist float64) (*world.Entity, *world.Chunk) {
	var (
		best   *world.Entity
		bestCh *world.Chunk
		bestD  float64
	)
	for _, c := range world.Square(p.Chunk, 1) {
		ch := s.deps.World.Chunk(c)
		if ch == nil {
			continue
		}
		e := ch.NearestOf(kind, p.Pos, maxDist, nil)
		if e == nil {
			continue
		}
		d := world.Dist(p.Pos, e.Pos)
		if best == nil || d < bestD || (d == bestD && e.ID < best.ID) {
			best, bestCh, bestD = e, ch, d
		}
	}
	return best, bestCh
}

func (s *InteractionSystem) talk(p *world.PlayerState) bool {
	npc, _ := s.nearest(p, world.KindNPC, s.deps.Config.Combat.InteractRange)
	if npc == nil {
		return false
	}
	tmpl := s.deps.Tables.NPCs.Get(npc.Subtype)
	if tmpl == nil {
		return false
	}
	handler.OpenDialogue(s.deps, p, npc, tmpl)
	return true
}

func (s *InteractionSystem) consume(p *world.PlayerState) bool {
	it := activeItem(s.deps.Tables, p)
	if it == nil || it.Kind != data.ItemFood {
		return false
	}
	if err := p.Inventory.TakeFromSlot(p.ActiveSlot, 1); err != nil {
		return false
	}
	v := &p.Vitals
	v.Hunger += it.Food.Hunger
	v.Thirst += it.Food.Thirst
	v.HP += it.Food.HP
	v.Temperature += it.Food.Warmth
	v.Clamp(p.Limits(s.deps.Limits()))
	p.Dirty = true
	return true
}

func (s *InteractionSystem) place(p *world.PlayerState) bool {
	it := activeItem(s.deps.Tables, p)
	if it == nil || it.Kind != data.ItemPlaceable {
		return false
	}
	pos := p.Input.Aim
	if world.Dist(p.Pos, pos) > s.deps.Config.Combat.PlaceRange {
		pos = p.Pos
	}
	lo, hi := s.deps.World.Bounds()
	pos = world.ClampBox(pos, lo, hi)
	c := world.ChunkOf(pos, s.deps.World.ChunkSize())
	if !s.deps.World.InBounds(c) {
		return false
	}
	if err := p.Inventory.TakeFromSlot(p.ActiveSlot, 1); err != nil {
		return false
	}
	ch, _ := s.deps.World.EnsureChunk(c)
	ch.Insert(&world.Entity{
		ID:      ch.NextID(world.KindStructure),
		Kind:    world.KindStructure,
		Subtype: it.Structure,
		Pos:     pos,
		HP:      it.StructureHP,
		MaxHP:   it.StructureHP,
		Owner:   p.ID,
	})
	p.Dirty = true
	return true
}

func (s *InteractionSystem) gather(p *world.PlayerState) bool {
	res, ch := s.nearest(p, world.KindResource, s.deps.Config.Combat.GatherRange)
	if res == nil {
		return false
	}
	power := 0.0
	if it := activeItem(s.deps.Tables, p); it != nil && it.Kind == data.ItemTool {
		power = it.GatherPower
	}
	row := spawnRow(s.deps.Tables, ch, res)
	item, n := "", 0
	if row != nil && row.Yield != "" {
		item = row.Yield
		n = s.deps.Scripting.CalcGatherYield(scripting.GatherContext{
			BaseYield:   row.YieldCount,
			ToolPower:   power,
			BonusAdd:    p.Bonus(world.BonusGather).Add,
			PlayerLevel: p.Level,
		})
		if err := p.Inventory.Add(item, n, s.deps.Tables.Items.StackSize(item)); err != nil {
			handler.ReplyError(s.deps, p.ID, err)
			return true
		}
	}

	res.HP -= s.deps.Config.Combat.BaseDamage * math.Max(1, power)
	ch.Dirty = true
	p.Stats.Gathers++
	p.Dirty = true
	event.Emit(s.deps.Bus, event.ResourceGathered{PlayerID: p.ID, Subtype: res.Subtype, Item: item, Count: n})

	if res.HP <= 0 {
		ch.Remove(world.KindResource, res.ID)
		ch.EnqueueRespawn(res, respawnCooldown(s.deps.Tables, ch, res))
	}
	return true
}

func (s *InteractionSystem) attackContext(p *world.PlayerState, targetLevel int, mob bool) scripting.AttackContext {
	weapon := 0.0
	if it := activeItem(s.deps.Tables, p); it != nil && (it.Kind == data.ItemWeapon || it.Kind == data.ItemTool) {
		weapon = it.Damage
	}
	b := p.Bonus(world.BonusDamage)
	return scripting.AttackContext{
		AttackerLevel: p.Level,
		BaseDamage:    s.deps.Config.Combat.BaseDamage,
		WeaponDamage:  weapon,
		BonusAdd:      b.Add,
		BonusMul:      b.Mul,
		TargetLevel:   targetLevel,
		TargetIsMob:   mob,
	}
}

func (s *InteractionSystem) attackMob(p *world.PlayerState) bool {
	mob, ch := s.nearest(p, world.KindMob, s.deps.Config.Combat.AttackRange)
	if mob == nil {
		return false
	}
	mob.HP -= s.deps.Scripting.CalcPlayerAttack(s.attackContext(p, mob.Level, true))
	mob.Target = p.ID
	ch.Dirty = true
	if mob.HP <= 0 {
		s.killMob(p, ch, mob)
	}
	return true
}

func (s *InteractionSystem) killMob(p *world.PlayerState, ch *world.Chunk, mob *world.Entity) {
	ch.Remove(world.KindMob, mob.ID)
	ch.EnqueueRespawn(mob, respawnCooldown(s.deps.Tables, ch, mob))
	p.Stats.Kills++
	p.Dirty = true
	if row := spawnRow(s.deps.Tables, ch, mob); row != nil {
		handler.GrantXP(s.deps, p, row.XP)
		if err := handler.GrantItems(s.deps, p, row.Drops); err != nil {
			handler.Notify(s.deps, p.ID, "Your pack is full. The loot is lost.")
		}
	}
	event.Emit(s.deps.Bus, event.MobKilled{PlayerID: p.ID, Subtype: mob.Subtype, Chunk: ch.Coord})
}

func (s *InteractionSystem) attackPlayer(p *world.PlayerState) bool {
	cfg := s.deps.Config.Combat
	if !cfg.PvP || s.deps.World.InSafeZone(p.Pos) {
		return false
	}
	var (
		target *world.PlayerState
		bestD  float64
	)
	for _, o := range s.deps.World.PlayersNear(p.Chunk, 1) {
		if o.ID == p.ID || s.deps.World.InSafeZone(o.Pos) {
			continue
		}
		d := world.Dist(p.Pos, o.Pos)
		if d <= cfg.AttackRange && (target == nil || d < bestD) {
			target, bestD = o, d
		}
	}
	if target == nil {
		return false
	}
	target.Vitals.HP -= s.deps.Scripting.CalcPlayerAttack(s.attackContext(p, target.Level, false))
	target.Vitals.Clamp(target.Limits(s.deps.Limits()))
	target.Dirty = true
	return true
}
