package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/config"
	"github.com/wildhold/server/internal/data"
	"github.com/wildhold/server/internal/handler"
	"github.com/wildhold/server/internal/protocol"
	"github.com/wildhold/server/internal/world"
)

// wildsCenter is the middle of chunk (3,3), far from every settlement.
var wildsCenter = mgl64.Vec2{448, 448}

// sent returns every recorded message of type T.
func sent[T protocol.Message](r *recorder) []T {
	var out []T
	for _, m := range r.msgs {
		if v, ok := m.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// toWilds empties the chunks around (3,3), moves p to their centre and runs
// one tick so the active set follows the player.
func toWilds(t *testing.T, e *Engine, p *world.PlayerState) *world.Chunk {
	t.Helper()
	c := world.ChunkCoord{X: 3, Y: 3}
	for _, n := range world.Square(c, 1) {
		ch, _ := e.World().EnsureChunk(n)
		clear(ch.Resources)
		clear(ch.Mobs)
		clear(ch.Structures)
		clear(ch.NPCs)
		ch.RespawnQueue = nil
	}
	e.World().MovePlayer(p, wildsCenter)
	if e.World().InSafeZone(p.Pos) {
		t.Fatalf("wilds at %v are inside a safe zone", p.Pos)
	}
	e.Step(dt)
	p.ActionCooldown = 0
	return e.World().Chunk(c)
}

func put(ch *world.Chunk, kind world.EntityKind, subtype string, pos mgl64.Vec2, hp float64) *world.Entity {
	ent := &world.Entity{
		ID:      ch.NextID(kind),
		Kind:    kind,
		Subtype: subtype,
		Pos:     pos,
		HP:      hp,
		MaxHP:   hp,
		Level:   1,
	}
	ch.Insert(ent)
	return ent
}

func TestViewAtOriginCoversNineChunks(t *testing.T) {
	e := newTestEngineWith(t, newMemStore(), func(c *config.Config) {
		c.World.ViewRadius = 1
		c.World.SimRadius = 1
	})
	sink, pid := join(t, e, "s1", "Ana", "")
	p := spawn(t, e, pid)

	e.World().MovePlayer(p, mgl64.Vec2{0, 0})
	e.Step(dt)
	if len(p.ActiveView) != 9 {
		t.Fatalf("active view %d chunks at origin, want 9", len(p.ActiveView))
	}
	for _, c := range world.Square(world.ChunkCoord{}, 1) {
		if _, ok := p.ActiveView[c]; !ok {
			t.Fatalf("chunk %v missing from the view", c)
		}
	}

	sink.reset()
	e.World().MovePlayer(p, mgl64.Vec2{200, 0})
	e.Step(dt)
	adds, removes := sink.chunkMessages()
	if len(adds) == 0 || len(removes) == 0 {
		t.Fatalf("adds=%v removes=%v", adds, removes)
	}
	if len(p.ActiveView) != 9 {
		t.Fatalf("active view %d chunks after moving, want 9", len(p.ActiveView))
	}
}

func TestActionPrecedence(t *testing.T) {
	e := newTestEngine(t, newMemStore())
	sink, pid := join(t, e, "s1", "Ana", "")
	p := spawn(t, e, pid)
	ch := toWilds(t, e, p)

	npc := put(ch, world.KindNPC, "herbalist", wildsCenter.Add(mgl64.Vec2{1, 0}), 120)
	tree := put(ch, world.KindResource, "tree", wildsCenter.Add(mgl64.Vec2{0, 1}), 100)
	deer := put(ch, world.KindMob, "deer", wildsCenter.Add(mgl64.Vec2{0, -1}), 100)
	sizeOf := e.Deps().Tables.Items.StackSize
	if err := p.Inventory.Add("berries", 3, sizeOf("berries")); err != nil {
		t.Fatalf("berries: %v", err)
	}
	if err := p.Inventory.Add("campfire", 1, sizeOf("campfire")); err != nil {
		t.Fatalf("campfire: %v", err)
	}

	act := func(interact bool) {
		t.Helper()
		p.ActionCooldown = 0
		p.Input = world.InputState{Attack: true, Interact: interact, Aim: wildsCenter.Add(mgl64.Vec2{2, 2})}
		sink.reset()
		e.Step(dt)
	}

	// NPC first.
	act(true)
	if len(sent[*protocol.NPCInteraction](sink)) != 1 {
		t.Fatalf("no dialogue opened")
	}
	if p.Inventory.Count("berries") != 3 || tree.HP != 100 || deer.HP != 100 {
		t.Fatalf("more than one action: berries=%d tree=%v deer=%v", p.Inventory.Count("berries"), tree.HP, deer.HP)
	}

	// Then the food in the active slot.
	ch.Remove(world.KindNPC, npc.ID)
	act(true)
	if p.Inventory.Count("berries") != 2 || tree.HP != 100 {
		t.Fatalf("consume: berries=%d tree=%v", p.Inventory.Count("berries"), tree.HP)
	}

	// Then a placeable.
	p.ActiveSlot = 1
	act(true)
	if p.Inventory.Count("campfire") != 0 || len(ch.Structures) != 1 || tree.HP != 100 {
		t.Fatalf("place: campfires=%d structures=%d tree=%v", p.Inventory.Count("campfire"), len(ch.Structures), tree.HP)
	}

	// Attack alone gathers before it hits a mob.
	act(false)
	if tree.HP >= 100 || deer.HP != 100 {
		t.Fatalf("gather: tree=%v deer=%v", tree.HP, deer.HP)
	}

	ch.Remove(world.KindResource, tree.ID)
	act(false)
	if deer.HP >= 100 {
		t.Fatalf("mob not hit: deer=%v", deer.HP)
	}

	// Players are last, and only outside safe zones.
	ch.Remove(world.KindMob, deer.ID)
	_, bid := join(t, e, "s2", "Bo", "")
	bo := spawn(t, e, bid)
	e.World().MovePlayer(bo, wildsCenter.Add(mgl64.Vec2{2, 0}))
	hp := bo.Vitals.HP
	act(false)
	if bo.Vitals.HP > hp-4 {
		t.Fatalf("pvp outside the barrier: hp %v -> %v", hp, bo.Vitals.HP)
	}

	haven := e.World().Settlement("haven")
	e.World().MovePlayer(p, haven.Pos)
	e.World().MovePlayer(bo, haven.Pos.Add(mgl64.Vec2{1, 0}))
	hp = bo.Vitals.HP
	act(false)
	if bo.Vitals.HP < hp-0.5 {
		t.Fatalf("pvp inside the barrier: hp %v -> %v", hp, bo.Vitals.HP)
	}
}

func TestGatherReachesAcrossChunkEdge(t *testing.T) {
	e := newTestEngine(t, newMemStore())
	_, pid := join(t, e, "s1", "Ana", "")
	p := spawn(t, e, pid)
	toWilds(t, e, p)

	e.World().MovePlayer(p, mgl64.Vec2{511, 448})
	east := e.World().Chunk(world.ChunkCoord{X: 4, Y: 3})
	tree := put(east, world.KindResource, "tree", mgl64.Vec2{513, 448}, 100)

	p.ActionCooldown = 0
	p.Input = world.InputState{Attack: true}
	e.Step(dt)
	if tree.HP >= 100 {
		t.Fatalf("resource in the neighbouring chunk was not gathered")
	}
}

func TestHostileMobChasesAndHitsOnContact(t *testing.T) {
	e := newTestEngine(t, newMemStore())
	_, pid := join(t, e, "s1", "Ana", "")
	p := spawn(t, e, pid)
	ch := toWilds(t, e, p)

	far := put(ch, world.KindMob, "wolf", wildsCenter.Add(mgl64.Vec2{10, 0}), 35)
	far.Hostile = true
	near := put(ch, world.KindMob, "wolf", wildsCenter.Add(mgl64.Vec2{1, 0}), 35)
	near.Hostile = true

	hp := p.Vitals.HP
	e.Step(dt)
	if d := world.Dist(far.Pos, p.Pos); d >= 10 {
		t.Fatalf("wolf did not close in: distance %v", d)
	}
	if far.Target != pid || near.Target != pid {
		t.Fatalf("targets %q, %q", far.Target, near.Target)
	}
	if hp-p.Vitals.HP < 4.5 {
		t.Fatalf("no contact damage: hp %v -> %v", hp, p.Vitals.HP)
	}
	if near.ContactCD <= 0 {
		t.Fatalf("contact cooldown not started")
	}

	hp = p.Vitals.HP
	e.Step(dt)
	if hp-p.Vitals.HP > 1 {
		t.Fatalf("hit again inside the contact interval: hp %v -> %v", hp, p.Vitals.HP)
	}
}

func TestAIOnlyRunsActiveChunks(t *testing.T) {
	e := newTestEngine(t, newMemStore())
	_, pid := join(t, e, "s1", "Ana", "")
	p := spawn(t, e, pid)
	ch := toWilds(t, e, p)

	in := put(ch, world.KindMob, "deer", wildsCenter.Add(mgl64.Vec2{20, 20}), 20)
	farCh, _ := e.World().EnsureChunk(world.ChunkCoord{X: 10, Y: 10})
	out := put(farCh, world.KindMob, "deer", mgl64.Vec2{1344, 1344}, 20)
	for _, m := range []*world.Entity{in, out} {
		m.Heading = mgl64.Vec2{1, 0}
		m.WanderLeft = 10 * time.Second
	}
	if e.World().IsActive(farCh.Coord) {
		t.Fatalf("chunk %v should be outside the simulation radius", farCh.Coord)
	}

	inPos, outPos := in.Pos, out.Pos
	e.Step(dt)
	if in.Pos == inPos {
		t.Fatalf("mob in an active chunk did not move")
	}
	if out.Pos != outPos {
		t.Fatalf("mob outside the active set moved %v -> %v", outPos, out.Pos)
	}
}

func TestDeathRequiresSpawn(t *testing.T) {
	e := newTestEngine(t, newMemStore())
	sink, pid := join(t, e, "s1", "Ana", "")
	p := spawn(t, e, pid)
	view := len(p.ActiveView)
	sink.reset()

	p.Vitals.HP = 0
	p.Vitals.Hunger = 0
	e.Step(dt)

	if p.Spawned {
		t.Fatalf("dead player still spawned")
	}
	if p.Stats.Deaths != 1 {
		t.Fatalf("deaths=%d", p.Stats.Deaths)
	}
	l := p.Limits(e.Deps().Limits())
	if p.Vitals.HP != l.MaxHP || p.Vitals.Hunger != l.MaxHunger {
		t.Fatalf("vitals not reset: %+v", p.Vitals)
	}
	if _, removes := sink.chunkMessages(); len(p.ActiveView) != 0 || len(removes) != view {
		t.Fatalf("view=%d removes=%d, want 0 and %d", len(p.ActiveView), len(removes), view)
	}
	died := false
	for _, n := range sent[*protocol.Notification](sink) {
		if strings.Contains(n.Text, "starvation") {
			died = true
		}
	}
	if !died {
		t.Fatalf("no death notice")
	}

	sink.reset()
	e.Enqueue(command.Command{Kind: command.KindInput, PlayerID: pid, Input: &command.InputCommand{DX: 1}})
	e.Step(dt)
	if errs := sink.errors(); len(errs) != 1 || errs[0].Code != protocol.CodeNotSpawned {
		t.Fatalf("errors=%+v", errs)
	}
	spawn(t, e, pid)
}

func TestAchievementPaysOnce(t *testing.T) {
	e := newTestEngine(t, newMemStore())
	sink, pid := join(t, e, "s1", "Ana", "")
	p := e.World().Player(pid)
	sink.reset()

	p.Stats.Deaths = 3
	for i := 0; i < 3; i++ {
		e.Step(dt)
	}

	if !p.Achievements["survivor"] {
		t.Fatalf("survivor not unlocked")
	}
	if b := p.Bonus(world.BonusMaxHP); b.Add != 10 {
		t.Fatalf("max_hp bonus %+v, want +10 once", b)
	}
	if p.XP != 25 || p.Level != 1 {
		t.Fatalf("xp=%d level=%d, want 25 at level 1", p.XP, p.Level)
	}
	n := 0
	for _, a := range sent[*protocol.Achievement](sink) {
		if a.ID == "survivor" {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("achievement announced %d times", n)
	}
}

func TestPlayerUpdateCadence(t *testing.T) {
	e := newTestEngine(t, newMemStore())
	sink, pid := join(t, e, "s1", "Ana", "")
	spawn(t, e, pid)
	sink.reset()

	every := e.cfg.Broadcast.PrivateEveryTicks
	for i := 0; i < 2*every; i++ {
		e.Step(dt)
	}
	if n := len(sent[*protocol.PlayerUpdate](sink)); n != 2 {
		t.Fatalf("%d player updates over %d ticks, want 2", n, 2*every)
	}
}

func TestQuestProgressAndTurnIn(t *testing.T) {
	e := newTestEngine(t, newMemStore())
	sink, pid := join(t, e, "s1", "Ana", "")
	p := spawn(t, e, pid)
	ch := toWilds(t, e, p)

	if err := handler.AcceptQuest(e.Deps(), p, e.Deps().Tables.NPCs.Get("herbalist"), "berry_run"); err != nil {
		t.Fatalf("accept: %v", err)
	}
	put(ch, world.KindResource, "berry_bush", wildsCenter.Add(mgl64.Vec2{1, 0}), 100)

	p.Input = world.InputState{Attack: true}
	e.Step(dt)
	if p.Stats.Gathers != 1 {
		t.Fatalf("gathers=%d", p.Stats.Gathers)
	}
	if qp := p.Quest("berry_run"); qp.Progress != 0 {
		t.Fatalf("progress %d before the event was delivered", qp.Progress)
	}
	e.Step(dt)
	if qp := p.Quest("berry_run"); qp.Progress != 1 {
		t.Fatalf("progress=%d after delivery", qp.Progress)
	}

	p.Input = world.InputState{}
	handler.AdvanceQuests(e.Deps(), pid, data.ObjectiveGather, "berry_bush", 4)
	if qp := p.Quest("berry_run"); qp.State != world.QuestComplete {
		t.Fatalf("state=%s", qp.State)
	}

	npc := put(ch, world.KindNPC, "herbalist", wildsCenter.Add(mgl64.Vec2{0, 2}), 120)
	tea, xp := p.Inventory.Count("herbal_tea"), p.XP
	sink.reset()
	e.Enqueue(command.Command{Kind: command.KindNPCAction, PlayerID: pid, NPCAction: &command.NPCActionCommand{NPC: npc.ID}})
	e.Enqueue(command.Command{Kind: command.KindNPCAction, PlayerID: pid, NPCAction: &command.NPCActionCommand{NPC: npc.ID, Option: "turn_in:berry_run"}})
	e.Step(dt)

	if errs := sink.errors(); len(errs) != 0 {
		t.Fatalf("errors=%+v", errs)
	}
	if qp := p.Quest("berry_run"); qp.State != world.QuestTurnedIn {
		t.Fatalf("state=%s after turn-in", qp.State)
	}
	if got := p.Inventory.Count("herbal_tea"); got != tea+2 {
		t.Fatalf("herbal_tea=%d, want %d", got, tea+2)
	}
	if p.XP != xp+30 {
		t.Fatalf("xp=%d, want %d", p.XP, xp+30)
	}
}

func TestBarterIsAtomic(t *testing.T) {
	e := newTestEngine(t, newMemStore())
	sink, pid := join(t, e, "s1", "Ana", "")
	p := spawn(t, e, pid)
	ch := toWilds(t, e, p)
	npc := put(ch, world.KindNPC, "wanderer", wildsCenter.Add(mgl64.Vec2{1, 0}), 150)
	sizeOf := e.Deps().Tables.Items.StackSize

	trade := func(offer string) {
		t.Helper()
		sink.reset()
		e.Enqueue(command.Command{Kind: command.KindTrade, PlayerID: pid, Trade: &command.TradeCommand{NPC: npc.ID, Offer: offer}})
		e.Step(dt)
	}

	if err := p.Inventory.Add("hide", 4, sizeOf("hide")); err != nil {
		t.Fatalf("hide: %v", err)
	}
	trade("shard_for_hides")
	if errs := sink.errors(); len(errs) != 1 || errs[0].Code != protocol.CodeInsufficient {
		t.Fatalf("errors=%+v", errs)
	}
	if p.Inventory.Count("hide") != 4 || p.Inventory.Count("barrier_shard") != 0 {
		t.Fatalf("partial trade: hide=%d shard=%d", p.Inventory.Count("hide"), p.Inventory.Count("barrier_shard"))
	}

	if err := p.Inventory.Add("hide", 1, sizeOf("hide")); err != nil {
		t.Fatalf("hide: %v", err)
	}
	trade("shard_for_hides")
	if errs := sink.errors(); len(errs) != 0 {
		t.Fatalf("errors=%+v", errs)
	}
	if p.Inventory.Count("hide") != 0 || p.Inventory.Count("barrier_shard") != 1 {
		t.Fatalf("trade: hide=%d shard=%d", p.Inventory.Count("hide"), p.Inventory.Count("barrier_shard"))
	}

	// Every slot full of stone: giving six leaves no room for the flint.
	for i := range p.Inventory.Slots {
		p.Inventory.Slots[i] = &world.Stack{Item: "stone", Count: sizeOf("stone")}
	}
	stone := p.Inventory.Count("stone")
	trade("flint_for_stone")
	if errs := sink.errors(); len(errs) != 1 || errs[0].Code != protocol.CodeInventoryFull {
		t.Fatalf("errors=%+v", errs)
	}
	if p.Inventory.Count("stone") != stone || p.Inventory.Count("flint") != 0 {
		t.Fatalf("partial trade: stone=%d flint=%d", p.Inventory.Count("stone"), p.Inventory.Count("flint"))
	}
}

func TestBarrierUpgradeAtKeeper(t *testing.T) {
	e := newTestEngine(t, newMemStore())
	sink, pid := join(t, e, "s1", "Ana", "")
	p := spawn(t, e, pid)

	haven := e.World().Settlement("haven")
	var warden *world.Entity
	for _, n := range e.World().Chunk(world.ChunkOf(haven.Pos, e.World().ChunkSize())).Entities(world.KindNPC) {
		if n.Subtype == "warden" && n.Owner == haven.ID {
			warden = n
		}
	}
	if warden == nil {
		t.Fatalf("haven has no keeper")
	}
	e.World().MovePlayer(p, warden.Pos.Add(mgl64.Vec2{1, 0}))

	sizeOf := e.Deps().Tables.Items.StackSize
	if err := p.Inventory.Add("barrier_shard", 3, sizeOf("barrier_shard")); err != nil {
		t.Fatalf("shards: %v", err)
	}
	if err := p.Inventory.Add("stone", 20, sizeOf("stone")); err != nil {
		t.Fatalf("stone: %v", err)
	}
	level, radius := haven.Level, haven.SafeRadius()
	haven.Dirty = false

	upgrade := func() {
		t.Helper()
		sink.reset()
		e.Enqueue(command.Command{Kind: command.KindNPCAction, PlayerID: pid, NPCAction: &command.NPCActionCommand{NPC: warden.ID}})
		e.Enqueue(command.Command{Kind: command.KindNPCAction, PlayerID: pid, NPCAction: &command.NPCActionCommand{NPC: warden.ID, Option: "upgrade"}})
		e.Step(dt)
	}

	upgrade()
	if errs := sink.errors(); len(errs) != 0 {
		t.Fatalf("errors=%+v", errs)
	}
	if haven.Level != level+1 || haven.SafeRadius() <= radius || !haven.Dirty {
		t.Fatalf("haven level=%d radius=%v dirty=%v", haven.Level, haven.SafeRadius(), haven.Dirty)
	}
	if p.Inventory.Count("barrier_shard") != 0 || p.Inventory.Count("stone") != 0 {
		t.Fatalf("cost not taken: shards=%d stone=%d", p.Inventory.Count("barrier_shard"), p.Inventory.Count("stone"))
	}

	upgrade()
	if errs := sink.errors(); len(errs) != 1 || errs[0].Code != protocol.CodeInsufficient {
		t.Fatalf("errors=%+v", errs)
	}
	if haven.Level != level+1 {
		t.Fatalf("upgraded without paying: level=%d", haven.Level)
	}
}
