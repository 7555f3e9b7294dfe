package persist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/wildhold/server/internal/world"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "db", "test.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testPlayer() *world.PlayerState {
	limits := world.VitalLimits{MaxHP: 100, MaxHunger: 100, MaxThirst: 100, MaxTemperature: 100}
	p := world.NewPlayer("p-1", "secret-token", "Rosa", 10, limits, 50)
	p.Pos = mgl64.Vec2{12.5, -3}
	p.Level = 3
	p.XP = 42
	p.Spawned = true
	p.Stats.Kills = 7
	p.Achievements["hunter"] = true
	p.AddBonus(world.BonusDamage, 2, 1.5)
	p.Quests = append(p.Quests, world.QuestProgress{QuestID: "wolf_cull", Progress: 2, State: world.QuestActive})
	_ = p.Inventory.Add("wood", 12, 50)
	return p
}

func TestSQLitePlayerByToken(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.SaveBatch(ctx, Batch{Players: []*world.PlayerState{testPlayer()}}); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	got, err := s.LoadPlayerByToken(ctx, "secret-token", 10)
	if err != nil {
		t.Fatalf("LoadPlayerByToken: %v", err)
	}
	if got.ID != "p-1" || got.Name != "Rosa" || got.Level != 3 || got.XP != 42 {
		t.Fatalf("identity: %+v", got)
	}
	if got.Pos != (mgl64.Vec2{12.5, -3}) || !got.Spawned {
		t.Fatalf("pos=%v spawned=%v", got.Pos, got.Spawned)
	}
	if got.Inventory.Count("wood") != 12 || got.Stats.Kills != 7 || !got.Achievements["hunter"] {
		t.Fatalf("progress not restored: %+v", got)
	}
	if b := got.Bonus(world.BonusDamage); b.Add != 2 || b.Mul != 1.5 {
		t.Fatalf("bonus=%+v", b)
	}
	if qp := got.Quest("wolf_cull"); qp == nil || qp.Progress != 2 {
		t.Fatalf("quest=%+v", qp)
	}

	if _, err := s.LoadPlayerByToken(ctx, "wrong", 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("wrong token err=%v", err)
	}
}

func TestSQLiteUpsertKeepsOneRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := testPlayer()
	for i := 0; i < 3; i++ {
		p.Level = i + 1
		if err := s.SaveBatch(ctx, Batch{Players: []*world.PlayerState{p.Snapshot()}}); err != nil {
			t.Fatalf("SaveBatch %d: %v", i, err)
		}
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM players`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("rows=%d", n)
	}
	got, err := s.LoadPlayerByToken(ctx, p.Token, 10)
	if err != nil || got.Level != 3 {
		t.Fatalf("got=%v err=%v", got, err)
	}
}

func TestSQLiteChunksAndSettlements(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ch := world.NewChunk(world.ChunkCoord{X: -2, Y: 5}, "forest")
	tree := &world.Entity{ID: ch.NextID(world.KindResource), Kind: world.KindResource, Subtype: "tree", HP: 30, MaxHP: 30}
	ch.Insert(tree)
	wolf := &world.Entity{ID: ch.NextID(world.KindMob), Kind: world.KindMob, Subtype: "wolf", HP: 0, MaxHP: 40, Hostile: true}
	ch.EnqueueRespawn(wolf, 90*time.Second)

	st := &world.Settlement{ID: "haven", Name: "Haven", Level: 2, Pos: mgl64.Vec2{64, 64}, BaseRadius: 24, RadiusPerLevel: 8, Spawn: mgl64.Vec2{60, 60}}

	if err := s.SaveBatch(ctx, Batch{Chunks: []*world.Chunk{ch.Clone()}, Settlements: []*world.Settlement{st}}); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	chunks, err := s.LoadChunks(ctx)
	if err != nil || len(chunks) != 1 {
		t.Fatalf("LoadChunks: %v %d", err, len(chunks))
	}
	got := chunks[0]
	if got.Coord != ch.Coord || got.Biome != "forest" || got.Seq != ch.Seq || got.Dirty {
		t.Fatalf("chunk header: %+v", got)
	}
	if got.Get(world.KindResource, tree.ID) == nil {
		t.Fatal("tree lost")
	}
	if len(got.RespawnQueue) != 1 || got.RespawnQueue[0].Remaining != 90*time.Second || got.RespawnQueue[0].Prior.Subtype != "wolf" {
		t.Fatalf("respawn queue: %+v", got.RespawnQueue)
	}
	// A new id after restore must not collide with one handed out before.
	if id := got.NextID(world.KindMob); id == tree.ID || id == wolf.ID {
		t.Fatalf("id reuse: %s", id)
	}

	sts, err := s.LoadSettlements(ctx)
	if err != nil || len(sts) != 1 {
		t.Fatalf("LoadSettlements: %v %d", err, len(sts))
	}
	if sts[0].Level != 2 || sts[0].SafeRadius() != 40 || sts[0].Spawn != st.Spawn {
		t.Fatalf("settlement: %+v", sts[0])
	}
}

func TestHashTokenIsStable(t *testing.T) {
	a, b := HashToken("abc"), HashToken("abc")
	if len(a) != 32 || string(a) != string(b) {
		t.Fatalf("hash unstable: %x %x", a, b)
	}
	if string(HashToken("abd")) == string(a) {
		t.Fatal("different tokens share a hash")
	}
}
