package system

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wildhold/server/internal/persist"
	"github.com/wildhold/server/internal/world"
)

// captureWriter records submitted batches; full makes every Submit fail.
type captureWriter struct {
	batches []persist.Batch
	full    bool
}

func (w *captureWriter) Submit(b persist.Batch) bool {
	if w.full {
		return false
	}
	w.batches = append(w.batches, b)
	return true
}

func hasPlayer(b persist.Batch, id string) bool {
	for _, p := range b.Players {
		if p.ID == id {
			return true
		}
	}
	return false
}

func TestCheckpointGateAndCoverage(t *testing.T) {
	ws := world.NewState(128, 0, nil)
	ch := world.NewChunk(world.ChunkCoord{X: 1, Y: 2}, "plains")
	ws.LoadChunk(ch)
	ch.Dirty = true
	p := world.NewPlayer("p1", "tok", "Ana", 8, world.VitalLimits{MaxHP: 100, MaxHunger: 100, MaxThirst: 100, MaxTemperature: 100}, 50)
	ws.AddPlayer(p)

	start := time.Unix(1_700_000_000, 0)
	now := start
	w := &captureWriter{}
	sys := NewPersistenceSystem(ws, w, 30*time.Second, func() time.Time { return now }, zap.NewNop())

	now = start.Add(10 * time.Second)
	sys.Update(0)
	if len(w.batches) != 0 {
		t.Fatalf("checkpoint before the interval: %d batches", len(w.batches))
	}

	now = start.Add(31 * time.Second)
	sys.Update(0)
	if len(w.batches) != 1 {
		t.Fatalf("batches=%d after first interval", len(w.batches))
	}
	first := w.batches[0]
	if !hasPlayer(first, "p1") || len(first.Chunks) != 1 {
		t.Fatalf("first checkpoint players=%d chunks=%d", len(first.Players), len(first.Chunks))
	}
	if p.Dirty || ch.Dirty {
		t.Fatalf("dirty flags not cleared: player=%v chunk=%v", p.Dirty, ch.Dirty)
	}

	now = start.Add(40 * time.Second)
	sys.Update(0)
	if len(w.batches) != 1 {
		t.Fatalf("checkpoint inside the interval: %d batches", len(w.batches))
	}

	// Nothing changed, the online player is still saved.
	now = start.Add(62 * time.Second)
	sys.Update(0)
	if len(w.batches) != 2 {
		t.Fatalf("batches=%d after second interval", len(w.batches))
	}
	second := w.batches[1]
	if !hasPlayer(second, "p1") {
		t.Fatalf("online player missing from second checkpoint")
	}
	if len(second.Chunks) != 0 {
		t.Fatalf("clean chunk saved again")
	}

	// A batch the writer refuses leaves its chunks dirty for the next try.
	ch.Dirty = true
	w.full = true
	now = start.Add(93 * time.Second)
	sys.Update(0)
	if !ch.Dirty || !p.Dirty {
		t.Fatalf("refused batch not marked dirty: chunk=%v player=%v", ch.Dirty, p.Dirty)
	}
}

func TestCollectAllTakesCleanState(t *testing.T) {
	ws := world.NewState(128, 0, nil)
	ch := world.NewChunk(world.ChunkCoord{}, "plains")
	ws.LoadChunk(ch)
	ws.AddSettlement(&world.Settlement{ID: "haven", Name: "Haven", Level: 1})

	sys := NewPersistenceSystem(ws, &captureWriter{}, time.Minute, nil, zap.NewNop())
	b := sys.Collect(false)
	if len(b.Chunks) != 1 || len(b.Settlements) != 1 {
		t.Fatalf("chunks=%d settlements=%d", len(b.Chunks), len(b.Settlements))
	}
}
