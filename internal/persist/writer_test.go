package persist

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/wildhold/server/internal/world"
)

type memStore struct {
	mu      sync.Mutex
	batches []Batch
	gate    chan struct{} // when non-nil each save waits for a receive
}

func (m *memStore) LoadPlayerByToken(context.Context, string, int) (*world.PlayerState, error) {
	return nil, ErrNotFound
}
func (m *memStore) LoadChunks(context.Context) ([]*world.Chunk, error)           { return nil, nil }
func (m *memStore) LoadSettlements(context.Context) ([]*world.Settlement, error) { return nil, nil }
func (m *memStore) Close() error                                                 { return nil }

func (m *memStore) SaveBatch(_ context.Context, b Batch) error {
	if m.gate != nil {
		<-m.gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, b)
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

func TestWriterSavesInOrderAndDrainsOnClose(t *testing.T) {
	store := &memStore{}
	w := NewWriter(store, 8, time.Second, zap.NewNop())
	for _, id := range []string{"a", "b", "c"} {
		if !w.SavePlayer(&world.PlayerState{ID: id}) {
			t.Fatalf("submit %s refused", id)
		}
	}
	w.Close()

	if store.count() != 3 {
		t.Fatalf("saved %d batches", store.count())
	}
	for i, id := range []string{"a", "b", "c"} {
		if got := store.batches[i].Players[0].ID; got != id {
			t.Fatalf("batch %d = %s, want %s", i, got, id)
		}
	}
	if w.Submit(Batch{}) {
		t.Fatal("submit after close accepted")
	}
	if err := w.SubmitWait(context.Background(), Batch{}); err != ErrWriterClosed {
		t.Fatalf("SubmitWait after close: %v", err)
	}
	w.Close() // idempotent
}

func TestWriterDropsWhenFull(t *testing.T) {
	store := &memStore{gate: make(chan struct{})}
	w := NewWriter(store, 1, time.Second, zap.NewNop())

	// First batch is picked up by the goroutine and parks in SaveBatch, the
	// second fills the buffer, so at least one later submit must drop.
	accepted := 0
	for i := 0; i < 4; i++ {
		if w.Submit(Batch{}) {
			accepted++
		}
	}
	if accepted == 4 {
		t.Fatal("nothing dropped with a stalled store")
	}
	if _, dropped, _ := w.Stats(); dropped == 0 {
		t.Fatal("drop not counted")
	}
	close(store.gate)
	w.Close()
	if store.count() != accepted {
		t.Fatalf("saved %d, accepted %d", store.count(), accepted)
	}
}
