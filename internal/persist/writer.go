package persist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wildhold/server/internal/world"
)

// ErrWriterClosed is returned by SubmitWait after Close.
var ErrWriterClosed = errors.New("writer closed")

// Writer owns the only goroutine that writes to the Store. Batches are saved
// in submission order; each save gets its own timeout.
type Writer struct {
	store   Store
	ch      chan Batch
	timeout time.Duration
	log     *zap.Logger

	mu     sync.RWMutex // guards closed against sends on a closed channel
	closed bool
	wg     sync.WaitGroup

	saved   atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

func NewWriter(store Store, buffer int, timeout time.Duration, log *zap.Logger) *Writer {
	if buffer < 1 {
		buffer = 1
	}
	w := &Writer{
		store:   store,
		ch:      make(chan Batch, buffer),
		timeout: timeout,
		log:     log,
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.loop()
	}()
	return w
}

// Submit queues b without blocking. False means the queue was full (or the
// writer closed) and b was dropped.
func (w *Writer) Submit(b Batch) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}
	select {
	case w.ch <- b:
		return true
	default:
		w.dropped.Add(1)
		return false
	}
}

// SavePlayer queues a single player snapshot.
func (w *Writer) SavePlayer(p *world.PlayerState) bool {
	return w.Submit(Batch{Players: []*world.PlayerState{p}})
}

// SubmitWait queues b, blocking until there is room or ctx ends. Used on
// shutdown where losing the final save is not acceptable.
func (w *Writer) SubmitWait(ctx context.Context, b Batch) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWriterClosed
	}
	select {
	case w.ch <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting batches and waits until every queued one is saved.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.ch)
	w.mu.Unlock()
	w.wg.Wait()
}

// Stats reports saved, dropped and failed batch counts.
func (w *Writer) Stats() (saved, dropped, failed uint64) {
	return w.saved.Load(), w.dropped.Load(), w.failed.Load()
}

func (w *Writer) loop() {
	for b := range w.ch {
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.store.SaveBatch(ctx, b)
		cancel()
		if err != nil {
			w.failed.Add(1)
			w.log.Error("存檔失敗",
				zap.Int("players", len(b.Players)),
				zap.Int("chunks", len(b.Chunks)),
				zap.Int("settlements", len(b.Settlements)),
				zap.Error(err),
			)
			continue
		}
		w.saved.Add(1)
	}
}
