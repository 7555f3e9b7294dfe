// Package persist stores players, chunks and settlements. The game loop never
// calls a Store directly: it hands detached snapshots to a Writer, and
// rejoin-token lookups run on the connection goroutine.
package persist

import (
	"context"
	"errors"

	"github.com/wildhold/server/internal/world"
)

// ErrNotFound is returned when no player matches a token.
var ErrNotFound = errors.New("not found")

// Store is a durable backend. Implementations must be safe for concurrent
// use by the writer goroutine and connection goroutines.
type Store interface {
	// LoadPlayerByToken resolves a rejoin token. The token itself is never
	// stored, only its hash.
	LoadPlayerByToken(ctx context.Context, token string, invSize int) (*world.PlayerState, error)
	LoadChunks(ctx context.Context) ([]*world.Chunk, error)
	LoadSettlements(ctx context.Context) ([]*world.Settlement, error)
	// SaveBatch upserts everything in b in one transaction.
	SaveBatch(ctx context.Context, b Batch) error
	Close() error
}

// Batch is one unit of work for the writer. Everything in it is a detached
// copy owned by the writer.
type Batch struct {
	Players     []*world.PlayerState
	Chunks      []*world.Chunk
	Settlements []*world.Settlement
}

// Empty reports whether the batch carries nothing.
func (b Batch) Empty() bool {
	return len(b.Players) == 0 && len(b.Chunks) == 0 && len(b.Settlements) == 0
}
