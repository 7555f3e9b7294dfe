package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/wildhold/server/internal/core/system"
	"github.com/wildhold/server/internal/persist"
	"github.com/wildhold/server/internal/world"
)

// BatchSubmitter hands a checkpoint batch to the background writer without
// blocking.
type BatchSubmitter interface {
	Submit(b persist.Batch) bool
}

// PersistenceSystem periodically snapshots every online player plus dirty
// chunks and settlements and hands them to the background writer. The tick never waits
// on storage. Phase 11 (Persist).
type PersistenceSystem struct {
	world    *world.State
	writer   BatchSubmitter
	log      *zap.Logger
	interval time.Duration
	clock    func() time.Time
	last     time.Time
}

// NewPersistenceSystem builds the checkpoint system. clock defaults to
// time.Now.
func NewPersistenceSystem(ws *world.State, writer BatchSubmitter, interval time.Duration, clock func() time.Time, log *zap.Logger) *PersistenceSystem {
	if clock == nil {
		clock = time.Now
	}
	return &PersistenceSystem{
		world:    ws,
		writer:   writer,
		log:      log,
		interval: interval,
		clock:    clock,
		last:     clock(),
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	now := s.clock()
	if now.Sub(s.last) < s.interval {
		return
	}
	s.last = now

	b := s.Collect(true)
	if b.Empty() {
		return
	}
	if !s.writer.Submit(b) {
		s.log.Warn("存檔佇列已滿，略過本次檢查點",
			zap.Int("players", len(b.Players)),
			zap.Int("chunks", len(b.Chunks)),
		)
		s.markDirty(b)
		return
	}
	s.log.Debug("檢查點已排入",
		zap.Int("players", len(b.Players)),
		zap.Int("chunks", len(b.Chunks)),
		zap.Int("settlements", len(b.Settlements)),
	)
}

// Collect snapshots state for saving and clears the dirty flags of what it
// took. Online players are always taken; dirtyOnly filters chunks and
// settlements. dirtyOnly=false takes everything (used on shutdown).
func (s *PersistenceSystem) Collect(dirtyOnly bool) persist.Batch {
	var b persist.Batch
	for _, p := range s.world.Players() {
		b.Players = append(b.Players, p.Snapshot())
		p.Dirty = false
	}
	for _, ch := range s.world.Chunks() {
		if dirtyOnly && !ch.Dirty {
			continue
		}
		b.Chunks = append(b.Chunks, ch.Clone())
		ch.Dirty = false
	}
	for _, st := range s.world.Settlements() {
		if dirtyOnly && !st.Dirty {
			continue
		}
		b.Settlements = append(b.Settlements, st.Clone())
		st.Dirty = false
	}
	return b
}

// markDirty restores the dirty flags of a batch that could not be queued so
// the next checkpoint retries it.
func (s *PersistenceSystem) markDirty(b persist.Batch) {
	for _, p := range b.Players {
		if live := s.world.Player(p.ID); live != nil {
			live.Dirty = true
		}
	}
	for _, ch := range b.Chunks {
		if live := s.world.Chunk(ch.Coord); live != nil {
			live.Dirty = true
		}
	}
	for _, st := range b.Settlements {
		if live := s.world.Settlement(st.ID); live != nil {
			live.Dirty = true
		}
	}
}
