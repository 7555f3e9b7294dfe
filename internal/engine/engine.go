// Package engine owns the game loop: the command queue, the world and the
// ordered system pipeline. Everything in the world is touched from the loop
// goroutine only.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/config"
	"github.com/wildhold/server/internal/core/event"
	coresys "github.com/wildhold/server/internal/core/system"
	"github.com/wildhold/server/internal/data"
	"github.com/wildhold/server/internal/handler"
	"github.com/wildhold/server/internal/persist"
	"github.com/wildhold/server/internal/protocol"
	"github.com/wildhold/server/internal/scripting"
	"github.com/wildhold/server/internal/system"
	"github.com/wildhold/server/internal/world"
	"github.com/wildhold/server/internal/worldgen"
)

// Stage is where the loop is inside the current tick.
type Stage int32

const (
	StageIdle Stage = iota
	StageDraining
	StageSimulating
	StageDiffingInterest
	StageBroadcasting
	StageCheckpointing
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageDraining:
		return "draining"
	case StageSimulating:
		return "simulating"
	case StageDiffingInterest:
		return "diffing_interest"
	case StageBroadcasting:
		return "broadcasting"
	case StageCheckpointing:
		return "checkpointing"
	default:
		return "unknown"
	}
}

func stageOf(p coresys.Phase) Stage {
	switch p {
	case coresys.PhaseInput:
		return StageDraining
	case coresys.PhaseInterest:
		return StageDiffingInterest
	case coresys.PhaseOutput:
		return StageBroadcasting
	case coresys.PhasePersist:
		return StageCheckpointing
	default:
		return StageSimulating
	}
}

// Options are the collaborators an Engine is built from.
type Options struct {
	Config    *config.Config
	Tables    *data.Tables
	Scripting *scripting.Engine
	Store     persist.Store
	Log       *zap.Logger
	// Clock drives checkpoint timing; nil means time.Now.
	Clock func() time.Time
}

// Engine is the tick loop.
type Engine struct {
	cfg   *config.Config
	log   *zap.Logger
	store persist.Store

	queue       *command.Queue
	world       *world.State
	deps        *handler.Deps
	runner      *coresys.Runner
	writer      *persist.Writer
	persistence *system.PersistenceSystem

	stage    atomic.Int32
	ticks    atomic.Uint64
	overruns atomic.Uint64
}

// New wires the world, handlers and every system in phase order.
func New(opts Options) *Engine {
	cfg := opts.Config
	gen := worldgen.Config{
		Seed:            cfg.Server.WorldSeed,
		ChunkSize:       cfg.World.ChunkSize,
		BiomeRegionSize: int32(cfg.World.BiomeRegionSize),
		Tables:          opts.Tables,
	}
	ws := world.NewState(cfg.World.ChunkSize, cfg.World.WorldRadius, worldgen.Generator(gen))
	writer := persist.NewWriter(opts.Store, cfg.Checkpoint.WriterBuffer, cfg.Checkpoint.SaveTimeout, opts.Log)

	deps := &handler.Deps{
		Config:    cfg,
		Log:       opts.Log,
		World:     ws,
		Tables:    opts.Tables,
		Scripting: opts.Scripting,
		Bus:       event.NewBus(),
		Outbox:    handler.NewOutbox(),
		Saver:     writer,
	}
	queue := command.NewQueue(cfg.Queue.Capacity)
	reg := handler.NewRegistry(ws, deps.Outbox, opts.Log)
	handler.RegisterAll(reg, deps)
	system.SubscribeQuestProgress(deps)

	e := &Engine{
		cfg:    cfg,
		log:    opts.Log,
		store:  opts.Store,
		queue:  queue,
		world:  ws,
		deps:   deps,
		runner: coresys.NewRunner(),
		writer: writer,
		persistence: system.NewPersistenceSystem(ws, writer, cfg.Checkpoint.Interval,
			opts.Clock, opts.Log),
	}

	e.runner.Register(system.NewInputSystem(queue, reg, opts.Log))
	e.runner.Register(system.NewEventDispatchSystem(deps.Bus))
	e.runner.Register(system.NewInteractionSystem(deps))
	e.runner.Register(system.NewSurvivalSystem(deps))
	e.runner.Register(system.NewBarrierSystem(deps))
	e.runner.Register(system.NewRespawnSystem(deps, gen))
	e.runner.Register(system.NewAISystem(deps, cfg.Server.WorldSeed))
	e.runner.Register(system.NewDeathSystem(deps))
	e.runner.Register(system.NewAchievementSystem(deps))
	e.runner.Register(system.NewInterestSystem(deps))
	e.runner.Register(system.NewBroadcastSystem(deps))
	e.runner.Register(e.persistence)
	e.runner.Observe(func(p coresys.Phase) { e.stage.Store(int32(stageOf(p))) })
	return e
}

// Restore loads persisted settlements and chunks into the world. Settlements
// missing from storage are seeded from the tables and marked dirty so the
// first checkpoint saves them. Call before Run.
func (e *Engine) Restore(ctx context.Context) error {
	saved, err := e.store.LoadSettlements(ctx)
	if err != nil {
		return fmt.Errorf("load settlements: %w", err)
	}
	known := make(map[string]bool, len(saved))
	for _, st := range saved {
		if e.deps.Tables.Settlements.Get(st.ID) == nil {
			e.log.Warn("略過未定義的結界", zap.String("settlement", st.ID))
			continue
		}
		e.world.AddSettlement(st)
		known[st.ID] = true
	}
	seeded := 0
	for _, def := range e.deps.Tables.Settlements.All() {
		if known[def.ID] {
			continue
		}
		st := def.Settlement()
		st.Dirty = true
		e.world.AddSettlement(st)
		seeded++
	}

	chunks, err := e.store.LoadChunks(ctx)
	if err != nil {
		return fmt.Errorf("load chunks: %w", err)
	}
	loaded := 0
	for _, ch := range chunks {
		if !e.world.InBounds(ch.Coord) {
			continue
		}
		if e.world.LoadChunk(ch) {
			loaded++
		}
	}
	e.log.Info("世界狀態載入完成",
		zap.Int("settlements", len(known)),
		zap.Int("seeded", seeded),
		zap.Int("chunks", loaded),
	)
	return nil
}

// World exposes the world for tests and boot-time setup. Loop goroutine only.
func (e *Engine) World() *world.State { return e.world }

// Deps exposes the handler dependencies. Loop goroutine only.
func (e *Engine) Deps() *handler.Deps { return e.deps }

// Stage reports where the loop is. Safe from any goroutine.
func (e *Engine) Stage() Stage { return Stage(e.stage.Load()) }

// Ticks is the number of completed ticks.
func (e *Engine) Ticks() uint64 { return e.ticks.Load() }

// Enqueue stages a command for the next tick. Safe from any goroutine.
func (e *Engine) Enqueue(cmd command.Command) command.Result {
	return e.queue.Enqueue(cmd)
}

// Join resolves the rejoin token against storage on the caller's goroutine
// and stages the join. An unknown token starts a new player.
func (e *Engine) Join(ctx context.Context, sessionID string, hello protocol.Hello, sink protocol.Sink) error {
	token := strings.TrimSpace(hello.Token)
	var p *world.PlayerState
	if token != "" {
		loaded, err := e.store.LoadPlayerByToken(ctx, token, e.cfg.Player.InventorySize)
		switch {
		case err == nil:
			p = loaded
		case errors.Is(err, persist.ErrNotFound):
			e.log.Debug("未知的重連憑證，建立新角色", zap.String("session", sessionID))
		default:
			return fmt.Errorf("resolve token: %w", err)
		}
	}

	cmd := command.Command{
		Kind: command.KindJoin,
		Join: &command.JoinCommand{
			SessionID: sessionID,
			Sink:      sink,
			Player:    p,
			Token:     token,
			Name:      hello.Name,
		},
	}
	if p != nil {
		cmd.PlayerID = p.ID
	}
	if e.queue.Enqueue(cmd) == command.ResultDropped {
		e.log.Debug("指令佇列已滿，丟棄最舊指令", zap.String("session", sessionID))
	}
	return nil
}

// Step runs exactly one tick with a fixed dt.
func (e *Engine) Step(dt time.Duration) {
	e.runner.Tick(dt)
	e.stage.Store(int32(StageIdle))
	e.ticks.Add(1)
}

// Run ticks at the configured rate until ctx ends. Missed ticks are not made
// up: every tick advances the world by the same dt.
func (e *Engine) Run(ctx context.Context) {
	interval := e.cfg.Server.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.log.Info("遊戲迴圈啟動", zap.Duration("tick", interval))
	for {
		select {
		case <-ctx.Done():
			e.log.Info("遊戲迴圈停止", zap.Uint64("ticks", e.ticks.Load()))
			return
		case <-ticker.C:
			start := time.Now()
			e.Step(interval)
			if took := time.Since(start); took > interval {
				n := e.overruns.Add(1)
				e.log.Warn("tick 超時",
					zap.Duration("took", took),
					zap.Duration("budget", interval),
					zap.Uint64("overruns", n),
				)
			}
		}
	}
}

// Shutdown saves everything once more and stops the writer. Call after Run
// has returned.
func (e *Engine) Shutdown(ctx context.Context) error {
	b := e.persistence.Collect(false)
	var err error
	if !b.Empty() {
		if err = e.writer.SubmitWait(ctx, b); err != nil {
			e.log.Error("最終存檔排入失敗", zap.Error(err))
		}
	}
	e.writer.Close()
	saved, dropped, failed := e.writer.Stats()
	e.log.Info("最終存檔完成",
		zap.Int("players", len(b.Players)),
		zap.Int("chunks", len(b.Chunks)),
		zap.Int("settlements", len(b.Settlements)),
		zap.Uint64("saved", saved),
		zap.Uint64("dropped", dropped),
		zap.Uint64("failed", failed),
		zap.Uint64("queue_drops", e.queue.Drops()),
		zap.Uint64("outbox_drops", e.deps.Outbox.Drops()),
	)
	return err
}
