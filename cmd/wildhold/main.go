package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wildhold/server/internal/config"
	"github.com/wildhold/server/internal/data"
	"github.com/wildhold/server/internal/engine"
	gonet "github.com/wildhold/server/internal/net"
	"github.com/wildhold/server/internal/persist"
	"github.com/wildhold/server/internal/protocol"
	"github.com/wildhold/server/internal/scripting"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             wildhold  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        荒野生存 · Go 世界伺服器           \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s\n\n", serverName)
}

// displayWidth counts CJK runes as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("WILDHOLD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Open storage and run migrations
	printSection("資料庫")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()
	printOK(fmt.Sprintf("%s 連線成功，遷移完成", cfg.Database.Driver))
	fmt.Println()

	// 4. Load data tables
	printSection("遊戲資料")
	tables, err := data.Load(cfg.World.DataDir)
	if err != nil {
		return fmt.Errorf("data tables: %w", err)
	}
	printStat("物品", tables.Items.Count())
	printStat("配方", tables.Recipes.Count())
	printStat("生態域", tables.Biomes.Count())
	printStat("NPC", tables.NPCs.Count())
	printStat("任務", tables.Quests.Count())
	printStat("成就", tables.Achievements.Count())
	printStat("結界", tables.Settlements.Count())
	fmt.Println()

	// 5. Lua scripting
	printSection("腳本引擎")
	lua, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer lua.Close()
	printOK("Lua 腳本載入完成")
	fmt.Println()

	// 6. World + engine
	printSection("世界")
	eng := engine.New(engine.Options{
		Config:    cfg,
		Tables:    tables,
		Scripting: lua,
		Store:     store,
		Log:       log,
	})
	if err := eng.Restore(ctx); err != nil {
		return fmt.Errorf("restore world: %w", err)
	}
	printStat("已載入區塊", eng.World().ChunkCount())
	printStat("結界", len(eng.World().Settlements()))
	fmt.Println()

	// 7. Network
	validator, err := protocol.NewValidator()
	if err != nil {
		return fmt.Errorf("protocol schemas: %w", err)
	}
	netServer := gonet.NewServer(cfg, eng, validator, log)
	if err := netServer.Listen(); err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Network.BindAddress, err)
	}

	// 8. Start game loop
	loopCtx, stopLoop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopLoop()

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("監聽位址 %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", cfg.Server.TickInterval()))
	fmt.Println()

	eng.Run(loopCtx)
	log.Info("收到關閉信號")

	// 9. Shutdown: stop accepting, then final save
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 2*cfg.Checkpoint.SaveTimeout+5*time.Second)
	defer cancelShutdown()
	if err := netServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("網路關閉逾時", zap.Error(err))
	}
	if err := eng.Shutdown(shutdownCtx); err != nil {
		log.Error("最終存檔失敗", zap.Error(err))
	}
	log.Info("伺服器已停止")
	return nil
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (persist.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return persist.OpenPostgres(ctx, cfg, log)
	case "sqlite":
		return persist.OpenSQLite(ctx, cfg.SQLitePath, log)
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
