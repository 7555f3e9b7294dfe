package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for balance formulas. Every call has a
// Go fallback so a missing or broken script degrades instead of stalling the
// tick. Single-goroutine access only (game loop).
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	warned map[string]bool
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)

	// Core helpers first, then feature scripts
	for _, sub := range []string{"core", "combat", "survival"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			e.vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
}

// NewEngineFromString builds an engine from inline source.
func NewEngineFromString(src string, log *zap.Logger) (*Engine, error) {
	e := newEngine(log)
	if err := e.vm.DoString(src); err != nil {
		e.vm.Close()
		return nil, fmt.Errorf("load inline script: %w", err)
	}
	return e, nil
}

func newEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{vm: vm, log: log, warned: make(map[string]bool)}
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("載入 Lua 腳本", zap.String("file", path))
	}
	return nil
}

// AttackContext holds pre-packed data for a player attack.
type AttackContext struct {
	AttackerLevel int
	BaseDamage    float64
	WeaponDamage  float64 // active hotbar item, 0 = bare hands
	BonusAdd      float64
	BonusMul      float64
	TargetLevel   int
	TargetIsMob   bool
}

// CalcPlayerAttack calls Lua calc_player_attack(ctx).
func (e *Engine) CalcPlayerAttack(ctx AttackContext) float64 {
	t := e.vm.NewTable()
	t.RawSetString("attacker_level", lua.LNumber(ctx.AttackerLevel))
	t.RawSetString("base_damage", lua.LNumber(ctx.BaseDamage))
	t.RawSetString("weapon_damage", lua.LNumber(ctx.WeaponDamage))
	t.RawSetString("bonus_add", lua.LNumber(ctx.BonusAdd))
	t.RawSetString("bonus_mul", lua.LNumber(ctx.BonusMul))
	t.RawSetString("target_level", lua.LNumber(ctx.TargetLevel))
	t.RawSetString("target_is_mob", lua.LBool(ctx.TargetIsMob))

	if v, ok := e.callNumber("calc_player_attack", t); ok {
		return math.Max(0, v)
	}
	mul := ctx.BonusMul
	if mul == 0 {
		mul = 1
	}
	return (ctx.BaseDamage + ctx.WeaponDamage + ctx.BonusAdd) * mul
}

// MobAttackContext holds pre-packed data for a mob's contact hit.
type MobAttackContext struct {
	MobLevel    int
	BaseDamage  float64
	TargetLevel int
}

// CalcMobAttack calls Lua calc_mob_attack(ctx).
func (e *Engine) CalcMobAttack(ctx MobAttackContext) float64 {
	t := e.vm.NewTable()
	t.RawSetString("mob_level", lua.LNumber(ctx.MobLevel))
	t.RawSetString("base_damage", lua.LNumber(ctx.BaseDamage))
	t.RawSetString("target_level", lua.LNumber(ctx.TargetLevel))

	if v, ok := e.callNumber("calc_mob_attack", t); ok {
		return math.Max(0, v)
	}
	return ctx.BaseDamage
}

// GatherContext holds pre-packed data for one gather action.
type GatherContext struct {
	BaseYield   int
	ToolPower   float64 // 0 = bare hands
	BonusAdd    float64
	PlayerLevel int
}

// CalcGatherYield calls Lua calc_gather_yield(ctx). Always at least 1.
func (e *Engine) CalcGatherYield(ctx GatherContext) int {
	t := e.vm.NewTable()
	t.RawSetString("base_yield", lua.LNumber(ctx.BaseYield))
	t.RawSetString("tool_power", lua.LNumber(ctx.ToolPower))
	t.RawSetString("bonus_add", lua.LNumber(ctx.BonusAdd))
	t.RawSetString("player_level", lua.LNumber(ctx.PlayerLevel))

	n := 0
	if v, ok := e.callNumber("calc_gather_yield", t); ok {
		n = int(v)
	} else {
		p := ctx.ToolPower
		if p < 1 {
			p = 1
		}
		n = int(float64(ctx.BaseYield)*p + ctx.BonusAdd)
	}
	if n < 1 {
		n = 1
	}
	return n
}

// XPForLevel calls Lua xp_for_level(level): the xp needed to advance from
// level to level+1.
func (e *Engine) XPForLevel(level int) int64 {
	if v, ok := e.callNumber("xp_for_level", lua.LNumber(level)); ok && v > 0 {
		return int64(v)
	}
	return int64(100 * level * level)
}

// callNumber calls a global Lua function expecting one numeric result. ok is
// false when the function is missing, errors or returns a non-number.
func (e *Engine) callNumber(name string, args ...lua.LValue) (float64, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.warnOnce(name, "Lua 函式不存在，使用預設公式")
		return 0, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("Lua 呼叫錯誤", zap.String("func", name), zap.Error(err))
		return 0, false
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.warnOnce(name, "Lua 函式回傳非數值")
		return 0, false
	}
	return float64(n), true
}

func (e *Engine) warnOnce(name, msg string) {
	if e.warned[name] {
		return
	}
	e.warned[name] = true
	e.log.Warn(msg, zap.String("func", name))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
