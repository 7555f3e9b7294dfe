package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadShippedTables(t *testing.T) {
	tb, err := Load(filepath.Join("..", "..", "data", "yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tb.Items.Count() == 0 || tb.Recipes.Count() == 0 || tb.Biomes.Count() == 0 {
		t.Fatalf("empty tables: items=%d recipes=%d biomes=%d",
			tb.Items.Count(), tb.Recipes.Count(), tb.Biomes.Count())
	}
	axe := tb.Recipes.Get("stone_axe")
	if axe == nil || len(axe.Ingredients) != 2 || axe.Count != 1 {
		t.Fatalf("stone_axe recipe=%+v", axe)
	}
	plains := tb.Biomes.Get("plains")
	if plains == nil || plains.Resources[0].Respawn != 60*time.Second {
		t.Fatalf("plains respawn not decoded: %+v", plains)
	}
	if tb.Items.StackSize("wood") != 50 || tb.Items.StackSize("nope") != 1 {
		t.Fatalf("stack sizes wrong")
	}
	if got := tb.Settlements.Get("haven").Settlement().SafeRadius(); got != 32 {
		t.Fatalf("haven safe radius=%v, want 32", got)
	}
}

func TestLoadRejectsDanglingReferences(t *testing.T) {
	src := filepath.Join("..", "..", "data", "yaml")
	dir := t.TempDir()
	entries, err := os.ReadDir(src)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		raw, err := os.ReadFile(filepath.Join(src, e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		if e.Name() == "recipes.yaml" {
			raw = append(raw, []byte("  - id: broken\n    ingredients: [{ item: unobtainium, count: 1 }]\n    output: wood\n")...)
		}
		if err := os.WriteFile(filepath.Join(dir, e.Name()), raw, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	_, err = Load(dir)
	if err == nil || !strings.Contains(err.Error(), "unobtainium") {
		t.Fatalf("err=%v, want unknown item unobtainium", err)
	}
}
