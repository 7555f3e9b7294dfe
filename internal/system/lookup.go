package system

import (
	"time"

	"github.com/wildhold/server/internal/data"
	"github.com/wildhold/server/internal/world"
)

// defaultRespawn applies to entities whose spawn row is gone from the tables.
const defaultRespawn = 60 * time.Second

// spawnRow finds the biome table row an entity was generated from.
func spawnRow(t *data.Tables, ch *world.Chunk, e *world.Entity) *data.SpawnEntry {
	b := t.Biomes.Get(ch.Biome)
	if b == nil {
		return nil
	}
	switch e.Kind {
	case world.KindResource:
		return b.Resource(e.Subtype)
	case world.KindMob:
		return b.Mob(e.Subtype)
	}
	return nil
}

func respawnCooldown(t *data.Tables, ch *world.Chunk, e *world.Entity) time.Duration {
	if row := spawnRow(t, ch, e); row != nil && row.Respawn > 0 {
		return row.Respawn
	}
	return defaultRespawn
}

// activeItem is the template of the item in the player's active slot.
func activeItem(t *data.Tables, p *world.PlayerState) *data.ItemInfo {
	st := p.Inventory.Slot(p.ActiveSlot)
	if st == nil {
		return nil
	}
	return t.Items.Get(st.Item)
}
