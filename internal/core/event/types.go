package event

import "github.com/wildhold/server/internal/world"

// Domain events. Emitted by systems during tick N, delivered at the start of
// tick N+1.

type MobKilled struct {
	PlayerID string
	Subtype  string
	Chunk    world.ChunkCoord
}

type ResourceGathered struct {
	PlayerID string
	Subtype  string
	Item     string
	Count    int
}

type ItemCrafted struct {
	PlayerID string
	RecipeID string
	Output   string
	Count    int
}

type PlayerDied struct {
	PlayerID string
	Cause    string
}

type AchievementUnlocked struct {
	PlayerID      string
	AchievementID string
}

type PlayerLeveled struct {
	PlayerID string
	Level    int
}
