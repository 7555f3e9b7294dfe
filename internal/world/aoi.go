package world

import "sort"

// PlayerGrid tracks which spawned players stand in which chunk. It answers
// "who is co-located" for entity deltas and "who is near" for mob AI.
// Accessed only from the game loop goroutine, no locks.
type PlayerGrid struct {
	cells map[ChunkCoord]map[string]struct{}
}

func NewPlayerGrid() *PlayerGrid {
	return &PlayerGrid{
		cells: make(map[ChunkCoord]map[string]struct{}),
	}
}

// Add places a player into a cell.
func (g *PlayerGrid) Add(playerID string, c ChunkCoord) {
	cell := g.cells[c]
	if cell == nil {
		cell = make(map[string]struct{})
		g.cells[c] = cell
	}
	cell[playerID] = struct{}{}
}

// Remove takes a player out of a cell.
func (g *PlayerGrid) Remove(playerID string, c ChunkCoord) {
	cell := g.cells[c]
	if cell != nil {
		delete(cell, playerID)
		if len(cell) == 0 {
			delete(g.cells, c)
		}
	}
}

// Move updates a player's cell when it changes chunk.
func (g *PlayerGrid) Move(playerID string, from, to ChunkCoord) {
	if from == to {
		return
	}
	g.Remove(playerID, from)
	g.Add(playerID, to)
}

// In returns the ids in one cell, sorted.
func (g *PlayerGrid) In(c ChunkCoord) []string {
	cell := g.cells[c]
	if len(cell) == 0 {
		return nil
	}
	out := make([]string, 0, len(cell))
	for id := range cell {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Nearby returns the ids in the (2r+1)^2 neighbourhood of c, sorted. Caller
// does fine-grained distance filtering.
func (g *PlayerGrid) Nearby(c ChunkCoord, r int) []string {
	var out []string
	for _, k := range Square(c, r) {
		for id := range g.cells[k] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
