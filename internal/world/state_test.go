package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestChunkOfFloorsNegative(t *testing.T) {
	cases := []struct {
		pos  mgl64.Vec2
		want ChunkCoord
	}{
		{mgl64.Vec2{0, 0}, ChunkCoord{0, 0}},
		{mgl64.Vec2{127.9, 0}, ChunkCoord{0, 0}},
		{mgl64.Vec2{128, 0}, ChunkCoord{1, 0}},
		{mgl64.Vec2{200, 0}, ChunkCoord{1, 0}},
		{mgl64.Vec2{-0.5, -128}, ChunkCoord{-1, -1}},
		{mgl64.Vec2{-128.5, 0}, ChunkCoord{-2, 0}},
	}
	for _, tc := range cases {
		if got := ChunkOf(tc.pos, 128); got != tc.want {
			t.Errorf("ChunkOf(%v)=%v, want %v", tc.pos, got, tc.want)
		}
	}
}

func TestSquareSize(t *testing.T) {
	for r := 0; r <= 3; r++ {
		sq := Square(ChunkCoord{X: 5, Y: -2}, r)
		if len(sq) != (2*r+1)*(2*r+1) {
			t.Fatalf("r=%d: %d coords", r, len(sq))
		}
		seen := make(map[ChunkCoord]bool)
		for _, c := range sq {
			if seen[c] {
				t.Fatalf("duplicate %v", c)
			}
			seen[c] = true
		}
	}
}

func TestEnsureChunkGeneratesOnce(t *testing.T) {
	calls := 0
	s := NewState(128, 0, func(c ChunkCoord) *Chunk {
		calls++
		return NewChunk(c, "plains")
	})
	c := ChunkCoord{X: 2, Y: 3}
	first, created := s.EnsureChunk(c)
	if !created {
		t.Fatalf("first call did not create")
	}
	again, created := s.EnsureChunk(c)
	if created || again != first || calls != 1 {
		t.Fatalf("chunk regenerated: created=%v calls=%d", created, calls)
	}
	if s.LoadChunk(NewChunk(c, "desert")) {
		t.Fatalf("LoadChunk replaced a live chunk")
	}
}

func TestMovePlayerTracksGridAndBounds(t *testing.T) {
	s := NewState(128, 2, nil)
	p := NewPlayer("p1", "tok", "Ana", 4, VitalLimits{MaxHP: 100, MaxHunger: 100, MaxThirst: 100, MaxTemperature: 100}, 50)
	s.AddPlayer(p)
	s.Spawn(p, mgl64.Vec2{10, 10})

	if got := s.PlayersInChunk(ChunkCoord{}); len(got) != 1 {
		t.Fatalf("players in (0,0)=%d", len(got))
	}
	s.MovePlayer(p, mgl64.Vec2{200, 10})
	if p.Chunk != (ChunkCoord{X: 1, Y: 0}) {
		t.Fatalf("chunk=%v", p.Chunk)
	}
	if len(s.PlayersInChunk(ChunkCoord{})) != 0 || len(s.PlayersInChunk(p.Chunk)) != 1 {
		t.Fatalf("grid not updated on move")
	}

	s.MovePlayer(p, mgl64.Vec2{10000, -10000})
	if p.Chunk != (ChunkCoord{X: 1, Y: -2}) {
		t.Fatalf("clamped chunk=%v", p.Chunk)
	}

	s.Unspawn(p)
	if len(s.PlayersInChunk(p.Chunk)) != 0 {
		t.Fatalf("unspawned player still in grid")
	}
}

func TestSafeZone(t *testing.T) {
	s := NewState(128, 0, nil)
	s.AddSettlement(&Settlement{ID: "haven", Level: 2, BaseRadius: 10, RadiusPerLevel: 5})
	if !s.InSafeZone(mgl64.Vec2{19, 0}) {
		t.Fatalf("19 units should be inside radius 20")
	}
	if s.InSafeZone(mgl64.Vec2{21, 0}) {
		t.Fatalf("21 units should be outside radius 20")
	}
}

func TestNormalizeName(t *testing.T) {
	got, err := NormalizeName("  Ｒｏｓａ   Lee ", 3, 16)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "Rosa Lee" {
		t.Fatalf("got %q", got)
	}
	for _, bad := range []string{"ab", "bad<name>", "this-name-is-way-too-long"} {
		if _, err := NormalizeName(bad, 3, 16); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
}

func TestVitalsClamp(t *testing.T) {
	v := Vitals{HP: 120, Hunger: -4, Thirst: 50, Temperature: 101}
	v.Clamp(VitalLimits{MaxHP: 100, MaxHunger: 100, MaxThirst: 100, MaxTemperature: 100})
	if v != (Vitals{HP: 100, Hunger: 0, Thirst: 50, Temperature: 100}) {
		t.Fatalf("clamped=%+v", v)
	}
}
