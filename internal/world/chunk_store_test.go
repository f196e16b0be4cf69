package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

func TestChunkStoreAddKeepsExisting(t *testing.T) {
	cs := NewChunkStore()
	levels := testOptions().DetailLevels
	first := newTerrainChunk(ChunkCoord{1, 2}, testGrid, levels)
	second := newTerrainChunk(ChunkCoord{1, 2}, testGrid, levels)

	if got := cs.AddChunk(first.Coord, first); got != first {
		t.Fatalf("expected first chunk to be stored")
	}
	if got := cs.AddChunk(second.Coord, second); got != first {
		t.Fatalf("AddChunk replaced an existing chunk")
	}
	if cs.GetModCount() != 1 {
		t.Errorf("mod count = %d, want 1", cs.GetModCount())
	}
	if cs.GetChunk(ChunkCoord{1, 2}) != first || cs.GetChunk(ChunkCoord{2, 1}) != nil {
		t.Errorf("GetChunk mismatch")
	}
}

func TestChunkStoreRadiusAndEviction(t *testing.T) {
	cs := NewChunkStore()
	levels := testOptions().DetailLevels
	for x := -3; x <= 3; x++ {
		for z := -3; z <= 3; z++ {
			c := ChunkCoord{x, z}
			cs.AddChunk(c, newTerrainChunk(c, testGrid, levels))
		}
	}

	in := cs.AppendChunksInRadius(ChunkCoord{}, 1, nil)
	if len(in) != 5 {
		t.Errorf("radius 1 returned %d chunks, want 5", len(in))
	}

	all := cs.GetAllChunks()
	if all[0].Coord != (ChunkCoord{-3, -3}) || all[len(all)-1].Coord != (ChunkCoord{3, 3}) {
		t.Errorf("GetAllChunks not ordered: first %v last %v", all[0].Coord, all[len(all)-1].Coord)
	}

	// Chunks span 16 units; x=2 starts 24 units from the origin.
	removed := cs.EvictFarChunks(mgl64.Vec2{0, 0}, 20)
	if cs.Len() != 9 {
		t.Errorf("after eviction %d chunks remain, want 9", cs.Len())
	}
	if len(removed) != 40 {
		t.Errorf("removed %d chunks, want 40", len(removed))
	}
}

func TestTerrainChunkPlacement(t *testing.T) {
	c := newTerrainChunk(ChunkCoord{-1, 2}, testGrid, testOptions().DetailLevels)
	if want := (mgl32.Vec3{-16, 0, 32}); c.Chunk.LocalPosition != want {
		t.Errorf("position %v, want %v", c.Chunk.LocalPosition, want)
	}
	if d := c.DistanceTo(mgl64.Vec2{-16, 32}); d != 0 {
		t.Errorf("distance from centre %v, want 0", d)
	}
	if d := c.DistanceTo(mgl64.Vec2{-16, 50}); d != 10 {
		t.Errorf("distance %v, want 10", d)
	}
	if c.LODIndex() != -1 || c.Mesh() != nil {
		t.Errorf("new chunk should have no mesh")
	}
}
