package ring

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeometryFor(t *testing.T) {
	g := GeometryFor(ChunkCount{X: 2, Y: 8}, MapChunkSize)
	assert.InDelta(t, 241.0/6*8, g.Radius, 1e-9)
	assert.Equal(t, 482.0, g.Width)
	assert.Equal(t, 45.0, g.DegreesPerChunk)
	assert.InDelta(t, 2*3.14159265*g.Radius, g.Circumference, 1e-3)
	assert.Equal(t, 241.0, g.HalfWidth())

	z := GeometryFor(ChunkCount{}, MapChunkSize)
	assert.Equal(t, 360.0, z.DegreesPerChunk, "zero counts clamp to one chunk")
}

func TestLayoutOffsetsAndPlacement(t *testing.T) {
	chunks := Layout(ChunkCount{X: 3, Y: 4}, MapChunkSize)
	require.Len(t, chunks, 12)

	byGrid := map[Grid]Chunk{}
	ids := map[uuid.UUID]bool{}
	for _, c := range chunks {
		byGrid[c.Grid] = c
		ids[c.ID] = true
	}
	assert.Len(t, ids, 12, "ids are unique")

	c := byGrid[Grid{X: 2, Y: 3}]
	assert.Equal(t, mgl64.Vec2{480, 720}, c.NoiseOffset)
	assert.Equal(t, mgl32.Vec3{240, 0, 0}, c.LocalPosition)
	assert.Equal(t, float32(270), c.RotationDegrees)

	left := byGrid[Grid{X: 0, Y: 0}]
	assert.Equal(t, mgl32.Vec3{-240, 0, 0}, left.LocalPosition)
	assert.True(t, left.LocalRotation.ApproxEqual(mgl32.QuatIdent()))
	assert.Equal(t, "chunk_0_0", left.Name())

	// A quarter turn about +X takes +Y to +Z.
	q := byGrid[Grid{X: 1, Y: 1}].LocalRotation
	assert.True(t, q.Rotate(mgl32.Vec3{0, 1, 0}).ApproxEqualThreshold(mgl32.Vec3{0, 0, 1}, 1e-5))
}

func TestLayoutEvenWidthCentres(t *testing.T) {
	chunks := Layout(ChunkCount{X: 2, Y: 1}, 11)
	xs := []float32{chunks[0].LocalPosition.X(), chunks[1].LocalPosition.X()}
	assert.ElementsMatch(t, []float32{-5, 5}, xs)
}

func TestPlaneLayout(t *testing.T) {
	chunks := PlaneLayout(ChunkCount{X: 2, Y: 2}, 5)
	require.Len(t, chunks, 4)
	for _, c := range chunks {
		assert.Equal(t, mgl32.Vec3{float32(c.Grid.X * 4), 0, float32(c.Grid.Y * 4)}, c.LocalPosition)
		assert.Equal(t, mgl64.Vec2{float64(c.Grid.X * 4), float64(c.Grid.Y * 4)}, c.NoiseOffset)
		assert.Equal(t, mgl32.QuatIdent(), c.LocalRotation)
	}

	c := PlaneChunk(Grid{X: -2, Y: 3}, 5)
	assert.Equal(t, mgl32.Vec3{-8, 0, 12}, c.LocalPosition)
	assert.Equal(t, mgl64.Vec2{-8, 12}, c.NoiseOffset)
	assert.NotEqual(t, PlaneChunk(Grid{}, 5).ID, PlaneChunk(Grid{}, 5).ID)
}

func TestChunkSetRebuildVersusReuse(t *testing.T) {
	s := NewChunkSet(ShapeRing)
	assert.True(t, s.Sync(ChunkCount{X: 1, Y: 4}, MapChunkSize), "first sync builds")
	first := s.Chunks()

	assert.False(t, s.Sync(ChunkCount{X: 1, Y: 4}, MapChunkSize), "same count reuses")
	again := s.Chunks()
	for i := range first {
		assert.Equal(t, first[i].ID, again[i].ID)
	}

	assert.True(t, s.Sync(ChunkCount{X: 1, Y: 6}, MapChunkSize), "count change rebuilds")
	rebuilt := s.Chunks()
	assert.Len(t, rebuilt, 6)
	assert.NotEqual(t, first[0].ID, rebuilt[0].ID)
	assert.Equal(t, ChunkCount{X: 1, Y: 6}, s.Count())
	assert.Equal(t, 60.0, s.Geometry().DegreesPerChunk)

	s.SetShape(ShapePlane)
	assert.True(t, s.Sync(ChunkCount{X: 1, Y: 6}, MapChunkSize), "shape change rebuilds")
	assert.Equal(t, mgl32.QuatIdent(), s.Chunks()[1].LocalRotation)
}

func TestChunksReturnsCopy(t *testing.T) {
	s := NewChunkSet(ShapeRing)
	s.Sync(ChunkCount{X: 1, Y: 2}, MapChunkSize)
	cs := s.Chunks()
	cs[0].RotationDegrees = 99
	assert.Equal(t, float32(0), s.Chunks()[0].RotationDegrees)
}

func TestParseShape(t *testing.T) {
	for in, want := range map[string]Shape{"": ShapeRing, "ring": ShapeRing, "Plane": ShapePlane} {
		got, err := ParseShape(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseShape("torus")
	assert.Error(t, err)
}
