package world

import (
	"testing"
	"time"

	"ringforge/internal/config"
	"ringforge/internal/meshing"
	"ringforge/internal/noise"
	"ringforge/internal/pipeline"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGrid = 17

func testOptions() config.EndlessConfig {
	return config.EndlessConfig{
		ViewerMoveThreshold: 10,
		ColliderLODIndex:    0,
		DetailLevels: []config.DetailLevel{
			{LOD: 0, VisibleDistance: 20},
			{LOD: 1, VisibleDistance: 40},
		},
	}
}

func newTestStreamer(t *testing.T, workers int) (*ChunkStreamer, *pipeline.Queue) {
	t.Helper()
	p := noise.DefaultParams()
	p.Seed = 3
	p.Scale = 25
	s := pipeline.DefaultSettings()
	s.GridSize = testGrid
	s.Noise = p
	s.HeightMultiplier = 6
	s.NeedsCollider = true

	q := pipeline.NewQueue(workers, 512)
	t.Cleanup(q.Close)
	cs, err := NewChunkStreamer(s, q, testOptions())
	require.NoError(t, err)
	return cs, q
}

// drainAll drains q until nothing is pending or ready.
func drainAll(t *testing.T, q *pipeline.Queue) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for q.Pending() > 0 || q.Ready() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("queue did not settle: pending=%d ready=%d", q.Pending(), q.Ready())
		}
		if q.Drain(0) == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}

func TestNewChunkStreamerRejectsBadOptions(t *testing.T) {
	q := pipeline.NewQueue(1, 1)
	defer q.Close()

	_, err := NewChunkStreamer(pipeline.DefaultSettings(), q, config.EndlessConfig{})
	assert.ErrorIs(t, err, ErrNoDetailLevels)

	opts := testOptions()
	opts.ColliderLODIndex = 2
	_, err = NewChunkStreamer(pipeline.DefaultSettings(), q, opts)
	assert.Error(t, err)
}

func TestViewerChunk(t *testing.T) {
	cs, _ := newTestStreamer(t, 1)
	tests := []struct {
		viewer mgl64.Vec2
		want   ChunkCoord
	}{
		{mgl64.Vec2{0, 0}, ChunkCoord{0, 0}},
		{mgl64.Vec2{7.9, 0}, ChunkCoord{0, 0}},
		{mgl64.Vec2{8.1, -8.1}, ChunkCoord{1, -1}},
		{mgl64.Vec2{-40, 33}, ChunkCoord{-3, 2}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cs.ViewerChunk(tt.viewer), "viewer %v", tt.viewer)
	}
}

func TestUpdateStreamsChunksWithDistanceLOD(t *testing.T) {
	cs, q := newTestStreamer(t, 4)

	require.True(t, cs.Update(mgl64.Vec2{0, 0}))
	drainAll(t, q)

	// round(40/16) = 3 chunks in each direction.
	assert.Equal(t, 49, cs.Store().Len())

	near := cs.Store().GetChunk(ChunkCoord{0, 0})
	require.NotNil(t, near)
	require.NotNil(t, near.Mesh())
	assert.True(t, near.Visible())
	assert.Equal(t, 0, near.LODIndex())
	assert.Len(t, near.Mesh().Vertices, testGrid*testGrid)
	assert.NotNil(t, near.Collider())
	assert.Equal(t, testGrid, near.Texture().Bounds().Dx())

	mid := cs.Store().GetChunk(ChunkCoord{2, 0})
	require.NotNil(t, mid.Mesh())
	assert.Equal(t, 1, mid.LODIndex())
	side := meshing.VerticesPerLine(testGrid, 1)
	assert.Len(t, mid.Mesh().Vertices, side*side)
	assert.Nil(t, mid.Collider())

	far := cs.Store().GetChunk(ChunkCoord{3, 3})
	require.NotNil(t, far)
	assert.NotNil(t, far.Heights())
	assert.False(t, far.Visible())
	assert.Nil(t, far.Mesh())

	for _, c := range cs.Store().GetAllChunks() {
		want := c.Chunk.DistanceTo(mgl64.Vec2{}) <= cs.MaxViewDistance()
		assert.Equal(t, want, c.Chunk.Visible(), "chunk %s", c.Coord)
	}
	for _, c := range cs.Visible() {
		assert.True(t, c.Visible())
	}

	// Chunks within 20 units of the origin: the 3x3 block around it.
	colliders := cs.Colliders(nil)
	assert.Len(t, colliders, 9)
	for _, c := range colliders {
		assert.NotNil(t, c.Collider(), "chunk %s", c.Coord)
		assert.LessOrEqual(t, c.Coord.X*c.Coord.X, 1)
		assert.LessOrEqual(t, c.Coord.Z*c.Coord.Z, 1)
	}
}

func TestUpdateHonoursMoveThreshold(t *testing.T) {
	cs, q := newTestStreamer(t, 2)
	require.True(t, cs.Update(mgl64.Vec2{0, 0}))
	drainAll(t, q)

	assert.False(t, cs.Update(mgl64.Vec2{5, 0}))
	assert.False(t, cs.Update(mgl64.Vec2{0, 9}))
	assert.True(t, cs.Update(mgl64.Vec2{0, 11}))
}

func TestUpdateEvictsChunksBeyondTwiceViewDistance(t *testing.T) {
	cs, q := newTestStreamer(t, 4)
	require.True(t, cs.Update(mgl64.Vec2{0, 0}))
	drainAll(t, q)
	before := cs.Store().GetModCount()

	require.True(t, cs.Update(mgl64.Vec2{200, 0}))
	assert.Nil(t, cs.Store().GetChunk(ChunkCoord{0, 0}))
	assert.NotNil(t, cs.Store().GetChunk(ChunkCoord{13, 0}))
	assert.Equal(t, 49, cs.Store().Len())
	assert.Greater(t, cs.Store().GetModCount(), before)
	drainAll(t, q)

	for _, c := range cs.Visible() {
		assert.LessOrEqual(t, c.DistanceTo(mgl64.Vec2{200, 0}), cs.MaxViewDistance())
	}
}

func TestUpdateCapsRequestsAndRetries(t *testing.T) {
	cs, q := newTestStreamer(t, 1)
	cs.MaxRequestsPerUpdate = 5

	require.True(t, cs.Update(mgl64.Vec2{0, 0}))
	assert.Equal(t, 5, q.Pending()+q.Ready())
	assert.Equal(t, 49, cs.Store().Len())

	require.True(t, cs.Update(mgl64.Vec2{0, 0}), "capped refresh retries without movement")
	assert.Equal(t, 10, q.Pending()+q.Ready())
}

func TestUpdateNearestChunksFirst(t *testing.T) {
	cs, q := newTestStreamer(t, 1)
	cs.MaxRequestsPerUpdate = 9
	require.True(t, cs.Update(mgl64.Vec2{0, 0}))
	drainAll(t, q)

	for _, coord := range append(ringCoords(ChunkCoord{}, 0), ringCoords(ChunkCoord{}, 1)...) {
		assert.NotNil(t, cs.Store().GetChunk(coord).Heights(), "chunk %s", coord)
	}
	assert.Nil(t, cs.Store().GetChunk(ChunkCoord{2, 2}).Heights())
}

func TestRingCoords(t *testing.T) {
	assert.Equal(t, []ChunkCoord{{4, 5}}, ringCoords(ChunkCoord{4, 5}, 0))
	for r := 1; r <= 3; r++ {
		coords := ringCoords(ChunkCoord{}, r)
		assert.Len(t, coords, 8*r)
		seen := make(map[ChunkCoord]bool)
		for _, c := range coords {
			assert.False(t, seen[c], "duplicate %s", c)
			seen[c] = true
			assert.Equal(t, r, max(abs(c.X), abs(c.Z)))
		}
	}
}

func TestLODFor(t *testing.T) {
	levels := testOptions().DetailLevels
	assert.Equal(t, 0, lodFor(levels, 0))
	assert.Equal(t, 0, lodFor(levels, 20))
	assert.Equal(t, 1, lodFor(levels, 20.5))
	assert.Equal(t, 1, lodFor(levels, 1000))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
