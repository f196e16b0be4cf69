package world

import (
	"fmt"
	"image"
	"math"

	"ringforge/internal/config"
	"ringforge/internal/heightmap"
	"ringforge/internal/meshing"
	"ringforge/internal/ring"

	"github.com/go-gl/mathgl/mgl64"
)

// ChunkCoord addresses a chunk on the XZ grid.
type ChunkCoord struct {
	X, Z int
}

func (c ChunkCoord) String() string { return fmt.Sprintf("%d,%d", c.X, c.Z) }

func (c ChunkCoord) grid() ring.Grid { return ring.Grid{X: c.X, Y: c.Z} }

// lodMesh is one detail level of a chunk.
type lodMesh struct {
	lod       int
	mesh      *meshing.MeshData
	requested bool
}

// TerrainChunk is one streamed tile. Its fields belong to the goroutine
// that drives the Streamer.
type TerrainChunk struct {
	Coord ChunkCoord
	Chunk ring.Chunk

	heights         *heightmap.Field
	texture         *image.NRGBA
	heightRequested bool

	center mgl64.Vec2
	half   float64

	lods     []lodMesh
	lodIndex int
	mesh     *meshing.MeshData
	collider *meshing.MeshData
	visible  bool
}

func newTerrainChunk(coord ChunkCoord, gridSize int, levels []config.DetailLevel) *TerrainChunk {
	size := float64(gridSize - 1)
	c := &TerrainChunk{
		Coord:    coord,
		Chunk:    ring.PlaneChunk(coord.grid(), gridSize),
		center:   mgl64.Vec2{float64(coord.X) * size, float64(coord.Z) * size},
		half:     size / 2,
		lods:     make([]lodMesh, len(levels)),
		lodIndex: -1,
	}
	for i, l := range levels {
		c.lods[i].lod = l.LOD
	}
	return c
}

// Heights returns the chunk's height field, nil until it arrives.
func (c *TerrainChunk) Heights() *heightmap.Field { return c.heights }

// Texture returns the chunk's baked colours, nil until they arrive.
func (c *TerrainChunk) Texture() *image.NRGBA { return c.texture }

// Mesh returns the mesh currently shown, nil until one arrives.
func (c *TerrainChunk) Mesh() *meshing.MeshData { return c.mesh }

// LODIndex returns the detail level index of Mesh, or -1.
func (c *TerrainChunk) LODIndex() int { return c.lodIndex }

// Collider returns the collision mesh, nil when none was needed yet.
func (c *TerrainChunk) Collider() *meshing.MeshData { return c.collider }

// Visible reports whether the chunk was within view distance at the last
// update.
func (c *TerrainChunk) Visible() bool { return c.visible }

// DistanceTo returns the distance from viewer (x, z) to the nearest point
// of the chunk's bounds.
func (c *TerrainChunk) DistanceTo(viewer mgl64.Vec2) float64 {
	dx := max(math.Abs(viewer.X()-c.center.X())-c.half, 0)
	dz := max(math.Abs(viewer.Y()-c.center.Y())-c.half, 0)
	return math.Hypot(dx, dz)
}

// lodFor picks the first detail level whose distance covers dist.
func lodFor(levels []config.DetailLevel, dist float64) int {
	for i := 0; i < len(levels)-1; i++ {
		if dist <= levels[i].VisibleDistance {
			return i
		}
	}
	return len(levels) - 1
}
