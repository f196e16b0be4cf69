// Package ring partitions a ring (or a flat plane) into fixed-size terrain
// chunks and computes where each chunk samples noise and how it is placed.
package ring

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// MapChunkSize is the number of height samples along each side of a chunk.
const MapChunkSize = 241

// ChunkCount is the layout size in chunks. X runs across the ring's width
// and Y around its circumference.
type ChunkCount struct {
	X int `yaml:"x" toml:"x"`
	Y int `yaml:"y" toml:"y"`
}

// DefaultChunkCount is one chunk wide and eight around.
var DefaultChunkCount = ChunkCount{X: 1, Y: 8}

// Sanitized clamps both axes to at least one chunk.
func (c ChunkCount) Sanitized() ChunkCount {
	return ChunkCount{X: max(c.X, 1), Y: max(c.Y, 1)}
}

// Total returns X*Y.
func (c ChunkCount) Total() int { return c.X * c.Y }

func (c ChunkCount) String() string { return fmt.Sprintf("%dx%d", c.X, c.Y) }

// Grid is a chunk's integer coordinate within the layout.
type Grid struct {
	X int `yaml:"x" toml:"x"`
	Y int `yaml:"y" toml:"y"`
}

// Geometry describes the ring derived from a chunk count.
type Geometry struct {
	Radius          float64 `yaml:"radius"`
	Width           float64 `yaml:"width"`
	DegreesPerChunk float64 `yaml:"degreesPerChunk"`
	Circumference   float64 `yaml:"circumference"`
}

// GeometryFor derives the ring geometry. The radius is always
// gridSize/6 per circumferential chunk.
func GeometryFor(count ChunkCount, gridSize int) Geometry {
	count = count.Sanitized()
	radius := float64(gridSize) / 6 * float64(count.Y)
	return Geometry{
		Radius:          radius,
		Width:           float64(gridSize * count.X),
		DegreesPerChunk: 360 / float64(count.Y),
		Circumference:   2 * math.Pi * radius,
	}
}

// Diameter returns twice the radius.
func (g Geometry) Diameter() float64 { return g.Radius * 2 }

// HalfWidth returns half the ring width.
func (g Geometry) HalfWidth() float64 { return g.Width / 2 }

// Chunk describes one tile: where it samples the shared noise field and how
// it is placed relative to its parent.
type Chunk struct {
	ID              uuid.UUID
	Grid            Grid
	NoiseOffset     mgl64.Vec2
	LocalPosition   mgl32.Vec3
	LocalRotation   mgl32.Quat
	RotationDegrees float32
}

// Name returns a stable label such as "chunk_0_3".
func (c Chunk) Name() string {
	return fmt.Sprintf("chunk_%d_%d", c.Grid.X, c.Grid.Y)
}

// Right is the axis the chunk is rotated around.
var Right = mgl32.Vec3{1, 0, 0}

// Layout places count.X x count.Y chunks around a ring. Adjacent chunks
// sample adjacent, edge-sharing regions of the noise field; chunks are
// centred across the width and rotated 360/count.Y degrees apart.
func Layout(count ChunkCount, gridSize int) []Chunk {
	count = count.Sanitized()
	chunks := make([]Chunk, 0, count.Total())
	for x := 0; x < count.X; x++ {
		for y := 0; y < count.Y; y++ {
			c := Chunk{ID: uuid.New(), Grid: Grid{X: x, Y: y}}
			placeOnRing(&c, count, gridSize)
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// PlaneLayout tiles the chunks on the XZ plane with the same noise offsets
// as Layout.
func PlaneLayout(count ChunkCount, gridSize int) []Chunk {
	count = count.Sanitized()
	chunks := make([]Chunk, 0, count.Total())
	for x := 0; x < count.X; x++ {
		for y := 0; y < count.Y; y++ {
			c := Chunk{ID: uuid.New(), Grid: Grid{X: x, Y: y}}
			placeOnPlane(&c, gridSize)
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// PlaneChunk returns a new flat tile at g. Grid coordinates may be
// negative, so streamed terrain can grow in every direction.
func PlaneChunk(g Grid, gridSize int) Chunk {
	c := Chunk{ID: uuid.New(), Grid: g}
	placeOnPlane(&c, gridSize)
	return c
}

func noiseOffset(g Grid, gridSize int) mgl64.Vec2 {
	step := float64(gridSize - 1)
	return mgl64.Vec2{float64(g.X) * step, float64(g.Y) * step}
}

func placeOnRing(c *Chunk, count ChunkCount, gridSize int) {
	step := float32(gridSize - 1)
	deg := float32(c.Grid.Y) * 360 / float32(count.Y)
	c.NoiseOffset = noiseOffset(c.Grid, gridSize)
	c.LocalPosition = mgl32.Vec3{(float32(c.Grid.X) - float32(count.X-1)/2) * step, 0, 0}
	c.RotationDegrees = deg
	c.LocalRotation = mgl32.QuatRotate(mgl32.DegToRad(deg), Right)
}

func placeOnPlane(c *Chunk, gridSize int) {
	step := float32(gridSize - 1)
	c.NoiseOffset = noiseOffset(c.Grid, gridSize)
	c.LocalPosition = mgl32.Vec3{float32(c.Grid.X) * step, 0, float32(c.Grid.Y) * step}
	c.RotationDegrees = 0
	c.LocalRotation = mgl32.QuatIdent()
}
