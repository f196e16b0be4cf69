// Package pipeline turns chunk descriptors into height fields, meshes,
// textures and shader parameters, synchronously or on background workers.
package pipeline

import (
	"ringforge/internal/biome"
	"ringforge/internal/heightmap"
	"ringforge/internal/noise"
	"ringforge/internal/ring"
	"ringforge/internal/spawn"

	"github.com/go-gl/mathgl/mgl32"
)

// Settings is shared, read-only input for a generation pass. Callers build
// a fresh value to change parameters; workers never mutate it.
type Settings struct {
	GridSize int
	Noise    noise.Params
	// Algorithms are summed on top of the noise field.
	Algorithms []heightmap.Algorithm

	HeightMultiplier float64
	HeightCurve      heightmap.Curve

	Biomes *biome.Set
	Spawns spawn.Registry
	// ScatterStride is the cell spacing between spawn rolls; 0 disables scattering.
	ScatterStride int

	Shape         ring.Shape
	Geometry      ring.Geometry
	RingPosition  mgl32.Vec3
	LOD           int
	InvertWinding bool
	NeedsCollider bool
}

// DefaultSettings returns a ring of the default chunk count with default noise.
func DefaultSettings() Settings {
	return Settings{
		GridSize:         ring.MapChunkSize,
		Noise:            noise.DefaultParams(),
		HeightMultiplier: 30,
		HeightCurve:      heightmap.Linear,
		Shape:            ring.ShapeRing,
		Geometry:         ring.GeometryFor(ring.DefaultChunkCount, ring.MapChunkSize),
	}
}

func (s Settings) curve() heightmap.Curve {
	if s.HeightCurve == nil {
		return heightmap.Linear
	}
	return s.HeightCurve
}

// HeightBounds returns the elevation range produced for normalised heights
// in [0,1].
func (s Settings) HeightBounds() (lo, hi float64) {
	c := s.curve()
	return c.Evaluate(0) * s.HeightMultiplier, c.Evaluate(1) * s.HeightMultiplier
}
