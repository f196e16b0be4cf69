package pipeline

import (
	"math/rand"

	"ringforge/internal/heightmap"
	"ringforge/internal/meshing"
	"ringforge/internal/ring"
	"ringforge/internal/spawn"

	"github.com/go-gl/mathgl/mgl32"
)

// Spawn is one scattered placement, in chunk-local mesh space.
type Spawn struct {
	Item     spawn.Item
	Biome    string
	X, Y     int
	Position mgl32.Vec3
}

// Scatter rolls the spawn table of each cell's biome every ScatterStride
// cells. Rolls are seeded from the noise seed and the chunk's grid
// coordinate so regeneration is repeatable.
func (g *Generator) Scatter(chunk ring.Chunk, f *heightmap.Field) ([]Spawn, error) {
	s := g.settings
	if s.Biomes == nil || s.ScatterStride <= 0 {
		return nil, nil
	}
	rng := rand.New(rand.NewSource(scatterSeed(s.Noise.Seed, chunk.Grid)))
	curve := s.curve()

	var out []Spawn
	for y := 0; y < f.Height(); y += s.ScatterStride {
		for x := 0; x < f.Width(); x += s.ScatterStride {
			h := f.At(x, y)
			b, _, err := s.Biomes.Classify(h)
			if err != nil {
				return nil, err
			}
			tbl := s.Spawns.Lookup(b.SpawnTable)
			if tbl == nil {
				continue
			}
			item, ok := tbl.Pick(rng)
			if !ok {
				continue
			}
			pos := meshing.FlatVertex(f.Width(), f.Height(), x, y, curve.Evaluate(h)*s.HeightMultiplier)
			if s.Shape == ring.ShapeRing {
				pos = meshing.WrapRing(pos, f.Height(), s.Geometry.Radius, s.Geometry.DegreesPerChunk)
			}
			out = append(out, Spawn{Item: item, Biome: b.Name, X: x, Y: y, Position: pos})
		}
	}
	return out, nil
}

func scatterSeed(seed int64, g ring.Grid) int64 {
	return seed ^ int64(g.X)*73856093 ^ int64(g.Y)*19349663
}
