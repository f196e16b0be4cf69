package pipeline

import (
	"fmt"
	"image"
	"log/slog"

	"ringforge/internal/biome"
	"ringforge/internal/heightmap"
	"ringforge/internal/meshing"
	"ringforge/internal/noise"
	"ringforge/internal/profiling"
	"ringforge/internal/ring"
	"ringforge/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
)

// ShaderData is the per-chunk parameter block handed to a renderer.
type ShaderData struct {
	HeightMin    float64
	HeightMax    float64
	RingPosition mgl32.Vec3
	RingRight    mgl32.Vec3
	RingRadius   float64
	RingWidth    float64
	LocalToWorld mgl32.Mat4
	Biomes       biome.ShaderArrays
}

// ChunkResult is everything produced for one chunk.
type ChunkResult struct {
	Chunk         ring.Chunk
	Heights       *heightmap.Field
	Mesh          *meshing.MeshData
	Texture       *image.NRGBA
	Shader        ShaderData
	Spawns        []Spawn
	NeedsCollider bool
}

// Generator runs the per-chunk pipeline. It holds no mutable state, so one
// Generator may serve many goroutines.
type Generator struct {
	settings Settings
	Logger   *slog.Logger
}

// NewGenerator returns a Generator over s.
func NewGenerator(s Settings) *Generator {
	if s.GridSize < 2 {
		s.GridSize = ring.MapChunkSize
	}
	return &Generator{settings: s, Logger: slog.Default()}
}

// Settings returns the generator's settings.
func (g *Generator) Settings() Settings { return g.settings }

// HeightField samples the normalised height field for a chunk: noise at the
// chunk's offset plus any extra algorithms.
func (g *Generator) HeightField(chunk ring.Chunk) (*heightmap.Field, error) {
	defer profiling.Track("pipeline.HeightField")()
	n := g.settings.GridSize
	f := noise.Generate(n, n, g.settings.Noise.WithOffset(chunk.NoiseOffset))
	if len(g.settings.Algorithms) == 0 {
		return f, nil
	}
	extra, err := heightmap.Layered(n, n, g.settings.Algorithms...)
	if err != nil {
		return nil, fmt.Errorf("%s: layered algorithms: %w", chunk.Name(), err)
	}
	return heightmap.Combine(f, extra)
}

// Mesh tessellates heights for the configured shape at the given LOD.
func (g *Generator) Mesh(f *heightmap.Field, lod int) *meshing.MeshData {
	s := g.settings
	if s.Shape == ring.ShapePlane {
		return meshing.TessellateFlat(f, s.HeightMultiplier, s.curve(), lod, s.InvertWinding)
	}
	return meshing.TessellateRing(f, s.HeightMultiplier, s.curve(), lod, s.Geometry.Radius, s.Geometry.DegreesPerChunk, s.InvertWinding)
}

// Texture bakes the chunk colours: biome tints when a biome set is
// configured, greyscale heights otherwise.
func (g *Generator) Texture(f *heightmap.Field) (*image.NRGBA, error) {
	if g.settings.Biomes == nil {
		return texture.FromHeightMap(f), nil
	}
	return texture.FromBiomes(f, g.settings.Biomes)
}

// Shader builds the shader parameter block for a chunk.
func (g *Generator) Shader(chunk ring.Chunk) ShaderData {
	s := g.settings
	lo, hi := s.HeightBounds()
	sd := ShaderData{
		HeightMin:    lo,
		HeightMax:    hi,
		RingPosition: s.RingPosition,
		RingRight:    ring.Right,
		RingRadius:   s.Geometry.Radius,
		RingWidth:    s.Geometry.Width,
		LocalToWorld: mgl32.Translate3D(s.RingPosition.X(), s.RingPosition.Y(), s.RingPosition.Z()).
			Mul4(mgl32.Translate3D(chunk.LocalPosition.X(), chunk.LocalPosition.Y(), chunk.LocalPosition.Z())).
			Mul4(chunk.LocalRotation.Mat4()),
	}
	if s.Biomes != nil {
		sd.Biomes = s.Biomes.Pack()
	}
	return sd
}

// GenerateChunk runs the whole pipeline for one chunk.
func (g *Generator) GenerateChunk(chunk ring.Chunk) (*ChunkResult, error) {
	defer profiling.Track("pipeline.GenerateChunk")()
	f, err := g.HeightField(chunk)
	if err != nil {
		return nil, err
	}
	img, err := g.Texture(f)
	if err != nil {
		return nil, fmt.Errorf("%s: texture: %w", chunk.Name(), err)
	}
	res := &ChunkResult{
		Chunk:         chunk,
		Heights:       f,
		Mesh:          g.Mesh(f, g.settings.LOD),
		Texture:       img,
		Shader:        g.Shader(chunk),
		NeedsCollider: g.settings.NeedsCollider,
	}
	if g.settings.Biomes != nil && g.settings.ScatterStride > 0 {
		res.Spawns, err = g.Scatter(chunk, f)
		if err != nil {
			return nil, fmt.Errorf("%s: scatter: %w", chunk.Name(), err)
		}
	}
	g.Logger.Debug("chunk generated", "chunk", chunk.Name(), "vertices", len(res.Mesh.Vertices), "spawns", len(res.Spawns))
	return res, nil
}
