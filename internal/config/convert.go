package config

import (
	"fmt"
	"math"

	"ringforge/internal/biome"
	"ringforge/internal/heightmap"
	"ringforge/internal/noise"
	"ringforge/internal/pipeline"
	"ringforge/internal/ring"
	"ringforge/internal/spawn"

	"github.com/go-gl/mathgl/mgl64"
)

func (v Vec2) vec() mgl64.Vec2 { return mgl64.Vec2{v.X, v.Y} }

// Params converts to noise.Params.
func (n NoiseConfig) Params() (noise.Params, error) {
	mode, err := noise.ParseNormalizeMode(n.Normalize)
	if err != nil {
		return noise.Params{}, err
	}
	basis, err := noise.ParseBasis(n.Basis)
	if err != nil {
		return noise.Params{}, err
	}
	return noise.Params{
		Seed:        n.Seed,
		Scale:       n.Scale,
		Octaves:     n.Octaves,
		Persistence: n.Persistence,
		Lacunarity:  n.Lacunarity,
		Offset:      n.Offset.vec(),
		Normalize:   mode,
		Basis:       basis,
	}.Sanitized(), nil
}

// Algorithm converts to a heightmap.Algorithm.
func (a AlgorithmConfig) Algorithm() (heightmap.Algorithm, error) {
	switch a.Type {
	case AlgorithmDiamondSquare:
		return heightmap.DiamondSquare{Seed: a.Seed, HeightMin: a.HeightMin, HeightMax: a.HeightMax}, nil
	case AlgorithmPerlinOffset:
		return heightmap.PerlinOffset{Seed: a.Seed, HeightMin: a.HeightMin, HeightMax: a.HeightMax, Offset: a.Offset.vec()}, nil
	}
	return nil, fmt.Errorf("unknown algorithm type %q", a.Type)
}

// Curve returns the height curve; no keys means linear.
func (l LayerConfig) Curve() heightmap.Curve {
	if len(l.HeightCurve) == 0 {
		return heightmap.Linear
	}
	return heightmap.NewKeyframes(l.HeightCurve...)
}

// BiomeSet builds the layer's biome set, or nil when it has none.
func (l LayerConfig) BiomeSet() (*biome.Set, error) {
	if len(l.Biomes) == 0 {
		return nil, nil
	}
	return biome.NewSet(l.Biomes)
}

// SpawnRegistry builds the named spawn tables.
func (c *Config) SpawnRegistry() spawn.Registry {
	r := make(spawn.Registry, len(c.SpawnTables))
	for name, t := range c.SpawnTables {
		r[name] = spawn.NewTable(t.Chance, t.Items)
	}
	return r
}

// Settings assembles pipeline settings for the named layer. The ring
// geometry comes from the chunk count, pushed out by the layer's radius
// offset.
func (c *Config) Settings(layer LayerConfig) (pipeline.Settings, error) {
	p, err := layer.Noise.Params()
	if err != nil {
		return pipeline.Settings{}, fmt.Errorf("layer %s: %w", layer.Name, err)
	}
	shape, err := ring.ParseShape(layer.Shape)
	if err != nil {
		return pipeline.Settings{}, fmt.Errorf("layer %s: %w", layer.Name, err)
	}
	set, err := layer.BiomeSet()
	if err != nil {
		return pipeline.Settings{}, fmt.Errorf("layer %s: %w", layer.Name, err)
	}
	algos := make([]heightmap.Algorithm, 0, len(layer.Algorithms))
	for i, a := range layer.Algorithms {
		alg, err := a.Algorithm()
		if err != nil {
			return pipeline.Settings{}, fmt.Errorf("layer %s: algorithms[%d]: %w", layer.Name, i, err)
		}
		algos = append(algos, alg)
	}

	geo := ring.GeometryFor(c.ChunkCount, c.GridSize)
	geo.Radius += layer.RadiusOffset
	geo.Circumference = 2 * math.Pi * geo.Radius
	return pipeline.Settings{
		GridSize:         c.GridSize,
		Noise:            p,
		Algorithms:       algos,
		HeightMultiplier: layer.HeightMultiplier,
		HeightCurve:      layer.Curve(),
		Biomes:           set,
		Spawns:           c.SpawnRegistry(),
		ScatterStride:    layer.ScatterStride,
		Shape:            shape,
		Geometry:         geo,
		LOD:              layer.LOD,
		InvertWinding:    layer.InvertWinding,
		NeedsCollider:    layer.NeedsCollider,
	}, nil
}
