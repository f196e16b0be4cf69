// Package config loads, sanitises and validates terrain generation settings.
package config

import (
	"errors"
	"fmt"
	"strings"

	"ringforge/internal/biome"
	"ringforge/internal/heightmap"
	"ringforge/internal/noise"
	"ringforge/internal/ring"
	"ringforge/internal/spawn"
)

// Vec2 is a serialisable 2D vector.
type Vec2 struct {
	X float64 `yaml:"x" toml:"x"`
	Y float64 `yaml:"y" toml:"y"`
}

// Config is the persisted description of a ringworld.
type Config struct {
	GridSize    int                         `yaml:"gridSize" toml:"gridSize"`
	ChunkCount  ring.ChunkCount             `yaml:"chunkCount" toml:"chunkCount"`
	Workers     int                         `yaml:"workers" toml:"workers"`
	AutoRefresh bool                        `yaml:"autoRefresh" toml:"autoRefresh"`
	PreviewLOD  int                         `yaml:"previewLod" toml:"previewLod"`
	Layers      []LayerConfig               `yaml:"layers" toml:"layers"`
	SpawnTables map[string]SpawnTableConfig `yaml:"spawnTables,omitempty" toml:"spawnTables,omitempty"`
	Endless     EndlessConfig               `yaml:"endless" toml:"endless"`
}

// NoiseConfig mirrors noise.Params with string enums.
type NoiseConfig struct {
	Seed        int64   `yaml:"seed" toml:"seed"`
	Scale       float64 `yaml:"scale" toml:"scale"`
	Octaves     int     `yaml:"octaves" toml:"octaves"`
	Persistence float64 `yaml:"persistence" toml:"persistence"`
	Lacunarity  float64 `yaml:"lacunarity" toml:"lacunarity"`
	Offset      Vec2    `yaml:"offset" toml:"offset"`
	Normalize   string  `yaml:"normalize" toml:"normalize"` // local | global
	Basis       string  `yaml:"basis" toml:"basis"`         // perlin | opensimplex | value
}

// Algorithm types.
const (
	AlgorithmDiamondSquare = "diamond_square"
	AlgorithmPerlinOffset  = "perlin_offset"
)

// AlgorithmConfig describes an extra height layer summed onto the noise.
type AlgorithmConfig struct {
	Type      string  `yaml:"type" toml:"type"`
	Seed      int64   `yaml:"seed" toml:"seed"`
	HeightMin float64 `yaml:"heightMin" toml:"heightMin"`
	HeightMax float64 `yaml:"heightMax" toml:"heightMax"`
	Offset    Vec2    `yaml:"offset,omitempty" toml:"offset,omitempty"`
}

// LayerConfig is one generated surface of the ring.
type LayerConfig struct {
	Name             string               `yaml:"name" toml:"name"`
	Shape            string               `yaml:"shape" toml:"shape"` // ring | plane
	Noise            NoiseConfig          `yaml:"noise" toml:"noise"`
	Algorithms       []AlgorithmConfig    `yaml:"algorithms,omitempty" toml:"algorithms,omitempty"`
	HeightMultiplier float64              `yaml:"heightMultiplier" toml:"heightMultiplier"`
	HeightCurve      []heightmap.Keyframe `yaml:"heightCurve,omitempty" toml:"heightCurve,omitempty"`
	Biomes           []biome.Biome        `yaml:"biomes,omitempty" toml:"biomes,omitempty"`
	LOD              int                  `yaml:"lod" toml:"lod"`
	InvertWinding    bool                 `yaml:"invertWinding" toml:"invertWinding"`
	RadiusOffset     float64              `yaml:"radiusOffset" toml:"radiusOffset"`
	NeedsCollider    bool                 `yaml:"needsCollider" toml:"needsCollider"`
	ScatterStride    int                  `yaml:"scatterStride" toml:"scatterStride"`
}

// SpawnTableConfig is a named spawn.Table.
type SpawnTableConfig struct {
	Chance float64      `yaml:"chance" toml:"chance"`
	Items  []spawn.Item `yaml:"items" toml:"items"`
}

// DetailLevel pairs a mesh LOD with the distance up to which it is used.
type DetailLevel struct {
	LOD             int     `yaml:"lod" toml:"lod"`
	VisibleDistance float64 `yaml:"visibleDistance" toml:"visibleDistance"`
}

// EndlessConfig drives the streaming planar terrain.
type EndlessConfig struct {
	// Layer names the layer to stream; empty means the first layer.
	Layer               string        `yaml:"layer" toml:"layer"`
	ViewerMoveThreshold float64       `yaml:"viewerMoveThreshold" toml:"viewerMoveThreshold"`
	ColliderLODIndex    int           `yaml:"colliderLodIndex" toml:"colliderLodIndex"`
	DetailLevels        []DetailLevel `yaml:"detailLevels" toml:"detailLevels"`
}

// DefaultNoise returns the documented noise defaults.
func DefaultNoise() NoiseConfig {
	p := noise.DefaultParams()
	return NoiseConfig{
		Scale:       p.Scale,
		Octaves:     p.Octaves,
		Persistence: p.Persistence,
		Lacunarity:  p.Lacunarity,
		Normalize:   p.Normalize.String(),
		Basis:       p.Basis.String(),
	}
}

// Default returns a one-layer ringworld with a land biome palette.
func Default() *Config {
	return &Config{
		GridSize:   ring.MapChunkSize,
		ChunkCount: ring.DefaultChunkCount,
		Workers:    4,
		Layers: []LayerConfig{{
			Name:             "surface",
			Shape:            ring.ShapeRing.String(),
			Noise:            DefaultNoise(),
			HeightMultiplier: 30,
			HeightCurve: []heightmap.Keyframe{
				{Time: 0, Value: 0},
				{Time: 0.4, Value: 0.05, InTangent: 0.2, OutTangent: 0.2},
				{Time: 1, Value: 1, InTangent: 2, OutTangent: 2},
			},
			Biomes: []biome.Biome{
				{Name: "water", Tint: biome.Color{R: 0x2a, G: 0x5d, B: 0xb0, A: 0xff}, TintStrength: 1, TextureScale: 1},
				{Name: "sand", StartHeight: 0.35, Tint: biome.Color{R: 0xd8, G: 0xc7, B: 0x8a, A: 0xff}, TintStrength: 1, BlendStrength: 0.05, TextureScale: 1},
				{Name: "grass", StartHeight: 0.42, Tint: biome.Color{R: 0x4f, G: 0x8f, B: 0x35, A: 0xff}, TintStrength: 1, BlendStrength: 0.1, TextureScale: 1, SpawnTable: "forest"},
				{Name: "rock", StartHeight: 0.7, Tint: biome.Color{R: 0x6b, G: 0x5e, B: 0x55, A: 0xff}, TintStrength: 1, BlendStrength: 0.1, TextureScale: 1},
				{Name: "snow", StartHeight: 0.9, Tint: biome.Color{R: 0xf4, G: 0xf4, B: 0xf8, A: 0xff}, TintStrength: 1, BlendStrength: 0.05, TextureScale: 1},
			},
			NeedsCollider: true,
			ScatterStride: 8,
		}},
		SpawnTables: map[string]SpawnTableConfig{
			"forest": {Chance: 30, Items: []spawn.Item{{Ref: "pine", Weight: 10}, {Ref: "oak", Weight: 5}, {Ref: "bush", Weight: 1}}},
		},
		Endless: EndlessConfig{
			ViewerMoveThreshold: 25,
			DetailLevels: []DetailLevel{
				{LOD: 0, VisibleDistance: 200},
				{LOD: 1, VisibleDistance: 400},
				{LOD: 4, VisibleDistance: 600},
			},
		},
	}
}

// Sanitize clamps numeric fields into their valid ranges and fills empty
// enums with their defaults. It never fails; Validate reports what cannot
// be repaired.
func (c *Config) Sanitize() {
	if c.GridSize < 2 {
		c.GridSize = ring.MapChunkSize
	}
	c.ChunkCount = c.ChunkCount.Sanitized()
	c.Workers = max(1, min(MaxWorkers, c.Workers))
	c.PreviewLOD = max(MinPreviewLOD, min(MaxPreviewLOD, c.PreviewLOD))
	for i := range c.Layers {
		l := &c.Layers[i]
		l.Noise.sanitize()
		l.LOD = max(MinPreviewLOD, min(MaxPreviewLOD, l.LOD))
		l.HeightMultiplier = max(0, l.HeightMultiplier)
		l.ScatterStride = max(0, l.ScatterStride)
		if l.Shape == "" {
			l.Shape = ring.ShapeRing.String()
		}
	}
	for name, t := range c.SpawnTables {
		t.Chance = max(0, min(100, t.Chance))
		c.SpawnTables[name] = t
	}
	c.Endless.ViewerMoveThreshold = max(0, c.Endless.ViewerMoveThreshold)
	for i := range c.Endless.DetailLevels {
		d := &c.Endless.DetailLevels[i]
		d.LOD = max(MinPreviewLOD, min(MaxPreviewLOD, d.LOD))
	}
}

func (n *NoiseConfig) fillDefaults() {
	d := DefaultNoise()
	if n.Scale == 0 {
		n.Scale = d.Scale
	}
	if n.Octaves == 0 {
		n.Octaves = d.Octaves
	}
	if n.Lacunarity == 0 {
		n.Lacunarity = d.Lacunarity
	}
}

func (n *NoiseConfig) sanitize() {
	p := noise.Params{Scale: n.Scale, Octaves: n.Octaves, Persistence: n.Persistence, Lacunarity: n.Lacunarity}.Sanitized()
	n.Scale, n.Octaves, n.Persistence, n.Lacunarity = p.Scale, p.Octaves, p.Persistence, p.Lacunarity
	if n.Normalize == "" {
		n.Normalize = noise.Global.String()
	}
	if n.Basis == "" {
		n.Basis = noise.Perlin.String()
	}
}

// Validate reports configuration errors that Sanitize cannot repair.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Layers) == 0 {
		errs = append(errs, errors.New("layers must not be empty"))
	}
	seen := make(map[string]bool, len(c.Layers))
	for i, l := range c.Layers {
		if err := l.validate(c.SpawnTables); err != nil {
			errs = append(errs, fmt.Errorf("layers[%d]: %w", i, err))
		}
		if l.Name != "" && seen[l.Name] {
			errs = append(errs, fmt.Errorf("layers[%d].name %q is duplicated", i, l.Name))
		}
		seen[l.Name] = true
	}
	for name, t := range c.SpawnTables {
		for i, it := range t.Items {
			if it.Ref == "" {
				errs = append(errs, fmt.Errorf("spawnTables.%s.items[%d].ref must be set", name, i))
			}
		}
	}
	if err := c.Endless.validate(seen); err != nil {
		errs = append(errs, fmt.Errorf("endless: %w", err))
	}
	return errors.Join(errs...)
}

func (l LayerConfig) validate(tables map[string]SpawnTableConfig) error {
	if l.Name == "" {
		return errors.New("name must be set")
	}
	if _, err := ring.ParseShape(l.Shape); err != nil {
		return fmt.Errorf("shape: %w", err)
	}
	if _, err := noise.ParseNormalizeMode(l.Noise.Normalize); err != nil {
		return fmt.Errorf("noise.normalize: %w", err)
	}
	if _, err := noise.ParseBasis(l.Noise.Basis); err != nil {
		return fmt.Errorf("noise.basis: %w", err)
	}
	for i, a := range l.Algorithms {
		switch a.Type {
		case AlgorithmDiamondSquare, AlgorithmPerlinOffset:
		default:
			return fmt.Errorf("algorithms[%d].type %q is unknown", i, a.Type)
		}
		if a.HeightMax < a.HeightMin {
			return fmt.Errorf("algorithms[%d]: heightMax below heightMin", i)
		}
	}
	if len(l.Biomes) > biome.MaxBiomes {
		return fmt.Errorf("biomes: %d exceeds the maximum of %d", len(l.Biomes), biome.MaxBiomes)
	}
	for i, b := range l.Biomes {
		if b.SpawnTable == "" {
			continue
		}
		if _, ok := tables[b.SpawnTable]; !ok {
			return fmt.Errorf("biomes[%d].spawnTable %q is not defined", i, b.SpawnTable)
		}
	}
	return nil
}

func (e EndlessConfig) validate(layers map[string]bool) error {
	if len(e.DetailLevels) == 0 {
		return nil
	}
	if e.Layer != "" && !layers[e.Layer] {
		return fmt.Errorf("layer %q is not defined", e.Layer)
	}
	prev := 0.0
	for i, d := range e.DetailLevels {
		if d.VisibleDistance <= prev {
			return fmt.Errorf("detailLevels[%d].visibleDistance must increase", i)
		}
		prev = d.VisibleDistance
	}
	if e.ColliderLODIndex < 0 || e.ColliderLODIndex >= len(e.DetailLevels) {
		return fmt.Errorf("colliderLodIndex %d out of range", e.ColliderLODIndex)
	}
	return nil
}

// Layer returns the layer with the given name.
func (c *Config) Layer(name string) (LayerConfig, bool) {
	for _, l := range c.Layers {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return LayerConfig{}, false
}

// EndlessLayer returns the layer streamed by the endless terrain.
func (c *Config) EndlessLayer() (LayerConfig, bool) {
	if c.Endless.Layer == "" {
		if len(c.Layers) == 0 {
			return LayerConfig{}, false
		}
		return c.Layers[0], true
	}
	return c.Layer(c.Endless.Layer)
}

// Apply pushes the process-wide preview settings.
func (c *Config) Apply() {
	SetPreviewLOD(c.PreviewLOD)
	SetAutoRefresh(c.AutoRefresh)
	SetWorkers(c.Workers)
}
