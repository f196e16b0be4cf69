package biome

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"
	"strings"

	"ringforge/internal/heightmap"
)

// MaxBiomes is the number of biomes a renderer accepts per layer; extra biomes are dropped.
const MaxBiomes = 10

// ErrNoBiome is returned when no biome starts at or below the sampled height.
var ErrNoBiome = errors.New("biome: no biome matched")

// Color is an 8-bit non-premultiplied RGBA tint, written as "#rrggbb" or "#rrggbbaa" in config files.
type Color color.NRGBA

func (c Color) RGBA() (r, g, b, a uint32) { return color.NRGBA(c).RGBA() }

func (c Color) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	s := strings.TrimPrefix(strings.TrimSpace(string(b)), "#")
	if len(s) != 6 && len(s) != 8 {
		return fmt.Errorf("color %q: want #rrggbb or #rrggbbaa", string(b))
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fmt.Errorf("color %q: %w", string(b), err)
	}
	*c = Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	return nil
}

// Biome is a height band of terrain with its visual parameters.
type Biome struct {
	Name          string  `yaml:"name" toml:"name"`
	StartHeight   float64 `yaml:"startHeight" toml:"startHeight"`
	Tint          Color   `yaml:"tint" toml:"tint"`
	TintStrength  float64 `yaml:"tintStrength" toml:"tintStrength"`
	BlendStrength float64 `yaml:"blendStrength" toml:"blendStrength"`
	// Texture is an opaque image handle (usually a path) passed through to the renderer.
	Texture      string  `yaml:"texture,omitempty" toml:"texture,omitempty"`
	TextureScale float64 `yaml:"textureScale" toml:"textureScale"`
	// SpawnTable names a spawn.Table; empty means nothing spawns here.
	SpawnTable string `yaml:"spawnTable,omitempty" toml:"spawnTable,omitempty"`
}

// Set is a biome list kept sorted by StartHeight with a zero floor.
type Set struct {
	biomes []Biome
}

// NewSet copies biomes, sorts them by StartHeight (stable), clamps the
// [0,1] fields and forces the first StartHeight to 0.
func NewSet(biomes []Biome) (*Set, error) {
	if len(biomes) == 0 {
		return nil, fmt.Errorf("biome set: %w: empty list", ErrNoBiome)
	}
	bs := make([]Biome, len(biomes))
	copy(bs, biomes)
	for i := range bs {
		bs[i].StartHeight = clamp01(bs[i].StartHeight)
		bs[i].TintStrength = clamp01(bs[i].TintStrength)
		bs[i].BlendStrength = clamp01(bs[i].BlendStrength)
	}
	sort.SliceStable(bs, func(i, j int) bool { return bs[i].StartHeight < bs[j].StartHeight })
	bs[0].StartHeight = 0
	return &Set{biomes: bs}, nil
}

// Len returns the number of biomes in the set.
func (s *Set) Len() int { return len(s.biomes) }

// Biomes returns a copy of the sorted biome list.
func (s *Set) Biomes() []Biome {
	out := make([]Biome, len(s.biomes))
	copy(out, s.biomes)
	return out
}

// Classify returns the last biome whose StartHeight is at or below h, and its index.
func (s *Set) Classify(h float64) (Biome, int, error) {
	for i := len(s.biomes) - 1; i >= 0; i-- {
		if s.biomes[i].StartHeight <= h {
			return s.biomes[i], i, nil
		}
	}
	return Biome{}, -1, fmt.Errorf("classify height %v: %w", h, ErrNoBiome)
}

// ColorMap returns each cell's biome tint in row-major order.
func (s *Set) ColorMap(f *heightmap.Field) ([]color.NRGBA, error) {
	out := make([]color.NRGBA, len(f.Values()))
	for i, v := range f.Values() {
		b, _, err := s.Classify(v)
		if err != nil {
			return nil, fmt.Errorf("cell (%d,%d): %w", i%f.Width(), i/f.Width(), err)
		}
		out[i] = color.NRGBA(b.Tint)
	}
	return out, nil
}

// ShaderArrays is the per-layer biome block consumed by a renderer.
type ShaderArrays struct {
	Count          int
	Tints          []color.NRGBA
	TintStrengths  []float64
	StartHeights   []float64
	BlendStrengths []float64
	Textures       []string
	TextureScales  []float64
}

// Pack flattens the first MaxBiomes biomes into parallel arrays.
func (s *Set) Pack() ShaderArrays {
	n := min(len(s.biomes), MaxBiomes)
	a := ShaderArrays{
		Count:          n,
		Tints:          make([]color.NRGBA, n),
		TintStrengths:  make([]float64, n),
		StartHeights:   make([]float64, n),
		BlendStrengths: make([]float64, n),
		Textures:       make([]string, n),
		TextureScales:  make([]float64, n),
	}
	for i, b := range s.biomes[:n] {
		a.Tints[i] = color.NRGBA(b.Tint)
		a.TintStrengths[i] = b.TintStrength
		a.StartHeights[i] = b.StartHeight
		a.BlendStrengths[i] = b.BlendStrength
		a.Textures[i] = b.Texture
		a.TextureScales[i] = b.TextureScale
	}
	return a
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
