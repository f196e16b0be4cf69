package biome

import (
	"image/color"
	"math"
	"testing"

	"ringforge/internal/heightmap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeBands(t *testing.T) *Set {
	t.Helper()
	s, err := NewSet([]Biome{
		{Name: "peaks", StartHeight: 0.8},
		{Name: "water", StartHeight: 0},
		{Name: "land", StartHeight: 0.5},
	})
	require.NoError(t, err)
	return s
}

func TestClassifyMonotonic(t *testing.T) {
	s := threeBands(t)
	cases := []struct {
		h    float64
		want int
	}{
		{0.3, 0}, {0.5, 1}, {0.79, 1}, {0.8, 2}, {1.0, 2}, {1.7, 2}, {0, 0},
	}
	for _, c := range cases {
		_, idx, err := s.Classify(c.h)
		require.NoError(t, err)
		assert.Equal(t, c.want, idx, "height %v", c.h)
	}
}

func TestNewSetSortsAndForcesZeroFloor(t *testing.T) {
	s, err := NewSet([]Biome{{Name: "b", StartHeight: 0.6}, {Name: "a", StartHeight: 0.2, TintStrength: 4}})
	require.NoError(t, err)
	bs := s.Biomes()
	assert.Equal(t, "a", bs[0].Name)
	assert.Equal(t, 0.0, bs[0].StartHeight)
	assert.Equal(t, 1.0, bs[0].TintStrength)
	assert.Equal(t, 0.6, bs[1].StartHeight)
}

func TestClassifyNoMatch(t *testing.T) {
	s := threeBands(t)
	_, _, err := s.Classify(-0.1)
	assert.ErrorIs(t, err, ErrNoBiome)
	_, _, err = s.Classify(math.NaN())
	assert.ErrorIs(t, err, ErrNoBiome)

	_, err = NewSet(nil)
	assert.ErrorIs(t, err, ErrNoBiome)
}

func TestColorMap(t *testing.T) {
	s, err := NewSet([]Biome{
		{Name: "low", Tint: Color{R: 10, A: 255}},
		{Name: "high", StartHeight: 0.5, Tint: Color{G: 20, A: 255}},
	})
	require.NoError(t, err)

	f := heightmap.FromRows([][]float64{{0.1, 0.9}})
	colors, err := s.ColorMap(f)
	require.NoError(t, err)
	assert.Equal(t, []color.NRGBA{{R: 10, A: 255}, {G: 20, A: 255}}, colors)
}

func TestPackTruncatesToMaxBiomes(t *testing.T) {
	bs := make([]Biome, MaxBiomes+4)
	for i := range bs {
		bs[i] = Biome{Name: string(rune('a' + i)), StartHeight: float64(i) / 20, TextureScale: float64(i)}
	}
	s, err := NewSet(bs)
	require.NoError(t, err)

	p := s.Pack()
	assert.Equal(t, MaxBiomes, p.Count)
	for _, n := range []int{len(p.Tints), len(p.TintStrengths), len(p.StartHeights), len(p.BlendStrengths), len(p.Textures), len(p.TextureScales)} {
		assert.Equal(t, MaxBiomes, n)
	}
	assert.Equal(t, 9.0, p.TextureScales[9])
}

func TestColorText(t *testing.T) {
	var c Color
	require.NoError(t, c.UnmarshalText([]byte("#336699")))
	assert.Equal(t, Color{R: 0x33, G: 0x66, B: 0x99, A: 0xff}, c)

	require.NoError(t, c.UnmarshalText([]byte("0a0b0c80")))
	assert.Equal(t, Color{R: 0x0a, G: 0x0b, B: 0x0c, A: 0x80}, c)

	out, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "#0a0b0c80", string(out))

	assert.Error(t, c.UnmarshalText([]byte("#12345")))
	assert.Error(t, c.UnmarshalText([]byte("#zzzzzz")))
}
