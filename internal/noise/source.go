package noise

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// source evaluates single-octave coherent noise in [-1, 1].
type source interface {
	eval(x, y float64) float64
}

func newSource(b Basis, seed int64) source {
	switch b {
	case OpenSimplex:
		return simplexSource{n: opensimplex.New(seed)}
	case Value:
		return valueSource{seed: seed}
	default:
		return perlinSource{p: perlin.NewPerlin(2, 2, 1, seed)}
	}
}

type perlinSource struct {
	p *perlin.Perlin
}

func (s perlinSource) eval(x, y float64) float64 {
	return clampUnit(s.p.Noise2D(x, y))
}

type simplexSource struct {
	n opensimplex.Noise
}

func (s simplexSource) eval(x, y float64) float64 {
	return clampUnit(s.n.Eval2(x, y))
}

// valueSource is hashed lattice value noise; valueNoise2D returns [0,1].
type valueSource struct {
	seed int64
}

func (s valueSource) eval(x, y float64) float64 {
	return valueNoise2D(x, y, s.seed)*2 - 1
}

func clampUnit(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

// fade is the 6t^5 - 15t^4 + 10t^3 smoothing spline.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// hash2 is a SplitMix64 style integer hash, stable across runs for the same inputs.
// Each axis gets its own odd multiplier so lattice translations do not collide.
func hash2(x, y, seed int64) uint64 {
	v := uint64(x)*0x9E3779B97F4A7C15 + uint64(y)*0x517CC1B727220A95 + uint64(seed)*0xD6E8FEB86659FD93
	v += 0x9E3779B97F4A7C15
	v = (v ^ (v >> 30)) * 0xBF58476D1CE4E5B9
	v = (v ^ (v >> 27)) * 0x94D049BB133111EB
	return v ^ (v >> 31)
}

func latticeValue(x, y, seed int64) float64 {
	h := hash2(x, y, seed)
	return float64(h&0xFFFFFFFF) / float64(0xFFFFFFFF)
}

func valueNoise2D(x, y float64, seed int64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)

	fx := fade(x - x0)
	fy := fade(y - y0)

	ix, iy := int64(x0), int64(y0)
	v00 := latticeValue(ix, iy, seed)
	v10 := latticeValue(ix+1, iy, seed)
	v01 := latticeValue(ix, iy+1, seed)
	v11 := latticeValue(ix+1, iy+1, seed)

	return lerp(lerp(v00, v10, fx), lerp(v01, v11, fx), fy)
}
