package noise

import (
	"math"
	"math/rand"

	"ringforge/internal/heightmap"
	"ringforge/internal/profiling"

	"github.com/go-gl/mathgl/mgl64"
)

// offsetRange bounds each per-octave offset component to [-offsetRange, offsetRange).
const offsetRange = 100000

// Generate synthesizes a w x h height field from p. Scale is clamped to
// MinScale; the remaining parameters are expected to be sanitized already.
func Generate(w, h int, p Params) *heightmap.Field {
	defer profiling.Track("noise.Generate")()

	field := heightmap.New(w, h)
	if w == 0 || h == 0 {
		return field
	}

	prng := rand.New(rand.NewSource(p.Seed))
	octaveOffsets := make([]mgl64.Vec2, p.Octaves)
	maxPossibleHeight := 0.0
	amplitude := 1.0
	for i := range octaveOffsets {
		ox := float64(prng.Intn(2*offsetRange)-offsetRange) + p.Offset.X()
		oy := float64(prng.Intn(2*offsetRange)-offsetRange) - p.Offset.Y()
		octaveOffsets[i] = mgl64.Vec2{ox, oy}

		maxPossibleHeight += amplitude
		amplitude *= p.Persistence
	}

	scale := p.Scale
	if scale <= MinScale {
		scale = MinScale
	}

	src := newSource(p.Basis, p.Seed)
	halfW, halfH := float64(w)/2, float64(h)/2
	minLocal, maxLocal := math.Inf(1), math.Inf(-1)
	values := field.Values()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			amplitude := 1.0
			frequency := 1.0
			noiseHeight := 0.0
			for _, off := range octaveOffsets {
				sampleX := (float64(x) - halfW + off.X()) / scale * frequency
				sampleY := (float64(y) - halfH + off.Y()) / scale * frequency
				noiseHeight += src.eval(sampleX, sampleY) * amplitude

				amplitude *= p.Persistence
				frequency *= p.Lacunarity
			}
			minLocal = math.Min(minLocal, noiseHeight)
			maxLocal = math.Max(maxLocal, noiseHeight)
			values[x+y*w] = noiseHeight
		}
	}

	switch p.Normalize {
	case Local:
		for i, v := range values {
			values[i] = inverseLerp(minLocal, maxLocal, v)
		}
	case Global:
		for i, v := range values {
			values[i] = math.Max(0, (v+1)/maxPossibleHeight)
		}
	}
	return field
}

func inverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return math.Max(0, math.Min(1, (v-a)/(b-a)))
}

// Layer adapts Params to heightmap.Algorithm so noise can be summed with
// other generation algorithms.
type Layer struct {
	Params Params
}

func (l Layer) Generate(w, h int) (*heightmap.Field, error) {
	return Generate(w, h, l.Params), nil
}
