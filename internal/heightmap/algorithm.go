package heightmap

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl64"
)

// Algorithm produces a height field of the requested size.
type Algorithm interface {
	Generate(w, h int) (*Field, error)
}

// Layered runs every algorithm over the same grid and sums the results.
func Layered(w, h int, algos ...Algorithm) (*Field, error) {
	if len(algos) == 0 {
		return nil, fmt.Errorf("layered: no algorithms")
	}
	fields := make([]*Field, 0, len(algos))
	for i, a := range algos {
		f, err := a.Generate(w, h)
		if err != nil {
			return nil, fmt.Errorf("layered algorithm %d: %w", i, err)
		}
		fields = append(fields, f)
	}
	return Combine(fields...)
}

// roughness is the H exponent of the diamond-square amplitude decay.
const roughness = 1.0

// DiamondSquare generates fractal terrain by midpoint displacement. Grids
// that are not square with a side of 2^n+1 are cut from the smallest such
// grid that covers them, so only the 2^n+1 case keeps all four seeded
// corners.
type DiamondSquare struct {
	Seed      int64
	HeightMin float64
	HeightMax float64
}

func (d DiamondSquare) draw(rng *rand.Rand) float64 {
	return d.HeightMin + rng.Float64()*(d.HeightMax-d.HeightMin)
}

func (d DiamondSquare) Generate(w, h int) (*Field, error) {
	if w < 2 || h < 2 {
		return nil, fmt.Errorf("diamond-square %dx%d: %w", w, h, ErrUnsupportedSize)
	}
	side := 2
	for side-1 < max(w, h)-1 {
		side = (side-1)*2 + 1
	}
	full := d.square(side)
	if side == w && side == h {
		return full, nil
	}
	f := New(w, h)
	for y := 0; y < h; y++ {
		copy(f.values[y*w:(y+1)*w], full.values[y*side:y*side+w])
	}
	return f, nil
}

func (d DiamondSquare) square(side int) *Field {
	rng := rand.New(rand.NewSource(d.Seed))
	f := New(side, side)
	last := side - 1

	f.Set(0, 0, d.draw(rng))
	f.Set(last, 0, d.draw(rng))
	f.Set(last, last, d.draw(rng))
	f.Set(0, last, d.draw(rng))

	amplitude := 1.0
	for step := last; step > 1; step /= 2 {
		half := step / 2

		// Diamond step: square centres.
		for y := 0; y < last; y += step {
			for x := 0; x < last; x += step {
				avg := (f.At(x, y) + f.At(x+step, y) + f.At(x, y+step) + f.At(x+step, y+step)) / 4
				f.Set(x+half, y+half, avg+d.draw(rng)*amplitude)
			}
		}

		// Square step: edge midpoints, averaging only neighbours inside the grid.
		for y := 0; y <= last; y += half {
			start := 0
			if (y/half)%2 == 0 {
				start = half
			}
			for x := start; x <= last; x += step {
				sum, count := 0.0, 0
				for _, o := range [4][2]int{{-half, 0}, {half, 0}, {0, -half}, {0, half}} {
					nx, ny := x+o[0], y+o[1]
					if nx < 0 || nx > last || ny < 0 || ny > last {
						continue
					}
					sum += f.At(nx, ny)
					count++
				}
				f.Set(x, y, sum/float64(count)+d.draw(rng)*amplitude)
			}
		}

		amplitude *= math.Pow(2, -roughness)
	}
	return f
}

// PerlinOffset samples a single Perlin layer at (x*Offset.X, y*Offset.Y) and
// maps it to HeightMin + noise*HeightMax.
type PerlinOffset struct {
	Seed      int64
	HeightMin float64
	HeightMax float64
	Offset    mgl64.Vec2
}

func (p PerlinOffset) Generate(w, h int) (*Field, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("perlin offset %dx%d: %w", w, h, ErrUnsupportedSize)
	}
	gen := perlin.NewPerlin(2, 2, 1, p.Seed)
	f := New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			n := (gen.Noise2D(float64(x)*p.Offset.X(), float64(y)*p.Offset.Y()) + 1) / 2
			n = math.Max(0, math.Min(1, n))
			f.Set(x, y, p.HeightMin+n*p.HeightMax)
		}
	}
	return f, nil
}
