package heightmap

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSizeMismatch is returned when fields of different dimensions are combined.
	ErrSizeMismatch = errors.New("heightmap: field size mismatch")
	// ErrUnsupportedSize is returned by algorithms that cannot produce a grid of the requested size.
	ErrUnsupportedSize = errors.New("heightmap: unsupported size")
)

// Field is a W x H grid of elevation samples stored row-major (x + y*W).
type Field struct {
	w, h   int
	values []float64
}

// New allocates a zeroed field.
func New(w, h int) *Field {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Field{w: w, h: h, values: make([]float64, w*h)}
}

// FromRows builds a field from rows[y][x].
func FromRows(rows [][]float64) *Field {
	if len(rows) == 0 {
		return New(0, 0)
	}
	f := New(len(rows[0]), len(rows))
	for y, row := range rows {
		copy(f.values[y*f.w:(y+1)*f.w], row)
	}
	return f
}

func (f *Field) Width() int  { return f.w }
func (f *Field) Height() int { return f.h }

// At returns the sample at (x, y). Coordinates outside the grid return 0.
func (f *Field) At(x, y int) float64 {
	if x < 0 || x >= f.w || y < 0 || y >= f.h {
		return 0
	}
	return f.values[x+y*f.w]
}

// Set writes the sample at (x, y); writes outside the grid are ignored.
func (f *Field) Set(x, y int, v float64) {
	if x < 0 || x >= f.w || y < 0 || y >= f.h {
		return
	}
	f.values[x+y*f.w] = v
}

// Values exposes the backing slice. Callers must not modify a field after handing it off.
func (f *Field) Values() []float64 {
	return f.values
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	c := New(f.w, f.h)
	copy(c.values, f.values)
	return c
}

// SameSize reports whether both fields have identical dimensions.
func (f *Field) SameSize(o *Field) bool {
	return f.w == o.w && f.h == o.h
}

// MinMax returns the smallest and largest sample. An empty field returns (0, 0).
func (f *Field) MinMax() (lo, hi float64) {
	if len(f.values) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range f.values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// ApplyCurve remaps every sample through curve and scales it by multiplier.
// A nil curve is treated as the identity.
func ApplyCurve(f *Field, curve Curve, multiplier float64) *Field {
	if curve == nil {
		curve = Linear
	}
	out := New(f.w, f.h)
	for i, v := range f.values {
		out.values[i] = curve.Evaluate(v) * multiplier
	}
	return out
}

// Combine sums the given fields element by element.
func Combine(fields ...*Field) (*Field, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("combine: no fields")
	}
	out := fields[0].Clone()
	for i, f := range fields[1:] {
		if !out.SameSize(f) {
			return nil, fmt.Errorf("combine field %d (%dx%d into %dx%d): %w", i+1, f.w, f.h, out.w, out.h, ErrSizeMismatch)
		}
		for j, v := range f.values {
			out.values[j] += v
		}
	}
	return out, nil
}
