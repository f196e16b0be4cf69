package noise

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// MinScale is the smallest sampling scale Generate will use.
const MinScale = 0.101

// NormalizeMode selects how raw octave sums are mapped to heights.
type NormalizeMode int

const (
	// Local remaps the field's own [min,max] to [0,1]. Only valid for standalone fields.
	Local NormalizeMode = iota
	// Global divides by the theoretical amplitude sum so chunks sampled from
	// the same infinite field line up. Results may exceed 1.
	Global
)

func (m NormalizeMode) String() string {
	switch m {
	case Local:
		return "local"
	case Global:
		return "global"
	}
	return fmt.Sprintf("NormalizeMode(%d)", int(m))
}

// ParseNormalizeMode parses "local" or "global" (case-insensitive).
func ParseNormalizeMode(s string) (NormalizeMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "local":
		return Local, nil
	case "global", "":
		return Global, nil
	}
	return 0, fmt.Errorf("unknown normalize mode %q", s)
}

// Basis selects the coherent noise function sampled by each octave.
type Basis int

const (
	Perlin Basis = iota
	OpenSimplex
	Value
)

func (b Basis) String() string {
	switch b {
	case Perlin:
		return "perlin"
	case OpenSimplex:
		return "opensimplex"
	case Value:
		return "value"
	}
	return fmt.Sprintf("Basis(%d)", int(b))
}

// ParseBasis parses a basis name; the empty string selects Perlin.
func ParseBasis(s string) (Basis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "perlin", "":
		return Perlin, nil
	case "opensimplex", "simplex":
		return OpenSimplex, nil
	case "value":
		return Value, nil
	}
	return 0, fmt.Errorf("unknown noise basis %q", s)
}

// Params describes one multi-octave noise field.
type Params struct {
	Seed        int64
	Scale       float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
	Offset      mgl64.Vec2
	Normalize   NormalizeMode
	Basis       Basis
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		Scale:       0.3,
		Octaves:     4,
		Persistence: 0.5,
		Lacunarity:  2,
		Normalize:   Global,
		Basis:       Perlin,
	}
}

// Sanitized clamps every parameter into its valid range.
func (p Params) Sanitized() Params {
	if p.Scale <= MinScale {
		p.Scale = MinScale
	}
	if p.Octaves < 1 {
		p.Octaves = 1
	}
	if p.Persistence < 0 {
		p.Persistence = 0
	}
	if p.Persistence > 1 {
		p.Persistence = 1
	}
	if p.Lacunarity < 1 {
		p.Lacunarity = 1
	}
	return p
}

// WithOffset returns a copy with off added to the sampling offset.
func (p Params) WithOffset(off mgl64.Vec2) Params {
	p.Offset = p.Offset.Add(off)
	return p
}
