package heightmap

import "sort"

// Curve is a response curve used to reshape normalized heights.
type Curve interface {
	Evaluate(t float64) float64
}

// CurveFunc adapts a plain function to the Curve interface.
type CurveFunc func(t float64) float64

func (f CurveFunc) Evaluate(t float64) float64 { return f(t) }

// Linear is the identity curve.
var Linear Curve = CurveFunc(func(t float64) float64 { return t })

// Keyframe is a single control point of a Keyframes curve.
type Keyframe struct {
	Time       float64 `yaml:"time" toml:"time"`
	Value      float64 `yaml:"value" toml:"value"`
	InTangent  float64 `yaml:"inTangent" toml:"inTangent"`
	OutTangent float64 `yaml:"outTangent" toml:"outTangent"`
}

// Keyframes is a cubic Hermite curve through its control points. Inputs
// outside the key range are clamped to the first or last value.
type Keyframes struct {
	keys []Keyframe
}

// NewKeyframes sorts a copy of keys by time.
func NewKeyframes(keys ...Keyframe) *Keyframes {
	k := make([]Keyframe, len(keys))
	copy(k, keys)
	sort.SliceStable(k, func(i, j int) bool { return k[i].Time < k[j].Time })
	return &Keyframes{keys: k}
}

// LinearKeyframes builds a straight line from (t0, v0) to (t1, v1) with matching tangents.
func LinearKeyframes(t0, v0, t1, v1 float64) *Keyframes {
	slope := 0.0
	if t1 != t0 {
		slope = (v1 - v0) / (t1 - t0)
	}
	return NewKeyframes(
		Keyframe{Time: t0, Value: v0, InTangent: slope, OutTangent: slope},
		Keyframe{Time: t1, Value: v1, InTangent: slope, OutTangent: slope},
	)
}

// Keys returns a copy of the control points.
func (c *Keyframes) Keys() []Keyframe {
	out := make([]Keyframe, len(c.keys))
	copy(out, c.keys)
	return out
}

func (c *Keyframes) Evaluate(t float64) float64 {
	n := len(c.keys)
	switch {
	case n == 0:
		return t
	case n == 1 || t <= c.keys[0].Time:
		return c.keys[0].Value
	case t >= c.keys[n-1].Time:
		return c.keys[n-1].Value
	}
	i := sort.Search(n, func(i int) bool { return c.keys[i].Time > t }) - 1
	a, b := c.keys[i], c.keys[i+1]
	dt := b.Time - a.Time
	if dt == 0 {
		return b.Value
	}
	s := (t - a.Time) / dt
	s2 := s * s
	s3 := s2 * s
	h00 := 2*s3 - 3*s2 + 1
	h10 := s3 - 2*s2 + s
	h01 := -2*s3 + 3*s2
	h11 := s3 - s2
	return h00*a.Value + h10*dt*a.OutTangent + h01*b.Value + h11*dt*b.InTangent
}
