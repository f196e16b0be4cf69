package meshing

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"

	"ringforge/internal/heightmap"

	"github.com/go-gl/mathgl/mgl32"
)

func randomField(w, h int, seed int64) *heightmap.Field {
	rng := rand.New(rand.NewSource(seed))
	f := heightmap.New(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.Set(x, y, rng.Float64())
		}
	}
	return f
}

func checkIndices(t *testing.T, m *MeshData) {
	t.Helper()
	if len(m.Indices)%3 != 0 {
		t.Fatalf("index count %d is not a multiple of 3", len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			t.Fatalf("index %d at %d out of range (%d vertices)", idx, i, len(m.Vertices))
		}
	}
	if len(m.UVs) != len(m.Vertices) || len(m.Normals) != len(m.Vertices) {
		t.Fatalf("attribute lengths differ: v=%d uv=%d n=%d", len(m.Vertices), len(m.UVs), len(m.Normals))
	}
}

func TestSimplificationIncrement(t *testing.T) {
	cases := map[int]int{-1: 1, 0: 1, 1: 2, 3: 6, 6: 12}
	for lod, want := range cases {
		if got := SimplificationIncrement(lod); got != want {
			t.Errorf("lod %d: got %d, want %d", lod, got, want)
		}
	}
}

// TestFlatCounts verifies vertex and triangle counts across levels of detail
// for the standard 241 chunk.
func TestFlatCounts(t *testing.T) {
	f := heightmap.New(241, 241)
	for lod, vpl := range map[int]int{0: 241, 1: 121, 2: 61, 4: 31, 6: 21} {
		m := TessellateFlat(f, 10, nil, lod, false)
		checkIndices(t, m)
		if len(m.Vertices) != vpl*vpl {
			t.Errorf("lod %d: %d vertices, want %d", lod, len(m.Vertices), vpl*vpl)
		}
		if want := (vpl - 1) * (vpl - 1) * 2; m.TriangleCount() != want {
			t.Errorf("lod %d: %d triangles, want %d", lod, m.TriangleCount(), want)
		}
	}
}

// TestFlatPlacement verifies the grid is centred and heights pass through the curve.
func TestFlatPlacement(t *testing.T) {
	f := heightmap.FromRows([][]float64{
		{0, 0.5, 1},
		{0, 0, 0},
		{1, 1, 1},
	})
	double := heightmap.CurveFunc(func(v float64) float64 { return v * 2 })
	m := TessellateFlat(f, 3, double, 0, false)
	checkIndices(t, m)

	want := []mgl32.Vec3{
		{-1, 0, 1}, {0, 3, 1}, {1, 6, 1},
		{-1, 0, 0}, {0, 0, 0}, {1, 0, 0},
		{-1, 6, -1}, {0, 6, -1}, {1, 6, -1},
	}
	for i, v := range want {
		if !m.Vertices[i].ApproxEqual(v) {
			t.Errorf("vertex %d: got %v, want %v", i, m.Vertices[i], v)
		}
	}
	if uv := m.UVs[5]; !uv.ApproxEqual(mgl32.Vec2{2.0 / 3, 1.0 / 3}) {
		t.Errorf("uv 5: got %v", uv)
	}
	if got := m.Indices[:6]; !equalU32(got, []uint32{0, 4, 3, 4, 0, 1}) {
		t.Errorf("first quad indices: got %v", got)
	}
}

// TestFlatNormalsFaceUp verifies a level field yields +Y normals.
func TestFlatNormalsFaceUp(t *testing.T) {
	m := TessellateFlat(heightmap.New(5, 5), 1, nil, 0, false)
	for i, n := range m.Normals {
		if !n.ApproxEqual(mgl32.Vec3{0, 1, 0}) {
			t.Fatalf("normal %d: got %v", i, n)
		}
	}
	inv := TessellateFlat(heightmap.New(5, 5), 1, nil, 0, true)
	if !inv.Normals[0].ApproxEqual(mgl32.Vec3{0, -1, 0}) {
		t.Errorf("inverted normal: got %v", inv.Normals[0])
	}
}

// TestInvertReversesWinding verifies every triangle of the inverted mesh is
// the reverse of its counterpart.
func TestInvertReversesWinding(t *testing.T) {
	f := randomField(9, 9, 1)
	a := TessellateFlat(f, 5, nil, 1, false)
	b := TessellateFlat(f, 5, nil, 1, true)
	if len(a.Indices) != len(b.Indices) {
		t.Fatalf("index lengths differ: %d vs %d", len(a.Indices), len(b.Indices))
	}
	for i := 0; i < len(a.Indices); i += 3 {
		if a.Indices[i] != b.Indices[i+2] || a.Indices[i+1] != b.Indices[i+1] || a.Indices[i+2] != b.Indices[i] {
			t.Fatalf("triangle %d not reversed: %v vs %v", i/3, a.Indices[i:i+3], b.Indices[i:i+3])
		}
	}
}

// TestRingWindingOpposesFlat verifies the ring's default winding is the
// reverse of the flat default.
func TestRingWindingOpposesFlat(t *testing.T) {
	f := randomField(7, 7, 2)
	flat := TessellateFlat(f, 1, nil, 0, false)
	ringInv := TessellateRing(f, 1, nil, 0, 100, 10, true)
	if !equalU32(flat.Indices, ringInv.Indices) {
		t.Fatal("inverted ring winding should match default flat winding")
	}
	ring := TessellateRing(f, 1, nil, 0, 100, 10, false)
	if equalU32(flat.Indices, ring.Indices) {
		t.Fatal("default ring winding should differ from default flat winding")
	}
}

// TestRingRadius verifies elevation pulls vertices inward from the radius.
func TestRingRadius(t *testing.T) {
	const radius = 500.0
	f := heightmap.New(11, 11)
	f.Set(5, 5, 1)
	m := TessellateRing(f, 20, nil, 0, radius, 30, false)
	checkIndices(t, m)
	for i, v := range m.Vertices {
		r := math.Hypot(float64(v.Y()), float64(v.Z()))
		want := radius
		if i == 5*11+5 {
			want = radius - 20
		}
		if math.Abs(r-want) > 1e-3 {
			t.Errorf("vertex %d: radius %.4f, want %.4f", i, r, want)
		}
	}

	// First row sits at +degrees/2, last row at -degrees/2.
	first, last := m.Vertices[0], m.Vertices[len(m.Vertices)-1]
	if a := angleDeg(first); math.Abs(a-15) > 1e-3 {
		t.Errorf("first row angle %.4f", a)
	}
	if a := angleDeg(last); math.Abs(a+15) > 1e-3 {
		t.Errorf("last row angle %.4f", a)
	}
}

// TestRingSeam verifies the last row of chunk j+1, rotated by the chunk arc,
// lands on the first row of chunk j when the boundary heights match.
func TestRingSeam(t *testing.T) {
	const (
		n       = 17
		radius  = 300.0
		degrees = 45.0
	)
	f0 := randomField(n, n, 3)
	f1 := randomField(n, n, 4)
	for x := 0; x < n; x++ {
		f1.Set(x, n-1, f0.At(x, 0))
	}
	for _, lod := range []int{0, 1, 2} {
		m0 := TessellateRing(f0, 12, nil, lod, radius, degrees, false)
		m1 := TessellateRing(f1, 12, nil, lod, radius, degrees, false).
			Transformed(mgl32.QuatRotate(mgl32.DegToRad(degrees), mgl32.Vec3{1, 0, 0}), mgl32.Vec3{})

		vpl := VerticesPerLine(n, lod)
		for i := 0; i < vpl; i++ {
			a := m0.Vertices[i]
			b := m1.Vertices[(vpl-1)*vpl+i]
			if a.Sub(b).Len() > 1e-2 {
				t.Fatalf("lod %d column %d: seam gap %v vs %v", lod, i, a, b)
			}
		}
	}
}

func TestDegenerateField(t *testing.T) {
	m := TessellateFlat(heightmap.New(1, 5), 1, nil, 0, false)
	if len(m.Vertices) != 0 || len(m.Indices) != 0 {
		t.Fatalf("expected empty mesh, got %d vertices", len(m.Vertices))
	}
}

func TestBoundsAndTransform(t *testing.T) {
	m := TessellateFlat(heightmap.FromRows([][]float64{{0, 1}, {0, 0}}), 4, nil, 0, false)
	lo, hi := m.Bounds()
	if !lo.ApproxEqual(mgl32.Vec3{-0.5, 0, -0.5}) || !hi.ApproxEqual(mgl32.Vec3{0.5, 4, 0.5}) {
		t.Errorf("bounds: %v %v", lo, hi)
	}

	moved := m.Transformed(mgl32.QuatIdent(), mgl32.Vec3{10, 0, 0})
	lo, _ = moved.Bounds()
	if !lo.ApproxEqual(mgl32.Vec3{9.5, 0, -0.5}) {
		t.Errorf("translated bounds: %v", lo)
	}
	if m.Vertices[0].X() != -0.5 {
		t.Error("Transformed mutated the source mesh")
	}
}

func TestWriteOBJ(t *testing.T) {
	m := TessellateFlat(heightmap.New(3, 3), 1, nil, 0, false)
	var buf bytes.Buffer
	if err := m.WriteOBJ(&buf, "chunk_0_0"); err != nil {
		t.Fatal(err)
	}
	var v, vt, vn, f int
	for _, line := range strings.Split(buf.String(), "\n") {
		switch {
		case strings.HasPrefix(line, "v "):
			v++
		case strings.HasPrefix(line, "vt "):
			vt++
		case strings.HasPrefix(line, "vn "):
			vn++
		case strings.HasPrefix(line, "f "):
			f++
		}
	}
	if v != 9 || vt != 9 || vn != 9 || f != 8 {
		t.Errorf("obj counts v=%d vt=%d vn=%d f=%d", v, vt, vn, f)
	}
	if !strings.HasPrefix(buf.String(), "o chunk_0_0\n") {
		t.Error("missing object name")
	}
	if !strings.Contains(buf.String(), "f 1/1/1 5/5/5 4/4/4\n") {
		t.Error("first face not 1-based")
	}
}

func BenchmarkTessellateRing(b *testing.B) {
	f := randomField(241, 241, 5)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = TessellateRing(f, 40, nil, 0, 2000, 60, false)
	}
}

func angleDeg(v mgl32.Vec3) float64 {
	return math.Atan2(float64(v.Z()), float64(v.Y())) * 180 / math.Pi
}

func equalU32(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
