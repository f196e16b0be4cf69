package meshing

import (
	"math"

	"ringforge/internal/heightmap"
	"ringforge/internal/profiling"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLOD is the coarsest level of detail exposed to callers.
const MaxLOD = 6

// SimplificationIncrement is the sampling stride for a level of detail:
// every cell at 0, every 2*lod-th cell otherwise.
func SimplificationIncrement(lod int) int {
	if lod <= 0 {
		return 1
	}
	return lod * 2
}

// VerticesPerLine is the number of samples taken along an axis of n cells.
func VerticesPerLine(n, lod int) int {
	if n < 1 {
		return 0
	}
	return (n-1)/SimplificationIncrement(lod) + 1
}

// TessellateFlat builds a planar grid mesh centred on the origin. Each vertex
// sits at (x, curve(h)*heightMultiplier, -y) relative to the top-left corner.
func TessellateFlat(f *heightmap.Field, heightMultiplier float64, curve heightmap.Curve, lod int, invert bool) *MeshData {
	defer profiling.Track("meshing.TessellateFlat")()
	return tessellate(f, heightMultiplier, curve, lod, invert, nil)
}

// TessellateRing builds the planar grid and wraps it around the X axis: the
// local z coordinate becomes an angle spanning degrees across the field's
// height, and the elevation pulls the vertex inward from radius. The default
// winding is the reverse of TessellateFlat; invert flips it back.
func TessellateRing(f *heightmap.Field, heightMultiplier float64, curve heightmap.Curve, lod int, radius, degrees float64, invert bool) *MeshData {
	defer profiling.Track("meshing.TessellateRing")()
	wrap := func(v mgl32.Vec3) mgl32.Vec3 {
		return WrapRing(v, f.Height(), radius, degrees)
	}
	return tessellate(f, heightMultiplier, curve, lod, !invert, wrap)
}

// FlatVertex places sample (x, y) of a w x h grid at the given elevation,
// with the grid centred on the origin.
func FlatVertex(w, h, x, y int, elevation float64) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(float64(w-1)/-2 + float64(x)),
		float32(elevation),
		float32(float64(h-1)/2 - float64(y)),
	}
}

// WrapRing bends a flat vertex of a grid with h rows around the X axis.
func WrapRing(v mgl32.Vec3, h int, radius, degrees float64) mgl32.Vec3 {
	if h < 2 {
		return v
	}
	theta := degrees / float64(h-1) * float64(v.Z()) * math.Pi / 180
	r := radius - float64(v.Y())
	return mgl32.Vec3{v.X(), float32(r * math.Cos(theta)), float32(r * math.Sin(theta))}
}

func tessellate(f *heightmap.Field, heightMultiplier float64, curve heightmap.Curve, lod int, invert bool, place func(mgl32.Vec3) mgl32.Vec3) *MeshData {
	w, h := f.Width(), f.Height()
	if w < 2 || h < 2 {
		return &MeshData{}
	}
	elevation := heightmap.ApplyCurve(f, curve, heightMultiplier)

	step := SimplificationIncrement(lod)
	vx := VerticesPerLine(w, lod)
	vy := VerticesPerLine(h, lod)

	mesh := newMeshData(vx*vy, (vx-1)*(vy-1))
	addTri := mesh.addTriangle
	if invert {
		addTri = mesh.addInvertedTriangle
	}

	for j := 0; j < vy; j++ {
		y := j * step
		for i := 0; i < vx; i++ {
			x := i * step
			v := FlatVertex(w, h, x, y, elevation.At(x, y))
			if place != nil {
				v = place(v)
			}
			mesh.Vertices = append(mesh.Vertices, v)
			mesh.UVs = append(mesh.UVs, mgl32.Vec2{float32(x) / float32(w), float32(y) / float32(h)})

			if i < vx-1 && j < vy-1 {
				idx := uint32(j*vx + i)
				line := uint32(vx)
				addTri(idx, idx+line+1, idx+line)
				addTri(idx+line+1, idx, idx+1)
			}
		}
	}

	mesh.RecalculateNormals()
	return mesh
}
