package meshing

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MeshData is an indexed triangle mesh ready for upload by a renderer.
type MeshData struct {
	Vertices []mgl32.Vec3
	Indices  []uint32 // triangle triples
	UVs      []mgl32.Vec2
	Normals  []mgl32.Vec3
}

func newMeshData(vertexCount, quadCount int) *MeshData {
	return &MeshData{
		Vertices: make([]mgl32.Vec3, 0, vertexCount),
		UVs:      make([]mgl32.Vec2, 0, vertexCount),
		Indices:  make([]uint32, 0, quadCount*6),
	}
}

func (m *MeshData) addTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

func (m *MeshData) addInvertedTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, c, b, a)
}

// TriangleCount returns len(Indices)/3.
func (m *MeshData) TriangleCount() int {
	return len(m.Indices) / 3
}

// RecalculateNormals rebuilds per-vertex normals by summing the area-weighted
// face normals of every triangle touching the vertex.
func (m *MeshData) RecalculateNormals() {
	normals := make([]mgl32.Vec3, len(m.Vertices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		va, vb, vc := m.Vertices[a], m.Vertices[b], m.Vertices[c]
		n := vb.Sub(va).Cross(vc.Sub(va))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}
	for i, n := range normals {
		if l := n.Len(); l > 0 {
			normals[i] = n.Mul(1 / l)
		}
	}
	m.Normals = normals
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *MeshData) Bounds() (lo, hi mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return lo, hi
	}
	inf := float32(math.Inf(1))
	lo = mgl32.Vec3{inf, inf, inf}
	hi = mgl32.Vec3{-inf, -inf, -inf}
	for _, v := range m.Vertices {
		for k := 0; k < 3; k++ {
			lo[k] = min(lo[k], v[k])
			hi[k] = max(hi[k], v[k])
		}
	}
	return lo, hi
}

// Transformed returns a copy of the mesh with every vertex and normal
// moved by rotation followed by translation.
func (m *MeshData) Transformed(rotation mgl32.Quat, translation mgl32.Vec3) *MeshData {
	out := &MeshData{
		Vertices: make([]mgl32.Vec3, len(m.Vertices)),
		Indices:  append([]uint32(nil), m.Indices...),
		UVs:      append([]mgl32.Vec2(nil), m.UVs...),
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = rotation.Rotate(v).Add(translation)
	}
	if m.Normals != nil {
		out.Normals = make([]mgl32.Vec3, len(m.Normals))
		for i, n := range m.Normals {
			out.Normals[i] = rotation.Rotate(n)
		}
	}
	return out
}
