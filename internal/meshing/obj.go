package meshing

import (
	"bufio"
	"fmt"
	"io"
)

// WriteOBJ serialises the mesh as a Wavefront OBJ object named name.
// Face indices are 1-based and reference the matching v/vt/vn entries.
func (m *MeshData) WriteOBJ(w io.Writer, name string) error {
	bw := bufio.NewWriter(w)
	if name != "" {
		fmt.Fprintf(bw, "o %s\n", name)
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.X(), v.Y(), v.Z())
	}
	for _, uv := range m.UVs {
		fmt.Fprintf(bw, "vt %g %g\n", uv.X(), uv.Y())
	}
	hasNormals := len(m.Normals) == len(m.Vertices) && len(m.Normals) > 0
	if hasNormals {
		for _, n := range m.Normals {
			fmt.Fprintf(bw, "vn %g %g %g\n", n.X(), n.Y(), n.Z())
		}
	}
	hasUVs := len(m.UVs) == len(m.Vertices)
	for i := 0; i+2 < len(m.Indices); i += 3 {
		bw.WriteString("f")
		for _, idx := range m.Indices[i : i+3] {
			k := idx + 1
			switch {
			case hasUVs && hasNormals:
				fmt.Fprintf(bw, " %d/%d/%d", k, k, k)
			case hasUVs:
				fmt.Fprintf(bw, " %d/%d", k, k)
			case hasNormals:
				fmt.Fprintf(bw, " %d//%d", k, k)
			default:
				fmt.Fprintf(bw, " %d", k)
			}
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write obj %q: %w", name, err)
	}
	return nil
}
