package main

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"ringforge/internal/meshing"
	"ringforge/internal/pipeline"
	"ringforge/internal/ring"
	"ringforge/internal/texture"

	"gopkg.in/yaml.v3"
)

type exporter struct {
	dir string
	ext string
	log *slog.Logger
}

func (e *exporter) writeMesh(name string, m *meshing.MeshData) (err error) {
	f, err := os.Create(filepath.Join(e.dir, name+".obj"))
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	return m.WriteOBJ(f, name)
}

func (e *exporter) writeImage(name string, img image.Image) (err error) {
	path := filepath.Join(e.dir, name+e.ext)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	return texture.EncodeFile(f, img, path)
}

// writeChunk writes the mesh and texture of a ring chunk.
func (e *exporter) writeChunk(layer string, res *pipeline.ChunkResult) error {
	name := fmt.Sprintf("chunk_%s_%d_%d", layer, res.Chunk.Grid.X, res.Chunk.Grid.Y)
	if err := e.writeMesh(name, res.Mesh); err != nil {
		return fmt.Errorf("write %s mesh: %w", name, err)
	}
	if err := e.writeImage(name, res.Texture); err != nil {
		return fmt.Errorf("write %s texture: %w", name, err)
	}
	e.log.Debug("chunk written", "chunk", name, "triangles", res.Mesh.TriangleCount())
	return nil
}

type layoutFile struct {
	Layers []layoutLayer `yaml:"layers"`
}

type layoutLayer struct {
	Name      string        `yaml:"name"`
	Shape     string        `yaml:"shape"`
	Geometry  ring.Geometry `yaml:"geometry"`
	HeightMin float64       `yaml:"heightMin"`
	HeightMax float64       `yaml:"heightMax"`
	Chunks    []layoutChunk `yaml:"chunks"`
}

type layoutChunk struct {
	ID              string        `yaml:"id"`
	Grid            [2]int        `yaml:"grid,flow"`
	NoiseOffset     [2]float64    `yaml:"noiseOffset,flow"`
	Position        [3]float32    `yaml:"position,flow"`
	RotationDegrees float32       `yaml:"rotationDegrees"`
	Mesh            string        `yaml:"mesh,omitempty"`
	Spawns          []layoutSpawn `yaml:"spawns,omitempty"`
}

type layoutSpawn struct {
	Ref      string     `yaml:"ref"`
	Biome    string     `yaml:"biome"`
	Position [3]float32 `yaml:"position,flow"`
}

func newLayoutChunk(layer string, c ring.Chunk, res *pipeline.ChunkResult) layoutChunk {
	lc := layoutChunk{
		ID:              c.ID.String(),
		Grid:            [2]int{c.Grid.X, c.Grid.Y},
		NoiseOffset:     [2]float64{c.NoiseOffset.X(), c.NoiseOffset.Y()},
		Position:        [3]float32(c.LocalPosition),
		RotationDegrees: c.RotationDegrees,
	}
	if res == nil {
		return lc
	}
	lc.Mesh = fmt.Sprintf("chunk_%s_%d_%d.obj", layer, c.Grid.X, c.Grid.Y)
	for _, s := range res.Spawns {
		lc.Spawns = append(lc.Spawns, layoutSpawn{Ref: s.Item.Ref, Biome: s.Biome, Position: [3]float32(s.Position)})
	}
	return lc
}

func (e *exporter) writeLayout(l layoutFile) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	return os.WriteFile(filepath.Join(e.dir, "layout.yaml"), data, 0o644)
}
