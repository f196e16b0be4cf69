package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"ringforge/internal/config"
	"ringforge/internal/forge"
	"ringforge/internal/pipeline"
	"ringforge/internal/ring"
	"ringforge/internal/texture"
	"ringforge/internal/world"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

const drainInterval = 5 * time.Millisecond

// runRing generates every layer of the ring and writes one mesh and one
// texture per chunk plus layout.yaml.
func runRing(ctx context.Context, log *slog.Logger, cfg *config.Config, out *exporter, async bool) error {
	f, err := forge.Build(cfg)
	if err != nil {
		return err
	}
	f.Logger = log
	geo := f.Geometry()
	log.Info("forging ring",
		"chunks", f.ChunkCount().String(), "radius", geo.Radius, "width", geo.Width,
		"circumference", geo.Circumference, "lod", config.GetPreviewLOD(), "workers", config.GetWorkers())

	if async {
		err = regenerateQueued(ctx, log, f)
	} else {
		err = f.Regenerate(ctx)
	}
	if err != nil {
		return err
	}

	var layout layoutFile
	for _, l := range f.Layers() {
		s := l.Settings()
		lo, hi := s.HeightBounds()
		ll := layoutLayer{Name: l.Name(), Shape: s.Shape.String(), Geometry: s.Geometry, HeightMin: lo, HeightMax: hi}
		for _, c := range l.Chunks() {
			res, ok := l.Result(c.ID)
			if !ok {
				ll.Chunks = append(ll.Chunks, newLayoutChunk(l.Name(), c, nil))
				continue
			}
			if err := out.writeChunk(l.Name(), res); err != nil {
				return err
			}
			ll.Chunks = append(ll.Chunks, newLayoutChunk(l.Name(), c, res))
		}
		layout.Layers = append(layout.Layers, ll)
	}
	if err := out.writeLayout(layout); err != nil {
		return err
	}
	log.Info("ring written", "dir", out.dir, "layers", len(layout.Layers))
	return nil
}

// regenerateQueued runs the regeneration through a request queue and
// drains it on this goroutine until every chunk has reported back.
func regenerateQueued(ctx context.Context, log *slog.Logger, f *forge.Forger) error {
	total := 0
	for _, l := range f.Layers() {
		total += len(l.Chunks())
	}
	q := pipeline.NewQueue(config.GetWorkers(), total)
	q.Logger = log
	defer q.Close()

	var errs []error
	done := 0
	submitted, err := f.RegenerateAsync(q, func(l *forge.Layer, res *pipeline.ChunkResult, err error) {
		done++
		if err != nil {
			errs = append(errs, fmt.Errorf("layer %s: %w", l.Name(), err))
		}
	})
	if err != nil {
		return err
	}
	log.Debug("chunks queued", "submitted", submitted, "total", total)

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for done < total {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			q.Drain(0)
		}
	}
	return errors.Join(errs...)
}

// runPlane streams the endless terrain around a viewer at the origin,
// optionally walking it along +X, and writes the visible chunks in world
// space.
func runPlane(ctx context.Context, log *slog.Logger, cfg *config.Config, out *exporter, steps int) error {
	lc, ok := cfg.EndlessLayer()
	if !ok {
		return errors.New("no layer to stream")
	}
	s, err := cfg.Settings(lc)
	if err != nil {
		return err
	}
	q := pipeline.NewQueue(config.GetWorkers(), 1024)
	q.Logger = log
	defer q.Close()

	streamer, err := world.NewChunkStreamer(s, q, cfg.Endless)
	if err != nil {
		return err
	}
	streamer.Logger = log

	viewer := mgl64.Vec2{}
	stride := max(cfg.Endless.ViewerMoveThreshold*2, float64(streamer.ChunkSize()))
	for step := 0; step <= steps; step++ {
		streamer.Update(viewer)
		if err := settle(ctx, q, func() { streamer.Update(viewer) }); err != nil {
			return err
		}
		log.Info("terrain streamed", "viewer", viewer, "loaded", streamer.Store().Len(),
			"visible", len(streamer.Visible()), "colliders", len(streamer.Colliders(nil)))
		viewer = viewer.Add(mgl64.Vec2{stride, 0})
	}

	for _, c := range streamer.Visible() {
		if c.Mesh() == nil {
			continue
		}
		name := fmt.Sprintf("plane_%s_%d_%d", lc.Name, c.Coord.X, c.Coord.Z)
		if err := out.writeMesh(name, c.Mesh().Transformed(mgl32.QuatIdent(), c.Chunk.LocalPosition)); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		if err := out.writeImage(name, c.Texture()); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

// settle drains q until nothing is left in flight, calling tick between
// drains so capped requests are retried.
func settle(ctx context.Context, q *pipeline.Queue, tick func()) error {
	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()
	for q.Pending() > 0 || q.Ready() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			q.Drain(0)
			tick()
		}
	}
	return nil
}

// runPreview bakes the first layer's centre chunk as images: raw heights,
// hard biome colours and the blended shader look.
func runPreview(log *slog.Logger, cfg *config.Config, out *exporter, size int) error {
	if len(cfg.Layers) == 0 {
		return errors.New("no layer to preview")
	}
	lc := cfg.Layers[0]
	s, err := cfg.Settings(lc)
	if err != nil {
		return err
	}
	gen := pipeline.NewGenerator(s)
	gen.Logger = log
	f, err := gen.HeightField(ring.PlaneChunk(ring.Grid{}, s.GridSize))
	if err != nil {
		return err
	}

	images := map[string]*image.NRGBA{"noise": texture.FromHeightMap(f)}
	if s.Biomes != nil {
		colour, err := texture.FromBiomes(f, s.Biomes)
		if err != nil {
			return err
		}
		images["color"] = colour
		images["blended"] = texture.Blended(f, s.Biomes, 0, 1)
	}
	m := gen.Mesh(f, config.GetPreviewLOD())
	if err := out.writeMesh("preview_"+lc.Name, m); err != nil {
		return err
	}
	for name, img := range images {
		if size > 0 {
			img = texture.Scale(img, size, size)
		}
		if err := out.writeImage(name, img); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	log.Info("preview written", "layer", lc.Name, "lod", config.GetPreviewLOD(), "vertices", len(m.Vertices))
	return nil
}
