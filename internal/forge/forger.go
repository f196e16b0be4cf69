// Package forge drives whole rings: it keeps every layer's chunk set in step
// with the ring size and regenerates all of them on demand.
package forge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"ringforge/internal/config"
	"ringforge/internal/pipeline"
	"ringforge/internal/profiling"
	"ringforge/internal/ring"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrRegenerating is returned when a regeneration is already running.
	ErrRegenerating = errors.New("forge: regeneration already running")
	// ErrDuplicateLayer is returned by AddLayer for a name already in use.
	ErrDuplicateLayer = errors.New("forge: duplicate layer")
)

// Forger owns the layers of one ring. The chunk count is shared by every
// layer; each layer sits at the ring radius plus its own offset.
type Forger struct {
	Logger *slog.Logger

	regen sync.Mutex

	mu           sync.RWMutex
	count        ring.ChunkCount
	gridSize     int
	ringPosition mgl32.Vec3
	layers       []*Layer
}

// New returns a Forger with no layers.
func New(count ring.ChunkCount, gridSize int) *Forger {
	if gridSize < 2 {
		gridSize = ring.MapChunkSize
	}
	return &Forger{
		Logger:   slog.Default(),
		count:    count.Sanitized(),
		gridSize: gridSize,
	}
}

// Build creates a Forger with one layer per configured layer.
func Build(cfg *config.Config) (*Forger, error) {
	f := New(cfg.ChunkCount, cfg.GridSize)
	for _, lc := range cfg.Layers {
		s, err := cfg.Settings(lc)
		if err != nil {
			return nil, err
		}
		if _, err := f.AddLayer(lc.Name, s, lc.RadiusOffset); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// AddLayer registers a layer and places its chunks.
func (f *Forger) AddLayer(name string, s pipeline.Settings, radiusOffset float64) (*Layer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.layers {
		if strings.EqualFold(l.name, name) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLayer, name)
		}
	}
	s.RingPosition = f.ringPosition
	l := newLayer(name, s, radiusOffset)
	l.sync(f.count, f.gridSize)
	f.layers = append(f.layers, l)
	f.Logger.Debug("layer added", "layer", name, "chunks", l.set.Len())
	return l, nil
}

// Layers returns the layers in the order they were added.
func (f *Forger) Layers() []*Layer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Layer, len(f.layers))
	copy(out, f.layers)
	return out
}

// Layer looks a layer up by name, ignoring case.
func (f *Forger) Layer(name string) (*Layer, bool) {
	for _, l := range f.Layers() {
		if strings.EqualFold(l.name, name) {
			return l, true
		}
	}
	return nil, false
}

// ChunkCount returns the ring size in chunks.
func (f *Forger) ChunkCount() ring.ChunkCount {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count
}

// Geometry returns the ring geometry shared by all layers, before any
// layer offset.
func (f *Forger) Geometry() ring.Geometry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return ring.GeometryFor(f.count, f.gridSize)
}

// SetChunkCount resizes the ring and reports whether any layer's chunks
// were rebuilt. Rebuilt layers lose their results.
func (f *Forger) SetChunkCount(count ring.ChunkCount) bool {
	f.mu.Lock()
	f.count = count.Sanitized()
	layers := append([]*Layer(nil), f.layers...)
	count, grid := f.count, f.gridSize
	f.mu.Unlock()

	rebuilt := false
	for _, l := range layers {
		if l.sync(count, grid) {
			rebuilt = true
		}
	}
	f.Logger.Debug("chunk count set", "count", count.String(), "rebuilt", rebuilt)
	return rebuilt
}

// SetRingPosition moves the ring origin used for shader data.
func (f *Forger) SetRingPosition(pos mgl32.Vec3) {
	f.mu.Lock()
	f.ringPosition = pos
	layers := append([]*Layer(nil), f.layers...)
	f.mu.Unlock()
	for _, l := range layers {
		l.update(func(s *pipeline.Settings) { s.RingPosition = pos })
	}
}

// SetLayerSettings replaces a layer's generation settings. Geometry and
// ring position stay under the forger's control.
func (f *Forger) SetLayerSettings(name string, s pipeline.Settings) error {
	l, ok := f.Layer(name)
	if !ok {
		return fmt.Errorf("forge: unknown layer %q", name)
	}
	l.update(func(cur *pipeline.Settings) {
		s.GridSize, s.Geometry, s.RingPosition = cur.GridSize, cur.Geometry, cur.RingPosition
		*cur = s
	})
	f.mu.RLock()
	count, grid := f.count, f.gridSize
	f.mu.RUnlock()
	l.sync(count, grid)
	return nil
}

// OnSettingsChanged regenerates when auto-refresh is enabled and reports
// whether it did.
func (f *Forger) OnSettingsChanged(ctx context.Context) (bool, error) {
	if !config.GetAutoRefresh() {
		return false, nil
	}
	if err := f.Regenerate(ctx); err != nil {
		return false, err
	}
	return true, nil
}

type job struct {
	layer int
	index int
	gen   *pipeline.Generator
	chunk ring.Chunk
}

// generators builds one generator per layer at the preview LOD. A layer
// never renders finer than its own LOD.
func (f *Forger) generators(layers []*Layer) ([]*pipeline.Generator, []uint64) {
	lod := config.GetPreviewLOD()
	gens := make([]*pipeline.Generator, len(layers))
	epochs := make([]uint64, len(layers))
	for i, l := range layers {
		s, epoch := l.snapshot()
		s.LOD = max(s.LOD, lod)
		g := pipeline.NewGenerator(s)
		g.Logger = f.Logger.With("layer", l.name)
		gens[i], epochs[i] = g, epoch
	}
	return gens, epochs
}

// Regenerate generates every chunk of every layer on up to
// config.GetWorkers goroutines. Results replace the previous ones only when
// the whole pass succeeds. Calls do not nest: a second call while one is
// running returns ErrRegenerating.
func (f *Forger) Regenerate(ctx context.Context) error {
	if !f.regen.TryLock() {
		return ErrRegenerating
	}
	defer f.regen.Unlock()
	defer profiling.Track("forge.Regenerate")()

	layers := f.Layers()
	gens, epochs := f.generators(layers)
	results := make([][]*pipeline.ChunkResult, len(layers))
	var jobs []job
	for li, l := range layers {
		chunks := l.Chunks()
		results[li] = make([]*pipeline.ChunkResult, len(chunks))
		for ci, c := range chunks {
			jobs = append(jobs, job{layer: li, index: ci, gen: gens[li], chunk: c})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.GetWorkers())
	for _, j := range jobs {
		j := j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := j.gen.GenerateChunk(j.chunk)
			if err != nil {
				return fmt.Errorf("layer %s: %w", layers[j.layer].name, err)
			}
			results[j.layer][j.index] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		f.Logger.Error("regeneration failed", "err", err)
		return err
	}

	for li, l := range layers {
		if !l.replace(epochs[li], results[li]) {
			f.Logger.Warn("discarding results for rebuilt layer", "layer", l.name)
		}
	}
	f.Logger.Info("ring regenerated", "layers", len(layers), "chunks", len(jobs), "count", f.ChunkCount().String())
	return nil
}

// RegenerateAsync submits every chunk of every layer to q. Each finished
// chunk is stored on its layer and then passed to done from q.Drain.
// Chunks that do not fit in the queue are reported through done with
// pipeline.ErrQueueFull.
func (f *Forger) RegenerateAsync(q *pipeline.Queue, done func(*Layer, *pipeline.ChunkResult, error)) (int, error) {
	layers := f.Layers()
	gens, epochs := f.generators(layers)
	submitted := 0
	for li, l := range layers {
		l := l
		epoch := epochs[li]
		for _, c := range l.Chunks() {
			_, err := gens[li].RequestChunk(q, c, func(res *pipeline.ChunkResult, err error) {
				if err == nil {
					l.store(epoch, res)
				}
				if done != nil {
					done(l, res, err)
				}
			})
			switch {
			case errors.Is(err, pipeline.ErrQueueClosed):
				return submitted, err
			case err != nil:
				if done != nil {
					done(l, nil, err)
				}
				continue
			}
			submitted++
		}
	}
	return submitted, nil
}
