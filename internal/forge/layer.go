package forge

import (
	"math"
	"sync"

	"ringforge/internal/pipeline"
	"ringforge/internal/ring"

	"github.com/google/uuid"
)

// Layer is one generated surface of a ring: its settings, its chunk
// descriptors and the last results generated for them.
type Layer struct {
	name         string
	radiusOffset float64

	mu       sync.RWMutex
	settings pipeline.Settings
	set      *ring.ChunkSet
	// epoch increases whenever the chunk set is rebuilt, so results for
	// discarded chunk IDs can be told apart.
	epoch   uint64
	results map[uuid.UUID]*pipeline.ChunkResult
}

func newLayer(name string, s pipeline.Settings, radiusOffset float64) *Layer {
	return &Layer{
		name:         name,
		radiusOffset: radiusOffset,
		settings:     s,
		set:          ring.NewChunkSet(s.Shape),
		results:      make(map[uuid.UUID]*pipeline.ChunkResult),
	}
}

// Name returns the layer name.
func (l *Layer) Name() string { return l.name }

// RadiusOffset returns how far the layer sits outside the ring radius.
func (l *Layer) RadiusOffset() float64 { return l.radiusOffset }

// Settings returns the layer's current generation settings.
func (l *Layer) Settings() pipeline.Settings {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings
}

// Chunks returns the layer's chunk descriptors.
func (l *Layer) Chunks() []ring.Chunk { return l.set.Chunks() }

// Result returns the last result generated for a chunk.
func (l *Layer) Result(id uuid.UUID) (*pipeline.ChunkResult, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.results[id]
	return r, ok
}

// Results returns the generated results in chunk order, skipping chunks
// that have none yet.
func (l *Layer) Results() []*pipeline.ChunkResult {
	chunks := l.set.Chunks()
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*pipeline.ChunkResult, 0, len(chunks))
	for _, c := range chunks {
		if r, ok := l.results[c.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Shaders recomputes the shader block of every chunk from its current
// placement. Placement can change without regenerating, so hosts call this
// whenever the ring moves.
func (l *Layer) Shaders() []pipeline.ShaderData {
	gen := pipeline.NewGenerator(l.Settings())
	chunks := l.set.Chunks()
	out := make([]pipeline.ShaderData, len(chunks))
	for i, c := range chunks {
		out[i] = gen.Shader(c)
	}
	return out
}

// sync pushes the ring geometry into the layer and brings its chunk set in
// line with count. Results are discarded when the set is rebuilt.
func (l *Layer) sync(count ring.ChunkCount, gridSize int) bool {
	geo := ring.GeometryFor(count, gridSize)
	geo.Radius += l.radiusOffset
	geo.Circumference = 2 * math.Pi * geo.Radius

	l.mu.Lock()
	defer l.mu.Unlock()
	l.settings.GridSize = gridSize
	l.settings.Geometry = geo
	l.set.SetShape(l.settings.Shape)
	if !l.set.Sync(count, gridSize) {
		return false
	}
	l.epoch++
	clear(l.results)
	return true
}

func (l *Layer) update(fn func(*pipeline.Settings)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.settings)
}

// store records a result unless the chunk set was rebuilt since epoch.
func (l *Layer) store(epoch uint64, res *pipeline.ChunkResult) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if epoch != l.epoch {
		return false
	}
	l.results[res.Chunk.ID] = res
	return true
}

func (l *Layer) replace(epoch uint64, results []*pipeline.ChunkResult) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if epoch != l.epoch {
		return false
	}
	clear(l.results)
	for _, r := range results {
		l.results[r.Chunk.ID] = r
	}
	return true
}

func (l *Layer) snapshot() (pipeline.Settings, uint64) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.settings, l.epoch
}
