package world

import (
	"sort"
	"sync"

	"ringforge/internal/profiling"

	"github.com/go-gl/mathgl/mgl64"
)

// ChunkWithCoord pairs a chunk with its grid coordinate.
type ChunkWithCoord struct {
	Chunk *TerrainChunk
	Coord ChunkCoord
}

// ChunkStore manages the storage and retrieval of streamed chunks.
type ChunkStore struct {
	chunks   map[ChunkCoord]*TerrainChunk
	mu       sync.RWMutex
	modCount uint64 // Increases on any chunk add/remove
}

// NewChunkStore creates a new chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		chunks: make(map[ChunkCoord]*TerrainChunk),
	}
}

// GetChunk returns the chunk at coord, or nil.
func (cs *ChunkStore) GetChunk(coord ChunkCoord) *TerrainChunk {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.chunks[coord]
}

// AddChunk stores chunk unless one already exists at coord, and returns
// the stored chunk.
func (cs *ChunkStore) AddChunk(coord ChunkCoord, chunk *TerrainChunk) *TerrainChunk {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if existing, ok := cs.chunks[coord]; ok {
		return existing
	}
	cs.chunks[coord] = chunk
	cs.modCount++
	return chunk
}

// Len returns the number of stored chunks.
func (cs *ChunkStore) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chunks)
}

// GetAllChunks returns every chunk, ordered by X then Z.
func (cs *ChunkStore) GetAllChunks() []ChunkWithCoord {
	cs.mu.RLock()
	chunks := make([]ChunkWithCoord, 0, len(cs.chunks))
	for coord, chunk := range cs.chunks {
		chunks = append(chunks, ChunkWithCoord{Chunk: chunk, Coord: coord})
	}
	cs.mu.RUnlock()
	sort.Slice(chunks, func(i, j int) bool { return less(chunks[i].Coord, chunks[j].Coord) })
	return chunks
}

// AppendChunksInRadius appends all loaded chunks within radius (in chunks)
// of center into dst and returns the resulting slice.
func (cs *ChunkStore) AppendChunksInRadius(center ChunkCoord, radius int, dst []ChunkWithCoord) []ChunkWithCoord {
	defer profiling.Track("world.AppendChunksInRadius")()
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			if dx*dx+dz*dz > radius*radius {
				continue
			}
			coord := ChunkCoord{X: center.X + dx, Z: center.Z + dz}
			if ch, ok := cs.chunks[coord]; ok {
				dst = append(dst, ChunkWithCoord{Chunk: ch, Coord: coord})
			}
		}
	}
	return dst
}

// GetModCount returns the current modification count of the chunk map.
func (cs *ChunkStore) GetModCount() uint64 {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.modCount
}

// EvictFarChunks removes chunks whose bounds lie further than maxDistance
// from viewer and returns their coordinates.
func (cs *ChunkStore) EvictFarChunks(viewer mgl64.Vec2, maxDistance float64) []ChunkCoord {
	defer profiling.Track("world.EvictFarChunks")()
	var removed []ChunkCoord
	cs.mu.Lock()
	for coord, chunk := range cs.chunks {
		if chunk.DistanceTo(viewer) > maxDistance {
			delete(cs.chunks, coord)
			cs.modCount++
			removed = append(removed, coord)
		}
	}
	cs.mu.Unlock()
	return removed
}

func less(a, b ChunkCoord) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Z < b.Z
}
