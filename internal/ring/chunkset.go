package ring

import (
	"fmt"
	"strings"
	"sync"
)

// Shape selects how a ChunkSet places its chunks.
type Shape int

const (
	ShapeRing Shape = iota
	ShapePlane
)

func (s Shape) String() string {
	if s == ShapePlane {
		return "plane"
	}
	return "ring"
}

// ParseShape accepts "ring" or "plane"; empty means ring.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(s) {
	case "", "ring":
		return ShapeRing, nil
	case "plane":
		return ShapePlane, nil
	}
	return ShapeRing, fmt.Errorf("unknown shape %q", s)
}

// ChunkSet owns the chunk descriptors of one layer. Changing the chunk count
// (or grid size, or shape) discards every chunk and builds a fresh set with
// new IDs; anything else keeps the existing chunks and refreshes their
// placement in place.
type ChunkSet struct {
	mu       sync.RWMutex
	shape    Shape
	count    ChunkCount
	gridSize int
	chunks   []Chunk
}

// NewChunkSet returns an empty set; the first Sync builds it.
func NewChunkSet(shape Shape) *ChunkSet {
	return &ChunkSet{shape: shape}
}

// Sync brings the set in line with count and gridSize and reports whether
// the chunks were rebuilt.
func (s *ChunkSet) Sync(count ChunkCount, gridSize int) bool {
	count = count.Sanitized()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chunks != nil && s.count == count && s.gridSize == gridSize {
		for i := range s.chunks {
			s.place(&s.chunks[i])
		}
		return false
	}

	s.count = count
	s.gridSize = gridSize
	if s.shape == ShapePlane {
		s.chunks = PlaneLayout(count, gridSize)
	} else {
		s.chunks = Layout(count, gridSize)
	}
	return true
}

// SetShape switches placement. The next Sync rebuilds.
func (s *ChunkSet) SetShape(shape Shape) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shape != shape {
		s.shape = shape
		s.chunks = nil
	}
}

func (s *ChunkSet) place(c *Chunk) {
	if s.shape == ShapePlane {
		placeOnPlane(c, s.gridSize)
	} else {
		placeOnRing(c, s.count, s.gridSize)
	}
}

// Chunks returns a copy of the current descriptors.
func (s *ChunkSet) Chunks() []Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Count returns the chunk count of the last Sync.
func (s *ChunkSet) Count() ChunkCount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Geometry returns the ring geometry of the last Sync.
func (s *ChunkSet) Geometry() Geometry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return GeometryFor(s.count, s.gridSize)
}

// Len returns the number of chunks.
func (s *ChunkSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}
