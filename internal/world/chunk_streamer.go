// Package world streams endless planar terrain around a moving viewer.
package world

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"

	"ringforge/internal/config"
	"ringforge/internal/heightmap"
	"ringforge/internal/meshing"
	"ringforge/internal/pipeline"
	"ringforge/internal/profiling"
	"ringforge/internal/ring"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrNoDetailLevels is returned by NewChunkStreamer without detail levels.
var ErrNoDetailLevels = errors.New("world: at least one detail level is required")

type heightData struct {
	heights *heightmap.Field
	texture *image.NRGBA
}

// ChunkStreamer keeps the chunks around a viewer loaded. Height data and
// meshes are generated on a pipeline.Queue; they are applied when the
// queue's owner drains it. Update and Drain must run on the same goroutine.
type ChunkStreamer struct {
	Logger *slog.Logger
	// MaxRequestsPerUpdate caps the requests pushed by one refresh; the
	// rest are pushed by later updates.
	MaxRequestsPerUpdate int

	gen   *pipeline.Generator
	queue *pipeline.Queue
	store *ChunkStore

	levels           []config.DetailLevel
	moveThreshold    float64
	colliderIndex    int
	gridSize         int
	chunkSize        int
	maxViewDistance  float64
	chunksVisibleDst int

	viewer     mgl64.Vec2
	lastViewer mgl64.Vec2
	started    bool
	retry      bool
	requests   int
	visible    map[ChunkCoord]*TerrainChunk
	nearby     []ChunkWithCoord
}

// NewChunkStreamer streams terrain generated with s, which is forced to a
// planar shape.
func NewChunkStreamer(s pipeline.Settings, q *pipeline.Queue, opts config.EndlessConfig) (*ChunkStreamer, error) {
	if len(opts.DetailLevels) == 0 {
		return nil, ErrNoDetailLevels
	}
	if opts.ColliderLODIndex < 0 || opts.ColliderLODIndex >= len(opts.DetailLevels) {
		return nil, fmt.Errorf("world: collider detail level %d out of range", opts.ColliderLODIndex)
	}
	s.Shape = ring.ShapePlane
	gen := pipeline.NewGenerator(s)
	gridSize := gen.Settings().GridSize
	maxView := opts.DetailLevels[len(opts.DetailLevels)-1].VisibleDistance
	chunkSize := gridSize - 1
	return &ChunkStreamer{
		Logger:               slog.Default(),
		MaxRequestsPerUpdate: 256,
		gen:                  gen,
		queue:                q,
		store:                NewChunkStore(),
		levels:               append([]config.DetailLevel(nil), opts.DetailLevels...),
		moveThreshold:        opts.ViewerMoveThreshold,
		colliderIndex:        opts.ColliderLODIndex,
		gridSize:             gridSize,
		chunkSize:            chunkSize,
		maxViewDistance:      maxView,
		chunksVisibleDst:     int(math.Round(maxView / float64(chunkSize))),
		visible:              make(map[ChunkCoord]*TerrainChunk),
	}, nil
}

// Store returns the streamer's chunk store.
func (cs *ChunkStreamer) Store() *ChunkStore { return cs.store }

// ChunkSize returns the world-space edge length of a chunk.
func (cs *ChunkStreamer) ChunkSize() int { return cs.chunkSize }

// MaxViewDistance returns the furthest detail level distance.
func (cs *ChunkStreamer) MaxViewDistance() float64 { return cs.maxViewDistance }

// ViewerChunk returns the chunk coordinate nearest to viewer (x, z).
func (cs *ChunkStreamer) ViewerChunk(viewer mgl64.Vec2) ChunkCoord {
	size := float64(cs.chunkSize)
	return ChunkCoord{X: int(math.Round(viewer.X() / size)), Z: int(math.Round(viewer.Y() / size))}
}

// Visible returns the chunks shown after the last update, ordered by X
// then Z.
func (cs *ChunkStreamer) Visible() []*TerrainChunk {
	out := make([]*TerrainChunk, 0, len(cs.visible))
	for _, e := range cs.store.GetAllChunks() {
		if e.Chunk.visible {
			out = append(out, e.Chunk)
		}
	}
	return out
}

// Colliders appends to dst the loaded chunks around the viewer that have a
// collider mesh.
func (cs *ChunkStreamer) Colliders(dst []*TerrainChunk) []*TerrainChunk {
	reach := cs.levels[cs.colliderIndex].VisibleDistance
	radius := int(math.Ceil(reach/float64(cs.chunkSize))) + 1
	cs.nearby = cs.store.AppendChunksInRadius(cs.ViewerChunk(cs.viewer), radius, cs.nearby[:0])
	for _, e := range cs.nearby {
		if e.Chunk.collider != nil && e.Chunk.DistanceTo(cs.viewer) <= reach {
			dst = append(dst, e.Chunk)
		}
	}
	return dst
}

// Update moves the viewer to (x, z). Chunks are refreshed on the first
// call, whenever the viewer has moved further than the move threshold
// since the last refresh, and while earlier requests are still waiting
// for queue space. It reports whether a refresh ran.
func (cs *ChunkStreamer) Update(viewer mgl64.Vec2) bool {
	cs.viewer = viewer
	moved := viewer.Sub(cs.lastViewer).Len() > cs.moveThreshold
	if cs.started && !moved && !cs.retry {
		return false
	}
	cs.started = true
	cs.lastViewer = viewer
	cs.refresh()
	return true
}

func (cs *ChunkStreamer) refresh() {
	defer profiling.Track("world.ChunkStreamer.refresh")()
	for coord, c := range cs.visible {
		c.visible = false
		delete(cs.visible, coord)
	}
	cs.retry = false
	cs.requests = 0

	center := cs.ViewerChunk(cs.viewer)
	mods := cs.store.GetModCount()
	created := 0
	for r := 0; r <= cs.chunksVisibleDst; r++ {
		for _, coord := range ringCoords(center, r) {
			c := cs.store.GetChunk(coord)
			if c == nil {
				c = cs.store.AddChunk(coord, newTerrainChunk(coord, cs.gridSize, cs.levels))
				created++
			}
			cs.updateChunk(c)
		}
	}

	evicted := cs.store.EvictFarChunks(cs.viewer, config.GetEvictDistance(cs.maxViewDistance))
	for _, coord := range evicted {
		delete(cs.visible, coord)
	}
	cs.Logger.Debug("terrain refreshed",
		"viewer", center.String(), "created", created, "evicted", len(evicted),
		"storeChanges", cs.store.GetModCount()-mods,
		"visible", len(cs.visible), "requests", cs.requests)
}

// updateChunk requests what the chunk is missing for its distance and
// shows the best mesh it has.
func (cs *ChunkStreamer) updateChunk(c *TerrainChunk) {
	if c.heights == nil {
		cs.requestHeights(c)
		return
	}
	dist := c.DistanceTo(cs.viewer)
	visible := dist <= cs.maxViewDistance
	if visible {
		i := lodFor(cs.levels, dist)
		if i != c.lodIndex {
			if m := c.lods[i].mesh; m != nil {
				c.lodIndex = i
				c.mesh = m
			} else {
				cs.requestMesh(c, i)
			}
		}
		if cs.gen.Settings().NeedsCollider && dist <= cs.levels[cs.colliderIndex].VisibleDistance && c.collider == nil {
			if m := c.lods[cs.colliderIndex].mesh; m != nil {
				c.collider = m
			} else {
				cs.requestMesh(c, cs.colliderIndex)
			}
		}
		cs.visible[c.Coord] = c
	} else {
		delete(cs.visible, c.Coord)
	}
	c.visible = visible
}

// admit counts a request against the per-update cap.
func (cs *ChunkStreamer) admit() bool {
	if cs.MaxRequestsPerUpdate > 0 && cs.requests >= cs.MaxRequestsPerUpdate {
		cs.retry = true
		return false
	}
	return true
}

func (cs *ChunkStreamer) submit(key string, run func() (any, error), cb pipeline.Callback) bool {
	if !cs.admit() {
		return false
	}
	if _, err := cs.queue.Submit(key, run, cb); err != nil {
		if !errors.Is(err, pipeline.ErrQueueClosed) {
			cs.retry = true
		}
		cs.Logger.Debug("request not queued", "key", key, "err", err)
		return false
	}
	cs.requests++
	return true
}

// current reports whether c is still the stored chunk for its coordinate.
func (cs *ChunkStreamer) current(c *TerrainChunk) bool {
	return cs.store.GetChunk(c.Coord) == c
}

func (cs *ChunkStreamer) requestHeights(c *TerrainChunk) {
	if c.heightRequested {
		return
	}
	chunk := c.Chunk
	ok := cs.submit("height:"+c.Coord.String(), func() (any, error) {
		f, err := cs.gen.HeightField(chunk)
		if err != nil {
			return nil, err
		}
		img, err := cs.gen.Texture(f)
		if err != nil {
			return nil, err
		}
		return heightData{heights: f, texture: img}, nil
	}, func(r pipeline.Result) {
		if !cs.current(c) {
			return
		}
		if r.Err != nil {
			c.heightRequested = false
			cs.retry = true
			return
		}
		d := r.Value.(heightData)
		c.heights, c.texture = d.heights, d.texture
		cs.updateChunk(c)
	})
	c.heightRequested = ok
}

func (cs *ChunkStreamer) requestMesh(c *TerrainChunk, i int) {
	if c.lods[i].requested {
		return
	}
	f, lod := c.heights, c.lods[i].lod
	ok := cs.submit(fmt.Sprintf("mesh:%s:%d", c.Coord, lod), func() (any, error) {
		return cs.gen.Mesh(f, lod), nil
	}, func(r pipeline.Result) {
		if !cs.current(c) {
			return
		}
		if r.Err != nil {
			c.lods[i].requested = false
			cs.retry = true
			return
		}
		c.lods[i].mesh = r.Value.(*meshing.MeshData)
		cs.updateChunk(c)
	})
	c.lods[i].requested = ok
}

// ringCoords returns the coordinates at Chebyshev distance r from center,
// walking the top row, right column, bottom row and left column.
func ringCoords(center ChunkCoord, r int) []ChunkCoord {
	if r == 0 {
		return []ChunkCoord{center}
	}
	x0, x1 := center.X-r, center.X+r
	z0, z1 := center.Z-r, center.Z+r
	out := make([]ChunkCoord, 0, 8*r)
	for x := x0; x <= x1; x++ {
		out = append(out, ChunkCoord{X: x, Z: z0})
	}
	for z := z0 + 1; z <= z1-1; z++ {
		out = append(out, ChunkCoord{X: x1, Z: z})
	}
	for x := x1; x >= x0; x-- {
		out = append(out, ChunkCoord{X: x, Z: z1})
	}
	for z := z1 - 1; z >= z0+1; z-- {
		out = append(out, ChunkCoord{X: x0, Z: z})
	}
	return out
}
