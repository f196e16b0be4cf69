package config

import "sync"

// Preview limits.
const (
	MinPreviewLOD = 0
	MaxPreviewLOD = 6
	MaxWorkers    = 64
)

// PreviewSettings holds process-wide interactive settings
type PreviewSettings struct {
	mu          sync.RWMutex
	lod         int
	autoRefresh bool
	workers     int
}

var globalPreviewSettings = &PreviewSettings{
	lod:         0,
	autoRefresh: false,
	workers:     4,
}

// GetPreviewLOD returns the level of detail used for editor-style previews
func GetPreviewLOD() int {
	globalPreviewSettings.mu.RLock()
	defer globalPreviewSettings.mu.RUnlock()
	return globalPreviewSettings.lod
}

// SetPreviewLOD sets the preview level of detail
func SetPreviewLOD(lod int) {
	globalPreviewSettings.mu.Lock()
	defer globalPreviewSettings.mu.Unlock()

	if lod < MinPreviewLOD {
		lod = MinPreviewLOD
	}
	if lod > MaxPreviewLOD {
		lod = MaxPreviewLOD
	}

	globalPreviewSettings.lod = lod
}

// GetAutoRefresh returns whether parameter changes regenerate immediately
func GetAutoRefresh() bool {
	globalPreviewSettings.mu.RLock()
	defer globalPreviewSettings.mu.RUnlock()
	return globalPreviewSettings.autoRefresh
}

// SetAutoRefresh toggles regeneration on parameter changes
func SetAutoRefresh(enabled bool) {
	globalPreviewSettings.mu.Lock()
	defer globalPreviewSettings.mu.Unlock()
	globalPreviewSettings.autoRefresh = enabled
}

// GetWorkers returns the number of generation workers
func GetWorkers() int {
	globalPreviewSettings.mu.RLock()
	defer globalPreviewSettings.mu.RUnlock()
	return globalPreviewSettings.workers
}

// SetWorkers sets the number of generation workers, clamped to [1, MaxWorkers]
func SetWorkers(n int) {
	globalPreviewSettings.mu.Lock()
	defer globalPreviewSettings.mu.Unlock()

	if n < 1 {
		n = 1
	}
	if n > MaxWorkers {
		n = MaxWorkers
	}

	globalPreviewSettings.workers = n
}

// GetEvictDistance returns the distance beyond which streamed chunks are
// dropped, twice the view distance.
func GetEvictDistance(viewDistance float64) float64 {
	return viewDistance * 2
}
