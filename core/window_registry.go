package core

import (
	"math"
	"sync"

	"github.com/signalsfoundry/skywash-simulator/model"
)

// dedupResolution is the quantization step for duplicate detection: window
// centres are rounded to this resolution (metres) per axis, and windows that
// land on the same rounded key are considered one.
const dedupResolution = 0.1

type positionKey struct {
	x, y, z int64
}

func quantize(p model.Position) positionKey {
	return positionKey{
		x: int64(math.Round(p.X / dedupResolution)),
		y: int64(math.Round(p.Y / dedupResolution)),
		z: int64(math.Round(p.Z / dedupResolution)),
	}
}

// WindowRegistry stores windows observed during the scan, in detection order.
// Raw observations accumulate via Add; Deduplicate collapses observations
// whose quantized centres collide, keeping the first-seen window per key.
type WindowRegistry struct {
	mu      sync.RWMutex
	windows []*model.Window
	total   int // raw observations, including discarded duplicates
}

// NewWindowRegistry constructs an empty registry.
func NewWindowRegistry() *WindowRegistry {
	return &WindowRegistry{}
}

// Add records an observation and assigns the window's ID in detection order.
func (r *WindowRegistry) Add(w *model.Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w.ID = len(r.windows) + 1
	r.windows = append(r.windows, w)
	r.total++
}

// Deduplicate removes windows whose quantized centre was already seen,
// preserving detection order, and returns the number retained. Calling it
// again is a no-op.
func (r *WindowRegistry) Deduplicate() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[positionKey]struct{}, len(r.windows))
	unique := r.windows[:0]
	for _, w := range r.windows {
		key := quantize(w.Center)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, w)
	}
	r.windows = unique
	return len(r.windows)
}

// Count returns the number of retained windows.
func (r *WindowRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// TotalObserved returns the number of raw observations, duplicates included.
func (r *WindowRegistry) TotalObserved() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// Windows returns a snapshot slice of the retained windows in detection
// order. The windows themselves are shared, not copied.
func (r *WindowRegistry) Windows() []*model.Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Window, len(r.windows))
	copy(out, r.windows)
	return out
}

// MarkCleanedWithin marks every window whose centre lies within radius of
// point as cleaned and returns the IDs of windows that changed state. Marking
// an already-cleaned window again is harmless.
func (r *WindowRegistry) MarkCleanedWithin(point Vec3, radius float64) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var newlyCleaned []int
	for _, w := range r.windows {
		if vec(w.Center).DistanceTo(point) < radius {
			if !w.Cleaned {
				newlyCleaned = append(newlyCleaned, w.ID)
			}
			w.Cleaned = true
		}
	}
	return newlyCleaned
}

// CleanedCount returns how many retained windows have been cleaned.
func (r *WindowRegistry) CleanedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, w := range r.windows {
		if w.Cleaned {
			n++
		}
	}
	return n
}
