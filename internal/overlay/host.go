package overlay

import (
	"sync"
	"sync/atomic"
)

// Host is the surface the overlay is mounted on. Sizes are in host pixels.
type Host interface {
	SurfaceSize() (width, height float64)
	DevicePixelRatio() float64
	// Invalidate asks the host to present the overlay image again.
	Invalidate()
}

// StaticHost is a fixed-size host with no display, used for headless
// rendering and tests.
type StaticHost struct {
	mu            sync.Mutex
	width, height float64
	ratio         float64
	invalidations atomic.Int64
}

// NewStaticHost returns a host of the given size and device pixel ratio.
func NewStaticHost(width, height, ratio float64) *StaticHost {
	return &StaticHost{width: width, height: height, ratio: ratio}
}

func (h *StaticHost) SurfaceSize() (float64, float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

func (h *StaticHost) DevicePixelRatio() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ratio
}

func (h *StaticHost) Invalidate() {
	h.invalidations.Add(1)
}

// SetSize changes the reported size. The overlay sees it on its next Resize.
func (h *StaticHost) SetSize(width, height, ratio float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width, h.height, h.ratio = width, height, ratio
}

// Invalidations counts Invalidate calls.
func (h *StaticHost) Invalidations() int64 {
	return h.invalidations.Load()
}
