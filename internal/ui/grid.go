package ui

import (
	"image/color"
	"sync"

	"InkOverlay/internal/bridge"
	"InkOverlay/internal/state"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/paulmach/orb"
)

var (
	gridBackground = color.NRGBA{R: 245, G: 246, B: 248, A: 255}
	gridColor      = color.NRGBA{R: 220, G: 220, B: 220, A: 255}
)

// GridSurface is a stand-in for a map: a plain grid whose pixels map to
// lng/lat through a Web Mercator viewport of the surface's current size.
type GridSurface struct {
	widget.BaseWidget

	mu       sync.RWMutex
	viewport bridge.Mercator
	gridSize float32
}

// NewGridSurface returns a grid showing viewport. Its Width and Height are
// replaced by the widget size.
func NewGridSurface(viewport bridge.Mercator) *GridSurface {
	g := &GridSurface{viewport: viewport, gridSize: 50}
	g.ExtendBaseWidget(g)
	return g
}

// Viewport returns the Mercator viewport for the current size.
func (g *GridSurface) Viewport() bridge.Mercator {
	size := g.Size()
	g.mu.RLock()
	defer g.mu.RUnlock()
	m := g.viewport
	m.Width, m.Height = float64(size.Width), float64(size.Height)
	return m
}

// SetCenter moves the viewport.
func (g *GridSurface) SetCenter(center orb.Point) {
	g.mu.Lock()
	g.viewport.Center = center
	g.mu.Unlock()
	g.Refresh()
}

// ToLogical maps a surface pixel to lng/lat.
func (g *GridSurface) ToLogical(p state.Point) orb.Point {
	return g.Viewport().ToLogical(p)
}

// ToPixel maps lng/lat to a surface pixel.
func (g *GridSurface) ToPixel(l orb.Point) state.Point {
	return g.Viewport().ToPixel(l)
}

func (g *GridSurface) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (g *GridSurface) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRasterWithPixels(func(x, y, w, h int) color.Color {
		size := g.Size()
		if size.Width <= 0 {
			return gridBackground
		}
		step := int(g.gridSize * float32(w) / size.Width)
		if step > 0 && (x%step == 0 || y%step == 0) {
			return gridColor
		}
		return gridBackground
	})
	return widget.NewSimpleRenderer(bg)
}
