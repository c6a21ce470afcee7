// Package render draws the overlay's paths onto a device-pixel surface.
package render

import (
	"image"
	"image/draw"
	"math"

	"InkOverlay/internal/state"

	"github.com/gogpu/gg"
)

// Surface is the pixel buffer the overlay paints into. Drawing coordinates
// are host pixels; the device pixel ratio is applied as a scale at draw time.
type Surface struct {
	dc     *gg.Context
	style  Style
	width  float64 // host pixels
	height float64
	dpr    float64
}

// NewSurface returns a 1x1 surface. Call Resize before drawing.
func NewSurface(style Style) *Surface {
	return &Surface{
		dc:     gg.NewContext(1, 1),
		style:  style,
		width:  1,
		height: 1,
		dpr:    1,
	}
}

// PhysicalSize returns the device pixel size for a host size and ratio:
// ceil(w*dpr) x ceil(h*dpr), never smaller than 1x1.
func PhysicalSize(width, height, dpr float64) (int, int) {
	return physical(width * dpr), physical(height * dpr)
}

func physical(v float64) int {
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	if math.IsInf(v, 1) || v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Ceil(v))
}

func sanitizeRatio(dpr float64) float64 {
	if math.IsNaN(dpr) || math.IsInf(dpr, 0) || dpr < 1 {
		return 1
	}
	return dpr
}

func sanitizeLength(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Resize sets the host size and device pixel ratio. It reports whether
// anything changed; callers redraw only then.
func (s *Surface) Resize(width, height, dpr float64) (bool, error) {
	width, height = sanitizeLength(width), sanitizeLength(height)
	dpr = sanitizeRatio(dpr)
	if width == s.width && height == s.height && dpr == s.dpr {
		return false, nil
	}

	pw, ph := PhysicalSize(width, height, dpr)
	if err := s.dc.Resize(pw, ph); err != nil {
		return false, err
	}
	s.width, s.height, s.dpr = width, height, dpr
	return true, nil
}

// Size returns the surface size in host pixels.
func (s *Surface) Size() (float64, float64) {
	return s.width, s.height
}

// DevicePixelRatio returns the current ratio.
func (s *Surface) DevicePixelRatio() float64 {
	return s.dpr
}

// Bounds returns the device pixel bounds.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.dc.Width(), s.dc.Height())
}

// Redraw clears the surface and paints every path, then the in-progress
// path, as round-capped polylines.
func (s *Surface) Redraw(paths []state.Path, inProgress []state.Point) error {
	s.dc.Clear()
	s.dc.Identity()
	s.dc.Scale(s.dpr, s.dpr)
	s.dc.SetColor(s.style.rgba)
	s.dc.SetLineWidth(s.style.Width)
	s.dc.SetLineCap(gg.LineCapRound)
	s.dc.SetLineJoin(gg.LineJoinRound)

	for _, p := range paths {
		if err := s.polyline(p.Points); err != nil {
			return err
		}
	}
	return s.polyline(inProgress)
}

func (s *Surface) polyline(points []state.Point) error {
	if len(points) < 2 {
		return nil
	}
	s.dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		s.dc.LineTo(p.X, p.Y)
	}
	return s.dc.Stroke()
}

// Snapshot returns a copy of the device pixels.
func (s *Surface) Snapshot() *image.RGBA {
	img := s.dc.Image()
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

// Close releases the drawing context.
func (s *Surface) Close() error {
	return s.dc.Close()
}
