package bridge

import (
	"fmt"
	"math"

	"InkOverlay/internal/state"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// DefaultTileSize is the pixel size of one web map tile at zoom 0.
const DefaultTileSize = 512

// Mercator describes a web map viewport: the lng/lat at the center of the
// host surface, the zoom level and the surface size in host pixels. It
// reproduces the project/unproject pair a web map hands to the overlay.
type Mercator struct {
	Center   orb.Point
	Zoom     float64
	Width    float64
	Height   float64
	TileSize float64
}

func (m Mercator) tileSize() float64 {
	if m.TileSize > 0 {
		return m.TileSize
	}
	return DefaultTileSize
}

// metersPerPixel is the Spherical Mercator ground resolution at m.Zoom.
func (m Mercator) metersPerPixel() float64 {
	world := m.tileSize() * math.Exp2(m.Zoom)
	return 2 * math.Pi * orb.EarthRadius / world
}

// Validate checks that the viewport can be projected.
func (m Mercator) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("bridge: viewport size %gx%g must be positive", m.Width, m.Height)
	}
	if m.Center[1] < -90 || m.Center[1] > 90 {
		return fmt.Errorf("bridge: center latitude %g out of range", m.Center[1])
	}
	if math.IsNaN(m.Zoom) || math.IsInf(m.Zoom, 0) {
		return fmt.Errorf("bridge: zoom %g is not finite", m.Zoom)
	}
	return nil
}

// ToLogical unprojects a host pixel to lng/lat.
func (m Mercator) ToLogical(p state.Point) orb.Point {
	c := project.Point(m.Center, project.WGS84.ToMercator)
	res := m.metersPerPixel()
	merc := orb.Point{
		c[0] + (p.X-m.Width/2)*res,
		c[1] - (p.Y-m.Height/2)*res,
	}
	return project.Point(merc, project.Mercator.ToWGS84)
}

// ToPixel projects lng/lat to a host pixel.
func (m Mercator) ToPixel(l orb.Point) state.Point {
	c := project.Point(m.Center, project.WGS84.ToMercator)
	merc := project.Point(l, project.WGS84.ToMercator)
	res := m.metersPerPixel()
	return state.Point{
		X: m.Width/2 + (merc[0]-c[0])/res,
		Y: m.Height/2 - (merc[1]-c[1])/res,
	}
}

// Bridge returns the viewport as a bridge.
func (m Mercator) Bridge() (Bridge, error) {
	if err := m.Validate(); err != nil {
		return Bridge{}, err
	}
	return New(m.ToLogical, m.ToPixel), nil
}
