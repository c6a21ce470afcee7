// Package bridge translates between host pixels and the caller's logical
// coordinate space. The overlay never interprets logical coordinates; a
// bridge without functions maps pixels onto themselves.
package bridge

import (
	"InkOverlay/internal/state"

	"github.com/paulmach/orb"
)

// PixelToLogical maps a host pixel to a logical coordinate pair.
type PixelToLogical func(state.Point) orb.Point

// LogicalToPixel maps a logical coordinate pair to a host pixel.
type LogicalToPixel func(orb.Point) state.Point

// Bridge holds the optional transform pair.
type Bridge struct {
	toLogical PixelToLogical
	toPixel   LogicalToPixel
}

// New returns a bridge using the given functions. Either may be nil.
func New(toLogical PixelToLogical, toPixel LogicalToPixel) Bridge {
	return Bridge{toLogical: toLogical, toPixel: toPixel}
}

// Logical converts p, passing it through verbatim when no function is set.
func (b Bridge) Logical(p state.Point) orb.Point {
	if b.toLogical == nil {
		return orb.Point{p.X, p.Y}
	}
	return b.toLogical(p)
}

// Pixel converts l, passing it through verbatim when no function is set.
func (b Bridge) Pixel(l orb.Point) state.Point {
	if b.toPixel == nil {
		return state.Point{X: l[0], Y: l[1]}
	}
	return b.toPixel(l)
}

// HasLogical reports whether a pixel→logical function is configured.
func (b Bridge) HasLogical() bool {
	return b.toLogical != nil
}

// HasPixel reports whether a logical→pixel function is configured.
func (b Bridge) HasPixel() bool {
	return b.toPixel != nil
}
