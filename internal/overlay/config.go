package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"InkOverlay/internal/bridge"
	"InkOverlay/internal/export"
	"InkOverlay/internal/render"

	"github.com/paulmach/orb/geojson"
)

var (
	ErrNoHost      = errors.New("overlay: host required")
	ErrStrokeWidth = errors.New("overlay: stroke width must be a positive number")
	ErrTolerance   = errors.New("overlay: simplify tolerance must be zero or a positive number")
)

// Config is fixed at construction. Start from DefaultConfig; the zero value
// hides the controls.
type Config struct {
	ShowControls      bool
	StrokeWidth       float64 // host pixels; 0 means the default
	StrokeColor       string  // "" means the default
	SimplifyTolerance float64 // host pixels; 0 disables simplification

	PixelToLogical bridge.PixelToLogical
	LogicalToPixel bridge.LogicalToPixel

	// OnSave receives every saved payload, raster included. It runs on the
	// encoding goroutine.
	OnSave func(Payload)

	// Deliver stores exported files. Defaults to export.WriteFile.
	Deliver func(filename string, data []byte) error

	Logger *slog.Logger
}

// DefaultConfig returns controls on, a 3px "#1a73e8" stroke and no
// simplification.
func DefaultConfig() Config {
	return Config{
		ShowControls: true,
		StrokeWidth:  render.DefaultStrokeWidth,
		StrokeColor:  render.DefaultStrokeColor,
	}
}

func (c Config) normalize() (Config, render.Style, error) {
	if c.StrokeWidth == 0 {
		c.StrokeWidth = render.DefaultStrokeWidth
	}
	if c.StrokeColor == "" {
		c.StrokeColor = render.DefaultStrokeColor
	}
	if !(c.StrokeWidth > 0) || math.IsInf(c.StrokeWidth, 0) {
		return c, render.Style{}, fmt.Errorf("%w: %v", ErrStrokeWidth, c.StrokeWidth)
	}
	if !(c.SimplifyTolerance >= 0) || math.IsInf(c.SimplifyTolerance, 0) {
		return c, render.Style{}, fmt.Errorf("%w: %v", ErrTolerance, c.SimplifyTolerance)
	}
	style, err := render.NewStyle(c.StrokeWidth, c.StrokeColor)
	if err != nil {
		return c, render.Style{}, fmt.Errorf("overlay: %w", err)
	}
	if c.Deliver == nil {
		c.Deliver = export.WriteFile
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c, style, nil
}

// Payload is the result of Save.
type Payload struct {
	Geometry *geojson.FeatureCollection
	Markup   string
	// Raster is the PNG snapshot. It is nil when no OnSave is registered or
	// encoding failed.
	Raster []byte
}

// GeometryJSON encodes the geometry document.
func (p Payload) GeometryJSON() ([]byte, error) {
	if p.Geometry == nil {
		return geojson.NewFeatureCollection().MarshalJSON()
	}
	return p.Geometry.MarshalJSON()
}
