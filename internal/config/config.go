// Package config loads the application settings from a TOML file layered
// over defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"InkOverlay/internal/bridge"
	"InkOverlay/internal/export"
	"InkOverlay/internal/overlay"
	"InkOverlay/internal/render"

	"github.com/pelletier/go-toml/v2"
)

type Stroke struct {
	Width float64 `toml:"width"`
	Color string  `toml:"color"`
}

// Viewport is the Web Mercator view the drawing surface shows.
type Viewport struct {
	Center   [2]float64 `toml:"center"` // lng, lat
	Zoom     float64    `toml:"zoom"`
	TileSize float64    `toml:"tile_size"`
}

type Storage struct {
	// Path holds the saved geometry document restored at start.
	Path string `toml:"path"`
	// ExportDir receives the files written by the export buttons.
	ExportDir string `toml:"export_dir"`
}

type Feed struct {
	Listen    string `toml:"listen"`
	Advertise bool   `toml:"advertise"`
}

type Window struct {
	Title  string  `toml:"title"`
	Width  float32 `toml:"width"`
	Height float32 `toml:"height"`
}

type Config struct {
	ShowControls      bool     `toml:"show_controls"`
	SimplifyTolerance float64  `toml:"simplify_tolerance"`
	Stroke            Stroke   `toml:"stroke"`
	Viewport          Viewport `toml:"viewport"`
	Storage           Storage  `toml:"storage"`
	Feed              Feed     `toml:"feed"`
	Window            Window   `toml:"window"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		ShowControls:      true,
		SimplifyTolerance: 0.5,
		Stroke: Stroke{
			Width: render.DefaultStrokeWidth,
			Color: render.DefaultStrokeColor,
		},
		Viewport: Viewport{
			Center:   [2]float64{29.0, 41.0},
			Zoom:     10,
			TileSize: bridge.DefaultTileSize,
		},
		Storage: Storage{
			Path:      "drawings.geojson",
			ExportDir: ".",
		},
		Feed: Feed{
			Listen: ":8787",
		},
		Window: Window{
			Title:  "InkOverlay",
			Width:  1024,
			Height: 768,
		},
	}
}

// Load reads path over the defaults. Unknown keys are an error. A missing
// file yields the defaults and an error matching os.ErrNotExist.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// LoadOrDefault is Load, except a missing file is not an error.
func LoadOrDefault(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Decode applies the TOML document in data to cfg.
func Decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("decode config: %s", strict.String())
		}
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// Encode renders cfg as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Validate checks values the overlay and the viewport would reject.
func (c Config) Validate() error {
	if c.Stroke.Width <= 0 {
		return fmt.Errorf("stroke.width must be positive, got %v", c.Stroke.Width)
	}
	if _, err := render.ParseColor(c.Stroke.Color); err != nil {
		return fmt.Errorf("stroke.color: %w", err)
	}
	if c.SimplifyTolerance < 0 {
		return fmt.Errorf("simplify_tolerance must not be negative, got %v", c.SimplifyTolerance)
	}
	if lat := c.Viewport.Center[1]; lat < -85.06 || lat > 85.06 {
		return fmt.Errorf("viewport.center latitude %v outside the Mercator range", lat)
	}
	if c.Viewport.Zoom < 0 || c.Viewport.Zoom > 24 {
		return fmt.Errorf("viewport.zoom must be within [0, 24], got %v", c.Viewport.Zoom)
	}
	return nil
}

// Overlay converts the settings into an overlay configuration. Exports are
// written below Storage.ExportDir.
func (c Config) Overlay() overlay.Config {
	cfg := overlay.DefaultConfig()
	cfg.ShowControls = c.ShowControls
	cfg.StrokeWidth = c.Stroke.Width
	cfg.StrokeColor = c.Stroke.Color
	cfg.SimplifyTolerance = c.SimplifyTolerance

	dir := c.Storage.ExportDir
	cfg.Deliver = func(filename string, data []byte) error {
		if dir != "" && !filepath.IsAbs(filename) {
			filename = filepath.Join(dir, filename)
		}
		return export.WriteFile(filename, data)
	}
	return cfg
}

// Mercator returns the viewport for a surface of the given size.
func (c Config) Mercator(width, height float64) bridge.Mercator {
	return bridge.Mercator{
		Center:   c.Viewport.Center,
		Zoom:     c.Viewport.Zoom,
		Width:    width,
		Height:   height,
		TileSize: c.Viewport.TileSize,
	}
}
