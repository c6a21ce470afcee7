// Package export turns stored paths into files: a GeoJSON geometry document
// in logical coordinates, SVG markup and PNG/PDF images in host pixels.
package export

import (
	"fmt"

	"InkOverlay/internal/bridge"
	"InkOverlay/internal/state"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Default filenames used by the export operations.
const (
	GeometryFilename = "drawing.geojson"
	RasterFilename   = "drawing.png"
	MarkupFilename   = "drawing.svg"
	PDFFilename      = "drawing.pdf"
)

// GeometryDocument builds a FeatureCollection with one LineString per path.
// Coordinates go through b; paths with fewer than two points are skipped.
func GeometryDocument(paths []state.Path, b bridge.Bridge) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range paths {
		if len(p.Points) < 2 {
			continue
		}
		line := make(orb.LineString, 0, len(p.Points))
		for _, pt := range p.Points {
			line = append(line, b.Logical(pt))
		}
		f := geojson.NewFeature(line)
		if p.ID != "" {
			f.ID = p.ID
		}
		fc.Append(f)
	}
	return fc
}

// MarshalGeometry encodes the geometry document for paths.
func MarshalGeometry(paths []state.Path, b bridge.Bridge) ([]byte, error) {
	data, err := GeometryDocument(paths, b).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode geometry document: %w", err)
	}
	return data, nil
}

// ParseGeometryDocument decodes a FeatureCollection back into pixel paths.
// LineString and MultiLineString geometries are restored; anything else, and
// any line left with fewer than two points, is skipped.
func ParseGeometryDocument(data []byte, b bridge.Bridge) ([]state.Path, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geometry document: %w", err)
	}
	return PathsFromCollection(fc, b), nil
}

// PathsFromCollection converts the line features of fc to pixel paths.
func PathsFromCollection(fc *geojson.FeatureCollection, b bridge.Bridge) []state.Path {
	if fc == nil {
		return nil
	}
	paths := make([]state.Path, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		id, _ := f.ID.(string)

		switch g := f.Geometry.(type) {
		case orb.LineString:
			if p, ok := lineToPath(g, b); ok {
				if id != "" {
					p.ID = id
				}
				paths = append(paths, p)
			}
		case orb.MultiLineString:
			for i, line := range g {
				p, ok := lineToPath(line, b)
				if !ok {
					continue
				}
				if id != "" && i == 0 {
					p.ID = id
				}
				paths = append(paths, p)
			}
		}
	}
	return paths
}

func lineToPath(line orb.LineString, b bridge.Bridge) (state.Path, bool) {
	points := make([]state.Point, 0, len(line))
	for _, l := range line {
		pt := b.Pixel(l)
		if !pt.Finite() {
			continue
		}
		points = append(points, pt)
	}
	if len(points) < 2 {
		return state.Path{}, false
	}
	return state.Path{ID: state.NewPathID(), Points: points}, true
}
