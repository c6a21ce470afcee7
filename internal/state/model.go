package state

import "math"

// Point is a position in the host surface's local frame, in host pixels
// (not device pixels).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// SqDist returns the squared Euclidean distance to q.
func (p Point) SqDist(q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Path is one finalized stroke.
type Path struct {
	ID     string  `json:"id"`
	Points []Point `json:"points"`
}

// NewPath copies points into a Path with a fresh ID.
func NewPath(points []Point) Path {
	return Path{ID: NewPathID(), Points: clonePoints(points)}
}

// Clone returns a deep copy of the path.
func (p Path) Clone() Path {
	return Path{ID: p.ID, Points: clonePoints(p.Points)}
}

// Len returns the number of points.
func (p Path) Len() int {
	return len(p.Points)
}

func clonePoints(points []Point) []Point {
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	copy(out, points)
	return out
}

func clonePaths(paths []Path) []Path {
	out := make([]Path, 0, len(paths))
	for _, p := range paths {
		out = append(out, p.Clone())
	}
	return out
}
