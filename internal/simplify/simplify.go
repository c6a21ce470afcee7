// Package simplify reduces the vertex count of captured strokes.
//
// Reduction runs in two stages: a radial-distance pass that drops points
// crowding the last kept point, then Douglas-Peucker over what is left. All
// comparisons use squared distances against the squared tolerance.
package simplify

import (
	"InkOverlay/internal/state"

	"gonum.org/v1/gonum/spatial/r2"
)

// Path simplifies points with the given tolerance in pixels. A tolerance of
// zero (or less, or NaN) returns an unchanged copy. Both endpoints are always
// kept, so the result has at least two points whenever the input does.
func Path(points []state.Point, tolerance float64) []state.Point {
	out := make([]state.Point, len(points))
	copy(out, points)
	if len(points) <= 2 || !(tolerance > 0) {
		return out
	}

	sqTol := tolerance * tolerance
	return DouglasPeucker(Radial(out, sqTol), sqTol)
}

// Radial keeps a point only when its squared distance from the last kept
// point exceeds sqTol. The last input point is always kept.
func Radial(points []state.Point, sqTol float64) []state.Point {
	if len(points) <= 2 {
		return points
	}

	kept := make([]state.Point, 0, len(points))
	kept = append(kept, points[0])
	prev := 0
	for i := 1; i < len(points); i++ {
		if points[i].SqDist(points[prev]) > sqTol {
			kept = append(kept, points[i])
			prev = i
		}
	}
	if prev != len(points)-1 {
		kept = append(kept, points[len(points)-1])
	}
	return kept
}

// DouglasPeucker keeps the endpoints and, recursively, every point whose
// squared distance from the current chord exceeds sqTol.
func DouglasPeucker(points []state.Point, sqTol float64) []state.Point {
	if len(points) <= 2 {
		return points
	}

	keep := make([]bool, len(points))
	keep[0] = true
	keep[len(points)-1] = true
	dpStep(points, 0, len(points)-1, sqTol, keep)

	out := make([]state.Point, 0, len(points))
	for i, p := range points {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

func dpStep(points []state.Point, first, last int, sqTol float64, keep []bool) {
	maxSqDist := sqTol
	index := -1
	for i := first + 1; i < last; i++ {
		d := SqSegDist(points[i], points[first], points[last])
		if d > maxSqDist {
			index = i
			maxSqDist = d
		}
	}
	if index < 0 {
		return
	}

	keep[index] = true
	if index-first > 1 {
		dpStep(points, first, index, sqTol, keep)
	}
	if last-index > 1 {
		dpStep(points, index, last, sqTol, keep)
	}
}

// SqSegDist returns the squared distance from p to the segment a-b.
func SqSegDist(p, a, b state.Point) float64 {
	pv, av, bv := vec(p), vec(a), vec(b)
	closest := av
	d := r2.Sub(bv, av)
	if l2 := r2.Norm2(d); l2 != 0 {
		t := r2.Dot(r2.Sub(pv, av), d) / l2
		switch {
		case t > 1:
			closest = bv
		case t > 0:
			closest = r2.Add(av, r2.Scale(t, d))
		}
	}
	return r2.Norm2(r2.Sub(pv, closest))
}

func vec(p state.Point) r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}
