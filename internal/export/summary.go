package export

import (
	"bufio"
	"fmt"
	"io"

	"InkOverlay/internal/state"
)

// WriteSummary writes a plain text report of paths: totals, overall bounds,
// and per stroke point count with start and end.
func WriteSummary(w io.Writer, paths []state.Path) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "InkOverlay Export\n")
	fmt.Fprintf(bw, "=================\n\n")

	points := 0
	for _, p := range paths {
		points += len(p.Points)
	}
	fmt.Fprintf(bw, "Total strokes: %d\n", len(paths))
	fmt.Fprintf(bw, "Total points: %d\n", points)
	if r, ok := state.Bounds(paths); ok {
		fmt.Fprintf(bw, "Bounds: (%.2f, %.2f) %.2f x %.2f\n", r.X, r.Y, r.Width, r.Height)
	}
	fmt.Fprintf(bw, "\n")

	for i, stroke := range paths {
		fmt.Fprintf(bw, "Stroke %d:\n", i+1)
		if stroke.ID != "" {
			fmt.Fprintf(bw, "  ID: %s\n", stroke.ID)
		}
		fmt.Fprintf(bw, "  Points: %d\n", len(stroke.Points))
		if len(stroke.Points) > 0 {
			first := stroke.Points[0]
			fmt.Fprintf(bw, "  Start: (%.2f, %.2f)\n", first.X, first.Y)
			if len(stroke.Points) > 1 {
				last := stroke.Points[len(stroke.Points)-1]
				fmt.Fprintf(bw, "  End: (%.2f, %.2f)\n", last.X, last.Y)
			}
		}
		fmt.Fprintf(bw, "\n")
	}

	return bw.Flush()
}
