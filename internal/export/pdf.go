package export

import (
	"fmt"
	"io"
	"math"

	"InkOverlay/internal/render"
	"InkOverlay/internal/state"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF writes a single page PDF the size of the surface (one host pixel
// per point) with every path stroked in style.
func WritePDF(w io.Writer, paths []state.Path, width, height float64, style render.Style) error {
	width, height = math.Max(width, 1), math.Max(height, 1)

	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	p.SetCreator("InkOverlay", false)
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()

	c := style.RGBA()
	p.SetDrawColor(int(c.R), int(c.G), int(c.B))
	if c.A < 0xff {
		p.SetAlpha(float64(c.A)/0xff, "Normal")
	}
	p.SetLineWidth(style.Width)
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")

	for _, st := range paths {
		if len(st.Points) < 2 {
			continue
		}
		p.MoveTo(st.Points[0].X, st.Points[0].Y)
		for _, pt := range st.Points[1:] {
			p.LineTo(pt.X, pt.Y)
		}
		p.DrawPath("D")
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
