package export

import (
	"html"
	"strconv"
	"strings"

	"InkOverlay/internal/render"
	"InkOverlay/internal/state"
)

// PathData returns the SVG path directive for paths: "M x y L x y ..." per
// path, joined by spaces. Each path starts with its own move-to.
func PathData(paths []state.Path) string {
	var b strings.Builder
	for _, p := range paths {
		if len(p.Points) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		for i, pt := range p.Points {
			if i == 0 {
				b.WriteString("M ")
			} else {
				b.WriteString(" L ")
			}
			b.WriteString(num(pt.X))
			b.WriteByte(' ')
			b.WriteString(num(pt.Y))
		}
	}
	return b.String()
}

// Markup returns an SVG document sized width x height host pixels holding a
// single path element drawn with style.
func Markup(paths []state.Path, width, height float64, style render.Style) string {
	w, h := num(width), num(height)

	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + w + `" height="` + h + `" viewBox="0 0 ` + w + ` ` + h + `">`)
	b.WriteString("\n  ")
	b.WriteString(`<path d="` + PathData(paths) + `" fill="none"`)
	b.WriteString(` stroke="` + html.EscapeString(style.Color) + `"`)
	b.WriteString(` stroke-width="` + num(style.Width) + `"`)
	b.WriteString(` stroke-linecap="round" stroke-linejoin="round"/>`)
	b.WriteString("\n</svg>")
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
