package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"
)

const (
	DefaultStrokeWidth = 3.0
	DefaultStrokeColor = "#1a73e8"
)

// Style is the single stroke style shared by every path.
type Style struct {
	Width float64
	// Color is the configured colour string, kept verbatim for markup output.
	Color string
	rgba  color.NRGBA
}

// NewStyle parses color and returns the style.
func NewStyle(width float64, colorStr string) (Style, error) {
	c, err := ParseColor(colorStr)
	if err != nil {
		return Style{}, err
	}
	return Style{Width: width, Color: colorStr, rgba: c}, nil
}

// DefaultStyle returns the 3px blue stroke.
func DefaultStyle() Style {
	s, _ := NewStyle(DefaultStrokeWidth, DefaultStrokeColor)
	return s
}

// RGBA returns the parsed stroke colour.
func (s Style) RGBA() color.NRGBA {
	return s.rgba
}

// ParseColor accepts "#rgb", "#rgba", "#rrggbb", "#rrggbbaa" (the leading
// '#' is optional) and CSS colour names such as "steelblue".
func ParseColor(s string) (color.NRGBA, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return color.NRGBA{}, fmt.Errorf("render: empty colour")
	}
	if c, ok := colornames.Map[name]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	if name == "transparent" {
		return color.NRGBA{}, nil
	}

	if !isHex(strings.TrimPrefix(name, "#")) {
		return color.NRGBA{}, fmt.Errorf("render: unknown colour %q", s)
	}
	c := gg.Hex(name)
	return color.NRGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: to8(c.A)}, nil
}

func isHex(digits string) bool {
	switch len(digits) {
	case 3, 4, 6, 8:
	default:
		return false
	}
	for _, r := range digits {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
