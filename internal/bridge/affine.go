package bridge

import (
	"errors"
	"math"

	"InkOverlay/internal/state"

	"github.com/paulmach/orb"
)

// ErrSingular is returned when an affine transform has no inverse.
var ErrSingular = errors.New("bridge: affine transform is not invertible")

// Affine is a 2x3 affine matrix taking pixels to logical coordinates.
// [a b tx]
// [c d ty]
type Affine struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{A: 1, D: 1}
}

// Translation returns a translation transform.
func Translation(tx, ty float64) Affine {
	return Affine{A: 1, D: 1, TX: tx, TY: ty}
}

// Scaling returns a scaling transform.
func Scaling(sx, sy float64) Affine {
	return Affine{A: sx, D: sy}
}

// Apply applies the transform to (x, y).
func (t Affine) Apply(x, y float64) (float64, float64) {
	return t.A*x + t.B*y + t.TX, t.C*x + t.D*y + t.TY
}

// Compose returns t * other, i.e. other is applied first.
func (t Affine) Compose(other Affine) Affine {
	return Affine{
		A:  t.A*other.A + t.B*other.C,
		B:  t.A*other.B + t.B*other.D,
		TX: t.A*other.TX + t.B*other.TY + t.TX,
		C:  t.C*other.A + t.D*other.C,
		D:  t.C*other.B + t.D*other.D,
		TY: t.C*other.TX + t.D*other.TY + t.TY,
	}
}

// Inverse returns the inverse transform.
func (t Affine) Inverse() (Affine, error) {
	det := t.A*t.D - t.B*t.C
	if math.Abs(det) < 1e-12 {
		return Affine{}, ErrSingular
	}

	inv := 1.0 / det
	return Affine{
		A:  t.D * inv,
		B:  -t.B * inv,
		TX: (t.B*t.TY - t.D*t.TX) * inv,
		C:  -t.C * inv,
		D:  t.A * inv,
		TY: (t.C*t.TX - t.A*t.TY) * inv,
	}, nil
}

// Bridge returns a bridge that applies t to go from pixels to logical
// coordinates and its inverse to come back.
func (t Affine) Bridge() (Bridge, error) {
	inv, err := t.Inverse()
	if err != nil {
		return Bridge{}, err
	}
	toLogical := func(p state.Point) orb.Point {
		x, y := t.Apply(p.X, p.Y)
		return orb.Point{x, y}
	}
	toPixel := func(l orb.Point) state.Point {
		x, y := inv.Apply(l[0], l[1])
		return state.Point{X: x, Y: y}
	}
	return New(toLogical, toPixel), nil
}
