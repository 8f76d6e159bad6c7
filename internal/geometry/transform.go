// Package geometry computes the orientation-aware transforms that map a
// source video's natural frame into the output render frame.
package geometry

import (
	"github.com/ZacxDev/video-captioner/pkg/types"
)

// Transform is a 2D affine matrix in the row-vector convention used by
// capture devices:
//
//	x' = A*x + C*y + Tx
//	y' = B*x + D*y + Ty
type Transform struct {
	A, B, C, D float64
	Tx, Ty     float64
}

var Identity = Transform{A: 1, D: 1}

func Translate(tx, ty float64) Transform {
	return Transform{A: 1, D: 1, Tx: tx, Ty: ty}
}

func Scale(sx, sy float64) Transform {
	return Transform{A: sx, D: sy}
}

// Concat returns the transform that applies t first and then u.
func (t Transform) Concat(u Transform) Transform {
	return Transform{
		A:  t.A*u.A + t.B*u.C,
		B:  t.A*u.B + t.B*u.D,
		C:  t.C*u.A + t.D*u.C,
		D:  t.C*u.B + t.D*u.D,
		Tx: t.Tx*u.A + t.Ty*u.C + u.Tx,
		Ty: t.Tx*u.B + t.Ty*u.D + u.Ty,
	}
}

func (t Transform) Apply(p types.Point) types.Point {
	return types.Point{
		X: t.A*p.X + t.C*p.Y + t.Tx,
		Y: t.B*p.X + t.D*p.Y + t.Ty,
	}
}

func (t Transform) Determinant() float64 {
	return t.A*t.D - t.B*t.C
}

// Invert returns the inverse transform. ok is false for singular matrices.
func (t Transform) Invert() (Transform, bool) {
	det := t.Determinant()
	if det == 0 {
		return Transform{}, false
	}
	inv := Transform{
		A: t.D / det,
		B: -t.B / det,
		C: -t.C / det,
		D: t.A / det,
	}
	inv.Tx = -(t.Tx*inv.A + t.Ty*inv.C)
	inv.Ty = -(t.Tx*inv.B + t.Ty*inv.D)
	return inv, true
}

// Bounds returns the axis-aligned rectangle covered by a w x h frame
// after the transform.
func (t Transform) Bounds(size types.Size) Rect {
	corners := []types.Point{
		{X: 0, Y: 0},
		{X: size.Width, Y: 0},
		{X: 0, Y: size.Height},
		{X: size.Width, Y: size.Height},
	}
	r := Rect{Min: t.Apply(corners[0]), Max: t.Apply(corners[0])}
	for _, c := range corners[1:] {
		p := t.Apply(c)
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	return r
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	Min, Max types.Point
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

func (r Rect) Center() types.Point {
	return types.Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}
