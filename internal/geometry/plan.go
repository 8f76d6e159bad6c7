package geometry

import (
	"math"

	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
)

var ErrEmptySize = errors.New("size must be positive")

// RenderPlan describes how one source frame lands in the output frame.
type RenderPlan struct {
	RenderSize  types.Size
	Orientation Orientation
	// DisplaySize is the natural size after rotation.
	DisplaySize types.Size
	Scale       float64
	// ScaledSize is DisplaySize times Scale; it covers RenderSize.
	ScaledSize types.Size
	// Offset is the top-left corner of the scaled frame in output space.
	// Aspect-fill makes both components zero or negative.
	Offset    types.Point
	Mirror    bool
	Transform Transform
}

// FillScale returns the aspect-fill scale factor for the natural frame.
func FillScale(natural, render types.Size, o Orientation) float64 {
	if o.IsPortrait() {
		return math.Max(render.Width/natural.Height, render.Height/natural.Width)
	}
	return math.Max(render.Width/natural.Width, render.Height/natural.Height)
}

// Plan builds the source-to-output mapping: the rotation-normalized preferred
// transform, then the aspect-fill scale, then the centering translation and
// finally an optional horizontal flip about the output's vertical center.
func Plan(natural types.Size, preferred Transform, render types.Size, mirror bool) (RenderPlan, error) {
	if natural.Width <= 0 || natural.Height <= 0 {
		return RenderPlan{}, errors.Wrapf(ErrEmptySize, "natural size %gx%g", natural.Width, natural.Height)
	}
	if render.Width <= 0 || render.Height <= 0 {
		return RenderPlan{}, errors.Wrapf(ErrEmptySize, "render size %gx%g", render.Width, render.Height)
	}

	o, err := Classify(preferred)
	if err != nil {
		return RenderPlan{}, err
	}

	display := DisplaySize(natural, o)
	scale := FillScale(natural, render, o)
	scaled := types.Size{Width: display.Width * scale, Height: display.Height * scale}
	offset := types.Point{
		X: (render.Width - scaled.Width) / 2,
		Y: (render.Height - scaled.Height) / 2,
	}

	t := RotationTransform(o, natural).
		Concat(Scale(scale, scale)).
		Concat(Translate(offset.X, offset.Y))
	if mirror {
		t = t.Concat(Transform{A: -1, D: 1, Tx: render.Width})
	}

	return RenderPlan{
		RenderSize:  render,
		Orientation: o,
		DisplaySize: display,
		Scale:       scale,
		ScaledSize:  scaled,
		Offset:      offset,
		Mirror:      mirror,
		Transform:   t,
	}, nil
}

// PlanForRotation is Plan for a clockwise rotation in degrees.
func PlanForRotation(natural types.Size, degrees int, render types.Size, mirror bool) (RenderPlan, error) {
	o, err := OrientationFromRotation(degrees)
	if err != nil {
		return RenderPlan{}, err
	}
	return Plan(natural, RotationTransform(o, natural), render, mirror)
}

// Crop returns the integer crop rectangle that cuts RenderSize out of an
// even-rounded ScaledSize, centered.
func (p RenderPlan) Crop() (scaledW, scaledH, cropW, cropH, x, y int) {
	sw, sh := EvenCeil(p.ScaledSize.Width), EvenCeil(p.ScaledSize.Height)
	cw, ch := EvenFloor(p.RenderSize.Width), EvenFloor(p.RenderSize.Height)
	cw, ch = min(cw, sw), min(ch, sh)
	return sw, sh, cw, ch, (sw - cw) / 2, (sh - ch) / 2
}

// OverlayRatio is the editor-to-output scale used for overlay placement.
func OverlayRatio(editor, render types.Size) float64 {
	if editor.Width <= 0 || editor.Height <= 0 {
		return 1
	}
	return math.Max(render.Width/editor.Width, render.Height/editor.Height)
}

// OverlayPosition maps an editor-center-relative offset to an absolute
// output position. A zero offset is the exact output center.
func OverlayPosition(offset types.Point, editor, render types.Size) types.Point {
	center := types.Point{X: render.Width / 2, Y: render.Height / 2}
	if offset.IsZero() {
		return center
	}
	ratio := OverlayRatio(editor, render)
	return types.Point{
		X: center.X + offset.X*ratio,
		Y: center.Y + offset.Y*ratio,
	}
}

// EvenFloor rounds down to an even integer, minimum 2.
func EvenFloor(v float64) int {
	n := int(math.Floor(v))
	n -= n % 2
	return max(n, 2)
}

// EvenCeil rounds up to an even integer, minimum 2.
func EvenCeil(v float64) int {
	n := int(math.Ceil(v - 1e-9))
	n += n % 2
	return max(n, 2)
}

// EvenSize rounds both dimensions down to even integers.
func EvenSize(s types.Size) (int, int) {
	return EvenFloor(s.Width), EvenFloor(s.Height)
}
