package geometry

import (
	"testing"

	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	natural := types.Size{Width: 1920, Height: 1080}
	for _, o := range []Orientation{Up, Right, Left, Down} {
		got, err := Classify(RotationTransform(o, natural))
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}

	_, err := Classify(Transform{A: 0.7071, B: 0.7071, C: -0.7071, D: 0.7071})
	assert.True(t, errors.Is(err, ErrUnsupportedOrientation))

	_, err = Classify(Transform{A: -1, D: 1})
	assert.True(t, errors.Is(err, ErrUnsupportedOrientation), "mirrored matrices are not canonical")
}

func TestOrientationFromRotation(t *testing.T) {
	tests := map[int]Orientation{0: Up, 90: Right, 180: Down, 270: Left, -90: Left, 450: Right}
	for deg, want := range tests {
		got, err := OrientationFromRotation(deg)
		require.NoError(t, err)
		assert.Equal(t, want, got, "%d degrees", deg)
	}

	_, err := OrientationFromRotation(45)
	assert.True(t, errors.Is(err, ErrUnsupportedOrientation))
}

func TestSizeFromOrientation(t *testing.T) {
	baseline := types.Size{Width: 1280, Height: 720}

	assert.Equal(t, baseline, SizeFromOrientation(baseline, Up))
	assert.Equal(t, baseline, SizeFromOrientation(baseline, Down))
	assert.Equal(t, types.Size{Width: 720, Height: 1280}, SizeFromOrientation(baseline, Right))
	assert.Equal(t, types.Size{Width: 720, Height: 1280}, SizeFromOrientation(baseline, Left))

	portraitBaseline := types.Size{Width: 720, Height: 1280}
	assert.Equal(t, baseline, SizeFromOrientation(portraitBaseline, Up))
	assert.Equal(t, portraitBaseline, SizeFromOrientation(portraitBaseline, Right))
}

func TestTransform_ConcatAndInvert(t *testing.T) {
	tr := RotationTransform(Right, types.Size{Width: 40, Height: 20}).
		Concat(Scale(2, 2)).
		Concat(Translate(5, -3))

	p := types.Point{X: 7, Y: 11}
	q := tr.Apply(p)
	// rotate: (-11+20, 7) = (9, 7); scale: (18, 14); translate: (23, 11)
	assert.Equal(t, types.Point{X: 23, Y: 11}, q)

	inv, ok := tr.Invert()
	require.True(t, ok)
	back := inv.Apply(q)
	assert.InDelta(t, p.X, back.X, 1e-9)
	assert.InDelta(t, p.Y, back.Y, 1e-9)

	_, ok = Transform{}.Invert()
	assert.False(t, ok)
}

func TestPlan_LandscapePassthrough(t *testing.T) {
	plan, err := Plan(types.Size{Width: 1920, Height: 1080}, Identity, types.Size{Width: 1280, Height: 720}, false)
	require.NoError(t, err)

	assert.Equal(t, Up, plan.Orientation)
	assert.InDelta(t, 1280.0/1920.0, plan.Scale, 1e-12)
	assert.InDelta(t, 1280, plan.ScaledSize.Width, 1e-9)
	assert.InDelta(t, 720, plan.ScaledSize.Height, 1e-9)
	assert.InDelta(t, 0, plan.Offset.X, 1e-9)
	assert.InDelta(t, 0, plan.Offset.Y, 1e-9)

	sw, sh, cw, ch, x, y := plan.Crop()
	assert.Equal(t, []int{1280, 720, 1280, 720, 0, 0}, []int{sw, sh, cw, ch, x, y})
}

func TestPlan_PortraitSourceSwapsRenderSize(t *testing.T) {
	natural := types.Size{Width: 1080, Height: 1920}
	o, err := OrientationFromRotation(90)
	require.NoError(t, err)

	render := SizeFromOrientation(types.Size{Width: 1280, Height: 720}, o)
	assert.Equal(t, types.Size{Width: 720, Height: 1280}, render)

	plan, err := Plan(natural, RotationTransform(o, natural), render, false)
	require.NoError(t, err)
	assert.Equal(t, Right, plan.Orientation)
	assert.InDelta(t, 1280.0/1080.0, plan.Scale, 1e-12)

	// aspect ratio of the displayed frame is kept exactly
	assert.InDelta(t, plan.DisplaySize.Width/plan.DisplaySize.Height,
		plan.ScaledSize.Width/plan.ScaledSize.Height, 1e-12)
}

func TestPlan_AspectFillCentersContent(t *testing.T) {
	natural := types.Size{Width: 1920, Height: 1080}
	render := types.Size{Width: 1080, Height: 1080}

	for _, o := range []Orientation{Up, Right, Left, Down} {
		plan, err := Plan(natural, RotationTransform(o, natural), render, false)
		require.NoError(t, err)

		bounds := plan.Transform.Bounds(natural)
		center := bounds.Center()
		assert.InDelta(t, 540, center.X, 1e-6, o.String())
		assert.InDelta(t, 540, center.Y, 1e-6, o.String())
		assert.GreaterOrEqual(t, bounds.Width()+1e-9, render.Width, o.String())
		assert.GreaterOrEqual(t, bounds.Height()+1e-9, render.Height, o.String())
	}
}

func TestPlan_Mirror(t *testing.T) {
	natural := types.Size{Width: 1920, Height: 1080}
	render := types.Size{Width: 1280, Height: 720}

	plain, err := Plan(natural, Identity, render, false)
	require.NoError(t, err)
	mirrored, err := Plan(natural, Identity, render, true)
	require.NoError(t, err)

	p := types.Point{X: 100, Y: 200}
	a, b := plain.Transform.Apply(p), mirrored.Transform.Apply(p)
	assert.InDelta(t, render.Width-a.X, b.X, 1e-9)
	assert.InDelta(t, a.Y, b.Y, 1e-9)
}

func TestPlan_RejectsBadInput(t *testing.T) {
	_, err := Plan(types.Size{}, Identity, types.Size{Width: 10, Height: 10}, false)
	assert.True(t, errors.Is(err, ErrEmptySize))

	_, err = Plan(types.Size{Width: 10, Height: 10}, Transform{A: 2, D: 2}, types.Size{Width: 10, Height: 10}, false)
	assert.True(t, errors.Is(err, ErrUnsupportedOrientation))
}

func TestOverlayPosition(t *testing.T) {
	editor := types.Size{Width: 390, Height: 219.375}
	render := types.Size{Width: 1280, Height: 720}

	assert.Equal(t, types.Point{X: 640, Y: 360}, OverlayPosition(types.Point{}, editor, render))

	ratio := OverlayRatio(editor, render)
	got := OverlayPosition(types.Point{X: 10, Y: -20}, editor, render)
	assert.InDelta(t, 640+10*ratio, got.X, 1e-9)
	assert.InDelta(t, 360-20*ratio, got.Y, 1e-9)

	assert.Equal(t, 1.0, OverlayRatio(types.Size{}, render))
}

func TestEvenRounding(t *testing.T) {
	assert.Equal(t, 1280, EvenFloor(1281.7))
	assert.Equal(t, 2276, EvenCeil(2275.5))
	assert.Equal(t, 720, EvenCeil(720))
	assert.Equal(t, 2, EvenFloor(0.5))
}
