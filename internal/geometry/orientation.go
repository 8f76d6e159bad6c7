package geometry

import (
	"fmt"

	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
)

var ErrUnsupportedOrientation = errors.New("unsupported orientation")

// Orientation is one of the four canonical source orientations.
type Orientation int

const (
	Up    Orientation = iota // identity
	Right                    // rotated +90
	Left                     // rotated -90
	Down                     // rotated 180
)

func (o Orientation) String() string {
	switch o {
	case Up:
		return "up"
	case Right:
		return "right"
	case Left:
		return "left"
	case Down:
		return "down"
	default:
		return fmt.Sprintf("orientation(%d)", int(o))
	}
}

// IsPortrait reports whether the orientation turns the frame sideways.
func (o Orientation) IsPortrait() bool {
	return o == Right || o == Left
}

// Degrees is the clockwise display rotation.
func (o Orientation) Degrees() int {
	switch o {
	case Right:
		return 90
	case Down:
		return 180
	case Left:
		return 270
	default:
		return 0
	}
}

// Classify matches the rotation sub-matrix of t against the four canonical
// matrices. Any other matrix, including mirrored ones, is rejected.
func Classify(t Transform) (Orientation, error) {
	switch {
	case t.A == 1 && t.B == 0 && t.C == 0 && t.D == 1:
		return Up, nil
	case t.A == 0 && t.B == 1 && t.C == -1 && t.D == 0:
		return Right, nil
	case t.A == 0 && t.B == -1 && t.C == 1 && t.D == 0:
		return Left, nil
	case t.A == -1 && t.B == 0 && t.C == 0 && t.D == -1:
		return Down, nil
	}
	return Up, errors.Wrapf(ErrUnsupportedOrientation, "matrix [%g %g %g %g]", t.A, t.B, t.C, t.D)
}

// OrientationFromRotation maps a clockwise display rotation in degrees.
func OrientationFromRotation(degrees int) (Orientation, error) {
	switch ((degrees % 360) + 360) % 360 {
	case 0:
		return Up, nil
	case 90:
		return Right, nil
	case 180:
		return Down, nil
	case 270:
		return Left, nil
	}
	return Up, errors.Wrapf(ErrUnsupportedOrientation, "%d degrees", degrees)
}

// RotationTransform returns the preferred transform for the orientation,
// translated so the rotated natural frame starts at the origin.
func RotationTransform(o Orientation, natural types.Size) Transform {
	switch o {
	case Right:
		return Transform{A: 0, B: 1, C: -1, D: 0, Tx: natural.Height}
	case Left:
		return Transform{A: 0, B: -1, C: 1, D: 0, Ty: natural.Width}
	case Down:
		return Transform{A: -1, B: 0, C: 0, D: -1, Tx: natural.Width, Ty: natural.Height}
	default:
		return Identity
	}
}

// DisplaySize is the natural size after the orientation is applied.
func DisplaySize(natural types.Size, o Orientation) types.Size {
	if o.IsPortrait() {
		return types.Size{Width: natural.Height, Height: natural.Width}
	}
	return natural
}

// SizeFromOrientation resolves the output render size: the baseline's
// width and height are swapped when the source orientation and the
// baseline disagree about being portrait.
func SizeFromOrientation(baseline types.Size, o Orientation) types.Size {
	if o.IsPortrait() != baseline.IsPortrait() {
		return types.Size{Width: baseline.Height, Height: baseline.Width}
	}
	return baseline
}
