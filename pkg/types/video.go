package types

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidRate         = errors.New("playback rate must be positive")
	ErrInvertedRange       = errors.New("time range end precedes start")
	ErrInvalidDuration     = errors.New("duration must be positive")
	ErrUnsupportedRotation = errors.New("unsupported rotation")
	ErrInvalidFrame        = errors.New("invalid decorative frame")
	ErrMissingSource       = errors.New("video source is required")
)

// Frame is a decorative border: the video is scaled to Scale of the output
// and centered on a Color background.
type Frame struct {
	Color Color   `json:"color" yaml:"color"`
	Scale float64 `json:"scale" yaml:"scale"`
}

// ColorAdjust values are offsets: zero means no change for every field.
type ColorAdjust struct {
	Brightness float64 `json:"brightness" yaml:"brightness"`
	Contrast   float64 `json:"contrast" yaml:"contrast"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
}

func (c ColorAdjust) IsNeutral() bool {
	return c.Brightness == 0 && c.Contrast == 0 && c.Saturation == 0
}

// Video is one editable project's media and its overlays. Times are seconds.
// TrimEnd of zero means "until the end of the source".
type Video struct {
	Source           string        `json:"source" yaml:"source"`
	NaturalSize      Size          `json:"natural_size" yaml:"natural_size"`
	Rotation         int           `json:"rotation" yaml:"rotation"`
	OriginalDuration float64       `json:"original_duration" yaml:"original_duration"`
	TrimStart        float64       `json:"trim_start" yaml:"trim_start"`
	TrimEnd          float64       `json:"trim_end" yaml:"trim_end"`
	Rate             float64       `json:"rate" yaml:"rate"`
	Mirror           bool          `json:"mirror" yaml:"mirror"`
	Frame            *Frame        `json:"frame,omitempty" yaml:"frame,omitempty"`
	ColorAdjust      ColorAdjust   `json:"color_adjust" yaml:"color_adjust"`
	Filter           string        `json:"filter,omitempty" yaml:"filter,omitempty"`
	SecondaryAudio   string        `json:"secondary_audio,omitempty" yaml:"secondary_audio,omitempty"`
	EditorSize       Size          `json:"editor_size" yaml:"editor_size"`
	Overlays         []TextOverlay `json:"overlays" yaml:"overlays"`
}

// EffectiveTrimEnd resolves an unset trim end to the original duration.
func (v *Video) EffectiveTrimEnd() float64 {
	if v.TrimEnd == 0 {
		return v.OriginalDuration
	}
	return v.TrimEnd
}

// Snapshot returns a deep copy that export can own for its whole duration.
func (v *Video) Snapshot() *Video {
	out := *v
	if v.Frame != nil {
		f := *v.Frame
		out.Frame = &f
	}
	if v.Overlays != nil {
		out.Overlays = make([]TextOverlay, len(v.Overlays))
		for i, o := range v.Overlays {
			out.Overlays[i] = o.Clone()
		}
	}
	return &out
}

// Validate rejects configuration errors before any encode work begins.
func (v *Video) Validate() error {
	if v.Source == "" {
		return ErrMissingSource
	}
	if v.Rate <= 0 {
		return errors.Wrapf(ErrInvalidRate, "rate %g", v.Rate)
	}
	if v.OriginalDuration <= 0 {
		return errors.Wrapf(ErrInvalidDuration, "original duration %g", v.OriginalDuration)
	}
	if v.TrimStart < 0 || v.TrimEnd < 0 {
		return errors.Wrapf(ErrInvertedRange, "negative trim [%g, %g]", v.TrimStart, v.TrimEnd)
	}
	if v.EffectiveTrimEnd() < v.TrimStart {
		return errors.Wrapf(ErrInvertedRange, "trim [%g, %g]", v.TrimStart, v.EffectiveTrimEnd())
	}

	switch v.Rotation {
	case 0, 90, 180, 270:
	default:
		return errors.Wrapf(ErrUnsupportedRotation, "%d degrees", v.Rotation)
	}

	if v.Frame != nil {
		if v.Frame.Scale <= 0 || v.Frame.Scale > 1 {
			return errors.Wrapf(ErrInvalidFrame, "scale %g", v.Frame.Scale)
		}
		if _, err := v.Frame.Color.Parse(); err != nil {
			return errors.Wrap(err, "frame color")
		}
	}

	for i := range v.Overlays {
		if err := v.Overlays[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
