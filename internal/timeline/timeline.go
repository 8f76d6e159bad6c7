// Package timeline relates original source time, displayed (trimmed) time
// and final output (rate-scaled) time.
package timeline

import (
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

var (
	ErrInvalidRate     = types.ErrInvalidRate
	ErrInvertedRange   = types.ErrInvertedRange
	ErrInvalidDuration = types.ErrInvalidDuration
)

// TimeRange is a half-open interval in seconds.
type TimeRange struct {
	Start    float64
	Duration float64
}

// NewRange builds [start, end]. An inverted range fails instead of
// producing a negative duration.
func NewRange(start, end float64) (TimeRange, error) {
	if end < start {
		return TimeRange{}, errors.Wrapf(ErrInvertedRange, "[%g, %g]", start, end)
	}
	return TimeRange{Start: start, Duration: end - start}, nil
}

func (r TimeRange) End() float64 {
	return r.Start + r.Duration
}

func (r TimeRange) Contains(t float64) bool {
	return t >= r.Start && t < r.End()
}

// Scale compresses the range by rate: both start and duration are divided.
func (r TimeRange) Scale(rate float64) TimeRange {
	return TimeRange{Start: r.Start / rate, Duration: r.Duration / rate}
}

// Timeline is the trim and playback rate applied to one source.
type Timeline struct {
	OriginalDuration float64
	Trim             TimeRange
	Rate             float64
}

// New validates and builds a timeline. Trim bounds are clamped into
// [0, originalDuration] after the inverted-range check.
func New(originalDuration, trimStart, trimEnd, rate float64) (*Timeline, error) {
	if rate <= 0 {
		return nil, errors.Wrapf(ErrInvalidRate, "rate %g", rate)
	}
	if originalDuration <= 0 {
		return nil, errors.Wrapf(ErrInvalidDuration, "original duration %g", originalDuration)
	}
	if trimEnd < trimStart {
		return nil, errors.Wrapf(ErrInvertedRange, "trim [%g, %g]", trimStart, trimEnd)
	}

	start := Clamp(trimStart, 0, originalDuration)
	end := Clamp(trimEnd, start, originalDuration)
	trim, err := NewRange(start, end)
	if err != nil {
		return nil, err
	}

	return &Timeline{
		OriginalDuration: originalDuration,
		Trim:             trim,
		Rate:             rate,
	}, nil
}

// FromVideo builds the timeline of a video snapshot.
func FromVideo(v *types.Video) (*Timeline, error) {
	return New(v.OriginalDuration, v.TrimStart, v.EffectiveTrimEnd(), v.Rate)
}

// DisplayedDuration is the trimmed duration before rate scaling.
func (t *Timeline) DisplayedDuration() float64 {
	return t.Trim.Duration
}

// OutputDuration is the duration of the exported file.
func (t *Timeline) OutputDuration() float64 {
	return t.Trim.Duration / t.Rate
}

// ToOutput maps a displayed timestamp to output time.
func (t *Timeline) ToOutput(displayed float64) float64 {
	return displayed / t.Rate
}

// ToDisplayed maps an output timestamp back to displayed time.
func (t *Timeline) ToDisplayed(output float64) float64 {
	return output * t.Rate
}

// ToOriginal maps a displayed timestamp to source time.
func (t *Timeline) ToOriginal(displayed float64) float64 {
	return t.Trim.Start + displayed
}

// OutputRange remaps a displayed [start, end] interval into output time,
// clamped to the output duration.
func (t *Timeline) OutputRange(start, end float64) (TimeRange, error) {
	r, err := NewRange(start, end)
	if err != nil {
		return TimeRange{}, err
	}
	total := t.OutputDuration()
	s := Clamp(t.ToOutput(r.Start), 0, total)
	e := Clamp(t.ToOutput(r.End()), s, total)
	return TimeRange{Start: s, Duration: e - s}, nil
}

// AtempoChain splits rate into factors accepted by ffmpeg's atempo filter
// (each within [0.5, 2.0]) whose product is rate.
func AtempoChain(rate float64) []float64 {
	if rate <= 0 {
		return nil
	}
	var chain []float64
	for rate > 2.0 {
		chain = append(chain, 2.0)
		rate /= 2.0
	}
	for rate < 0.5 {
		chain = append(chain, 0.5)
		rate /= 0.5
	}
	if rate != 1 || len(chain) == 0 {
		chain = append(chain, rate)
	}
	return chain
}

// Clamp bounds v into [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
