// Package textlayout estimates caption text widths and lays out glyph runs
// and karaoke word spans. The width model is a per-character-class
// heuristic; fit decisions depend on it, not on real font metrics.
package textlayout

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Character width multipliers of the font size.
const (
	SpaceWidth     = 0.25
	UppercaseWidth = 0.65
	LowercaseWidth = UppercaseWidth * 0.75
	DigitWidth     = UppercaseWidth * 0.85
	OtherWidth     = UppercaseWidth * 0.5

	// AverageCharWidth is the flat per-character factor used by the
	// font size search.
	AverageCharWidth = 0.6

	DefaultMinFontSize = 8
	DefaultMaxFontSize = 100
)

// CharWidth is the estimated advance of r at fontSize.
func CharWidth(r rune, fontSize float64) float64 {
	switch {
	case r == ' ':
		return fontSize * SpaceWidth
	case unicode.IsUpper(r):
		return fontSize * UppercaseWidth
	case unicode.IsLower(r):
		return fontSize * LowercaseWidth
	case unicode.IsDigit(r):
		return fontSize * DigitWidth
	default:
		return fontSize * OtherWidth
	}
}

// LineWidth sums the character widths of a single line.
func LineWidth(line string, fontSize float64) float64 {
	var w float64
	for _, r := range line {
		w += CharWidth(r, fontSize)
	}
	return w
}

// EstimateWidth is the width of the widest line of text.
func EstimateWidth(text string, fontSize float64) float64 {
	var widest float64
	for _, line := range strings.Split(text, "\n") {
		widest = max(widest, LineWidth(line, fontSize))
	}
	return widest
}

// TextFits reports whether text fits in renderWidth minus the horizontal
// padding.
func TextFits(text string, renderWidth, fontSize, padding float64) bool {
	return EstimateWidth(text, fontSize) <= renderWidth-padding
}

// Bounds is an inclusive integer font size search range.
type Bounds struct {
	Min int
	Max int
}

func DefaultBounds() Bounds {
	return Bounds{Min: DefaultMinFontSize, Max: DefaultMaxFontSize}
}

// OptimalFontSize binary-searches the largest integer size s in bounds with
// runeCount(text)*s*0.6 <= renderWidth-padding. Bounds.Min is returned when
// no size fits.
func OptimalFontSize(text string, renderWidth, padding float64, b Bounds) int {
	if b.Min <= 0 {
		b.Min = DefaultMinFontSize
	}
	if b.Max < b.Min {
		b.Max = b.Min
	}

	available := renderWidth - padding
	chars := float64(utf8.RuneCountInString(text))

	best := b.Min
	lo, hi := b.Min, b.Max
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if chars*float64(mid)*AverageCharWidth <= available {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best
}
