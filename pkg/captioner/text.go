package captioner

import (
	"github.com/ZacxDev/video-captioner/internal/subtitle"
	"github.com/ZacxDev/video-captioner/internal/textlayout"
	"github.com/ZacxDev/video-captioner/pkg/types"
)

// FontBounds is an inclusive font size search range. A zero value means the
// default 8 to 100.
type FontBounds struct {
	Min int
	Max int
}

func (b FontBounds) layout() textlayout.Bounds {
	if b.Min == 0 && b.Max == 0 {
		return textlayout.DefaultBounds()
	}
	return textlayout.Bounds{Min: b.Min, Max: b.Max}
}

// ComputeOptimalWordsPerLine estimates how many average words fit one line.
func ComputeOptimalWordsPerLine(videoWidth, fontSize, padding float64) int {
	return subtitle.OptimalWordsPerLine(videoWidth, fontSize, padding)
}

// DoesTextFitInVideo reports whether text fits in the video width minus
// padding at fontSize.
func DoesTextFitInVideo(text string, videoWidth, fontSize, padding float64) bool {
	return textlayout.TextFits(text, videoWidth, fontSize, padding)
}

// CalculateOptimalFontSize returns the largest size in bounds that fits text
// on one line, or bounds.Min when none does.
func CalculateOptimalFontSize(text string, videoWidth, padding float64, bounds FontBounds) int {
	return textlayout.OptimalFontSize(text, videoWidth, padding, bounds.layout())
}

// SplitSubtitleSegments replaces every cue that is too wide for the video with
// consecutive shorter cues.
func SplitSubtitleSegments(cues []types.TextOverlay, videoWidth, padding float64) []types.TextOverlay {
	return subtitle.Split(cues, videoWidth, padding)
}

// GenerateKaraokeTimings divides [start, end] equally among the words of text.
func GenerateKaraokeTimings(text string, start, end float64) []types.WordTiming {
	return subtitle.GenerateWordTimings(text, start, end)
}
