package textlayout

import (
	"strings"

	"github.com/ZacxDev/video-captioner/internal/timeline"
	"github.com/ZacxDev/video-captioner/pkg/types"
)

// IsActive reports whether t falls in [word.Start, word.End).
func IsActive(w types.WordTiming, t float64) bool {
	return t >= w.Start && t < w.End
}

// Progress is how far t is through the word, clamped to [0, 1]. A
// zero-length word is complete from its start.
func Progress(w types.WordTiming, t float64) float64 {
	d := w.End - w.Start
	if d <= 0 {
		if t >= w.Start {
			return 1
		}
		return 0
	}
	return timeline.Clamp((t-w.Start)/d, 0, 1)
}

// ActiveWord returns the index of the first word active at t, or -1.
func ActiveWord(words []types.WordTiming, t float64) int {
	for i, w := range words {
		if IsActive(w, t) {
			return i
		}
	}
	return -1
}

// PartitionLines splits word timings across the lines of text by consuming,
// in order, as many timings as each line has words. Alignment is by
// position only; the word text is not compared.
func PartitionLines(text string, words []types.WordTiming) [][]types.WordTiming {
	lines := strings.Split(text, "\n")
	out := make([][]types.WordTiming, len(lines))

	next := 0
	for i, line := range lines {
		n := len(strings.Fields(line))
		end := min(next+n, len(words))
		if next < end {
			out[i] = words[next:end]
		}
		next = end
	}
	return out
}

// WordStyle is how one karaoke word renders at a point in time.
type WordStyle struct {
	Active     bool
	Color      types.Color
	Scale      float64
	Background types.Color
}

// StyleAt resolves the style of word w for the overlay's karaoke mode at t.
func StyleAt(o *types.TextOverlay, w types.WordTiming, t float64) WordStyle {
	style := WordStyle{Color: o.TextColor, Scale: 1}
	if !IsActive(w, t) {
		return style
	}
	style.Active = true

	switch o.KaraokeMode() {
	case types.KaraokeModeBackground:
		style.Background = o.Karaoke.WordBackgroundColor
	case types.KaraokeModeColorScale:
		if !o.Karaoke.HighlightColor.IsZero() {
			style.Color = o.Karaoke.HighlightColor
		}
		if o.Karaoke.ActiveWordScale > 0 {
			style.Scale = o.Karaoke.ActiveWordScale
		}
	}
	return style
}
