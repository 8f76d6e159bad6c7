// Package subtitle splits caption cues that are too wide for the video into
// consecutive chunks, keeping word-level karaoke timings when available.
package subtitle

import (
	"fmt"
	"math"
	"strings"

	"github.com/ZacxDev/video-captioner/internal/textlayout"
	"github.com/ZacxDev/video-captioner/pkg/types"
)

const (
	// AverageWordLength is the assumed mean word length in characters.
	AverageWordLength = 5.1
	// WordSpacingFactor pads the average word width for inter-word spacing.
	WordSpacingFactor = 1.3
)

// OptimalWordsPerLine estimates how many average words fit on one line.
func OptimalWordsPerLine(videoWidth, fontSize, padding float64) int {
	available := videoWidth - padding
	charWidth := fontSize * textlayout.AverageCharWidth
	wordWidth := AverageWordLength * charWidth * WordSpacingFactor
	if wordWidth <= 0 {
		return 1
	}
	return max(1, int(math.Floor(available/wordWidth)))
}

// Split returns cues in order, replacing every cue that does not fit the
// video width with consecutive chunks of OptimalWordsPerLine words.
func Split(cues []types.TextOverlay, videoWidth, padding float64) []types.TextOverlay {
	out := make([]types.TextOverlay, 0, len(cues))
	for _, cue := range cues {
		out = append(out, SplitCue(cue, videoWidth, padding)...)
	}
	return out
}

// SplitCue splits a single cue. A cue that fits comes back unchanged.
func SplitCue(cue types.TextOverlay, videoWidth, padding float64) []types.TextOverlay {
	if textlayout.TextFits(cue.Text, videoWidth, cue.FontSize, padding) {
		return []types.TextOverlay{cue}
	}

	words := strings.Fields(cue.Text)
	if len(words) <= 1 {
		return []types.TextOverlay{cue}
	}

	perLine := OptimalWordsPerLine(videoWidth, cue.FontSize, padding)
	total := (len(words) + perLine - 1) / perLine
	if total <= 1 {
		return []types.TextOverlay{cue}
	}

	timings := cue.WordTimings()
	useTimings := len(timings) >= len(words)
	step := (cue.End - cue.Start) / float64(total)

	chunks := make([]types.TextOverlay, 0, total)
	for i := 0; i < total; i++ {
		first := i * perLine
		last := min(first+perLine, len(words)) - 1

		chunk := cue.Clone()
		if cue.ID != "" {
			chunk.ID = fmt.Sprintf("%s-%d", cue.ID, i+1)
		}
		chunk.Text = strings.Join(words[first:last+1], " ")

		if useTimings {
			chunk.Start = timings[first].Start
			chunk.End = timings[last].End
			chunk.Karaoke.Words = append([]types.WordTiming(nil), timings[first:last+1]...)
		} else {
			chunk.Start = cue.Start + float64(i)*step
			chunk.End = cue.Start + float64(i+1)*step
			if i == total-1 {
				chunk.End = cue.End
			}
			if chunk.Karaoke != nil {
				chunk.Karaoke.Words = nil
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}
