package subtitle

import (
	"strings"

	"github.com/ZacxDev/video-captioner/pkg/types"
)

// GenerateWordTimings divides [start, end] equally among the words of text.
// It is the fallback used when no transcription timings exist.
func GenerateWordTimings(text string, start, end float64) []types.WordTiming {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	d := (end - start) / float64(len(words))
	out := make([]types.WordTiming, len(words))
	for k, w := range words {
		out[k] = types.WordTiming{
			Text:  w,
			Start: start + float64(k)*d,
			End:   start + float64(k+1)*d,
		}
	}
	out[len(out)-1].End = end
	return out
}

// EnsureWordTimings fills equal-division timings into karaoke cues that have
// none. Cues without karaoke, or with timings already, are left alone.
func EnsureWordTimings(cues []types.TextOverlay) []types.TextOverlay {
	out := make([]types.TextOverlay, len(cues))
	for i, cue := range cues {
		out[i] = cue
		if cue.KaraokeMode() == types.KaraokeModeNone || len(cue.WordTimings()) > 0 {
			continue
		}
		c := cue.Clone()
		c.Karaoke.Words = GenerateWordTimings(c.Text, c.Start, c.End)
		out[i] = c
	}
	return out
}
