package compositor

import (
	"math"

	"github.com/ZacxDev/video-captioner/internal/geometry"
	"github.com/ZacxDev/video-captioner/internal/textlayout"
	"github.com/ZacxDev/video-captioner/internal/timeline"
	"github.com/ZacxDev/video-captioner/pkg/types"
)

// OverlayLayer is one text overlay placed in output space and output time.
type OverlayLayer struct {
	ID      string
	Overlay *types.TextOverlay
	// Scale is the editor-to-output ratio applied to every style metric.
	Scale   float64
	Run     textlayout.GlyphRun
	Window  timeline.TimeRange
	Opacity Animation
	Words   []WordLayer
}

// WordLayer is the active-word highlight of one karaoke word.
type WordLayer struct {
	Span   textlayout.WordSpan
	Window timeline.TimeRange
	Style  textlayout.WordStyle
}

// VisibleUntil is the end of the layer's fade-out, or the end of its window
// when the overlay runs to the end of the output and has no fade-out.
func (l OverlayLayer) VisibleUntil() float64 {
	end := l.Window.End()
	if kf := l.Opacity.Keyframes; len(kf) > 0 {
		end = math.Max(end, kf[len(kf)-1].Time)
	}
	return end
}

// BuildLayers lays out every overlay of v in output pixels and maps its
// interval onto the output timeline. Overlays starting after the trimmed end
// produce no layer.
func BuildLayers(plan geometry.RenderPlan, tl *timeline.Timeline, v *types.Video, fade float64) ([]OverlayLayer, error) {
	total := tl.OutputDuration()
	scale := geometry.OverlayRatio(v.EditorSize, plan.RenderSize)

	layers := make([]OverlayLayer, 0, len(v.Overlays))
	for i := range v.Overlays {
		o := &v.Overlays[i]

		window, err := tl.OutputRange(o.Start, o.End)
		if err != nil {
			return nil, err
		}
		if tl.ToOutput(o.Start) >= total {
			continue
		}

		center := geometry.OverlayPosition(o.Offset, v.EditorSize, plan.RenderSize)
		layer := OverlayLayer{
			ID:      o.ID,
			Overlay: o,
			Scale:   scale,
			Run:     textlayout.Layout(o, center, scale),
			Window:  window,
			Opacity: FadeAnimation(window, total, fade),
		}

		if o.KaraokeMode() != types.KaraokeModeNone {
			for _, span := range layer.Run.Words() {
				if !span.HasTiming {
					continue
				}
				ww, err := tl.OutputRange(span.Timing.Start, span.Timing.End)
				if err != nil {
					return nil, err
				}
				if ww.Duration <= 0 {
					continue
				}
				layer.Words = append(layer.Words, WordLayer{
					Span:   span,
					Window: ww,
					Style:  textlayout.StyleAt(o, span.Timing, span.Timing.Start),
				})
			}
		}
		layers = append(layers, layer)
	}
	return layers, nil
}
