package textlayout

import (
	"strings"
	"unicode"

	"github.com/ZacxDev/video-captioner/internal/geometry"
	"github.com/ZacxDev/video-captioner/pkg/types"
)

// LineHeightFactor is the line advance as a multiple of the font size.
const LineHeightFactor = 1.2

// WordSpan is one word of a line with its estimated pixel bounds.
type WordSpan struct {
	Text      string
	Bounds    geometry.Rect
	Timing    types.WordTiming
	HasTiming bool
}

type LineRun struct {
	Text   string
	Bounds geometry.Rect
	Words  []WordSpan
}

// GlyphRun is a laid-out overlay in output pixels.
type GlyphRun struct {
	FontSize   float64
	LineHeight float64
	// Bounds encloses the text; Box adds the background padding.
	Bounds geometry.Rect
	Box    geometry.Rect
	Lines  []LineRun
}

// Layout places the overlay's text centered on center, with font size and
// padding multiplied by scale.
func Layout(o *types.TextOverlay, center types.Point, scale float64) GlyphRun {
	fontSize := o.FontSize * scale
	lineHeight := fontSize * LineHeightFactor
	lines := strings.Split(o.Text, "\n")
	timings := PartitionLines(o.Text, o.WordTimings())

	totalHeight := lineHeight * float64(len(lines))
	top := center.Y - totalHeight/2

	run := GlyphRun{
		FontSize:   fontSize,
		LineHeight: lineHeight,
		Lines:      make([]LineRun, len(lines)),
	}

	var widest float64
	for i, line := range lines {
		width := LineWidth(line, fontSize)
		widest = max(widest, width)
		y := top + float64(i)*lineHeight
		minX := center.X - width/2

		lr := LineRun{
			Text: line,
			Bounds: geometry.Rect{
				Min: types.Point{X: minX, Y: y},
				Max: types.Point{X: minX + width, Y: y + lineHeight},
			},
		}

		for j, w := range wordOffsets(line, fontSize) {
			span := WordSpan{
				Text: w.text,
				Bounds: geometry.Rect{
					Min: types.Point{X: minX + w.offset, Y: y},
					Max: types.Point{X: minX + w.offset + w.width, Y: y + lineHeight},
				},
			}
			if j < len(timings[i]) {
				span.Timing = timings[i][j]
				span.HasTiming = true
			}
			lr.Words = append(lr.Words, span)
		}
		run.Lines[i] = lr
	}

	run.Bounds = geometry.Rect{
		Min: types.Point{X: center.X - widest/2, Y: top},
		Max: types.Point{X: center.X + widest/2, Y: top + totalHeight},
	}
	pad := o.BackgroundPadding * scale
	run.Box = geometry.Rect{
		Min: types.Point{X: run.Bounds.Min.X - pad, Y: run.Bounds.Min.Y - pad},
		Max: types.Point{X: run.Bounds.Max.X + pad, Y: run.Bounds.Max.Y + pad},
	}
	return run
}

// Words flattens all word spans in line order.
func (g GlyphRun) Words() []WordSpan {
	var out []WordSpan
	for _, l := range g.Lines {
		out = append(out, l.Words...)
	}
	return out
}

type wordOffset struct {
	text   string
	offset float64
	width  float64
}

func wordOffsets(line string, fontSize float64) []wordOffset {
	var (
		out    []wordOffset
		cursor float64
		cur    strings.Builder
		start  float64
		width  float64
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, wordOffset{text: cur.String(), offset: start, width: width})
			cur.Reset()
			width = 0
		}
	}

	for _, r := range line {
		cw := CharWidth(r, fontSize)
		if unicode.IsSpace(r) {
			flush()
		} else {
			if cur.Len() == 0 {
				start = cursor
			}
			cur.WriteRune(r)
			width += cw
		}
		cursor += cw
	}
	flush()
	return out
}
