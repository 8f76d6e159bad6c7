package compositor

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	wrap "github.com/ZacxDev/video-captioner/internal/ffmpeg"
	"github.com/ZacxDev/video-captioner/internal/geometry"
	"github.com/ZacxDev/video-captioner/internal/quality"
	"github.com/ZacxDev/video-captioner/internal/timeline"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const defaultTextColor types.Color = "#FFFFFF"

// composition is everything the ResizeAndLayer stage renders.
type composition struct {
	Video    *types.Video
	Plan     geometry.RenderPlan
	Timeline *timeline.Timeline
	Layers   []OverlayLayer
	Meta     *wrap.VideoMetadata
	Tier     quality.Tier
	Dir      string
	Output   string
	Opts     Options
}

// layerGraph builds the single compositing pass. Overlay text is written to
// files in the job directory so no caption text needs filter escaping.
type layerGraph struct {
	c     composition
	files int
}

func (g *layerGraph) textFile(text string) (string, error) {
	g.files++
	path := filepath.Join(g.c.Dir, fmt.Sprintf("text-%03d.txt", g.files))
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", errors.Wrap(err, "failed to write overlay text")
	}
	return path, nil
}

// resizeAndLayerArgs returns the ffmpeg arguments of the first stage.
func resizeAndLayerArgs(c composition) ([]string, error) {
	g := &layerGraph{c: c}

	tl := c.Timeline
	trim := ffmpeg.KwArgs{
		"ss": num(tl.Trim.Start),
		"t":  num(tl.DisplayedDuration()),
	}
	inKwargs := ffmpeg.KwArgs{"autorotate": 0}
	for k, v := range trim {
		inKwargs[k] = v
	}
	input := ffmpeg.Input(c.Video.Source, inKwargs)

	video, err := g.videoChain(input.Video())
	if err != nil {
		return nil, err
	}

	streams := []*ffmpeg.Stream{video}
	if audio := g.audioChain(input, trim); audio != nil {
		streams = append(streams, audio)
	}

	out := wrap.EncodeArgs(c.Tier, c.Meta.Bitrate)
	out["t"] = num(tl.OutputDuration())
	return ffmpeg.Output(streams, c.Output, out).OverWriteOutput().GetArgs(), nil
}

func (g *layerGraph) videoChain(v *ffmpeg.Stream) (*ffmpeg.Stream, error) {
	c := g.c
	v = orient(v, c.Plan.Orientation)
	v = v.Filter("setpts", ffmpeg.Args{fmt.Sprintf("(PTS-STARTPTS)/%s", num(c.Timeline.Rate))})
	v = v.Filter("fps", ffmpeg.Args{fmt.Sprint(c.Opts.FrameRate)})

	sw, sh, cw, ch, x, y := c.Plan.Crop()
	v = v.Filter("scale", ffmpeg.Args{fmt.Sprint(sw), fmt.Sprint(sh)}).
		Filter("crop", ffmpeg.Args{fmt.Sprint(cw), fmt.Sprint(ch), fmt.Sprint(x), fmt.Sprint(y)}).
		Filter("setsar", ffmpeg.Args{"1"})
	if c.Plan.Mirror {
		v = v.Filter("hflip", ffmpeg.Args{})
	}

	if c.Video.Frame != nil {
		framed, err := g.frame(v, cw, ch)
		if err != nil {
			return nil, err
		}
		v = framed
	}

	for _, layer := range c.Layers {
		var err error
		if v, err = g.drawOverlay(v, layer); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// orient applies the display rotation explicitly; input autorotation is off
// so the geometry plan is the only source of orientation.
func orient(v *ffmpeg.Stream, o geometry.Orientation) *ffmpeg.Stream {
	switch o {
	case geometry.Right:
		return v.Filter("transpose", ffmpeg.Args{"clock"})
	case geometry.Left:
		return v.Filter("transpose", ffmpeg.Args{"cclock"})
	case geometry.Down:
		return v.Filter("hflip", ffmpeg.Args{}).Filter("vflip", ffmpeg.Args{})
	default:
		return v
	}
}

// frame scales the video down by the frame scale and centers it on a solid
// background of the full output size.
func (g *layerGraph) frame(v *ffmpeg.Stream, w, h int) (*ffmpeg.Stream, error) {
	f := g.c.Video.Frame
	color, err := f.Color.FFmpeg(1)
	if err != nil {
		return nil, err
	}

	bg := ffmpeg.Input(fmt.Sprintf("color=c=%s:s=%dx%d:r=%d:d=%s",
		color, w, h, g.c.Opts.FrameRate, num(g.c.Timeline.OutputDuration())),
		ffmpeg.KwArgs{"f": "lavfi"})

	inner := v.Filter("scale", ffmpeg.Args{
		fmt.Sprint(geometry.EvenFloor(float64(w) * f.Scale)),
		fmt.Sprint(geometry.EvenFloor(float64(h) * f.Scale)),
	})
	return ffmpeg.Filter([]*ffmpeg.Stream{bg, inner}, "overlay", ffmpeg.Args{}, ffmpeg.KwArgs{
		"x":        "(W-w)/2",
		"y":        "(H-h)/2",
		"shortest": 1,
	}), nil
}

// drawOverlay draws one drawtext per line of the overlay, then the karaoke
// word highlights on top of the line they belong to.
func (g *layerGraph) drawOverlay(v *ffmpeg.Stream, layer OverlayLayer) (*ffmpeg.Stream, error) {
	o := layer.Overlay
	alpha := layer.Opacity.Expr()
	enable := fmt.Sprintf("between(t,%s,%s)", num(layer.Window.Start), num(layer.VisibleUntil()))

	textColor := o.TextColor
	if textColor.IsZero() {
		textColor = defaultTextColor
	}

	for _, line := range layer.Run.Lines {
		if line.Text == "" {
			continue
		}
		kw, err := g.textKwargs(line.Text, layer.Run.FontSize, textColor)
		if err != nil {
			return nil, err
		}
		if err := styleKwargs(kw, o, layer.Scale); err != nil {
			return nil, err
		}
		kw["x"] = num(line.Bounds.Min.X)
		kw["y"] = num(line.Bounds.Min.Y)
		kw["alpha"] = alpha
		kw["enable"] = enable
		v = v.Filter("drawtext", ffmpeg.Args{}, kw)
	}

	for _, w := range layer.Words {
		kw, err := g.wordKwargs(layer, w)
		if err != nil {
			return nil, err
		}
		kw["alpha"] = alpha
		kw["enable"] = fmt.Sprintf("gte(t,%s)*lt(t,%s)", num(w.Window.Start), num(w.Window.End()))
		v = v.Filter("drawtext", ffmpeg.Args{}, kw)
	}
	return v, nil
}

func (g *layerGraph) textKwargs(text string, fontSize float64, color types.Color) (ffmpeg.KwArgs, error) {
	path, err := g.textFile(text)
	if err != nil {
		return nil, err
	}
	fc, err := color.FFmpeg(1)
	if err != nil {
		return nil, err
	}

	kw := ffmpeg.KwArgs{
		"textfile":  path,
		"expansion": "none",
		"fontsize":  int(math.Round(fontSize)),
		"fontcolor": fc,
	}
	switch {
	case g.c.Opts.FontFile != "":
		kw["fontfile"] = g.c.Opts.FontFile
	case g.c.Opts.FontFamily != "":
		kw["font"] = g.c.Opts.FontFamily
	}
	if g.c.Opts.LineSpacing != 0 {
		kw["line_spacing"] = g.c.Opts.LineSpacing
	}
	return kw, nil
}

// styleKwargs adds stroke, background box and shadow. Corner radius and
// shadow blur have no drawtext equivalent and are not rendered.
func styleKwargs(kw ffmpeg.KwArgs, o *types.TextOverlay, scale float64) error {
	if o.StrokeWidth > 0 && !o.StrokeColor.IsZero() {
		c, err := o.StrokeColor.FFmpeg(1)
		if err != nil {
			return err
		}
		kw["bordercolor"] = c
		kw["borderw"] = max(1, int(math.Round(o.StrokeWidth*scale)))
	}
	if !o.BackgroundColor.IsZero() {
		c, err := o.BackgroundColor.FFmpeg(1)
		if err != nil {
			return err
		}
		kw["box"] = 1
		kw["boxcolor"] = c
		kw["boxborderw"] = int(math.Round(o.BackgroundPadding * scale))
	}
	if s := o.Shadow; s != nil && !s.Color.IsZero() {
		opacity := s.Opacity
		if opacity == 0 {
			opacity = 1
		}
		c, err := s.Color.FFmpeg(opacity)
		if err != nil {
			return err
		}
		kw["shadowcolor"] = c
		kw["shadowx"] = int(math.Round(s.OffsetX * scale))
		kw["shadowy"] = int(math.Round(s.OffsetY * scale))
	}
	return nil
}

// wordKwargs draws the active word over its position in the line: with a
// background box in background mode, or recolored and scaled about the
// word's center in color/scale mode.
func (g *layerGraph) wordKwargs(layer OverlayLayer, w WordLayer) (ffmpeg.KwArgs, error) {
	o := layer.Overlay
	color := w.Style.Color
	if color.IsZero() {
		color = defaultTextColor
	}

	fontSize := layer.Run.FontSize * w.Style.Scale
	kw, err := g.textKwargs(w.Span.Text, fontSize, color)
	if err != nil {
		return nil, err
	}
	if o.StrokeWidth > 0 && !o.StrokeColor.IsZero() {
		c, err := o.StrokeColor.FFmpeg(1)
		if err != nil {
			return nil, err
		}
		kw["bordercolor"] = c
		kw["borderw"] = max(1, int(math.Round(o.StrokeWidth*layer.Scale)))
	}

	b := w.Span.Bounds
	center := b.Center()
	kw["x"] = num(center.X - b.Width()*w.Style.Scale/2)
	kw["y"] = num(center.Y - b.Height()*w.Style.Scale/2)

	if !w.Style.Background.IsZero() {
		c, err := w.Style.Background.FFmpeg(1)
		if err != nil {
			return nil, err
		}
		kw["box"] = 1
		kw["boxcolor"] = c
		kw["boxborderw"] = max(2, int(math.Round(layer.Run.FontSize*0.15)))
	}
	return kw, nil
}

// audioChain rate-scales the source audio and the optional secondary track
// and mixes them. It returns nil when the output has no audio.
func (g *layerGraph) audioChain(input *ffmpeg.Stream, trim ffmpeg.KwArgs) *ffmpeg.Stream {
	c := g.c
	var tracks []*ffmpeg.Stream
	if c.Meta.HasAudio {
		tracks = append(tracks, retime(input.Audio(), c.Timeline.Rate))
	}
	if c.Video.SecondaryAudio != "" {
		secondary := ffmpeg.Input(c.Video.SecondaryAudio, trim)
		tracks = append(tracks, retime(secondary.Audio(), c.Timeline.Rate))
	}

	switch len(tracks) {
	case 0:
		return nil
	case 1:
		return tracks[0]
	default:
		return ffmpeg.Filter(tracks, "amix", ffmpeg.Args{}, ffmpeg.KwArgs{
			"inputs":   len(tracks),
			"duration": "first",
		})
	}
}

func retime(a *ffmpeg.Stream, rate float64) *ffmpeg.Stream {
	a = a.Filter("asetpts", ffmpeg.Args{"PTS-STARTPTS"})
	for _, f := range timeline.AtempoChain(rate) {
		if f == 1 {
			continue
		}
		a = a.Filter("atempo", ffmpeg.Args{num(f)})
	}
	return a
}

// applyFiltersArgs returns the ffmpeg arguments of the second stage: the
// named filter then the color adjustment, audio copied.
func applyFiltersArgs(v *types.Video, tier quality.Tier, hasAudio bool, input, output string) []string {
	in := ffmpeg.Input(input)
	video := ApplyColorAdjust(ApplyColorEffects(in.Video(), v.Filter), v.ColorAdjust)

	streams := []*ffmpeg.Stream{video}
	if hasAudio {
		streams = append(streams, in.Audio())
	}

	out := wrap.EncodeArgs(tier, 0)
	delete(out, "b:a")
	out["c:a"] = "copy"
	return ffmpeg.Output(streams, output, out).OverWriteOutput().GetArgs()
}
