package types

import (
	"github.com/pkg/errors"
)

var (
	ErrInvalidOverlay    = errors.New("invalid text overlay")
	ErrInvalidWordTiming = errors.New("invalid word timing")
)

// WordTiming is one karaoke word and its own sub-interval of the parent cue,
// in seconds on the displayed (trimmed, pre-rate) timeline.
type WordTiming struct {
	Text  string  `json:"text" yaml:"text"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

func (w WordTiming) Duration() float64 {
	return w.End - w.Start
}

type Shadow struct {
	Color      Color   `json:"color" yaml:"color"`
	BlurRadius float64 `json:"blur_radius" yaml:"blur_radius"`
	OffsetX    float64 `json:"offset_x" yaml:"offset_x"`
	OffsetY    float64 `json:"offset_y" yaml:"offset_y"`
	Opacity    float64 `json:"opacity" yaml:"opacity"`
}

type Karaoke struct {
	Mode                KaraokeMode  `json:"mode" yaml:"mode"`
	Words               []WordTiming `json:"words,omitempty" yaml:"words,omitempty"`
	HighlightColor      Color        `json:"highlight_color,omitempty" yaml:"highlight_color,omitempty"`
	WordBackgroundColor Color        `json:"word_background_color,omitempty" yaml:"word_background_color,omitempty"`
	ActiveWordScale     float64      `json:"active_word_scale,omitempty" yaml:"active_word_scale,omitempty"`
}

// TextOverlay is one caption cue. Start and End are seconds on the displayed
// timeline; Offset is measured in editor points from the editor center.
type TextOverlay struct {
	ID                string   `json:"id" yaml:"id"`
	Text              string   `json:"text" yaml:"text"`
	PresetName        string   `json:"preset_name,omitempty" yaml:"preset_name,omitempty"`
	FontSize          float64  `json:"font_size" yaml:"font_size"`
	TextColor         Color    `json:"text_color" yaml:"text_color"`
	StrokeColor       Color    `json:"stroke_color,omitempty" yaml:"stroke_color,omitempty"`
	StrokeWidth       float64  `json:"stroke_width,omitempty" yaml:"stroke_width,omitempty"`
	BackgroundColor   Color    `json:"background_color,omitempty" yaml:"background_color,omitempty"`
	BackgroundPadding float64  `json:"background_padding,omitempty" yaml:"background_padding,omitempty"`
	CornerRadius      float64  `json:"corner_radius,omitempty" yaml:"corner_radius,omitempty"`
	Shadow            *Shadow  `json:"shadow,omitempty" yaml:"shadow,omitempty"`
	Start             float64  `json:"start" yaml:"start"`
	End               float64  `json:"end" yaml:"end"`
	Offset            Point    `json:"offset" yaml:"offset"`
	Karaoke           *Karaoke `json:"karaoke,omitempty" yaml:"karaoke,omitempty"`
}

// WordTimings returns the karaoke word timings, or nil when the cue has none.
func (o *TextOverlay) WordTimings() []WordTiming {
	if o.Karaoke == nil {
		return nil
	}
	return o.Karaoke.Words
}

func (o *TextOverlay) KaraokeMode() KaraokeMode {
	if o.Karaoke == nil || o.Karaoke.Mode == "" {
		return KaraokeModeNone
	}
	return o.Karaoke.Mode
}

// Clone copies every field of the overlay. Slices and pointers are deep-copied
// so the copy can be edited without touching the original.
func (o TextOverlay) Clone() TextOverlay {
	out := TextOverlay{
		ID:                o.ID,
		Text:              o.Text,
		PresetName:        o.PresetName,
		FontSize:          o.FontSize,
		TextColor:         o.TextColor,
		StrokeColor:       o.StrokeColor,
		StrokeWidth:       o.StrokeWidth,
		BackgroundColor:   o.BackgroundColor,
		BackgroundPadding: o.BackgroundPadding,
		CornerRadius:      o.CornerRadius,
		Start:             o.Start,
		End:               o.End,
		Offset:            o.Offset,
	}
	if o.Shadow != nil {
		s := *o.Shadow
		out.Shadow = &s
	}
	if o.Karaoke != nil {
		k := Karaoke{
			Mode:                o.Karaoke.Mode,
			HighlightColor:      o.Karaoke.HighlightColor,
			WordBackgroundColor: o.Karaoke.WordBackgroundColor,
			ActiveWordScale:     o.Karaoke.ActiveWordScale,
		}
		if o.Karaoke.Words != nil {
			k.Words = append([]WordTiming(nil), o.Karaoke.Words...)
		}
		out.Karaoke = &k
	}
	return out
}

// Validate checks the overlay's own time and style fields.
func (o *TextOverlay) Validate() error {
	if o.Start < 0 || o.End < o.Start {
		return errors.Wrapf(ErrInvalidOverlay, "overlay %q: interval [%g, %g]", o.ID, o.Start, o.End)
	}
	if o.FontSize <= 0 {
		return errors.Wrapf(ErrInvalidOverlay, "overlay %q: font size %g", o.ID, o.FontSize)
	}
	if o.StrokeWidth < 0 || o.BackgroundPadding < 0 || o.CornerRadius < 0 {
		return errors.Wrapf(ErrInvalidOverlay, "overlay %q: negative style metric", o.ID)
	}

	for _, c := range []Color{o.TextColor, o.StrokeColor, o.BackgroundColor} {
		if c.IsZero() {
			continue
		}
		if _, err := c.Parse(); err != nil {
			return errors.Wrapf(err, "overlay %q", o.ID)
		}
	}
	if o.Shadow != nil && !o.Shadow.Color.IsZero() {
		if _, err := o.Shadow.Color.Parse(); err != nil {
			return errors.Wrapf(err, "overlay %q shadow", o.ID)
		}
	}

	if o.Karaoke == nil {
		return nil
	}
	switch o.Karaoke.Mode {
	case "", KaraokeModeNone, KaraokeModeBackground, KaraokeModeColorScale:
	default:
		return errors.Wrapf(ErrInvalidOverlay, "overlay %q: unknown karaoke mode %q", o.ID, o.Karaoke.Mode)
	}
	if o.Karaoke.ActiveWordScale < 0 {
		return errors.Wrapf(ErrInvalidOverlay, "overlay %q: negative active word scale", o.ID)
	}
	for _, c := range []Color{o.Karaoke.HighlightColor, o.Karaoke.WordBackgroundColor} {
		if c.IsZero() {
			continue
		}
		if _, err := c.Parse(); err != nil {
			return errors.Wrapf(err, "overlay %q karaoke", o.ID)
		}
	}
	return ValidateWordTimings(o.Karaoke.Words, o.Start, o.End)
}

// ValidateWordTimings checks that every word has start <= end, lies inside
// [start, end] and that words are in non-decreasing order.
func ValidateWordTimings(words []WordTiming, start, end float64) error {
	prev := start
	for i, w := range words {
		if w.End < w.Start {
			return errors.Wrapf(ErrInvalidWordTiming, "word %d %q: [%g, %g]", i, w.Text, w.Start, w.End)
		}
		if w.Start < start || w.End > end {
			return errors.Wrapf(ErrInvalidWordTiming, "word %d %q outside cue [%g, %g]", i, w.Text, start, end)
		}
		if w.Start < prev {
			return errors.Wrapf(ErrInvalidWordTiming, "word %d %q starts before previous word", i, w.Text)
		}
		prev = w.Start
	}
	return nil
}
