package compositor

import (
	"github.com/ZacxDev/video-captioner/pkg/types"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Named creative filters, applied before the color adjustment.
const (
	FilterWarm      = "warm"
	FilterCool      = "cool"
	FilterVintage   = "vintage"
	FilterCinematic = "cinematic"
	FilterMono      = "mono"
	FilterSepia     = "sepia"
)

// Filters lists the supported named filters.
func Filters() []string {
	return []string{FilterWarm, FilterCool, FilterVintage, FilterCinematic, FilterMono, FilterSepia}
}

// KnownFilter reports whether name is empty or a supported filter.
func KnownFilter(name string) bool {
	if name == "" {
		return true
	}
	for _, f := range Filters() {
		if f == name {
			return true
		}
	}
	return false
}

// ApplyColorEffects applies a named color grading filter to a video stream
func ApplyColorEffects(stream *ffmpeg.Stream, effectType string) *ffmpeg.Stream {
	switch effectType {
	case FilterWarm:
		return stream.Filter("colortemperature", ffmpeg.Args{"temperature=6000"}).
			Filter("eq", ffmpeg.Args{"saturation=1.2"})
	case FilterCool:
		return stream.Filter("colortemperature", ffmpeg.Args{"temperature=12000"}).
			Filter("eq", ffmpeg.Args{"saturation=0.8"})
	case FilterVintage:
		return stream.Filter("curves", ffmpeg.Args{"preset=vintage"}).
			Filter("vignette", ffmpeg.Args{"angle=PI/4"})
	case FilterCinematic:
		return stream.Filter("eq", ffmpeg.Args{
			"contrast=1.1",
			"brightness=-0.05",
			"saturation=1.1",
		}).Filter("unsharp", ffmpeg.Args{"3:3:1.5"})
	case FilterMono:
		return stream.Filter("hue", ffmpeg.Args{"s=0"})
	case FilterSepia:
		return stream.Filter("colorchannelmixer", ffmpeg.Args{
			".393:.769:.189:0:.349:.686:.168:0:.272:.534:.131",
		})
	default:
		return stream
	}
}

// ApplyColorAdjust applies brightness, contrast and saturation. Contrast and
// saturation are offsets from eq's neutral value of 1.
func ApplyColorAdjust(stream *ffmpeg.Stream, adj types.ColorAdjust) *ffmpeg.Stream {
	if adj.IsNeutral() {
		return stream
	}
	return stream.Filter("eq", ffmpeg.Args{}, ffmpeg.KwArgs{
		"brightness": num(adj.Brightness),
		"contrast":   num(adj.Contrast + 1),
		"saturation": num(adj.Saturation + 1),
	})
}

// NeedsFilterPass reports whether the ApplyFilters stage has to re-encode.
func NeedsFilterPass(v *types.Video) bool {
	return v.Filter != "" || !v.ColorAdjust.IsNeutral()
}
