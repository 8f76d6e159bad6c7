package ffmpeg

import (
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/ZacxDev/video-captioner/internal/quality"
	"github.com/shirou/gopsutil/v4/cpu"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

type CodecSettings struct {
	VideoCodec      string
	AudioCodec      string
	ContainerFormat string
	FileExtension   string
	EncoderPresets  map[string]ffmpeg.KwArgs
}

var codecPresets = map[string]CodecSettings{
	"mp4": {
		VideoCodec:      "libx264",
		AudioCodec:      "aac",
		ContainerFormat: "mp4",
		FileExtension:   ".mp4",
		EncoderPresets: map[string]ffmpeg.KwArgs{
			"high_quality": {
				"profile:v": "high",
				"movflags":  "+faststart",
				"x264opts":  "no-scenecut",
				"bf":        3,
				"refs":      4,
			},
		},
	},
}

func GetCodecSettings(outputFormat string) CodecSettings {
	if settings, ok := codecPresets[outputFormat]; ok {
		return settings
	}
	// Tiers all export mp4; unknown formats fall back to it
	return codecPresets["mp4"]
}

// EncodeArgs returns the output kwargs for a tier at its highest quality
// preset. The target bitrate is capped near the source bitrate when known.
func EncodeArgs(tier quality.Tier, sourceBitrate int64) ffmpeg.KwArgs {
	settings := GetCodecSettings(tier.GetOutputFormat())
	target := TargetBitrate(tier.GetVideoBitrate(), sourceBitrate)

	kwargs := ffmpeg.KwArgs{
		"c:v":        tier.GetVideoCodec(),
		"c:a":        tier.GetAudioCodec(),
		"b:v":        target,
		"b:a":        tier.GetAudioBitrate(),
		"pix_fmt":    "yuv420p",
		"threads":    GetOptimalThreadCount(),
		"g":          60,
		"keyint_min": 30,
		"f":          settings.ContainerFormat,
	}
	if tier.GetVideoCodec() == "libx264" {
		kwargs["preset"] = tier.GetPreset()
		kwargs["maxrate"] = target
		kwargs["bufsize"] = FormatBitrate(2 * ParseBitrate(target))
	}
	for k, v := range settings.EncoderPresets["high_quality"] {
		kwargs[k] = v
	}
	return kwargs
}

// GetOptimalThreadCount uses 75% of the physical cores to prevent overload.
func GetOptimalThreadCount() int {
	cores, err := cpu.Counts(false)
	if err != nil || cores <= 0 {
		cores = runtime.NumCPU()
	}
	return int(math.Max(1, float64(cores)*0.75))
}

// ParseBitrate converts "5M", "1500k" or "800000" to bits per second.
func ParseBitrate(bitrate string) int64 {
	s := strings.TrimSpace(bitrate)
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "M"):
		mult = 1_000_000
	case strings.HasSuffix(s, "k"):
		mult = 1_000
	}
	n, err := strconv.ParseFloat(strings.TrimRight(s, "Mk"), 64)
	if err != nil || n < 0 {
		return 0
	}
	return int64(n * float64(mult))
}

func FormatBitrate(bps int64) string {
	if bps >= 1_000_000 && bps%1_000_000 == 0 {
		return fmt.Sprintf("%dM", bps/1_000_000)
	}
	return fmt.Sprintf("%dk", bps/1000)
}

// TargetBitrate caps the tier bitrate at 105% of the source bitrate so
// re-encoding never inflates a low-bitrate source.
func TargetBitrate(tierBitrate string, sourceBitrate int64) string {
	target := ParseBitrate(tierBitrate)
	if sourceBitrate > 0 {
		ceiling := int64(float64(sourceBitrate) * 1.05)
		if target > ceiling {
			target = ceiling
		}
	}
	return FormatBitrate(target)
}

// EnsureExtension replaces any video extension on filename with extension.
// Destinations given as "final.mov" or "final" still receive the mp4 export
// under a matching name.
func EnsureExtension(filename, extension string) string {
	extensions := []string{".mp4", ".webm", ".mkv", ".avi", ".mov"}
	for _, ext := range extensions {
		filename = strings.TrimSuffix(filename, ext)
	}
	return filename + extension
}
