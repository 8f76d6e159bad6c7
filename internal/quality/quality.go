// Package quality maps export quality tiers to baseline render sizes and
// encoder targets. Baselines are landscape; the source orientation is
// applied afterwards by the geometry package.
package quality

import (
	"sort"

	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
)

var ErrUnknownTier = errors.New("unsupported quality tier")

// Tier defines the encode targets of one quality tier.
type Tier interface {
	// GetName returns the tier name
	GetName() types.QualityTier

	// GetDimensions returns the landscape baseline render size
	GetDimensions() (width, height int)

	// GetVideoBitrate returns the target video bitrate
	GetVideoBitrate() string

	// GetAudioBitrate returns the target audio bitrate
	GetAudioBitrate() string

	// GetVideoCodec returns the video encoder
	GetVideoCodec() string

	// GetAudioCodec returns the audio encoder
	GetAudioCodec() string

	// GetPreset returns the encoder speed/quality preset
	GetPreset() string

	// GetOutputFormat returns the container format, e.g. "mp4"
	GetOutputFormat() string
}

var tiers = map[types.QualityTier]Tier{
	types.QualityTier480p:  SD{},
	types.QualityTier720p:  HD{},
	types.QualityTier1080p: FullHD{},
	types.QualityTier4K:    UHD{},
}

// Get returns a tier by name
func Get(name types.QualityTier) (Tier, error) {
	t, ok := tiers[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownTier, "%q", name)
	}
	return t, nil
}

// Baseline returns the tier's landscape render size.
func Baseline(t Tier) types.Size {
	w, h := t.GetDimensions()
	return types.Size{Width: float64(w), Height: float64(h)}
}

// Supported returns the tier names from lowest to highest resolution
func Supported() []string {
	list := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		wi, hi := list[i].GetDimensions()
		wj, hj := list[j].GetDimensions()
		return wi*hi < wj*hj
	})

	names := make([]string, len(list))
	for i, t := range list {
		names[i] = string(t.GetName())
	}
	return names
}
