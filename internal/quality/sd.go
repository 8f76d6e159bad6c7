package quality

import "github.com/ZacxDev/video-captioner/pkg/types"

type SD struct{}

func (SD) GetName() types.QualityTier {
	return types.QualityTier480p
}

func (SD) GetDimensions() (width, height int) {
	return 854, 480
}

func (SD) GetVideoBitrate() string {
	return "1500k"
}

func (SD) GetAudioBitrate() string {
	return "128k"
}

func (SD) GetVideoCodec() string {
	return "libx264"
}

func (SD) GetAudioCodec() string {
	return "aac"
}

func (SD) GetPreset() string {
	return "medium"
}

func (SD) GetOutputFormat() string {
	return "mp4"
}
