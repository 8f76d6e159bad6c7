package quality

import "github.com/ZacxDev/video-captioner/pkg/types"

type UHD struct{}

func (UHD) GetName() types.QualityTier {
	return types.QualityTier4K
}

func (UHD) GetDimensions() (width, height int) {
	return 3840, 2160
}

func (UHD) GetVideoBitrate() string {
	return "16000k"
}

func (UHD) GetAudioBitrate() string {
	return "192k"
}

func (UHD) GetVideoCodec() string {
	return "libx264"
}

func (UHD) GetAudioCodec() string {
	return "aac"
}

func (UHD) GetPreset() string {
	return "slower"
}

func (UHD) GetOutputFormat() string {
	return "mp4"
}
