package quality

import "github.com/ZacxDev/video-captioner/pkg/types"

type FullHD struct{}

func (FullHD) GetName() types.QualityTier {
	return types.QualityTier1080p
}

func (FullHD) GetDimensions() (width, height int) {
	return 1920, 1080
}

func (FullHD) GetVideoBitrate() string {
	return "5000k"
}

func (FullHD) GetAudioBitrate() string {
	return "192k"
}

func (FullHD) GetVideoCodec() string {
	return "libx264"
}

func (FullHD) GetAudioCodec() string {
	return "aac"
}

func (FullHD) GetPreset() string {
	return "slow"
}

func (FullHD) GetOutputFormat() string {
	return "mp4"
}
