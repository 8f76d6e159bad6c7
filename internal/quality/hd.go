package quality

import "github.com/ZacxDev/video-captioner/pkg/types"

type HD struct{}

func (HD) GetName() types.QualityTier {
	return types.QualityTier720p
}

func (HD) GetDimensions() (width, height int) {
	return 1280, 720
}

func (HD) GetVideoBitrate() string {
	return "3000k"
}

func (HD) GetAudioBitrate() string {
	return "128k"
}

func (HD) GetVideoCodec() string {
	return "libx264" // H.264 for better compatibility
}

func (HD) GetAudioCodec() string {
	return "aac"
}

func (HD) GetPreset() string {
	return "slow"
}

func (HD) GetOutputFormat() string {
	return "mp4"
}
