package ffmpeg

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNoVideoStream   = errors.New("no video stream found")
	ErrUnknownDuration = errors.New("could not determine video duration")
)

// VideoMetadata contains metadata about a video file
type VideoMetadata struct {
	Duration float64
	Width    int
	Height   int
	Codec    string
	// Rotation is the clockwise display rotation in degrees: 0, 90, 180 or 270.
	Rotation int
	HasAudio bool
	// Bitrate in bits per second, zero when unknown.
	Bitrate int64
}

type probeStream struct {
	CodecType    string            `json:"codec_type"`
	CodecName    string            `json:"codec_name"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Duration     string            `json:"duration"`
	BitRate      string            `json:"bit_rate"`
	NbFrames     string            `json:"nb_frames"`
	RFrameRate   string            `json:"r_frame_rate"`
	Tags         map[string]string `json:"tags"`
	SideDataList []struct {
		SideDataType string  `json:"side_data_type"`
		Rotation     float64 `json:"rotation"`
	} `json:"side_data_list"`
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
		Size     string `json:"size"`
	} `json:"format"`
}

// ParseProbe decodes ffprobe's JSON output (-show_format -show_streams).
func ParseProbe(probe string) (*VideoMetadata, error) {
	var data probeOutput
	if err := json.Unmarshal([]byte(probe), &data); err != nil {
		return nil, errors.WithStack(err)
	}

	var (
		video    *probeStream
		hasAudio bool
	)
	for i := range data.Streams {
		s := &data.Streams[i]
		switch s.CodecType {
		case "video":
			if video == nil {
				video = s
			}
		case "audio":
			hasAudio = true
		}
	}
	if video == nil {
		return nil, ErrNoVideoStream
	}

	// First try video stream duration, then format duration, then frames/rate
	duration := parseFloat(video.Duration)
	if duration == 0 {
		duration = parseFloat(data.Format.Duration)
	}
	if duration == 0 {
		frames := parseFloat(video.NbFrames)
		if fps := parseFrameRate(video.RFrameRate); frames > 0 && fps > 0 {
			duration = frames / fps
		}
	}
	if duration == 0 {
		return nil, ErrUnknownDuration
	}

	return &VideoMetadata{
		Duration: duration,
		Width:    video.Width,
		Height:   video.Height,
		Codec:    video.CodecName,
		Rotation: streamRotation(video),
		HasAudio: hasAudio,
		Bitrate:  bitrate(&data, video, duration),
	}, nil
}

// streamRotation prefers the display matrix side data, whose angle is
// counter-clockwise, over the legacy rotate tag.
func streamRotation(s *probeStream) int {
	for _, sd := range s.SideDataList {
		if sd.SideDataType == "Display Matrix" {
			return normalizeRotation(-sd.Rotation)
		}
	}
	if r, ok := s.Tags["rotate"]; ok {
		return normalizeRotation(parseFloat(r))
	}
	return 0
}

func normalizeRotation(deg float64) int {
	r := int(math.Round(deg)) % 360
	if r < 0 {
		r += 360
	}
	return r
}

func bitrate(data *probeOutput, video *probeStream, duration float64) int64 {
	// Format bitrate is usually more accurate than the stream's
	if b, err := strconv.ParseInt(data.Format.BitRate, 10, 64); err == nil {
		return b
	}
	if b, err := strconv.ParseInt(video.BitRate, 10, 64); err == nil {
		return b
	}
	// Estimate from file size and duration
	if size, err := strconv.ParseInt(data.Format.Size, 10, 64); err == nil && duration > 0 {
		return int64(float64(size*8) / duration)
	}
	return 0
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFrameRate(s string) float64 {
	nums := strings.Split(s, "/")
	if len(nums) != 2 {
		return parseFloat(s)
	}
	num, den := parseFloat(nums[0]), parseFloat(nums[1])
	if den == 0 {
		return 0
	}
	return num / den
}
