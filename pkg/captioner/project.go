package captioner

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZacxDev/video-captioner/internal/config"
	"github.com/ZacxDev/video-captioner/internal/subtitle"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrInvalidProject = errors.New("invalid project file")

// LoadProject reads a YAML or JSON project file into a video. A relative
// source is resolved against the project file's directory, and cues that
// leave their style unset get the default caption style.
func LoadProject(path string) (*types.Video, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read project file")
	}

	// JSON documents are valid YAML
	video := &types.Video{Rate: 1}
	if err := yaml.Unmarshal(data, video); err != nil {
		return nil, errors.Wrapf(ErrInvalidProject, "%s: %v", path, err)
	}
	if video.Source == "" {
		return nil, errors.Wrapf(ErrInvalidProject, "%s: %v", path, types.ErrMissingSource)
	}

	if !filepath.IsAbs(video.Source) {
		video.Source = filepath.Join(filepath.Dir(path), video.Source)
	}
	if video.SecondaryAudio != "" && !filepath.IsAbs(video.SecondaryAudio) {
		video.SecondaryAudio = filepath.Join(filepath.Dir(path), video.SecondaryAudio)
	}

	ApplyDefaultStyle(video)
	return video, nil
}

// ApplyDefaultStyle fills unset cue IDs and style fields, and gives karaoke
// cues without word timings an equal split of their interval.
func ApplyDefaultStyle(video *types.Video) {
	for i := range video.Overlays {
		o := &video.Overlays[i]
		if o.ID == "" {
			o.ID = fmt.Sprintf("cue-%d", i+1)
		}
		if o.FontSize <= 0 {
			o.FontSize = config.DefaultFontSize
		}
		if o.TextColor.IsZero() {
			o.TextColor = config.DefaultTextColor
		}
		if o.StrokeColor.IsZero() && o.StrokeWidth == 0 {
			o.StrokeColor = config.DefaultStrokeColor
			o.StrokeWidth = config.DefaultStrokeWidth
		}
	}
	video.Overlays = subtitle.EnsureWordTimings(video.Overlays)
}
