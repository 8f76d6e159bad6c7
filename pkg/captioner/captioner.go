// Package captioner is the public entry point for rendering captioned videos.
// It wires the configuration into the export driver and exposes the text
// fitting and karaoke helpers an editor needs while building overlays.
package captioner

import (
	"context"

	"github.com/ZacxDev/video-captioner/internal/compositor"
	"github.com/ZacxDev/video-captioner/internal/config"
	"github.com/ZacxDev/video-captioner/internal/ffmpeg"
	"github.com/ZacxDev/video-captioner/internal/quality"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Renderer exports videos with the settings of one configuration.
type Renderer struct {
	encoder compositor.Encoder
	driver  *compositor.Driver
	logger  zerolog.Logger
}

// NewRenderer builds a renderer running the configured ffmpeg binary.
func NewRenderer(cfg *config.Config, logger zerolog.Logger, observers ...compositor.Observer) *Renderer {
	return newRenderer(ffmpeg.NewProcessor(cfg.FFmpeg.Binary, logger), cfg, logger, observers...)
}

func newRenderer(encoder compositor.Encoder, cfg *config.Config, logger zerolog.Logger, observers ...compositor.Observer) *Renderer {
	opts := compositor.Options{
		WorkDir:      cfg.Render.WorkDir,
		Timeout:      cfg.Render.Timeout,
		FrameRate:    cfg.Render.FrameRate,
		FadeDuration: cfg.Render.FadeDuration,
		FontFile:     cfg.Text.FontFile,
		FontFamily:   cfg.Text.FontFamily,
		LineSpacing:  cfg.Text.LineSpacing,
	}
	return &Renderer{
		encoder: encoder,
		driver:  compositor.New(encoder, opts, logger, observers...),
		logger:  logger,
	}
}

// StartRender exports video at tier and returns the output file path. A video
// without a natural size or duration is probed first, on a copy. Errors raised
// after the export started are *compositor.ExportError values.
func (r *Renderer) StartRender(ctx context.Context, video *types.Video, tier types.QualityTier) (string, error) {
	if video != nil && video.Source != "" && (video.NaturalSize.IsZero() || video.OriginalDuration <= 0) {
		video = video.Snapshot()
		if err := r.FillMetadata(ctx, video); err != nil {
			return "", err
		}
	}
	return r.driver.StartRender(ctx, video, tier)
}

// FillMetadata probes the source for whatever the project left unset: the
// natural size with its rotation, and the original duration.
func (r *Renderer) FillMetadata(ctx context.Context, video *types.Video) error {
	if video.Source == "" {
		return types.ErrMissingSource
	}
	if !video.NaturalSize.IsZero() && video.OriginalDuration > 0 {
		return nil
	}

	meta, err := r.encoder.Probe(ctx, video.Source)
	if err != nil {
		return errors.Wrapf(err, "failed to read metadata of %s", video.Source)
	}

	if video.NaturalSize.IsZero() {
		video.NaturalSize = types.Size{Width: float64(meta.Width), Height: float64(meta.Height)}
		video.Rotation = meta.Rotation
	}
	if video.OriginalDuration <= 0 {
		video.OriginalDuration = meta.Duration
	}

	r.logger.Debug().
		Str("source", video.Source).
		Float64("duration", video.OriginalDuration).
		Float64("width", video.NaturalSize.Width).
		Float64("height", video.NaturalSize.Height).
		Int("rotation", video.Rotation).
		Msg("filled video metadata")
	return nil
}

// SupportedTiers lists the quality tier names in ascending resolution.
func SupportedTiers() []string {
	return quality.Supported()
}
