// Package compositor renders a video snapshot with its caption overlays into
// an output file. Each export runs a two-stage pipeline, ResizeAndLayer then
// ApplyFilters, over an encoder that owns the actual decode/encode work.
package compositor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ZacxDev/video-captioner/internal/ffmpeg"
	"github.com/ZacxDev/video-captioner/internal/geometry"
	"github.com/ZacxDev/video-captioner/internal/quality"
	"github.com/ZacxDev/video-captioner/internal/timeline"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultFrameRate    = 30
	DefaultFadeDuration = 0.05
)

// Encoder is the decode/encode capability the driver runs on.
type Encoder interface {
	Probe(ctx context.Context, path string) (*ffmpeg.VideoMetadata, error)
	Run(ctx context.Context, cmd ffmpeg.Command) error
}

type Options struct {
	// WorkDir holds one subdirectory per job.
	WorkDir string
	// Timeout bounds a whole export; zero disables it.
	Timeout      time.Duration
	FrameRate    int
	FadeDuration float64
	FontFile     string
	FontFamily   string
	LineSpacing  int
}

func (o Options) withDefaults() Options {
	if o.WorkDir == "" {
		o.WorkDir = filepath.Join(os.TempDir(), "captioner")
	}
	if o.FrameRate <= 0 {
		o.FrameRate = DefaultFrameRate
	}
	if o.FadeDuration <= 0 {
		o.FadeDuration = DefaultFadeDuration
	}
	return o
}

// Driver runs exports. It holds no per-job state, so one driver can serve
// concurrent exports.
type Driver struct {
	encoder   Encoder
	opts      Options
	logger    zerolog.Logger
	observers []Observer
}

// New creates a driver.
func New(encoder Encoder, opts Options, logger zerolog.Logger, observers ...Observer) *Driver {
	return &Driver{
		encoder:   encoder,
		opts:      opts.withDefaults(),
		logger:    logger.With().Str("component", "compositor").Logger(),
		observers: observers,
	}
}

type jobIDKey struct{}

// WithJobID makes StartRender use id instead of a generated job ID. The ID
// names the job in events and logs; its work directory stays unique.
func WithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, jobIDKey{}, id)
}

// jobIDFrom reports the job ID and whether the caller supplied it.
func jobIDFrom(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(jobIDKey{}).(string); ok && id != "" {
		return id, true
	}
	return uuid.NewString(), false
}

// jobDirName names the work directory of one run. Caller IDs may sanitize to
// nothing or to another job's name, so they always get a uuid suffix.
func jobDirName(id string, fromCaller bool) string {
	if !fromCaller {
		return id
	}
	name := sanitizeFilename(id)
	if name == "" {
		return uuid.NewString()
	}
	return name + "-" + uuid.NewString()
}

// prepared is a validated export, ready to run.
type prepared struct {
	video    *types.Video
	tier     quality.Tier
	timeline *timeline.Timeline
	plan     geometry.RenderPlan
	layers   []OverlayLayer
}

// prepare snapshots and validates the video. Every configuration error is
// returned from here, before any encode work.
func (d *Driver) prepare(video *types.Video, tierName types.QualityTier) (*prepared, error) {
	if video == nil {
		return nil, types.ErrMissingSource
	}
	snap := video.Snapshot()

	tier, err := quality.Get(tierName)
	if err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	if !KnownFilter(snap.Filter) {
		return nil, errors.Wrapf(ErrUnknownFilter, "%q", snap.Filter)
	}

	tl, err := timeline.FromVideo(snap)
	if err != nil {
		return nil, err
	}
	o, err := geometry.OrientationFromRotation(snap.Rotation)
	if err != nil {
		return nil, err
	}
	render := geometry.SizeFromOrientation(quality.Baseline(tier), o)
	plan, err := geometry.PlanForRotation(snap.NaturalSize, snap.Rotation, render, snap.Mirror)
	if err != nil {
		return nil, err
	}
	layers, err := BuildLayers(plan, tl, snap, d.opts.FadeDuration)
	if err != nil {
		return nil, err
	}

	return &prepared{
		video:    snap,
		tier:     tier,
		timeline: tl,
		plan:     plan,
		layers:   layers,
	}, nil
}

// StartRender exports video at the given quality tier and returns the path
// of the finished file inside the job's work directory. The video is
// snapshotted first, so the caller may keep editing it.
func (d *Driver) StartRender(ctx context.Context, video *types.Video, tier types.QualityTier) (string, error) {
	p, err := d.prepare(video, tier)
	if err != nil {
		return "", err
	}

	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	id, fromCaller := jobIDFrom(ctx)
	j := &job{
		id:     id,
		source: p.video.Source,
		tier:   tier,
		state:  StateIdle,
		notify: d.notify,
	}
	dir := filepath.Join(d.opts.WorkDir, jobDirName(id, fromCaller))
	logger := d.logger.With().Str("job", j.id).Str("tier", string(tier)).Logger()

	logger.Info().
		Str("source", p.video.Source).
		Float64("render_width", p.plan.RenderSize.Width).
		Float64("render_height", p.plan.RenderSize.Height).
		Str("orientation", p.plan.Orientation.String()).
		Int("overlays", len(p.layers)).
		Msg("starting export")

	out, err := d.run(ctx, j, p, dir, logger)
	if err != nil {
		ee := classify(j.state, err)
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logger.Warn().Err(rmErr).Msg("failed to remove job directory")
		}
		_ = j.transition(StateFailed, "", ee)
		logger.Error().Err(ee.Err).Str("kind", string(ee.Kind)).Str("stage", string(ee.Stage)).Msg("export failed")
		return "", ee
	}

	logger.Info().Str("output", out).Msg("export finished")
	return out, nil
}

func (d *Driver) run(ctx context.Context, j *job, p *prepared, dir string, logger zerolog.Logger) (string, error) {
	if err := j.transition(StateResizeAndLayer, "", nil); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &ExportError{Kind: KindCannotCreateSession, Stage: j.state, Err: errors.Wrap(err, "failed to create job directory")}
	}

	meta, err := d.encoder.Probe(ctx, p.video.Source)
	if err != nil {
		return "", encodeFailure(j.state, err)
	}

	layered := filepath.Join(dir, "layered.mp4")
	args, err := resizeAndLayerArgs(composition{
		Video:    p.video,
		Plan:     p.plan,
		Timeline: p.timeline,
		Layers:   p.layers,
		Meta:     meta,
		Tier:     p.tier,
		Dir:      dir,
		Output:   layered,
		Opts:     d.opts,
	})
	if err != nil {
		return "", err
	}
	if err := d.encode(ctx, j, args, layered, logger); err != nil {
		return "", err
	}

	if err := j.transition(StateApplyFilters, layered, nil); err != nil {
		return "", err
	}

	final := filepath.Join(dir, outputName(p.video.Source, p.tier))
	if !NeedsFilterPass(p.video) {
		logger.Debug().Msg("no filters configured, passing layered output through")
		if err := os.Rename(layered, final); err != nil {
			return "", errors.Wrap(err, "failed to finalize output")
		}
	} else {
		hasAudio := meta.HasAudio || p.video.SecondaryAudio != ""
		args := applyFiltersArgs(p.video, p.tier, hasAudio, layered, final)
		if err := d.encode(ctx, j, args, final, logger); err != nil {
			return "", err
		}
		if err := os.Remove(layered); err != nil {
			logger.Warn().Err(err).Msg("failed to remove intermediate file")
		}
	}

	if err := j.transition(StateDone, final, nil); err != nil {
		return "", err
	}
	return final, nil
}

// encode runs one stage and checks that it produced its output file.
func (d *Driver) encode(ctx context.Context, j *job, args []string, output string, logger zerolog.Logger) error {
	logger.Debug().Str("stage", string(j.state)).Strs("args", args).Msg("encoding")

	err := d.encoder.Run(ctx, ffmpeg.Command{Args: args, OutputPath: output, Stage: string(j.state)})
	if err != nil {
		return encodeFailure(j.state, err)
	}
	if err := ctx.Err(); err != nil {
		return encodeFailure(j.state, err)
	}
	if info, err := os.Stat(output); err != nil || info.Size() == 0 {
		return &ExportError{Kind: KindFailed, Stage: j.state, Err: errors.Wrap(ErrNoOutput, output)}
	}
	return nil
}

func (d *Driver) notify(e Event) {
	d.logger.Debug().Str("job", e.JobID).Str("state", string(e.State)).Msg("state change")
	for _, o := range d.observers {
		o.OnStateChange(e)
	}
}

func outputName(source string, tier quality.Tier) string {
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	name := sanitizeFilename(base)
	if name == "" {
		name = "export"
	}
	ext := ffmpeg.GetCodecSettings(tier.GetOutputFormat()).FileExtension
	return fmt.Sprintf("%s-%s%s", name, tier.GetName(), ext)
}

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9-_.]`)
	underscores = regexp.MustCompile(`_+`)
)

func sanitizeFilename(filename string) string {
	sanitized := unsafeChars.ReplaceAllString(filename, "_")
	sanitized = underscores.ReplaceAllString(sanitized, "_")
	return strings.Trim(sanitized, "_.")
}
