package compositor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ZacxDev/video-captioner/internal/ffmpeg"
	"github.com/ZacxDev/video-captioner/internal/quality"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEncoder struct {
	mu       sync.Mutex
	meta     ffmpeg.VideoMetadata
	probeErr error
	runErr   map[State]error
	block    State
	noOutput bool
	commands []ffmpeg.Command
}

func newFakeEncoder() *fakeEncoder {
	return &fakeEncoder{
		meta: ffmpeg.VideoMetadata{Duration: 10, Width: 1920, Height: 1080, HasAudio: true},
	}
}

func (f *fakeEncoder) Probe(ctx context.Context, path string) (*ffmpeg.VideoMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	meta := f.meta
	return &meta, nil
}

func (f *fakeEncoder) Run(ctx context.Context, cmd ffmpeg.Command) error {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	f.mu.Unlock()

	stage := State(cmd.Stage)
	if err := f.runErr[stage]; err != nil {
		return err
	}
	if f.block == stage {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.noOutput {
		return nil
	}
	return os.WriteFile(cmd.OutputPath, []byte("encoded"), 0o644)
}

func (f *fakeEncoder) Commands() []ffmpeg.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ffmpeg.Command(nil), f.commands...)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnStateChange(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []State
	for _, e := range r.events {
		out = append(out, e.State)
	}
	return out
}

func landscapeVideo() *types.Video {
	return &types.Video{
		Source:           "/videos/My Clip.mov",
		NaturalSize:      types.Size{Width: 1920, Height: 1080},
		OriginalDuration: 10,
		Rate:             1,
		EditorSize:       types.Size{Width: 1280, Height: 720},
		Overlays: []types.TextOverlay{
			{ID: "hi", Text: "Hi", FontSize: 32, TextColor: "#FFFFFF", Start: 0, End: 3},
		},
	}
}

func newTestDriver(t *testing.T, enc Encoder, observers ...Observer) (*Driver, string) {
	dir := t.TempDir()
	return New(enc, Options{WorkDir: dir}, zerolog.Nop(), observers...), dir
}

func joined(cmd ffmpeg.Command) string {
	return strings.Join(cmd.Args, " ")
}

func TestStartRender_LandscapePassThrough(t *testing.T) {
	enc := newFakeEncoder()
	rec := &recorder{}
	d, workDir := newTestDriver(t, enc, rec)

	out, err := d.StartRender(context.Background(), landscapeVideo(), types.QualityTier720p)
	require.NoError(t, err)

	assert.FileExists(t, out)
	assert.Equal(t, "My_Clip-720p.mp4", filepath.Base(out))
	assert.True(t, strings.HasPrefix(out, workDir))

	cmds := enc.Commands()
	require.Len(t, cmds, 1, "no filters means no second encode")
	args := joined(cmds[0])
	assert.Contains(t, args, "scale=1280:720")
	assert.Contains(t, args, "crop=1280:720:0:0")
	assert.Contains(t, args, "drawtext")
	assert.Contains(t, args, "autorotate")
	assert.NotContains(t, args, "transpose")
	assert.NotContains(t, args, "hflip")
	assert.NotContains(t, args, "atempo", "rate 1 needs no tempo change")

	assert.Equal(t, []State{StateResizeAndLayer, StateApplyFilters, StateDone}, rec.States())
	assert.Equal(t, out, rec.events[2].OutputPath)
}

func TestStartRender_OverlayRunningToEndStaysEnabled(t *testing.T) {
	enc := newFakeEncoder()
	d, _ := newTestDriver(t, enc)

	v := landscapeVideo()
	v.Overlays = []types.TextOverlay{
		{ID: "full", Text: "Whole clip", FontSize: 32, Start: 0, End: 10},
		{ID: "late", Text: "Last cue", FontSize: 32, Start: 2, End: 10},
	}
	_, err := d.StartRender(context.Background(), v, types.QualityTier720p)
	require.NoError(t, err)

	args := joined(enc.Commands()[0])
	assert.Contains(t, args, `between(t\,0\,10)`)
	assert.Contains(t, args, `between(t\,2\,10)`)
}

func TestStartRender_PortraitSwapsRenderSize(t *testing.T) {
	enc := newFakeEncoder()
	d, _ := newTestDriver(t, enc)

	v := landscapeVideo()
	v.NaturalSize = types.Size{Width: 1080, Height: 1920}
	v.Rotation = 90

	_, err := d.StartRender(context.Background(), v, types.QualityTier720p)
	require.NoError(t, err)

	args := joined(enc.Commands()[0])
	assert.Contains(t, args, "transpose=clock")
	assert.Contains(t, args, "crop=720:1280:")
}

func TestStartRender_FilterPass(t *testing.T) {
	enc := newFakeEncoder()
	rec := &recorder{}
	d, _ := newTestDriver(t, enc, rec)

	v := landscapeVideo()
	v.Filter = FilterWarm
	v.ColorAdjust = types.ColorAdjust{Brightness: 0.1, Contrast: 0.2}

	out, err := d.StartRender(context.Background(), v, types.QualityTier1080p)
	require.NoError(t, err)
	assert.FileExists(t, out)

	cmds := enc.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, string(StateResizeAndLayer), cmds[0].Stage)
	assert.Equal(t, string(StateApplyFilters), cmds[1].Stage)

	args := joined(cmds[1])
	assert.Contains(t, args, "colortemperature")
	assert.Contains(t, args, "eq=brightness=0.1")
	assert.Less(t, strings.Index(args, "colortemperature"), strings.Index(args, "eq=brightness"),
		"named filter runs before the color adjustment")
	assert.Contains(t, cmds[1].Args, "copy", "audio is copied")

	assert.NoFileExists(t, cmds[0].OutputPath, "intermediate removed after re-encode")
	assert.Equal(t, out, cmds[1].OutputPath)
}

func TestStartRender_Effects(t *testing.T) {
	enc := newFakeEncoder()
	d, _ := newTestDriver(t, enc)

	v := landscapeVideo()
	v.Mirror = true
	v.Rate = 2
	v.TrimStart = 2
	v.TrimEnd = 8
	v.SecondaryAudio = "/music/track.m4a"
	v.Frame = &types.Frame{Color: "#202020", Scale: 0.8}

	_, err := d.StartRender(context.Background(), v, types.QualityTier720p)
	require.NoError(t, err)

	args := joined(enc.Commands()[0])
	assert.Contains(t, args, "hflip")
	assert.Contains(t, args, "atempo=2")
	assert.Contains(t, args, "amix")
	assert.Contains(t, args, "lavfi")
	assert.Contains(t, args, "overlay")
	assert.Contains(t, args, "/music/track.m4a")
	assert.Contains(t, enc.Commands()[0].Args, "3", "output duration is the trimmed duration over the rate")
}

func TestStartRender_KaraokeWordLayers(t *testing.T) {
	enc := newFakeEncoder()
	d, _ := newTestDriver(t, enc)

	v := landscapeVideo()
	v.Overlays[0] = types.TextOverlay{
		ID: "k", Text: "Hello big world", FontSize: 32, Start: 1, End: 4,
		Karaoke: &types.Karaoke{
			Mode: types.KaraokeModeBackground,
			Words: []types.WordTiming{
				{Text: "Hello", Start: 1, End: 2},
				{Text: "big", Start: 2, End: 3},
				{Text: "world", Start: 3, End: 4},
			},
			WordBackgroundColor: "#FF0000",
		},
	}

	_, err := d.StartRender(context.Background(), v, types.QualityTier720p)
	require.NoError(t, err)

	args := joined(enc.Commands()[0])
	assert.Equal(t, 4, strings.Count(args, "drawtext"), "one line plus three words")
}

func TestStartRender_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *types.Video)
		tier   types.QualityTier
		target error
	}{
		{"zero rate", func(v *types.Video) { v.Rate = 0 }, types.QualityTier720p, types.ErrInvalidRate},
		{"inverted trim", func(v *types.Video) { v.TrimStart, v.TrimEnd = 5, 2 }, types.QualityTier720p, types.ErrInvertedRange},
		{"odd rotation", func(v *types.Video) { v.Rotation = 45 }, types.QualityTier720p, types.ErrUnsupportedRotation},
		{"unknown filter", func(v *types.Video) { v.Filter = "glitter" }, types.QualityTier720p, ErrUnknownFilter},
		{"missing source", func(v *types.Video) { v.Source = "" }, types.QualityTier720p, types.ErrMissingSource},
		{"unknown tier", func(v *types.Video) {}, "8k", quality.ErrUnknownTier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := newFakeEncoder()
			rec := &recorder{}
			d, _ := newTestDriver(t, enc, rec)

			v := landscapeVideo()
			tt.mutate(v)

			_, err := d.StartRender(context.Background(), v, tt.tier)
			assert.ErrorIs(t, err, tt.target)
			assert.Empty(t, enc.Commands(), "rejected before any encode work")
			assert.Empty(t, rec.States())
		})
	}
}

func TestStartRender_FailureKinds(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fakeEncoder)
		kind  Kind
		stage State
	}{
		{
			name:  "codec error",
			setup: func(f *fakeEncoder) { f.runErr = map[State]error{StateResizeAndLayer: errors.New("codec exploded")} },
			kind:  KindFailed,
			stage: StateResizeAndLayer,
		},
		{
			name:  "missing encoder",
			setup: func(f *fakeEncoder) { f.runErr = map[State]error{StateResizeAndLayer: ffmpeg.ErrBinaryNotFound} },
			kind:  KindCannotCreateSession,
			stage: StateResizeAndLayer,
		},
		{
			name:  "filter stage error",
			setup: func(f *fakeEncoder) { f.runErr = map[State]error{StateApplyFilters: errors.New("eq failed")} },
			kind:  KindFailed,
			stage: StateApplyFilters,
		},
		{
			name:  "probe error",
			setup: func(f *fakeEncoder) { f.probeErr = errors.New("moov atom not found") },
			kind:  KindFailed,
			stage: StateResizeAndLayer,
		},
		{
			name:  "no output written",
			setup: func(f *fakeEncoder) { f.noOutput = true },
			kind:  KindFailed,
			stage: StateResizeAndLayer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := newFakeEncoder()
			tt.setup(enc)
			rec := &recorder{}
			d, workDir := newTestDriver(t, enc, rec)

			v := landscapeVideo()
			v.Filter = FilterMono

			out, err := d.StartRender(context.Background(), v, types.QualityTier720p)
			assert.Empty(t, out)

			var ee *ExportError
			require.True(t, errors.As(err, &ee), "got %v", err)
			assert.Equal(t, tt.kind, ee.Kind)
			assert.Equal(t, tt.stage, ee.Stage)
			assert.Equal(t, tt.kind, KindOf(err))

			states := rec.States()
			assert.Equal(t, StateFailed, states[len(states)-1])

			entries, err := os.ReadDir(workDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "job directory removed on failure")
		})
	}
}

func TestStartRender_Cancelled(t *testing.T) {
	enc := newFakeEncoder()
	d, _ := newTestDriver(t, enc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.StartRender(ctx, landscapeVideo(), types.QualityTier720p)
	assert.Equal(t, KindCancelled, KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStartRender_Timeout(t *testing.T) {
	enc := newFakeEncoder()
	enc.block = StateResizeAndLayer
	d := New(enc, Options{WorkDir: t.TempDir(), Timeout: 20 * time.Millisecond}, zerolog.Nop())

	_, err := d.StartRender(context.Background(), landscapeVideo(), types.QualityTier720p)
	assert.Equal(t, KindCancelled, KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEncodeFailure_KeepsCallerError(t *testing.T) {
	own := &ExportError{Kind: KindUnknown, Stage: StateApplyFilters, Err: errors.New("muxer hiccup")}

	ee := encodeFailure(StateResizeAndLayer, errors.Wrap(own, "run"))
	assert.Equal(t, KindFailed, ee.Kind)
	assert.Equal(t, StateApplyFilters, ee.Stage)
	assert.NotSame(t, own, ee)
	assert.Equal(t, KindUnknown, own.Kind, "caller's error is not retyped")

	cancelled := &ExportError{Kind: KindCancelled, Stage: StateApplyFilters, Err: context.Canceled}
	assert.Same(t, cancelled, encodeFailure(StateApplyFilters, cancelled))
}

func TestStartRender_ConcurrentJobsUseUniquePaths(t *testing.T) {
	enc := newFakeEncoder()
	d, _ := newTestDriver(t, enc)
	v := landscapeVideo()

	const jobs = 4
	outputs := make([]string, jobs)
	var wg sync.WaitGroup
	for i := 0; i < jobs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := d.StartRender(context.Background(), v, types.QualityTier480p)
			assert.NoError(t, err)
			outputs[i] = out
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, out := range outputs {
		assert.False(t, seen[out], "duplicate output %s", out)
		seen[out] = true
	}
}

func TestStartRender_JobIDFromContext(t *testing.T) {
	enc := newFakeEncoder()
	rec := &recorder{}
	d, workDir := newTestDriver(t, enc, rec)

	out, err := d.StartRender(WithJobID(context.Background(), "job-42"), landscapeVideo(), types.QualityTier720p)
	require.NoError(t, err)

	assert.Equal(t, workDir, filepath.Dir(filepath.Dir(out)))
	assert.True(t, strings.HasPrefix(filepath.Base(filepath.Dir(out)), "job-42-"))
	assert.Equal(t, "job-42", rec.events[0].JobID)
}

func TestStartRender_UnsafeJobIDKeepsOtherJobs(t *testing.T) {
	for _, id := range []string{"..", "///", "???", "a/b"} {
		t.Run(id, func(t *testing.T) {
			enc := newFakeEncoder()
			enc.runErr = map[State]error{StateResizeAndLayer: errors.New("codec exploded")}
			rec := &recorder{}
			d, workDir := newTestDriver(t, enc, rec)

			other := filepath.Join(workDir, "other-job")
			require.NoError(t, os.MkdirAll(other, 0o755))

			_, err := d.StartRender(WithJobID(context.Background(), id), landscapeVideo(), types.QualityTier720p)
			require.Error(t, err)

			assert.DirExists(t, other)
			cmds := enc.Commands()
			require.Len(t, cmds, 1)
			jobDir := filepath.Dir(cmds[0].OutputPath)
			assert.NotEqual(t, workDir, jobDir)
			assert.Equal(t, workDir, filepath.Dir(jobDir))
			assert.Equal(t, id, rec.events[0].JobID)
		})
	}
}

func TestStartRender_CollidingJobIDsGetSeparateDirs(t *testing.T) {
	enc := newFakeEncoder()
	d, _ := newTestDriver(t, enc)

	first, err := d.StartRender(WithJobID(context.Background(), "a/b"), landscapeVideo(), types.QualityTier720p)
	require.NoError(t, err)
	second, err := d.StartRender(WithJobID(context.Background(), "a_b"), landscapeVideo(), types.QualityTier720p)
	require.NoError(t, err)

	assert.NotEqual(t, filepath.Dir(first), filepath.Dir(second))
	assert.FileExists(t, first)
	assert.FileExists(t, second)
}

func TestStartRender_DoesNotMutateInput(t *testing.T) {
	enc := newFakeEncoder()
	d, _ := newTestDriver(t, enc)

	v := landscapeVideo()
	before := v.Snapshot()
	_, err := d.StartRender(context.Background(), v, types.QualityTier720p)
	require.NoError(t, err)
	assert.Equal(t, before, v)
}
