package ffmpeg

import (
	"bytes"
	"context"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ErrBinaryNotFound means the encoder could not be started at all.
var ErrBinaryNotFound = errors.New("ffmpeg binary not found")

const (
	defaultProbeTimeout = 30 * time.Second
	stderrTail          = 4096
)

// Command is one encoder invocation.
type Command struct {
	Args       []string
	OutputPath string
	// Stage names the export stage for logs and errors.
	Stage string
}

// Processor wraps FFmpeg functionality
type Processor struct {
	binary string
	logger zerolog.Logger
}

// NewProcessor creates a new FFmpeg processor. An empty binary means "ffmpeg"
// from PATH.
func NewProcessor(binary string, logger zerolog.Logger) *Processor {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Processor{
		binary: binary,
		logger: logger.With().Str("component", "ffmpeg").Logger(),
	}
}

// Probe retrieves metadata about a video file
func (p *Processor) Probe(ctx context.Context, path string) (*VideoMetadata, error) {
	timeout := defaultProbeTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	probe, err := ffmpeg.ProbeWithTimeout(path, timeout, ffmpeg.KwArgs{})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, errors.Wrapf(err, "error probing %s", path)
	}

	meta, err := ParseProbe(probe)
	if err != nil {
		return nil, errors.Wrapf(err, "error probing %s", path)
	}
	return meta, nil
}

// Run executes cmd and blocks until ffmpeg exits. Cancelling ctx kills the
// process.
func (p *Processor) Run(ctx context.Context, cmd Command) error {
	p.logger.Debug().
		Str("stage", cmd.Stage).
		Str("output", cmd.OutputPath).
		Strs("args", cmd.Args).
		Msg("running ffmpeg")

	stderr := &tailBuffer{max: stderrTail}
	c := exec.CommandContext(ctx, p.binary, cmd.Args...)
	c.Stderr = stderr

	start := time.Now()
	err := c.Run()
	if err == nil {
		p.logger.Debug().
			Str("stage", cmd.Stage).
			Dur("elapsed", time.Since(start)).
			Msg("ffmpeg finished")
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(ErrBinaryNotFound, "%s: %v", p.binary, err)
	}
	return errors.Wrapf(err, "ffmpeg %s failed: %s", cmd.Stage, strings.TrimSpace(stderr.String()))
}

// tailBuffer keeps only the last max bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	n := len(p)
	t.buf.Write(p)
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
	return n, nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}
