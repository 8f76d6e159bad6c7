package compositor

import (
	"context"
	"fmt"

	"github.com/ZacxDev/video-captioner/internal/ffmpeg"
	"github.com/pkg/errors"
)

// Kind classifies an export failure.
type Kind string

const (
	KindUnknown             Kind = "unknown"
	KindCancelled           Kind = "cancelled"
	KindCannotCreateSession Kind = "cannotCreateSession"
	KindFailed              Kind = "failed"
)

var (
	ErrUnknownFilter = errors.New("unknown filter")
	ErrNoOutput      = errors.New("encoder produced no output")
)

// ExportError is the typed failure of one export attempt.
type ExportError struct {
	Kind  Kind
	Stage State
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s during %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// classify types an error raised while the job was in stage.
func classify(stage State, err error) *ExportError {
	var ee *ExportError
	if errors.As(err, &ee) {
		return ee
	}

	kind := KindUnknown
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = KindCancelled
	case errors.Is(err, ffmpeg.ErrBinaryNotFound):
		kind = KindCannotCreateSession
	}
	return &ExportError{Kind: kind, Stage: stage, Err: err}
}

// encodeFailure types an error returned by the encoder itself: anything not
// otherwise classified is a codec/runtime failure.
func encodeFailure(stage State, err error) *ExportError {
	ee := classify(stage, err)
	if ee.Kind == KindUnknown {
		// classify may hand back the caller's own error; retype a copy
		failed := *ee
		failed.Kind = KindFailed
		return &failed
	}
	return ee
}

// KindOf returns the failure kind of err, or KindUnknown when err is not an
// export failure.
func KindOf(err error) Kind {
	var ee *ExportError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindUnknown
}
