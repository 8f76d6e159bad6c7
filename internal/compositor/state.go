package compositor

import (
	"time"

	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
)

// State is a stage of the export pipeline.
type State string

const (
	StateIdle           State = "idle"
	StateResizeAndLayer State = "resize_and_layer"
	StateApplyFilters   State = "apply_filters"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

var transitions = map[State][]State{
	StateIdle:           {StateResizeAndLayer},
	StateResizeAndLayer: {StateApplyFilters, StateFailed},
	StateApplyFilters:   {StateDone, StateFailed},
}

// Terminal reports whether no further transition can leave s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Event describes one state transition of an export job.
type Event struct {
	JobID      string
	Source     string
	Tier       types.QualityTier
	State      State
	OutputPath string
	Err        error
	Time       time.Time
}

// Observer is notified of every state transition. Calls are made
// synchronously from the job's goroutine.
type Observer interface {
	OnStateChange(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnStateChange(e Event) { f(e) }

type job struct {
	id     string
	source string
	tier   types.QualityTier
	state  State
	notify func(Event)
}

func (j *job) transition(to State, output string, cause error) error {
	allowed := false
	for _, s := range transitions[j.state] {
		if s == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return errors.Errorf("invalid transition %s -> %s", j.state, to)
	}

	j.state = to
	j.notify(Event{
		JobID:      j.id,
		Source:     j.source,
		Tier:       j.tier,
		State:      to,
		OutputPath: output,
		Err:        cause,
		Time:       time.Now(),
	})
	return nil
}
