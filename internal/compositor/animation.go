package compositor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ZacxDev/video-captioner/internal/timeline"
)

// Keyframe is a value at an output timestamp in seconds.
type Keyframe struct {
	Time  float64
	Value float64
}

// Animation interpolates linearly between keyframes sorted by time and holds
// the first and last values outside them.
type Animation struct {
	Keyframes []Keyframe
}

// ValueAt evaluates the animation at output time t.
func (a Animation) ValueAt(t float64) float64 {
	kf := a.Keyframes
	if len(kf) == 0 {
		return 1
	}
	if t < kf[0].Time {
		return kf[0].Value
	}
	for i := 0; i < len(kf)-1; i++ {
		from, to := kf[i], kf[i+1]
		if t < to.Time {
			return lerp(from, to, t)
		}
	}
	return kf[len(kf)-1].Value
}

// Expr renders the animation as an ffmpeg expression of t, evaluating to the
// same values as ValueAt.
func (a Animation) Expr() string {
	kf := a.Keyframes
	if len(kf) == 0 {
		return "1"
	}

	expr := num(kf[len(kf)-1].Value)
	for i := len(kf) - 2; i >= 0; i-- {
		from, to := kf[i], kf[i+1]
		expr = fmt.Sprintf("if(lt(t,%s),%s,%s)", num(to.Time), segmentExpr(from, to), expr)
	}
	return expr
}

func lerp(from, to Keyframe, t float64) float64 {
	dt := to.Time - from.Time
	if dt <= 0 || from.Value == to.Value {
		return from.Value
	}
	p := timeline.Clamp((t-from.Time)/dt, 0, 1)
	return from.Value + (to.Value-from.Value)*p
}

func segmentExpr(from, to Keyframe) string {
	dt := to.Time - from.Time
	if dt <= 0 || from.Value == to.Value {
		return num(from.Value)
	}
	return fmt.Sprintf("%s+(%s)*clip((t-%s)/%s,0,1)",
		num(from.Value), num(to.Value-from.Value), num(from.Time), num(dt))
}

// FadeAnimation builds the opacity keyframes of an overlay visible over
// window in an output of the given total duration.
func FadeAnimation(window timeline.TimeRange, total, fade float64) Animation {
	start, end := window.Start, window.End()

	var kf []Keyframe
	if start > 0 {
		kf = append(kf,
			Keyframe{Time: 0, Value: 0},
			Keyframe{Time: start, Value: 0},
			Keyframe{Time: start + fade, Value: 1},
		)
	} else {
		kf = append(kf, Keyframe{Time: 0, Value: 1})
	}

	if end < total {
		fadeOut := math.Max(end, kf[len(kf)-1].Time)
		kf = append(kf,
			Keyframe{Time: fadeOut, Value: 1},
			Keyframe{Time: fadeOut + fade, Value: 0},
		)
	}
	return Animation{Keyframes: kf}
}

// num formats v for filter expressions with at most four decimals.
func num(v float64) string {
	s := strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return strings.TrimSuffix(s, ".0")
}
