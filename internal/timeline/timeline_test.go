package timeline

import (
	"testing"

	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRange(t *testing.T) {
	r, err := NewRange(1.5, 4)
	require.NoError(t, err)
	assert.Equal(t, 2.5, r.Duration)
	assert.Equal(t, 4.0, r.End())
	assert.True(t, r.Contains(1.5))
	assert.False(t, r.Contains(4))

	_, err = NewRange(4, 1.5)
	assert.True(t, errors.Is(err, ErrInvertedRange))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(10, 0, 10, 0)
	assert.True(t, errors.Is(err, ErrInvalidRate))

	_, err = New(10, 0, 10, -1)
	assert.True(t, errors.Is(err, ErrInvalidRate))

	_, err = New(0, 0, 0, 1)
	assert.True(t, errors.Is(err, ErrInvalidDuration))

	_, err = New(10, 6, 3, 1)
	assert.True(t, errors.Is(err, ErrInvertedRange))
	assert.True(t, errors.Is(err, types.ErrInvertedRange))
}

func TestNew_ClampsTrim(t *testing.T) {
	tl, err := New(10, -2, 14, 1)
	require.NoError(t, err)
	assert.Equal(t, TimeRange{Start: 0, Duration: 10}, tl.Trim)

	tl, err = New(10, 12, 15, 1)
	require.NoError(t, err)
	assert.Equal(t, TimeRange{Start: 10, Duration: 0}, tl.Trim)
}

func TestTimeline_RateMapping(t *testing.T) {
	tl, err := New(20, 2, 12, 2)
	require.NoError(t, err)

	assert.Equal(t, 10.0, tl.DisplayedDuration())
	assert.Equal(t, 5.0, tl.OutputDuration())
	assert.Equal(t, 1.5, tl.ToOutput(3))
	assert.Equal(t, 3.0, tl.ToDisplayed(1.5))
	assert.Equal(t, 5.0, tl.ToOriginal(3))

	r, err := tl.OutputRange(4, 8)
	require.NoError(t, err)
	assert.Equal(t, TimeRange{Start: 2, Duration: 2}, r)

	r, err = tl.OutputRange(8, 30)
	require.NoError(t, err)
	assert.Equal(t, TimeRange{Start: 4, Duration: 1}, r)

	_, err = tl.OutputRange(3, 1)
	assert.True(t, errors.Is(err, ErrInvertedRange))
}

func TestFromVideo(t *testing.T) {
	tl, err := FromVideo(&types.Video{OriginalDuration: 8, TrimStart: 1, Rate: 0.5})
	require.NoError(t, err)
	assert.Equal(t, 7.0, tl.DisplayedDuration())
	assert.Equal(t, 14.0, tl.OutputDuration())
}

func TestAtempoChain(t *testing.T) {
	tests := []struct {
		rate float64
		want []float64
	}{
		{rate: 1, want: []float64{1}},
		{rate: 1.5, want: []float64{1.5}},
		{rate: 4, want: []float64{2, 2}},
		{rate: 3, want: []float64{2, 1.5}},
		{rate: 0.25, want: []float64{0.5, 0.5}},
		{rate: 0.3, want: []float64{0.5, 0.6}},
	}

	for _, tt := range tests {
		got := AtempoChain(tt.rate)
		require.Len(t, got, len(tt.want), "rate %g", tt.rate)
		product := 1.0
		for i := range got {
			assert.InDelta(t, tt.want[i], got[i], 1e-12)
			assert.GreaterOrEqual(t, got[i], 0.5)
			assert.LessOrEqual(t, got[i], 2.0)
			product *= got[i]
		}
		assert.InDelta(t, tt.rate, product, 1e-12)
	}
	assert.Nil(t, AtempoChain(0))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 3, Clamp(5, 1, 3))
	assert.Equal(t, 1.0, Clamp(-1.0, 1.0, 3.0))
	assert.Equal(t, 2.5, Clamp(2.5, 1.0, 3.0))
}
