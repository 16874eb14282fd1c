package lyria

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constBuffer(frames int, v float64) *Buffer {
	samples := make([][2]float64, frames)
	for i := range samples {
		samples[i] = [2]float64{v, v}
	}
	return &Buffer{Samples: samples}
}

func pull(t *testing.T, tl *Timeline, frames int) [][2]float64 {
	t.Helper()
	out := make([][2]float64, frames)
	n, ok := tl.Stream(out)
	require.True(t, ok)
	require.Equal(t, frames, n)
	return out
}

func TestTimelineClockAdvancesOnSilence(t *testing.T) {
	tl := NewTimeline()
	assert.Zero(t, tl.Now())

	pull(t, tl, 4800)
	assert.Equal(t, 100*time.Millisecond, tl.Now())
}

func TestTimelinePlacesBuffersExactly(t *testing.T) {
	tl := NewTimeline()
	tl.FadeIn(0)

	// 10 frames at 48kHz starting at frame 5
	tl.Schedule(constBuffer(10, 0.5), Format.SampleRate.D(5))
	out := pull(t, tl, 20)

	for i, s := range out {
		if i >= 5 && i < 15 {
			assert.Equal(t, 0.5, s[0], "frame %d", i)
		} else {
			assert.Zero(t, s[0], "frame %d", i)
		}
	}
	assert.Zero(t, tl.Pending())
}

func TestTimelineBackToBackBuffersDoNotOverlap(t *testing.T) {
	tl := NewTimeline()
	tl.FadeIn(0)

	first := constBuffer(480, 0.25)
	tl.Schedule(first, 0)
	tl.Schedule(constBuffer(480, 0.25), first.Duration())
	out := pull(t, tl, 960)

	for i, s := range out {
		assert.Equal(t, 0.25, s[0], "frame %d", i)
	}
}

func TestTimelineMutedUntilFadeIn(t *testing.T) {
	tl := NewTimeline()
	tl.Schedule(constBuffer(100, 1), 0)

	out := pull(t, tl, 100)
	for _, s := range out {
		assert.Zero(t, s[0])
	}
}

func TestTimelineReplaceGainStage(t *testing.T) {
	tl := NewTimeline()
	tl.FadeIn(0)
	tl.Schedule(constBuffer(4800, 1), 0)
	tl.Schedule(constBuffer(4800, 1), 100*time.Millisecond)

	pull(t, tl, 10)
	tl.ReplaceGainStage(Format.SampleRate.D(100))

	out := pull(t, tl, 200)
	assert.Less(t, out[50][0], 1.0)
	assert.Greater(t, out[50][0], 0.0)
	assert.Zero(t, out[150][0])

	// the retired stage is gone, its buffers with it
	pull(t, tl, 10)
	assert.Zero(t, tl.Pending())

	// the fresh stage stays muted until faded in
	tl.Schedule(constBuffer(10, 1), tl.Now())
	out = pull(t, tl, 10)
	assert.Zero(t, out[5][0])
}

func TestSamplesAtRoundsSummedDurations(t *testing.T) {
	var at time.Duration
	for range 1000 {
		at += Format.SampleRate.D(1919)
	}
	assert.Equal(t, int64(1919000), samplesAt(at))
}
