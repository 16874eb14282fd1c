package lyria

import (
	"math"
	"sync"
	"time"
)

// Output is the audio graph decoded buffers are scheduled onto.
// Positions are measured on the output clock, which starts at zero and only
// advances while the device consumes samples.
type Output interface {
	// Now returns the current position of the output clock.
	Now() time.Duration
	// Schedule queues buf to start exactly at position at.
	Schedule(buf *Buffer, at time.Duration)
	// FadeIn ramps the active gain stage to unity.
	FadeIn(over time.Duration)
	// ReplaceGainStage fades the active stage to silence and detaches it,
	// together with everything scheduled on it. New buffers go to a fresh,
	// muted stage.
	ReplaceGainStage(fade time.Duration)
	// Close releases the device.
	Close() error
}

type scheduled struct {
	start   int64
	samples [][2]float64
}

type gainStage struct {
	queue  []scheduled
	gain   float64
	target float64
	step   float64
}

func (g *gainStage) rampTo(target float64, samples int) {
	g.target = target
	if samples <= 0 {
		g.gain = target
		g.step = 0
		return
	}
	g.step = (target - g.gain) / float64(samples)
}

func (g *gainStage) advanceGain() {
	if g.step == 0 {
		return
	}
	g.gain += g.step
	if (g.step > 0 && g.gain >= g.target) || (g.step < 0 && g.gain <= g.target) {
		g.gain = g.target
		g.step = 0
	}
}

func (g *gainStage) silent() bool {
	return g.gain == 0 && g.step == 0
}

// Timeline mixes scheduled buffers onto a sample-accurate clock. It
// implements beep.Streamer and never drains: gaps are filled with silence so
// the clock keeps running.
type Timeline struct {
	mu       sync.Mutex
	pos      int64
	active   *gainStage
	retiring []*gainStage
}

// NewTimeline returns a timeline whose active stage is muted until FadeIn
func NewTimeline() *Timeline {
	return &Timeline{active: &gainStage{}}
}

// Now implements Output.
func (t *Timeline) Now() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Format.SampleRate.D(int(t.pos))
}

// Schedule implements Output.
func (t *Timeline) Schedule(buf *Buffer, at time.Duration) {
	if buf == nil || len(buf.Samples) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active.queue = append(t.active.queue, scheduled{
		start:   samplesAt(at),
		samples: buf.Samples,
	})
}

// FadeIn implements Output.
func (t *Timeline) FadeIn(over time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active.rampTo(1, Format.SampleRate.N(over))
}

// ReplaceGainStage implements Output.
func (t *Timeline) ReplaceGainStage(fade time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	old := t.active
	old.rampTo(0, Format.SampleRate.N(fade))
	if !old.silent() {
		t.retiring = append(t.retiring, old)
	}
	t.active = &gainStage{}
}

// Close implements Output.
func (t *Timeline) Close() error { return nil }

// Stream mixes every stage into samples and advances the clock.
func (t *Timeline) Stream(samples [][2]float64) (n int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range samples {
		samples[i] = [2]float64{}
	}

	stages := append([]*gainStage{t.active}, t.retiring...)
	for _, st := range stages {
		st.mix(samples, t.pos)
	}

	kept := t.retiring[:0]
	for _, st := range t.retiring {
		if !st.silent() {
			kept = append(kept, st)
		}
	}
	t.retiring = kept
	t.pos += int64(len(samples))
	return len(samples), true
}

// Err implements beep.Streamer.
func (t *Timeline) Err() error { return nil }

// Pending reports how many buffers are queued across all stages
func (t *Timeline) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.active.queue)
	for _, st := range t.retiring {
		n += len(st.queue)
	}
	return n
}

// samplesAt converts a clock position to a sample index, rounding so that
// positions built by summing buffer durations land on exact sample boundaries.
func samplesAt(d time.Duration) int64 {
	return int64(math.Round(d.Seconds() * float64(Format.SampleRate)))
}

// mix adds the stage's queued buffers that overlap [pos, pos+len(out)) into
// out, applying the gain ramp per sample, and drops finished buffers.
func (g *gainStage) mix(out [][2]float64, pos int64) {
	end := pos + int64(len(out))
	for i := range out {
		at := pos + int64(i)
		if g.gain != 0 {
			for _, s := range g.queue {
				off := at - s.start
				if off < 0 || off >= int64(len(s.samples)) {
					continue
				}
				out[i][0] += s.samples[off][0] * g.gain
				out[i][1] += s.samples[off][1] * g.gain
			}
		}
		g.advanceGain()
	}

	kept := g.queue[:0]
	for _, s := range g.queue {
		if s.start+int64(len(s.samples)) > end {
			kept = append(kept, s)
		}
	}
	g.queue = kept
}
