package lyria

import (
	"context"
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// DefaultDeviceBuffer is the speaker buffer length used when none is given
const DefaultDeviceBuffer = 100 * time.Millisecond

// SpeakerOutput plays a Timeline through the system audio device
type SpeakerOutput struct {
	*Timeline
	rec *Recorder
}

// NewSpeakerOutput initialises the speaker at the stream format and starts
// playing the timeline. rec may be nil.
func NewSpeakerOutput(bufferSize time.Duration, rec *Recorder) (*SpeakerOutput, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultDeviceBuffer
	}
	if err := speaker.Init(Format.SampleRate, Format.SampleRate.N(bufferSize)); err != nil {
		return nil, fmt.Errorf("failed to initialise speaker: %w", err)
	}

	tl := NewTimeline()
	var s beep.Streamer = tl
	if rec != nil {
		s = rec.Tee(tl)
	}
	speaker.Play(s)

	return &SpeakerOutput{Timeline: tl, rec: rec}, nil
}

// Close stops the device and flushes the recording, if any
func (o *SpeakerOutput) Close() error {
	speaker.Clear()
	speaker.Close()
	if o.rec != nil {
		return o.rec.Save()
	}
	return nil
}

// HeadlessOutput drives a Timeline from the wall clock without an audio
// device, for servers and for recording to file only.
type HeadlessOutput struct {
	*Timeline
	rec    *Recorder
	cancel context.CancelFunc
	done   chan struct{}
}

const headlessTick = 10 * time.Millisecond

// NewHeadlessOutput starts pulling the timeline in real time. rec may be nil.
func NewHeadlessOutput(rec *Recorder) *HeadlessOutput {
	ctx, cancel := context.WithCancel(context.Background())
	o := &HeadlessOutput{
		Timeline: NewTimeline(),
		rec:      rec,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go o.run(ctx)
	return o
}

func (o *HeadlessOutput) run(ctx context.Context) {
	defer close(o.done)

	var s beep.Streamer = o.Timeline
	if o.rec != nil {
		s = o.rec.Tee(o.Timeline)
	}

	start := time.Now()
	pulled := 0
	block := make([][2]float64, Format.SampleRate.N(headlessTick)*2)
	ticker := time.NewTicker(headlessTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			due := Format.SampleRate.N(time.Since(start))
			for pulled < due {
				n := min(due-pulled, len(block))
				s.Stream(block[:n])
				pulled += n
			}
		}
	}
}

// Close stops the clock and flushes the recording, if any
func (o *HeadlessOutput) Close() error {
	o.cancel()
	<-o.done
	if o.rec != nil {
		return o.rec.Save()
	}
	return nil
}
