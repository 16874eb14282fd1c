package lyria

import (
	"fmt"
	"os"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// Recorder captures everything sent to the device and writes it as a WAV file
type Recorder struct {
	mu   sync.Mutex
	path string
	buf  *beep.Buffer
}

// NewRecorder returns a recorder that saves to path
func NewRecorder(path string) *Recorder {
	return &Recorder{
		path: path,
		buf:  beep.NewBuffer(Format),
	}
}

// Tee returns a streamer that passes s through and records what it produced
func (r *Recorder) Tee(s beep.Streamer) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		n, ok := s.Stream(samples)
		if n > 0 {
			r.mu.Lock()
			r.buf.Append(&chunkStreamer{samples: samples[:n]})
			r.mu.Unlock()
		}
		return n, ok
	})
}

// Duration returns how much audio has been captured
func (r *Recorder) Duration() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Format.SampleRate.D(r.buf.Len()).String()
}

// Save encodes the captured audio to the recorder's path
func (r *Recorder) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}
	defer f.Close()

	if err := wav.Encode(f, r.buf.Streamer(0, r.buf.Len()), Format); err != nil {
		return fmt.Errorf("failed to encode recording: %w", err)
	}
	return nil
}

// chunkStreamer streams a fixed slice of samples once
type chunkStreamer struct {
	samples [][2]float64
	pos     int
}

func (c *chunkStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	if c.pos >= len(c.samples) {
		return 0, false
	}
	n = copy(samples, c.samples[c.pos:])
	c.pos += n
	return n, true
}

func (c *chunkStreamer) Err() error { return nil }
