package lyria

import (
	"context"
	"encoding/base64"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/models"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type placement struct {
	at  time.Duration
	dur time.Duration
}

// fakeOutput is an Output with a manually advanced clock
type fakeOutput struct {
	mu       sync.Mutex
	now      time.Duration
	placed   []placement
	fadeIns  int
	replaced int
	closed   bool
}

func (o *fakeOutput) Now() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.now
}

func (o *fakeOutput) advance(d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.now += d
}

func (o *fakeOutput) Schedule(buf *Buffer, at time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.placed = append(o.placed, placement{at: at, dur: buf.Duration()})
}

func (o *fakeOutput) FadeIn(time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fadeIns++
}

func (o *fakeOutput) ReplaceGainStage(time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replaced++
}

func (o *fakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

func (o *fakeOutput) counts() (fadeIns, replaced int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fadeIns, o.replaced
}

func (o *fakeOutput) placements() []placement {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]placement(nil), o.placed...)
}

// fakeSession records everything sent to it. sendErrs and playErrs are
// returned by successive Send and Play calls, then nil. When sendGate is set
// every Send blocks until it is closed.
type fakeSession struct {
	mu       sync.Mutex
	requests []Request
	controls []string
	sendErrs []error
	playErrs []error
	sendGate chan struct{}
	sending  atomic.Int32
	closed   atomic.Bool
}

func (s *fakeSession) Send(_ context.Context, req Request) error {
	s.sending.Add(1)
	if s.sendGate != nil {
		<-s.sendGate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sendErrs) > 0 {
		err := s.sendErrs[0]
		s.sendErrs = s.sendErrs[1:]
		if err != nil {
			return err
		}
	}
	s.requests = append(s.requests, req)
	return nil
}

func (s *fakeSession) control(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls = append(s.controls, name)
	return nil
}

func (s *fakeSession) Play(context.Context) error {
	s.mu.Lock()
	if len(s.playErrs) > 0 {
		err := s.playErrs[0]
		s.playErrs = s.playErrs[1:]
		if err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()
	return s.control(controlPlay)
}

func (s *fakeSession) Pause(context.Context) error { return s.control(controlPause) }
func (s *fakeSession) Stop(context.Context) error { return s.control(controlStop) }

func (s *fakeSession) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *fakeSession) sent() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *fakeSession) sentControls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.controls...)
}

// fakeDialer hands out sessions from next, or fresh ones when it runs out.
// When gate is set every dial blocks until it is closed.
type fakeDialer struct {
	mu       sync.Mutex
	next     []*fakeSession
	sessions []*fakeSession
	handlers []Handler
	dialErr  error
	gate     chan struct{}
	dials    atomic.Int32
}

func (d *fakeDialer) Dial(ctx context.Context, h Handler) (Session, error) {
	d.dials.Add(1)
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	s := &fakeSession{}
	if len(d.next) > 0 {
		s = d.next[0]
		d.next = d.next[1:]
	}
	d.sessions = append(d.sessions, s)
	d.handlers = append(d.handlers, h)
	return s, nil
}

func (d *fakeDialer) session(i int) *fakeSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessions[i]
}

func (d *fakeDialer) handler(i int) Handler {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handlers[i]
}

// eventLog collects events delivered to a subscriber
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) listen(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) of(t EventType) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Event
	for _, e := range l.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (l *eventLog) states() []PlaybackState {
	var out []PlaybackState
	for _, e := range l.of(EventStateChanged) {
		out = append(out, e.State)
	}
	return out
}

// pcmChunk returns a base64 chunk of silent stereo frames
func pcmChunk(frames int) AudioChunk {
	raw := make([]byte, frames*Format.Width())
	return AudioChunk{Data: base64.StdEncoding.EncodeToString(raw), MimeType: "audio/l16"}
}

func prompts(texts ...string) []models.WeightedPrompt {
	out := make([]models.WeightedPrompt, 0, len(texts))
	for _, t := range texts {
		out = append(out, models.WeightedPrompt{Text: t, Weight: models.DefaultPromptWeight})
	}
	return out
}
