package lyria

import "time"

// DefaultBufferLead is the pre-roll between the first buffer arriving and
// audible playback, absorbing early network jitter.
const DefaultBufferLead = 2 * time.Second

// Decision reports what the scheduler did with a buffer
type Decision int

const (
	// Scheduled means the buffer was placed directly after the previous one.
	Scheduled Decision = iota
	// Primed means this was the first buffer since a reset; it was placed one
	// lead time ahead and playback becomes audible when that elapses.
	Primed
	// Underrun means the buffer arrived after its slot had passed and was
	// dropped; the next buffer re-primes.
	Underrun
)

func (d Decision) String() string {
	switch d {
	case Primed:
		return "primed"
	case Underrun:
		return "underrun"
	default:
		return "scheduled"
	}
}

// Scheduler places decoded buffers back to back on an Output so consecutive
// buffers neither gap nor overlap. It is not safe for concurrent use; the
// Manager serialises calls in arrival order.
type Scheduler struct {
	out       Output
	lead      time.Duration
	primed    bool
	nextStart time.Duration
}

// NewScheduler returns a scheduler writing to out with the given pre-roll
func NewScheduler(out Output, lead time.Duration) *Scheduler {
	if lead <= 0 {
		lead = DefaultBufferLead
	}
	return &Scheduler{out: out, lead: lead}
}

// Enqueue schedules buf and returns the decision and the start position used.
func (s *Scheduler) Enqueue(buf *Buffer) (Decision, time.Duration) {
	now := s.out.Now()
	decision := Scheduled

	if !s.primed {
		s.nextStart = now + s.lead
		s.primed = true
		decision = Primed
	}

	if s.nextStart < now {
		s.Reset()
		return Underrun, 0
	}

	start := s.nextStart
	s.out.Schedule(buf, start)
	s.nextStart += buf.Duration()
	return decision, start
}

// Reset clears the cursor so the next buffer re-establishes the lead time
func (s *Scheduler) Reset() {
	s.primed = false
	s.nextStart = 0
}

// NextStart returns the position the next buffer would start at, or zero
// when unprimed.
func (s *Scheduler) NextStart() time.Duration {
	return s.nextStart
}

// Lead returns the configured pre-roll
func (s *Scheduler) Lead() time.Duration {
	return s.lead
}
