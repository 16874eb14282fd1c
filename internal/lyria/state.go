package lyria

import "time"

// PlaybackState is the authoritative playback state
type PlaybackState string

const (
	StateStopped PlaybackState = "stopped"
	StateLoading PlaybackState = "loading"
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
)

// elapsedClock tracks audible playback time on the output clock:
// accumulated plus the running span since mark while running.
type elapsedClock struct {
	accumulated time.Duration
	mark        time.Duration
	running     bool
}

func (c *elapsedClock) start(now time.Duration) {
	if c.running {
		return
	}
	c.mark = now
	c.running = true
}

func (c *elapsedClock) freeze(now time.Duration) {
	if !c.running {
		return
	}
	c.accumulated += now - c.mark
	c.mark = 0
	c.running = false
}

func (c *elapsedClock) reset() {
	*c = elapsedClock{}
}

func (c *elapsedClock) elapsed(now time.Duration) time.Duration {
	if c.running {
		return c.accumulated + (now - c.mark)
	}
	return c.accumulated
}
