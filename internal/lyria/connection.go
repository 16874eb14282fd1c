package lyria

import (
	"context"
	"strconv"
	"sync"

	"github.com/Conceptual-Machines/magda-jam/internal/logger"
	"golang.org/x/sync/singleflight"
)

// connector owns the session handle. Concurrent callers share one in-flight
// dial, and every dial is tagged with a generation so a dial that completes
// after stop is discarded instead of adopted.
type connector struct {
	dialer     Dialer
	newHandler func(gen uint64) Handler
	group      singleflight.Group

	mu      sync.Mutex
	session Session
	gen     uint64
	broken  bool
	// stoppedAt is the first generation issued after the latest stop
	stoppedAt uint64
}

func newConnector(d Dialer, newHandler func(gen uint64) Handler) *connector {
	return &connector{dialer: d, newHandler: newHandler}
}

// get returns the live session, dialing if there is none or the current one
// has failed.
func (c *connector) get(ctx context.Context) (Session, uint64, error) {
	c.mu.Lock()
	return c.acquireLocked(ctx)
}

// reconnect replaces the session of generation failed and returns the new
// one. Once stop has run after failed was issued it returns ErrSuperseded
// without dialing.
func (c *connector) reconnect(ctx context.Context, failed uint64) (Session, uint64, error) {
	c.mu.Lock()
	if c.stoppedAt > failed {
		gen := c.gen
		c.mu.Unlock()
		return nil, gen, ErrSuperseded
	}
	if c.gen == failed {
		c.broken = true
	}
	return c.acquireLocked(ctx)
}

// acquireLocked is called with c.mu held and releases it
func (c *connector) acquireLocked(ctx context.Context) (Session, uint64, error) {
	if c.session != nil && !c.broken {
		s, gen := c.session, c.gen
		c.mu.Unlock()
		return s, gen, nil
	}
	var stale Session
	if c.broken {
		stale = c.invalidateLocked()
		c.broken = false
	}
	gen := c.gen
	c.mu.Unlock()

	closeQuietly(stale)
	return c.dial(ctx, gen)
}

func (c *connector) dial(ctx context.Context, gen uint64) (Session, uint64, error) {
	v, err, shared := c.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		s, err := c.dialer.Dial(ctx, c.newHandler(gen))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if gen != c.gen {
			go closeQuietly(s)
			return nil, ErrSuperseded
		}
		c.session = s
		return s, nil
	})
	if err != nil {
		return nil, gen, err
	}
	if shared {
		logger.Debug("Joined in-flight music connection", logger.Fields{"generation": gen})
	}
	return v.(Session), gen, nil
}

// current returns the session without dialing; nil when there is none
func (c *connector) current() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *connector) isCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen == gen
}

func (c *connector) markBroken(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.broken = true
	}
}

// stop forgets the session and supersedes any dial in flight
func (c *connector) stop() {
	c.mu.Lock()
	stale := c.invalidateLocked()
	c.broken = false
	c.stoppedAt = c.gen
	c.mu.Unlock()

	closeQuietly(stale)
}

func (c *connector) invalidateLocked() Session {
	stale := c.session
	c.session = nil
	c.gen++
	return stale
}

func closeQuietly(s Session) {
	if s == nil {
		return
	}
	if err := s.Close(); err != nil {
		logger.Debug("Closing music session failed", logger.Fields{"error": err.Error()})
	}
}
