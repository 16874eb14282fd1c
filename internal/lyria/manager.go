package lyria

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/logger"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
)

const (
	// DefaultFade is the gain ramp used when starting, pausing and stopping
	DefaultFade = 100 * time.Millisecond
	// DefaultTimeUpdateInterval is how often elapsed time is sampled while playing
	DefaultTimeUpdateInterval = 100 * time.Millisecond

	msgConnectionError  = "Connection error, please restart audio."
	msgConnectionClosed = "Connection closed, please restart audio."
)

// Options configures a Manager. Dialer and Output are required.
type Options struct {
	Dialer             Dialer
	Output             Output
	BufferLead         time.Duration
	Fade               time.Duration
	TimeUpdateInterval time.Duration
}

// Manager is the realtime music session: it keeps one connection to the
// music model, schedules the audio it streams, and owns the playback state.
// All methods are safe for concurrent use.
type Manager struct {
	out    Output
	sched  *Scheduler
	conn   *connector
	events *broker
	fade   time.Duration
	tick   time.Duration

	mu         sync.Mutex
	state      PlaybackState
	prompts    []models.WeightedPrompt
	config     models.MusicConfig
	filtered   map[string]struct{}
	clock      elapsedClock
	epoch      uint64
	leadTimer  *time.Timer
	stopTicker chan struct{}
}

// NewManager returns a stopped Manager
func NewManager(opts Options) *Manager {
	if opts.Fade <= 0 {
		opts.Fade = DefaultFade
	}
	if opts.TimeUpdateInterval <= 0 {
		opts.TimeUpdateInterval = DefaultTimeUpdateInterval
	}

	m := &Manager{
		out:      opts.Output,
		sched:    NewScheduler(opts.Output, opts.BufferLead),
		events:   newBroker(),
		fade:     opts.Fade,
		tick:     opts.TimeUpdateInterval,
		state:    StateStopped,
		filtered: make(map[string]struct{}),
	}
	m.conn = newConnector(opts.Dialer, func(gen uint64) Handler {
		return &sessionHandler{m: m, gen: gen}
	})
	return m
}

// Subscribe registers l for every future event and returns a function that
// removes it.
func (m *Manager) Subscribe(l Listener) func() {
	return m.events.subscribe(l)
}

// PlaybackState returns the current state
func (m *Manager) PlaybackState() PlaybackState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentTime returns elapsed audible playback time
func (m *Manager) CurrentTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clock.elapsed(m.out.Now())
}

// Prompts returns the prompt set most recently passed to SetWeightedPrompts
func (m *Manager) Prompts() []models.WeightedPrompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.prompts)
}

// Config returns the merged generation config
func (m *Manager) Config() models.MusicConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// IsFiltered reports whether the server has rejected text
func (m *Manager) IsFiltered(text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.filtered[text]
	return ok
}

// Play connects if needed, asks the server to stream and fades the output
// in. The state stays loading until the first buffer's lead time elapses.
func (m *Manager) Play(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StatePlaying {
		m.mu.Unlock()
		return nil
	}
	m.setStateLocked(StateLoading)
	m.mu.Unlock()

	sess, gen, err := m.conn.get(ctx)
	if errors.Is(err, ErrSuperseded) {
		return nil
	}
	if err != nil {
		m.fail("Failed to connect to music session", err)
		return err
	}

	m.out.FadeIn(m.fade)

	err = sess.Play(ctx)
	if IsTransient(err) {
		logger.Warn("Music session closed during play, reconnecting", logger.Fields{"error": err.Error()})
		sess, _, err = m.conn.reconnect(ctx, gen)
		if errors.Is(err, ErrSuperseded) {
			return nil
		}
		if err == nil {
			err = sess.Play(ctx)
		}
	}
	if err != nil {
		m.fail("Failed to start playback", err)
		return err
	}
	return nil
}

// Pause mutes the output and stops scheduling while keeping the connection
// alive. Audio that arrives while paused is dropped.
func (m *Manager) Pause(ctx context.Context) {
	if sess := m.conn.current(); sess != nil {
		if err := sess.Pause(ctx); err != nil && !IsTransient(err) {
			logger.Warn("Error pausing music session", logger.Fields{"error": err.Error()})
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.setStateLocked(StatePaused)
	m.silenceLocked()
}

// Stop silences the output, tears the session down and resets elapsed time.
func (m *Manager) Stop(ctx context.Context) {
	if sess := m.conn.current(); sess != nil {
		if err := sess.Stop(ctx); err != nil && !IsTransient(err) {
			logger.Warn("Error stopping music session", logger.Fields{"error": err.Error()})
		}
	}

	m.mu.Lock()
	m.setStateLocked(StateStopped)
	m.silenceLocked()
	m.mu.Unlock()

	m.conn.stop()
}

// PlayPause toggles playback. A toggle while loading cancels instead of
// waiting for the connection.
func (m *Manager) PlayPause(ctx context.Context) error {
	switch m.PlaybackState() {
	case StatePlaying:
		m.Pause(ctx)
	case StateLoading:
		m.Stop(ctx)
	default:
		return m.Play(ctx)
	}
	return nil
}

// SetWeightedPrompts replaces the active prompt set, merges patch into the
// current config and pushes both to the server. A successful update never
// changes the playback state. On failure an error event is emitted and
// playback is paused.
func (m *Manager) SetWeightedPrompts(ctx context.Context, prompts []models.WeightedPrompt, patch *models.MusicConfig) error {
	if len(prompts) == 0 {
		m.reject(ErrNoPrompts)
		m.Pause(ctx)
		return invalid("set prompts", ErrNoPrompts)
	}

	m.mu.Lock()
	m.prompts = slices.Clone(prompts)
	if patch != nil {
		m.config = m.config.Merge(*patch)
	}
	config := m.config
	active := make([]models.WeightedPrompt, 0, len(prompts))
	for _, p := range prompts {
		if _, rejected := m.filtered[p.Text]; rejected || p.Weight == 0 {
			continue
		}
		active = append(active, p)
	}
	m.mu.Unlock()

	if len(active) == 0 {
		m.reject(ErrNoActivePrompts)
		m.Pause(ctx)
		return invalid("set prompts", ErrNoActivePrompts)
	}

	// always the merged config: a reconnected session starts with none
	req := Request{Prompts: active, Config: config}

	sess, gen, err := m.conn.get(ctx)
	if err == nil {
		err = sess.Send(ctx, req)
		if IsTransient(err) {
			logger.Warn("Music session closed during prompt update, reconnecting", logger.Fields{"error": err.Error()})
			sess, _, err = m.conn.reconnect(ctx, gen)
			if err == nil {
				err = sess.Send(ctx, req)
			}
			// a fresh session is idle until told to play
			if err == nil && m.streaming() {
				err = sess.Play(ctx)
			}
		}
	}
	if errors.Is(err, ErrSuperseded) {
		return nil
	}
	if err != nil {
		m.reject(err)
		m.Pause(ctx)
		return err
	}

	logger.Debug("Prompts updated", logger.Fields{
		"active":   len(active),
		"filtered": len(prompts) - len(active),
		"config":   !req.Config.IsEmpty(),
	})
	return nil
}

// Close stops the session and releases the event dispatcher. The output is
// owned by the caller.
func (m *Manager) Close() {
	m.Stop(context.Background())
	m.events.close()
}

// streaming reports whether the server should currently be producing audio
func (m *Manager) streaming() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StatePlaying || m.state == StateLoading
}

func (m *Manager) setStateLocked(s PlaybackState) {
	m.state = s
	m.events.publish(Event{Type: EventStateChanged, State: s})

	now := m.out.Now()
	switch s {
	case StatePlaying:
		m.clock.start(now)
		m.startTickerLocked()
	case StatePaused, StateLoading:
		m.clock.freeze(now)
		m.stopTickerLocked()
	case StateStopped:
		m.clock.reset()
		m.stopTickerLocked()
	}
}

// silenceLocked fades out and detaches everything scheduled, resets the
// cursor and invalidates any pending lead-time transition.
func (m *Manager) silenceLocked() {
	m.out.ReplaceGainStage(m.fade)
	m.sched.Reset()
	m.bumpEpochLocked()
}

func (m *Manager) bumpEpochLocked() {
	m.epoch++
	if m.leadTimer != nil {
		m.leadTimer.Stop()
		m.leadTimer = nil
	}
}

func (m *Manager) startTickerLocked() {
	if m.stopTicker != nil {
		return
	}
	stop := make(chan struct{})
	m.stopTicker = stop

	go func() {
		ticker := time.NewTicker(m.tick)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.mu.Lock()
				if m.state == StatePlaying {
					m.events.publish(Event{Type: EventTimeUpdated, Elapsed: m.clock.elapsed(m.out.Now())})
				}
				m.mu.Unlock()
			}
		}
	}()
}

func (m *Manager) stopTickerLocked() {
	if m.stopTicker == nil {
		return
	}
	close(m.stopTicker)
	m.stopTicker = nil
}

// schedule places one decoded buffer, in arrival order
func (m *Manager) schedule(buf *Buffer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StatePaused || m.state == StateStopped {
		return
	}

	decision, _ := m.sched.Enqueue(buf)
	switch decision {
	case Primed:
		m.armLeadTimerLocked()
	case Underrun:
		logger.Warn("Audio underrun, rebuffering", logger.Fields{"lead_ms": m.sched.Lead().Milliseconds()})
		m.bumpEpochLocked()
		m.setStateLocked(StateLoading)
	}
}

func (m *Manager) armLeadTimerLocked() {
	if m.leadTimer != nil {
		m.leadTimer.Stop()
	}
	epoch := m.epoch
	m.leadTimer = time.AfterFunc(m.sched.Lead(), func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.epoch != epoch || m.state != StateLoading {
			return
		}
		m.leadTimer = nil
		m.setStateLocked(StatePlaying)
	})
}

func (m *Manager) filter(p FilteredPrompt) {
	m.mu.Lock()
	m.filtered[p.Text] = struct{}{}
	m.mu.Unlock()

	logger.Info("Prompt filtered by server", logger.Fields{"text": p.Text, "reason": p.FilteredReason})
	m.events.publish(Event{Type: EventFiltered, Text: p.Text, Reason: p.FilteredReason})
}

// reject reports a failed request without tearing anything down
func (m *Manager) reject(err error) {
	logger.Warn("Music request rejected", logger.Fields{"error": err.Error(), "kind": KindOf(err).String()})
	m.events.publish(Event{Type: EventError, Message: err.Error()})
}

// fail reports an unrecoverable session error and stops
func (m *Manager) fail(msg string, err error) {
	logger.Error(msg, err, logger.Fields{"kind": KindOf(err).String()})
	m.Stop(context.Background())
	m.events.publish(Event{Type: EventError, Message: msg + ": " + err.Error()})
}

// sessionHandler routes inbound traffic for one connection generation and
// ignores it once that generation is no longer current.
type sessionHandler struct {
	m   *Manager
	gen uint64
}

func (h *sessionHandler) HandleAudio(chunks []AudioChunk) {
	if !h.m.conn.isCurrent(h.gen) {
		return
	}
	for _, chunk := range chunks {
		buf, err := DecodeChunk(chunk.Data)
		if err != nil {
			logger.Warn("Dropping malformed audio chunk", logger.Fields{"error": err.Error()})
			continue
		}
		h.m.schedule(buf)
	}
}

func (h *sessionHandler) HandleFiltered(p FilteredPrompt) {
	if !h.m.conn.isCurrent(h.gen) {
		return
	}
	h.m.filter(p)
}

func (h *sessionHandler) HandleClose(err error) {
	if !h.m.conn.isCurrent(h.gen) {
		return
	}
	h.m.conn.markBroken(h.gen)

	msg := msgConnectionError
	if errors.Is(err, ErrConnectionClosed) {
		msg = msgConnectionClosed
	}
	logger.Error("Music session ended", err, logger.Fields{"generation": h.gen})

	h.m.Stop(context.Background())
	h.m.events.publish(Event{Type: EventError, Message: msg})
}
