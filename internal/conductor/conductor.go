// Package conductor turns spoken commands into changes to a running music
// session: the first command starts the music, later ones modify it.
package conductor

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/llm"
	"github.com/Conceptual-Machines/magda-jam/internal/logger"
	"github.com/Conceptual-Machines/magda-jam/internal/lyria"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"github.com/Conceptual-Machines/magda-jam/internal/observability"
	"github.com/Conceptual-Machines/magda-jam/internal/services"
	"github.com/google/uuid"
)

// DefaultBPM is assumed until a command sets the tempo
const DefaultBPM = 120

// Mode is how a command was applied to the session
type Mode string

const (
	ModeStart   Mode = "start"
	ModeModify  Mode = "modify"
	ModeRestart Mode = "restart"
)

// Session is the playback surface the conductor drives. *lyria.Manager implements it.
type Session interface {
	PlaybackState() lyria.PlaybackState
	Config() models.MusicConfig
	Play(ctx context.Context) error
	Stop(ctx context.Context)
	SetWeightedPrompts(ctx context.Context, prompts []models.WeightedPrompt, patch *models.MusicConfig) error
}

// HistoryRecorder persists interpreted commands
type HistoryRecorder interface {
	Record(ctx context.Context, record *models.CommandRecord) error
}

// Outcome describes one applied command
type Outcome struct {
	Mode           Mode
	Interpretation *llm.Interpretation
	Prompts        []models.WeightedPrompt
	BPM            int
}

// Snapshot is the conductor's view of the music
type Snapshot struct {
	SessionID string
	BPM       int
	Prompts   []models.WeightedPrompt
}

type Option func(*Conductor)

// WithHistory records every command to h
func WithHistory(h HistoryRecorder) Option {
	return func(c *Conductor) { c.history = h }
}

// WithSessionID overrides the generated session id
func WithSessionID(id string) Option {
	return func(c *Conductor) { c.sessionID = id }
}

// Conductor applies commands one at a time
type Conductor struct {
	interp    llm.Interpreter
	session   Session
	history   HistoryRecorder
	sessionID string

	mu     sync.Mutex
	bpm    int
	active []models.WeightedPrompt
}

func New(interp llm.Interpreter, session Session, opts ...Option) *Conductor {
	c := &Conductor{
		interp:    interp,
		session:   session,
		sessionID: uuid.New().String(),
		bpm:       DefaultBPM,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current tempo and active prompts
func (c *Conductor) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{SessionID: c.sessionID, BPM: c.bpm, Prompts: slices.Clone(c.active)}
}

// HandleCommand interprets transcript and applies it. With nothing playing
// it starts the music; otherwise new prompts are added to the active set and
// config changes merged, restarting the session when the interpreter says
// the change cannot be applied live.
func (c *Conductor) HandleCommand(ctx context.Context, transcript string) (*Outcome, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, llm.ErrEmptyTranscript
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ctx = observability.WithSessionID(ctx, c.sessionID)
	state := c.session.PlaybackState()
	first := state != lyria.StatePlaying && state != lyria.StatePaused

	opts := models.InterpretOptions{IsFirstCommand: first}
	if !first {
		bpm := c.bpm
		config := c.session.Config()
		opts.CurrentBPM = &bpm
		opts.CurrentPrompts = models.PromptTexts(c.active)
		opts.CurrentConfig = &config
	}

	start := time.Now()
	out, err := c.interp.Interpret(ctx, transcript, opts)
	if err != nil {
		c.record(ctx, transcript, opts, nil, time.Since(start), err)
		return nil, err
	}
	result := out.Result

	var (
		mode    Mode
		prompts []models.WeightedPrompt
	)
	switch {
	case first:
		mode = ModeStart
		prompts = result.WeightedPrompts
		err = c.restart(ctx, prompts, result.Config, false)
	case result.RequiresReset:
		mode = ModeRestart
		prompts = mergePrompts(c.active, result.WeightedPrompts)
		err = c.restart(ctx, prompts, result.Config, true)
	default:
		mode = ModeModify
		prompts = mergePrompts(c.active, result.WeightedPrompts)
		err = c.session.SetWeightedPrompts(ctx, prompts, &result.Config)
	}
	c.record(ctx, transcript, opts, out, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if first {
		c.bpm = DefaultBPM
	}
	if result.Config.BPM != nil {
		c.bpm = *result.Config.BPM
	}
	c.active = prompts

	logger.Info("Command applied", logger.Fields{
		"session_id": c.sessionID,
		"mode":       string(mode),
		"action":     result.ActionType,
		"bpm":        c.bpm,
		"prompts":    len(c.active),
	})
	return &Outcome{Mode: mode, Interpretation: out, Prompts: slices.Clone(c.active), BPM: c.bpm}, nil
}

// restart pushes prompts to a stopped session and starts playback
func (c *Conductor) restart(ctx context.Context, prompts []models.WeightedPrompt, config models.MusicConfig, stop bool) error {
	if stop {
		c.session.Stop(ctx)
	}
	if err := c.session.SetWeightedPrompts(ctx, prompts, &config); err != nil {
		return err
	}
	return c.session.Play(ctx)
}

// Reset stops the session and forgets the tempo and prompts
func (c *Conductor) Reset(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.Stop(ctx)
	c.bpm = DefaultBPM
	c.active = nil
}

// mergePrompts appends added to active. A prompt whose text is already
// active replaces the old weight instead of being duplicated.
func mergePrompts(active, added []models.WeightedPrompt) []models.WeightedPrompt {
	merged := slices.Clone(active)
	for _, p := range added {
		i := slices.IndexFunc(merged, func(q models.WeightedPrompt) bool {
			return strings.EqualFold(q.Text, p.Text)
		})
		if i >= 0 {
			merged[i] = p
			continue
		}
		merged = append(merged, p)
	}
	return merged
}

func (c *Conductor) record(ctx context.Context, transcript string, opts models.InterpretOptions, out *llm.Interpretation, d time.Duration, err error) {
	if c.history == nil {
		return
	}

	rec := services.NewCommandRecord(c.sessionID, transcript, opts, out, d, err)
	if recErr := c.history.Record(ctx, rec); recErr != nil {
		logger.Warn("Failed to record command", logger.Fields{"session_id": c.sessionID, "error": recErr.Error()})
	}
}
