package conductor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Conceptual-Machines/magda-jam/internal/llm"
	"github.com/Conceptual-Machines/magda-jam/internal/lyria"
	"github.com/Conceptual-Machines/magda-jam/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	state   lyria.PlaybackState
	config  models.MusicConfig
	calls   []string
	prompts [][]models.WeightedPrompt
	setErr  error
}

func (f *fakeSession) PlaybackState() lyria.PlaybackState { return f.state }
func (f *fakeSession) Config() models.MusicConfig { return f.config }

func (f *fakeSession) Play(context.Context) error {
	f.calls = append(f.calls, "play")
	f.state = lyria.StatePlaying
	return nil
}

func (f *fakeSession) Stop(context.Context) {
	f.calls = append(f.calls, "stop")
	f.state = lyria.StateStopped
}

func (f *fakeSession) SetWeightedPrompts(_ context.Context, prompts []models.WeightedPrompt, patch *models.MusicConfig) error {
	f.calls = append(f.calls, "set")
	if f.setErr != nil {
		return f.setErr
	}
	f.prompts = append(f.prompts, prompts)
	if patch != nil {
		f.config = f.config.Merge(*patch)
	}
	return nil
}

type scriptedInterpreter struct {
	results []models.InterpretationResult
	err     error
	seen    []models.InterpretOptions
}

func (s *scriptedInterpreter) Name() string { return "scripted" }

func (s *scriptedInterpreter) Interpret(_ context.Context, _ string, opts models.InterpretOptions) (*llm.Interpretation, error) {
	s.seen = append(s.seen, opts)
	if s.err != nil {
		return nil, s.err
	}
	r := s.results[0]
	s.results = s.results[1:]
	return &llm.Interpretation{Result: r, Provider: "scripted"}, nil
}

type memoryHistory struct {
	records []*models.CommandRecord
	err     error
}

func (m *memoryHistory) Record(_ context.Context, r *models.CommandRecord) error {
	m.records = append(m.records, r)
	return m.err
}

func prompt(text string) models.WeightedPrompt {
	return models.WeightedPrompt{Text: text, Weight: 1}
}

func TestHandleCommand_FirstCommandStartsMusic(t *testing.T) {
	sess := &fakeSession{state: lyria.StateStopped}
	interp := &scriptedInterpreter{results: []models.InterpretationResult{{
		WeightedPrompts: []models.WeightedPrompt{prompt("Chill and relaxed atmosphere")},
		Config:          models.MusicConfig{BPM: models.Ptr(75)},
		ActionType:      models.ActionStart,
	}}}
	history := &memoryHistory{}
	c := New(interp, sess, WithHistory(history), WithSessionID("jam-1"))

	out, err := c.HandleCommand(context.Background(), "  start something slow and chill ")
	require.NoError(t, err)

	assert.Equal(t, ModeStart, out.Mode)
	assert.Equal(t, 75, out.BPM)
	assert.Equal(t, []string{"set", "play"}, sess.calls)
	assert.Equal(t, []models.InterpretOptions{{IsFirstCommand: true}}, interp.seen)

	require.Len(t, history.records, 1)
	rec := history.records[0]
	assert.Equal(t, "jam-1", rec.SessionID)
	assert.Equal(t, "start something slow and chill", rec.Transcript)
	assert.True(t, rec.IsFirstCommand)
	assert.Equal(t, "scripted", rec.Provider)
	var stored []models.WeightedPrompt
	require.NoError(t, json.Unmarshal([]byte(rec.Prompts), &stored))
	assert.Equal(t, out.Prompts, stored)
}

func TestHandleCommand_ModifyAddsPrompts(t *testing.T) {
	sess := &fakeSession{state: lyria.StateStopped}
	interp := &scriptedInterpreter{results: []models.InterpretationResult{
		{WeightedPrompts: []models.WeightedPrompt{prompt("Jazz")}, Config: models.MusicConfig{BPM: models.Ptr(100)}},
		{WeightedPrompts: []models.WeightedPrompt{prompt("Drums"), {Text: "jazz", Weight: 2}}, Config: models.MusicConfig{Density: models.Ptr(0.7)}},
	}}
	c := New(interp, sess)

	_, err := c.HandleCommand(context.Background(), "play jazz")
	require.NoError(t, err)

	out, err := c.HandleCommand(context.Background(), "add drums and more jazz")
	require.NoError(t, err)

	assert.Equal(t, ModeModify, out.Mode)
	assert.Equal(t, 100, out.BPM)
	assert.Equal(t, []models.WeightedPrompt{{Text: "jazz", Weight: 2}, prompt("Drums")}, out.Prompts)
	assert.Equal(t, []string{"set", "play", "set"}, sess.calls)
	assert.Equal(t, 0.7, *sess.config.Density)

	modify := interp.seen[1]
	assert.False(t, modify.IsFirstCommand)
	assert.Equal(t, 100, *modify.CurrentBPM)
	assert.Equal(t, []string{"Jazz"}, modify.CurrentPrompts)
	require.NotNil(t, modify.CurrentConfig)
	assert.Equal(t, 100, *modify.CurrentConfig.BPM)
}

func TestHandleCommand_ResetRestartsSession(t *testing.T) {
	sess := &fakeSession{state: lyria.StatePaused}
	interp := &scriptedInterpreter{results: []models.InterpretationResult{{
		Config:        models.MusicConfig{BPM: models.Ptr(150)},
		RequiresReset: true,
		ActionType:    models.ActionTempo,
	}}}
	c := New(interp, sess)
	c.active = []models.WeightedPrompt{prompt("Techno")}

	out, err := c.HandleCommand(context.Background(), "much faster")
	require.NoError(t, err)

	assert.Equal(t, ModeRestart, out.Mode)
	assert.Equal(t, 150, out.BPM)
	assert.Equal(t, []string{"stop", "set", "play"}, sess.calls)
	assert.Equal(t, [][]models.WeightedPrompt{{prompt("Techno")}}, sess.prompts)
}

func TestHandleCommand_Failures(t *testing.T) {
	t.Run("blank transcript", func(t *testing.T) {
		interp := &scriptedInterpreter{}
		_, err := New(interp, &fakeSession{}).HandleCommand(context.Background(), "   ")
		assert.ErrorIs(t, err, llm.ErrEmptyTranscript)
		assert.Empty(t, interp.seen)
	})

	t.Run("interpreter error is recorded", func(t *testing.T) {
		history := &memoryHistory{}
		interp := &scriptedInterpreter{err: llm.ErrParseResult}
		_, err := New(interp, &fakeSession{}, WithHistory(history)).HandleCommand(context.Background(), "jazz")
		assert.ErrorIs(t, err, llm.ErrParseResult)
		require.Len(t, history.records, 1)
		assert.Equal(t, llm.ErrParseResult.Error(), history.records[0].Error)
	})

	t.Run("rejected prompts leave state untouched", func(t *testing.T) {
		sess := &fakeSession{state: lyria.StatePlaying, setErr: lyria.ErrNoActivePrompts}
		interp := &scriptedInterpreter{results: []models.InterpretationResult{{
			WeightedPrompts: []models.WeightedPrompt{prompt("Forbidden")},
			Config:          models.MusicConfig{BPM: models.Ptr(90)},
		}}}
		c := New(interp, sess)
		c.active = []models.WeightedPrompt{prompt("Ambient")}

		_, err := c.HandleCommand(context.Background(), "something forbidden")
		assert.ErrorIs(t, err, lyria.ErrNoActivePrompts)

		snap := c.Snapshot()
		assert.Equal(t, DefaultBPM, snap.BPM)
		assert.Equal(t, []models.WeightedPrompt{prompt("Ambient")}, snap.Prompts)
	})

	t.Run("history failure does not fail the command", func(t *testing.T) {
		history := &memoryHistory{err: errors.New("db down")}
		interp := &scriptedInterpreter{results: []models.InterpretationResult{{WeightedPrompts: []models.WeightedPrompt{prompt("Jazz")}}}}
		_, err := New(interp, &fakeSession{}, WithHistory(history)).HandleCommand(context.Background(), "jazz")
		assert.NoError(t, err)
	})
}

func TestReset(t *testing.T) {
	sess := &fakeSession{state: lyria.StatePlaying}
	c := New(&scriptedInterpreter{}, sess, WithSessionID("jam-9"))
	c.bpm = 140
	c.active = []models.WeightedPrompt{prompt("House")}

	c.Reset(context.Background())

	assert.Equal(t, []string{"stop"}, sess.calls)
	assert.Equal(t, Snapshot{SessionID: "jam-9", BPM: DefaultBPM}, c.Snapshot())
}

func TestMergePrompts(t *testing.T) {
	tests := []struct {
		name   string
		active []models.WeightedPrompt
		added  []models.WeightedPrompt
		want   []models.WeightedPrompt
	}{
		{name: "nothing added", active: []models.WeightedPrompt{prompt("A")}, want: []models.WeightedPrompt{prompt("A")}},
		{name: "append", active: []models.WeightedPrompt{prompt("A")}, added: []models.WeightedPrompt{prompt("B")}, want: []models.WeightedPrompt{prompt("A"), prompt("B")}},
		{name: "replace weight", active: []models.WeightedPrompt{prompt("A")}, added: []models.WeightedPrompt{{Text: "a", Weight: 3}}, want: []models.WeightedPrompt{{Text: "a", Weight: 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergePrompts(tt.active, tt.added))
		})
	}
}
