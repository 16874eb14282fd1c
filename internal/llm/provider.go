package llm

import (
	"context"
	"errors"
	"time"

	"github.com/Conceptual-Machines/magda-jam/internal/models"
)

// Interpreter turns a spoken or typed music command into a structured update
// for the realtime session. Implementations are safe for concurrent use.
type Interpreter interface {
	// Interpret analyses transcript against the current musical state
	Interpret(ctx context.Context, transcript string, opts models.InterpretOptions) (*Interpretation, error)

	// Name returns the provider name (e.g., "openai", "gemini")
	Name() string
}

// Interpretation is a parsed result plus what it cost to produce
type Interpretation struct {
	Result    models.InterpretationResult
	Provider  string
	Model     string
	Usage     Usage
	ToolCalls []string
	Duration  time.Duration
	RawOutput string
}

// Usage is token accounting for one interpretation
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// Map returns usage in the shape the logger and tracers expect
func (u Usage) Map() map[string]interface{} {
	return map[string]interface{}{
		"input_tokens":  u.InputTokens,
		"output_tokens": u.OutputTokens,
		"total_tokens":  u.TotalTokens,
	}
}

var (
	// ErrParseResult is returned when the model output is not a valid interpretation
	ErrParseResult = errors.New("failed to parse music interpretation result")
	// ErrEmptyTranscript is returned for blank input
	ErrEmptyTranscript = errors.New("transcript is empty")
	// ErrToolLoop is returned when the model keeps calling tools without answering
	ErrToolLoop = errors.New("model did not produce a result within the tool call limit")
)

// Observer is notified after every interpretation attempt
type Observer interface {
	ObserveInterpretation(ctx context.Context, transcript string, opts models.InterpretOptions, out *Interpretation, err error)
}

// Observed wraps an interpreter so every call is reported to the observers
func Observed(inner Interpreter, observers ...Observer) Interpreter {
	if len(observers) == 0 {
		return inner
	}
	return &observedInterpreter{inner: inner, observers: observers}
}

type observedInterpreter struct {
	inner     Interpreter
	observers []Observer
}

func (o *observedInterpreter) Name() string {
	return o.inner.Name()
}

func (o *observedInterpreter) Interpret(ctx context.Context, transcript string, opts models.InterpretOptions) (*Interpretation, error) {
	out, err := o.inner.Interpret(ctx, transcript, opts)
	for _, obs := range o.observers {
		obs.ObserveInterpretation(ctx, transcript, opts, out, err)
	}
	return out, err
}
