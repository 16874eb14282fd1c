package lyria

import (
	"context"

	"github.com/Conceptual-Machines/magda-jam/internal/models"
)

// Request is one prompt and config update pushed to the music model.
// Only the config fields that are set travel on the wire.
type Request struct {
	Prompts []models.WeightedPrompt
	Config  models.MusicConfig
}

// AudioChunk is one base64 PCM payload from the server
type AudioChunk struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType,omitempty"`
}

// FilteredPrompt is a prompt the server rejected on content grounds
type FilteredPrompt struct {
	Text           string `json:"text"`
	FilteredReason string `json:"filteredReason,omitempty"`
}

// Session is a live bidirectional stream to the music model
type Session interface {
	Send(ctx context.Context, req Request) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Close() error
}

// Handler receives inbound traffic for one session. Calls arrive in order
// from a single goroutine.
type Handler interface {
	HandleAudio(chunks []AudioChunk)
	HandleFiltered(p FilteredPrompt)
	// HandleClose is called once when the stream ends without Close being called.
	HandleClose(err error)
}

// Dialer opens sessions
type Dialer interface {
	Dial(ctx context.Context, h Handler) (Session, error)
}

// DialerFunc adapts a function to the Dialer interface
type DialerFunc func(ctx context.Context, h Handler) (Session, error)

// Dial implements Dialer.
func (f DialerFunc) Dial(ctx context.Context, h Handler) (Session, error) {
	return f(ctx, h)
}
