package lyria

import (
	"errors"
	"fmt"
)

// ErrorKind classifies transport and session failures so callers can decide
// whether to retry without inspecting error text.
type ErrorKind int

const (
	// KindFatal failures tear the session down.
	KindFatal ErrorKind = iota
	// KindTransient failures are retried once over a fresh connection.
	KindTransient
	// KindValidation failures are caller mistakes and never retried.
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindValidation:
		return "validation"
	default:
		return "fatal"
	}
}

// Error is a classified session error
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("lyria %s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("lyria %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	// ErrSessionClosed is returned when writing to a session that is closing or closed
	ErrSessionClosed = errors.New("session closed")
	// ErrConnectionClosed marks a server-initiated close
	ErrConnectionClosed = errors.New("connection closed by server")
	// ErrSuperseded is returned to a connect attempt that finished after Stop
	ErrSuperseded = errors.New("connection attempt superseded")
	// ErrNoPrompts is returned when asked to send an empty prompt set
	ErrNoPrompts = errors.New("no prompts provided, please provide at least one prompt")
	// ErrNoActivePrompts is returned when every prompt is filtered or has weight 0
	ErrNoActivePrompts = errors.New("there needs to be at least one active prompt to play, all prompts were filtered or have weight 0")
	// ErrMalformedChunk is returned for audio payloads that are not whole frames
	ErrMalformedChunk = errors.New("malformed audio chunk")
)

func transient(op string, err error) error {
	return &Error{Kind: KindTransient, Op: op, Err: err}
}

func fatal(op string, err error) error {
	return &Error{Kind: KindFatal, Op: op, Err: err}
}

func invalid(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// KindOf returns the kind of a classified error. Unclassified errors are fatal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFatal
}

// IsTransient reports whether err may succeed on a fresh connection
func IsTransient(err error) bool {
	return err != nil && KindOf(err) == KindTransient
}
