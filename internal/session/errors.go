package session

import (
	"errors"
	"fmt"
)

// ErrorKind classifies where in the turn a failure happened. The kinds are
// surfaced uniformly to the presentation layer.
type ErrorKind string

const (
	KindTranscriptionFailed ErrorKind = "transcription_failed"
	KindRetrievalEmpty      ErrorKind = "retrieval_empty"
	KindGenerationFailed    ErrorKind = "generation_failed"
	KindSynthesisFailed     ErrorKind = "synthesis_failed"
)

// TurnError wraps an underlying failure with its kind.
type TurnError struct {
	Kind ErrorKind
	Err  error
}

func (e *TurnError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TurnError) Unwrap() error {
	return e.Err
}

// NewTurnError wraps err with a kind.
func NewTurnError(kind ErrorKind, err error) *TurnError {
	return &TurnError{Kind: kind, Err: err}
}

// KindOf returns the error's kind, or generation_failed for untyped errors
// so the presentation layer always has something to show.
func KindOf(err error) ErrorKind {
	var te *TurnError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindGenerationFailed
}
