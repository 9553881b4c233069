package tts

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Common errors for the speech system.
var (
	ErrEngineNotAvailable = errors.New("TTS engine is not available")
	ErrUnknownEngine      = errors.New("unknown TTS engine")
	ErrVoiceNotFound      = errors.New("requested voice not found")
	ErrGenerationFailed   = errors.New("audio generation failed")
	ErrEmptyText          = errors.New("text cannot be empty")
	ErrTextTooLong        = errors.New("text too long")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrCanceled           = errors.New("operation was canceled")
)

// IsRecoverableError reports whether retrying the same engine may succeed.
func IsRecoverableError(err error) bool {
	if err == nil {
		return true
	}
	switch {
	case errors.Is(err, ErrEngineNotAvailable),
		errors.Is(err, ErrUnknownEngine),
		errors.Is(err, ErrInvalidConfig):
		return false
	}
	return true
}

// IsCanceled reports whether err stems from a cancelled or expired context.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ErrorSeverity represents the severity of an error.
type ErrorSeverity int

const (
	// SeverityWarning is for failures that only skip one utterance.
	SeverityWarning ErrorSeverity = iota
	// SeverityError is for failures that disable an engine.
	SeverityError
)

func (s ErrorSeverity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// SpeechError records which engine failed doing what.
type SpeechError struct {
	Err      error         // The underlying error
	Engine   string        // Engine that generated the error
	Action   string        // Action being performed, e.g. "synthesize"
	Severity ErrorSeverity // Severity of the error
	Time     time.Time     // When the error occurred
}

// NewSpeechError wraps err with engine and action context.
func NewSpeechError(err error, engine, action string) *SpeechError {
	sev := SeverityWarning
	if !IsRecoverableError(err) {
		sev = SeverityError
	}
	return &SpeechError{
		Err:      err,
		Engine:   engine,
		Action:   action,
		Severity: sev,
		Time:     time.Now(),
	}
}

// Error implements the error interface.
func (e *SpeechError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: unknown TTS error", e.Engine, e.Action)
	}
	return fmt.Sprintf("%s %s: %v", e.Engine, e.Action, e.Err)
}

// Unwrap returns the underlying error.
func (e *SpeechError) Unwrap() error {
	return e.Err
}

// IsRecoverable checks if the error is recoverable.
func (e *SpeechError) IsRecoverable() bool {
	return IsRecoverableError(e.Err)
}
