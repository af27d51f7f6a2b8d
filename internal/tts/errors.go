package tts

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgnsrekt/mailreader/internal/proc"
)

var (
	// ErrUnknownBackend indicates a backend ID that was never registered.
	ErrUnknownBackend = errors.New("unknown TTS backend")

	// ErrBackendUnavailable indicates a registered backend that cannot run
	// on this machine.
	ErrBackendUnavailable = errors.New("TTS backend not available")

	// ErrDuplicateBackend is returned when registering an ID twice.
	ErrDuplicateBackend = errors.New("TTS backend already registered")

	// ErrSynthesisFailed indicates synthesis operation failed.
	ErrSynthesisFailed = errors.New("text synthesis failed")

	// ErrNoOutput indicates a backend exited cleanly without writing audio.
	ErrNoOutput = errors.New("backend produced no audio file")

	// ErrEmptyText indicates there was nothing to synthesize.
	ErrEmptyText = errors.New("text cannot be empty")
)

// Error is a TTS error with a code and additional context.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrorCode identifies specific error types.
type ErrorCode string

const (
	// Backend errors
	ErrorCodeBackendFailure     ErrorCode = "BACKEND_FAILURE"
	ErrorCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	ErrorCodeBackendTimeout     ErrorCode = "BACKEND_TIMEOUT"

	// Output errors
	ErrorCodeNoOutput   ErrorCode = "NO_OUTPUT"
	ErrorCodeFileSystem ErrorCode = "FILE_SYSTEM"

	// Input errors
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// System errors
	ErrorCodeCanceled ErrorCode = "CANCELED"
)

// NewError creates a new TTS error.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// WithContext adds context to the error.
func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

// IsFatal reports whether the error should stop reading altogether rather
// than skip a chunk.
func (e *Error) IsFatal() bool {
	switch e.Code {
	case ErrorCodeBackendUnavailable, ErrorCodeCanceled:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether the operation can be retried.
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case ErrorCodeBackendTimeout, ErrorCodeNoOutput:
		return true
	default:
		return false
	}
}

// classify wraps a backend error in an *Error with a code matching its
// cause.
func classify(backendID string, err error) *Error {
	var terr *Error
	switch {
	case errors.As(err, &terr):
		return terr
	case errors.Is(err, proc.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return NewError(ErrorCodeBackendTimeout, backendID+" timed out", err)
	case errors.Is(err, context.Canceled):
		return NewError(ErrorCodeCanceled, backendID+" canceled", err)
	default:
		return NewError(ErrorCodeBackendFailure, backendID+" synthesis failed",
			fmt.Errorf("%w: %w", ErrSynthesisFailed, err))
	}
}
