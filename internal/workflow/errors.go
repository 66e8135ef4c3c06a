package workflow

import (
	"errors"
	"fmt"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrMissingRemarks  = errors.New("remarks are required when rejecting a document")

	ErrIllegalTransition = errors.New("illegal status transition")
	ErrForbiddenActor    = errors.New("actor may not perform this action")
	ErrMissingFile       = errors.New("document has no file reference")
	ErrSessionExpired    = errors.New("session expired")
	ErrUnknownDocument   = errors.New("unknown document type")
	ErrInvalidDecision   = errors.New("invalid review decision")

	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrServerUnavailable = errors.New("server unavailable")
	ErrTransport         = errors.New("transport error")
)

// ValidationKind names the constraint a local check rejected.
type ValidationKind uint8

const (
	InvalidFileType ValidationKind = iota + 1
	FileTooLarge
	MissingRemarks
)

func (k ValidationKind) String() string {
	switch k {
	case InvalidFileType:
		return "InvalidFileType"
	case FileTooLarge:
		return "FileTooLarge"
	case MissingRemarks:
		return "MissingRemarks"
	default:
		return "ValidationKind(?)"
	}
}

// ValidationError is raised before any store call and never reaches the store.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets errors.Is match a ValidationError against its kind's sentinel.
func (e *ValidationError) Is(target error) bool {
	switch e.Kind {
	case InvalidFileType:
		return target == ErrInvalidFileType
	case FileTooLarge:
		return target == ErrFileTooLarge
	case MissingRemarks:
		return target == ErrMissingRemarks
	}
	return false
}

func newValidationError(kind ValidationKind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// TransitionError reports an event the state machine does not allow from a status.
type TransitionError struct {
	From  Status
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a document that is %s", e.Event, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// TransportKind classifies failures surfaced by a remote record store.
type TransportKind uint8

const (
	TransportUnknown TransportKind = iota
	TransportUnauthorized
	TransportNotFound
	TransportServerUnavailable
)

func (k TransportKind) String() string {
	switch k {
	case TransportUnauthorized:
		return "Unauthorized"
	case TransportNotFound:
		return "NotFound"
	case TransportServerUnavailable:
		return "ServerUnavailable"
	default:
		return "Unknown"
	}
}

// TransportError wraps a failure of the record store. The workflow never retries it.
type TransportError struct {
	Kind       TransportKind
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("record store: %s (HTTP %d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("record store: %s: %s", e.Kind, msg)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is matches the kind's sentinel so callers need not type-assert.
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return true
	case ErrUnauthorized:
		return e.Kind == TransportUnauthorized
	case ErrNotFound:
		return e.Kind == TransportNotFound
	case ErrServerUnavailable:
		return e.Kind == TransportServerUnavailable
	}
	return false
}

// Retryable reports a failure the user should wait out and retry.
func (e *TransportError) Retryable() bool {
	return e.Kind == TransportServerUnavailable
}

// NeedsReauth reports a failure the user must fix (by logging in again) before retrying.
func (e *TransportError) NeedsReauth() bool {
	return e.Kind == TransportUnauthorized
}

// AsTransportError extracts a TransportError from err's chain.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
