// Package apperror defines the error kinds the intake service reports to
// callers. Every failure that crosses a service boundary is an *Error
// carrying one Kind; the HTTP layer maps the Kind to a status code.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// KindInternal is an unexpected failure (I/O, malformed side-channel JSON).
	KindInternal Kind = iota
	// KindValidation is a missing or malformed required field.
	KindValidation
	// KindUnsupportedMediaType is a file whose type the field does not accept.
	KindUnsupportedMediaType
	// KindPayloadTooLarge is a file above the configured size limit.
	KindPayloadTooLarge
	// KindNotFound is an unknown record index or stored file name.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnsupportedMediaType:
		return "unsupported_media_type"
	case KindPayloadTooLarge:
		return "payload_too_large"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is a classified failure. Message is safe to show to clients; Err,
// when set, is the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by Kind, so errors.Is(err, apperror.ErrNotFound)
// works for any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation           = &Error{Kind: KindValidation}
	ErrUnsupportedMediaType = &Error{Kind: KindUnsupportedMediaType}
	ErrPayloadTooLarge      = &Error{Kind: KindPayloadTooLarge}
	ErrNotFound             = &Error{Kind: KindNotFound}
	ErrInternal             = &Error{Kind: KindInternal}
)

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func UnsupportedMediaType(format string, args ...any) *Error {
	return &Error{Kind: KindUnsupportedMediaType, Message: fmt.Sprintf(format, args...)}
}

func PayloadTooLarge(format string, args ...any) *Error {
	return &Error{Kind: KindPayloadTooLarge, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps err as an internal failure with a client-facing message.
func Internal(err error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// Wrap attaches a cause to a new error of the given kind.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the Kind of err. Untyped errors are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
