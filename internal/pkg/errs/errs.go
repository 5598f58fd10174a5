/*
Package errs provides custom error types and application-level error code constants.

This file defines the CustomError struct, which implements the standard Go error interface
and carries a code, a failure kind, a user-facing message, the bridge HTTP status and the
underlying cause when one exists.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gatherlocal/internal/pkg/logx"
)

// CustomError is the error structure used throughout the client core.
type CustomError struct {
	// Code is the application error code (see constants definition).
	Code int

	// Kind classifies the failure (auth, network, validation, capability, server).
	Kind Kind

	// Message is the user-facing description. It holds the server-supplied
	// message when the backend sent one, the generic template otherwise.
	Message string

	// Status is the HTTP status the local bridge answers with for this error.
	Status int

	// Remote is the message the backend sent, empty when it sent none.
	Remote string

	// Err is the underlying cause, kept for logging and errors.Is/As.
	Err error
}

// Error implements the standard Go error interface.
// Nested CustomError causes contribute only their codes, since Recode already
// carried their message up.
func (e *CustomError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "error code %d (%s): %s", e.Code, e.Kind, e.Message)

	cause := e.Err
	for cause != nil {
		inner, ok := cause.(*CustomError)
		if !ok {
			fmt.Fprintf(&b, ": %v", cause)
			break
		}
		fmt.Fprintf(&b, " <- code %d", inner.Code)
		cause = inner.Err
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError constructs a new *CustomError from a predefined error code.
// The optional details are printf arguments for templates containing a verb.
// An unknown code yields ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &unknownErr
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn(
				"Details provided for error, but message template has no formatting placeholders. Details ignored.",
				"code", code,
			)
		}
	}

	return &customErr
}

// Wrap builds the error for code and records err as its cause.
func Wrap(code int, err error) *CustomError {
	customErr := NewError(code)
	customErr.Err = err
	return customErr
}

// WithMessage returns a copy of e whose message is msg, unless msg is blank.
func (e *CustomError) WithMessage(msg string) *CustomError {
	out := *e
	if trimmed := strings.TrimSpace(msg); trimmed != "" {
		out.Message = trimmed
	}
	return &out
}

// FromServer returns a copy of e carrying the backend's own message, unless msg is blank.
func (e *CustomError) FromServer(msg string) *CustomError {
	out := e.WithMessage(msg)
	out.Remote = strings.TrimSpace(msg)
	return out
}

// WithKind returns a copy of e reclassified as kind.
func (e *CustomError) WithKind(kind Kind) *CustomError {
	out := *e
	out.Kind = kind
	return &out
}

// As extracts the *CustomError in err's chain.
func As(err error) (*CustomError, bool) {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr, true
	}
	return nil, false
}

// From returns err as a *CustomError, wrapping anything unclassified as ErrUnknown.
func From(err error) *CustomError {
	if err == nil {
		return nil
	}
	if customErr, ok := As(err); ok {
		return customErr
	}
	return Wrap(ErrUnknown, err)
}

// KindOf reports the kind of err, KindUnknown when it carries none.
func KindOf(err error) Kind {
	if customErr, ok := As(err); ok {
		return customErr.Kind
	}
	return KindUnknown
}

// IsCode reports whether err's chain contains a CustomError with the given code.
func IsCode(err error, code int) bool {
	customErr, ok := As(err)
	return ok && customErr.Code == code
}

// Recode files err under code while keeping what the caller needs to know about it:
// transport classifications (network, auth) survive, and a message sent by the
// backend replaces code's generic message.
func Recode(code int, err error) *CustomError {
	cause, ok := As(err)
	if !ok {
		return Wrap(code, err)
	}

	out := Wrap(code, cause)
	switch cause.Kind {
	case KindNetworkFailure, KindAuthRejected:
		out.Kind = cause.Kind
		out.Status = cause.Status
	}
	if cause.Remote != "" {
		out.Message = cause.Remote
		out.Remote = cause.Remote
	}
	return out
}
