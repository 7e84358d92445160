// Package generation runs single LLM generation stages and retries them.
package generation

import (
	"errors"
	"fmt"

	"github.com/jonathan/fitness-planner/internal/schemas"
)

// Kind classifies a stage failure.
type Kind string

// Failure kinds
const (
	KindTransport     Kind = "transport"
	KindEmptyResponse Kind = "empty_response"
	KindParse         Kind = "parse"
	KindValidation    Kind = "validation"
	KindRefusal       Kind = "refusal"
	KindComposition   Kind = "composition"
	KindTimeout       Kind = "timeout"
	KindCanceled      Kind = "canceled"
)

// contentRetry reports whether the kind is a content-shape failure that is
// retried immediately.
func (k Kind) contentRetry() bool {
	return k == KindParse || k == KindValidation || k == KindEmptyResponse
}

// Error is a failed generation stage.
type Error struct {
	Kind        Kind
	Stage       string
	Message     string
	Attempts    int
	Cause       error
	Diagnostics []schemas.FieldError
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s stage %s error: %s", e.Stage, e.Kind, e.Message)
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s (after %d attempts)", msg, e.Attempts)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf returns the Kind of err, or "" when err is not a stage error.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

// Diagnostics returns the structured validation errors carried by err, if any.
func Diagnostics(err error) []schemas.FieldError {
	var ge *Error
	if errors.As(err, &ge) && len(ge.Diagnostics) > 0 {
		return ge.Diagnostics
	}
	var ve *schemas.ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return nil
}

// ValidationFailure wraps a schema error (or any shape violation) for stage.
func ValidationFailure(stage string, err error) *Error {
	ge := &Error{
		Kind:    KindValidation,
		Stage:   stage,
		Message: "response does not match the expected structure",
		Cause:   err,
	}
	var ve *schemas.ValidationError
	if errors.As(err, &ve) {
		ge.Diagnostics = ve.Errors
	}
	return ge
}
