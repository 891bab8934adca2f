// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"

	"github.com/pdiddy/ottoman-converter/pkg/types"
)

// Error is the failure side of a conversion. Callers switch on Kind instead
// of inspecting the message text.
type Error struct {
	Kind   types.FailureKind
	Detail string
	Err    error
}

// Error returns the user-facing description shown by the CLI and the web UI.
func (e *Error) Error() string {
	switch e.Kind {
	case types.FailureBackend:
		return "Model call failed: " + e.Detail
	case types.FailureEmptyResponse:
		return "No text returned by the model."
	case types.FailureConfig:
		return "configuration error: " + e.Detail
	default:
		return e.Detail
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the FailureKind carried by err, or "" when err is nil or
// not a conversion error.
func KindOf(err error) types.FailureKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

func newError(kind types.FailureKind, err error) *Error {
	e := &Error{Kind: kind, Err: err}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}
