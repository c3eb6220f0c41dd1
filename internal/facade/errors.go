package facade

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmunix/fafo/internal/catalog"
	"github.com/vmunix/fafo/internal/extract"
	"github.com/vmunix/fafo/internal/policy"
	"github.com/vmunix/fafo/internal/resolver"
)

// Code classifies a facade error for callers.
type Code string

const (
	CodeValidation  Code = "VALIDATION"
	CodeNotFound    Code = "NOT_FOUND"
	CodeConflict    Code = "CONFLICT"
	CodeResolution  Code = "RESOLUTION"
	CodeUnavailable Code = "UNAVAILABLE"
	CodeStorage     Code = "STORAGE"
	CodeCanceled    Code = "CANCELED"
	CodeInternal    Code = "INTERNAL"
)

// Error is the caller-facing form of every error the facade returns.
// It unwraps to the underlying domain error.
type Error struct {
	Code    Code
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorCode returns the facade code carried by err, or "" if none.
func ErrorCode(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// translate converts a domain error from op into an *Error.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	return &Error{Code: classify(err), Op: op, Message: err.Error(), Err: err}
}

func classify(err error) Code {
	var (
		cve *catalog.ValidationError
		pve *policy.ValidationError
		re  *resolver.ResolutionError
		se  *catalog.StorageError
	)
	switch {
	case errors.As(err, &cve), errors.As(err, &pve),
		errors.Is(err, resolver.ErrEmptyReference), errors.Is(err, extract.ErrNotPlaylist):
		return CodeValidation
	case errors.Is(err, catalog.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, catalog.ErrConflict), errors.Is(err, catalog.ErrDuplicate):
		return CodeConflict
	case errors.As(err, &re):
		return CodeResolution
	case errors.Is(err, resolver.ErrCapabilityUnavailable):
		return CodeUnavailable
	case errors.As(err, &se), errors.Is(err, catalog.ErrConstraint):
		return CodeStorage
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	default:
		return CodeInternal
	}
}
