package resolver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vmunix/fafo/internal/policy"
)

var (
	// ErrCapabilityUnavailable indicates a strategy slot has nothing able to
	// extract, either because it is unconfigured or its tool is missing.
	ErrCapabilityUnavailable = errors.New("extraction capability unavailable")

	// ErrTimeout indicates a strategy exceeded the request timeout.
	ErrTimeout = errors.New("strategy timed out")

	// ErrNoStream indicates a strategy reported success without a URL.
	ErrNoStream = errors.New("no playable stream returned")

	// ErrEmptyReference is returned for a blank source reference.
	ErrEmptyReference = errors.New("empty source reference")
)

// Attempt records one strategy invocation that failed.
type Attempt struct {
	Slot     policy.Slot
	Strategy string
	Err      error
	Duration time.Duration
}

// ResolutionError is returned when every strategy in the chain failed.
// Callers are expected to fall back to direct playback of Reference.
type ResolutionError struct {
	Reference string
	Class     Class
	Attempts  []Attempt
}

func (e *ResolutionError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s/%s: %v", a.Slot, a.Strategy, a.Err)
	}
	return fmt.Sprintf("resolve %s (%s): all strategies failed: %s",
		e.Reference, e.Class, strings.Join(parts, "; "))
}

// Unwrap returns the last failure cause.
func (e *ResolutionError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}
