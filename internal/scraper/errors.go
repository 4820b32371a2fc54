package scraper

import (
	"errors"
	"fmt"
)

// ErrStaleReference marks a read through an entry handle whose page
// content has changed or reloaded underneath it.
var ErrStaleReference = errors.New("stale element reference")

// DateParseError reports a publish-date string in an unrecognized format.
type DateParseError struct {
	Raw string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("invalid date format: %q", e.Raw)
}

// SessionError wraps a failure of a Session operation.
type SessionError struct {
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// IsStale reports whether err was caused by a stale entry reference.
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleReference)
}
