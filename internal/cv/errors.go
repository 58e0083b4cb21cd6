package cv

import (
	"errors"
	"fmt"
)

var (
	ErrTemplateNotFound   = errors.New("template file not found")
	ErrTemplateUnreadable = errors.New("template file unreadable")
	ErrNoCaptureMethods   = errors.New("no capture methods configured")
)

// CaptureError is returned when no capture method produced a frame.
// It is fatal to a scan run.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("screen capture failed: %v", e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// MatchError reports a target that could not be evaluated at all.
// Callers treat it as "not found" and keep scanning.
type MatchError struct {
	Target string
	Err    error
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("match %q: %v", e.Target, e.Err)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}
