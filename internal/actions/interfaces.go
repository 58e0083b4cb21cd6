package actions

import (
	"context"
	"image"
	"time"
)

// Executor performs the side effects of pattern steps.
// Implemented by the clicker so this package stays free of input and capture code.
type Executor interface {
	// ClickAt clicks at p and reports whether the click went through.
	// A suppressed or failed click is not a step error.
	ClickAt(ctx context.Context, p *image.Point) bool

	// PressKeys taps a single key, or holds keys together when len(keys) > 1
	PressKeys(ctx context.Context, keys []string) error

	// Sleep waits for d and returns false if a stop interrupted it
	Sleep(ctx context.Context, d time.Duration) bool

	// CheckPauseOrStop blocks while paused and returns false once stopped
	CheckPauseOrStop() bool
}
