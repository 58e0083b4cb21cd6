package audio

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultSoundFile is the freedesktop "complete" cue shipped by most desktops
const DefaultSoundFile = "/usr/share/sounds/freedesktop/stereo/complete.oga"

// Player plays a short sound cue
type Player interface {
	Play(ctx context.Context, path string) error
}

// Runner executes a command and returns its combined output
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// CommandPlayer plays through the first available of paplay and aplay
type CommandPlayer struct {
	players []string
	timeout time.Duration
	run     Runner
}

// NewCommandPlayer creates a player that tries paplay, then aplay
func NewCommandPlayer() *CommandPlayer {
	return &CommandPlayer{
		players: []string{"paplay", "aplay"},
		timeout: 5 * time.Second,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).CombinedOutput()
		},
	}
}

// WithRunner replaces the command runner
func (p *CommandPlayer) WithRunner(run Runner) *CommandPlayer {
	p.run = run
	return p
}

// Play blocks until the cue finished or every player failed
func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	if path == "" {
		path = DefaultSoundFile
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var errs []error
	for _, player := range p.players {
		output, err := p.run(ctx, player, path)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w, output: %s", player, err, strings.TrimSpace(string(output))))
	}
	return errors.Join(errs...)
}
