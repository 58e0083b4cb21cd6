package input

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// Injector issues synthetic pointer and keyboard input
type Injector interface {
	MoveCursor(ctx context.Context, x, y int) error
	Click(ctx context.Context) error
	PressKey(ctx context.Context, key string) error
	PressCombo(ctx context.Context, keys []string) error
}

// Runner executes a command and returns its combined output
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Controller drives xdotool. Commands are serialised so input events never interleave.
type Controller struct {
	path string
	run  Runner
	mu   sync.Mutex
}

// NewController creates a controller for the xdotool binary at path
func NewController(xdotoolPath string) *Controller {
	return &Controller{
		path: xdotoolPath,
		run:  execRunner,
	}
}

// WithRunner replaces the command runner
func (c *Controller) WithRunner(run Runner) *Controller {
	c.run = run
	return c
}

// Path returns the xdotool executable
func (c *Controller) Path() string {
	return c.path
}

// exec runs one xdotool invocation
func (c *Controller) exec(ctx context.Context, args ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	output, err := c.run(ctx, c.path, args...)
	if err != nil {
		return fmt.Errorf("xdotool %s failed: %w, output: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}
