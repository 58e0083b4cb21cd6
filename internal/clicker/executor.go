package clicker

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"jordanella.com/autoclicker-go/internal/audio"
	"jordanella.com/autoclicker-go/internal/cv"
	"jordanella.com/autoclicker-go/internal/events"
	"jordanella.com/autoclicker-go/internal/input"
	"jordanella.com/autoclicker-go/internal/logging"
)

// Executor performs clicks and key presses on behalf of the scan loop and
// pattern steps. It implements actions.Executor.
type Executor struct {
	injector input.Injector
	control  *RunController
	stats    *Statistics
	zones    []cv.Region

	player    audio.Player // nil = no sound cue
	soundFile string
	sounds    sync.WaitGroup

	bus    events.EventBus
	logger *logging.Logger
}

// NewExecutor creates an executor sharing control and stats with the loop
func NewExecutor(injector input.Injector, control *RunController, stats *Statistics, logger *logging.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		injector: injector,
		control:  control,
		stats:    stats,
		logger:   logger,
	}
}

// WithSafetyZones sets the zones where clicks are suppressed
func (e *Executor) WithSafetyZones(zones []cv.Region) *Executor {
	e.zones = zones
	return e
}

// WithSound plays file through player after each successful click
func (e *Executor) WithSound(player audio.Player, file string) *Executor {
	e.player = player
	e.soundFile = file
	return e
}

// WithEventBus publishes click events to bus
func (e *Executor) WithEventBus(bus events.EventBus) *Executor {
	e.bus = bus
	return e
}

func (e *Executor) publish(event events.Event) {
	if e.bus != nil {
		e.bus.Publish(event)
	}
}

// ClickAt moves the pointer to p and clicks. A paused run blocks here until
// resumed. It returns false without touching the input device when p is nil,
// the run is stopped, p is inside a safety zone, or the max runtime has
// elapsed; in the last case the run is stopped.
func (e *Executor) ClickAt(ctx context.Context, p *image.Point) bool {
	if p == nil {
		return false
	}

	if !e.control.WaitWhilePaused(ctx) {
		return false
	}

	if e.control.DeadlineExceeded() {
		e.control.Stop()
		return false
	}

	if IsUnsafe(*p, e.zones) {
		e.logger.InfoWithContext("Click suppressed by safety zone", map[string]interface{}{
			"x": p.X,
			"y": p.Y,
		})
		e.publish(events.NewClickEvent(events.EventTypeClickSuppressed, p.X, p.Y, nil))
		return false
	}

	err := e.injector.MoveCursor(ctx, p.X, p.Y)
	if err == nil {
		err = e.injector.Click(ctx)
	}
	e.stats.RecordAttempt(err == nil)

	if err != nil {
		err = fmt.Errorf("click at (%d, %d) failed: %w", p.X, p.Y, err)
		e.logger.Error("Click failed", err)
		e.publish(events.NewClickEvent(events.EventTypeClickFailed, p.X, p.Y, err))
		return false
	}

	e.logger.DebugWithContext("Clicked", map[string]interface{}{
		"x": p.X,
		"y": p.Y,
	})
	e.publish(events.NewClickEvent(events.EventTypeClickSucceeded, p.X, p.Y, nil))
	e.playCue()
	return true
}

func (e *Executor) playCue() {
	if e.player == nil {
		return
	}
	e.sounds.Add(1)
	go func() {
		defer e.sounds.Done()
		if err := e.player.Play(context.Background(), e.soundFile); err != nil {
			e.logger.WarnWithContext("Sound cue failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
}

// WaitSounds blocks until every pending sound cue finished
func (e *Executor) WaitSounds() {
	e.sounds.Wait()
}

// PressKeys taps one key, or holds several together as a combination
func (e *Executor) PressKeys(ctx context.Context, keys []string) error {
	var err error
	switch len(keys) {
	case 0:
		return fmt.Errorf("no keys to press")
	case 1:
		err = e.injector.PressKey(ctx, keys[0])
	default:
		err = e.injector.PressCombo(ctx, keys)
	}
	if err != nil {
		e.logger.Error("Keyboard input failed", err)
		return err
	}
	e.logger.DebugWithContext("Pressed keys", map[string]interface{}{
		"keys": keys,
	})
	return nil
}

// Sleep waits for d unless the run is stopped first
func (e *Executor) Sleep(ctx context.Context, d time.Duration) bool {
	return e.control.Sleep(ctx, d)
}

// CheckPauseOrStop blocks while paused and returns false once stopped
func (e *Executor) CheckPauseOrStop() bool {
	return e.control.CheckPauseOrStop()
}
