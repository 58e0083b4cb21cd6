package clicker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"jordanella.com/autoclicker-go/internal/actions"
	"jordanella.com/autoclicker-go/internal/audio"
	"jordanella.com/autoclicker-go/internal/cv"
	"jordanella.com/autoclicker-go/internal/events"
	"jordanella.com/autoclicker-go/internal/input"
	"jordanella.com/autoclicker-go/internal/logging"
)

// Stop reasons reported in the RunStopped event
const (
	ReasonStopped       = "stopped"
	ReasonMaxRuntime    = "max runtime reached"
	ReasonCaptureFailed = "capture failed"
	ReasonCancelled     = "cancelled"
)

// Dependencies are the capabilities a Bot drives
type Dependencies struct {
	Capturer cv.Capturer
	Detector cv.TextDetector // required for text and mixed modes
	Injector input.Injector
	Player   audio.Player    // used when SoundFeedback is set
	Bus      events.EventBus // optional
	Logger   *logging.Logger
	Patterns []*actions.ActionBuilder // overrides Options.PatternFile when set
}

// Bot runs the scan loop
type Bot struct {
	opts     Options
	control  *RunController
	stats    *Statistics
	exec     *Executor
	capture  *cv.Service
	strategy Strategy
	debug    *cv.DebugRecorder // nil unless DebugScreenshots
	bus      events.EventBus
	logger   *logging.Logger
}

// New validates opts and wires a Bot. Every configuration problem, including
// an unreadable pattern file, is returned as a *ConfigurationError.
func New(opts Options, deps Dependencies) (*Bot, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if deps.Capturer == nil {
		return nil, configErrorf("capturer", "no screen capture method")
	}
	if deps.Injector == nil {
		return nil, configErrorf("injector", "no input injector")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewLogger("clicker")
	}

	b := &Bot{
		opts:    opts,
		control: NewRunController(),
		stats:   NewStatistics(),
		bus:     deps.Bus,
		logger:  deps.Logger,
	}

	b.capture = cv.NewServiceWithCache(deps.Capturer, opts.CacheDuration).WithRegion(opts.Region)

	b.exec = NewExecutor(deps.Injector, b.control, b.stats, deps.Logger).
		WithSafetyZones(opts.SafetyZones).
		WithEventBus(deps.Bus)
	if opts.SoundFeedback && deps.Player != nil {
		b.exec.WithSound(deps.Player, opts.SoundFile)
	}

	strategy, err := b.buildStrategy(opts, deps)
	if err != nil {
		return nil, err
	}
	b.strategy = strategy

	if opts.DebugScreenshots {
		dir := opts.DebugDir
		if dir == "" {
			dir = DefaultDebugDir
		}
		b.debug, err = cv.NewDebugRecorder(dir)
		if err != nil {
			return nil, configErrorf("debug_dir", "%v", err)
		}
	}

	return b, nil
}

func (b *Bot) buildStrategy(opts Options, deps Dependencies) (Strategy, error) {
	if opts.Mode == ModePattern {
		patterns := deps.Patterns
		if len(patterns) == 0 {
			var err error
			patterns, err = actions.NewPatternLoader().LoadFromFile(opts.PatternFile)
			if err != nil {
				return nil, configErrorf("pattern_file", "%v", err)
			}
		}
		return NewPatternStrategy(patterns, b.exec), nil
	}

	targets := SplitTargets(opts.Targets)
	images := cv.NewTemplateMatcher(cv.NewTemplateStore(), opts.MatchMethod)

	var texts *cv.TextMatcher
	if opts.Mode != ModeImage {
		if deps.Detector == nil {
			return nil, configErrorf("detector", "%s mode needs a text detector", opts.Mode)
		}
		texts = cv.NewTextMatcher(deps.Detector, deps.Logger)
		if opts.OCRPreprocessing {
			texts.WithPreprocessors(cv.DefaultPreprocessors())
		}
	}

	var s *TargetStrategy
	switch opts.Mode {
	case ModeImage:
		s = ImageStrategy(targets, opts.Confidence, images, b.exec)
	case ModeText:
		s = TextStrategy(targets, opts.Confidence, texts, b.exec)
	default:
		imagePaths, textTargets := ClassifyTargets(targets)
		s = MixedStrategy(imagePaths, textTargets, opts.Confidence, images, texts, b.exec)
	}
	return s.WithEventBus(b.bus), nil
}

// Accessors

func (b *Bot) State() RunState    { return b.control.State() }
func (b *Bot) Stats() Snapshot    { return b.stats.Snapshot() }
func (b *Bot) Strategy() Strategy { return b.strategy }

func (b *Bot) publish(event events.Event) {
	if b.bus != nil {
		b.bus.Publish(event)
	}
}

// Control

// Start begins a run: statistics and timers are reset and the capture cache
// dropped. Returns ErrAlreadyRunning while a run is active.
func (b *Bot) Start() error {
	if !b.control.Start(b.opts.MaxRuntime) {
		return ErrAlreadyRunning
	}
	b.stats.Reset(b.control.StartedAt())
	b.capture.InvalidateCache()

	targets := b.opts.Targets
	if ps, ok := b.strategy.(*PatternStrategy); ok {
		targets = ps.Patterns()
	} else if ts, ok := b.strategy.(*TargetStrategy); ok {
		targets = ts.Targets()
	}

	b.logger.InfoWithContext(fmt.Sprintf("Starting %s autoclicker", b.strategy.Name()), map[string]interface{}{
		"targets":     targets,
		"confidence":  b.opts.Confidence,
		"interval":    b.opts.Interval.String(),
		"max_runtime": b.opts.MaxRuntime.String(),
	})
	b.publish(events.NewRunStartedEvent(string(b.opts.Mode), targets))
	return nil
}

func (b *Bot) Pause() bool {
	if !b.control.Pause() {
		return false
	}
	b.logger.Info("Paused")
	b.publish(events.NewRunStateEvent(events.EventTypeRunPaused))
	return true
}

func (b *Bot) Resume() bool {
	if !b.control.Resume() {
		return false
	}
	b.logger.Info("Resumed")
	b.publish(events.NewRunStateEvent(events.EventTypeRunResumed))
	return true
}

// TogglePause pauses a running loop or resumes a paused one
func (b *Bot) TogglePause() RunState {
	if b.Pause() {
		return StatePaused
	}
	if b.Resume() {
		return StateRunning
	}
	return b.control.State()
}

// Stop requests the loop to end; it returns at its next check point
func (b *Bot) Stop() bool {
	return b.control.Stop()
}

// Run starts a run and executes the scan loop until it is stopped, the max
// runtime elapses or ctx is cancelled. Only a capture failure is returned as
// an error once the run has started.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.Start(); err != nil {
		return err
	}

	stopOnCancel := context.AfterFunc(ctx, func() { b.control.Stop() })
	defer stopOnCancel()

	reason, err := b.loop(ctx)

	b.control.Stop()
	b.stats.Finish(b.stats.now())
	b.exec.WaitSounds()

	snap := b.stats.Snapshot()
	if err != nil {
		b.logger.Error("Scan loop failed", err)
		b.publish(events.NewErrorEvent("scanner", "scan loop failed", err))
	}
	b.logger.InfoWithContext(fmt.Sprintf("%s autoclicker stopped", b.strategy.Name()), map[string]interface{}{
		"reason":           reason,
		"clicks_attempted": snap.ClicksAttempted,
		"clicks_succeeded": snap.ClicksSucceeded,
		"success_rate":     fmt.Sprintf("%.1f%%", snap.SuccessRate),
		"elapsed":          snap.Elapsed.Round(time.Millisecond).String(),
	})
	b.publish(events.NewRunStoppedEvent(reason, snap.ClicksAttempted, snap.ClicksSucceeded, snap.Elapsed))
	return err
}

func (b *Bot) loop(ctx context.Context) (string, error) {
	for {
		if b.control.DeadlineExceeded() {
			b.logger.Info("Max runtime reached")
			return ReasonMaxRuntime, nil
		}

		if !b.control.WaitWhilePaused(ctx) {
			return b.stopReason(ctx), nil
		}

		var frame *image.RGBA
		if b.strategy.NeedsFrame() {
			var err error
			frame, err = b.capture.Capture()
			if err != nil {
				return ReasonCaptureFailed, err
			}
		}

		result, err := b.strategy.Cycle(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				return ReasonCancelled, nil
			}
			return ReasonStopped, err
		}

		if b.control.IsStopped() {
			return b.stopReason(ctx), nil
		}

		if !result.Matched {
			b.logger.Info("No targets found, waiting...")
		}
		b.saveDebugFrame(frame, result)

		if b.control.DeadlineExceeded() {
			b.logger.Info("Max runtime reached")
			return ReasonMaxRuntime, nil
		}

		if !b.control.Sleep(ctx, b.opts.Interval) {
			return b.stopReason(ctx), nil
		}
	}
}

func (b *Bot) stopReason(ctx context.Context) string {
	switch {
	case ctx.Err() != nil:
		return ReasonCancelled
	case b.control.DeadlineExceeded():
		return ReasonMaxRuntime
	default:
		return ReasonStopped
	}
}

func (b *Bot) saveDebugFrame(frame *image.RGBA, result *CycleResult) {
	if b.debug == nil || frame == nil {
		return
	}

	var path string
	var err error
	switch {
	case !result.Matched:
		path, err = b.debug.SaveNoMatch(frame)
	case result.Match != nil:
		path, err = b.debug.SaveMatch(frame, result.Match)
	default:
		return
	}

	if err != nil {
		b.logger.Warn(fmt.Sprintf("Failed to save debug screenshot: %v", err))
		return
	}
	if path != "" {
		b.logger.DebugWithContext("Saved debug screenshot", map[string]interface{}{
			"path": path,
		})
	}
}

// IsCaptureError reports whether err ended a run because the screen could not be captured
func IsCaptureError(err error) bool {
	var captureErr *cv.CaptureError
	return errors.As(err, &captureErr)
}
