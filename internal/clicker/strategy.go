package clicker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"jordanella.com/autoclicker-go/internal/actions"
	"jordanella.com/autoclicker-go/internal/cv"
	"jordanella.com/autoclicker-go/internal/events"
	"jordanella.com/autoclicker-go/internal/logging"
)

// CycleResult describes what one cycle of a strategy did
type CycleResult struct {
	Matched bool   // a target was found, or a pattern ran
	Clicked bool   // the resulting click went through
	Target  string // matched target or pattern name
	Match   *cv.MatchResult
}

// Strategy is the per-cycle work of the scan loop
type Strategy interface {
	Name() string
	// NeedsFrame reports whether Cycle reads the captured frame
	NeedsFrame() bool
	Cycle(ctx context.Context, frame *image.RGBA) (*CycleResult, error)
}

type targetKind int

const (
	imageTarget targetKind = iota
	textTarget
)

type target struct {
	kind  targetKind
	value string
}

// TargetStrategy scans targets in order and clicks the first one found
type TargetStrategy struct {
	name       string
	targets    []target
	confidence float64

	images *cv.TemplateMatcher
	texts  *cv.TextMatcher
	exec   *Executor
	bus    events.EventBus
	logger *logging.Logger
}

// ImageStrategy matches every target as a template image
func ImageStrategy(paths []string, confidence float64, images *cv.TemplateMatcher, exec *Executor) *TargetStrategy {
	return newTargetStrategy("image", confidence, exec).withImages(images, paths)
}

// TextStrategy matches every target as on-screen text
func TextStrategy(texts []string, confidence float64, matcher *cv.TextMatcher, exec *Executor) *TargetStrategy {
	return newTargetStrategy("text", confidence, exec).withTexts(matcher, texts)
}

// MixedStrategy scans all image targets before any text target
func MixedStrategy(paths, texts []string, confidence float64, images *cv.TemplateMatcher, matcher *cv.TextMatcher, exec *Executor) *TargetStrategy {
	return newTargetStrategy("mixed", confidence, exec).withImages(images, paths).withTexts(matcher, texts)
}

func newTargetStrategy(name string, confidence float64, exec *Executor) *TargetStrategy {
	return &TargetStrategy{
		name:       name,
		confidence: confidence,
		exec:       exec,
		logger:     exec.logger,
	}
}

func (s *TargetStrategy) withImages(m *cv.TemplateMatcher, paths []string) *TargetStrategy {
	s.images = m
	for _, p := range paths {
		s.targets = append(s.targets, target{kind: imageTarget, value: p})
	}
	return s
}

func (s *TargetStrategy) withTexts(m *cv.TextMatcher, texts []string) *TargetStrategy {
	s.texts = m
	for _, t := range texts {
		s.targets = append(s.targets, target{kind: textTarget, value: t})
	}
	return s
}

// WithEventBus publishes a TargetMatched event for each match
func (s *TargetStrategy) WithEventBus(bus events.EventBus) *TargetStrategy {
	s.bus = bus
	return s
}

func (s *TargetStrategy) Name() string {
	return s.name
}

func (s *TargetStrategy) NeedsFrame() bool {
	return true
}

// Targets lists the target values in scan order
func (s *TargetStrategy) Targets() []string {
	out := make([]string, len(s.targets))
	for i, t := range s.targets {
		out[i] = t.value
	}
	return out
}

// Cycle clicks at most once. A pause between targets blocks the scan until
// resumed. Match errors are logged and the target treated as not found; only
// context cancellation is returned as an error.
func (s *TargetStrategy) Cycle(ctx context.Context, frame *image.RGBA) (*CycleResult, error) {
	for _, t := range s.targets {
		if !s.exec.control.WaitWhilePaused(ctx) {
			break
		}

		point, match, err := s.find(ctx, frame, t)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var matchErr *cv.MatchError
			if errors.As(err, &matchErr) {
				s.logger.WarnWithContext("Target could not be matched", map[string]interface{}{
					"target": t.value,
					"error":  err.Error(),
				})
				continue
			}
			return nil, err
		}
		if point == nil {
			continue
		}

		s.logger.InfoWithContext(fmt.Sprintf("Found target '%s', clicking...", t.display()), map[string]interface{}{
			"x": point.X,
			"y": point.Y,
		})
		if s.bus != nil {
			s.bus.Publish(events.NewTargetMatchedEvent(t.value, point.X, point.Y))
		}

		return &CycleResult{
			Matched: true,
			Clicked: s.exec.ClickAt(ctx, point),
			Target:  t.value,
			Match:   match,
		}, nil
	}
	return &CycleResult{}, nil
}

func (s *TargetStrategy) find(ctx context.Context, frame *image.RGBA, t target) (*image.Point, *cv.MatchResult, error) {
	switch t.kind {
	case imageTarget:
		result, err := s.images.MatchImage(frame, t.value, s.confidence)
		if err != nil || !result.Found {
			return nil, nil, err
		}
		return &result.Center, result, nil
	default:
		match, err := s.texts.MatchText(ctx, frame, t.value)
		if err != nil || match == nil {
			return nil, nil, err
		}
		return &match.Center, nil, nil
	}
}

func (t target) display() string {
	if t.kind == imageTarget {
		return filepath.Base(t.value)
	}
	return t.value
}

// PatternStrategy runs one pattern per cycle, round-robin
type PatternStrategy struct {
	patterns []*actions.ActionBuilder
	next     int
	exec     *Executor
	logger   *logging.Logger
}

func NewPatternStrategy(patterns []*actions.ActionBuilder, exec *Executor) *PatternStrategy {
	return &PatternStrategy{
		patterns: patterns,
		exec:     exec,
		logger:   exec.logger,
	}
}

func (s *PatternStrategy) Name() string {
	return "pattern"
}

func (s *PatternStrategy) NeedsFrame() bool {
	return false
}

// Patterns returns the pattern names in run order
func (s *PatternStrategy) Patterns() []string {
	names := make([]string, len(s.patterns))
	for i, p := range s.patterns {
		names[i] = p.Name()
	}
	return names
}

// Cycle executes the next pattern in full. A stop mid-pattern aborts the
// remaining steps and is not an error; a failing step is logged.
func (s *PatternStrategy) Cycle(ctx context.Context, _ *image.RGBA) (*CycleResult, error) {
	if len(s.patterns) == 0 {
		return &CycleResult{}, nil
	}

	pattern := s.patterns[s.next]
	s.next = (s.next + 1) % len(s.patterns)

	s.logger.InfoWithContext("Running pattern", map[string]interface{}{
		"pattern": pattern.Name(),
		"steps":   pattern.Len(),
	})

	err := pattern.Execute(ctx, s.exec)
	switch {
	case err == nil, errors.Is(err, actions.ErrStopped):
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		s.logger.ErrorWithContext("Pattern aborted", err, map[string]interface{}{
			"pattern": pattern.Name(),
		})
	}

	return &CycleResult{Matched: true, Target: pattern.Name()}, nil
}
