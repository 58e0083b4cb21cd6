package actions

import (
	"context"
	"errors"
	"fmt"
)

// ErrStopped is returned when a stop signal aborts a pattern mid-sequence
var ErrStopped = errors.New("pattern stopped")

type ActionStep interface {
	Validate(ab *ActionBuilder) error
	Build(ab *ActionBuilder) *ActionBuilder
}

// ActionBuilder holds the executable steps of one pattern
type ActionBuilder struct {
	name  string
	steps []Step
}

// NewActionBuilder creates an empty, unnamed builder
func NewActionBuilder() *ActionBuilder {
	return &ActionBuilder{}
}

type Step struct {
	name    string
	execute func(ctx context.Context, ex Executor) error // Executor is provided at execution time
	issue   error
}

// Named sets the pattern name used in logs
func (ab *ActionBuilder) Named(name string) *ActionBuilder {
	ab.name = name
	return ab
}

func (ab *ActionBuilder) Name() string {
	return ab.name
}

// Len returns the number of executable steps
func (ab *ActionBuilder) Len() int {
	return len(ab.steps)
}

// StepNames lists the steps in execution order
func (ab *ActionBuilder) StepNames() []string {
	names := make([]string, len(ab.steps))
	for i, s := range ab.steps {
		names[i] = s.name
	}
	return names
}

// Execution

// Execute runs every step in order. Pause and stop are checked before each
// step, so a stop aborts the remaining steps without running them.
func (ab *ActionBuilder) Execute(ctx context.Context, ex Executor) error {
	return ab.executeSteps(ctx, ex)
}

// Internal

func (ab *ActionBuilder) executeSteps(ctx context.Context, ex Executor) error {
	for _, step := range ab.steps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if !ex.CheckPauseOrStop() {
			return ErrStopped
		}

		if step.issue != nil {
			return fmt.Errorf("build configuration error for step '%s': %w", step.name, step.issue)
		}

		if err := step.execute(ctx, ex); err != nil {
			if errors.Is(err, ErrStopped) || errors.Is(err, context.Canceled) {
				return err
			}
			return fmt.Errorf("step '%s' failed: %w", step.name, err)
		}
	}
	return nil
}

func (ab *ActionBuilder) buildSteps(actions []ActionStep) []Step {
	// ActionStep.Build appends to its receiver, so collect into a scratch builder
	tempBuilder := NewActionBuilder()
	for _, action := range actions {
		action.Build(tempBuilder)
	}
	return tempBuilder.steps
}
