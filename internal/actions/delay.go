package actions

import (
	"context"
	"fmt"
	"time"
)

// Delay waits between steps; a stop cuts it short
type Delay struct {
	Seconds float64 `yaml:"seconds"`
}

func (a *Delay) Validate(ab *ActionBuilder) error {
	if a.Seconds < 0 {
		return fmt.Errorf("delay of %gs is negative", a.Seconds)
	}
	return nil
}

func (a *Delay) Duration() time.Duration {
	return time.Duration(a.Seconds * float64(time.Second))
}

func (a *Delay) Build(ab *ActionBuilder) *ActionBuilder {
	ab.steps = append(ab.steps, Step{
		name: fmt.Sprintf("Delay (%gs)", a.Seconds),
		execute: func(ctx context.Context, ex Executor) error {
			if ex.Sleep(ctx, a.Duration()) {
				return nil
			}
			return ErrStopped
		},
		issue: a.Validate(ab),
	})
	return ab
}
