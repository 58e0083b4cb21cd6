package actions

import (
	"context"
	"fmt"
	"image"
)

// Click clicks an absolute screen position. Safety zones still apply.
type Click struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

func (a *Click) Validate(ab *ActionBuilder) error {
	if a.X < 0 || a.Y < 0 {
		return fmt.Errorf("position (%d, %d) is off screen", a.X, a.Y)
	}
	return nil
}

func (a *Click) Build(ab *ActionBuilder) *ActionBuilder {
	target := image.Point{X: a.X, Y: a.Y}

	ab.steps = append(ab.steps, Step{
		name: fmt.Sprintf("Click (%d, %d)", a.X, a.Y),
		execute: func(ctx context.Context, ex Executor) error {
			// A suppressed or failed click is counted by the executor, not an error
			ex.ClickAt(ctx, &target)
			return nil
		},
		issue: a.Validate(ab),
	})
	return ab
}
