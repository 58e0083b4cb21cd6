package actions

import (
	"context"
	"fmt"
)

// Repeat runs its nested actions a fixed number of times
type Repeat struct {
	Iterations int
	Actions    []ActionStep
}

// UnmarshalYAML decodes the nested actions with the same rules as pattern steps
func (a *Repeat) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		Iterations int           `yaml:"iterations"`
		Actions    []interface{} `yaml:"actions"`
	}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	nested, err := unmarshalNestedActions(raw.Actions)
	if err != nil {
		return err
	}

	a.Iterations = raw.Iterations
	a.Actions = nested
	return nil
}

func (a *Repeat) Validate(ab *ActionBuilder) error {
	switch {
	case a.Iterations <= 0:
		return fmt.Errorf("iterations (%d) must be positive", a.Iterations)
	case len(a.Actions) == 0:
		return fmt.Errorf("no actions to repeat")
	}

	for i, action := range a.Actions {
		if err := action.Validate(ab); err != nil {
			return fmt.Errorf("repeated action %d: %w", i+1, err)
		}
	}
	return nil
}

// Build compiles the nested actions once; every iteration reuses them
func (a *Repeat) Build(ab *ActionBuilder) *ActionBuilder {
	body := &ActionBuilder{steps: ab.buildSteps(a.Actions)}

	ab.steps = append(ab.steps, Step{
		name: fmt.Sprintf("Repeat (%dx)", a.Iterations),
		execute: func(ctx context.Context, ex Executor) error {
			for i := 1; i <= a.Iterations; i++ {
				if err := body.executeSteps(ctx, ex); err != nil {
					return fmt.Errorf("iteration %d/%d: %w", i, a.Iterations, err)
				}
			}
			return nil
		},
		issue: a.Validate(ab),
	})
	return ab
}
