package actions

import (
	"context"
	"fmt"
	"strings"
)

// SendKey taps Key, or presses Keys together as a combination
type SendKey struct {
	Key  string   `yaml:"key"`
	Keys []string `yaml:"keys"`
}

// keyList resolves the keys to press. "ctrl+c" is read as a combination.
func (a *SendKey) keyList() []string {
	if len(a.Keys) > 0 {
		return a.Keys
	}
	if a.Key == "" {
		return nil
	}
	if parts := strings.Split(a.Key, "+"); len(parts) > 1 {
		combo := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				combo = append(combo, p)
			}
		}
		if len(combo) == len(parts) {
			return combo
		}
	}
	return []string{a.Key}
}

func (a *SendKey) Validate(ab *ActionBuilder) error {
	if a.Key != "" && len(a.Keys) > 0 {
		return fmt.Errorf("set either key or keys, not both")
	}
	keys := a.keyList()
	if len(keys) == 0 {
		return fmt.Errorf("no key given")
	}
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("empty key in %v", keys)
		}
	}
	return nil
}

func (a *SendKey) Build(ab *ActionBuilder) *ActionBuilder {
	keys := a.keyList()
	step := Step{
		name: fmt.Sprintf("Send Key (%s)", strings.Join(keys, "+")),
		execute: func(ctx context.Context, ex Executor) error {
			return ex.PressKeys(ctx, keys)
		},
		issue: a.Validate(ab),
	}
	ab.steps = append(ab.steps, step)
	return ab
}
