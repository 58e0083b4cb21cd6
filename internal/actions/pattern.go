package actions

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pattern holds one click pattern definition from a YAML document.
//
// Steps are written either with the shorthand fields
//
//	- position: [100, 200]
//	- keyboard: enter
//	- keyboard: [ctrl, c]
//	- delay: 0.5
//
// or as registered actions (`action: click`, `action: repeat`, ...).
// A shorthand step carrying several fields runs them as position, keyboard, delay.
type Pattern struct {
	Name        string       `yaml:"pattern_name"`
	Description string       `yaml:"description,omitempty"`
	Steps       []ActionStep `yaml:"steps"`
}

// shorthandFields are the keys accepted on a step without an 'action' field
var shorthandFields = map[string]bool{
	"position": true,
	"keyboard": true,
	"delay":    true,
}

// Custom Unmarshaler for polymorphic actions (Steps)
// This is required because 'steps' is a list of interfaces (ActionStep),
// and YAML doesn't know which concrete struct to use without help.
func (p *Pattern) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	if name, ok := raw["pattern_name"].(string); ok {
		p.Name = name
	} else if name, ok := raw["name"].(string); ok {
		p.Name = name
	}

	if desc, ok := raw["description"].(string); ok {
		p.Description = desc
	}

	stepsRaw, ok := raw["steps"]
	if !ok || stepsRaw == nil {
		// An empty pattern is rejected by the loader, not here
		return nil
	}

	steps, err := unmarshalSteps(stepsRaw, "step")
	if err != nil {
		return err
	}
	p.Steps = steps
	return nil
}

// getRegisteredActions returns a list of all registered action types for error messages
func getRegisteredActions() []string {
	actions := make([]string, 0, len(actionRegistry))
	for name := range actionRegistry {
		actions = append(actions, name)
	}
	sort.Strings(actions)
	return actions
}

// unmarshalNestedActions is a helper that unmarshals a polymorphic actions field
func unmarshalNestedActions(actionsRaw interface{}) ([]ActionStep, error) {
	return unmarshalSteps(actionsRaw, "action")
}

func unmarshalSteps(stepsRaw interface{}, label string) ([]ActionStep, error) {
	stepsSlice, ok := stepsRaw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("'%ss' field must be a list", label)
	}

	var steps []ActionStep
	for i, step := range stepsSlice {
		rawStep, ok := step.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s %d: must be a map/object", label, i+1)
		}

		var parsed []ActionStep
		var err error
		if _, hasAction := rawStep["action"]; hasAction {
			var action ActionStep
			action, err = unmarshalRegisteredAction(rawStep)
			parsed = []ActionStep{action}
		} else {
			parsed, err = unmarshalShorthand(rawStep)
		}
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", label, i+1, err)
		}
		steps = append(steps, parsed...)
	}
	return steps, nil
}

func unmarshalRegisteredAction(rawStep map[string]interface{}) (ActionStep, error) {
	actionType, ok := rawStep["action"].(string)
	if !ok || actionType == "" {
		return nil, fmt.Errorf("missing or invalid 'action' field")
	}

	stepType, found := actionRegistry[strings.ToLower(actionType)]
	if !found {
		return nil, fmt.Errorf("unknown action type '%s' (available types: %v)", actionType, getRegisteredActions())
	}

	action := reflect.New(stepType).Interface().(ActionStep)

	// Marshal the raw map back to YAML, then unmarshal it into the concrete struct
	stepBytes, err := yaml.Marshal(rawStep)
	if err != nil {
		return nil, fmt.Errorf("(%s) error marshaling raw step: %w", actionType, err)
	}
	if err := yaml.Unmarshal(stepBytes, action); err != nil {
		return nil, fmt.Errorf("(%s) error unmarshaling into %T: %w", actionType, action, err)
	}
	return action, nil
}

func unmarshalShorthand(rawStep map[string]interface{}) ([]ActionStep, error) {
	for key := range rawStep {
		if !shorthandFields[key] {
			return nil, fmt.Errorf("unknown field '%s' (expected position, keyboard, delay or action)", key)
		}
	}

	var steps []ActionStep
	if v, ok := rawStep["position"]; ok {
		click, err := parsePosition(v)
		if err != nil {
			return nil, err
		}
		steps = append(steps, click)
	}
	if v, ok := rawStep["keyboard"]; ok {
		key, err := parseKeyboard(v)
		if err != nil {
			return nil, err
		}
		steps = append(steps, key)
	}
	if v, ok := rawStep["delay"]; ok {
		delay, err := parseDelay(v)
		if err != nil {
			return nil, err
		}
		steps = append(steps, delay)
	}

	if len(steps) == 0 {
		return nil, fmt.Errorf("step has no position, keyboard or delay")
	}
	return steps, nil
}

func parsePosition(v interface{}) (*Click, error) {
	coords, ok := v.([]interface{})
	if !ok || len(coords) != 2 {
		return nil, fmt.Errorf("position must be a list of two integers, got %v", v)
	}
	x, xok := coords[0].(int)
	y, yok := coords[1].(int)
	if !xok || !yok {
		return nil, fmt.Errorf("position must be a list of two integers, got %v", v)
	}
	return &Click{X: x, Y: y}, nil
}

func parseKeyboard(v interface{}) (*SendKey, error) {
	switch k := v.(type) {
	case string:
		return &SendKey{Key: k}, nil
	case []interface{}:
		keys := make([]string, len(k))
		for i, item := range k {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("keyboard entry %d must be a string, got %v", i+1, item)
			}
			keys[i] = s
		}
		return &SendKey{Keys: keys}, nil
	default:
		return nil, fmt.Errorf("keyboard must be a key name or a list of key names, got %v", v)
	}
}

func parseDelay(v interface{}) (*Delay, error) {
	switch d := v.(type) {
	case int:
		return &Delay{Seconds: float64(d)}, nil
	case float64:
		return &Delay{Seconds: d}, nil
	default:
		return nil, fmt.Errorf("delay must be a number of seconds, got %v", v)
	}
}
