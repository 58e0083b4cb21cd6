package actions

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type PatternLoader struct{}

func NewPatternLoader() *PatternLoader {
	return &PatternLoader{}
}

// LoadFromFile reads a YAML file holding one or more patterns separated by
// '---', validates every step and builds one ActionBuilder per pattern.
func (pl *PatternLoader) LoadFromFile(filepath string) ([]*ActionBuilder, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file %s: %w", filepath, err)
	}
	return pl.Load(data)
}

// Load parses patterns from raw YAML
func (pl *PatternLoader) Load(data []byte) ([]*ActionBuilder, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))

	var builders []*ActionBuilder
	for doc := 1; ; doc++ {
		var pattern Pattern
		err := decoder.Decode(&pattern)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal pattern document %d: %w", doc, err)
		}

		if pattern.Name == "" {
			pattern.Name = fmt.Sprintf("pattern %d", doc)
		}

		ab, err := pl.Build(&pattern)
		if err != nil {
			return nil, err
		}
		builders = append(builders, ab)
	}

	if len(builders) == 0 {
		return nil, fmt.Errorf("no patterns defined")
	}
	return builders, nil
}

// Build validates the steps of an already decoded pattern and builds them
func (pl *PatternLoader) Build(pattern *Pattern) (*ActionBuilder, error) {
	if len(pattern.Steps) == 0 {
		return nil, fmt.Errorf("pattern '%s' has no steps", pattern.Name)
	}

	ab := NewActionBuilder().Named(pattern.Name)
	for i, action := range pattern.Steps {
		// Fail fast on the first invalid step
		if err := action.Validate(ab); err != nil {
			return nil, fmt.Errorf("pattern '%s' step %d validation failed: %w", pattern.Name, i+1, err)
		}
		ab = action.Build(ab)
	}
	return ab, nil
}
