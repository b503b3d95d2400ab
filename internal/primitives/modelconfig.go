// ModelConfig is the declarative description of a simulation model: the
// events it declares and the processes that are elaborated against them.
// Validation ensures ID presence, unique names, valid kinds, existing
// sensitivity targets and that every cthread has a clock.

package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// ModelConfig defines a complete model.
type ModelConfig struct {
	Version   string           `json:"version,omitempty" yaml:"version,omitempty"`
	ID        string           `json:"id" yaml:"id"`
	Events    []*EventConfig   `json:"events,omitempty" yaml:"events,omitempty"`
	Resets    []string         `json:"resets,omitempty" yaml:"resets,omitempty"`
	Processes []*ProcessConfig `json:"processes" yaml:"processes"`
}

// Validate validates the model:
// - non-empty ID and at least one process
// - event, reset and process names are unique and well formed
// - every process validates
// - every sensitivity, clock and reset reference exists
func (m *ModelConfig) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("%w: model ID is required", ErrInvalidConfig)
	}
	if len(m.Processes) == 0 {
		return fmt.Errorf("%w: model %q declares no processes", ErrInvalidConfig, m.ID)
	}

	events := make(map[string]bool, len(m.Events))
	for i, e := range m.Events {
		if e == nil {
			return fmt.Errorf("%w: event %d is nil", ErrInvalidConfig, i)
		}
		if err := validateName(e.Name); err != nil {
			return fmt.Errorf("%w: event %d: %v", ErrInvalidConfig, i, err)
		}
		if events[e.Name] {
			return fmt.Errorf("%w: duplicate event %q", ErrInvalidConfig, e.Name)
		}
		events[e.Name] = true
	}

	resets := make(map[string]bool, len(m.Resets))
	for _, r := range m.Resets {
		if err := validateName(r); err != nil {
			return fmt.Errorf("%w: reset: %v", ErrInvalidConfig, err)
		}
		if resets[r] {
			return fmt.Errorf("%w: duplicate reset %q", ErrInvalidConfig, r)
		}
		resets[r] = true
	}

	procs := make(map[string]bool, len(m.Processes))
	for i, p := range m.Processes {
		if p == nil {
			return fmt.Errorf("%w: process %d is nil", ErrInvalidConfig, i)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: process %q: %v", ErrInvalidConfig, p.Name, err)
		}
		if procs[p.Name] || events[p.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidConfig, p.Name)
		}
		procs[p.Name] = true

		for _, s := range p.Sensitive {
			if !events[s] {
				return fmt.Errorf("%w: process %q is sensitive to unknown event %q", ErrInvalidConfig, p.Name, s)
			}
		}
		if p.Clock != "" && !events[p.Clock] {
			return fmt.Errorf("%w: process %q clocked by unknown event %q", ErrInvalidConfig, p.Name, p.Clock)
		}
		for _, r := range p.Resets {
			if !resets[r] {
				return fmt.Errorf("%w: process %q registered with unknown reset %q", ErrInvalidConfig, p.Name, r)
			}
		}
	}
	return nil
}

// FindProcess returns the process config with the given name.
func (m *ModelConfig) FindProcess(name string) (*ProcessConfig, error) {
	for _, p := range m.Processes {
		if p != nil && p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("process %q: %w", name, ErrNotFound)
}

// validateName accepts alphanumeric segments plus '_' and '-'. Dots are
// reserved for hierarchical names.
func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return fmt.Errorf("invalid character %q in name %q", r, name)
		}
	}
	return nil
}
