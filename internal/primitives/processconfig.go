// ProcessConfig describes a process to elaborate: its kind, the body it
// runs, its static sensitivity and its reset registrations.

package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// BodyRef names a process body. Bodies are resolved at elaboration time by a
// body registry; a ref may carry an argument after a colon ("notify:tick").
type BodyRef string

// Name returns the registry key part of the ref.
func (b BodyRef) Name() string {
	name, _, _ := strings.Cut(string(b), ":")
	return name
}

// Arg returns the argument part of the ref, or "".
func (b BodyRef) Arg() string {
	_, arg, _ := strings.Cut(string(b), ":")
	return arg
}

// ProcessConfig defines one process.
type ProcessConfig struct {
	Name           string         `json:"name" yaml:"name"`
	Kind           Kind           `json:"kind" yaml:"kind"`
	Body           BodyRef        `json:"body" yaml:"body"`
	Sensitive      []string       `json:"sensitive,omitempty" yaml:"sensitive,omitempty"`
	Clock          string         `json:"clock,omitempty" yaml:"clock,omitempty"`
	DontInitialize bool           `json:"dontInitialize,omitempty" yaml:"dontInitialize,omitempty"`
	Resets         []string       `json:"resets,omitempty" yaml:"resets,omitempty"`
	Attributes     map[string]any `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// NewProcessConfig creates a ProcessConfig with name, kind and body.
func NewProcessConfig(name string, kind Kind, body BodyRef) *ProcessConfig {
	return &ProcessConfig{Name: name, Kind: kind, Body: body}
}

// WithSensitive appends static sensitivity.
func (p *ProcessConfig) WithSensitive(events ...string) *ProcessConfig {
	p.Sensitive = append(p.Sensitive, events...)
	return p
}

// WithClock sets the clock event of a cthread.
func (p *ProcessConfig) WithClock(event string) *ProcessConfig {
	p.Clock = event
	return p
}

// WithDontInitialize suppresses the initial activation.
func (p *ProcessConfig) WithDontInitialize() *ProcessConfig {
	p.DontInitialize = true
	return p
}

// WithResets registers the process with reset sources.
func (p *ProcessConfig) WithResets(resets ...string) *ProcessConfig {
	p.Resets = append(p.Resets, resets...)
	return p
}

// WithAttribute sets an attribute on the elaborated process.
func (p *ProcessConfig) WithAttribute(key string, val any) *ProcessConfig {
	if p.Attributes == nil {
		p.Attributes = make(map[string]any)
	}
	p.Attributes[key] = val
	return p
}

// Validate checks the process in isolation.
func (p *ProcessConfig) Validate() error {
	if err := validateName(p.Name); err != nil {
		return err
	}
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownKind, p.Kind)
	}
	if p.Body.Name() == "" {
		return errors.New("body is required")
	}
	switch p.Kind {
	case KindCThread:
		if p.Clock == "" {
			return errors.New("cthread requires a clock event")
		}
		if len(p.Sensitive) > 0 {
			return errors.New("cthread sensitivity is its clock; use clock instead of sensitive")
		}
	default:
		if p.Clock != "" {
			return fmt.Errorf("clock is only valid for cthread, not %s", p.Kind)
		}
	}
	return nil
}
