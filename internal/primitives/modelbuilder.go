// Package primitives includes builder helpers for ModelConfig.
package primitives

// ModelBuilder builds a ModelConfig fluently.
type ModelBuilder struct {
	config *ModelConfig
}

// NewModelBuilder creates a new ModelBuilder.
func NewModelBuilder(id string) *ModelBuilder {
	return &ModelBuilder{config: &ModelConfig{ID: id}}
}

// Event declares an event with optional stimulus cycles.
func (b *ModelBuilder) Event(name string, notify ...int) *ModelBuilder {
	b.config.Events = append(b.config.Events, NewEventConfig(name, notify...))
	return b
}

// Reset declares a reset source.
func (b *ModelBuilder) Reset(name string) *ModelBuilder {
	b.config.Resets = append(b.config.Resets, name)
	return b
}

// Method starts a method process.
func (b *ModelBuilder) Method(name string, body BodyRef) *ProcessBuilder {
	return b.process(NewProcessConfig(name, KindMethod, body))
}

// Thread starts a thread process.
func (b *ModelBuilder) Thread(name string, body BodyRef) *ProcessBuilder {
	return b.process(NewProcessConfig(name, KindThread, body))
}

// CThread starts a clocked thread process.
func (b *ModelBuilder) CThread(name, clock string, body BodyRef) *ProcessBuilder {
	return b.process(NewProcessConfig(name, KindCThread, body).WithClock(clock))
}

func (b *ModelBuilder) process(p *ProcessConfig) *ProcessBuilder {
	b.config.Processes = append(b.config.Processes, p)
	return &ProcessBuilder{proc: p, mb: b}
}

// Build validates and returns the config.
func (b *ModelBuilder) Build() (ModelConfig, error) {
	if err := b.config.Validate(); err != nil {
		return ModelConfig{}, err
	}
	return *b.config, nil
}

// MustBuild is Build that panics on an invalid model.
func (b *ModelBuilder) MustBuild() ModelConfig {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}

// ProcessBuilder configures one process.
type ProcessBuilder struct {
	proc *ProcessConfig
	mb   *ModelBuilder
}

// Sensitive adds static sensitivity.
func (pb *ProcessBuilder) Sensitive(events ...string) *ProcessBuilder {
	pb.proc.WithSensitive(events...)
	return pb
}

// DontInitialize suppresses the initial activation.
func (pb *ProcessBuilder) DontInitialize() *ProcessBuilder {
	pb.proc.WithDontInitialize()
	return pb
}

// Resets registers the process with reset sources.
func (pb *ProcessBuilder) Resets(names ...string) *ProcessBuilder {
	pb.proc.WithResets(names...)
	return pb
}

// Attribute sets an attribute.
func (pb *ProcessBuilder) Attribute(key string, val any) *ProcessBuilder {
	pb.proc.WithAttribute(key, val)
	return pb
}

// Done returns to the model builder.
func (pb *ProcessBuilder) Done() *ModelBuilder {
	return pb.mb
}
