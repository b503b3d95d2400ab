package primitives

// EventConfig declares a named event of a model. Notify lists the delta
// cycles (counted from zero) in which the driver notifies the event without
// any process having to do so, which is how a model expresses its stimulus.
type EventConfig struct {
	Name   string `json:"name" yaml:"name"`
	Notify []int  `json:"notify,omitempty" yaml:"notify,omitempty"`
}

// NewEventConfig creates an EventConfig.
func NewEventConfig(name string, notify ...int) *EventConfig {
	return &EventConfig{Name: name, Notify: notify}
}
