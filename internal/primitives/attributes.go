package primitives

import "sync"

// Attributes is a key-value store attached to a kernel object.
// Reads and writes are safe from the kernel goroutine and from observers.
type Attributes struct {
	data sync.Map
}

// NewAttributes creates an empty attribute set.
func NewAttributes() *Attributes {
	return &Attributes{}
}

// Get retrieves a value by key.
func (a *Attributes) Get(key string) (any, bool) {
	return a.data.Load(key)
}

// Set stores a value by key.
func (a *Attributes) Set(key string, val any) {
	a.data.Store(key, val)
}

// Delete removes a key.
func (a *Attributes) Delete(key string) {
	a.data.Delete(key)
}

// Snapshot returns a serializable copy of the attributes.
func (a *Attributes) Snapshot() map[string]any {
	snap := map[string]any{}
	a.data.Range(func(k, v any) bool {
		snap[k.(string)] = v
		return true
	})
	return snap
}

// Restore replaces the attributes from a snapshot map.
func (a *Attributes) Restore(snap map[string]any) {
	a.data.Range(func(k, v any) bool {
		a.data.Delete(k)
		return true
	})
	for k, v := range snap {
		a.data.Store(k, v)
	}
}
