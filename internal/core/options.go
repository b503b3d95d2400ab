// Options for configuring Simcontext instances and spawned processes.
package core

import (
	"io"
	"log/slog"
)

// WithID sets the simulation ID used in snapshots and lifecycle records.
func WithID(id string) Option {
	return func(s *Simcontext) {
		s.id = id
	}
}

// WithLogger configures the context logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simcontext) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPublisher configures a lifecycle publisher.
func WithPublisher(pb LifecyclePublisher) Option {
	return func(s *Simcontext) {
		s.publisher = pb
	}
}

// WithReportHandler configures a diagnostic report handler.
func WithReportHandler(h ReportHandler) Option {
	return func(s *Simcontext) {
		s.onReport = h
	}
}

// ProcessOption configures a process at creation.
type ProcessOption func(*spawnOptions)

type spawnOptions struct {
	dontInit  bool
	sensitive []*Event
	host      io.Closer
	freeHost  bool
	attrs     map[string]any
}

// DontInitialize suppresses the initial activation.
func DontInitialize() ProcessOption {
	return func(o *spawnOptions) {
		o.dontInit = true
	}
}

// Sensitive adds static sensitivity.
func Sensitive(events ...*Event) ProcessOption {
	return func(o *spawnOptions) {
		o.sensitive = append(o.sensitive, events...)
	}
}

// WithHost attaches the execution host. When free is true the process owns
// the host and closes it when destroyed.
func WithHost(host io.Closer, free bool) ProcessOption {
	return func(o *spawnOptions) {
		o.host = host
		o.freeHost = free
	}
}

// WithAttribute sets an attribute on the new process.
func WithAttribute(key string, val any) ProcessOption {
	return func(o *spawnOptions) {
		if o.attrs == nil {
			o.attrs = make(map[string]any)
		}
		o.attrs[key] = val
	}
}
