package production

import (
	"context"
	"errors"
	"sync"

	"github.com/comalice/simkernel/internal/core"
)

// ChannelPublisher forwards lifecycle records to a Go channel.
// Publish never blocks; records are dropped on backpressure.
type ChannelPublisher struct {
	mu     sync.Mutex
	ch     chan<- core.LifecycleRecord
	closed bool
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- core.LifecycleRecord) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, rec core.LifecycleRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	select {
	case p.ch <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}

// MultiPublisher fans a record out to several publishers.
type MultiPublisher []core.LifecyclePublisher

func (m MultiPublisher) Publish(ctx context.Context, rec core.LifecycleRecord) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.Publish(ctx, rec))
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.Close())
	}
	return errors.Join(errs...)
}
