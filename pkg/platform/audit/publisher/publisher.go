// Package publisher emits audit events to a Store, synchronously by default
// or through a buffered channel drained by a background goroutine.
//
// Emission is fire-and-forget from the caller's perspective but mandatory:
// async mode falls back to a synchronous append when the buffer is full so
// no event is ever dropped.
package publisher

import (
	"context"
	"sync"
	"time"

	audit "caregate/pkg/platform/audit"
)

type Publisher struct {
	store audit.Store

	inbox  chan audit.Event
	done   chan struct{}
	closed sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with the given
// channel capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.inbox = make(chan audit.Event, size)
	}
}

// NewPublisher constructs a publisher over the given store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, done: make(chan struct{})}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.inbox != nil {
		go p.drain()
	}
	return p
}

func (p *Publisher) drain() {
	for {
		select {
		case <-p.done:
			// Flush whatever is buffered before exiting.
			for {
				select {
				case event := <-p.inbox:
					_ = p.store.Append(context.Background(), event)
				default:
					return
				}
			}
		case event := <-p.inbox:
			_ = p.store.Append(context.Background(), event)
		}
	}
}

// Emit records an audit event. Zero timestamps are stamped at emission time.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if p.inbox == nil {
		return p.store.Append(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		// Buffer full; append synchronously rather than drop.
		return p.store.Append(ctx, event)
	}
}

// List returns the event log for a decision.
func (p *Publisher) List(ctx context.Context, decisionID string) ([]audit.Event, error) {
	return p.store.ListByDecision(ctx, decisionID)
}

// Close stops the background drain, flushing buffered events first.
func (p *Publisher) Close() {
	p.closed.Do(func() { close(p.done) })
}
