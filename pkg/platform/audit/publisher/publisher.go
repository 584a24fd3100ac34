// Package publisher delivers audit events to the queryable store and to any
// number of fire-and-forget sinks (Kafka, log shippers).
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "courtyard/pkg/domain"
	audit "courtyard/pkg/platform/audit"
)

// Publisher writes events to a Store and fans copies out to Sinks. In sync
// mode Emit delivers before returning; with an async buffer Emit enqueues
// and a single worker drains, with Close blocking until the queue is empty.
type Publisher struct {
	store  audit.Store
	sinks  []audit.Sink
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	queue  chan audit.Event
	done   chan struct{}
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to asynchronous delivery with the
// given queue capacity.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.queue = make(chan audit.Event, size)
		}
	}
}

// WithSink adds a fan-out sink. Sink failures are logged, never returned to
// the emitting operation.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

// WithLogger sets the logger used for sink failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher builds a publisher over the given store. Without options it
// delivers synchronously.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.done = make(chan struct{})
		go p.drain()
	}
	return p
}

// Emit records one event. The category is always derived from the action so
// call sites cannot misfile an event; a zero timestamp is stamped here.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.Category = audit.AuditEvent(event.Action).Category()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New("audit publisher closed")
	}
	queue := p.queue
	p.mu.Unlock()

	if queue == nil {
		return p.deliver(ctx, event)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case queue <- event:
		return nil
	default:
		// Audit must not stall the operation it records.
		return errors.New("audit buffer full")
	}
}

// List exposes the store's per-account view through the publisher, keeping
// handlers off the store type.
func (p *Publisher) List(ctx context.Context, accountID id.AccountID) ([]audit.Event, error) {
	return p.store.ListByAccount(ctx, accountID)
}

// Close drains the async queue, if any. Safe to call once.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	queue := p.queue
	p.mu.Unlock()

	if queue != nil {
		close(queue)
		<-p.done
	}
}

func (p *Publisher) drain() {
	defer close(p.done)
	for event := range p.queue {
		// Queue delivery detached from the emitting request's context.
		if err := p.deliver(context.Background(), event); err != nil {
			p.logger.Error("async audit delivery failed", "action", event.Action, "error", err)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		if err := sink.Append(ctx, event); err != nil {
			p.logger.Error("audit sink append failed", "action", event.Action, "error", err)
		}
	}
	return nil
}
