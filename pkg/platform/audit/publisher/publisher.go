// Package publisher decouples audit emission from the sink. Domain code
// calls Emit and moves on; delivery happens inline or through a buffered
// worker depending on configuration.
package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	audit "veritag/pkg/platform/audit"
)

// Sink is where events land.
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
	Close() error
}

// Publisher emits audit events to a sink.
type Publisher struct {
	sink   Sink
	logger *slog.Logger

	buffer chan audit.Event
	wg     sync.WaitGroup
	once   sync.Once
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithAsyncBuffer switches to asynchronous delivery through a channel of the
// given capacity. When the buffer is full, events are dropped rather than
// blocking the request path; the drop is logged.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.buffer = make(chan audit.Event, size)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// NewPublisher creates a Publisher over the sink. Without options, delivery
// is synchronous.
func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sink:   sink,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records one event, stamping the timestamp when unset. In async mode a
// full buffer drops the event; audit must never stall a scan.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if p.buffer == nil {
		if err := p.sink.Publish(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "audit publish failed",
				"action", event.Action,
				"tag_code", event.TagCode,
				"error", err,
			)
			return err
		}
		return nil
	}

	select {
	case p.buffer <- event:
	default:
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", event.Action,
			"tag_code", event.TagCode,
		)
	}
	return nil
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for event := range p.buffer {
		if err := p.sink.Publish(context.Background(), event); err != nil {
			p.logger.Error("audit publish failed",
				"action", event.Action,
				"tag_code", event.TagCode,
				"error", err,
			)
		}
	}
}

// Close drains any buffered events and closes the sink.
func (p *Publisher) Close() error {
	p.once.Do(func() {
		if p.buffer != nil {
			close(p.buffer)
			p.wg.Wait()
		}
	})
	return p.sink.Close()
}
