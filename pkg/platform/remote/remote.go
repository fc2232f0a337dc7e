// Package remote wraps outbound calls to fallible collaborators (chain
// registry node, AI risk service) with a bounded timeout, a circuit breaker,
// and uniform degradation logging. Both the reconciler and the risk cache go
// through Call so their degrade behavior stays consistent and testable.
package remote

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"veritag/pkg/platform/circuit"
	"veritag/pkg/platform/sentinel"
)

// Caller owns the timeout and breaker for one named remote dependency.
type Caller struct {
	name    string
	timeout time.Duration
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// Option configures a Caller.
type Option func(*Caller)

// WithBreaker attaches a circuit breaker. Without one, every call goes to
// the primary path.
func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Caller) { c.breaker = b }
}

// NewCaller builds a Caller for one remote dependency.
func NewCaller(name string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Caller {
	c := &Caller{
		name:    name,
		timeout: timeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call runs fn under the caller's timeout. On failure (error, timeout, or an
// open breaker) it returns sentinel.ErrUnavailable wrapped around the cause;
// the caller degrades instead of propagating. The zero T is returned on
// failure.
func Call[T any](ctx context.Context, c *Caller, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if c.breaker != nil && c.breaker.IsOpen() {
		c.logger.WarnContext(ctx, "remote call skipped, circuit open", "remote", c.name)
		return zero, errors.Join(sentinel.ErrUnavailable, errCircuitOpen)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := fn(callCtx)
	if err != nil {
		if c.breaker != nil {
			if _, change := c.breaker.RecordFailure(); change.Opened {
				c.logger.WarnContext(ctx, "circuit opened", "remote", c.name)
			}
		}
		c.logger.WarnContext(ctx, "remote call failed",
			"remote", c.name,
			"timeout", c.timeout,
			"error", err,
		)
		return zero, errors.Join(sentinel.ErrUnavailable, err)
	}

	if c.breaker != nil {
		if _, change := c.breaker.RecordSuccess(); change.Closed {
			c.logger.InfoContext(ctx, "circuit closed", "remote", c.name)
		}
	}
	return result, nil
}

var errCircuitOpen = errors.New("circuit open")

// Degraded reports whether err represents a degradable remote failure.
func Degraded(err error) bool {
	return errors.Is(err, sentinel.ErrUnavailable)
}
