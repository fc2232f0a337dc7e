// Package memory provides an in-process audit sink for tests and dev mode.
package memory

import (
	"context"
	"sync"

	audit "veritag/pkg/platform/audit"
)

// Sink collects events in memory.
type Sink struct {
	mu     sync.RWMutex
	events []audit.Event
}

// NewSink creates an empty memory sink.
func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Publish(ctx context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *Sink) Close() error { return nil }

// Events returns a snapshot of everything published so far.
func (s *Sink) Events() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}

// ByTag returns the events recorded for one tag code.
func (s *Sink) ByTag(tagCode string) []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.TagCode == tagCode {
			out = append(out, e)
		}
	}
	return out
}
