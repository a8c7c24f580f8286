package events

import (
	"context"
	"sync"
)

// Sink receives committed transition events. Implementations must tolerate
// duplicate delivery; the engine may re-drive a dispatch after a crash.
type Sink interface {
	Append(ctx context.Context, e Event) error
}

// InMemorySink collects events for tests and for deployments without a
// broker configured.
type InMemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemorySink() *InMemorySink {
	return &InMemorySink{}
}

func (s *InMemorySink) Append(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// Events returns a snapshot of everything appended so far.
func (s *InMemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
