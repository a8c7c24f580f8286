package delivery

import (
	"context"
	"sync"

	"bloodline/pkg/domain"
	"bloodline/pkg/platform/sentinel"
)

// InMemoryTracker is the non-durable Tracker used in tests and single-node
// dev setups.
type InMemoryTracker struct {
	mu    sync.RWMutex
	steps map[domain.RequestID]Step
}

func NewInMemoryTracker() *InMemoryTracker {
	return &InMemoryTracker{steps: make(map[domain.RequestID]Step)}
}

func (t *InMemoryTracker) Init(_ context.Context, id domain.RequestID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.steps[id]; ok {
		return nil
	}
	t.steps[id] = StepPendingDispatch
	return nil
}

func (t *InMemoryTracker) Advance(_ context.Context, id domain.RequestID, step Step) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.steps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !step.After(current) {
		return sentinel.ErrInvalidState
	}
	t.steps[id] = step
	return nil
}

func (t *InMemoryTracker) Step(_ context.Context, id domain.RequestID) (Step, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	step, ok := t.steps[id]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return step, nil
}
