package receive

import (
	"context"
	"sync"

	"bloodline/pkg/domain"
	"bloodline/pkg/platform/sentinel"
)

type versioned struct {
	request *Request
	version int64
}

// InMemoryStore is the non-durable Store used in tests and single-node dev
// setups.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.RequestID]versioned
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.RequestID]versioned)}
}

func (s *InMemoryStore) Create(_ context.Context, r *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.records[r.ID] = versioned{request: r.Clone(), version: 1}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.RequestID) (*Request, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, 0, sentinel.ErrNotFound
	}
	return rec.request.Clone(), rec.version, nil
}

func (s *InMemoryStore) Put(_ context.Context, r *Request, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[r.ID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	if rec.version != expectedVersion {
		return 0, sentinel.ErrVersionConflict
	}
	next := rec.version + 1
	s.records[r.ID] = versioned{request: r.Clone(), version: next}
	return next, nil
}
