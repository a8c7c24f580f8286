package donation

import (
	"context"
	"sync"

	"bloodline/pkg/domain"
	"bloodline/pkg/platform/sentinel"
)

type versioned struct {
	donation *Donation
	version  int64
}

// InMemoryStore is the non-durable Store used in tests and single-node dev
// setups. The mutex serializes the version check and write, which is what
// gives the one-winner-per-version guarantee.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.DonationID]versioned
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.DonationID]versioned)}
}

func (s *InMemoryStore) Create(_ context.Context, d *Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[d.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.records[d.ID] = versioned{donation: d.Clone(), version: 1}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.DonationID) (*Donation, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, 0, sentinel.ErrNotFound
	}
	return rec.donation.Clone(), rec.version, nil
}

func (s *InMemoryStore) Put(_ context.Context, d *Donation, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[d.ID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	if rec.version != expectedVersion {
		return 0, sentinel.ErrVersionConflict
	}
	next := rec.version + 1
	s.records[d.ID] = versioned{donation: d.Clone(), version: next}
	return next, nil
}
