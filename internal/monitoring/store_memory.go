package monitoring

import (
	"context"
	"sync"
	"time"

	"bloodline/pkg/domain"
	"bloodline/pkg/platform/sentinel"
)

// InMemoryStore is the non-durable Store used in tests and single-node dev
// setups.
type InMemoryStore struct {
	mu         sync.RWMutex
	logs       map[domain.LogID]*Log
	byDonation map[domain.DonationID]domain.LogID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		logs:       make(map[domain.LogID]*Log),
		byDonation: make(map[domain.DonationID]domain.LogID),
	}
}

func (s *InMemoryStore) CreateIfAbsent(_ context.Context, l *Log) (*Log, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existingID, ok := s.byDonation[l.DonationID]; ok {
		return s.logs[existingID].Clone(), false, nil
	}
	s.logs[l.ID] = l.Clone()
	s.byDonation[l.DonationID] = l.ID
	return l.Clone(), true, nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.LogID) (*Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.logs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return l.Clone(), nil
}

func (s *InMemoryStore) GetByDonation(_ context.Context, donationID domain.DonationID) (*Log, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byDonation[donationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.logs[id].Clone(), nil
}

func (s *InMemoryStore) Seal(_ context.Context, id domain.LogID, recordedAt time.Time, vitals string) (*Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if l.Sealed() {
		return nil, sentinel.ErrInvalidState
	}
	l.RecordedAt = &recordedAt
	l.Vitals = vitals
	return l.Clone(), nil
}
