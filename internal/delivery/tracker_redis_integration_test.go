//go:build integration

package delivery_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"bloodline/internal/delivery"
	"bloodline/pkg/domain"
	"bloodline/pkg/platform/sentinel"
	"bloodline/pkg/testutil/containers"
)

type RedisTrackerSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	tracker *delivery.RedisTracker
}

func TestRedisTrackerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisTrackerSuite))
}

func (s *RedisTrackerSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.tracker = delivery.NewRedisTracker(s.redis.Client)
}

func (s *RedisTrackerSuite) SetupTest() {
	s.redis.Flush(s.T())
}

func (s *RedisTrackerSuite) TestInitAndStep() {
	ctx := context.Background()
	id := domain.RequestID(uuid.New())

	s.Require().NoError(s.tracker.Init(ctx, id))

	step, err := s.tracker.Step(ctx, id)
	s.Require().NoError(err)
	s.Equal(delivery.StepPendingDispatch, step)
}

func (s *RedisTrackerSuite) TestInitIsIdempotent() {
	ctx := context.Background()
	id := domain.RequestID(uuid.New())

	s.Require().NoError(s.tracker.Init(ctx, id))
	s.Require().NoError(s.tracker.Advance(ctx, id, delivery.StepInTransit))

	// Re-driven Init must not reset progress.
	s.Require().NoError(s.tracker.Init(ctx, id))

	step, err := s.tracker.Step(ctx, id)
	s.Require().NoError(err)
	s.Equal(delivery.StepInTransit, step)
}

func (s *RedisTrackerSuite) TestAdvanceIsForwardOnly() {
	ctx := context.Background()
	id := domain.RequestID(uuid.New())

	s.Require().NoError(s.tracker.Init(ctx, id))
	s.Require().NoError(s.tracker.Advance(ctx, id, delivery.StepInTransit))
	s.Require().NoError(s.tracker.Advance(ctx, id, delivery.StepReadyForHandover))

	err := s.tracker.Advance(ctx, id, delivery.StepInTransit)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	err = s.tracker.Advance(ctx, id, delivery.StepReadyForHandover)
	s.Require().ErrorIs(err, sentinel.ErrInvalidState)

	step, err := s.tracker.Step(ctx, id)
	s.Require().NoError(err)
	s.Equal(delivery.StepReadyForHandover, step)
}

func (s *RedisTrackerSuite) TestUninitializedRequest() {
	ctx := context.Background()
	id := domain.RequestID(uuid.New())

	_, err := s.tracker.Step(ctx, id)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	err = s.tracker.Advance(ctx, id, delivery.StepInTransit)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentAdvance races the same advance from many goroutines. The Lua
// script serializes them: one advances, the rest see no-further-along.
func (s *RedisTrackerSuite) TestConcurrentAdvance() {
	ctx := context.Background()
	id := domain.RequestID(uuid.New())
	s.Require().NoError(s.tracker.Init(ctx, id))

	const goroutines = 20
	var wg sync.WaitGroup
	var advanced atomic.Int32
	var rejected atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.tracker.Advance(ctx, id, delivery.StepInTransit)
			switch {
			case err == nil:
				advanced.Add(1)
			case err == sentinel.ErrInvalidState:
				rejected.Add(1)
			default:
				s.T().Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), advanced.Load())
	s.Equal(int32(goroutines-1), rejected.Load())

	step, err := s.tracker.Step(ctx, id)
	s.Require().NoError(err)
	s.Equal(delivery.StepInTransit, step)
}
