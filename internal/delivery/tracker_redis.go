package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"bloodline/pkg/domain"
	"bloodline/pkg/platform/sentinel"
)

const trackerKeyPrefix = "delivery:step:"

// advanceScript moves the step forward only if the stored rank is lower.
// Running it server-side keeps concurrent Advance calls race-free.
// Returns: 1 advanced, 0 not further along, -1 key missing.
var advanceScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if not current then
	return -1
end
local ranks = {pending_dispatch = 1, in_transit = 2, ready_for_handover = 3, handed_over = 4}
if ranks[ARGV[1]] <= ranks[current] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[1])
return 1
`)

// RedisTracker shares delivery sub-state across instances. This is the
// production implementation for distributed deployments.
type RedisTracker struct {
	client *redis.Client
}

func NewRedisTracker(client *redis.Client) *RedisTracker {
	return &RedisTracker{client: client}
}

func (t *RedisTracker) Init(ctx context.Context, id domain.RequestID) error {
	// SETNX keeps Init idempotent under re-drive.
	return t.client.SetNX(ctx, trackerKeyPrefix+id.String(), string(StepPendingDispatch), 0).Err()
}

func (t *RedisTracker) Advance(ctx context.Context, id domain.RequestID, step Step) error {
	res, err := advanceScript.Run(ctx, t.client, []string{trackerKeyPrefix + id.String()}, string(step)).Int()
	if err != nil {
		return fmt.Errorf("advance delivery step: %w", err)
	}
	switch res {
	case 1:
		return nil
	case 0:
		return sentinel.ErrInvalidState
	default:
		return sentinel.ErrNotFound
	}
}

func (t *RedisTracker) Step(ctx context.Context, id domain.RequestID) (Step, error) {
	val, err := t.client.Get(ctx, trackerKeyPrefix+id.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get delivery step: %w", err)
	}
	return Step(val), nil
}
