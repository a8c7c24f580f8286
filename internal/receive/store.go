package receive

import (
	"context"

	"bloodline/pkg/domain"
)

// Store is the durable keyed storage contract for receive requests with
// optimistic versioning. Same guarantees as the donation store: Get returns
// the current version, Put commits only on a matching expectedVersion, and
// no two Puts for the same id and version both succeed.
type Store interface {
	Create(ctx context.Context, r *Request) error
	Get(ctx context.Context, id domain.RequestID) (*Request, int64, error)
	Put(ctx context.Context, r *Request, expectedVersion int64) (int64, error)
}
