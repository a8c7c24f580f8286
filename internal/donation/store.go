package donation

import (
	"context"

	"bloodline/pkg/domain"
)

// Store is the durable keyed storage contract for donations with optimistic
// versioning.
//
// Guarantees the engine depends on:
//   - Get returns the entity and its current version, or sentinel.ErrNotFound
//   - Put commits only when expectedVersion matches the stored version and
//     returns the new version; otherwise sentinel.ErrVersionConflict and no
//     write happens
//   - no two Puts for the same id and expectedVersion both succeed
//   - a successful Put is durable before it returns
type Store interface {
	Create(ctx context.Context, d *Donation) error
	Get(ctx context.Context, id domain.DonationID) (*Donation, int64, error)
	Put(ctx context.Context, d *Donation, expectedVersion int64) (int64, error)
}
