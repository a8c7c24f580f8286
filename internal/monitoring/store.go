package monitoring

import (
	"context"
	"time"

	"bloodline/pkg/domain"
)

// Store is the durable storage contract for monitoring logs.
//
// CreateIfAbsent is the idempotency primitive the workflow depends on: when
// a log already exists for the donation it returns that log with
// created=false and performs no write, so re-driving a crashed side effect
// is a no-op.
type Store interface {
	CreateIfAbsent(ctx context.Context, l *Log) (log *Log, created bool, err error)
	Get(ctx context.Context, id domain.LogID) (*Log, error)
	// GetByDonation returns the active log for a donation, or
	// sentinel.ErrNotFound when none was created yet.
	GetByDonation(ctx context.Context, donationID domain.DonationID) (*Log, error)
	// Seal finalizes the observation. Returns sentinel.ErrInvalidState when
	// the log is already sealed.
	Seal(ctx context.Context, id domain.LogID, recordedAt time.Time, vitals string) (*Log, error)
}
