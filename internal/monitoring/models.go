// Package monitoring holds the post-donation observation log and its store
// contract.
package monitoring

import (
	"time"

	"bloodline/pkg/domain"
)

// Log captures the post-donation resting/observation phase for a donor.
//
// Invariants:
//   - at most one active log exists per donation
//   - a log exists only for a completed donation
//   - RecordedAt is nil until the observation is finalized; once set, the
//     log is sealed and immutable
//
// The log is weak-referenced from its donation: voiding a donation does not
// cascade here, the log just becomes orphaned-readable history.
type Log struct {
	ID         domain.LogID      `json:"id"`
	DonationID domain.DonationID `json:"donation_id"`
	DonorID    domain.ActorID    `json:"donor_id"`
	Vitals     string            `json:"vitals"`
	RecordedAt *time.Time        `json:"recorded_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// New creates an unsealed log for a completed donation.
func New(id domain.LogID, donationID domain.DonationID, donorID domain.ActorID, now time.Time) *Log {
	return &Log{
		ID:         id,
		DonationID: donationID,
		DonorID:    donorID,
		CreatedAt:  now,
	}
}

// Sealed reports whether the observation has been finalized.
func (l *Log) Sealed() bool {
	return l.RecordedAt != nil
}

// Clone returns a copy so stores can hand out records without aliasing their
// internal state.
func (l *Log) Clone() *Log {
	c := *l
	if l.RecordedAt != nil {
		recorded := *l.RecordedAt
		c.RecordedAt = &recorded
	}
	return &c
}
