// Package donation holds the blood donation aggregate and its versioned
// store contract.
package donation

import (
	"time"

	"bloodline/pkg/domain"
)

// Donation is the root aggregate for a blood donation record. It exclusively
// owns its status and timestamps.
//
// Invariants:
//   - Status is one of the donation vocabulary
//   - QuantityML > 0 is required only when Status = completed; the field may
//     hold a provisional value while pending/donating
//   - Once terminal (completed/cancelled), the record is immutable except
//     for Notes
type Donation struct {
	ID             domain.DonationID     `json:"id"`
	Code           string                `json:"code"`
	DonorID        domain.ActorID        `json:"donor_id"`
	StaffID        domain.ActorID        `json:"staff_id"`
	FacilityID     domain.FacilityID     `json:"facility_id"`
	BloodGroupID   domain.BloodGroupID   `json:"blood_group_id"`
	RegistrationID domain.RegistrationID `json:"registration_id"`
	QuantityML     int                   `json:"quantity_ml"`
	Status         domain.Status         `json:"status"`
	Notes          string                `json:"notes"`
	CreatedAt      time.Time             `json:"created_at"`
	// StatusChangedAt tracks the last committed status transition.
	StatusChangedAt time.Time `json:"status_changed_at"`
}

// New creates a pending donation, the state a record enters when a donor's
// scheduled registration reaches donation start.
func New(id domain.DonationID, code string, donor, staff domain.ActorID,
	facility domain.FacilityID, bloodGroup domain.BloodGroupID,
	registration domain.RegistrationID, now time.Time) *Donation {
	return &Donation{
		ID:              id,
		Code:            code,
		DonorID:         donor,
		StaffID:         staff,
		FacilityID:      facility,
		BloodGroupID:    bloodGroup,
		RegistrationID:  registration,
		Status:          domain.DonationPending,
		CreatedAt:       now,
		StatusChangedAt: now,
	}
}

// Clone returns a copy so stores can hand out records without aliasing their
// internal state.
func (d *Donation) Clone() *Donation {
	c := *d
	return &c
}
