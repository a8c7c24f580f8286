// Package receive holds the blood-receive request aggregate and its
// versioned store contract.
package receive

import (
	"time"

	"bloodline/pkg/domain"
)

// Request is the root aggregate for a blood-receive request.
//
// Invariants:
//   - Status is one of the receive-request vocabulary
//   - assigned and later statuses require a non-nil AssignmentID
//   - ready_for_handover and completed additionally require the delivery
//     subsystem to report the matching sub-state (enforced by the validator,
//     which owns the delivery lookup)
type Request struct {
	ID           domain.RequestID    `json:"id"`
	RequesterID  domain.ActorID      `json:"requester_id"`
	BloodGroupID domain.BloodGroupID `json:"blood_group_id"`
	QuantityML   int                 `json:"quantity_ml"`
	FacilityID   domain.FacilityID   `json:"facility_id"`
	Status       domain.Status       `json:"status"`
	// AssignmentID links to the delivery/distribution record once fulfillment
	// picks the request up. Nil until then.
	AssignmentID    *domain.AssignmentID `json:"assignment_id,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	StatusChangedAt time.Time            `json:"status_changed_at"`
}

// New creates a request in pending_approval, the state a submission enters
// while it is owned by the approval authority.
func New(id domain.RequestID, requester domain.ActorID,
	bloodGroup domain.BloodGroupID, quantityML int,
	facility domain.FacilityID, now time.Time) *Request {
	return &Request{
		ID:              id,
		RequesterID:     requester,
		BloodGroupID:    bloodGroup,
		QuantityML:      quantityML,
		FacilityID:      facility,
		Status:          domain.ReceivePendingApproval,
		CreatedAt:       now,
		StatusChangedAt: now,
	}
}

// Clone returns a copy so stores can hand out records without aliasing their
// internal state.
func (r *Request) Clone() *Request {
	c := *r
	if r.AssignmentID != nil {
		assignment := *r.AssignmentID
		c.AssignmentID = &assignment
	}
	return &c
}
