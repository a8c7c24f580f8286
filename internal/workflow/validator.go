// Package workflow orchestrates status transitions: a pure validator, an
// engine running the load-validate-commit cycle with optimistic retries, and
// a dispatcher for post-commit side effects.
package workflow

import (
	"context"
	"errors"

	"bloodline/internal/delivery"
	"bloodline/internal/donation"
	"bloodline/internal/receive"
	"bloodline/internal/registry"
	"bloodline/pkg/domain"
	dErrors "bloodline/pkg/domain-errors"
	"bloodline/pkg/platform/sentinel"
)

// DonationPatch carries the caller-supplied mutation fields accompanying a
// donation transition. Nil fields are left unchanged.
type DonationPatch struct {
	QuantityML *int
	Notes      *string
}

// ReceivePatch carries the caller-supplied mutation fields accompanying a
// receive-request transition.
type ReceivePatch struct {
	AssignmentID *domain.AssignmentID
}

// Validator decides transition admissibility. Checks run in a fixed order:
// role authorization, then transition legality, then payload constraints.
// The first failure wins; nothing here mutates state.
type Validator struct {
	registry *registry.Registry
	tracker  delivery.Tracker
}

// NewValidator builds a validator. A nil tracker makes the delivery-gated
// receive transitions fail closed.
func NewValidator(reg *registry.Registry, tracker delivery.Tracker) *Validator {
	return &Validator{registry: reg, tracker: tracker}
}

// ValidateDonation checks whether the donation may move to target under the
// given role and patch.
func (v *Validator) ValidateDonation(d *donation.Donation, target domain.Status, role domain.Role, patch DonationPatch) error {
	if err := v.authorize(domain.EntityDonation, d.Status, target, role); err != nil {
		return err
	}
	if !v.registry.CanTransition(domain.EntityDonation, d.Status, target) {
		return dErrors.New(dErrors.CodeIllegalTransition, "status not reachable from current status")
	}
	if target == domain.DonationCompleted {
		quantity := d.QuantityML
		if patch.QuantityML != nil {
			quantity = *patch.QuantityML
		}
		if quantity <= 0 {
			return dErrors.New(dErrors.CodeInvalidPayload, "completed donation requires a positive quantity")
		}
	}
	return nil
}

// ValidateReceive checks whether the request may move to target under the
// given role and patch. The delivery-gated targets consult the tracker.
func (v *Validator) ValidateReceive(ctx context.Context, r *receive.Request, target domain.Status, role domain.Role, patch ReceivePatch) error {
	if err := v.authorize(domain.EntityReceiveRequest, r.Status, target, role); err != nil {
		return err
	}
	if !v.registry.CanTransition(domain.EntityReceiveRequest, r.Status, target) {
		return dErrors.New(dErrors.CodeIllegalTransition, "status not reachable from current status")
	}
	switch target {
	case domain.ReceiveAssigned:
		assignment := r.AssignmentID
		if patch.AssignmentID != nil {
			assignment = patch.AssignmentID
		}
		if assignment == nil || assignment.IsNil() {
			return dErrors.New(dErrors.CodeInvalidPayload, "assigned requires an assignment reference")
		}
	case domain.ReceiveReadyForHandover:
		return v.requireDeliveryStep(ctx, r.ID, delivery.StepReadyForHandover)
	case domain.ReceiveCompleted:
		return v.requireDeliveryStep(ctx, r.ID, delivery.StepHandedOver)
	}
	return nil
}

// authorize rejects roles not in the pair's rule. Pairs without a rule fall
// through so the legality check reports IllegalTransition instead.
func (v *Validator) authorize(entity domain.EntityType, from, to domain.Status, role domain.Role) error {
	if v.registry.HasTransitionRule(entity, from, to) && !v.registry.RoleAllowed(entity, from, to, role) {
		return dErrors.New(dErrors.CodeUnauthorized, "role not permitted for this transition")
	}
	return nil
}

func (v *Validator) requireDeliveryStep(ctx context.Context, id domain.RequestID, want delivery.Step) error {
	if v.tracker == nil {
		return dErrors.New(dErrors.CodeInvalidPayload, "delivery state unavailable")
	}
	step, err := v.tracker.Step(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeInvalidPayload, "delivery tracking not initialized for request")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "look up delivery step")
	}
	if step != want {
		return dErrors.New(dErrors.CodeInvalidPayload, "delivery progress does not allow this transition")
	}
	return nil
}
