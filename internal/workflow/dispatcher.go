package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"bloodline/internal/delivery"
	"bloodline/internal/donation"
	"bloodline/internal/events"
	"bloodline/internal/receive"
	"bloodline/pkg/domain"
	"bloodline/pkg/requestcontext"
)

// Dispatcher runs post-commit side effects. The engine calls it synchronously
// after every committed transition, so a dispatch failure means the caller
// sees SideEffectIncomplete while the transition itself stays durable. Every
// side effect must be safe to re-drive.
type Dispatcher struct {
	tracker   delivery.Tracker
	publisher *events.Publisher
	logger    *slog.Logger

	// OnDonationCompleted is an optional hook for deployments that kick off
	// post-donation monitoring out of band. It is exposed for callers only;
	// nothing here invokes it. The monitoring entry point stays caller-driven
	// and idempotent.
	OnDonationCompleted func(ctx context.Context, d *donation.Donation) error
}

func NewDispatcher(tracker delivery.Tracker, publisher *events.Publisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{tracker: tracker, publisher: publisher, logger: logger}
}

// DonationCommitted handles side effects for a committed donation transition.
func (dp *Dispatcher) DonationCommitted(ctx context.Context, d *donation.Donation, from domain.Status, role domain.Role) error {
	return dp.publish(ctx, domain.EntityDonation, d.ID.String(), from, d.Status, role)
}

// ReceiveCommitted handles side effects for a committed receive-request
// transition. Entering assigned initializes delivery tracking; Init is
// idempotent so a crashed dispatch can be re-driven.
func (dp *Dispatcher) ReceiveCommitted(ctx context.Context, r *receive.Request, from domain.Status, role domain.Role) error {
	if from == domain.ReceiveApproved && r.Status == domain.ReceiveAssigned {
		if err := dp.tracker.Init(ctx, r.ID); err != nil {
			return fmt.Errorf("init delivery tracking: %w", err)
		}
		dp.logger.InfoContext(ctx, "delivery tracking initialized", "request_id", r.ID)
	}
	return dp.publish(ctx, domain.EntityReceiveRequest, r.ID.String(), from, r.Status, role)
}

func (dp *Dispatcher) publish(ctx context.Context, entity domain.EntityType, entityID string, from, to domain.Status, role domain.Role) error {
	e := events.Event{
		EntityType: entity,
		EntityID:   entityID,
		From:       from,
		To:         to,
		Role:       role,
		RequestID:  requestcontext.RequestID(ctx),
	}
	if actor := requestcontext.ActorID(ctx); !actor.IsNil() {
		e.ActorID = actor.String()
	}
	if err := dp.publisher.Emit(ctx, e); err != nil {
		return fmt.Errorf("publish transition event: %w", err)
	}
	return nil
}
