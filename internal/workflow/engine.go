package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bloodline/internal/donation"
	"bloodline/internal/monitoring"
	"bloodline/internal/platform/metrics"
	"bloodline/internal/receive"
	"bloodline/pkg/domain"
	dErrors "bloodline/pkg/domain-errors"
	"bloodline/pkg/platform/sentinel"
)

// defaultMaxAttempts bounds the load-validate-commit cycle under version
// races before Conflict is surfaced to the caller.
const defaultMaxAttempts = 3

// Engine runs the load-validate-commit cycle for each entity type. Per-entity
// serialization happens only through the store's version check; losers of a
// race reload and re-validate against the fresh state.
type Engine struct {
	validator   *Validator
	donations   donation.Store
	requests    receive.Store
	logs        monitoring.Store
	dispatcher  *Dispatcher
	metrics     *metrics.Metrics
	logger      *slog.Logger
	tracer      trace.Tracer
	maxAttempts int
	now         func() time.Time
}

type EngineOption func(*Engine)

// WithMaxAttempts overrides the bounded retry count for version conflicts.
func WithMaxAttempts(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithClock injects a clock. Tests pin time with this.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(validator *Validator,
	donations donation.Store, requests receive.Store, logs monitoring.Store,
	dispatcher *Dispatcher, m *metrics.Metrics, logger *slog.Logger,
	opts ...EngineOption) *Engine {
	e := &Engine{
		validator:   validator,
		donations:   donations,
		requests:    requests,
		logs:        logs,
		dispatcher:  dispatcher,
		metrics:     m,
		logger:      logger,
		tracer:      otel.Tracer("bloodline/internal/workflow"),
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplyDonationTransition moves a donation to target. On success the
// committed donation and its new version are returned. A non-nil donation
// alongside a SideEffectIncomplete error means the transition is durable but
// a side effect needs re-driving.
func (e *Engine) ApplyDonationTransition(ctx context.Context, id domain.DonationID,
	target domain.Status, role domain.Role, patch DonationPatch) (*donation.Donation, int64, error) {
	ctx, span := e.tracer.Start(ctx, "workflow.apply_donation_transition", trace.WithAttributes(
		attribute.String("donation.id", id.String()),
		attribute.String("transition.target", target.String()),
		attribute.String("actor.role", role.String()),
	))
	defer span.End()

	for attempt := 1; ; attempt++ {
		d, version, err := e.donations.Get(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeNotFound, "donation not found")
		}
		if err != nil {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "load donation")
		}

		if err := e.validator.ValidateDonation(d, target, role, patch); err != nil {
			e.metrics.ObserveRejection(string(dErrors.CodeOf(err)))
			span.RecordError(err)
			return nil, 0, err
		}

		updated := d.Clone()
		updated.Status = target
		updated.StatusChangedAt = e.now()
		if patch.QuantityML != nil {
			updated.QuantityML = *patch.QuantityML
		}
		if patch.Notes != nil {
			updated.Notes = *patch.Notes
		}

		newVersion, err := e.donations.Put(ctx, updated, version)
		if errors.Is(err, sentinel.ErrVersionConflict) {
			e.metrics.TransitionConflicts.Inc()
			if attempt >= e.maxAttempts {
				span.RecordError(err)
				return nil, 0, dErrors.Wrap(err, dErrors.CodeConflict, "donation changed concurrently")
			}
			e.metrics.TransitionRetries.Inc()
			continue
		}
		if err != nil {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "commit donation transition")
		}

		e.metrics.ObserveCommit(domain.EntityDonation.String(), target.String())
		e.logger.InfoContext(ctx, "transition committed",
			"entity", domain.EntityDonation, "id", id,
			"from", d.Status, "to", target, "version", newVersion)

		if err := e.dispatcher.DonationCommitted(ctx, updated, d.Status, role); err != nil {
			e.logger.ErrorContext(ctx, "side effect failed after commit",
				"entity", domain.EntityDonation, "id", id, "error", err)
			return updated, newVersion, dErrors.Wrap(err, dErrors.CodeSideEffectIncomplete,
				"transition committed but side effects incomplete")
		}
		return updated, newVersion, nil
	}
}

// ApplyReceiveTransition moves a receive request to target.
func (e *Engine) ApplyReceiveTransition(ctx context.Context, id domain.RequestID,
	target domain.Status, role domain.Role, patch ReceivePatch) (*receive.Request, int64, error) {
	ctx, span := e.tracer.Start(ctx, "workflow.apply_receive_transition", trace.WithAttributes(
		attribute.String("request.id", id.String()),
		attribute.String("transition.target", target.String()),
		attribute.String("actor.role", role.String()),
	))
	defer span.End()

	for attempt := 1; ; attempt++ {
		r, version, err := e.requests.Get(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeNotFound, "receive request not found")
		}
		if err != nil {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "load receive request")
		}

		if err := e.validator.ValidateReceive(ctx, r, target, role, patch); err != nil {
			e.metrics.ObserveRejection(string(dErrors.CodeOf(err)))
			span.RecordError(err)
			return nil, 0, err
		}

		updated := r.Clone()
		updated.Status = target
		updated.StatusChangedAt = e.now()
		if patch.AssignmentID != nil {
			assignment := *patch.AssignmentID
			updated.AssignmentID = &assignment
		}

		newVersion, err := e.requests.Put(ctx, updated, version)
		if errors.Is(err, sentinel.ErrVersionConflict) {
			e.metrics.TransitionConflicts.Inc()
			if attempt >= e.maxAttempts {
				span.RecordError(err)
				return nil, 0, dErrors.Wrap(err, dErrors.CodeConflict, "receive request changed concurrently")
			}
			e.metrics.TransitionRetries.Inc()
			continue
		}
		if err != nil {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "commit receive transition")
		}

		e.metrics.ObserveCommit(domain.EntityReceiveRequest.String(), target.String())
		e.logger.InfoContext(ctx, "transition committed",
			"entity", domain.EntityReceiveRequest, "id", id,
			"from", r.Status, "to", target, "version", newVersion)

		if err := e.dispatcher.ReceiveCommitted(ctx, updated, r.Status, role); err != nil {
			e.logger.ErrorContext(ctx, "side effect failed after commit",
				"entity", domain.EntityReceiveRequest, "id", id, "error", err)
			return updated, newVersion, dErrors.Wrap(err, dErrors.CodeSideEffectIncomplete,
				"transition committed but side effects incomplete")
		}
		return updated, newVersion, nil
	}
}

// RequestMonitoring creates the post-donation observation log for a completed
// donation. Idempotent: a second call returns the existing log with
// created=false. Safe to re-drive after a crashed dispatch.
func (e *Engine) RequestMonitoring(ctx context.Context, donationID domain.DonationID,
	donorID domain.ActorID) (*monitoring.Log, bool, error) {
	ctx, span := e.tracer.Start(ctx, "workflow.request_monitoring", trace.WithAttributes(
		attribute.String("donation.id", donationID.String()),
	))
	defer span.End()

	d, _, err := e.donations.Get(ctx, donationID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.Wrap(err, dErrors.CodeNotFound, "donation not found")
	}
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "load donation")
	}
	if d.Status != domain.DonationCompleted {
		return nil, false, dErrors.New(dErrors.CodeInvalidPayload, "monitoring requires a completed donation")
	}
	if donorID.IsNil() {
		donorID = d.DonorID
	}

	log := monitoring.New(domain.LogID(uuid.New()), donationID, donorID, e.now())
	stored, created, err := e.logs.CreateIfAbsent(ctx, log)
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "create monitoring log")
	}
	if created {
		e.metrics.MonitoringLogsCreated.Inc()
		e.logger.InfoContext(ctx, "monitoring log created", "donation_id", donationID, "log_id", stored.ID)
	}
	return stored, created, nil
}

// UpdateDonationNotes edits the notes field only. Terminal donations stay
// immutable except for this field, so no validation beyond existence runs.
func (e *Engine) UpdateDonationNotes(ctx context.Context, id domain.DonationID, notes string) (*donation.Donation, int64, error) {
	for attempt := 1; ; attempt++ {
		d, version, err := e.donations.Get(ctx, id)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeNotFound, "donation not found")
		}
		if err != nil {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "load donation")
		}

		updated := d.Clone()
		updated.Notes = notes

		newVersion, err := e.donations.Put(ctx, updated, version)
		if errors.Is(err, sentinel.ErrVersionConflict) {
			e.metrics.TransitionConflicts.Inc()
			if attempt >= e.maxAttempts {
				return nil, 0, dErrors.Wrap(err, dErrors.CodeConflict, "donation changed concurrently")
			}
			e.metrics.TransitionRetries.Inc()
			continue
		}
		if err != nil {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "update donation notes")
		}
		return updated, newVersion, nil
	}
}
