// Package handler exposes the post-donation monitoring endpoints.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bloodline/internal/monitoring"
	"bloodline/internal/platform/middleware"
	"bloodline/internal/transport/http/shared"
	"bloodline/pkg/domain"
	dErrors "bloodline/pkg/domain-errors"
	"bloodline/pkg/platform/sentinel"
	"bloodline/pkg/requestcontext"
)

// Engine is the workflow surface the handler needs.
type Engine interface {
	RequestMonitoring(ctx context.Context, donationID domain.DonationID, donorID domain.ActorID) (*monitoring.Log, bool, error)
}

// Handler handles monitoring endpoints.
type Handler struct {
	logger *slog.Logger
	engine Engine
	store  monitoring.Store
}

func New(engine Engine, store monitoring.Store, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, engine: engine, store: store}
}

// Register registers the monitoring routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/monitoring", h.handleCreate)
	r.Get("/monitoring/donations/{donationId}", h.handleGetByDonation)
	r.Patch("/monitoring/{id}", h.handleSeal)
}

type createRequest struct {
	DonationID string `json:"donation_id"`
	DonorID    string `json:"donor_id"`
}

// handleCreate opens the observation log for a completed donation. Idempotent:
// a repeat call answers 200 with the existing log instead of 201.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.requireStaff(ctx); err != nil {
		shared.WriteError(w, err)
		return
	}

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	donationID, err := domain.ParseDonationID(req.DonationID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var donorID domain.ActorID
	if req.DonorID != "" {
		donorID, err = domain.ParseActorID(req.DonorID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
	}

	log, created, err := h.engine.RequestMonitoring(ctx, donationID, donorID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "failed to request monitoring",
				"request_id", middleware.GetRequestID(ctx), "error", err)
		}
		shared.WriteError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	shared.WriteJSON(w, status, log)
}

func (h *Handler) handleGetByDonation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	donationID, err := domain.ParseDonationID(chi.URLParam(r, "donationId"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	log, err := h.store.GetByDonation(ctx, donationID)
	if errors.Is(err, sentinel.ErrNotFound) {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no monitoring log for donation"))
		return
	}
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load monitoring log"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, log)
}

type sealRequest struct {
	Vitals string `json:"vitals"`
}

// handleSeal finalizes the observation with the recorded vitals. RecordedAt
// is stamped server-side; a sealed log rejects further updates.
func (h *Handler) handleSeal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.requireStaff(ctx); err != nil {
		shared.WriteError(w, err)
		return
	}

	id, err := domain.ParseLogID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req sealRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	log, err := h.store.Seal(ctx, id, requestcontext.Now(ctx), req.Vitals)
	if errors.Is(err, sentinel.ErrNotFound) {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "monitoring log not found"))
		return
	}
	if errors.Is(err, sentinel.ErrInvalidState) {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidPayload, "monitoring log already sealed"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to seal monitoring log",
			"request_id", middleware.GetRequestID(ctx), "error", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to seal monitoring log"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, log)
}

func (h *Handler) requireStaff(ctx context.Context) error {
	role := requestcontext.Role(ctx)
	if role != domain.RoleNurse && role != domain.RoleManager && role != domain.RoleAdmin {
		return dErrors.New(dErrors.CodeUnauthorized, "role not permitted for monitoring")
	}
	return nil
}
