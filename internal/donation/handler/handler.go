// Package handler exposes the donation endpoints.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bloodline/internal/donation"
	"bloodline/internal/platform/middleware"
	"bloodline/internal/registry"
	"bloodline/internal/transport/http/shared"
	"bloodline/internal/workflow"
	"bloodline/pkg/domain"
	dErrors "bloodline/pkg/domain-errors"
	"bloodline/pkg/platform/sentinel"
	"bloodline/pkg/requestcontext"
)

// Engine is the workflow surface the handler needs.
type Engine interface {
	ApplyDonationTransition(ctx context.Context, id domain.DonationID, target domain.Status, role domain.Role, patch workflow.DonationPatch) (*donation.Donation, int64, error)
	UpdateDonationNotes(ctx context.Context, id domain.DonationID, notes string) (*donation.Donation, int64, error)
}

// Handler handles donation endpoints.
type Handler struct {
	logger   *slog.Logger
	engine   Engine
	store    donation.Store
	registry *registry.Registry
}

func New(engine Engine, store donation.Store, reg *registry.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		engine:   engine,
		store:    store,
		registry: reg,
	}
}

// Register registers the donation routes with the chi router. The caller
// wires the shared middleware chain.
func (h *Handler) Register(r chi.Router) {
	r.Post("/donations", h.handleCreate)
	r.Get("/donations/{id}", h.handleGet)
	r.Patch("/donations/{id}", h.handlePatch)
}

type donationResponse struct {
	*donation.Donation
	Version      int64           `json:"version"`
	StatusLabel  string          `json:"status_label"`
	StatusColor  string          `json:"status_color"`
	NextStatuses []domain.Status `json:"next_statuses"`
}

func (h *Handler) respond(w http.ResponseWriter, status int, d *donation.Donation, version int64) {
	display := h.registry.Display(domain.EntityDonation, d.Status)
	shared.WriteJSON(w, status, donationResponse{
		Donation:     d,
		Version:      version,
		StatusLabel:  display.Label,
		StatusColor:  display.Color,
		NextStatuses: h.registry.NextStatuses(domain.EntityDonation, d.Status),
	})
}

type createRequest struct {
	Code           string                `json:"code"`
	DonorID        domain.ActorID        `json:"donor_id"`
	StaffID        domain.ActorID        `json:"staff_id"`
	FacilityID     domain.FacilityID     `json:"facility_id"`
	BloodGroupID   domain.BloodGroupID   `json:"blood_group_id"`
	RegistrationID domain.RegistrationID `json:"registration_id"`
	QuantityML     int                   `json:"quantity_ml"`
}

// handleCreate opens a pending donation when a scheduled registration
// reaches donation start. Staff only.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role := requestcontext.Role(ctx)
	if role != domain.RoleNurse && role != domain.RoleManager && role != domain.RoleAdmin {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "role not permitted to open donations"))
		return
	}

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if req.Code == "" || req.DonorID.IsNil() {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "code and donor_id are required"))
		return
	}

	staffID := req.StaffID
	if staffID.IsNil() {
		staffID = requestcontext.ActorID(ctx)
	}

	d := donation.New(
		domain.DonationID(uuid.New()), req.Code, req.DonorID, staffID,
		req.FacilityID, req.BloodGroupID, req.RegistrationID,
		requestcontext.Now(ctx),
	)
	d.QuantityML = req.QuantityML

	if err := h.store.Create(ctx, d); err != nil {
		h.logger.ErrorContext(ctx, "failed to create donation",
			"request_id", middleware.GetRequestID(ctx), "error", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create donation"))
		return
	}
	h.respond(w, http.StatusCreated, d, 1)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	d, version, err := h.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "donation not found"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load donation",
			"request_id", middleware.GetRequestID(ctx), "error", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation"))
		return
	}
	h.respond(w, http.StatusOK, d, version)
}

type patchRequest struct {
	Status   string  `json:"status"`
	Quantity *int    `json:"quantity"`
	Notes    *string `json:"notes"`
}

// handlePatch applies a status transition, or a notes-only edit when no
// status is supplied. Terminal donations accept only the latter.
func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseDonationID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req patchRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	if req.Status == "" {
		if req.Notes == nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "status or notes required"))
			return
		}
		// Notes edits are a staff action, same as opening a donation.
		role := requestcontext.Role(ctx)
		if role != domain.RoleNurse && role != domain.RoleManager && role != domain.RoleAdmin {
			shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "role not permitted to edit donation notes"))
			return
		}
		d, version, err := h.engine.UpdateDonationNotes(ctx, id, *req.Notes)
		if err != nil {
			h.writeEngineError(w, r, err)
			return
		}
		h.respond(w, http.StatusOK, d, version)
		return
	}

	target, err := domain.ParseDonationStatus(req.Status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	role := requestcontext.Role(ctx)
	d, version, err := h.engine.ApplyDonationTransition(ctx, id, target, role, workflow.DonationPatch{
		QuantityML: req.Quantity,
		Notes:      req.Notes,
	})
	if err != nil && !dErrors.Is(err, dErrors.CodeSideEffectIncomplete) {
		h.writeEngineError(w, r, err)
		return
	}
	if err != nil {
		// Transition is durable; the caller gets the error code and should
		// re-drive the side effect.
		h.logger.WarnContext(ctx, "side effects incomplete after commit",
			"request_id", middleware.GetRequestID(ctx), "donation_id", id, "error", err)
		shared.WriteError(w, err)
		return
	}
	h.respond(w, http.StatusOK, d, version)
}

func (h *Handler) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "donation transition failed",
			"request_id", middleware.GetRequestID(ctx), "error", err)
	}
	shared.WriteError(w, err)
}
