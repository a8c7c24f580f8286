// Package handler exposes the blood-receive request endpoints.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bloodline/internal/delivery"
	"bloodline/internal/platform/middleware"
	"bloodline/internal/receive"
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
	ApplyReceiveTransition(ctx context.Context, id domain.RequestID, target domain.Status, role domain.Role, patch workflow.ReceivePatch) (*receive.Request, int64, error)
}

// Handler handles receive-request endpoints.
type Handler struct {
	logger   *slog.Logger
	engine   Engine
	store    receive.Store
	tracker  delivery.Tracker
	registry *registry.Registry
}

func New(engine Engine, store receive.Store, tracker delivery.Tracker, reg *registry.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		engine:   engine,
		store:    store,
		tracker:  tracker,
		registry: reg,
	}
}

// Register registers the receive-request routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/requests", h.handleCreate)
	r.Get("/requests/{id}", h.handleGet)
	r.Patch("/requests/{id}", h.handlePatch)
	r.Get("/requests/{id}/delivery", h.handleDelivery)
}

type requestResponse struct {
	*receive.Request
	Version      int64           `json:"version"`
	StatusLabel  string          `json:"status_label"`
	StatusColor  string          `json:"status_color"`
	NextStatuses []domain.Status `json:"next_statuses"`
}

func (h *Handler) respond(w http.ResponseWriter, status int, req *receive.Request, version int64) {
	display := h.registry.Display(domain.EntityReceiveRequest, req.Status)
	shared.WriteJSON(w, status, requestResponse{
		Request:      req,
		Version:      version,
		StatusLabel:  display.Label,
		StatusColor:  display.Color,
		NextStatuses: h.registry.NextStatuses(domain.EntityReceiveRequest, req.Status),
	})
}

type createRequest struct {
	BloodGroupID domain.BloodGroupID `json:"blood_group_id"`
	QuantityML   int                 `json:"quantity_ml"`
	FacilityID   domain.FacilityID   `json:"facility_id"`
}

// handleCreate submits a new request on behalf of the authenticated member.
// It enters pending_approval and waits for the approval authority.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}
	if req.QuantityML <= 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "quantity_ml must be positive"))
		return
	}

	requester := requestcontext.ActorID(ctx)
	record := receive.New(
		domain.RequestID(uuid.New()), requester,
		req.BloodGroupID, req.QuantityML, req.FacilityID,
		requestcontext.Now(ctx),
	)

	if err := h.store.Create(ctx, record); err != nil {
		h.logger.ErrorContext(ctx, "failed to create receive request",
			"request_id", middleware.GetRequestID(ctx), "error", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create request"))
		return
	}
	h.respond(w, http.StatusCreated, record, 1)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	record, version, err := h.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "request not found"))
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load receive request",
			"request_id", middleware.GetRequestID(ctx), "error", err)
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request"))
		return
	}
	h.respond(w, http.StatusOK, record, version)
}

type patchRequest struct {
	Status       string `json:"status"`
	AssignmentID string `json:"assignment_id"`
}

func (h *Handler) handlePatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req patchRequest
	if err := shared.Decode(r, &req); err != nil {
		shared.WriteError(w, err)
		return
	}

	target, err := domain.ParseReceiveStatus(req.Status)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var patch workflow.ReceivePatch
	if req.AssignmentID != "" {
		assignment, err := domain.ParseAssignmentID(req.AssignmentID)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		patch.AssignmentID = &assignment
	}

	role := requestcontext.Role(ctx)
	record, version, err := h.engine.ApplyReceiveTransition(ctx, id, target, role, patch)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeSideEffectIncomplete) {
			h.logger.WarnContext(ctx, "side effects incomplete after commit",
				"request_id", middleware.GetRequestID(ctx), "id", id, "error", err)
		} else if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "receive transition failed",
				"request_id", middleware.GetRequestID(ctx), "error", err)
		}
		shared.WriteError(w, err)
		return
	}
	h.respond(w, http.StatusOK, record, version)
}

// handleDelivery exposes the live delivery step. Only statuses in the
// delivery-tracked subset have one; everything else is a 404.
func (h *Handler) handleDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParseRequestID(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	record, _, err := h.store.Get(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "request not found"))
		return
	}
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load request"))
		return
	}

	if !h.registry.DeliveryTracked(record.Status) {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no delivery tracking for request status"))
		return
	}

	step, err := h.tracker.Step(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "delivery tracking not initialized"))
		return
	}
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load delivery step"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{
		"request_id": id.String(),
		"step":       step.String(),
	})
}
