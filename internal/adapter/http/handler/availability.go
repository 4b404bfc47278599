package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/driver-presence/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
	"github.com/Temutjin2k/driver-presence/pkg/validator"
)

type AvailabilityService interface {
	SetOnline(ctx context.Context, online bool) error
	SyncOnlineStatus(ctx context.Context) error
	SetAvailabilityStatus(ctx context.Context, status types.AvailabilityStatus) error
	State() models.AvailabilityState
}

type Availability struct {
	service AvailabilityService
	l       logger.Logger
}

func NewAvailability(service AvailabilityService, l logger.Logger) *Availability {
	return &Availability{
		service: service,
		l:       l,
	}
}

// Get godoc
// @Summary      Availability state
// @Tags         availability
// @Produce      json
// @Success      200 {object} dto.AvailabilityResponse
// @Router       /availability [get]
func (h *Availability) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(wrap.WithAction(r.Context(), "get_availability"), w)
}

// GoOnline godoc
// @Summary      Go online
// @Description  Patches the backend profile, starts the reporter and connects the realtime channel. Any failure leaves the driver offline.
// @Tags         availability
// @Produce      json
// @Success      200 {object} dto.AvailabilityResponse
// @Failure      401 {object} map[string]any
// @Failure      403 {object} map[string]any
// @Failure      409 {object} map[string]any
// @Failure      502 {object} map[string]any
// @Router       /availability/online [post]
func (h *Availability) GoOnline(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionGoOnline)

	if err := h.service.SetOnline(ctx, true); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to go online", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}
	h.respond(ctx, w)
}

// GoOffline godoc
// @Summary      Go offline
// @Tags         availability
// @Produce      json
// @Success      200 {object} dto.AvailabilityResponse
// @Failure      502 {object} map[string]any
// @Router       /availability/offline [post]
func (h *Availability) GoOffline(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionGoOffline)

	if err := h.service.SetOnline(ctx, false); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to go offline", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}
	h.respond(ctx, w)
}

// Sync godoc
// @Summary      Reconcile with the backend
// @Description  Skipped within 10s of a manual toggle or a previous sync
// @Tags         availability
// @Produce      json
// @Success      200 {object} dto.AvailabilityResponse
// @Router       /availability/sync [post]
func (h *Availability) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionSyncOnlineStatus)

	if err := h.service.SyncOnlineStatus(ctx); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to sync online status", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}
	h.respond(ctx, w)
}

// SetStatus godoc
// @Summary      Set availability status
// @Tags         availability
// @Accept       json
// @Produce      json
// @Param        request body dto.SetStatusRequest true "New status"
// @Success      200 {object} dto.AvailabilityResponse
// @Failure      422 {object} map[string]any
// @Router       /availability/status [put]
func (h *Availability) SetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), types.ActionSetStatus)

	var req dto.SetStatusRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	if err := h.service.SetAvailabilityStatus(ctx, types.AvailabilityStatus(req.Status)); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to set availability status", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}
	h.respond(ctx, w)
}

func (h *Availability) respond(ctx context.Context, w http.ResponseWriter) {
	resp := dto.NewAvailabilityResponse(h.service.State())
	if err := writeJSON(w, http.StatusOK, envelope{"availability": resp}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}
