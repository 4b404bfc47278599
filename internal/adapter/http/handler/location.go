package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
	"github.com/Temutjin2k/driver-presence/pkg/validator"
)

type LocationFeed interface {
	Update(sample models.LocationSample)
	SetPermission(granted bool)
	Permission(ctx context.Context) bool
	Latest() (*models.LocationSample, bool)
}

type Location struct {
	feed LocationFeed
	now  func() time.Time
	l    logger.Logger
}

func NewLocation(feed LocationFeed, l logger.Logger) *Location {
	return &Location{
		feed: feed,
		now:  time.Now,
		l:    l,
	}
}

// Update godoc
// @Summary      Report a device fix
// @Tags         location
// @Accept       json
// @Produce      json
// @Param        request body dto.LocationRequest true "Location fix"
// @Success      202 {object} map[string]any
// @Failure      422 {object} map[string]any
// @Router       /location [post]
func (h *Location) Update(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "location_update")

	var req dto.LocationRequest
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

	sample := req.ToModel(h.now())
	h.feed.Update(sample)

	if err := writeJSON(w, http.StatusAccepted, envelope{"captured_at": sample.CapturedAt}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// Get godoc
// @Summary      Latest device fix
// @Tags         location
// @Produce      json
// @Success      200 {object} map[string]any
// @Router       /location [get]
func (h *Location) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "location_get")

	resp := envelope{"permission": h.feed.Permission(ctx)}
	if sample, ok := h.feed.Latest(); ok {
		resp["location"] = sample
	}

	if err := writeJSON(w, http.StatusOK, resp, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// SetPermission godoc
// @Summary      Set location permission
// @Tags         location
// @Accept       json
// @Produce      json
// @Param        request body dto.PermissionRequest true "Permission state"
// @Success      200 {object} map[string]any
// @Router       /location/permission [put]
func (h *Location) SetPermission(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "location_permission")

	var req dto.PermissionRequest
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

	h.feed.SetPermission(*req.Granted)
	h.l.Info(ctx, "location permission changed", "granted", *req.Granted)

	if err := writeJSON(w, http.StatusOK, envelope{"permission": *req.Granted}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}
