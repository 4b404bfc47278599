package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
)

type TripService interface {
	Accept(ctx context.Context, rideID string) error
	Reject(ctx context.Context, rideID string) error
	Arrived(ctx context.Context, rideID string) error
	ConfirmPickup(ctx context.Context, rideID string) error
	ConfirmDropoff(ctx context.Context, rideID string) error
}

type Ride struct {
	service TripService
	l       logger.Logger
}

func NewRide(service TripService, l logger.Logger) *Ride {
	return &Ride{
		service: service,
		l:       l,
	}
}

// Milestone godoc
// @Summary      Ride milestone
// @Description  step is one of accept, reject, arrived, pickup, dropoff
// @Tags         rides
// @Produce      json
// @Param        ride_id path string true "Ride ID"
// @Param        step    path string true "Milestone"
// @Success      200 {object} map[string]any
// @Failure      404 {object} map[string]any
// @Failure      502 {object} map[string]any
// @Router       /rides/{ride_id}/{step} [post]
func (h *Ride) Milestone(step string) http.HandlerFunc {
	var fn func(context.Context, string) error
	switch step {
	case "accept":
		fn = h.service.Accept
	case "reject":
		fn = h.service.Reject
	case "arrived":
		fn = h.service.Arrived
	case "pickup":
		fn = h.service.ConfirmPickup
	case "dropoff":
		fn = h.service.ConfirmDropoff
	default:
		panic("unknown ride milestone " + step)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		rideID := r.PathValue("ride_id")
		ctx := wrap.WithRideID(wrap.WithAction(r.Context(), types.ActionTripMilestone), rideID)

		if err := fn(ctx, rideID); err != nil {
			h.l.Error(wrap.ErrorCtx(ctx, err), "ride milestone failed", err, "step", step)
			errorResponse(w, GetCode(err), err.Error())
			return
		}

		if err := writeJSON(w, http.StatusOK, envelope{"ride_id": rideID, "step": step}, nil); err != nil {
			h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
			internalErrorResponse(w, err.Error())
		}
	}
}
