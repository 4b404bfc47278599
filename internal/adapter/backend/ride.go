package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
)

// Ride milestone endpoints.
const (
	EndpointConfirmRide    = "/ride/confirm"
	EndpointRejectRide     = "/ride/reject"
	EndpointDriverArrived  = "/ride/driver-arrived"
	EndpointConfirmPickup  = "/ride/confirm-pickup"
	EndpointConfirmDropoff = "/ride/confirm-dropoff"
)

type RideAPI struct {
	caller Caller
}

func NewRideAPI(caller Caller) *RideAPI {
	return &RideAPI{
		caller: caller,
	}
}

// ActiveRide returns the ride the driver is serving or types.ErrNoActiveRide.
func (a *RideAPI) ActiveRide(ctx context.Context) (*models.ActiveRide, error) {
	const op = "RideAPI.ActiveRide"

	data, err := a.caller.Call(ctx, models.APIRequest{
		Endpoint:     "/ride/active-ride-by-driver",
		Method:       http.MethodGet,
		RequiresAuth: true,
	})
	if err != nil {
		if types.IsStatus(err, http.StatusNotFound) {
			return nil, types.ErrNoActiveRide
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var ride models.ActiveRide
	if err := decode(data, &ride); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ride.ID == "" {
		return nil, types.ErrNoActiveRide
	}
	return &ride, nil
}

// Milestone posts {ride_id, driver_id} to one of the ride endpoints.
func (a *RideAPI) Milestone(ctx context.Context, endpoint string, action models.RideAction) error {
	const op = "RideAPI.Milestone"

	if _, err := a.caller.Call(ctx, models.APIRequest{
		Endpoint:     endpoint,
		Method:       http.MethodPost,
		Body:         action,
		RequiresAuth: true,
	}); err != nil {
		return fmt.Errorf("%s %s: %w", op, endpoint, err)
	}
	return nil
}
