package trip

import (
	"context"
	"errors"
	"fmt"

	"github.com/Temutjin2k/driver-presence/internal/adapter/backend"
	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
)

var ErrEmptyRideID = errors.New("ride id is required")

// milestone describes one step of a ride as seen by the driver.
type milestone struct {
	name     string
	endpoint string
	// status is applied after the backend accepted the step. Empty keeps the
	// current status.
	status types.AvailabilityStatus
	push   bool
}

var (
	accept  = milestone{"accept", backend.EndpointConfirmRide, types.StatusEnRouteToPickup, true}
	reject  = milestone{"reject", backend.EndpointRejectRide, "", false}
	arrived = milestone{"arrived", backend.EndpointDriverArrived, types.StatusWaitingAtPickup, true}
	pickup  = milestone{"pickup", backend.EndpointConfirmPickup, types.StatusEnRouteToDropOff, true}
	dropoff = milestone{"dropoff", backend.EndpointConfirmDropoff, types.StatusAvailable, true}
)

// Service drives ride milestones. Each one moves the availability status and
// pushes the location on the realtime channel outside the telemetry cadence.
type Service struct {
	session Session
	rides   RideAPI
	status  StatusSetter
	channel LocationPusher
	l       logger.Logger
}

func NewService(session Session, rides RideAPI, status StatusSetter, channel LocationPusher, l logger.Logger) *Service {
	return &Service{
		session: session,
		rides:   rides,
		status:  status,
		channel: channel,
		l:       l,
	}
}

func (s *Service) Accept(ctx context.Context, rideID string) error {
	return s.advance(ctx, rideID, accept)
}

func (s *Service) Reject(ctx context.Context, rideID string) error {
	return s.advance(ctx, rideID, reject)
}

func (s *Service) Arrived(ctx context.Context, rideID string) error {
	return s.advance(ctx, rideID, arrived)
}

func (s *Service) ConfirmPickup(ctx context.Context, rideID string) error {
	return s.advance(ctx, rideID, pickup)
}

func (s *Service) ConfirmDropoff(ctx context.Context, rideID string) error {
	return s.advance(ctx, rideID, dropoff)
}

func (s *Service) advance(ctx context.Context, rideID string, m milestone) error {
	const op = "Service.advance"
	ctx = wrap.WithRideID(wrap.WithAction(ctx, types.ActionTripMilestone), rideID)

	if rideID == "" {
		return fmt.Errorf("%s: %w", op, ErrEmptyRideID)
	}

	identity := s.session.Identity()
	if identity == nil || identity.DriverID == "" {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrMissingDriverInfo))
	}
	ctx = wrap.WithDriverID(ctx, identity.DriverID)

	if err := s.rides.Milestone(ctx, m.endpoint, models.RideAction{RideID: rideID, DriverID: identity.DriverID}); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s %s: %w", op, m.name, err))
	}

	if m.status != "" {
		if err := s.status.SetAvailabilityStatus(ctx, m.status); err != nil {
			return wrap.Error(ctx, fmt.Errorf("%s %s: %w", op, m.name, err))
		}
	}

	if m.push {
		if err := s.channel.PushLocation(ctx, nil); err != nil {
			s.l.Warn(ctx, "milestone location push failed", "milestone", m.name, "error", err.Error())
		}
	}

	s.l.Info(ctx, "ride milestone recorded", "milestone", m.name)
	return nil
}
