package trip

import (
	"context"
	"errors"
	"testing"

	"github.com/Temutjin2k/driver-presence/internal/adapter/backend"
	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
)

type fakeSession struct {
	identity *models.DriverIdentity
}

func (f fakeSession) Identity() *models.DriverIdentity { return f.identity }

type fakeRides struct {
	err       error
	endpoints []string
	actions   []models.RideAction
}

func (f *fakeRides) Milestone(_ context.Context, endpoint string, action models.RideAction) error {
	f.endpoints = append(f.endpoints, endpoint)
	f.actions = append(f.actions, action)
	return f.err
}

type fakeStatus struct {
	statuses []types.AvailabilityStatus
}

func (f *fakeStatus) SetAvailabilityStatus(_ context.Context, s types.AvailabilityStatus) error {
	f.statuses = append(f.statuses, s)
	return nil
}

type fakeChannel struct {
	err    error
	pushes int
}

func (f *fakeChannel) PushLocation(context.Context, *models.LocationSample) error {
	f.pushes++
	return f.err
}

func newService(rides *fakeRides, status *fakeStatus, channel *fakeChannel) *Service {
	session := fakeSession{identity: &models.DriverIdentity{DriverID: "d1", VehicleType: "ECONOMY"}}
	return NewService(session, rides, status, channel, logger.Nop())
}

func TestMilestones(t *testing.T) {
	tests := []struct {
		name     string
		call     func(*Service, context.Context, string) error
		endpoint string
		status   types.AvailabilityStatus
		push     bool
	}{
		{"accept", (*Service).Accept, backend.EndpointConfirmRide, types.StatusEnRouteToPickup, true},
		{"reject", (*Service).Reject, backend.EndpointRejectRide, "", false},
		{"arrived", (*Service).Arrived, backend.EndpointDriverArrived, types.StatusWaitingAtPickup, true},
		{"pickup", (*Service).ConfirmPickup, backend.EndpointConfirmPickup, types.StatusEnRouteToDropOff, true},
		{"dropoff", (*Service).ConfirmDropoff, backend.EndpointConfirmDropoff, types.StatusAvailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rides, status, channel := &fakeRides{}, &fakeStatus{}, &fakeChannel{}
			svc := newService(rides, status, channel)

			if err := tt.call(svc, context.Background(), "r1"); err != nil {
				t.Fatalf("milestone: %v", err)
			}
			if len(rides.endpoints) != 1 || rides.endpoints[0] != tt.endpoint {
				t.Fatalf("unexpected endpoints: %v", rides.endpoints)
			}
			if rides.actions[0] != (models.RideAction{RideID: "r1", DriverID: "d1"}) {
				t.Fatalf("unexpected body: %+v", rides.actions[0])
			}
			if tt.status == "" && len(status.statuses) != 0 {
				t.Fatalf("status must not change")
			}
			if tt.status != "" && (len(status.statuses) != 1 || status.statuses[0] != tt.status) {
				t.Fatalf("expected status %s, got %v", tt.status, status.statuses)
			}
			if (channel.pushes == 1) != tt.push {
				t.Fatalf("unexpected push count %d", channel.pushes)
			}
		})
	}
}

func TestMilestone_BackendFailureKeepsStatus(t *testing.T) {
	rides, status, channel := &fakeRides{err: &types.APIError{StatusCode: 409, Message: "ride taken"}}, &fakeStatus{}, &fakeChannel{}
	svc := newService(rides, status, channel)

	if err := svc.Accept(context.Background(), "r1"); !types.IsStatus(err, 409) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if len(status.statuses) != 0 || channel.pushes != 0 {
		t.Fatalf("nothing may change after a rejected milestone")
	}
}

func TestMilestone_PushFailureIsNotFatal(t *testing.T) {
	rides, status, channel := &fakeRides{}, &fakeStatus{}, &fakeChannel{err: types.ErrChannelNotConnected}
	svc := newService(rides, status, channel)

	if err := svc.Arrived(context.Background(), "r1"); err != nil {
		t.Fatalf("push failure must not fail the milestone: %v", err)
	}
}

func TestMilestone_Validation(t *testing.T) {
	svc := newService(&fakeRides{}, &fakeStatus{}, &fakeChannel{})
	if err := svc.Accept(context.Background(), ""); !errors.Is(err, ErrEmptyRideID) {
		t.Fatalf("expected empty ride id error, got %v", err)
	}

	svc = NewService(fakeSession{}, &fakeRides{}, &fakeStatus{}, &fakeChannel{}, logger.Nop())
	if err := svc.Accept(context.Background(), "r1"); !errors.Is(err, types.ErrMissingDriverInfo) {
		t.Fatalf("expected missing driver info, got %v", err)
	}
}
