package trip

import (
	"context"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
)

type Session interface {
	Identity() *models.DriverIdentity
}

type RideAPI interface {
	Milestone(ctx context.Context, endpoint string, action models.RideAction) error
}

type StatusSetter interface {
	SetAvailabilityStatus(ctx context.Context, status types.AvailabilityStatus) error
}

type LocationPusher interface {
	PushLocation(ctx context.Context, sample *models.LocationSample) error
}
