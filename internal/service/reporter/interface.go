package reporter

import (
	"context"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
)

/*=================Device Location======================*/

type LocationSource interface {
	Current(ctx context.Context, maxAge time.Duration) (*models.LocationSample, error)
}

/*=================Decision Engine======================*/

type DecisionEngine interface {
	ShouldSend(state *models.TelemetrySyncState, sample models.LocationSample, status types.AvailabilityStatus, anchor *models.PickupAnchor) bool
}

/*=================Identity Cache=======================*/

type IdentitySource interface {
	Snapshot(ctx context.Context) (models.IdentitySnapshot, error)
	Invalidate()
}

/*=================Persisted Keys=======================*/

type Store interface {
	LoadAvailabilityStatus(ctx context.Context) (types.AvailabilityStatus, error)
	LoadPickupAnchor(ctx context.Context) (*models.PickupAnchor, error)
	SaveLastLocation(ctx context.Context, sample models.LocationSample) error
}

/*=================Telemetry Endpoint===================*/

type Pusher interface {
	Push(ctx context.Context, accessToken string, payload models.DriverPayload) error
}
