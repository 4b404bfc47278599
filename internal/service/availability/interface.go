package availability

import (
	"context"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
)

/*=================Session========================*/

type Session interface {
	Identity() *models.DriverIdentity
	Valid() bool
}

/*=================Backend========================*/

type ProfileAPI interface {
	GetProfile(ctx context.Context) (*models.DriverProfile, error)
	UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.DriverProfile, error)
}

type RideAPI interface {
	ActiveRide(ctx context.Context) (*models.ActiveRide, error)
}

/*=================Persisted Keys=================*/

type Store interface {
	SaveAvailabilityStatus(ctx context.Context, status types.AvailabilityStatus) error
	SavePickupAnchor(ctx context.Context, anchor models.PickupAnchor) error
	DeletePickupAnchor(ctx context.Context) error
}

/*=================Presence Side Effects==========*/

type Scheduler interface {
	Start(ctx context.Context)
	Stop()
}

type Channel interface {
	Connect(ctx context.Context, driverID, vehicleType string) error
	Disconnect()
}

type PermissionSource interface {
	Permission(ctx context.Context) bool
}

/*=================Broadcast======================*/

// Publisher receives every committed availability transition.
type Publisher interface {
	PublishAvailability(ctx context.Context, ev models.AvailabilityEvent) error
}
