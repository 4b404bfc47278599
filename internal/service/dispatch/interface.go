package dispatch

import (
	"context"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
)

// OfferConsumer shows a ride offer to the driver.
type OfferConsumer interface {
	Surface(ctx context.Context, offer models.RideOffer)
}

// SuspensionHandler reacts to an account suspension message.
type SuspensionHandler func(ctx context.Context, notice models.SuspensionNotice)
