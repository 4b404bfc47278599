package wshandler

import (
	"context"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	ws "github.com/Temutjin2k/driver-presence/pkg/wsHub"
)

// EventHub fans agent events out to every UI client connected on /ws/events.
type EventHub struct {
	connections *ws.ConnectionHub
	l           logger.Logger
}

func NewEventHub(connHub *ws.ConnectionHub, l logger.Logger) *EventHub {
	return &EventHub{
		connections: connHub,
		l:           l,
	}
}

// Navigate asks the UI to show route.
func (h *EventHub) Navigate(ctx context.Context, route string) {
	h.broadcast(ctx, models.UIEvent{Type: models.UIEventNavigate, To: route})
}

// Surface shows a ride offer on the new request screen.
func (h *EventHub) Surface(ctx context.Context, offer models.RideOffer) {
	if n := h.broadcast(ctx, models.UIEvent{Type: models.UIEventRideOffer, To: models.RouteNewRequest, Data: offer}); n == 0 {
		h.l.Warn(ctx, "ride offer surfaced with no UI client connected", "ride_id", offer.RideID)
	}
}

// PublishAvailability mirrors availability transitions to the UI.
func (h *EventHub) PublishAvailability(ctx context.Context, ev models.AvailabilityEvent) error {
	h.broadcast(ctx, models.UIEvent{Type: models.UIEventStatus, Data: ev})
	return nil
}

func (h *EventHub) broadcast(ctx context.Context, ev models.UIEvent) int {
	n := h.connections.Broadcast(ctx, ev)
	h.l.Debug(ctx, "ui event broadcast", "type", ev.Type, "clients", n)
	return n
}
