package models

// UI event types pushed on /ws/events.
const (
	UIEventNavigate  = "navigate"
	UIEventRideOffer = "ride_offer"
	UIEventStatus    = "availability"
)

// Navigation targets.
const (
	RouteWelcome    = "welcome"
	RouteNewRequest = "new-request"
)

// UIEvent is what connected UI clients receive.
type UIEvent struct {
	Type string `json:"type"`
	To   string `json:"to,omitempty"`
	Data any    `json:"data,omitempty"`
}
