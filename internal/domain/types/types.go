package types

type ServiceMode string

// Agent - foreground process: session, availability, realtime channel and control API
// Reporter - background process: periodic location telemetry only
const (
	AgentMode    ServiceMode = "agent"
	ReporterMode ServiceMode = "reporter"
)

// AvailabilityStatus is the driver's work state reported to the backend.
type AvailabilityStatus string

func (s AvailabilityStatus) String() string {
	return string(s)
}

const (
	StatusNotAvailable     AvailabilityStatus = "not_available"
	StatusAvailable        AvailabilityStatus = "available"
	StatusEnRouteToPickup  AvailabilityStatus = "en_route_to_pickup"
	StatusWaitingAtPickup  AvailabilityStatus = "waiting_at_pickup"
	StatusEnRouteToDropOff AvailabilityStatus = "en_route_to_drop_off"
)

var AvailabilityStatuses = []AvailabilityStatus{
	StatusNotAvailable,
	StatusAvailable,
	StatusEnRouteToPickup,
	StatusWaitingAtPickup,
	StatusEnRouteToDropOff,
}

func (s AvailabilityStatus) Valid() bool {
	for _, st := range AvailabilityStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// PickupBound reports whether the driver is heading to or waiting at a pickup.
func (s AvailabilityStatus) PickupBound() bool {
	return s == StatusEnRouteToPickup || s == StatusWaitingAtPickup
}

// InTrip reports whether the driver is serving a ride in any phase.
func (s AvailabilityStatus) InTrip() bool {
	return s.PickupBound() || s == StatusEnRouteToDropOff
}

// ChannelState of the realtime channel.
type ChannelState string

const (
	ChannelDisconnected ChannelState = "disconnected"
	ChannelConnecting   ChannelState = "connecting"
	ChannelConnected    ChannelState = "connected"
)

// MessageType of an inbound realtime message.
type MessageType string

const (
	MessageNewRideRequest   MessageType = "NEW_RIDE_REQUEST"
	MessageAccountSuspended MessageType = "ACCOUNT_DEACTIVATED_TEMPORARILY"
)

// Persisted store keys.
const (
	KeyAuthState          = "auth-state"
	KeyLastLocation       = "last-location"
	KeyAvailabilityStatus = "availability-status"
	KeyPickupAnchor       = "pickup-anchor"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Status broadcast brokers.
const (
	BrokerNone     = "none"
	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
)
