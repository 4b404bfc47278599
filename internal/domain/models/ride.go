package models

import (
	"encoding/json"
	"time"
)

type Place struct {
	// Coords is [longitude, latitude].
	Coords  [2]float64 `json:"coords"`
	Address string     `json:"address"`
}

type FareBreakdown struct {
	BaseFare           float64 `json:"base_fare"`
	DistanceFare       float64 `json:"distance_fare"`
	DurationFare       float64 `json:"duration_fare"`
	RoundingAdjustment float64 `json:"rounding_adjustment"`
	PlatformFee        float64 `json:"platform_fee"`
}

// RideRequest is the NEW_RIDE_REQUEST message body.
type RideRequest struct {
	Type               string        `json:"type"`
	VehicleType        string        `json:"vehicle_type"`
	RideID             string        `json:"ride_id"`
	DistanceToPickupKm float64       `json:"distance_to_pickup_km"`
	DistanceM          float64       `json:"distance_m"`
	DurationS          float64       `json:"duration_s"`
	Fare               float64       `json:"fare"`
	PlatformFee        float64       `json:"platform_fee"`
	DriverEarning      float64       `json:"driver_earning"`
	AppCommission      float64       `json:"app_commission"`
	FareBreakdown      FareBreakdown `json:"fare_breakdown"`
	Pickup             Place         `json:"pickup"`
	Dropoff            Place         `json:"dropoff"`
	// RequestExpiredAt is epoch milliseconds.
	RequestExpiredAt int64 `json:"request_expired_at"`
}

// RideOffer is a surfaced ride request.
type RideOffer struct {
	RideID     string          `json:"ride_id"`
	ExpiresAt  time.Time       `json:"expires_at"`
	ReceivedAt time.Time       `json:"received_at"`
	Request    json.RawMessage `json:"request"`
}

// ActiveRide is the answer of GET /ride/active-ride-by-driver.
type ActiveRide struct {
	ID                   string    `json:"id"`
	Status               string    `json:"status,omitempty"`
	PlannedPickupCoords  *GeoPoint `json:"planned_pickup_coords,omitempty"`
	PlannedDropoffCoords *GeoPoint `json:"planned_dropoff_coords,omitempty"`
}

// GeoPoint is a GeoJSON point, coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string     `json:"type,omitempty"`
	Coordinates [2]float64 `json:"coordinates"`
}

// RideAction is the body of the ride milestone endpoints.
type RideAction struct {
	RideID   string `json:"ride_id"`
	DriverID string `json:"driver_id"`
}
