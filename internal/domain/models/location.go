package models

import (
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/geo"
)

// LocationSample is one device fix.
type LocationSample struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedMps   *float64  `json:"speed_mps,omitempty"`
	HeadingDeg *float64  `json:"heading_deg,omitempty"`
	AccuracyM  *float64  `json:"accuracy_m,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

// Age of the sample relative to now.
func (s LocationSample) Age(now time.Time) time.Duration {
	return now.Sub(s.CapturedAt)
}

// PickupAnchor is the pickup point of the active ride.
type PickupAnchor struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TelemetrySyncState remembers the last pushed sample. Lives in process memory only.
type TelemetrySyncState struct {
	LastSentAt       time.Time
	LastSentLocation *LocationSample
}

// Channel of a driver payload.
const (
	UpdateViaAPI       = "api"
	UpdateViaWebsocket = "websocket"
)

// DriverPayload is the wire shape shared by the telemetry PUT, register and driver:updateLocation.
type DriverPayload struct {
	Role               string   `json:"role"`
	AvailabilityStatus string   `json:"availabilityStatus"`
	ID                 string   `json:"id"`
	Lat                *float64 `json:"lat"`
	Lng                *float64 `json:"lng"`
	VehicleType        string   `json:"vehicle_type"`
	UpdateVia          string   `json:"update_via"`
	LastUpdatedAt      string   `json:"last_updated_at"`
	SpeedKph           float64  `json:"speed_kph"`
	HeadingDeg         float64  `json:"heading_deg"`
	AccuracyM          float64  `json:"accuracy_m"`
}

// NewDriverPayload builds the wire payload for sample. A nil sample leaves
// lat/lng null and stamps the payload with now. Speed, heading and accuracy
// the device did not report are sent as 0.
func NewDriverPayload(driverID, vehicleType string, status types.AvailabilityStatus, sample *LocationSample, via string, now time.Time) DriverPayload {
	p := DriverPayload{
		Role:               "driver",
		AvailabilityStatus: status.String(),
		ID:                 driverID,
		VehicleType:        vehicleType,
		UpdateVia:          via,
		LastUpdatedAt:      now.UTC().Format(time.RFC3339),
	}
	if sample == nil {
		return p
	}

	lat, lng := sample.Latitude, sample.Longitude
	p.Lat, p.Lng = &lat, &lng
	if !sample.CapturedAt.IsZero() {
		p.LastUpdatedAt = sample.CapturedAt.UTC().Format(time.RFC3339)
	}
	if sample.SpeedMps != nil {
		p.SpeedKph = geo.MpsToKph(*sample.SpeedMps)
	}
	if sample.HeadingDeg != nil {
		p.HeadingDeg = *sample.HeadingDeg
	}
	if sample.AccuracyM != nil {
		p.AccuracyM = *sample.AccuracyM
	}
	return p
}
