package dto

import (
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/pkg/validator"
)

// LocationRequest is one fix reported by the device.
type LocationRequest struct {
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	SpeedMps   *float64   `json:"speed_mps,omitempty"`
	HeadingDeg *float64   `json:"heading_deg,omitempty"`
	AccuracyM  *float64   `json:"accuracy_m,omitempty"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`
}

func (r *LocationRequest) Validate(v *validator.Validator) {
	v.Check(r.Latitude >= -90 && r.Latitude <= 90, "latitude", "must be between -90 and 90")
	v.Check(r.Longitude >= -180 && r.Longitude <= 180, "longitude", "must be between -180 and 180")
	if r.SpeedMps != nil {
		v.Check(*r.SpeedMps >= 0, "speed_mps", "must not be negative")
	}
	if r.HeadingDeg != nil {
		v.Check(*r.HeadingDeg >= 0 && *r.HeadingDeg < 360, "heading_deg", "must be in [0, 360)")
	}
	if r.AccuracyM != nil {
		v.Check(*r.AccuracyM >= 0, "accuracy_m", "must not be negative")
	}
}

// ToModel stamps the sample with now when the device sent no capture time.
func (r *LocationRequest) ToModel(now time.Time) models.LocationSample {
	captured := now
	if r.CapturedAt != nil {
		captured = *r.CapturedAt
	}
	return models.LocationSample{
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		SpeedMps:   r.SpeedMps,
		HeadingDeg: r.HeadingDeg,
		AccuracyM:  r.AccuracyM,
		CapturedAt: captured,
	}
}

type PermissionRequest struct {
	Granted *bool `json:"granted"`
}

func (r *PermissionRequest) Validate(v *validator.Validator) {
	v.Check(r.Granted != nil, "granted", "must be provided")
}
