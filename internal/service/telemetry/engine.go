package telemetry

import (
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/geo"
)

// Thresholds of the send/skip decision.
type Thresholds struct {
	DistanceM     float64
	Time          time.Duration
	NearPickupM   float64
	NearPickupTTL time.Duration
}

// Engine decides whether a new sample is worth pushing. It does no I/O.
type Engine struct {
	t Thresholds
}

// Default thresholds.
const (
	DefaultDistanceThresholdM = 100
	DefaultTimeThreshold      = 60 * time.Second
	DefaultNearRadiusM        = 20
	DefaultRelaxedThreshold   = 30 * time.Second
)

// NewEngine fills zero thresholds with the defaults.
func NewEngine(t Thresholds) *Engine {
	if t.DistanceM <= 0 {
		t.DistanceM = DefaultDistanceThresholdM
	}
	if t.Time <= 0 {
		t.Time = DefaultTimeThreshold
	}
	if t.NearPickupM <= 0 {
		t.NearPickupM = DefaultNearRadiusM
	}
	if t.NearPickupTTL <= 0 {
		t.NearPickupTTL = DefaultRelaxedThreshold
	}
	return &Engine{t: t}
}

// NewDefaultEngine uses 100 m / 60 s, relaxed to 30 s within 20 m of the pickup.
func NewDefaultEngine() *Engine {
	return NewEngine(Thresholds{})
}

// ShouldSend reports whether sample must be pushed given what was last sent.
// Elapsed time is measured between capture times, so the result depends only on its inputs.
func (e *Engine) ShouldSend(state *models.TelemetrySyncState, sample models.LocationSample, status types.AvailabilityStatus, anchor *models.PickupAnchor) bool {
	if state == nil || state.LastSentLocation == nil {
		return true
	}
	last := state.LastSentLocation

	distance := geo.DistanceMeters(last.Latitude, last.Longitude, sample.Latitude, sample.Longitude)

	threshold := e.t.Time
	if status.PickupBound() && anchor != nil &&
		geo.DistanceMeters(sample.Latitude, sample.Longitude, anchor.Latitude, anchor.Longitude) <= e.t.NearPickupM {
		threshold = e.t.NearPickupTTL
	}

	if distance >= e.t.DistanceM {
		return true
	}

	return sample.CapturedAt.Sub(state.LastSentAt) >= threshold
}
