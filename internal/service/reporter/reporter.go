package reporter

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
	"github.com/Temutjin2k/driver-presence/pkg/metrics"
)

// Result of one reporter cycle.
type Result string

const (
	ResultNoData  Result = "no_data"
	ResultNewData Result = "new_data"
	ResultFailed  Result = "failed"
)

const (
	DefaultPersistInterval = 2 * time.Minute
	DefaultSampleMaxAge    = 3 * time.Minute
)

// Reporter pushes the device location to the telemetry endpoint when the
// decision engine says it is worth it. Every step is safe to repeat.
type Reporter struct {
	location LocationSource
	engine   DecisionEngine
	identity IdentitySource
	store    Store
	pusher   Pusher

	maxAge          time.Duration
	persistInterval time.Duration

	mu            sync.Mutex
	sync          models.TelemetrySyncState
	lastPersisted time.Time

	now func() time.Time
	l   logger.Logger
}

func New(location LocationSource, engine DecisionEngine, identity IdentitySource, store Store, pusher Pusher, maxAge, persistInterval time.Duration, l logger.Logger) *Reporter {
	if maxAge <= 0 {
		maxAge = DefaultSampleMaxAge
	}
	if persistInterval <= 0 {
		persistInterval = DefaultPersistInterval
	}
	return &Reporter{
		location:        location,
		engine:          engine,
		identity:        identity,
		store:           store,
		pusher:          pusher,
		maxAge:          maxAge,
		persistInterval: persistInterval,
		now:             time.Now,
		l:               l,
	}
}

// RunOnce runs a single cycle. It never panics on missing data, failures are
// reported through the result and retried by the next cycle.
func (r *Reporter) RunOnce(ctx context.Context) Result {
	ctx = wrap.WithAction(ctx, types.ActionTelemetryCycle)

	result := r.runOnce(ctx)
	metrics.TelemetryDecisionsTotal.WithLabelValues(string(result)).Inc()
	return result
}

func (r *Reporter) runOnce(ctx context.Context) Result {
	sample, err := r.location.Current(ctx, r.maxAge)
	if err != nil || sample == nil {
		r.l.Debug(ctx, "no location sample", "reason", errString(err))
		return ResultNoData
	}

	status := r.availabilityStatus(ctx)
	anchor := r.pickupAnchor(ctx)

	state := r.syncState()
	if !r.engine.ShouldSend(&state, *sample, status, anchor) {
		return ResultNoData
	}

	snap, err := r.identity.Snapshot(ctx)
	if err != nil {
		r.l.Warn(ctx, "telemetry identity unavailable", "error", err.Error())
		return ResultFailed
	}
	ctx = wrap.WithDriverID(ctx, snap.DriverID)

	payload := models.NewDriverPayload(snap.DriverID, snap.VehicleType, status, sample, models.UpdateViaAPI, r.now())
	if err := r.pusher.Push(ctx, snap.AccessToken, payload); err != nil {
		if types.IsStatus(err, http.StatusUnauthorized) {
			// The foreground process may have refreshed the session since the snapshot was taken.
			r.identity.Invalidate()
		}
		r.l.Warn(ctx, "telemetry push failed", "error", err.Error())
		return ResultFailed
	}

	r.markSent(ctx, *sample)
	r.l.Debug(ctx, "telemetry pushed", "status", status.String())
	return ResultNewData
}

// availabilityStatus reads the persisted status, defaulting to available.
func (r *Reporter) availabilityStatus(ctx context.Context) types.AvailabilityStatus {
	status, err := r.store.LoadAvailabilityStatus(ctx)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			r.l.Warn(ctx, "failed to read availability status", "error", err.Error())
		}
		return types.StatusAvailable
	}
	return status
}

func (r *Reporter) pickupAnchor(ctx context.Context) *models.PickupAnchor {
	anchor, err := r.store.LoadPickupAnchor(ctx)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			r.l.Warn(ctx, "failed to read pickup anchor", "error", err.Error())
		}
		return nil
	}
	return anchor
}

func (r *Reporter) syncState() models.TelemetrySyncState {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sync
}

// SyncState returns the last pushed sample and time.
func (r *Reporter) SyncState() models.TelemetrySyncState {
	return r.syncState()
}

func (r *Reporter) markSent(ctx context.Context, sample models.LocationSample) {
	now := r.now()

	r.mu.Lock()
	r.sync = models.TelemetrySyncState{LastSentAt: sample.CapturedAt, LastSentLocation: &sample}
	persist := r.lastPersisted.IsZero() || now.Sub(r.lastPersisted) >= r.persistInterval
	if persist {
		r.lastPersisted = now
	}
	r.mu.Unlock()

	if !persist {
		return
	}
	if err := r.store.SaveLastLocation(ctx, sample); err != nil {
		r.l.Warn(ctx, "failed to persist last location", "error", err.Error())
	}
}

func errString(err error) string {
	if err == nil {
		return "none"
	}
	return err.Error()
}
