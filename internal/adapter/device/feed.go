package device

import (
	"context"
	"sync"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
)

// Feed holds the latest fix and the permission state pushed by the native shell.
type Feed struct {
	mu      sync.Mutex
	latest  *models.LocationSample
	granted bool
	updated chan struct{}

	fixTimeout time.Duration
	now        func() time.Time
}

func NewFeed(granted bool, fixTimeout time.Duration) *Feed {
	return &Feed{
		granted:    granted,
		updated:    make(chan struct{}),
		fixTimeout: fixTimeout,
		now:        time.Now,
	}
}

// Update records a new fix and wakes up waiters.
func (f *Feed) Update(sample models.LocationSample) {
	if sample.CapturedAt.IsZero() {
		sample.CapturedAt = f.now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.latest != nil && sample.CapturedAt.Before(f.latest.CapturedAt) {
		return
	}
	f.latest = &sample
	close(f.updated)
	f.updated = make(chan struct{})
}

func (f *Feed) SetPermission(granted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.granted = granted
}

// Permission reports whether location access is granted.
func (f *Feed) Permission(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.granted
}

// Latest returns the most recent fix regardless of age.
func (f *Feed) Latest() (*models.LocationSample, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.latest == nil {
		return nil, false
	}
	s := *f.latest
	return &s, true
}

// Current returns a fix younger than maxAge. When the latest one is older it
// waits up to the fix timeout for a new one and falls back to the stale fix.
func (f *Feed) Current(ctx context.Context, maxAge time.Duration) (*models.LocationSample, error) {
	f.mu.Lock()
	if !f.granted {
		f.mu.Unlock()
		return nil, types.ErrLocationPermissionDenied
	}
	if f.latest != nil && f.latest.Age(f.now()) < maxAge {
		s := *f.latest
		f.mu.Unlock()
		return &s, nil
	}
	wait := f.updated
	f.mu.Unlock()

	timer := time.NewTimer(f.fixTimeout)
	defer timer.Stop()

	select {
	case <-wait:
	case <-timer.C:
	case <-ctx.Done():
	}

	if s, ok := f.Latest(); ok {
		return s, nil
	}
	return nil, types.ErrNoLocation
}
