package device

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
)

func TestFeed_PermissionDenied(t *testing.T) {
	f := NewFeed(false, time.Second)

	if _, err := f.Current(context.Background(), time.Minute); !errors.Is(err, types.ErrLocationPermissionDenied) {
		t.Fatalf("expected ErrLocationPermissionDenied, got %v", err)
	}
}

func TestFeed_FreshFixReturnedImmediately(t *testing.T) {
	f := NewFeed(true, time.Hour)
	f.Update(models.LocationSample{Latitude: 1, Longitude: 2, CapturedAt: time.Now()})

	s, err := f.Current(context.Background(), time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Latitude != 1 {
		t.Fatalf("unexpected sample: %+v", s)
	}
}

func TestFeed_WaitsForNewFix(t *testing.T) {
	f := NewFeed(true, 2*time.Second)
	f.Update(models.LocationSample{Latitude: 1, CapturedAt: time.Now().Add(-time.Hour)})

	go func() {
		time.Sleep(20 * time.Millisecond)
		f.Update(models.LocationSample{Latitude: 9, CapturedAt: time.Now()})
	}()

	s, err := f.Current(context.Background(), time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Latitude != 9 {
		t.Fatalf("expected the new fix, got %+v", s)
	}
}

func TestFeed_NoFix(t *testing.T) {
	f := NewFeed(true, 10*time.Millisecond)

	if _, err := f.Current(context.Background(), time.Minute); !errors.Is(err, types.ErrNoLocation) {
		t.Fatalf("expected ErrNoLocation, got %v", err)
	}
}

func TestFeed_IgnoresOlderFix(t *testing.T) {
	f := NewFeed(true, time.Second)
	now := time.Now()
	f.Update(models.LocationSample{Latitude: 2, CapturedAt: now})
	f.Update(models.LocationSample{Latitude: 1, CapturedAt: now.Add(-time.Second)})

	s, _ := f.Latest()
	if s.Latitude != 2 {
		t.Fatalf("older fix replaced newer one: %+v", s)
	}
}
