package session

import (
	"context"
	"errors"
	"testing"

	"github.com/Temutjin2k/driver-presence/internal/adapter/memory"
	"github.com/Temutjin2k/driver-presence/internal/adapter/storage"
	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
)

func TestIdentityCache_FallsBackToStorage(t *testing.T) {
	ctx := context.Background()
	store := storage.New(memory.NewStore())
	cache := NewIdentityCache(store)

	if _, err := cache.Snapshot(ctx); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on cold empty store, got %v", err)
	}

	_ = store.SaveAuthState(ctx, *loggedIn("a1", "r1"))
	snap, err := cache.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.DriverID != "d1" || snap.VehicleType != "car" || snap.AccessToken != "a1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// Cached until invalidated.
	_ = store.SaveAuthState(ctx, *loggedIn("a2", "r2"))
	if snap, _ := cache.Snapshot(ctx); snap.AccessToken != "a1" {
		t.Fatalf("expected cached token, got %q", snap.AccessToken)
	}

	cache.Invalidate()
	if snap, _ := cache.Snapshot(ctx); snap.AccessToken != "a2" {
		t.Fatalf("expected reloaded token, got %q", snap.AccessToken)
	}
}

func TestIdentityCache_MissingFields(t *testing.T) {
	ctx := context.Background()
	store := storage.New(memory.NewStore())

	st := loggedIn("a1", "r1")
	st.Driver = &models.DriverIdentity{DriverID: "d1"}
	_ = store.SaveAuthState(ctx, *st)

	if _, err := NewIdentityCache(store).Snapshot(ctx); !errors.Is(err, types.ErrMissingDriverInfo) {
		t.Fatalf("expected ErrMissingDriverInfo, got %v", err)
	}
}
