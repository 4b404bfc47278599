package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
)

// IdentityCache keeps the identity snapshot used to push telemetry. A cold
// cache is filled from the persisted auth state. Read only: it never writes
// the session.
type IdentityCache struct {
	store AuthLoader

	mu   sync.Mutex
	snap *models.IdentitySnapshot
}

func NewIdentityCache(store AuthLoader) *IdentityCache {
	return &IdentityCache{
		store: store,
	}
}

// Snapshot returns driver id, vehicle type and access token, or
// types.ErrMissingDriverInfo when any of them is unknown.
func (c *IdentityCache) Snapshot(ctx context.Context) (models.IdentitySnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap != nil {
		return *c.snap, nil
	}

	state, err := c.store.LoadAuthState(ctx)
	if err != nil {
		return models.IdentitySnapshot{}, fmt.Errorf("load identity: %w", err)
	}
	if !state.IsLoggedIn || state.Driver == nil {
		return models.IdentitySnapshot{}, types.ErrMissingDriverInfo
	}

	snap := models.IdentitySnapshot{
		DriverID:    state.Driver.DriverID,
		VehicleType: state.Driver.VehicleType,
		AccessToken: state.AccessToken(),
	}
	if !snap.Complete() {
		return models.IdentitySnapshot{}, types.ErrMissingDriverInfo
	}

	c.snap = &snap
	return snap, nil
}

// Invalidate drops the snapshot so the next read goes to storage.
func (c *IdentityCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap = nil
}
