package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
)

// Backend is a timestamped key-value store. Implementations keep the newest
// write per key and return types.ErrNotFound for missing or deleted keys.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, at time.Time) error
	Delete(ctx context.Context, key string, at time.Time) error
}

// Storage gives typed access to the persisted keys shared by the agent and the reporter.
type Storage struct {
	backend Backend
	now     func() time.Time
}

func New(backend Backend) *Storage {
	return &Storage{
		backend: backend,
		now:     time.Now,
	}
}

// WithClock replaces the clock used to stamp writes.
func (s *Storage) WithClock(now func() time.Time) *Storage {
	s.now = now
	return s
}

func (s *Storage) LoadAuthState(ctx context.Context) (*models.AuthState, error) {
	var state models.AuthState
	if err := s.get(ctx, types.KeyAuthState, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Storage) SaveAuthState(ctx context.Context, state models.AuthState) error {
	return s.set(ctx, types.KeyAuthState, state)
}

func (s *Storage) LoadLastLocation(ctx context.Context) (*models.LocationSample, error) {
	var sample models.LocationSample
	if err := s.get(ctx, types.KeyLastLocation, &sample); err != nil {
		return nil, err
	}
	return &sample, nil
}

func (s *Storage) SaveLastLocation(ctx context.Context, sample models.LocationSample) error {
	return s.set(ctx, types.KeyLastLocation, sample)
}

func (s *Storage) LoadAvailabilityStatus(ctx context.Context) (types.AvailabilityStatus, error) {
	var status types.AvailabilityStatus
	if err := s.get(ctx, types.KeyAvailabilityStatus, &status); err != nil {
		return "", err
	}
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidStatus, status)
	}
	return status, nil
}

func (s *Storage) SaveAvailabilityStatus(ctx context.Context, status types.AvailabilityStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidStatus, status)
	}
	return s.set(ctx, types.KeyAvailabilityStatus, status)
}

func (s *Storage) LoadPickupAnchor(ctx context.Context) (*models.PickupAnchor, error) {
	var anchor models.PickupAnchor
	if err := s.get(ctx, types.KeyPickupAnchor, &anchor); err != nil {
		return nil, err
	}
	return &anchor, nil
}

func (s *Storage) SavePickupAnchor(ctx context.Context, anchor models.PickupAnchor) error {
	return s.set(ctx, types.KeyPickupAnchor, anchor)
}

func (s *Storage) DeletePickupAnchor(ctx context.Context) error {
	if err := s.backend.Delete(ctx, types.KeyPickupAnchor, s.now()); err != nil {
		return fmt.Errorf("delete %s: %w", types.KeyPickupAnchor, err)
	}
	return nil
}

func (s *Storage) get(ctx context.Context, key string, dst any) error {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Storage) set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.backend.Set(ctx, key, raw, s.now()); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
