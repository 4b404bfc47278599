package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
	"github.com/Temutjin2k/driver-presence/pkg/metrics"
)

type Config struct {
	ManualDebounce  time.Duration
	SyncDebounce    time.Duration
	SuspensionDelay time.Duration
}

func (c *Config) setDefaults() {
	if c.ManualDebounce <= 0 {
		c.ManualDebounce = 10 * time.Second
	}
	if c.SyncDebounce <= 0 {
		c.SyncDebounce = 10 * time.Second
	}
	if c.SuspensionDelay <= 0 {
		c.SuspensionDelay = 3 * time.Second
	}
}

// Synchronizer owns the driver's online state. It keeps the backend profile,
// the persisted status, the reporter scheduler and the realtime channel in
// agreement. Transitions are mutually exclusive, a call arriving while one is
// in flight is dropped.
type Synchronizer struct {
	session    Session
	profiles   ProfileAPI
	rides      RideAPI
	store      Store
	scheduler  Scheduler
	channel    Channel
	permission PermissionSource
	publishers []Publisher
	cfg        Config

	mu              sync.Mutex
	state           models.AvailabilityState
	suspensionTimer *time.Timer

	now func() time.Time
	l   logger.Logger
}

func New(
	cfg Config,
	session Session,
	profiles ProfileAPI,
	rides RideAPI,
	store Store,
	scheduler Scheduler,
	channel Channel,
	permission PermissionSource,
	l logger.Logger,
	publishers ...Publisher,
) *Synchronizer {
	cfg.setDefaults()
	return &Synchronizer{
		session:    session,
		profiles:   profiles,
		rides:      rides,
		store:      store,
		scheduler:  scheduler,
		channel:    channel,
		permission: permission,
		publishers: publishers,
		cfg:        cfg,
		state:      models.AvailabilityState{AvailabilityStatus: types.StatusNotAvailable},
		now:        time.Now,
		l:          l,
	}
}

func (s *Synchronizer) State() models.AvailabilityState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *Synchronizer) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsTransitioning {
		return false
	}
	s.state.IsTransitioning = true
	return true
}

func (s *Synchronizer) end() {
	s.mu.Lock()
	s.state.IsTransitioning = false
	s.mu.Unlock()
}

// SetOnline is the manual toggle. Going online fails without side effects
// when driver info, a valid session or location permission is missing; a
// later failure rolls everything back and leaves the driver offline.
func (s *Synchronizer) SetOnline(ctx context.Context, online bool) error {
	action := types.ActionGoOffline
	if online {
		action = types.ActionGoOnline
	}
	ctx = wrap.WithAction(ctx, action)

	if !s.begin() {
		s.l.Debug(ctx, "transition in flight, toggle dropped")
		return nil
	}
	defer s.end()

	if s.State().IsOnline == online {
		s.l.Debug(ctx, "already in requested state")
		return nil
	}

	var err error
	if online {
		err = s.goOnline(ctx)
	} else {
		err = s.goOffline(ctx, models.ReasonManual)
	}
	metrics.RecordTransition(online, err)
	if err != nil {
		return wrap.Error(ctx, err)
	}
	return nil
}

func (s *Synchronizer) goOnline(ctx context.Context) error {
	const op = "Synchronizer.goOnline"

	identity := s.session.Identity()
	if identity == nil || !identity.Complete() {
		return fmt.Errorf("%s: %w", op, types.ErrMissingDriverInfo)
	}
	if !s.session.Valid() {
		return fmt.Errorf("%s: %w", op, types.ErrNoValidSession)
	}
	if !s.permission.Permission(ctx) {
		return fmt.Errorf("%s: %w", op, types.ErrLocationPermissionDenied)
	}
	ctx = wrap.WithDriverID(ctx, identity.DriverID)

	if _, err := s.profiles.UpdateProfile(ctx, onlineUpdate(true)); err != nil {
		return fmt.Errorf("%s: update profile: %w", op, err)
	}

	if err := s.applyStatus(ctx, types.StatusAvailable); err != nil {
		s.rollback(ctx)
		return fmt.Errorf("%s: persist status: %w", op, err)
	}

	s.scheduler.Start(ctx)

	if err := s.channel.Connect(ctx, identity.DriverID, identity.VehicleType); err != nil {
		s.rollback(ctx)
		return fmt.Errorf("%s: connect channel: %w", op, err)
	}

	s.commit(ctx, true, types.StatusAvailable, models.ReasonManual)
	s.l.Info(ctx, "driver is online")
	return nil
}

// rollback undoes a partial go-online. The backend PATCH is best effort.
func (s *Synchronizer) rollback(ctx context.Context) {
	s.scheduler.Stop()
	s.channel.Disconnect()

	if _, err := s.profiles.UpdateProfile(ctx, onlineUpdate(false)); err != nil {
		s.l.Warn(ctx, "rollback profile update failed", "error", err.Error())
	}
	if err := s.store.SaveAvailabilityStatus(ctx, types.StatusNotAvailable); err != nil {
		s.l.Warn(ctx, "rollback status persist failed", "error", err.Error())
	}
	s.l.Warn(ctx, "going online rolled back")
}

// goOffline always ends offline locally. A failed PATCH is returned after the
// local side effects are stopped.
func (s *Synchronizer) goOffline(ctx context.Context, reason string) error {
	const op = "Synchronizer.goOffline"

	s.scheduler.Stop()
	s.channel.Disconnect()

	_, patchErr := s.profiles.UpdateProfile(ctx, onlineUpdate(false))
	if err := s.applyStatus(ctx, types.StatusNotAvailable); err != nil {
		s.l.Warn(ctx, "persist status failed", "error", err.Error())
	}

	s.commit(ctx, false, types.StatusNotAvailable, reason)
	s.l.Info(ctx, "driver is offline", "reason", reason)

	if patchErr != nil {
		return fmt.Errorf("%s: update profile: %w", op, patchErr)
	}
	return nil
}

// SyncOnlineStatus reconciles with the backend profile, the backend wins. It
// is skipped after a recent manual toggle or a recent sync.
func (s *Synchronizer) SyncOnlineStatus(ctx context.Context) error {
	const op = "Synchronizer.SyncOnlineStatus"
	ctx = wrap.WithAction(ctx, types.ActionSyncOnlineStatus)

	if !s.begin() {
		s.l.Debug(ctx, "transition in flight, sync dropped")
		return nil
	}
	defer s.end()

	now := s.now()
	st := s.State()
	if !st.LastManualToggleAt.IsZero() && now.Sub(st.LastManualToggleAt) < s.cfg.ManualDebounce {
		s.l.Debug(ctx, "sync skipped, recent manual toggle")
		return nil
	}
	if !st.LastSyncAt.IsZero() && now.Sub(st.LastSyncAt) < s.cfg.SyncDebounce {
		s.l.Debug(ctx, "sync skipped, recent sync")
		return nil
	}
	if !s.session.Valid() {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrNoValidSession))
	}

	s.mu.Lock()
	s.state.LastSyncAt = now
	s.mu.Unlock()

	profile, err := s.profiles.GetProfile(ctx)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: get profile: %w", op, err))
	}

	status := types.AvailabilityStatus(profile.AvailabilityStatus)
	if status.Valid() {
		if err := s.applyStatus(ctx, status); err != nil {
			s.l.Warn(ctx, "persist synced status failed", "error", err.Error())
		}
		s.mu.Lock()
		s.state.AvailabilityStatus = status
		s.mu.Unlock()
	} else {
		s.l.Warn(ctx, "backend returned unknown availability status", "status", profile.AvailabilityStatus)
		status = st.AvailabilityStatus
	}

	if !profile.IsOnline {
		s.channel.Disconnect()
		s.scheduler.Stop()
		if st.IsOnline {
			s.commit(ctx, false, status, models.ReasonSync)
			metrics.RecordTransition(false, nil)
			s.l.Info(ctx, "backend reports offline, local state reconciled")
		}
		return nil
	}

	identity := s.session.Identity()
	if identity == nil || !identity.Complete() {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, types.ErrMissingDriverInfo))
	}
	ctx = wrap.WithDriverID(ctx, identity.DriverID)

	if err := s.channel.Connect(ctx, identity.DriverID, identity.VehicleType); err != nil {
		metrics.RecordTransition(true, err)
		return wrap.Error(ctx, fmt.Errorf("%s: connect channel: %w", op, err))
	}
	s.scheduler.Start(ctx)

	if !st.IsOnline {
		s.commit(ctx, true, status, models.ReasonSync)
		metrics.RecordTransition(true, nil)
		s.l.Info(ctx, "backend reports online, local state reconciled")
	}
	return nil
}

// HandleSuspension schedules a forced offline after the suspension delay. A
// newer notice replaces the pending one.
func (s *Synchronizer) HandleSuspension(ctx context.Context, notice models.SuspensionNotice) {
	ctx = wrap.WithAction(context.WithoutCancel(ctx), types.ActionSuspension)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsOnline {
		s.l.Debug(ctx, "suspension ignored, driver offline")
		return
	}

	s.l.Warn(ctx, "account suspended, going offline", "reason", notice.Reason)
	s.scheduleSuspensionLocked(ctx)
}

func (s *Synchronizer) scheduleSuspensionLocked(ctx context.Context) {
	if s.suspensionTimer != nil {
		s.suspensionTimer.Stop()
	}
	s.suspensionTimer = time.AfterFunc(s.cfg.SuspensionDelay, func() {
		s.forceOffline(ctx)
	})
}

func (s *Synchronizer) forceOffline(ctx context.Context) {
	if !s.begin() {
		s.mu.Lock()
		s.scheduleSuspensionLocked(ctx)
		s.mu.Unlock()
		return
	}
	defer s.end()

	s.mu.Lock()
	s.suspensionTimer = nil
	online := s.state.IsOnline
	s.mu.Unlock()

	if !online {
		return
	}

	err := s.goOffline(ctx, models.ReasonSuspension)
	metrics.RecordTransition(false, err)
	if err != nil {
		s.l.Error(wrap.ErrorCtx(ctx, err), "forced offline failed", err)
	}
}

// SetAvailabilityStatus persists status and keeps the pickup anchor in line
// with it.
func (s *Synchronizer) SetAvailabilityStatus(ctx context.Context, status types.AvailabilityStatus) error {
	const op = "Synchronizer.SetAvailabilityStatus"
	ctx = wrap.WithAction(ctx, types.ActionSetStatus)

	if !status.Valid() {
		return fmt.Errorf("%s: %w", op, types.ErrInvalidStatus)
	}
	if err := s.applyStatus(ctx, status); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	s.mu.Lock()
	s.state.AvailabilityStatus = status
	online := s.state.IsOnline
	s.mu.Unlock()

	s.publish(ctx, online, status, models.ReasonStatus)
	return nil
}

// applyStatus persists status. Pickup statuses store the active ride's
// pickup point as the anchor, every other status removes it.
func (s *Synchronizer) applyStatus(ctx context.Context, status types.AvailabilityStatus) error {
	if err := s.store.SaveAvailabilityStatus(ctx, status); err != nil {
		return err
	}

	if !status.PickupBound() {
		if err := s.store.DeletePickupAnchor(ctx); err != nil && !errors.Is(err, types.ErrNotFound) {
			s.l.Warn(ctx, "delete pickup anchor failed", "error", err.Error())
		}
		return nil
	}

	ride, err := s.rides.ActiveRide(ctx)
	if err != nil {
		s.l.Warn(ctx, "no pickup anchor, active ride unavailable", "error", err.Error())
		return nil
	}
	if ride.PlannedPickupCoords == nil {
		return nil
	}

	anchor := models.PickupAnchor{
		Latitude:  ride.PlannedPickupCoords.Coordinates[1],
		Longitude: ride.PlannedPickupCoords.Coordinates[0],
	}
	if err := s.store.SavePickupAnchor(ctx, anchor); err != nil {
		s.l.Warn(ctx, "save pickup anchor failed", "error", err.Error())
	}
	return nil
}

func (s *Synchronizer) commit(ctx context.Context, online bool, status types.AvailabilityStatus, reason string) {
	s.mu.Lock()
	s.state.IsOnline = online
	s.state.AvailabilityStatus = status
	if reason != models.ReasonSync {
		s.state.LastManualToggleAt = s.now()
	}
	s.mu.Unlock()

	s.publish(ctx, online, status, reason)
}

func (s *Synchronizer) publish(ctx context.Context, online bool, status types.AvailabilityStatus, reason string) {
	if len(s.publishers) == 0 {
		return
	}

	ev := models.AvailabilityEvent{
		IsOnline:           online,
		AvailabilityStatus: status,
		Reason:             reason,
		Timestamp:          s.now().UTC(),
	}
	if identity := s.session.Identity(); identity != nil {
		ev.DriverID = identity.DriverID
	}

	for _, p := range s.publishers {
		if err := p.PublishAvailability(ctx, ev); err != nil {
			s.l.Warn(ctx, "availability event not published", "error", err.Error())
		}
	}
}

func onlineUpdate(online bool) models.ProfileUpdate {
	status := types.StatusNotAvailable
	if online {
		status = types.StatusAvailable
	}
	notSuspended := false
	zero := 0
	statusStr := status.String()
	return models.ProfileUpdate{
		IsOnline:           &online,
		IsSuspended:        &notSuspended,
		AvailabilityStatus: &statusStr,
		DeclineCount:       &zero,
		MissedRequests:     &zero,
	}
}
