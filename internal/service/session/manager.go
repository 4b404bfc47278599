package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/logger"
	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
	"github.com/Temutjin2k/driver-presence/pkg/metrics"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

/*
Manager wraps backend calls with the session: it attaches the bearer token,
refreshes the session once on 401 and forces logout when that is impossible.
It is the only writer of the persisted auth state.
*/
type Manager struct {
	transport Transport
	store     AuthStore
	cache     *IdentityCache
	nav       Navigator

	flight singleflight.Group

	mu    sync.RWMutex
	state models.AuthState

	now func() time.Time
	l   logger.Logger
}

func NewManager(transport Transport, store AuthStore, cache *IdentityCache, nav Navigator, l logger.Logger) *Manager {
	return &Manager{
		transport: transport,
		store:     store,
		cache:     cache,
		nav:       nav,
		now:       time.Now,
		l:         l,
	}
}

// Call performs req and returns the data of the backend envelope. On 401 of an
// authenticated request the session is refreshed at most once and the request
// is retried at most once.
func (m *Manager) Call(ctx context.Context, req models.APIRequest) (json.RawMessage, error) {
	token := ""
	if req.RequiresAuth {
		token = m.AccessToken()
	}

	resp, err := m.transport.Do(ctx, req.Method, req.Endpoint, req.Body, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && req.RequiresAuth {
		return m.retryUnauthorized(ctx, req, token)
	}

	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (m *Manager) retryUnauthorized(ctx context.Context, req models.APIRequest, usedToken string) (json.RawMessage, error) {
	ctx = wrap.WithAction(ctx, types.ActionSessionRefresh)

	stored, err := m.store.LoadAuthState(ctx)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, wrap.Error(ctx, fmt.Errorf("load auth state: %w", err))
	}

	if stored == nil || stored.RefreshToken() == "" {
		m.forceLogout(ctx)
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	// A concurrent call already refreshed and persisted a newer token. Retrying
	// with it is the single retry, no second refresh is made.
	token := stored.AccessToken()
	if !stored.IsLoggedIn || token == "" || token == usedToken {
		session, err := m.refresh(ctx, stored)
		if err != nil {
			m.l.Warn(ctx, "session refresh failed", "error", err.Error())
			m.forceLogout(ctx)
			return nil, wrap.Error(ctx, types.ErrSessionExpired)
		}
		token = session.AccessToken
	}

	resp, err := m.transport.Do(ctx, req.Method, req.Endpoint, req.Body, token)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// refresh shares one refresh request between concurrent callers holding the same refresh token.
func (m *Manager) refresh(ctx context.Context, stored *models.AuthState) (*models.AuthSession, error) {
	refreshToken := stored.RefreshToken()

	v, err, _ := m.flight.Do(refreshToken, func() (any, error) {
		data, err := m.transport.RefreshToken(ctx, refreshToken)
		metrics.RecordSessionRefresh(err)
		if err != nil {
			return nil, err
		}

		driver := data.Driver
		if driver == nil {
			driver = stored.Driver
		}
		session := data.Session
		next := models.AuthState{IsLoggedIn: true, Session: &session, Driver: driver}

		if err := m.store.SaveAuthState(ctx, next); err != nil {
			m.l.Error(ctx, "failed to persist refreshed session", err)
		}
		m.setState(next)

		m.l.Info(ctx, "session refreshed")
		return &session, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.AuthSession), nil
}

func (m *Manager) forceLogout(ctx context.Context) {
	ctx = wrap.WithAction(ctx, types.ActionForceLogout)

	if err := m.store.SaveAuthState(ctx, models.AuthState{IsLoggedIn: false}); err != nil {
		m.l.Error(ctx, "failed to clear persisted session", err)
	}
	m.setState(models.AuthState{IsLoggedIn: false})

	m.l.Warn(ctx, "session ended, navigating to welcome")
	if m.nav != nil {
		m.nav.Navigate(ctx, models.RouteWelcome)
	}
}

// Login stores a session obtained by the UI.
func (m *Manager) Login(ctx context.Context, data models.AuthData) error {
	const op = "SessionManager.Login"

	if data.Session.AccessToken == "" {
		return fmt.Errorf("%s: %w", op, types.ErrNoValidSession)
	}

	session := data.Session
	state := models.AuthState{IsLoggedIn: true, Session: &session, Driver: data.Driver}
	if err := m.store.SaveAuthState(ctx, state); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	m.setState(state)
	return nil
}

// Logout is the user initiated logout. Side effects match a forced logout.
func (m *Manager) Logout(ctx context.Context) {
	m.forceLogout(ctx)
}

// Restore loads the persisted session on start. An expired session is
// refreshed once, an unrefreshable one ends in logout.
func (m *Manager) Restore(ctx context.Context) error {
	stored, err := m.store.LoadAuthState(ctx)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("restore session: %w", err)
	}
	if !stored.IsLoggedIn || stored.Session == nil {
		return nil
	}

	m.setState(*stored)
	if m.Valid() {
		return nil
	}

	if stored.RefreshToken() == "" {
		m.forceLogout(ctx)
		return nil
	}
	if _, err := m.refresh(ctx, stored); err != nil {
		m.l.Warn(ctx, "stored session could not be refreshed", "error", err.Error())
		m.forceLogout(ctx)
	}
	return nil
}

// Valid reports whether a logged in, non-expired session exists. Without
// expires_at the exp claim of the access token is used.
func (m *Manager) Valid() bool {
	state := m.State()
	if !state.IsLoggedIn || state.Session == nil || state.Session.AccessToken == "" {
		return false
	}

	now := m.now()
	if state.Session.ExpiresAt > 0 {
		return !state.Session.Expired(now)
	}

	exp, ok := tokenExpiry(state.Session.AccessToken)
	if !ok {
		return true
	}
	return now.Before(exp)
}

// tokenExpiry reads the exp claim without verifying the signature.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// State returns a copy of the in-memory auth state.
func (m *Manager) State() models.AuthState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state
}

// Identity returns the signed-in driver or nil.
func (m *Manager) Identity() *models.DriverIdentity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.state.IsLoggedIn || m.state.Driver == nil {
		return nil
	}
	d := *m.state.Driver
	return &d
}

func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.state.AccessToken()
}

func (m *Manager) setState(state models.AuthState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	if m.cache != nil {
		m.cache.Invalidate()
	}
}
