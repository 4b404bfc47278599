package models

import "time"

// AuthSession is the token pair issued by the backend. ExpiresAt is epoch seconds, 0 when unknown.
type AuthSession struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
}

// Expired reports whether the session carries an expiry that is already behind now.
func (s AuthSession) Expired(now time.Time) bool {
	return s.ExpiresAt > 0 && now.Unix() >= s.ExpiresAt
}

// DriverIdentity is the part of the signed-in account the core needs.
type DriverIdentity struct {
	UserID      string `json:"user_id,omitempty"`
	DriverID    string `json:"driver_id"`
	VehicleType string `json:"vehicle_type"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
}

// Complete reports whether both fields required to go online are set.
func (d *DriverIdentity) Complete() bool {
	return d != nil && d.DriverID != "" && d.VehicleType != ""
}

// AuthState is persisted under the auth-state key on every change.
type AuthState struct {
	IsLoggedIn bool            `json:"is_logged_in"`
	Session    *AuthSession    `json:"session,omitempty"`
	Driver     *DriverIdentity `json:"driver,omitempty"`
}

// RefreshToken returns the stored refresh token or "".
func (s *AuthState) RefreshToken() string {
	if s == nil || s.Session == nil {
		return ""
	}
	return s.Session.RefreshToken
}

// AccessToken returns the stored access token or "".
func (s *AuthState) AccessToken() string {
	if s == nil || s.Session == nil {
		return ""
	}
	return s.Session.AccessToken
}

// AuthData is the payload of a successful login or token refresh.
type AuthData struct {
	Session AuthSession     `json:"session"`
	Driver  *DriverIdentity `json:"driver,omitempty"`
}

// IdentitySnapshot is what the reporter needs to push telemetry.
type IdentitySnapshot struct {
	DriverID    string
	VehicleType string
	AccessToken string
}

func (s IdentitySnapshot) Complete() bool {
	return s.DriverID != "" && s.VehicleType != "" && s.AccessToken != ""
}
