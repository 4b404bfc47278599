package dto

import (
	"github.com/Temutjin2k/driver-presence/internal/domain/models"
	"github.com/Temutjin2k/driver-presence/pkg/validator"
)

// LoginRequest hands the session obtained by the shell to the agent.
type LoginRequest struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    int64         `json:"expires_at,omitempty"`
	Driver       DriverRequest `json:"driver"`
}

type DriverRequest struct {
	UserID      string `json:"user_id,omitempty"`
	DriverID    string `json:"driver_id"`
	VehicleType string `json:"vehicle_type"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
}

func (r *LoginRequest) Validate(v *validator.Validator) {
	v.Check(r.AccessToken != "", "access_token", "must be provided")
	v.Check(r.RefreshToken != "", "refresh_token", "must be provided")
	v.Check(r.ExpiresAt >= 0, "expires_at", "must not be negative")
	v.Check(r.Driver.DriverID != "", "driver.driver_id", "must be provided")
	v.Check(r.Driver.VehicleType != "", "driver.vehicle_type", "must be provided")
}

func (r *LoginRequest) ToModel() models.AuthData {
	return models.AuthData{
		Session: models.AuthSession{
			AccessToken:  r.AccessToken,
			RefreshToken: r.RefreshToken,
			ExpiresAt:    r.ExpiresAt,
		},
		Driver: &models.DriverIdentity{
			UserID:      r.Driver.UserID,
			DriverID:    r.Driver.DriverID,
			VehicleType: r.Driver.VehicleType,
			FirstName:   r.Driver.FirstName,
			LastName:    r.Driver.LastName,
		},
	}
}

// SessionResponse never carries the tokens back.
type SessionResponse struct {
	IsLoggedIn bool                   `json:"is_logged_in"`
	Valid      bool                   `json:"valid"`
	Driver     *models.DriverIdentity `json:"driver,omitempty"`
}
