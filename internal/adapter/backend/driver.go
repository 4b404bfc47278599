package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Temutjin2k/driver-presence/internal/domain/models"
)

// Caller performs authenticated backend calls. Implemented by the session manager.
type Caller interface {
	Call(ctx context.Context, req models.APIRequest) (json.RawMessage, error)
}

type DriverAPI struct {
	caller Caller
}

func NewDriverAPI(caller Caller) *DriverAPI {
	return &DriverAPI{
		caller: caller,
	}
}

func (a *DriverAPI) GetProfile(ctx context.Context) (*models.DriverProfile, error) {
	const op = "DriverAPI.GetProfile"

	data, err := a.caller.Call(ctx, models.APIRequest{
		Endpoint:     "/driver/profile",
		Method:       http.MethodGet,
		RequiresAuth: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var profile models.DriverProfile
	if err := decode(data, &profile); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &profile, nil
}

func (a *DriverAPI) UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.DriverProfile, error) {
	const op = "DriverAPI.UpdateProfile"

	data, err := a.caller.Call(ctx, models.APIRequest{
		Endpoint:     "/driver/profile",
		Method:       http.MethodPatch,
		Body:         update,
		RequiresAuth: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var profile models.DriverProfile
	if err := decode(data, &profile); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &profile, nil
}

// decode leaves dst untouched for an empty or null payload.
func decode(data json.RawMessage, dst any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
