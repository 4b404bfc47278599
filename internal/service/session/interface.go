package session

import (
	"context"

	"github.com/Temutjin2k/driver-presence/internal/adapter/backend"
	"github.com/Temutjin2k/driver-presence/internal/domain/models"
)

/*=================Backend Transport======================*/

type Transport interface {
	Do(ctx context.Context, method, endpoint string, body any, accessToken string) (*backend.Response, error)
	RefreshToken(ctx context.Context, refreshToken string) (*models.AuthData, error)
}

/*=================Persisted Auth State===================*/

type AuthStore interface {
	AuthLoader
	SaveAuthState(ctx context.Context, state models.AuthState) error
}

type AuthLoader interface {
	LoadAuthState(ctx context.Context) (*models.AuthState, error)
}

/*=================Navigation Collaborator================*/

// Navigator is told where the UI must go after a session change.
type Navigator interface {
	Navigate(ctx context.Context, route string)
}
