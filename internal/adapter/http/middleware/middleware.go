package middleware

import (
	"github.com/Temutjin2k/driver-presence/pkg/logger"
)

type Middleware struct {
	// token guards the control API when set.
	token string
	log   logger.Logger
}

func NewMiddleware(token string, log logger.Logger) *Middleware {
	return &Middleware{
		token: token,
		log:   log,
	}
}
