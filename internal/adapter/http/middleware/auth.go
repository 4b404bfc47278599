package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	wrap "github.com/Temutjin2k/driver-presence/pkg/logger/wrapper"
)

// Auth requires the configured bearer token from the native shell. Health
// and metrics stay public. Without a configured token every request passes.
func (h *Middleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.token == "" || isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get("Authorization"))
		if err != nil {
			// browsers cannot set headers on websocket upgrades
			token = r.URL.Query().Get("token")
		}
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(h.token)) != 1 {
			h.log.Warn(wrap.WithAction(r.Context(), "control_api_auth"), "rejected control API request", "path", r.URL.Path)
			unauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isPublic(path string) bool {
	return path == "/health" || path == "/metrics" || strings.HasPrefix(path, "/swagger/")
}

// --- header parser ---
func extractBearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}
