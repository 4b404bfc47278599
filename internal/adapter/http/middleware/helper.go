package middleware

import (
	"encoding/json"
	"net/http"
)

// envelope matches the response shape of the control API handlers.
type envelope map[string]any

// errorResponse writes {"error": message}. Middleware responses carry no
// extra headers, an encoding failure falls back to a bare status.
func errorResponse(w http.ResponseWriter, status int, message any) {
	js, err := json.Marshal(envelope{"error": message})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(js)
}

// unauthorized asks the native shell for the control API token.
func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="driver-presence"`)
	errorResponse(w, http.StatusUnauthorized, "authorization required")
}
