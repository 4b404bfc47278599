package models

import "encoding/json"

// APIRequest describes one backend call.
type APIRequest struct {
	Endpoint     string
	Method       string
	Body         any
	RequiresAuth bool
}

// Envelope wraps every backend response.
type Envelope struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}
